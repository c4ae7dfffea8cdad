// Package permission requests and tracks the camera, microphone and media
// library grants the capture screen depends on.
package permission

import (
	"context"
	"fmt"

	"github.com/jwulff/clipcam/internal/device"
	"go.uber.org/zap"
)

// State is the latest known decision for one scope.
type State struct {
	Scope       device.Scope
	Granted     bool
	CanAskAgain bool
	Resolved    bool
}

// Set holds one State per scope. It is replaced as a whole, never per scope,
// so the screen never sees a partially resolved set.
type Set struct {
	Camera     State
	Microphone State
	Library    State
}

// Unresolved returns the set in effect before the first authorize completes.
func Unresolved() Set {
	return Set{
		Camera:     State{Scope: device.ScopeCamera, CanAskAgain: true},
		Microphone: State{Scope: device.ScopeMicrophone, CanAskAgain: true},
		Library:    State{Scope: device.ScopeMediaLibrary, CanAskAgain: true},
	}
}

// Resolved reports whether every scope has an answer.
func (s Set) Resolved() bool {
	return s.Camera.Resolved && s.Microphone.Resolved && s.Library.Resolved
}

// CaptureAllowed reports whether the capture UI may be shown: all scopes
// resolved, camera and library granted.
func (s Set) CaptureAllowed() bool {
	return s.Resolved() && s.Camera.Granted && s.Library.Granted
}

// CanReask reports whether asking again could lift every denial that blocks
// capture.
func (s Set) CanReask() bool {
	if !s.Resolved() {
		return false
	}
	for _, st := range []State{s.Camera, s.Library} {
		if !st.Granted && !st.CanAskAgain {
			return false
		}
	}
	return !s.CaptureAllowed()
}

// Denied lists the scopes blocking capture.
func (s Set) Denied() []device.Scope {
	var out []device.Scope
	if s.Resolved() && !s.Camera.Granted {
		out = append(out, device.ScopeCamera)
	}
	if s.Resolved() && !s.Library.Granted {
		out = append(out, device.ScopeMediaLibrary)
	}
	return out
}

// Gateway issues permission requests through a device.Permissions backend.
type Gateway struct {
	perms device.Permissions
	log   *zap.Logger
}

// NewGateway creates a Gateway.
func NewGateway(perms device.Permissions, log *zap.Logger) *Gateway {
	return &Gateway{perms: perms, log: log}
}

// Authorize requests camera, media library and microphone access in that
// order and returns the complete set. It may be called again at any time; the
// result replaces whatever the caller held before. An error wraps
// device.ErrPermissionSystemUnavailable and no partial set is returned.
func (g *Gateway) Authorize(ctx context.Context) (Set, error) {
	camera, err := g.request(ctx, device.ScopeCamera, g.perms.RequestCamera)
	if err != nil {
		return Set{}, err
	}
	library, err := g.request(ctx, device.ScopeMediaLibrary, g.perms.RequestMediaLibrary)
	if err != nil {
		return Set{}, err
	}
	micro, err := g.request(ctx, device.ScopeMicrophone, g.perms.RequestMicrophone)
	if err != nil {
		return Set{}, err
	}

	g.log.Info("permissions resolved",
		zap.Bool("camera", camera.Granted),
		zap.Bool("library", library.Granted),
		zap.Bool("microphone", micro.Granted),
	)
	return Set{Camera: camera, Microphone: micro, Library: library}, nil
}

// ConfirmLibrary re-reads the media library grant right before a capture
// starts. It returns an error wrapping device.ErrPermissionDenied when access
// was revoked since the screen authorized.
func (g *Gateway) ConfirmLibrary(ctx context.Context) error {
	st, err := g.request(ctx, device.ScopeMediaLibrary, g.perms.RequestMediaLibrary)
	if err != nil {
		return err
	}
	if !st.Granted {
		return fmt.Errorf("%s: %w", device.ScopeMediaLibrary, device.ErrPermissionDenied)
	}
	return nil
}

func (g *Gateway) request(ctx context.Context, scope device.Scope, fn func(context.Context) (device.Grant, error)) (State, error) {
	grant, err := fn(ctx)
	if err != nil {
		g.log.Warn("permission request failed", zap.Stringer("scope", scope), zap.Error(err))
		return State{}, fmt.Errorf("request %s permission: %w: %w", scope, device.ErrPermissionSystemUnavailable, err)
	}
	return State{
		Scope:       scope,
		Granted:     grant.Granted,
		CanAskAgain: grant.CanAskAgain,
		Resolved:    true,
	}, nil
}
