package daemon

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jwulff/clipcam/internal/device"
	"go.uber.org/zap"
)

// Remote drives a capture daemon. Short commands share one connection; each
// capture gets its own connection because the daemon answers start only when
// the capture settles.
type Remote struct {
	socketPath string
	platform   device.Platform
	log        *zap.Logger

	mu     sync.Mutex
	client *Client

	// Session bookkeeping, so a stop that beats its start cancels it.
	smu      sync.Mutex
	launched map[string]bool
	stopped  map[string]bool
	settled  string
}

var (
	_ device.Permissions = (*Remote)(nil)
	_ device.Capturer    = (*Remote)(nil)
)

// Dial connects to the daemon at socketPath and asks for its platform.
func Dial(ctx context.Context, socketPath string, log *zap.Logger) (*Remote, error) {
	r := newRemote(socketPath, log)
	resp, err := r.send(ctx, Command{Cmd: CmdHello})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, fmt.Errorf("hello: %s", resp.Error)
	}

	switch p := device.Platform(resp.Platform); p {
	case device.PlatformAndroid, device.PlatformIOS, device.PlatformDesktop:
		r.platform = p
	default:
		r.Close()
		return nil, fmt.Errorf("daemon reported unknown platform %q", resp.Platform)
	}
	log.Info("capture daemon connected", zap.String("socket", socketPath), zap.String("platform", resp.Platform))
	return r, nil
}

func newRemote(socketPath string, log *zap.Logger) *Remote {
	return &Remote{
		socketPath: socketPath,
		log:        log,
		launched:   make(map[string]bool),
		stopped:    make(map[string]bool),
	}
}

// Close closes the command connection.
func (r *Remote) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.client == nil {
		return nil
	}
	err := r.client.Close()
	r.client = nil
	return err
}

// Platform reports the daemon's device family.
func (r *Remote) Platform() device.Platform { return r.platform }

func (r *Remote) RequestCamera(ctx context.Context) (device.Grant, error) {
	return r.permission(ctx, "camera")
}

func (r *Remote) RequestMicrophone(ctx context.Context) (device.Grant, error) {
	return r.permission(ctx, "microphone")
}

func (r *Remote) RequestMediaLibrary(ctx context.Context) (device.Grant, error) {
	return r.permission(ctx, "mediaLibrary")
}

func (r *Remote) permission(ctx context.Context, scope string) (device.Grant, error) {
	resp, err := r.send(ctx, Command{Cmd: CmdPermission, Scope: scope})
	if err != nil {
		return device.Grant{}, err
	}
	if !resp.OK {
		return device.Grant{}, fmt.Errorf("permission %s: %s", scope, resp.Error)
	}
	if resp.Granted == nil {
		return device.Grant{}, fmt.Errorf("permission %s: daemon omitted grant", scope)
	}
	g := device.Grant{Granted: *resp.Granted}
	if resp.CanAskAgain != nil {
		g.CanAskAgain = *resp.CanAskAgain
	}
	return g, nil
}

// Prepare mounts the daemon's camera and waits for its ready signal.
func (r *Remote) Prepare(ctx context.Context, settings device.CameraSettings) error {
	resp, err := r.send(ctx, Command{
		Cmd:        CmdPrepare,
		CameraType: string(settings.Type),
		Flash:      string(settings.Flash),
	})
	if err != nil {
		return fmt.Errorf("prepare camera: %w: %w", device.ErrCameraUnavailable, err)
	}
	if !resp.OK {
		return fmt.Errorf("prepare camera: %w: %s", device.ErrCameraUnavailable, resp.Error)
	}
	return nil
}

// StartCapture records on a dedicated connection until the daemon reports
// the capture settled.
func (r *Remote) StartCapture(ctx context.Context, sessionID string, c device.Constraints) (device.CaptureResult, error) {
	r.smu.Lock()
	if r.stopped[sessionID] {
		delete(r.stopped, sessionID)
		r.smu.Unlock()
		r.log.Info("capture cancelled before start", zap.String("session_id", sessionID))
		return device.CaptureResult{}, device.ErrCaptureCancelled
	}
	// One capture runs at a time; stops held for other sessions are stale.
	clear(r.stopped)
	r.launched[sessionID] = true
	r.smu.Unlock()
	defer func() {
		r.smu.Lock()
		delete(r.launched, sessionID)
		r.settled = sessionID
		r.smu.Unlock()
	}()

	client, err := Connect(r.socketPath)
	if err != nil {
		return device.CaptureResult{}, fmt.Errorf("%w: %w", device.ErrCaptureFailed, err)
	}
	defer client.Close()

	secs := int(c.MaxDuration / time.Second)
	r.log.Info("capture started", zap.String("session_id", sessionID), zap.Int("max_duration_sec", secs))
	resp, err := client.SendCommand(ctx, Command{
		Cmd:            CmdStart,
		SessionID:      sessionID,
		MaxDurationSec: IntPtr(secs),
		Quality:        string(c.Quality),
	})
	if err != nil {
		return device.CaptureResult{}, fmt.Errorf("%w: %w", device.ErrCaptureFailed, err)
	}
	if !resp.OK {
		return device.CaptureResult{}, fmt.Errorf("%w: %s", device.ErrCaptureFailed, resp.Error)
	}
	if resp.URI == "" {
		return device.CaptureResult{}, fmt.Errorf("%w: daemon returned no media uri", device.ErrCaptureFailed)
	}
	r.log.Info("capture finished", zap.String("session_id", sessionID), zap.String("uri", resp.URI))
	return device.CaptureResult{URI: resp.URI, FinishedAt: time.Now()}, nil
}

// StopCapture asks the daemon to end the session's capture early. A stop for
// a session not yet started is held until StartCapture.
func (r *Remote) StopCapture(ctx context.Context, sessionID string) error {
	r.smu.Lock()
	switch {
	case sessionID == r.settled:
		r.smu.Unlock()
		return device.ErrCaptureNotRunning
	case !r.launched[sessionID]:
		r.stopped[sessionID] = true
		r.smu.Unlock()
		return nil
	}
	r.smu.Unlock()

	resp, err := r.send(ctx, Command{Cmd: CmdStop, SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("stop capture: %w", err)
	}
	if !resp.OK {
		if resp.Code == CodeNotRunning {
			return device.ErrCaptureNotRunning
		}
		return fmt.Errorf("stop capture: %s", resp.Error)
	}
	return nil
}

// Abandon forgets a stop held for a session that will never start.
func (r *Remote) Abandon(sessionID string) {
	r.smu.Lock()
	defer r.smu.Unlock()
	delete(r.stopped, sessionID)
}

// send runs cmd on the shared connection, dialing on first use and after any
// transport error. Transport errors wrap device.ErrPermissionSystemUnavailable
// since the daemon is the permission subsystem for this backend.
func (r *Remote) send(ctx context.Context, cmd Command) (Response, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.client == nil {
		client, err := Connect(r.socketPath)
		if err != nil {
			return Response{}, fmt.Errorf("%w: %w", device.ErrPermissionSystemUnavailable, err)
		}
		r.client = client
	}

	resp, err := r.client.SendCommand(ctx, cmd)
	if err != nil {
		r.client.Close()
		r.client = nil
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Response{}, err
		}
		return Response{}, fmt.Errorf("%w: %w", device.ErrPermissionSystemUnavailable, err)
	}
	return resp, nil
}
