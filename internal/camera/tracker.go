// Package camera tracks whether the mounted camera hardware is ready and hands
// out handles that are only valid between readiness and the next re-mount or
// unmount.
package camera

import (
	"fmt"

	"github.com/jwulff/clipcam/internal/device"
)

// Handle is a reference to one mount of the camera.
type Handle struct {
	generation uint64
	settings   device.CameraSettings
}

// Generation identifies the mount the handle belongs to.
func (h Handle) Generation() uint64 { return h.generation }

// Settings returns the parameters the camera was mounted with.
func (h Handle) Settings() device.CameraSettings { return h.settings }

// Tracker is the readiness state of the camera. The zero value is unmounted.
//
// Readiness moves false → true once per mount. Mount and Unmount both start a
// new generation, so readiness signals and handles from an earlier mount are
// rejected.
type Tracker struct {
	generation uint64
	mounted    bool
	ready      bool
	settings   device.CameraSettings
}

// Mount starts a new mount with settings and returns its generation. The
// tracker is not ready until MarkReady is called with that generation.
func (t *Tracker) Mount(settings device.CameraSettings) uint64 {
	t.generation++
	t.mounted = true
	t.ready = false
	t.settings = settings
	return t.generation
}

// MarkReady records the hardware readiness signal for generation gen. It
// reports whether the tracker changed.
func (t *Tracker) MarkReady(gen uint64) bool {
	if !t.mounted || gen != t.generation || t.ready {
		return false
	}
	t.ready = true
	return true
}

// Unmount invalidates every outstanding handle.
func (t *Tracker) Unmount() {
	t.generation++
	t.mounted = false
	t.ready = false
}

// Mounted reports whether a mount is in effect.
func (t Tracker) Mounted() bool { return t.mounted }

// Ready reports whether capture affordances may be shown.
func (t Tracker) Ready() bool { return t.mounted && t.ready }

// Generation returns the current mount generation.
func (t Tracker) Generation() uint64 { return t.generation }

// Settings returns the settings of the current mount.
func (t Tracker) Settings() device.CameraSettings { return t.settings }

// Handle returns a handle for the current mount, or an error wrapping
// device.ErrCameraUnavailable when the camera is not ready.
func (t Tracker) Handle() (Handle, error) {
	if !t.Ready() {
		return Handle{}, fmt.Errorf("camera not ready: %w", device.ErrCameraUnavailable)
	}
	return Handle{generation: t.generation, settings: t.settings}, nil
}

// Check returns an error wrapping device.ErrCameraUnavailable when h is no
// longer valid.
func (t Tracker) Check(h Handle) error {
	if !t.Ready() || h.generation != t.generation {
		return fmt.Errorf("stale camera handle (mount %d, current %d): %w",
			h.generation, t.generation, device.ErrCameraUnavailable)
	}
	return nil
}
