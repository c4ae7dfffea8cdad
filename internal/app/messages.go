package app

import (
	"github.com/jwulff/clipcam/internal/album"
	"github.com/jwulff/clipcam/internal/device"
	"github.com/jwulff/clipcam/internal/permission"
)

// Every message produced by an async command carries the Mount it was issued
// under. Update drops it when the screen has since unmounted.
type asyncMsg interface {
	origin() uint64
}

// PermissionsResolvedMsg carries a complete authorize result.
type PermissionsResolvedMsg struct {
	Mount       uint64
	Permissions permission.Set
}

// PermissionsErrorMsg is sent when the permission subsystem was unreachable.
type PermissionsErrorMsg struct {
	Mount uint64
	Err   error
}

// CameraReadyMsg is the hardware readiness signal for one camera mount.
type CameraReadyMsg struct {
	Mount      uint64
	Generation uint64
}

// CameraErrorMsg is sent when preparing a camera mount failed.
type CameraErrorMsg struct {
	Mount      uint64
	Generation uint64
	Err        error
}

// CaptureFinishedMsg carries the media produced by a capture.
type CaptureFinishedMsg struct {
	Mount     uint64
	SessionID string
	Result    device.CaptureResult
}

// CaptureFailedMsg is sent when a capture rejected.
type CaptureFailedMsg struct {
	Mount     uint64
	SessionID string
	Err       error
}

// StopFailedMsg is sent when a stop request could not be delivered.
type StopFailedMsg struct {
	Mount     uint64
	SessionID string
	Err       error
}

// SavedMsg is sent when the clip is in the library and its album.
type SavedMsg struct {
	Mount     uint64
	SessionID string
	Asset     album.Asset
	Album     album.Album
}

// SaveFailedMsg is sent when the save pipeline failed. Asset is set when the
// asset was created and only the album assignment failed.
type SaveFailedMsg struct {
	Mount     uint64
	SessionID string
	Asset     *album.Asset
	Err       error
}

// RecordTickMsg redraws the elapsed time while recording.
type RecordTickMsg struct {
	Mount     uint64
	SessionID string
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct {
	Mount uint64
}

func (m PermissionsResolvedMsg) origin() uint64 { return m.Mount }
func (m PermissionsErrorMsg) origin() uint64    { return m.Mount }
func (m CameraReadyMsg) origin() uint64         { return m.Mount }
func (m CameraErrorMsg) origin() uint64         { return m.Mount }
func (m CaptureFinishedMsg) origin() uint64     { return m.Mount }
func (m CaptureFailedMsg) origin() uint64       { return m.Mount }
func (m StopFailedMsg) origin() uint64          { return m.Mount }
func (m SavedMsg) origin() uint64               { return m.Mount }
func (m SaveFailedMsg) origin() uint64          { return m.Mount }
func (m RecordTickMsg) origin() uint64          { return m.Mount }
func (m ClearTransientErrorMsg) origin() uint64 { return m.Mount }
