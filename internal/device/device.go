// Package device defines the capability interfaces clipcam consumes from the
// camera, microphone and media library, plus the value types that cross them.
//
// Two backends implement Permissions and Capturer: internal/capture drives a
// local V4L2 camera through ffmpeg, internal/daemon talks to a remote capture
// daemon. internal/db implements Library.
package device

import (
	"context"
	"time"
)

// Scope is a permission domain.
type Scope int

const (
	ScopeCamera Scope = iota
	ScopeMicrophone
	ScopeMediaLibrary
)

func (s Scope) String() string {
	switch s {
	case ScopeCamera:
		return "camera"
	case ScopeMicrophone:
		return "microphone"
	case ScopeMediaLibrary:
		return "media library"
	}
	return "unknown"
}

// Grant is the platform's answer to a permission request. A denial is a
// valid answer, not an error.
type Grant struct {
	Granted     bool
	CanAskAgain bool
}

// Platform identifies which family of device produced a capture. It decides
// which URI is authoritative for a saved asset.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformDesktop Platform = "desktop"
)

// CameraType selects the lens.
type CameraType string

const (
	CameraBack  CameraType = "back"
	CameraFront CameraType = "front"
)

// Next returns the other lens.
func (t CameraType) Next() CameraType {
	if t == CameraFront {
		return CameraBack
	}
	return CameraFront
}

// FlashMode is the flash setting the camera is configured with.
type FlashMode string

const (
	FlashAuto FlashMode = "auto"
	FlashOn   FlashMode = "on"
	FlashOff  FlashMode = "off"
)

// Next cycles auto → on → off → auto.
func (f FlashMode) Next() FlashMode {
	switch f {
	case FlashAuto:
		return FlashOn
	case FlashOn:
		return FlashOff
	}
	return FlashAuto
}

// CameraSettings are the parameters a camera is mounted with.
type CameraSettings struct {
	Type  CameraType
	Flash FlashMode
}

// DefaultCameraSettings returns the back camera with automatic flash.
func DefaultCameraSettings() CameraSettings {
	return CameraSettings{Type: CameraBack, Flash: FlashAuto}
}

// Quality is a named capture resolution.
type Quality string

const (
	Quality480p  Quality = "480p"
	Quality720p  Quality = "720p"
	Quality1080p Quality = "1080p"
)

// Dimensions returns the frame size for q. Unknown qualities fall back to 720p.
func (q Quality) Dimensions() (width, height int) {
	switch q {
	case Quality480p:
		return 640, 480
	case Quality1080p:
		return 1920, 1080
	}
	return 1280, 720
}

// Constraints bound a single capture.
type Constraints struct {
	MaxDuration time.Duration
	Quality     Quality
}

// Clip constraints are fixed for every recording.
const (
	MaxClipDuration = 5 * time.Second
	ClipQuality     = Quality720p
)

// DefaultConstraints returns the fixed clip constraints.
func DefaultConstraints() Constraints {
	return Constraints{MaxDuration: MaxClipDuration, Quality: ClipQuality}
}

// CaptureResult is the media handle produced when a capture settles.
type CaptureResult struct {
	URI        string
	FinishedAt time.Time
}

// AssetHandle refers to an asset registered in the media library.
type AssetHandle struct {
	ID        string
	URI       string
	CreatedAt time.Time
}

// AssetInfo is the library's view of an asset.
type AssetInfo struct {
	ID       string
	LocalURI string
}

// AlbumHandle refers to an album in the media library.
type AlbumHandle struct {
	ID    string
	Title string
}

// Permissions requests the three capability scopes. Each call may show an
// OS dialog. An error means the permission subsystem itself was unreachable.
type Permissions interface {
	RequestCamera(ctx context.Context) (Grant, error)
	RequestMicrophone(ctx context.Context) (Grant, error)
	RequestMediaLibrary(ctx context.Context) (Grant, error)
}

// Capturer drives the camera hardware.
type Capturer interface {
	// Platform reports the device family captures come from.
	Platform() Platform

	// Prepare mounts the camera with settings and returns once the hardware
	// has signaled readiness.
	Prepare(ctx context.Context, settings CameraSettings) error

	// StartCapture records until the duration cap or until StopCapture is
	// called for the same session, then returns the produced media.
	StartCapture(ctx context.Context, sessionID string, c Constraints) (CaptureResult, error)

	// StopCapture signals early termination. It returns ErrCaptureNotRunning
	// when the session's capture has already settled. A stop that arrives
	// before the capture starts makes StartCapture return ErrCaptureCancelled.
	StopCapture(ctx context.Context, sessionID string) error

	// Abandon drops any state held for a session whose capture will never be
	// started.
	Abandon(sessionID string)
}

// Library is the media library. GetAlbum returns nil when no album has the
// name. The library has no transactions; callers serialize lookup-then-create.
type Library interface {
	CreateAsset(ctx context.Context, uri string) (AssetHandle, error)
	GetAlbum(ctx context.Context, name string) (*AlbumHandle, error)
	CreateAlbum(ctx context.Context, name string, initial AssetHandle, shared bool) (AlbumHandle, error)
	AddAssetsToAlbum(ctx context.Context, assets []AssetHandle, album AlbumHandle, shared bool) error
	GetAssetInfo(ctx context.Context, asset AssetHandle) (AssetInfo, error)
}
