package device

import "errors"

var (
	// ErrPermissionDenied means a required scope is not granted.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrPermissionSystemUnavailable means the permission subsystem could not
	// be reached. Retry by authorizing again.
	ErrPermissionSystemUnavailable = errors.New("permission system unavailable")

	// ErrCameraUnavailable is returned for operations against a camera handle
	// outside its validity window.
	ErrCameraUnavailable = errors.New("camera unavailable")

	// ErrCaptureFailed wraps any failure of a running capture.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrCaptureNotRunning is returned by StopCapture once a capture settled.
	ErrCaptureNotRunning = errors.New("capture not running")

	// ErrCaptureCancelled is returned by StartCapture when a stop for the
	// session arrived before recording began. Nothing was recorded.
	ErrCaptureCancelled = errors.New("capture cancelled before start")

	// ErrAlbumOperationFailed means an asset exists but could not be placed in
	// its album.
	ErrAlbumOperationFailed = errors.New("album operation failed")
)
