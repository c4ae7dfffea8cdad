package app

import (
	"github.com/jwulff/clipcam/internal/device"
	"github.com/jwulff/clipcam/internal/permission"
)

// ViewKind is which of the screen's visual states is shown.
type ViewKind int

const (
	// ViewNone renders nothing until every permission has an answer.
	ViewNone ViewKind = iota
	// ViewPermissionRequest explains which access is missing.
	ViewPermissionRequest
	// ViewPreview shows the camera preview without any controls.
	ViewPreview
	// ViewCapture shows the preview and the record toggle.
	ViewCapture
)

func (k ViewKind) String() string {
	switch k {
	case ViewNone:
		return "none"
	case ViewPermissionRequest:
		return "permission-request"
	case ViewPreview:
		return "preview"
	case ViewCapture:
		return "capture"
	}
	return "unknown"
}

// Screen is the render state derived from permissions and camera readiness.
type Screen struct {
	Kind ViewKind
	// Reask is set on the permission view when asking again can help.
	Reask  bool
	Denied []device.Scope
}

// Resolve derives the screen from the permission set and camera readiness.
// The record toggle is present only in ViewCapture.
func Resolve(perms permission.Set, cameraReady bool) Screen {
	switch {
	case !perms.Resolved():
		return Screen{Kind: ViewNone}
	case !perms.CaptureAllowed():
		return Screen{Kind: ViewPermissionRequest, Reask: perms.CanReask(), Denied: perms.Denied()}
	case !cameraReady:
		return Screen{Kind: ViewPreview}
	}
	return Screen{Kind: ViewCapture}
}
