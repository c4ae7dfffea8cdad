package album

import (
	"fmt"

	"github.com/jwulff/clipcam/internal/device"
)

// URIs are the two candidate locations of a saved clip.
type URIs struct {
	Capture string // URI the camera wrote
	Library string // URI the media library registered
}

// ResolveAssetURI picks the authoritative URI for platform. Android keeps the
// capture URI; iOS and desktop libraries own a copy and their URI wins.
func ResolveAssetURI(platform device.Platform, u URIs) (string, error) {
	switch platform {
	case device.PlatformAndroid:
		return u.Capture, nil
	case device.PlatformIOS, device.PlatformDesktop:
		if u.Library == "" {
			return u.Capture, nil
		}
		return u.Library, nil
	}
	return "", fmt.Errorf("resolve asset uri: unknown platform %q", platform)
}
