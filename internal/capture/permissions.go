package capture

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jwulff/clipcam/internal/device"
	"go.uber.org/zap"
)

// On Linux a permission is file access. A missing device can appear later
// (plug in the camera, then ask again); an access error needs a group change
// and a new login, so asking again in this session cannot help.

// RequestCamera probes read access to the video device.
func (l *Local) RequestCamera(ctx context.Context) (device.Grant, error) {
	return l.probe(ctx, device.ScopeCamera, func() error {
		return openReadable(l.opts.VideoDevice)
	})
}

// RequestMicrophone probes read access to the ALSA device directory.
func (l *Local) RequestMicrophone(ctx context.Context) (device.Grant, error) {
	return l.probe(ctx, device.ScopeMicrophone, func() error {
		return openReadable(l.opts.SoundDir)
	})
}

// RequestMediaLibrary probes write access to the library directory.
func (l *Local) RequestMediaLibrary(ctx context.Context) (device.Grant, error) {
	return l.probe(ctx, device.ScopeMediaLibrary, func() error {
		return writable(l.opts.LibraryDir)
	})
}

func (l *Local) probe(ctx context.Context, scope device.Scope, check func() error) (device.Grant, error) {
	if err := ctx.Err(); err != nil {
		return device.Grant{}, err
	}
	err := check()
	switch {
	case err == nil:
		return device.Grant{Granted: true, CanAskAgain: true}, nil
	case errors.Is(err, errNoDevice):
		l.log.Debug("permission probe: missing", zap.Stringer("scope", scope), zap.Error(err))
		return device.Grant{Granted: false, CanAskAgain: true}, nil
	case errors.Is(err, fs.ErrPermission):
		l.log.Debug("permission probe: denied", zap.Stringer("scope", scope), zap.Error(err))
		return device.Grant{Granted: false, CanAskAgain: false}, nil
	}
	return device.Grant{}, fmt.Errorf("probe %s: %w", scope, err)
}

func openReadable(path string) error {
	if path == "" {
		return errNoDevice
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%s: %w", path, errNoDevice)
		}
		return err
	}
	return f.Close()
}

func writable(dir string) error {
	if dir == "" {
		return errNoDevice
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}
