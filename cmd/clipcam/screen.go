package main

import (
	"context"
	"fmt"

	"github.com/jwulff/clipcam/internal/album"
	"github.com/jwulff/clipcam/internal/app"
	"github.com/jwulff/clipcam/internal/capture"
	"github.com/jwulff/clipcam/internal/config"
	"github.com/jwulff/clipcam/internal/daemon"
	"github.com/jwulff/clipcam/internal/db"
	"github.com/jwulff/clipcam/internal/device"
	"github.com/jwulff/clipcam/internal/logging"
	"github.com/jwulff/clipcam/internal/permission"
	"go.uber.org/zap"

	tea "github.com/charmbracelet/bubbletea"
)

// backend is a source of both permissions and captures.
type backend interface {
	device.Permissions
	device.Capturer
}

func runScreen(ctx context.Context, cfg *config.Config) error {
	log, err := logging.New(cfg.LogPath, cfg.Debug)
	if err != nil {
		return err
	}
	defer log.Sync()

	store, err := db.Open(cfg.DBPath, cfg.LibraryDir)
	if err != nil {
		return fmt.Errorf("open library: %w", err)
	}
	defer store.Close()

	be, closeBackend, err := openBackend(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeBackend()

	// Cancelled once the screen exits so a capture still running is torn down.
	// Saves ignore the cancel and are waited on before the library closes.
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	saves := &app.Saves{}
	defer saves.Wait()

	log.Info("clipcam starting",
		zap.String("version", version),
		zap.String("backend", string(cfg.Backend)),
		zap.String("platform", string(be.Platform())),
		zap.String("db", cfg.DBPath),
	)

	m := app.New(app.Deps{
		Context:  runCtx,
		Gateway:  permission.NewGateway(be, log),
		Capturer: be,
		Albums:   album.NewStore(store, be.Platform(), log),
		Log:      log,
		Saves:    saves,
	})

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run screen: %w", err)
	}
	log.Info("clipcam exiting")
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config, log *zap.Logger) (backend, func(), error) {
	switch cfg.Backend {
	case config.BackendDaemon:
		r, err := daemon.Dial(ctx, cfg.Daemon.SocketPath, log)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to capture daemon at %s: %w", cfg.Daemon.SocketPath, err)
		}
		return r, func() { r.Close() }, nil
	case config.BackendLocal:
		l := capture.NewLocal(capture.Options{
			FFmpegPath:  cfg.Capture.FFmpegPath,
			VideoDevice: cfg.Capture.VideoDevice,
			AudioDevice: cfg.Capture.AudioDevice,
			OutputDir:   cfg.Capture.OutputDir,
			LibraryDir:  cfg.LibraryDir,
		}, log)
		return l, func() {}, nil
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}
