package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jwulff/clipcam/internal/config"
	"github.com/spf13/cobra"
)

var version = "dev"

// Flag values; empty means keep the environment's setting.
var (
	backendFlag string
	socketFlag  string
	deviceFlag  string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "clipcam: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clipcam",
		Short: "Record short video clips into an album",
		Long: `clipcam opens the capture screen: grant camera, microphone and media library
access, then press Space to record a clip of up to five seconds. Each clip is
saved to the library and added to the album "test-video-album".`,
		Version:      version,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runScreen(cmd.Context(), cfg)
		},
	}
	cmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Capture backend: local or daemon (env CLIPCAM_BACKEND)")
	cmd.PersistentFlags().StringVar(&socketFlag, "socket", "", "Capture daemon socket path (env CLIPCAM_SOCKET)")
	cmd.PersistentFlags().StringVar(&deviceFlag, "device", "", "V4L2 camera device (env CLIPCAM_CAMERA_DEVICE)")
	cmd.AddCommand(
		newAlbumsCmd(),
		newMCPCmd(),
	)
	return cmd
}

// loadConfig reads the environment and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg := config.Load()
	if backendFlag != "" {
		cfg.Backend = config.Backend(backendFlag)
	}
	if socketFlag != "" {
		cfg.Daemon.SocketPath = socketFlag
	}
	if deviceFlag != "" {
		cfg.Capture.VideoDevice = deviceFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
