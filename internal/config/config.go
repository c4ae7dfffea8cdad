// Package config loads clipcam settings from the environment, with an
// optional .env file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/jwulff/clipcam/internal/daemon"
	"github.com/jwulff/clipcam/internal/db"
)

// Backend selects where permissions and captures come from.
type Backend string

const (
	// BackendLocal records from a V4L2 camera through ffmpeg.
	BackendLocal Backend = "local"
	// BackendDaemon talks to a capture daemon over a Unix socket.
	BackendDaemon Backend = "daemon"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Backend    Backend
	DataDir    string
	DBPath     string
	LibraryDir string // clips are copied here when registered
	LogPath    string
	Debug      bool

	Capture CaptureConfig
	Daemon  DaemonConfig
}

// CaptureConfig holds local backend settings.
type CaptureConfig struct {
	FFmpegPath  string
	VideoDevice string
	AudioDevice string
	OutputDir   string // raw captures before they are registered
}

// DaemonConfig holds daemon backend settings.
type DaemonConfig struct {
	SocketPath string
}

// Load reads configuration from environment, with optional .env file. The
// result is not validated; callers apply overrides first, then Validate.
func Load() *Config {
	_ = godotenv.Load()

	dataDir := getEnv("CLIPCAM_DATA_DIR", defaultDataDir())
	cfg := &Config{
		Backend:    Backend(getEnv("CLIPCAM_BACKEND", string(BackendLocal))),
		DataDir:    dataDir,
		DBPath:     getEnv("CLIPCAM_DB_PATH", db.DefaultDBPath(dataDir)),
		LibraryDir: getEnv("CLIPCAM_LIBRARY_DIR", filepath.Join(dataDir, "clips")),
		LogPath:    getEnv("CLIPCAM_LOG_PATH", filepath.Join(dataDir, "clipcam.log")),
		Debug:      getEnvBool("CLIPCAM_DEBUG", false),
		Capture: CaptureConfig{
			FFmpegPath:  getEnv("CLIPCAM_FFMPEG", "ffmpeg"),
			VideoDevice: getEnv("CLIPCAM_CAMERA_DEVICE", "/dev/video0"),
			AudioDevice: getEnv("CLIPCAM_AUDIO_DEVICE", "default"),
			OutputDir:   filepath.Join(dataDir, "captures"),
		},
		Daemon: DaemonConfig{
			SocketPath: getEnv("CLIPCAM_SOCKET", daemon.SocketPath()),
		},
	}
	return cfg
}

// Validate checks the settings the selected backend needs.
func (c *Config) Validate() error {
	switch c.Backend {
	case BackendLocal:
		if c.Capture.VideoDevice == "" {
			return fmt.Errorf("camera device is empty")
		}
		if c.Capture.AudioDevice == "" {
			return fmt.Errorf("audio device is empty")
		}
	case BackendDaemon:
		if c.Daemon.SocketPath == "" {
			return fmt.Errorf("daemon socket path is empty")
		}
	default:
		return fmt.Errorf("unknown backend %q (want %s or %s)", c.Backend, BackendLocal, BackendDaemon)
	}
	if c.DBPath == "" {
		return fmt.Errorf("database path is empty")
	}
	return nil
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "clipcam")
	}
	return filepath.Join(home, ".local", "share", "clipcam")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
