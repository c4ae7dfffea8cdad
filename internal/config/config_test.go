package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLIPCAM_DATA_DIR", dir)
	for _, k := range []string{"CLIPCAM_BACKEND", "CLIPCAM_DB_PATH", "CLIPCAM_LIBRARY_DIR", "CLIPCAM_CAMERA_DEVICE", "CLIPCAM_DEBUG"} {
		t.Setenv(k, "")
	}

	cfg := Load()
	if cfg.Backend != BackendLocal {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendLocal)
	}
	if want := filepath.Join(dir, "library.sqlite"); cfg.DBPath != want {
		t.Errorf("DBPath = %q, want %q", cfg.DBPath, want)
	}
	if want := filepath.Join(dir, "clips"); cfg.LibraryDir != want {
		t.Errorf("LibraryDir = %q, want %q", cfg.LibraryDir, want)
	}
	if cfg.Capture.VideoDevice != "/dev/video0" {
		t.Errorf("VideoDevice = %q, want /dev/video0", cfg.Capture.VideoDevice)
	}
	if cfg.Debug {
		t.Error("Debug should default to false")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CLIPCAM_DATA_DIR", t.TempDir())
	t.Setenv("CLIPCAM_BACKEND", "daemon")
	t.Setenv("CLIPCAM_SOCKET", "/run/clipcam.sock")
	t.Setenv("CLIPCAM_DEBUG", "true")

	cfg := Load()
	if cfg.Backend != BackendDaemon {
		t.Errorf("Backend = %q, want %q", cfg.Backend, BackendDaemon)
	}
	if cfg.Daemon.SocketPath != "/run/clipcam.sock" {
		t.Errorf("SocketPath = %q", cfg.Daemon.SocketPath)
	}
	if !cfg.Debug {
		t.Error("Debug should be true")
	}
}

func TestLoadFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })

	if err := os.WriteFile(".env", []byte("CLIPCAM_AUDIO_DEVICE=hw:1,0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CLIPCAM_DATA_DIR", dir)
	t.Setenv("CLIPCAM_BACKEND", "")
	// godotenv never overrides a variable that is already set.
	os.Unsetenv("CLIPCAM_AUDIO_DEVICE")
	t.Cleanup(func() { os.Unsetenv("CLIPCAM_AUDIO_DEVICE") })

	cfg := Load()
	if cfg.Capture.AudioDevice != "hw:1,0" {
		t.Errorf("AudioDevice = %q, want hw:1,0", cfg.Capture.AudioDevice)
	}
}

func TestLoadDoesNotValidate(t *testing.T) {
	t.Setenv("CLIPCAM_DATA_DIR", t.TempDir())
	t.Setenv("CLIPCAM_BACKEND", "carrier-pigeon")

	cfg := Load()
	if cfg.Backend != "carrier-pigeon" {
		t.Errorf("Backend = %q, want carrier-pigeon", cfg.Backend)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("expected Validate error for unknown backend")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Backend: BackendLocal,
			DBPath:  "/tmp/library.sqlite",
			Capture: CaptureConfig{VideoDevice: "/dev/video0", AudioDevice: "default"},
			Daemon:  DaemonConfig{SocketPath: "/tmp/capture.sock"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid local", func(*Config) {}, false},
		{"valid daemon", func(c *Config) { c.Backend = BackendDaemon; c.Capture.VideoDevice = "" }, false},
		{"empty camera device", func(c *Config) { c.Capture.VideoDevice = "" }, true},
		{"empty audio device", func(c *Config) { c.Capture.AudioDevice = "" }, true},
		{"empty socket", func(c *Config) { c.Backend = BackendDaemon; c.Daemon.SocketPath = "" }, true},
		{"empty db path", func(c *Config) { c.DBPath = "" }, true},
		{"unknown backend", func(c *Config) { c.Backend = "x" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
