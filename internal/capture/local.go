// Package capture records clips from a local V4L2 camera and ALSA microphone
// through an ffmpeg subprocess.
//
// # Requirements
//   - ffmpeg with the v4l2 and alsa input devices
//     Ubuntu/Debian: sudo apt install ffmpeg
//   - membership of the video and audio groups for device access
//     sudo usermod -a -G video,audio $USER
package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jwulff/clipcam/internal/device"
	"go.uber.org/zap"
)

// Options configure a Local backend.
type Options struct {
	FFmpegPath  string // ffmpeg binary
	VideoDevice string // e.g. /dev/video0
	AudioDevice string // ALSA device name, e.g. default
	SoundDir    string // ALSA device directory probed for microphone access
	OutputDir   string // where raw captures are written
	LibraryDir  string // media library directory probed for write access
}

// Local is the desktop backend. It implements device.Permissions and
// device.Capturer.
type Local struct {
	opts Options
	log  *zap.Logger

	mu      sync.Mutex
	active  map[string]*recording
	stopped map[string]bool // stop arrived before the capture started
}

var (
	_ device.Permissions = (*Local)(nil)
	_ device.Capturer    = (*Local)(nil)
)

type recording struct {
	cmd   *exec.Cmd
	stdin io.WriteCloser
	stop  bool
}

// NewLocal creates a Local backend.
func NewLocal(opts Options, log *zap.Logger) *Local {
	if opts.FFmpegPath == "" {
		opts.FFmpegPath = "ffmpeg"
	}
	if opts.SoundDir == "" {
		opts.SoundDir = "/dev/snd"
	}
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(os.TempDir(), "clipcam")
	}
	return &Local{
		opts:    opts,
		log:     log,
		active:  make(map[string]*recording),
		stopped: make(map[string]bool),
	}
}

// Platform reports the desktop family.
func (l *Local) Platform() device.Platform { return device.PlatformDesktop }

// Prepare checks the camera device can be opened and ffmpeg is installed.
// Desktop cameras have neither a lens choice nor a flash, so settings are
// only logged.
func (l *Local) Prepare(ctx context.Context, settings device.CameraSettings) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := exec.LookPath(l.opts.FFmpegPath); err != nil {
		return fmt.Errorf("find ffmpeg: %w: %w", device.ErrCameraUnavailable, err)
	}
	f, err := os.OpenFile(l.opts.VideoDevice, os.O_RDONLY, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w: %w", l.opts.VideoDevice, device.ErrCameraUnavailable, err)
	}
	f.Close()

	l.log.Info("camera ready",
		zap.String("device", l.opts.VideoDevice),
		zap.String("type", string(settings.Type)),
		zap.String("flash", string(settings.Flash)),
	)
	return nil
}

// StartCapture runs ffmpeg until the duration cap or StopCapture.
func (l *Local) StartCapture(ctx context.Context, sessionID string, c device.Constraints) (device.CaptureResult, error) {
	if err := os.MkdirAll(l.opts.OutputDir, 0o755); err != nil {
		return device.CaptureResult{}, fmt.Errorf("%w: create output dir: %w", device.ErrCaptureFailed, err)
	}
	out := filepath.Join(l.opts.OutputDir, sessionID+".mp4")

	cmd := exec.CommandContext(ctx, l.opts.FFmpegPath, l.args(c, out)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return device.CaptureResult{}, fmt.Errorf("%w: stdin pipe: %w", device.ErrCaptureFailed, err)
	}

	l.mu.Lock()
	if l.stopped[sessionID] {
		delete(l.stopped, sessionID)
		l.mu.Unlock()
		l.log.Info("capture cancelled before start", zap.String("session_id", sessionID))
		return device.CaptureResult{}, device.ErrCaptureCancelled
	}
	// One capture runs at a time; stops held for other sessions are stale.
	clear(l.stopped)
	rec := &recording{cmd: cmd, stdin: stdin}
	if err := cmd.Start(); err != nil {
		l.mu.Unlock()
		return device.CaptureResult{}, fmt.Errorf("%w: start ffmpeg: %w", device.ErrCaptureFailed, err)
	}
	l.active[sessionID] = rec
	l.mu.Unlock()

	l.log.Info("capture started",
		zap.String("session_id", sessionID),
		zap.String("output", out),
		zap.Duration("max_duration", c.MaxDuration),
	)

	waitErr := cmd.Wait()

	l.mu.Lock()
	delete(l.active, sessionID)
	stoppedEarly := rec.stop
	l.mu.Unlock()

	if waitErr != nil && !(stoppedEarly && fileHasData(out)) {
		return device.CaptureResult{}, fmt.Errorf("%w: ffmpeg: %w: %s", device.ErrCaptureFailed, waitErr, lastLine(stderr.String()))
	}

	l.log.Info("capture finished", zap.String("session_id", sessionID), zap.Bool("stopped_early", stoppedEarly))
	return device.CaptureResult{URI: fileURI(out), FinishedAt: time.Now()}, nil
}

// StopCapture asks ffmpeg to finish the file and exit. A stop for a session
// that has not started yet cancels it once it does.
func (l *Local) StopCapture(_ context.Context, sessionID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.active[sessionID]
	if !ok {
		if _, err := os.Stat(filepath.Join(l.opts.OutputDir, sessionID+".mp4")); err == nil {
			return device.ErrCaptureNotRunning
		}
		l.stopped[sessionID] = true
		return nil
	}
	if rec.stop {
		return nil
	}
	rec.stop = true
	// ffmpeg finalizes the container when it reads q on stdin.
	if _, err := io.WriteString(rec.stdin, "q\n"); err != nil {
		return fmt.Errorf("signal ffmpeg: %w", err)
	}
	return nil
}

// Abandon forgets a stop held for a session that will never start.
func (l *Local) Abandon(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.stopped, sessionID)
}

func (l *Local) args(c device.Constraints, out string) []string {
	w, h := c.Quality.Dimensions()
	return []string{
		"-hide_banner", "-loglevel", "error", "-y",
		"-f", "v4l2", "-video_size", fmt.Sprintf("%dx%d", w, h), "-i", l.opts.VideoDevice,
		"-f", "alsa", "-i", l.opts.AudioDevice,
		"-t", strconv.FormatFloat(c.MaxDuration.Seconds(), 'f', -1, 64),
		"-c:v", "libx264", "-preset", "veryfast", "-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-movflags", "+faststart",
		out,
	}
}

func fileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: path}).String()
}

func fileHasData(path string) bool {
	st, err := os.Stat(path)
	return err == nil && st.Size() > 0
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

// errNoDevice marks a probe target that does not exist.
var errNoDevice = errors.New("no such device")
