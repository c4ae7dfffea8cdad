package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jwulff/clipcam/internal/album"
	"github.com/jwulff/clipcam/internal/daemon"
	"github.com/jwulff/clipcam/internal/db"
	"github.com/jwulff/clipcam/internal/permission"
	"github.com/jwulff/clipcam/internal/recording"
	"go.uber.org/zap"

	tea "github.com/charmbracelet/bubbletea"
)

// TestLiveCaptureFlow drives the screen through permissions, one short clip
// and the album save against a running capture daemon. Skipped if the daemon
// isn't running.
func TestLiveCaptureFlow(t *testing.T) {
	sockPath := daemon.SocketPath()
	if _, err := os.Stat(sockPath); os.IsNotExist(err) {
		t.Skip("daemon not running")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	remote, err := daemon.Dial(ctx, sockPath, zap.NewNop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer remote.Close()

	store, err := db.Open(filepath.Join(t.TempDir(), "library.db"), "")
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	defer store.Close()

	m := New(Deps{
		Context:  ctx,
		Gateway:  permission.NewGateway(remote, zap.NewNop()),
		Capturer: remote,
		Albums:   album.NewStore(store, remote.Platform(), zap.NewNop()),
	})
	m, _ = applyUpdate(m, tea.WindowSizeMsg{Width: 100, Height: 30})

	m, cmd := applyUpdate(m, m.Init()())
	fmt.Println("=== Permissions ===")
	fmt.Println(m.View())
	if m.Screen().Kind != ViewPreview {
		t.Skipf("capture not permitted on device (screen %v)", m.Screen().Kind)
	}

	m, _ = applyUpdate(m, cmd())
	if m.Screen().Kind != ViewCapture {
		t.Fatalf("screen = %v, want capture (camera error %q)", m.Screen().Kind, m.cameraErr)
	}

	m, _ = applyUpdate(m, key(' '))
	id := m.session.SessionID
	started := make(chan tea.Msg, 1)
	go func() { started <- startCaptureCmd(m.deps, m.mount, id, m.session.Constraints)() }()

	time.Sleep(2 * time.Second)
	m, stop := applyUpdate(m, key(' '))
	if msg := stop(); msg != nil {
		m, _ = applyUpdate(m, msg)
	}

	m, save := applyUpdate(m, <-started)
	if save == nil {
		t.Fatalf("no save after capture (error %q)", m.errorMessage)
	}
	m, _ = applyUpdate(m, save())
	fmt.Println("\n=== Saved ===")
	fmt.Println(m.View())

	if m.session.Status != recording.StatusIdle {
		t.Errorf("status = %v, want idle", m.session.Status)
	}
	assets, err := store.AssetsInAlbum(ctx, album.DefaultName)
	if err != nil {
		t.Fatalf("assets: %v", err)
	}
	if len(assets) != 1 {
		t.Errorf("album assets = %d, want 1", len(assets))
	}
}
