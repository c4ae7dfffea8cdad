package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/jwulff/clipcam/internal/album"
	"github.com/jwulff/clipcam/internal/db"
	"github.com/jwulff/clipcam/internal/device"
	"go.uber.org/zap"

	tea "github.com/charmbracelet/bubbletea"
)

// gatedSaver holds each save until release is closed.
type gatedSaver struct {
	inner   Saver
	release chan struct{}
}

func (g *gatedSaver) Save(ctx context.Context, res device.CaptureResult, name string) (album.Asset, album.Album, error) {
	<-g.release
	return g.inner.Save(ctx, res, name)
}

func TestQuitWhileSavingKeepsClip(t *testing.T) {
	store, err := db.Open(filepath.Join(t.TempDir(), "library.sqlite"), "")
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	saves := &Saves{}
	gate := &gatedSaver{
		inner:   album.NewStore(store, device.PlatformDesktop, zap.NewNop()),
		release: make(chan struct{}),
	}

	m, _ := readyModel(t)
	m.deps.Context = ctx
	m.deps.Albums = gate
	m.deps.Saves = saves

	m, _ = applyUpdate(m, key(' '))
	id := m.session.SessionID
	m, save := applyUpdate(m, CaptureFinishedMsg{Mount: m.mount, SessionID: id, Result: device.CaptureResult{URI: "file:///tmp/clip.mp4"}})
	if save == nil {
		t.Fatal("expected save command")
	}

	// Quit before the save command is ever run, then tear down the way the
	// program does on exit.
	m, cmd := applyUpdate(m, key('q'))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	cancel()
	close(gate.release)
	saves.Wait()

	assets, err := store.AssetsInAlbum(context.Background(), album.DefaultName)
	if err != nil {
		t.Fatalf("assets: %v", err)
	}
	if len(assets) != 1 || assets[0].SourceURI != "file:///tmp/clip.mp4" {
		t.Errorf("album assets = %+v, want the clip", assets)
	}
	if m.Mounted() {
		t.Error("model should be unmounted")
	}
}
