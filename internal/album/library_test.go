package album_test

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/jwulff/clipcam/internal/album"
	"github.com/jwulff/clipcam/internal/db"
	"github.com/jwulff/clipcam/internal/device"
	"go.uber.org/zap"
)

// TestSaveAgainstSQLiteLibrary runs concurrent saves against the real
// library schema and checks exactly one album exists afterwards.
func TestSaveAgainstSQLiteLibrary(t *testing.T) {
	lib, err := db.Open(filepath.Join(t.TempDir(), "library.sqlite"), "")
	if err != nil {
		t.Fatalf("open library: %v", err)
	}
	defer lib.Close()

	store := album.NewStore(lib, device.PlatformDesktop, zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for _, uri := range []string{"file:///one.mp4", "file:///two.mp4"} {
		wg.Add(1)
		go func(uri string) {
			defer wg.Done()
			if _, _, err := store.Save(ctx, device.CaptureResult{URI: uri}, album.DefaultName); err != nil {
				t.Errorf("save %s: %v", uri, err)
			}
		}(uri)
	}
	wg.Wait()

	albums, err := lib.Albums(ctx)
	if err != nil {
		t.Fatalf("Albums: %v", err)
	}
	if len(albums) != 1 {
		t.Fatalf("got %d albums, want 1", len(albums))
	}
	if albums[0].Title != album.DefaultName || albums[0].AssetCount != 2 {
		t.Errorf("album = %+v, want %s with 2 assets", albums[0], album.DefaultName)
	}
}
