package db

import (
	"context"
	"fmt"
	"os"
	"testing"
)

// TestLiveDatabase opens the library named by CLIPCAM_DB_PATH and lists its
// albums. Skipped if the database doesn't exist.
func TestLiveDatabase(t *testing.T) {
	dbPath := os.Getenv("CLIPCAM_DB_PATH")
	if dbPath == "" {
		t.Skip("CLIPCAM_DB_PATH not set")
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Skip("database not found at", dbPath)
	}

	store, err := Open(dbPath, "")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	albums, err := store.Albums(ctx)
	if err != nil {
		t.Fatalf("Albums: %v", err)
	}
	fmt.Printf("Albums: %d\n", len(albums))
	for _, a := range albums {
		fmt.Printf("  %s (%d assets, created %s)\n", a.Title, a.AssetCount,
			a.CreatedAt.Format("2006-01-02 15:04:05"))

		assets, err := store.AssetsInAlbum(ctx, a.Title)
		if err != nil {
			t.Fatalf("AssetsInAlbum: %v", err)
		}
		for _, asset := range assets {
			fmt.Printf("     %s %s\n", asset.ID, asset.LocalURI)
		}
	}
}
