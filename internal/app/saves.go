package app

import (
	"context"
	"sync"

	"github.com/jwulff/clipcam/internal/album"
	"github.com/jwulff/clipcam/internal/device"
)

// Saves tracks library writes. A save outlives the screen: quitting while a
// clip is finalizing must not lose it, so the caller waits on Saves before
// closing the library.
type Saves struct {
	wg sync.WaitGroup
}

type saveResult struct {
	asset album.Asset
	album album.Album
	err   error
}

// start runs the save on its own goroutine and returns where its result will
// be delivered. The save ignores cancellation of ctx.
func (s *Saves) start(ctx context.Context, albums Saver, res device.CaptureResult, name string) <-chan saveResult {
	out := make(chan saveResult, 1)
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		asset, alb, err := albums.Save(ctx, res, name)
		out <- saveResult{asset: asset, album: alb, err: err}
	}()
	return out
}

// Wait blocks until every started save has finished.
func (s *Saves) Wait() {
	s.wg.Wait()
}
