// Package album turns finished captures into library assets and files them
// under a named album, creating the album on first use.
package album

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jwulff/clipcam/internal/device"
	"go.uber.org/zap"
)

// DefaultName is the album every clip is filed under.
const DefaultName = "test-video-album"

// Asset is a captured clip registered in the library. It is immutable.
type Asset struct {
	Handle      device.AssetHandle
	SourceURI   string
	ResolvedURI string
	CreatedAt   time.Time
}

// Album is the result of an assignment.
type Album struct {
	ID      string
	Name    string
	Created bool // true when this assignment created the album
}

// AssignError reports an asset that exists but is not in its album.
type AssignError struct {
	Asset Asset
	Album string
	Err   error
}

func (e *AssignError) Error() string {
	return fmt.Sprintf("assign asset %s to album %q: %v", e.Asset.Handle.ID, e.Album, e.Err)
}

func (e *AssignError) Unwrap() []error {
	return []error{device.ErrAlbumOperationFailed, e.Err}
}

// Store wraps a device.Library. Assignments to the same album name run one
// at a time so lookup-then-create never produces two albums with one name.
type Store struct {
	lib      device.Library
	platform device.Platform
	log      *zap.Logger

	mu    sync.Mutex
	locks map[string]*nameLock
}

type nameLock struct {
	sem  chan struct{}
	refs int
}

// NewStore creates a Store. platform decides which URI is authoritative for
// new assets.
func NewStore(lib device.Library, platform device.Platform, log *zap.Logger) *Store {
	return &Store{
		lib:      lib,
		platform: platform,
		log:      log,
		locks:    make(map[string]*nameLock),
	}
}

// EnsureAsset registers the captured media in the library and resolves its
// authoritative URI.
func (s *Store) EnsureAsset(ctx context.Context, capture device.CaptureResult) (Asset, error) {
	handle, err := s.lib.CreateAsset(ctx, capture.URI)
	if err != nil {
		return Asset{}, fmt.Errorf("create asset: %w", err)
	}

	info, err := s.lib.GetAssetInfo(ctx, handle)
	if err != nil {
		return Asset{}, fmt.Errorf("get asset info: %w", err)
	}

	resolved, err := ResolveAssetURI(s.platform, URIs{Capture: capture.URI, Library: info.LocalURI})
	if err != nil {
		return Asset{}, err
	}

	s.log.Info("asset created",
		zap.String("asset_id", handle.ID),
		zap.String("uri", resolved),
		zap.String("platform", string(s.platform)),
	)
	return Asset{
		Handle:      handle,
		SourceURI:   capture.URI,
		ResolvedURI: resolved,
		CreatedAt:   handle.CreatedAt,
	}, nil
}

// AssignToAlbum files asset under the album called name. A missing album is
// created with asset as its only member; an existing one gets asset
// appended. Failures return an *AssignError.
func (s *Store) AssignToAlbum(ctx context.Context, asset Asset, name string) (Album, error) {
	unlock, err := s.lock(ctx, name)
	if err != nil {
		return Album{}, &AssignError{Asset: asset, Album: name, Err: err}
	}
	defer unlock()

	existing, err := s.lib.GetAlbum(ctx, name)
	if err != nil {
		return Album{}, s.assignFailed(asset, name, fmt.Errorf("get album: %w", err))
	}

	if existing == nil {
		created, err := s.lib.CreateAlbum(ctx, name, asset.Handle, false)
		if err != nil {
			return Album{}, s.assignFailed(asset, name, fmt.Errorf("create album: %w", err))
		}
		s.log.Info("album created", zap.String("album", name), zap.String("asset_id", asset.Handle.ID))
		return Album{ID: created.ID, Name: created.Title, Created: true}, nil
	}

	if err := s.lib.AddAssetsToAlbum(ctx, []device.AssetHandle{asset.Handle}, *existing, false); err != nil {
		return Album{}, s.assignFailed(asset, name, fmt.Errorf("add to album: %w", err))
	}
	s.log.Info("asset added to album", zap.String("album", name), zap.String("asset_id", asset.Handle.ID))
	return Album{ID: existing.ID, Name: existing.Title}, nil
}

// Save runs EnsureAsset then AssignToAlbum. When the asset was created but
// the assignment failed, the asset is returned together with the
// *AssignError.
func (s *Store) Save(ctx context.Context, capture device.CaptureResult, name string) (Asset, Album, error) {
	asset, err := s.EnsureAsset(ctx, capture)
	if err != nil {
		return Asset{}, Album{}, err
	}
	album, err := s.AssignToAlbum(ctx, asset, name)
	if err != nil {
		return asset, Album{}, err
	}
	return asset, album, nil
}

func (s *Store) assignFailed(asset Asset, name string, err error) error {
	s.log.Warn("album assignment failed",
		zap.String("album", name),
		zap.String("asset_id", asset.Handle.ID),
		zap.Error(err),
	)
	return &AssignError{Asset: asset, Album: name, Err: err}
}

// lock acquires the per-name queue slot. The returned func releases it and
// drops the entry once nobody is waiting.
func (s *Store) lock(ctx context.Context, name string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[name]
	if !ok {
		l = &nameLock{sem: make(chan struct{}, 1)}
		s.locks[name] = l
	}
	l.refs++
	s.mu.Unlock()

	release := func() {
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, name)
		}
		s.mu.Unlock()
	}

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			release()
		}, nil
	case <-ctx.Done():
		release()
		return nil, fmt.Errorf("wait for album %q: %w", name, ctx.Err())
	}
}

// IsAssignError reports whether err is an album assignment failure and
// returns it.
func IsAssignError(err error) (*AssignError, bool) {
	var ae *AssignError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
