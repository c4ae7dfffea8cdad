package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jwulff/clipcam/internal/device"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS assets (
		id TEXT PRIMARY KEY,
		sourceUri TEXT NOT NULL,
		localUri TEXT NOT NULL,
		createdAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS albums (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		shared INTEGER NOT NULL DEFAULT 0,
		createdAt REAL NOT NULL
	);

	CREATE TABLE IF NOT EXISTS album_assets (
		albumId TEXT NOT NULL REFERENCES albums(id) ON DELETE CASCADE,
		assetId TEXT NOT NULL REFERENCES assets(id) ON DELETE CASCADE,
		addedAt REAL NOT NULL,
		PRIMARY KEY (albumId, assetId)
	);

	CREATE INDEX IF NOT EXISTS albums_title ON albums(title);
`

// Store is the media library. It implements device.Library. Album titles are
// not unique at this level; album.Store serializes lookup-then-create.
type Store struct {
	db         *sql.DB
	libraryDir string
	now        func() time.Time
}

var _ device.Library = (*Store)(nil)

// DefaultDBPath returns the default database path under dataDir.
func DefaultDBPath(dataDir string) string {
	return filepath.Join(dataDir, "library.sqlite")
}

// Open opens (creating if needed) the library database at path. Clips are
// copied into libraryDir when registered; an empty libraryDir keeps clips
// where they were captured.
func Open(path, libraryDir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database dir: %w", err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	dsn := (&url.URL{
		Scheme:   "file",
		Path:     abs,
		RawQuery: "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)",
	}).String()
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One writer keeps SQLite free of lock contention.
	db.SetMaxOpenConns(1)

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return newStore(db, libraryDir)
}

func newStore(db *sql.DB, libraryDir string) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &Store{db: db, libraryDir: libraryDir, now: time.Now}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateAsset registers the clip at uri. When the store has a library
// directory the clip is copied into it and the copy becomes the local URI.
func (s *Store) CreateAsset(ctx context.Context, uri string) (device.AssetHandle, error) {
	id := uuid.NewString()
	local := uri
	if s.libraryDir != "" {
		copied, err := s.importFile(id, uri)
		if err != nil {
			return device.AssetHandle{}, err
		}
		local = copied
	}

	created := s.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO assets (id, sourceUri, localUri, createdAt) VALUES (?, ?, ?, ?)
	`, id, uri, local, unixFromTime(created))
	if err != nil {
		return device.AssetHandle{}, fmt.Errorf("insert asset: %w", err)
	}
	return device.AssetHandle{ID: id, URI: local, CreatedAt: created}, nil
}

// GetAlbum returns the oldest album titled name, or nil.
func (s *Store) GetAlbum(ctx context.Context, name string) (*device.AlbumHandle, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title FROM albums
		WHERE title = ?
		ORDER BY createdAt ASC
		LIMIT 1
	`, name)

	var h device.AlbumHandle
	if err := row.Scan(&h.ID, &h.Title); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan album: %w", err)
	}
	return &h, nil
}

// CreateAlbum creates an album whose only member is initial.
func (s *Store) CreateAlbum(ctx context.Context, name string, initial device.AssetHandle, shared bool) (device.AlbumHandle, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return device.AlbumHandle{}, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	h := device.AlbumHandle{ID: uuid.NewString(), Title: name}
	now := unixFromTime(s.now())
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO albums (id, title, shared, createdAt) VALUES (?, ?, ?, ?)
	`, h.ID, name, shared, now); err != nil {
		return device.AlbumHandle{}, fmt.Errorf("insert album: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO album_assets (albumId, assetId, addedAt) VALUES (?, ?, ?)
	`, h.ID, initial.ID, now); err != nil {
		return device.AlbumHandle{}, fmt.Errorf("insert album asset: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return device.AlbumHandle{}, fmt.Errorf("commit: %w", err)
	}
	return h, nil
}

// AddAssetsToAlbum appends assets to album. Existing members are kept;
// re-adding a member is a no-op. The album keeps the shared flag it was
// created with.
func (s *Store) AddAssetsToAlbum(ctx context.Context, assets []device.AssetHandle, album device.AlbumHandle, shared bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM albums WHERE id = ?`, album.ID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("album %s not found", album.ID)
	}
	if err != nil {
		return fmt.Errorf("lookup album: %w", err)
	}

	now := unixFromTime(s.now())
	for _, a := range assets {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO album_assets (albumId, assetId, addedAt) VALUES (?, ?, ?)
		`, album.ID, a.ID, now); err != nil {
			return fmt.Errorf("insert album asset %s: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// GetAssetInfo returns the library's view of asset.
func (s *Store) GetAssetInfo(ctx context.Context, asset device.AssetHandle) (device.AssetInfo, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, localUri FROM assets WHERE id = ?`, asset.ID)

	var info device.AssetInfo
	if err := row.Scan(&info.ID, &info.LocalURI); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return device.AssetInfo{}, fmt.Errorf("asset %s not found", asset.ID)
		}
		return device.AssetInfo{}, fmt.Errorf("scan asset: %w", err)
	}
	return info, nil
}

// Albums returns every album with its member count, ordered by title.
func (s *Store) Albums(ctx context.Context) ([]Album, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.shared, a.createdAt, COUNT(aa.assetId)
		FROM albums a
		LEFT JOIN album_assets aa ON aa.albumId = a.id
		GROUP BY a.id
		ORDER BY a.title ASC, a.createdAt ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query albums: %w", err)
	}
	defer rows.Close()

	var albums []Album
	for rows.Next() {
		var a Album
		var createdAt float64
		if err := rows.Scan(&a.ID, &a.Title, &a.Shared, &createdAt, &a.AssetCount); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		a.CreatedAt = timeFromUnix(createdAt)
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// AssetsInAlbum returns the members of every album titled name, oldest first.
func (s *Store) AssetsInAlbum(ctx context.Context, name string) ([]AlbumAsset, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.sourceUri, s.localUri, s.createdAt, aa.addedAt
		FROM album_assets aa
		JOIN albums a ON a.id = aa.albumId
		JOIN assets s ON s.id = aa.assetId
		WHERE a.title = ?
		ORDER BY aa.addedAt ASC, s.createdAt ASC
	`, name)
	if err != nil {
		return nil, fmt.Errorf("query album assets: %w", err)
	}
	defer rows.Close()

	var assets []AlbumAsset
	for rows.Next() {
		var a AlbumAsset
		var createdAt, addedAt float64
		if err := rows.Scan(&a.ID, &a.SourceURI, &a.LocalURI, &createdAt, &addedAt); err != nil {
			return nil, fmt.Errorf("scan album asset: %w", err)
		}
		a.CreatedAt = timeFromUnix(createdAt)
		a.AddedAt = timeFromUnix(addedAt)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// importFile copies the clip at uri into the library directory and returns
// the copy's file URI.
func (s *Store) importFile(id, uri string) (string, error) {
	src, err := pathFromURI(uri)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.libraryDir, 0o755); err != nil {
		return "", fmt.Errorf("create library dir: %w", err)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open clip: %w", err)
	}
	defer in.Close()

	dir, err := filepath.Abs(s.libraryDir)
	if err != nil {
		return "", fmt.Errorf("resolve library dir: %w", err)
	}
	dst := filepath.Join(dir, id+filepath.Ext(src))
	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("create library file: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return "", fmt.Errorf("copy clip: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close library file: %w", err)
	}
	return fileURI(dst), nil
}

func fileURI(path string) string {
	return (&url.URL{Scheme: "file", Path: path}).String()
}

func pathFromURI(uri string) (string, error) {
	if !strings.Contains(uri, "://") {
		return uri, nil
	}
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("parse clip uri: %w", err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("cannot import %q: not a file uri", uri)
	}
	return u.Path, nil
}

func timeFromUnix(ts float64) time.Time {
	sec := int64(ts)
	nsec := int64((ts - float64(sec)) * 1e9)
	return time.Unix(sec, nsec)
}

func unixFromTime(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}
