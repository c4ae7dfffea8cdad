// Package db provides the SQLite-backed media library: assets, albums and
// their membership.
package db

import "time"

// Asset represents a clip registered in the library.
type Asset struct {
	ID        string
	SourceURI string
	LocalURI  string
	CreatedAt time.Time
}

// Album represents a named collection of assets.
type Album struct {
	ID         string
	Title      string
	Shared     bool
	AssetCount int
	CreatedAt  time.Time
}

// AlbumAsset is an asset as listed inside an album.
type AlbumAsset struct {
	Asset
	AddedAt time.Time
}
