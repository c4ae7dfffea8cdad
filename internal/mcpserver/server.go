// Package mcpserver exposes the clip library to MCP clients over stdio. All
// tools are read-only.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jwulff/clipcam/internal/db"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

// Library is the read side of the clip library.
type Library interface {
	Albums(ctx context.Context) ([]db.Album, error)
	AssetsInAlbum(ctx context.Context, name string) ([]db.AlbumAsset, error)
}

type albumJSON struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Shared     bool   `json:"shared"`
	AssetCount int    `json:"assetCount"`
	CreatedAt  string `json:"createdAt"`
}

type assetJSON struct {
	ID        string `json:"id"`
	SourceURI string `json:"sourceUri"`
	LocalURI  string `json:"localUri"`
	CreatedAt string `json:"createdAt"`
	AddedAt   string `json:"addedAt"`
}

type handlers struct {
	lib Library
	log *zap.Logger
}

// New builds the MCP server with the library tools registered.
func New(lib Library, version string, log *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer("clipcam", version, server.WithToolCapabilities(false))
	h := &handlers{lib: lib, log: log}

	s.AddTool(mcp.NewTool("list_albums",
		mcp.WithDescription("List clip albums with their asset counts"),
	), h.listAlbums)

	s.AddTool(mcp.NewTool("list_album_assets",
		mcp.WithDescription("List the clips in an album, oldest first"),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Album title, e.g. test-video-album"),
		),
	), h.listAlbumAssets)

	return s
}

// Serve runs s on stdin/stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func (h *handlers) listAlbums(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	albums, err := h.lib.Albums(ctx)
	if err != nil {
		h.log.Error("list albums", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("list albums: %v", err)), nil
	}

	out := make([]albumJSON, 0, len(albums))
	for _, a := range albums {
		out = append(out, albumJSON{
			ID:         a.ID,
			Title:      a.Title,
			Shared:     a.Shared,
			AssetCount: a.AssetCount,
			CreatedAt:  a.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return jsonResult(out)
}

func (h *handlers) listAlbumAssets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	assets, err := h.lib.AssetsInAlbum(ctx, name)
	if err != nil {
		h.log.Error("list album assets", zap.String("album", name), zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("list assets of %q: %v", name, err)), nil
	}

	out := make([]assetJSON, 0, len(assets))
	for _, a := range assets {
		out = append(out, assetJSON{
			ID:        a.ID,
			SourceURI: a.SourceURI,
			LocalURI:  a.LocalURI,
			CreatedAt: a.CreatedAt.UTC().Format(time.RFC3339),
			AddedAt:   a.AddedAt.UTC().Format(time.RFC3339),
		})
	}
	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
