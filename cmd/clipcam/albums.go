package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/jwulff/clipcam/internal/db"
	"github.com/spf13/cobra"
)

func newAlbumsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "albums [name]",
		Short: "List albums, or the clips in one album",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := db.Open(cfg.DBPath, cfg.LibraryDir)
			if err != nil {
				return fmt.Errorf("open library: %w", err)
			}
			defer store.Close()

			if len(args) == 0 {
				albums, err := store.Albums(cmd.Context())
				if err != nil {
					return err
				}
				return printAlbums(cmd.OutOrStdout(), albums)
			}
			assets, err := store.AssetsInAlbum(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printAssets(cmd.OutOrStdout(), args[0], assets)
		},
	}
}

func printAlbums(out io.Writer, albums []db.Album) error {
	if len(albums) == 0 {
		_, err := fmt.Fprintln(out, "No albums yet.")
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TITLE\tCLIPS\tCREATED\tID")
	for _, a := range albums {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", a.Title, a.AssetCount, a.CreatedAt.Local().Format(time.DateTime), a.ID)
	}
	return w.Flush()
}

func printAssets(out io.Writer, name string, assets []db.AlbumAsset) error {
	if len(assets) == 0 {
		_, err := fmt.Fprintf(out, "No clips in %q.\n", name)
		return err
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ADDED\tURI\tID")
	for _, a := range assets {
		fmt.Fprintf(w, "%s\t%s\t%s\n", a.AddedAt.Local().Format(time.DateTime), a.LocalURI, a.ID)
	}
	return w.Flush()
}
