package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/templui/promoproof/internal/app"
	"github.com/templui/promoproof/internal/model"
)

func SeedCmd() *cobra.Command {
	var (
		assetsDir string
		verbose   bool
	)

	cmd := &cobra.Command{
		Use:   "seed <catalog.json>",
		Short: "Import materials from a JSON catalog into the configured store",
		Long: `Import materials from a JSON array of {id, name, type, image, text} objects.
Materials whose id already exists are skipped, so the import can be re-run.
With --assets, the image and text files named by each material are copied
from that directory into catalog storage.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd, args[0], assetsDir, verbose)
		},
	}

	cmd.Flags().StringVar(&assetsDir, "assets", "", "directory holding the asset files named in the catalog")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	return cmd
}

func runSeed(cmd *cobra.Command, catalogPath, assetsDir string, verbose bool) error {
	ctx := cmd.Context()
	cfg := loadConfig(verbose)

	data, err := os.ReadFile(catalogPath)
	if err != nil {
		return fmt.Errorf("failed to read catalog: %w", err)
	}

	var materials []*model.Material
	err = json.Unmarshal(data, &materials)
	if err != nil {
		return fmt.Errorf("invalid catalog %s: %w", catalogPath, err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	res, err := a.CatalogService.Import(ctx, materials)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d materials (%d already present)\n", res.Created, res.Skipped)

	if assetsDir == "" {
		return reportMissingAssets(cmd, a)
	}

	var copied, total uint64
	for _, m := range materials {
		for _, name := range []string{m.Image, m.Text} {
			if name == "" {
				continue
			}
			n, err := importAsset(cmd, a, filepath.Join(assetsDir, filepath.FromSlash(name)), name)
			if errors.Is(err, os.ErrNotExist) {
				slog.Warn("asset file missing, skipping", "material_id", m.ID, "name", name)
				continue
			}
			if err != nil {
				return err
			}
			copied++
			total += uint64(n)
		}
	}

	fmt.Printf("Copied %d assets (%s)\n", copied, humanize.IBytes(total))
	return reportMissingAssets(cmd, a)
}

func reportMissingAssets(cmd *cobra.Command, a *app.App) error {
	missing, err := a.CatalogService.MissingAssets(cmd.Context())
	if err != nil {
		return err
	}
	for _, ref := range missing {
		slog.Warn("catalog asset not in storage", "asset", ref)
	}
	if len(missing) > 0 {
		fmt.Printf("%d catalog assets are not in storage\n", len(missing))
	}
	return nil
}

func importAsset(cmd *cobra.Command, a *app.App, src, name string) (int64, error) {
	f, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	err = a.CatalogService.ImportAsset(cmd.Context(), name, f)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}
