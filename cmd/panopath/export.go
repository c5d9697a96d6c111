// cmd/panopath/export.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/internal/export"
	"github.com/OCAP2/panopath/internal/panorama"
	"github.com/OCAP2/panopath/internal/session"
	"github.com/OCAP2/panopath/internal/storage"

	"github.com/spf13/cobra"
)

var (
	exportMode      string
	exportPanorama  string
	exportOutputDir string
	exportCompress  bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Render stored paths onto the panorama without a browser",
	Long: `Loads the panorama and every stored path, then writes the PNG export and
the path document to the output directory.

Example:
  panopath export --mode with-paths --panorama ./site.jpg --out ./exports`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if exportOutputDir != "" {
			config.Set("export.outputDir", exportOutputDir)
		}
		if cmd.Flags().Changed("compress") {
			config.Set("export.compressOutput", exportCompress)
		}
		if exportPanorama != "" {
			config.Set("server.panorama", exportPanorama)
		}
		res, err := runExport(cmd.Context(), exportMode)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.ImagePath)
		fmt.Fprintln(cmd.OutOrStdout(), res.DocumentPath)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVar(&exportMode, "mode", string(export.ModeWithPaths), "with-paths or image-only")
	exportCmd.Flags().StringVar(&exportPanorama, "panorama", "", "panorama file or URL (overrides server.panorama)")
	exportCmd.Flags().StringVar(&exportOutputDir, "out", "", "output directory (overrides export.outputDir)")
	exportCmd.Flags().BoolVar(&exportCompress, "compress", false, "gzip the path document")
}

func runExport(ctx context.Context, modeName string) (export.Result, error) {
	logger := app.logger
	mode, err := export.ParseMode(modeName)
	if err != nil {
		return export.Result{}, err
	}

	sessCfg, err := sessionConfig()
	if err != nil {
		return export.Result{}, err
	}
	sess := session.New(sessCfg)

	backend, err := storage.NewBackend(config.GetStorageConfig(), logger, app.component("storage"))
	if err != nil {
		return export.Result{}, err
	}
	if err := backend.Init(); err != nil {
		return export.Result{}, err
	}
	defer backend.Close()

	paths, err := backend.LoadPaths()
	if err != nil {
		return export.Result{}, fmt.Errorf("failed to load paths: %w", err)
	}
	sess.RestorePaths(paths)

	srvCfg := config.GetServerConfig()
	source := srvCfg.Panorama
	loader := panorama.NewLoader(logger, panorama.WithHTTPClient(&http.Client{Timeout: srvCfg.FetchTimeout}))
	img, err := loader.LoadSync(ctx, source)
	if err != nil {
		return export.Result{}, fmt.Errorf("failed to load panorama %s: %w", source, err)
	}
	sess.SetPanorama(img, false)

	start := time.Now()
	artifacts, err := sess.Export(mode)
	if err != nil {
		return export.Result{}, err
	}

	expCfg := config.GetExportConfig()
	exporter := export.NewExporter(export.Config{
		OutputDir:      expCfg.OutputDir,
		CompressOutput: expCfg.CompressOutput,
	})
	doc := artifacts.Document
	res, err := exporter.WriteFiles(artifacts.Image, &doc, mode, time.UnixMilli(doc.Timestamp))
	if err != nil {
		return res, err
	}
	logger.Info("Export written",
		"mode", mode,
		"paths", len(doc.Paths),
		"image", res.ImagePath,
		"document", res.DocumentPath,
		"elapsed", time.Since(start))
	return res, nil
}
