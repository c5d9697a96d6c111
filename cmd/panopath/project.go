// cmd/panopath/project.go
package main

import (
	"encoding/json"
	"fmt"

	"github.com/OCAP2/panopath/internal/config"
	"github.com/OCAP2/panopath/internal/geo"
	"github.com/OCAP2/panopath/internal/parser"
	"github.com/OCAP2/panopath/internal/storage"

	"github.com/spf13/cobra"
)

var (
	projectWidth  int
	projectHeight int
)

var projectCmd = &cobra.Command{
	Use:   "project x y z",
	Short: "Project a sphere point to texture and pixel coordinates",
	Long: `Prints the equirectangular texture coordinate of a point in the viewer's
world space, plus the pixel it lands on for the given image size.

Example:
  panopath project 500 0 0 --width 4096 --height 2048`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := parser.NewParser(app.logger).ParsePoint(args)
		if err != nil {
			return err
		}
		uv, err := geo.ProjectToUV(p)
		if err != nil {
			return err
		}
		x, y := geo.ToPixel(uv, projectWidth, projectHeight)
		lon, lat := geo.ToLonLat(uv)
		fmt.Fprintf(cmd.OutOrStdout(), "u=%.6f v=%.6f\n", uv.U, uv.V)
		fmt.Fprintf(cmd.OutOrStdout(), "pixel=(%.1f, %.1f) in %dx%d\n", x, y, projectWidth, projectHeight)
		fmt.Fprintf(cmd.OutOrStdout(), "lon=%.4f lat=%.4f\n", lon, lat)
		return nil
	},
}

var polylineCmd = &cobra.Command{
	Use:   "polyline '[[u,v],...]'",
	Short: "Convert a texture-coordinate polyline to GeoJSON",
	Long: `Splits the polyline where it wraps around the panorama seam and prints it
as a lon/lat MultiLineString.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		uvs, err := geo.ParsePolyline(args[0])
		if err != nil {
			return err
		}
		mls, err := geo.SeamLineString(uvs)
		if err != nil {
			return err
		}
		data, err := json.Marshal(mls)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var geojsonCmd = &cobra.Command{
	Use:   "geojson",
	Short: "Print every stored path as a GeoJSON FeatureCollection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		backend, err := storage.NewBackend(config.GetStorageConfig(), app.logger, app.component("storage"))
		if err != nil {
			return err
		}
		if err := backend.Init(); err != nil {
			return err
		}
		defer backend.Close()

		paths, err := backend.LoadPaths()
		if err != nil {
			return err
		}
		data, err := geo.PathGeoJSON(paths)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

func init() {
	projectCmd.Flags().IntVar(&projectWidth, "width", 4096, "image width in pixels")
	projectCmd.Flags().IntVar(&projectHeight, "height", 2048, "image height in pixels")
	projectCmd.AddCommand(polylineCmd, geojsonCmd)
}
