package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/samirrijal/riskmap/internal/adapters/cluster"
	"github.com/samirrijal/riskmap/internal/adapters/googlemaps"
	"github.com/samirrijal/riskmap/internal/adapters/scene"
	"github.com/samirrijal/riskmap/internal/adapters/staticmap"
	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
	"github.com/samirrijal/riskmap/internal/core/usecases"
	"github.com/samirrijal/riskmap/internal/pkg/config"
	"github.com/samirrijal/riskmap/internal/pkg/logging"
)

var (
	output   string
	zoom     int
	width    int
	height   int
	provider string
	lat      float64
	lng      float64
)

var rootCmd = &cobra.Command{
	Use:   "riskmap-render [place]",
	Short: "Render a risk map for a place to a PNG file",
	Long: `Resolve a place name (or take --lat/--lng), select it on an in-process map
session and write the resulting scene, with risk clusters and radius bands, as a PNG.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

func init() {
	rootCmd.Flags().StringVarP(&output, "output", "o", "map.png", "Output PNG path")
	rootCmd.Flags().IntVarP(&zoom, "zoom", "z", 12, "Zoom level (0-22)")
	rootCmd.Flags().IntVar(&width, "width", staticmap.DefaultWidth, "Image width in pixels")
	rootCmd.Flags().IntVar(&height, "height", staticmap.DefaultHeight, "Image height in pixels")
	rootCmd.Flags().StringVar(&provider, "tiles", "", "Tile provider (defaults to maps.tile_provider)")
	rootCmd.Flags().Float64Var(&lat, "lat", 0, "Latitude to select instead of a place name")
	rootCmd.Flags().Float64Var(&lng, "lng", 0, "Longitude to select instead of a place name")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// coordinateMode reports whether --lat/--lng replace the place argument.
// The two flags only count as a pair.
func coordinateMode(cmd *cobra.Command, args []string) (bool, error) {
	hasLat, hasLng := cmd.Flags().Changed("lat"), cmd.Flags().Changed("lng")
	switch {
	case hasLat != hasLng:
		return false, errors.New("--lat and --lng must be given together")
	case hasLat && len(args) > 0:
		return false, errors.New("give either a place name or --lat/--lng, not both")
	case !hasLat && len(args) == 0:
		return false, errors.New("give a place name or both --lat and --lng")
	}
	return hasLat, nil
}

func runRender(cmd *cobra.Command, args []string) error {
	byCoordinate, err := coordinateMode(cmd, args)
	if err != nil {
		return err
	}

	cfg, err := config.Load("riskmap-render")
	if err != nil {
		return err
	}
	if err := cfg.RequireMapsKey(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrMapLoad, err)
	}
	logging.Setup(cfg.Log.Level, "text")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var geocoder ports.Geocoder
	if !byCoordinate {
		gmaps, err := googlemaps.New(googlemaps.Config{
			APIKey:            cfg.Maps.APIKey,
			BaseURL:           cfg.Maps.BaseURL,
			Language:          cfg.Maps.Language,
			Region:            cfg.Maps.Region,
			RequestsPerSecond: cfg.Maps.RequestsPerSecond,
			Timeout:           time.Duration(cfg.Maps.Timeout) * time.Second,
		})
		if err != nil {
			return err
		}
		geocoder = usecases.NewGeocodeService(gmaps, nil)
	}

	sceneOpts := scene.Options{
		APIKey: cfg.Maps.APIKey,
		Center: domain.Coordinate{Lat: cfg.Scene.CenterLat, Lng: cfg.Scene.CenterLng},
		Zoom:   cfg.Scene.Zoom,
	}
	sessions := usecases.NewSessionService(
		func(ctx context.Context) (ports.MapRenderer, error) { return scene.NewLoaded(ctx, sceneOpts) },
		cluster.NewFactory(cluster.Options{
			RadiusPx:  cfg.Cluster.RadiusPx,
			MinPoints: cfg.Cluster.MinPoints,
			MaxZoom:   cfg.Cluster.MaxZoom,
		}),
		geocoder,
		nil,
		time.Hour,
	)

	sess, err := sessions.Create(ctx)
	if err != nil {
		return err
	}

	if byCoordinate {
		if _, err := sessions.Select(ctx, sess.ID, domain.Coordinate{Lat: lat, Lng: lng}); err != nil {
			return err
		}
	} else {
		query := strings.Join(args, " ")
		candidates, err := sessions.Suggest(ctx, query)
		if err != nil {
			return err
		}
		if len(candidates) == 0 {
			return fmt.Errorf("no place matches %q", query)
		}
		slog.Info("place resolved", "query", query, "candidate", candidates[0].Description)
		if _, err := sessions.ChoosePlace(ctx, sess.ID, candidates[0]); err != nil {
			return err
		}
	}

	result, err := sessions.Zoom(ctx, sess.ID, zoom)
	if err != nil {
		return err
	}

	tiles := provider
	if tiles == "" {
		tiles = cfg.Maps.TileProvider
	}
	renderer, err := staticmap.New(staticmap.Options{Width: width, Height: height, TileProvider: tiles})
	if err != nil {
		return err
	}

	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := renderer.WritePNG(f, result); err != nil {
		f.Close()
		return fmt.Errorf("render %s: %w", output, err)
	}
	if err := f.Close(); err != nil {
		return err
	}

	sel := result.Selection
	slog.Info("map written",
		"path", output,
		"lat", sel.Selected.Lat,
		"lng", sel.Selected.Lng,
		"risk_points", sel.RiskPoints,
		"clusters", len(result.Map.Badges),
	)
	return nil
}
