package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/riskmap/internal/adapters/cluster"
	"github.com/samirrijal/riskmap/internal/adapters/googlemaps"
	"github.com/samirrijal/riskmap/internal/adapters/http"
	"github.com/samirrijal/riskmap/internal/adapters/memory"
	natsadapter "github.com/samirrijal/riskmap/internal/adapters/nats"
	"github.com/samirrijal/riskmap/internal/adapters/postgres"
	"github.com/samirrijal/riskmap/internal/adapters/riskmodel"
	"github.com/samirrijal/riskmap/internal/adapters/scene"
	"github.com/samirrijal/riskmap/internal/adapters/staticmap"
	"github.com/samirrijal/riskmap/internal/adapters/valkey"
	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/ports"
	"github.com/samirrijal/riskmap/internal/core/usecases"
	"github.com/samirrijal/riskmap/internal/pkg/config"
	"github.com/samirrijal/riskmap/internal/pkg/logging"
	"github.com/samirrijal/riskmap/internal/pkg/metrics"
	"github.com/samirrijal/riskmap/internal/pkg/telemetry"
)

const janitorInterval = time.Minute

func main() {
	cfg, err := config.Load("riskmap-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	// Without a maps credential no session can ever load.
	if err := cfg.RequireMapsKey(); err != nil {
		log.Fatalf("%v: %v", domain.ErrMapLoad, err)
	}

	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database (optional: checkpoint events fall back to memory)
	var events ports.CheckpointEventRepository
	dbCtx, dbCancel := context.WithTimeout(ctx, 5*time.Second)
	db, err := postgres.New(dbCtx, cfg.Database.DSN())
	dbCancel()
	if err != nil {
		slog.Warn("database unavailable, keeping checkpoint events in memory", "error", err)
		db = nil
		events = memory.NewCheckpointEventRepo()
	} else {
		defer db.Close()
		events = postgres.NewCheckpointEventRepo(db)
		go reportPoolStats(ctx, db)
	}

	// Cache
	var geoCache ports.CacheService
	cache, err := valkey.New(cfg.Valkey.Addr)
	if err != nil {
		slog.Warn("valkey unavailable", "error", err)
		cache = nil
	} else {
		defer cache.Close()
		geoCache = cache
	}

	// NATS
	var publisher ports.EventPublisher
	nc, err := natsadapter.NewPublisher(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer nc.Close()
		publisher = nc
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
		natsConn = nil
	} else {
		defer natsConn.Close()
	}

	// Geocoding
	gmaps, err := googlemaps.New(googlemaps.Config{
		APIKey:            cfg.Maps.APIKey,
		BaseURL:           cfg.Maps.BaseURL,
		Language:          cfg.Maps.Language,
		Region:            cfg.Maps.Region,
		RequestsPerSecond: cfg.Maps.RequestsPerSecond,
		Timeout:           time.Duration(cfg.Maps.Timeout) * time.Second,
	})
	if err != nil {
		log.Fatalf("%v: %v", domain.ErrMapLoad, err)
	}
	geocoder := usecases.NewGeocodeService(gmaps, geoCache)

	// Checkpoint model
	model, err := riskmodel.Load(cfg.Checkpoints.ModelPath)
	if err != nil {
		log.Fatalf("risk model: %v", err)
	}

	// Map rendering
	sceneOpts := scene.Options{
		APIKey: cfg.Maps.APIKey,
		Center: domain.Coordinate{Lat: cfg.Scene.CenterLat, Lng: cfg.Scene.CenterLng},
		Zoom:   cfg.Scene.Zoom,
	}
	newRenderer := func(ctx context.Context) (ports.MapRenderer, error) {
		return scene.NewLoaded(ctx, sceneOpts)
	}
	engines := cluster.NewFactory(cluster.Options{
		RadiusPx:  cfg.Cluster.RadiusPx,
		MinPoints: cfg.Cluster.MinPoints,
		MaxZoom:   cfg.Cluster.MaxZoom,
	})

	staticMap, err := staticmap.New(staticmap.Options{TileProvider: cfg.Maps.TileProvider})
	if err != nil {
		log.Fatalf("static map: %v", err)
	}

	// Use cases
	sessions := usecases.NewSessionService(newRenderer, engines, geocoder, publisher,
		time.Duration(cfg.Scene.SessionTTL)*time.Second)
	go sessions.RunJanitor(ctx, janitorInterval)

	checkpoints := usecases.NewCheckpointService(events, model, publisher)

	deps := &http.Dependencies{
		Sessions:    sessions,
		Checkpoints: checkpoints,
		StaticMap:   staticMap,
		NATS:        natsConn,
		DB:          db,
		Cache:       cache,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "Riskmap API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "http://localhost:3000, http://localhost:5173",
		AllowMethods:     "GET,POST,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "model_ready", model.Ready())
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		case <-ctx.Done():
			return
		}
	}
}
