//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samirrijal/riskmap/internal/adapters/cluster"
	"github.com/samirrijal/riskmap/internal/adapters/http"
	"github.com/samirrijal/riskmap/internal/adapters/postgres"
	"github.com/samirrijal/riskmap/internal/core/domain"
	"github.com/samirrijal/riskmap/internal/core/usecases"
	"github.com/samirrijal/riskmap/internal/pkg/config"
)

// setupTestDB connects to the test database described by the RISKMAP_DATABASE_* variables.
func setupTestDB(t *testing.T) *postgres.DB {
	cfg, err := config.Load("riskmap-test")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return db
}

// setupTestDeps wires the checkpoint service to the real repository, no cache.
func setupTestDeps(t *testing.T, db *postgres.DB) *http.Dependencies {
	return &http.Dependencies{
		Sessions:    usecases.NewSessionService(loadedRenderer, cluster.NewFactory(cluster.Options{}), nil, nil, time.Hour),
		Checkpoints: usecases.NewCheckpointService(postgres.NewCheckpointEventRepo(db), speedModel(), nil),
		DB:          db,
	}
}

// TestPredict_Integration_WithRealDB stores an event and reads it back as GeoJSON.
func TestPredict_Integration_WithRealDB(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(t, db))

	vehicle := "IT" + time.Now().Format("20060102150405")
	code, body := doJSON(t, app, "POST", "/v1/checkpoints/predict",
		fmt.Sprintf(`{"latitude":43.45,"longitude":-80.49,"vehicle_id":%q,"features":{"Speed":180}}`, vehicle))
	if code != 200 {
		t.Fatalf("expected 200, got %d (%s)", code, body)
	}
	var created struct {
		Event domain.CheckpointEvent `json:"event"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if created.Event.ID == 0 {
		t.Fatal("expected the database to assign an id")
	}

	req := httptest.NewRequest("GET", "/v1/checkpoints/geojson?limit=50", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}
	if resp.StatusCode != 200 {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var fc struct {
		Features []struct {
			Properties map[string]interface{} `json:"properties"`
		} `json:"features"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(fc.Features) == 0 || fc.Features[0].Properties["vehicle_id"] != vehicle {
		t.Errorf("expected the new event first, got %+v", fc.Features)
	}
}

// TestReady_Integration checks readiness with a live database.
func TestReady_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	db := setupTestDB(t)
	defer db.Close()

	app := setupApp(setupTestDeps(t, db))

	req := httptest.NewRequest("GET", "/v1/ready", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("test request: %v", err)
	}

	var result struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if result.Checks["database"] != "ok" {
		t.Errorf("expected database ok, got %q", result.Checks["database"])
	}
}
