package http

import (
	"github.com/gofiber/fiber/v2"

	geojsonadapter "github.com/samirrijal/riskmap/internal/adapters/geojson"
	"github.com/samirrijal/riskmap/internal/core/domain"
)

type batchRequest struct {
	Items []domain.PredictRequest `json:"items"`
}

// LegacyHealthHandler answers the original checkpoint backend's health probe.
func LegacyHealthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	}
}

// CheckpointStatusHandler reports model readiness and the stored event count.
func CheckpointStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		st, err := deps.Checkpoints.Status(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("Cache-Control", "no-cache")
		return c.JSON(st)
	}
}

// PredictHandler scores one observation and stores it.
func PredictHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.PredictRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		event, err := deps.Checkpoints.Predict(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "event": event})
	}
}

// PredictBatchHandler scores a list of observations without storing them.
func PredictBatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req batchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}

		results, err := deps.Checkpoints.PredictBatch(c.UserContext(), req.Items)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"ok": true, "results": results})
	}
}

// CheckpointGeoJSONHandler returns stored events newest first as GeoJSON.
// Query params: only_suspicious (default 1), min_risk (default 0), limit (default 500).
func CheckpointGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		filter := domain.EventFilter{
			OnlySuspicious: c.Query("only_suspicious", "1") == "1",
			MinRisk:        c.QueryInt("min_risk", 0),
			Limit:          c.QueryInt("limit", 500),
		}

		events, err := deps.Checkpoints.Events(c.UserContext(), filter)
		if err != nil {
			return errFromDomain(c, err)
		}

		if err := c.JSON(geojsonadapter.Checkpoints(events)); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return nil
	}
}

// ListCheckpointsHandler returns a page of stored events, newest first.
func ListCheckpointsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		pg := parsePagination(c)

		events, err := deps.Checkpoints.Events(c.UserContext(), domain.EventFilter{Offset: pg.Offset, Limit: pg.Limit})
		if err != nil {
			return errFromDomain(c, err)
		}
		pg.Total, err = deps.Checkpoints.Count(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}

		SetLinkHeaders(c, pg)
		return c.JSON(NewPage(events, pg))
	}
}
