package http

import (
	"bytes"
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	geojsonadapter "github.com/samirrijal/riskmap/internal/adapters/geojson"
	"github.com/samirrijal/riskmap/internal/core/domain"
)

const maxQueryLength = 200

type selectRequest struct {
	Lat *float64 `json:"lat"`
	Lng *float64 `json:"lng"`
}

type zoomRequest struct {
	Zoom *int `json:"zoom"`
}

// CreateSessionHandler starts a new map session at the default viewport.
func CreateSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess, err := deps.Sessions.Create(c.UserContext())
		if err != nil {
			return errFromDomain(c, err)
		}

		c.Location("/v1/sessions/" + sess.ID)
		return c.Status(fiber.StatusCreated).JSON(sess.Scene())
	}
}

// GetSessionHandler returns the current scene of a session.
func GetSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scene, err := deps.Sessions.Scene(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(scene)
	}
}

// DeleteSessionHandler drops a session.
func DeleteSessionHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := deps.Sessions.Delete(c.Params("id")); err != nil {
			return errFromDomain(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// SelectHandler applies a coordinate picked directly on the map.
func SelectHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req selectRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Lat == nil || req.Lng == nil {
			return errBadRequest(c, "lat and lng are required")
		}

		scene, err := deps.Sessions.Select(c.UserContext(), c.Params("id"), domain.Coordinate{Lat: *req.Lat, Lng: *req.Lng})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(scene)
	}
}

// ZoomHandler changes the zoom level of a session's viewport.
func ZoomHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req zoomRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if req.Zoom == nil {
			return errBadRequest(c, "zoom is required")
		}

		scene, err := deps.Sessions.Zoom(c.UserContext(), c.Params("id"), *req.Zoom)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(scene)
	}
}

// SessionGeoJSONHandler returns the scene as a GeoJSON FeatureCollection.
func SessionGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		scene, err := deps.Sessions.Scene(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}

		if err := c.JSON(geojsonadapter.Scene(scene)); err != nil {
			return err
		}
		c.Set(fiber.HeaderContentType, "application/geo+json")
		return nil
	}
}

// SessionMapHandler renders the scene over map tiles as a PNG.
func SessionMapHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.StaticMap == nil {
			return errUnavailable(c, "static_map_unavailable", "static map rendering is not configured")
		}

		scene, err := deps.Sessions.Scene(c.Params("id"))
		if err != nil {
			return errFromDomain(c, err)
		}

		r := deps.StaticMap
		if c.Query("width") != "" || c.Query("height") != "" {
			r, err = r.WithSize(c.QueryInt("width", 0), c.QueryInt("height", 0))
			if err != nil {
				return errBadRequest(c, err.Error())
			}
		}

		var buf bytes.Buffer
		if err := r.WritePNG(&buf, scene); err != nil {
			return errBadGateway(c, "tile_fetch_failed", err.Error())
		}

		c.Set("Cache-Control", "no-store")
		c.Type("png")
		return c.Send(buf.Bytes())
	}
}

// AutocompleteHandler lists place candidates for a free-text query.
func AutocompleteHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query := c.Query("q")
		if len(query) > maxQueryLength {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		candidates, err := suggestPlaces(c.UserContext(), deps, query)
		if err != nil {
			return errBadGateway(c, "geocoding_failed", err.Error())
		}

		c.Set("Cache-Control", "public, max-age=300")
		return c.JSON(candidates)
	}
}

// suggestPlaces lists candidates for query. Without place search the list
// is empty rather than an error, for every API surface.
func suggestPlaces(ctx context.Context, deps *Dependencies, query string) ([]domain.Candidate, error) {
	candidates, err := deps.Sessions.Suggest(ctx, query)
	if err != nil && !errors.Is(err, domain.ErrSelectorInactive) {
		return nil, err
	}
	if candidates == nil {
		candidates = []domain.Candidate{}
	}
	return candidates, nil
}

// ChoosePlaceHandler resolves a candidate and selects it on the session's map.
func ChoosePlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var cand domain.Candidate
		if err := c.BodyParser(&cand); err != nil {
			return errBadRequest(c, "invalid JSON body")
		}
		if cand.PlaceID == "" && cand.Description == "" {
			return errBadRequest(c, "place_id or description is required")
		}

		scene, err := deps.Sessions.ChoosePlace(c.UserContext(), c.Params("id"), cand)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(scene)
	}
}
