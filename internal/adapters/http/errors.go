package http

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/riskmap/internal/core/domain"
)

// APIError is a structured error response.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // Error code: bad_request, not_found, geocoding_failed, etc.
	Message   string `json:"message"` // Human-readable message
	RequestID string `json:"request_id,omitempty"`
}

// newError builds a JSON error response with a request ID.
func newError(c *fiber.Ctx, status int, code string, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

// errBadRequest returns a 400 error.
func errBadRequest(c *fiber.Ctx, msg string) error {
	return newError(c, 400, "bad_request", msg)
}

// errNotFound returns a 404 error.
func errNotFound(c *fiber.Ctx, msg string) error {
	return newError(c, 404, "not_found", msg)
}

// errInternal returns a 500 error.
func errInternal(c *fiber.Ctx, msg string) error {
	return newError(c, 500, "internal_error", msg)
}

// errConflict returns a 409 error.
func errConflict(c *fiber.Ctx, code, msg string) error {
	return newError(c, 409, code, msg)
}

// errBadGateway returns a 502 error for upstream provider failures.
func errBadGateway(c *fiber.Ctx, code, msg string) error {
	return newError(c, 502, code, msg)
}

// errUnavailable returns a 503 error.
func errUnavailable(c *fiber.Ctx, code, msg string) error {
	return newError(c, 503, code, msg)
}

// errFromDomain maps domain sentinels onto HTTP errors.
func errFromDomain(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return errNotFound(c, err.Error())
	case errors.Is(err, domain.ErrInvalidCoordinate),
		errors.Is(err, domain.ErrMissingCoordinates),
		errors.Is(err, domain.ErrEmptyBatch):
		return errBadRequest(c, err.Error())
	case errors.Is(err, domain.ErrMapLoad):
		return errUnavailable(c, "map_load_failed", err.Error())
	case errors.Is(err, domain.ErrSelectorInactive):
		return errUnavailable(c, "place_search_unavailable", err.Error())
	case errors.Is(err, domain.ErrGeocoding):
		return errBadGateway(c, "geocoding_failed", err.Error())
	case errors.Is(err, domain.ErrStaleSelection):
		return errConflict(c, "stale_selection", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return newError(c, 504, "timeout", err.Error())
	default:
		LoggerFromCtx(c.UserContext()).Error("request failed", "path", c.Path(), "error", err)
		return errInternal(c, err.Error())
	}
}
