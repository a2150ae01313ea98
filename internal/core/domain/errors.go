package domain

import "errors"

var (
	// ErrMapLoad means the map renderer could not initialise. It is terminal for the session.
	ErrMapLoad = errors.New("cannot initialize map")

	// ErrGeocoding means a chosen place could not be resolved to a coordinate.
	ErrGeocoding = errors.New("geocoding failed")

	// ErrStaleSelection means a newer selection superseded the one being applied.
	ErrStaleSelection = errors.New("selection superseded by a newer one")

	// ErrSelectorInactive means place search is not available for this session.
	ErrSelectorInactive = errors.New("place search unavailable")

	ErrSessionNotFound     = errors.New("session not found")
	ErrInvalidCoordinate   = errors.New("invalid coordinate")
	ErrMissingCoordinates  = errors.New("lat and lon are required")
	ErrEmptyBatch          = errors.New("items (list) is required")
	ErrMalformedGeocodeHit = errors.New("malformed geocoder payload")
)
