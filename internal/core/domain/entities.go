package domain

import "time"

// RiskPoint is a synthetic coordinate generated around a selection.
type RiskPoint struct {
	Coordinate
}

// BandTier names one of the three radius bands.
type BandTier string

const (
	TierNear BandTier = "near"
	TierMid  BandTier = "mid"
	TierFar  BandTier = "far"
)

// CircleStyle is the visual style of a circle overlay.
type CircleStyle struct {
	StrokeColor   string  `json:"stroke_color"`
	StrokeOpacity float64 `json:"stroke_opacity"`
	StrokeWeight  float64 `json:"stroke_weight"`
	FillColor     string  `json:"fill_color"`
	FillOpacity   float64 `json:"fill_opacity"`
	ZIndex        int     `json:"z_index"`
	Clickable     bool    `json:"clickable"`
	Draggable     bool    `json:"draggable"`
	Editable      bool    `json:"editable"`
	Visible       bool    `json:"visible"`
}

// RadiusBand is a circular zone of interest centred on the selection.
type RadiusBand struct {
	Center       Coordinate  `json:"center"`
	RadiusMeters float64     `json:"radius_meters"`
	Tier         BandTier    `json:"tier"`
	Style        CircleStyle `json:"style"`
}

// MarkerKind distinguishes risk dots from the selected-hotspot pin.
type MarkerKind string

const (
	MarkerRisk      MarkerKind = "risk"
	MarkerSelection MarkerKind = "selection"
)

// MarkerStyle is the visual style of a point marker.
type MarkerStyle struct {
	Kind        MarkerKind `json:"kind"`
	Scale       float64    `json:"scale"`
	FillColor   string     `json:"fill_color,omitempty"`
	FillOpacity float64    `json:"fill_opacity"`
	StrokeWidth float64    `json:"stroke_weight"`
	Clickable   bool       `json:"clickable"`
}

// BadgeLabel is the text drawn inside a cluster badge.
type BadgeLabel struct {
	Text       string `json:"text"`
	Color      string `json:"color"`
	FontSize   string `json:"font_size"`
	FontWeight string `json:"font_weight"`
}

// ClusterBadge is the aggregate marker drawn for a group of markers.
type ClusterBadge struct {
	Position     Coordinate `json:"position"`
	Count        int        `json:"count"`
	Label        BadgeLabel `json:"label"`
	FillColor    string     `json:"fill_color"`
	FillOpacity  float64    `json:"fill_opacity"`
	StrokeColor  string     `json:"stroke_color"`
	StrokeWeight float64    `json:"stroke_weight"`
	Scale        float64    `json:"scale"`
	ZIndex       int        `json:"z_index"`
}

// MarkerView is a drawn marker as reported by a renderer snapshot.
type MarkerView struct {
	ID       string      `json:"id"`
	Position Coordinate  `json:"position"`
	Style    MarkerStyle `json:"style"`
	Visible  bool        `json:"visible"`
}

// MapSnapshot is everything a renderer currently draws.
type MapSnapshot struct {
	Viewport  Viewport       `json:"viewport"`
	Markers   []MarkerView   `json:"markers"`
	Selection *MarkerView    `json:"selection,omitempty"`
	Circles   []RadiusBand   `json:"circles"`
	Badges    []ClusterBadge `json:"badges"`
}

// SyncState names the synchronizer lifecycle states.
type SyncState string

const (
	StateUnready          SyncState = "unready"
	StateReadyNoSelection SyncState = "ready_no_selection"
	StateReadySelected    SyncState = "ready_selected"
)

// SelectionState is the synchronizer's view of the current selection.
type SelectionState struct {
	State       SyncState    `json:"state"`
	Selected    *Coordinate  `json:"selected,omitempty"`
	Bands       []RadiusBand `json:"bands"`
	RiskPoints  int          `json:"risk_points"`
	LiveMarkers int          `json:"live_markers"`
	Sequence    uint64       `json:"sequence"`
}

// Scene is the full state of one map session.
type Scene struct {
	SessionID string         `json:"session_id"`
	Prompt    string         `json:"prompt,omitempty"`
	Selection SelectionState `json:"selection"`
	Map       MapSnapshot    `json:"map"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Candidate is one place suggestion returned by a geocoder.
type Candidate struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}
