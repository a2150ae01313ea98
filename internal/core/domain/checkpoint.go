package domain

import "time"

// FeatureColumns is the order in which checkpoint features are fed to a risk model.
var FeatureColumns = []string{
	"Speed",
	"Acceleration",
	"laneChange",
	"PastHistory",
	"latitude",
	"longitude",
	"is_high_speed",
	"speed_lane_interaction",
	"is_sudden",
	"combined_risk",
}

// PredictRequest is one vehicle observation at a checkpoint.
type PredictRequest struct {
	CheckpointID string             `json:"checkpoint_id,omitempty"`
	VehicleID    string             `json:"vehicle_id,omitempty"`
	Latitude     *float64           `json:"latitude"`
	Longitude    *float64           `json:"longitude"`
	Timestamp    string             `json:"timestamp,omitempty"`
	Features     map[string]float64 `json:"features,omitempty"`
}

// Prediction is a risk model verdict.
type Prediction struct {
	IsSuspicious int     `json:"is_suspicious"`
	Probability  float64 `json:"probability"`
	RiskScore    int     `json:"risk_score"`
}

// CheckpointEvent is a scored observation pinned on the map.
type CheckpointEvent struct {
	ID           int64     `json:"id"`
	Timestamp    string    `json:"timestamp"`
	CheckpointID string    `json:"checkpoint_id,omitempty"`
	VehicleID    string    `json:"vehicle_id,omitempty"`
	Latitude     float64   `json:"latitude"`
	Longitude    float64   `json:"longitude"`
	IsSuspicious int       `json:"is_suspicious"`
	Probability  float64   `json:"probability"`
	RiskScore    int       `json:"risk_score"`
	CreatedAt    time.Time `json:"created_at"`
}

// BatchResult is one scored item of a batch prediction.
type BatchResult struct {
	CheckpointID string  `json:"checkpoint_id,omitempty"`
	VehicleID    string  `json:"vehicle_id,omitempty"`
	Lat          float64 `json:"lat"`
	Lon          float64 `json:"lon"`
	IsSuspicious int     `json:"is_suspicious"`
	Probability  float64 `json:"probability"`
	RiskScore    int     `json:"risk_score"`
}

// EventFilter selects checkpoint events, newest first.
type EventFilter struct {
	OnlySuspicious bool
	MinRisk        int
	Offset         int
	Limit          int
}

// CheckpointStatus reports model readiness and cached event count.
type CheckpointStatus struct {
	OK           bool   `json:"ok"`
	ModelReady   bool   `json:"model_ready"`
	ModelPath    string `json:"model_path"`
	EventsCached int    `json:"events_cached"`
}
