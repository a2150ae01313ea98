package natsadapter

import "strings"

const (
	SubjectScenesAll      = "riskmap.sessions.*.scene"
	SubjectCheckpointsAll = "riskmap.checkpoints.>"

	unknownVehicle = "unknown"
)

// SceneSubject is where a session's scenes are published.
func SceneSubject(sessionID string) string {
	return "riskmap.sessions." + token(sessionID, "_") + ".scene"
}

// CheckpointSubject is where a vehicle's checkpoint events are published.
func CheckpointSubject(vehicleID string) string {
	return "riskmap.checkpoints." + token(vehicleID, unknownVehicle)
}

// token makes s safe as a single subject token: no separators, wildcards or spaces.
func token(s, fallback string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\r', '\n':
			return '_'
		}
		return r
	}, s)
	if s == "" {
		return fallback
	}
	return s
}
