package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/samirrijal/riskmap/internal/core/domain"
)

// CheckpointEventRepo implements ports.CheckpointEventRepository.
type CheckpointEventRepo struct {
	db *DB
}

func NewCheckpointEventRepo(db *DB) *CheckpointEventRepo {
	return &CheckpointEventRepo{db: db}
}

func (r *CheckpointEventRepo) Insert(ctx context.Context, e *domain.CheckpointEvent) error {
	err := r.db.Pool.QueryRow(ctx, `
		INSERT INTO checkpoint_events (observed_at, checkpoint_id, vehicle_id, location, is_suspicious, probability, risk_score, created_at)
		VALUES ($1, $2, $3, ST_SetSRID(ST_MakePoint($4, $5), 4326)::geography, $6, $7, $8, $9)
		RETURNING id
	`, e.Timestamp, nilIfEmpty(e.CheckpointID), nilIfEmpty(e.VehicleID),
		e.Longitude, e.Latitude, e.IsSuspicious == 1, e.Probability, e.RiskScore, e.CreatedAt,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("insert checkpoint event: %w", err)
	}
	return nil
}

func (r *CheckpointEventRepo) List(ctx context.Context, f domain.EventFilter) ([]domain.CheckpointEvent, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, observed_at, COALESCE(checkpoint_id, ''), COALESCE(vehicle_id, ''),
			ST_Y(location::geometry) AS lat,
			ST_X(location::geometry) AS lon,
			is_suspicious, probability, risk_score, created_at
		FROM checkpoint_events
		WHERE ($1 = false OR is_suspicious)
		  AND risk_score >= $2
		ORDER BY id DESC
		LIMIT $3 OFFSET $4
	`, f.OnlySuspicious, f.MinRisk, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("list checkpoint events: %w", err)
	}

	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CheckpointEvent, error) {
		var e domain.CheckpointEvent
		var suspicious bool
		err := row.Scan(&e.ID, &e.Timestamp, &e.CheckpointID, &e.VehicleID,
			&e.Latitude, &e.Longitude, &suspicious, &e.Probability, &e.RiskScore, &e.CreatedAt)
		if suspicious {
			e.IsSuspicious = 1
		}
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan checkpoint events: %w", err)
	}
	return events, nil
}

func (r *CheckpointEventRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM checkpoint_events`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count checkpoint events: %w", err)
	}
	return n, nil
}

func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
