package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PredictionRepository handles prediction history operations.
type PredictionRepository struct {
	pool *pgxpool.Pool
}

// Create inserts a prediction. A zero ID is replaced with a new UUID and
// CreatedAt is set from the database clock.
func (r *PredictionRepository) Create(ctx context.Context, p *Prediction) error {
	query := `
		INSERT INTO predictions (id, feature_a, value_a, feature_b, value_b, cluster_id, description, track_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING created_at
	`
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	err := r.pool.QueryRow(ctx, query,
		p.ID,
		p.FeatureA,
		p.ValueA,
		p.FeatureB,
		p.ValueB,
		p.ClusterID,
		p.Description,
		p.TrackID,
	).Scan(&p.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting prediction: %w", err)
	}
	return nil
}

// Get retrieves a prediction by ID.
func (r *PredictionRepository) Get(ctx context.Context, id uuid.UUID) (*Prediction, error) {
	query := `
		SELECT id, feature_a, value_a, feature_b, value_b, cluster_id, description, track_id, created_at
		FROM predictions
		WHERE id = $1
	`
	p, err := scanPrediction(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying prediction: %w", err)
	}
	return p, nil
}

// Recent returns the latest predictions, newest first.
func (r *PredictionRepository) Recent(ctx context.Context, limit int) ([]Prediction, error) {
	query := `
		SELECT id, feature_a, value_a, feature_b, value_b, cluster_id, description, track_id, created_at
		FROM predictions
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("querying predictions: %w", err)
	}
	defer rows.Close()

	var predictions []Prediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning prediction: %w", err)
		}
		predictions = append(predictions, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating predictions: %w", err)
	}
	return predictions, nil
}

// CountByCluster returns how many predictions landed in each cluster.
func (r *PredictionRepository) CountByCluster(ctx context.Context) ([]ClusterCount, error) {
	query := `
		SELECT cluster_id, COUNT(*)
		FROM predictions
		GROUP BY cluster_id
		ORDER BY cluster_id
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("counting predictions: %w", err)
	}
	defer rows.Close()

	var counts []ClusterCount
	for rows.Next() {
		var c ClusterCount
		if err := rows.Scan(&c.ClusterID, &c.Count); err != nil {
			return nil, fmt.Errorf("scanning cluster count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cluster counts: %w", err)
	}
	return counts, nil
}

// scanPrediction scans a single prediction row.
func scanPrediction(row pgx.Row) (*Prediction, error) {
	var p Prediction
	err := row.Scan(
		&p.ID,
		&p.FeatureA,
		&p.ValueA,
		&p.FeatureB,
		&p.ValueB,
		&p.ClusterID,
		&p.Description,
		&p.TrackID,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
