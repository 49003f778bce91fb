package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

// Postgres stores prediction history in scoring.predictions
// ⭐ SSOT: 예측 이력 DB 저장은 여기서만
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres creates a Postgres-backed store
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// Save inserts entries in one batch
func (p *Postgres) Save(ctx context.Context, entries ...Entry) error {
	if len(entries) == 0 {
		return nil
	}

	query := `
		INSERT INTO scoring.predictions (
			id, created_at, source, fingerprint, record,
			probability, prediction, label, threshold
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	batch := &pgx.Batch{}
	for _, e := range entries {
		recordJSON, err := json.Marshal(e.Record)
		if err != nil {
			return fmt.Errorf("failed to marshal record: %w", err)
		}
		batch.Queue(query,
			e.ID, e.CreatedAt, e.Source, e.Fingerprint, recordJSON,
			e.Result.Probability, e.Result.Prediction, string(e.Result.Label), e.Result.Threshold,
		)
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to save predictions: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first
func (p *Postgres) Recent(ctx context.Context, limit int) ([]Entry, error) {
	query := `
		SELECT id, created_at, source, fingerprint, record,
		       probability, prediction, label, threshold
		FROM scoring.predictions
		ORDER BY created_at DESC
		LIMIT $1
	`

	rows, err := p.pool.Query(ctx, query, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query predictions: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0)
	for rows.Next() {
		var e Entry
		var recordJSON []byte
		var label string

		if err := rows.Scan(
			&e.ID, &e.CreatedAt, &e.Source, &e.Fingerprint, &recordJSON,
			&e.Result.Probability, &e.Result.Prediction, &label, &e.Result.Threshold,
		); err != nil {
			return nil, fmt.Errorf("failed to scan prediction: %w", err)
		}

		if err := json.Unmarshal(recordJSON, &e.Record); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record: %w", err)
		}
		e.Result.Label = contracts.Label(label)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// DeleteOlderThan prunes entries created before cutoff
func (p *Postgres) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := p.pool.Exec(ctx, `DELETE FROM scoring.predictions WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune predictions: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Summary counts stored predictions per label and attaches the latest entries
func (p *Postgres) Summary(ctx context.Context, recent int) (Summary, error) {
	if recent <= 0 {
		recent = SummaryRecent
	}

	rows, err := p.pool.Query(ctx, `
		SELECT label, COUNT(*)
		FROM scoring.predictions
		GROUP BY label
	`)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize predictions: %w", err)
	}
	defer rows.Close()

	var sum Summary
	for rows.Next() {
		var label string
		var n int64
		if err := rows.Scan(&label, &n); err != nil {
			return Summary{}, fmt.Errorf("failed to scan summary: %w", err)
		}
		sum.add(contracts.Label(label), n)
	}
	if err := rows.Err(); err != nil {
		return Summary{}, err
	}

	sum.Recent, err = p.Recent(ctx, recent)
	if err != nil {
		return Summary{}, err
	}
	return sum, nil
}
