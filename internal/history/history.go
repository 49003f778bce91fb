package history

import (
	"context"
	"embed"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/campaign-scorer/internal/contracts"
)

// Migrations holds the schema for the Postgres store
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations
const MigrationsDir = "migrations"

// Sources of a prediction
const (
	SourceSingle = "single"
	SourceBatch  = "batch"
	SourceStream = "stream"
)

// Entry is one persisted prediction
type Entry struct {
	ID          uuid.UUID                  `json:"id"`
	CreatedAt   time.Time                  `json:"created_at"`
	Source      string                     `json:"source"`
	Fingerprint string                     `json:"fingerprint"`
	Record      contracts.Record           `json:"record"`
	Result      contracts.PredictionResult `json:"result"`
}

// NewEntry stamps a prediction with a fresh ID and the current time
func NewEntry(source, fingerprint string, rec contracts.Record, res contracts.PredictionResult) Entry {
	return Entry{
		ID:          uuid.New(),
		CreatedAt:   time.Now().UTC(),
		Source:      source,
		Fingerprint: fingerprint,
		Record:      rec,
		Result:      res,
	}
}

// Store persists prediction history
// ⭐ SSOT: 예측 이력 저장/조회 인터페이스
type Store interface {
	Save(ctx context.Context, entries ...Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
	Summary(ctx context.Context, recent int) (Summary, error)
}

// SummaryRecent is the default number of latest entries in a Summary
const SummaryRecent = 10

// LabelCounts counts stored predictions per label
type LabelCounts struct {
	Yes int64 `json:"YES"`
	No  int64 `json:"NO"`
}

// Summary aggregates the stored predictions
type Summary struct {
	Total       int64       `json:"total"`
	Predictions LabelCounts `json:"predictions"`
	Recent      []Entry     `json:"recent"`
}

// add counts n predictions carrying label
func (s *Summary) add(label contracts.Label, n int64) {
	s.Total += n
	switch label {
	case contracts.LabelYes:
		s.Predictions.Yes += n
	case contracts.LabelNo:
		s.Predictions.No += n
	}
}

// MaxRecent caps Recent queries
const MaxRecent = 500

// ClampLimit bounds a requested page size to [1, MaxRecent]
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return 50
	case limit > MaxRecent:
		return MaxRecent
	default:
		return limit
	}
}
