package store

import (
	"context"

	"podsumgo/pkg/model"
)

// SummaryStore handles persisted episode summaries.
type SummaryStore interface {
	// SaveSummary inserts or replaces the record keyed on episode id.
	SaveSummary(ctx context.Context, rec *model.SummaryRecord) error
	// GetSummary returns nil without error when no record exists.
	GetSummary(ctx context.Context, episodeID string) (*model.SummaryRecord, error)
	// ListSummaries returns all records, newest first.
	ListSummaries(ctx context.Context) ([]*model.SummaryRecord, error)
	// DeleteSummary reports whether a record existed.
	DeleteSummary(ctx context.Context, episodeID string) (bool, error)
}

// UsageRecord is one aggregated usage row per provider.
type UsageRecord struct {
	Provider    string `json:"provider"`
	Requests    int64  `json:"requests"`
	Failures    int64  `json:"failures"`
	InputChars  int64  `json:"inputChars"`
	OutputChars int64  `json:"outputChars"`
}

// UsageStore persists provider usage counters across restarts.
type UsageStore interface {
	RecordUsage(ctx context.Context, rec *UsageRecord) error
	GetUsage(ctx context.Context) ([]*UsageRecord, error)
}
