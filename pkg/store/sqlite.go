package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"podsumgo/pkg/db"
	"podsumgo/pkg/model"
)

// Store defines the repository interface.
// It composes all sub-interfaces for full store access.
// Consumers should depend on specific sub-interfaces when possible.
type Store interface {
	SummaryStore
	UsageStore

	// Close closes the store connection.
	Close() error
}

// SQLiteStore implements Store.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a new store.
func NewSQLiteStore(db *db.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Summaries ---

func (s *SQLiteStore) SaveSummary(ctx context.Context, rec *model.SummaryRecord) error {
	episodeJSON, _ := json.Marshal(rec.Episode)
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	// Replace keeps episode_id unique while regenerations get a fresh id
	query := `INSERT INTO summaries (id, episode_id, content, format, length, character_count, episode, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			  ON CONFLICT(episode_id) DO UPDATE SET
			  id=excluded.id,
			  content=excluded.content,
			  format=excluded.format,
			  length=excluded.length,
			  character_count=excluded.character_count,
			  episode=excluded.episode,
			  created_at=excluded.created_at`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.EpisodeID, rec.Content, string(rec.Format), string(rec.Length),
		rec.CharacterCount, string(episodeJSON), createdAt,
	)
	return err
}

func (s *SQLiteStore) GetSummary(ctx context.Context, episodeID string) (*model.SummaryRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, episode_id, content, format, length, character_count, episode, created_at
		 FROM summaries WHERE episode_id = ?`, episodeID)

	rec, err := scanSummary(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Not found
		}
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) ListSummaries(ctx context.Context) ([]*model.SummaryRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, episode_id, content, format, length, character_count, episode, created_at
		 FROM summaries ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*model.SummaryRecord
	for rows.Next() {
		rec, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, rec)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) DeleteSummary(ctx context.Context, episodeID string) (bool, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM summaries WHERE episode_id = ?", episodeID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSummary(row rowScanner) (*model.SummaryRecord, error) {
	var rec model.SummaryRecord
	var format, length string
	var episodeJSON sql.NullString

	err := row.Scan(&rec.ID, &rec.EpisodeID, &rec.Content, &format, &length,
		&rec.CharacterCount, &episodeJSON, &rec.CreatedAt)
	if err != nil {
		return nil, err
	}

	rec.Format = model.Format(format)
	rec.Length = model.Length(length)
	if episodeJSON.Valid && episodeJSON.String != "" {
		_ = json.Unmarshal([]byte(episodeJSON.String), &rec.Episode)
	}
	return &rec, nil
}

// --- Usage ---

func (s *SQLiteStore) RecordUsage(ctx context.Context, rec *UsageRecord) error {
	query := `INSERT INTO usage (provider, requests, failures, input_chars, output_chars)
			  VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		rec.Provider, rec.Requests, rec.Failures, rec.InputChars, rec.OutputChars)
	return err
}

func (s *SQLiteStore) GetUsage(ctx context.Context) ([]*UsageRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, SUM(requests), SUM(failures), SUM(input_chars), SUM(output_chars)
		 FROM usage GROUP BY provider ORDER BY provider`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*UsageRecord
	for rows.Next() {
		var r UsageRecord
		if err := rows.Scan(&r.Provider, &r.Requests, &r.Failures, &r.InputChars, &r.OutputChars); err != nil {
			return nil, err
		}
		results = append(results, &r)
	}
	return results, rows.Err()
}
