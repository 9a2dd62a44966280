// Package datastore persists squashed changesets locally. This is the
// persistence collaborator the coordinator hands its squash output to.
package datastore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/absmartly/domeditor/internal/common"
	"github.com/absmartly/domeditor/internal/config"
	"github.com/absmartly/domeditor/internal/models"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// ChangesetStore wraps the SQL database holding saved changesets keyed by
// experiment id.
type ChangesetStore struct {
	db     *sql.DB
	logger zerolog.Logger
}

// NewChangesetStore initializes the database connection and ensures the
// schema is set up.
func NewChangesetStore(cfg config.StorageConfig, logger zerolog.Logger) (*ChangesetStore, error) {
	if cfg.DatabasePath == "" {
		return nil, common.NewValidationError("database_path", cfg.DatabasePath, "database path is not configured")
	}

	dbDir := filepath.Dir(cfg.DatabasePath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, common.WrapErrorf(err, "failed to create database directory %s", dbDir)
	}

	dbInstance, err := sql.Open("sqlite", cfg.DatabasePath)
	if err != nil {
		return nil, common.WrapErrorf(err, "sql.Open failed for %s", cfg.DatabasePath)
	}

	store := &ChangesetStore{
		db:     dbInstance,
		logger: logger.With().Str("component", "ChangesetStore").Logger(),
	}

	if err := store.initSchema(); err != nil {
		store.Close()
		return nil, common.WrapError(err, "failed to initialize schema")
	}

	store.logger.Info().Str("db_path", cfg.DatabasePath).Msg("Changeset store initialized")
	return store, nil
}

// Close closes the database connection.
func (s *ChangesetStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *ChangesetStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS changesets (
		experiment_id TEXT PRIMARY KEY,
		changes_json TEXT NOT NULL,
		change_count INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Save upserts the squashed changeset for an experiment.
func (s *ChangesetStore) Save(ctx context.Context, experimentID string, changes []models.Change) error {
	if experimentID == "" {
		return common.NewValidationError("experiment_id", experimentID, "experiment id must not be empty")
	}

	payload, err := json.Marshal(changes)
	if err != nil {
		return common.WrapError(err, "failed to marshal changeset")
	}

	query := `
	INSERT INTO changesets (experiment_id, changes_json, change_count, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(experiment_id) DO UPDATE SET
		changes_json = excluded.changes_json,
		change_count = excluded.change_count,
		updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, experimentID, string(payload), len(changes), time.Now().UTC()); err != nil {
		return common.WrapErrorf(err, "failed to save changeset for experiment %q", experimentID)
	}

	s.logger.Info().
		Str("experiment_id", experimentID).
		Int("change_count", len(changes)).
		Msg("Saved changeset")
	return nil
}

// Load reads the changeset saved for an experiment. A missing experiment
// returns common.ErrNotFound.
func (s *ChangesetStore) Load(ctx context.Context, experimentID string) ([]models.Change, error) {
	var payload string
	query := `SELECT changes_json FROM changesets WHERE experiment_id = ?`
	err := s.db.QueryRowContext(ctx, query, experimentID).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.WrapErrorf(common.ErrNotFound, "no changeset for experiment %q", experimentID)
	}
	if err != nil {
		return nil, common.WrapErrorf(err, "failed to load changeset for experiment %q", experimentID)
	}

	var changes []models.Change
	if err := json.Unmarshal([]byte(payload), &changes); err != nil {
		return nil, common.WrapErrorf(err, "failed to unmarshal changeset for experiment %q", experimentID)
	}
	return changes, nil
}

// ListExperiments returns the ids of all saved changesets, most recently
// updated first.
func (s *ChangesetStore) ListExperiments(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT experiment_id FROM changesets ORDER BY updated_at DESC`)
	if err != nil {
		return nil, common.WrapError(err, "failed to list changesets")
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, common.WrapError(err, "failed to scan changeset row")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// Delete removes the changeset saved for an experiment.
func (s *ChangesetStore) Delete(ctx context.Context, experimentID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM changesets WHERE experiment_id = ?`, experimentID); err != nil {
		return common.WrapErrorf(err, "failed to delete changeset for experiment %q", experimentID)
	}
	return nil
}
