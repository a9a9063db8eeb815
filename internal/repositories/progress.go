package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
)

// WatchProgressRepository stores playback positions keyed by provider stream
// id. Progress rows sit outside the cascade graph on purpose: a resync that
// rebuilds the catalog must not lose where the user stopped watching.
type WatchProgressRepository struct {
	db  *sql.DB
	hub *Hub
}

// NewWatchProgressRepository creates a new WatchProgressRepository with the given database connection
func NewWatchProgressRepository(db *sql.DB, hub *Hub) *WatchProgressRepository {
	return &WatchProgressRepository{db: db, hub: hub}
}

// Save records the playback position for a stream, replacing any earlier
// position for the same stream id and stamping the watch time.
func (r *WatchProgressRepository) Save(progress *models.WatchProgress) error {
	if err := progress.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if progress.LastWatched.IsZero() {
		progress.LastWatched = time.Now()
	}

	query := `
		INSERT INTO watch_progress (stream_id, type, progress_ms, duration_ms, last_watched)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (stream_id) DO UPDATE SET
			type = excluded.type,
			progress_ms = excluded.progress_ms,
			duration_ms = excluded.duration_ms,
			last_watched = excluded.last_watched
	`

	_, err := r.db.Exec(query,
		progress.StreamID,
		progress.Kind,
		progress.PositionMs,
		progress.DurationMs,
		progress.LastWatched,
	)
	if err != nil {
		return fmt.Errorf("failed to save watch progress: %w", err)
	}

	r.hub.Publish(TopicProgress)
	return nil
}

// Get retrieves the stored position for a stream id.
func (r *WatchProgressRepository) Get(streamID string) (*models.WatchProgress, error) {
	query := `
		SELECT id, stream_id, type, progress_ms, duration_ms, last_watched
		FROM watch_progress
		WHERE stream_id = ?
	`

	var progress models.WatchProgress
	err := r.db.QueryRow(query, streamID).Scan(
		&progress.ID,
		&progress.StreamID,
		&progress.Kind,
		&progress.PositionMs,
		&progress.DurationMs,
		&progress.LastWatched,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan watch progress: %w", err)
	}
	return &progress, nil
}

// List returns all stored positions, most recently watched first.
func (r *WatchProgressRepository) List() ([]*models.WatchProgress, error) {
	query := `
		SELECT id, stream_id, type, progress_ms, duration_ms, last_watched
		FROM watch_progress
		ORDER BY last_watched DESC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch progress: %w", err)
	}
	defer rows.Close()

	var entries []*models.WatchProgress
	for rows.Next() {
		var progress models.WatchProgress
		err := rows.Scan(
			&progress.ID,
			&progress.StreamID,
			&progress.Kind,
			&progress.PositionMs,
			&progress.DurationMs,
			&progress.LastWatched,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch progress: %w", err)
		}
		entries = append(entries, &progress)
	}

	return entries, rows.Err()
}

// Delete removes the stored position for a stream id.
func (r *WatchProgressRepository) Delete(streamID string) error {
	result, err := r.db.Exec(`DELETE FROM watch_progress WHERE stream_id = ?`, streamID)
	if err != nil {
		return fmt.Errorf("failed to delete watch progress: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("watch progress %q: %w", streamID, shared.ErrNotFound)
	}

	r.hub.Publish(TopicProgress)
	return nil
}

// WatchAll is the live-query form of [WatchProgressRepository.List].
func (r *WatchProgressRepository) WatchAll(ctx context.Context) <-chan []*models.WatchProgress {
	return watch(ctx, r.hub, r.List, TopicProgress)
}
