package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
)

// PlaylistRepository handles the root entities of the cascade graph.
// Deleting a playlist removes its categories, channels, VOD titles and
// guide entries in one statement via foreign-key cascades.
type PlaylistRepository struct {
	db  *sql.DB
	hub *Hub
}

// NewPlaylistRepository creates a new PlaylistRepository with the given database connection
func NewPlaylistRepository(db *sql.DB, hub *Hub) *PlaylistRepository {
	return &PlaylistRepository{db: db, hub: hub}
}

// Create inserts a new playlist and fills in its generated ID.
func (r *PlaylistRepository) Create(playlist *models.Playlist) error {
	if playlist.Kind == "" {
		playlist.Kind = models.KindProviderAPI
	}
	if err := playlist.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if playlist.LastSyncedAt.IsZero() {
		playlist.LastSyncedAt = time.Now()
	}

	query := `
		INSERT INTO playlists (name, source_url, kind, expires_at, last_synced_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		playlist.Name,
		playlist.SourceURL,
		playlist.Kind,
		playlist.ExpiresAt,
		playlist.LastSyncedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get playlist id: %w", err)
	}
	playlist.ID = id

	return nil
}

// Get retrieves a playlist by ID.
func (r *PlaylistRepository) Get(id int64) (*models.Playlist, error) {
	query := `
		SELECT id, name, source_url, kind, expires_at, last_synced_at
		FROM playlists
		WHERE id = ?
	`

	return r.scanOne(r.db.QueryRow(query, id))
}

// GetByName retrieves a playlist by its display name.
func (r *PlaylistRepository) GetByName(name string) (*models.Playlist, error) {
	query := `
		SELECT id, name, source_url, kind, expires_at, last_synced_at
		FROM playlists
		WHERE name = ?
		ORDER BY id
		LIMIT 1
	`

	return r.scanOne(r.db.QueryRow(query, name))
}

// List returns all playlists ordered by id.
func (r *PlaylistRepository) List() ([]*models.Playlist, error) {
	query := `
		SELECT id, name, source_url, kind, expires_at, last_synced_at
		FROM playlists
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query playlists: %w", err)
	}
	defer rows.Close()

	var playlists []*models.Playlist
	for rows.Next() {
		playlist, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	return playlists, rows.Err()
}

// TouchSynced stamps the playlist's last successful sync time.
func (r *PlaylistRepository) TouchSynced(id int64, at time.Time) error {
	result, err := r.db.Exec(`UPDATE playlists SET last_synced_at = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist %d: %w", id, shared.ErrNotFound)
	}

	return nil
}

// Delete removes a playlist and, through cascades, every category, channel,
// VOD title and guide entry that hangs off it. Watch progress is untouched.
func (r *PlaylistRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM playlists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("playlist %d: %w", id, shared.ErrNotFound)
	}

	r.hub.Publish(TopicChannels, TopicVods, TopicGuide)
	return nil
}

func (r *PlaylistRepository) scanOne(row *sql.Row) (*models.Playlist, error) {
	var playlist models.Playlist
	err := row.Scan(
		&playlist.ID,
		&playlist.Name,
		&playlist.SourceURL,
		&playlist.Kind,
		&playlist.ExpiresAt,
		&playlist.LastSyncedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &playlist, nil
}

func (r *PlaylistRepository) scanRow(rows *sql.Rows) (*models.Playlist, error) {
	var playlist models.Playlist
	err := rows.Scan(
		&playlist.ID,
		&playlist.Name,
		&playlist.SourceURL,
		&playlist.Kind,
		&playlist.ExpiresAt,
		&playlist.LastSyncedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan playlist: %w", err)
	}
	return &playlist, nil
}
