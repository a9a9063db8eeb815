package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
)

// CatalogRepository handles categories, channels and VOD titles.
//
// All batch writes are upserts keyed by the provider's identifier: a
// re-fetched record fully replaces the previous row sharing its key while
// keeping the surrogate id, so guide entries hanging off a channel survive a
// resync. Records without a provider stream id insert as fresh rows.
type CatalogRepository struct {
	db  *sql.DB
	hub *Hub
}

// NewCatalogRepository creates a new CatalogRepository with the given database connection
func NewCatalogRepository(db *sql.DB, hub *Hub) *CatalogRepository {
	return &CatalogRepository{db: db, hub: hub}
}

// UpsertCategories writes a batch of categories in one transaction, keyed by
// (playlist, section, external id). Returns the number of records written.
func (r *CatalogRepository) UpsertCategories(categories []*models.Category) (int, error) {
	for _, category := range categories {
		if err := category.Validate(); err != nil {
			return 0, fmt.Errorf("validation failed: %w", err)
		}
	}

	query := `
		INSERT INTO categories (playlist_id, external_id, name, type)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (playlist_id, type, external_id) DO UPDATE SET
			name = excluded.name
	`

	err := inTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare category upsert: %w", err)
		}
		defer stmt.Close()

		for _, category := range categories {
			if _, err := stmt.Exec(category.PlaylistID, category.ExternalID, category.Name, category.Section); err != nil {
				return fmt.Errorf("failed to upsert category %q: %w", category.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return len(categories), nil
}

// CategoryByExternalID resolves a provider category id to the local row.
func (r *CatalogRepository) CategoryByExternalID(playlistID int64, section models.Section, externalID string) (*models.Category, error) {
	query := `
		SELECT id, playlist_id, external_id, name, type
		FROM categories
		WHERE playlist_id = ? AND type = ? AND external_id = ?
	`

	var category models.Category
	err := r.db.QueryRow(query, playlistID, section, externalID).Scan(
		&category.ID,
		&category.PlaylistID,
		&category.ExternalID,
		&category.Name,
		&category.Section,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan category: %w", err)
	}
	return &category, nil
}

// CategoriesBySection lists a playlist's categories for one section, ordered
// by name then id so upstream duplicate names keep a stable order.
func (r *CatalogRepository) CategoriesBySection(playlistID int64, section models.Section) ([]*models.Category, error) {
	query := `
		SELECT id, playlist_id, external_id, name, type
		FROM categories
		WHERE playlist_id = ? AND type = ?
		ORDER BY name, id
	`

	rows, err := r.db.Query(query, playlistID, section)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []*models.Category
	for rows.Next() {
		var category models.Category
		err := rows.Scan(
			&category.ID,
			&category.PlaylistID,
			&category.ExternalID,
			&category.Name,
			&category.Section,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, &category)
	}

	return categories, rows.Err()
}

// UpsertChannels writes a batch of channels in one transaction, keyed by the
// provider stream id. Surrogate ids survive the upsert, which keeps guide
// entries attached across resyncs. Returns the number of records written.
func (r *CatalogRepository) UpsertChannels(channels []*models.Channel) (int, error) {
	for _, channel := range channels {
		if err := channel.Validate(); err != nil {
			return 0, fmt.Errorf("validation failed: %w", err)
		}
	}

	query := `
		INSERT INTO channels (category_id, name, logo, stream_url, stream_id, epg_id)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (stream_id) DO UPDATE SET
			category_id = excluded.category_id,
			name = excluded.name,
			logo = excluded.logo,
			stream_url = excluded.stream_url,
			epg_id = excluded.epg_id
	`

	err := inTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare channel upsert: %w", err)
		}
		defer stmt.Close()

		for _, channel := range channels {
			_, err := stmt.Exec(
				channel.CategoryID,
				channel.Name,
				channel.Logo,
				channel.StreamURL,
				nullString(channel.StreamID),
				channel.EpgID,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert channel %q: %w", channel.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.hub.Publish(TopicChannels)
	return len(channels), nil
}

// UpsertVods writes a batch of VOD titles in one transaction, keyed by the
// provider stream id. Returns the number of records written.
func (r *CatalogRepository) UpsertVods(titles []*models.VodTitle) (int, error) {
	for _, title := range titles {
		if err := title.Validate(); err != nil {
			return 0, fmt.Errorf("validation failed: %w", err)
		}
	}

	query := `
		INSERT INTO vods (category_id, name, logo, stream_url, stream_id, rating, release_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (stream_id) DO UPDATE SET
			category_id = excluded.category_id,
			name = excluded.name,
			logo = excluded.logo,
			stream_url = excluded.stream_url,
			rating = excluded.rating,
			release_date = excluded.release_date
	`

	err := inTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare vod upsert: %w", err)
		}
		defer stmt.Close()

		for _, title := range titles {
			_, err := stmt.Exec(
				title.CategoryID,
				title.Name,
				title.Logo,
				title.StreamURL,
				nullString(title.StreamID),
				title.Rating,
				title.ReleaseDate,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert vod title %q: %w", title.Name, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.hub.Publish(TopicVods)
	return len(titles), nil
}

// ChannelsByCategory lists a category's channels ordered by name.
func (r *CatalogRepository) ChannelsByCategory(categoryID int64) ([]*models.Channel, error) {
	query := `
		SELECT id, category_id, name, logo, stream_url, stream_id, epg_id
		FROM channels
		WHERE category_id = ?
		ORDER BY name, id
	`

	return r.queryChannels(query, categoryID)
}

// AllChannels lists every channel in the store ordered by category then name.
func (r *CatalogRepository) AllChannels() ([]*models.Channel, error) {
	query := `
		SELECT id, category_id, name, logo, stream_url, stream_id, epg_id
		FROM channels
		ORDER BY category_id, name, id
	`

	return r.queryChannels(query)
}

// ChannelByStreamID retrieves a channel by its provider stream id.
func (r *CatalogRepository) ChannelByStreamID(streamID string) (*models.Channel, error) {
	query := `
		SELECT id, category_id, name, logo, stream_url, stream_id, epg_id
		FROM channels
		WHERE stream_id = ?
	`

	channels, err := r.queryChannels(query, streamID)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, shared.ErrNotFound
	}
	return channels[0], nil
}

// VodsByCategory lists a category's VOD titles ordered by name.
func (r *CatalogRepository) VodsByCategory(categoryID int64) ([]*models.VodTitle, error) {
	query := `
		SELECT id, category_id, name, logo, stream_url, stream_id, rating, release_date
		FROM vods
		WHERE category_id = ?
		ORDER BY name, id
	`

	rows, err := r.db.Query(query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query vod titles: %w", err)
	}
	defer rows.Close()

	var titles []*models.VodTitle
	for rows.Next() {
		var title models.VodTitle
		var streamID sql.NullString
		err := rows.Scan(
			&title.ID,
			&title.CategoryID,
			&title.Name,
			&title.Logo,
			&title.StreamURL,
			&streamID,
			&title.Rating,
			&title.ReleaseDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vod title: %w", err)
		}
		title.StreamID = streamID.String
		titles = append(titles, &title)
	}

	return titles, rows.Err()
}

// WatchChannels is the live-query form of [CatalogRepository.ChannelsByCategory]:
// the channel emits the current result immediately, then a fresh snapshot
// after every committed channel batch, until ctx is done.
func (r *CatalogRepository) WatchChannels(ctx context.Context, categoryID int64) <-chan []*models.Channel {
	return watch(ctx, r.hub, func() ([]*models.Channel, error) {
		return r.ChannelsByCategory(categoryID)
	}, TopicChannels)
}

// WatchVods is the live-query form of [CatalogRepository.VodsByCategory].
func (r *CatalogRepository) WatchVods(ctx context.Context, categoryID int64) <-chan []*models.VodTitle {
	return watch(ctx, r.hub, func() ([]*models.VodTitle, error) {
		return r.VodsByCategory(categoryID)
	}, TopicVods)
}

func (r *CatalogRepository) queryChannels(query string, args ...any) ([]*models.Channel, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []*models.Channel
	for rows.Next() {
		var channel models.Channel
		var streamID sql.NullString
		err := rows.Scan(
			&channel.ID,
			&channel.CategoryID,
			&channel.Name,
			&channel.Logo,
			&channel.StreamURL,
			&streamID,
			&channel.EpgID,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channel.StreamID = streamID.String
		channels = append(channels, &channel)
	}

	return channels, rows.Err()
}

// nullString maps an empty provider id to NULL so the unique index ignores it.
func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
