package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
)

// EpgRepository handles program-guide entries. Entries are owned by exactly
// one channel and keyed by (channel, start time); upstream data may overlap
// or leave gaps and queries never assume otherwise.
type EpgRepository struct {
	db  *sql.DB
	hub *Hub
}

// NewEpgRepository creates a new EpgRepository with the given database connection
func NewEpgRepository(db *sql.DB, hub *Hub) *EpgRepository {
	return &EpgRepository{db: db, hub: hub}
}

// UpsertPrograms writes a batch of guide entries in one transaction, keyed
// by (channel, start time). Returns the number of records written.
func (r *EpgRepository) UpsertPrograms(programs []*models.EpgProgram) (int, error) {
	for _, program := range programs {
		if err := program.Validate(); err != nil {
			return 0, fmt.Errorf("validation failed: %w", err)
		}
	}

	query := `
		INSERT INTO epg_programs (channel_id, title, description, start_time, end_time)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (channel_id, start_time) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			end_time = excluded.end_time
	`

	err := inTx(r.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(query)
		if err != nil {
			return fmt.Errorf("failed to prepare program upsert: %w", err)
		}
		defer stmt.Close()

		for _, program := range programs {
			_, err := stmt.Exec(
				program.ChannelID,
				program.Title,
				program.Description,
				program.StartTime,
				program.EndTime,
			)
			if err != nil {
				return fmt.Errorf("failed to upsert program %q: %w", program.Title, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	r.hub.Publish(TopicGuide)
	return len(programs), nil
}

// EvictExpired deletes every guide entry that ended strictly before asOf.
// An entry ending exactly at asOf is still current and stays. Returns the
// number of entries removed.
func (r *EpgRepository) EvictExpired(asOf int64) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM epg_programs WHERE end_time < ?`, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to evict programs: %w", err)
	}

	evicted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	if evicted > 0 {
		r.hub.Publish(TopicGuide)
	}
	return evicted, nil
}

// CurrentProgram returns the entry airing on the channel at the given time.
// Both boundaries count as airing; when overlapping entries both cover the
// instant, the latest-starting one wins.
func (r *EpgRepository) CurrentProgram(channelID int64, at int64) (*models.EpgProgram, error) {
	query := `
		SELECT id, channel_id, title, description, start_time, end_time
		FROM epg_programs
		WHERE channel_id = ? AND start_time <= ? AND end_time >= ?
		ORDER BY start_time DESC
		LIMIT 1
	`

	var program models.EpgProgram
	err := r.db.QueryRow(query, channelID, at, at).Scan(
		&program.ID,
		&program.ChannelID,
		&program.Title,
		&program.Description,
		&program.StartTime,
		&program.EndTime,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan program: %w", err)
	}
	return &program, nil
}

// UpcomingPrograms lists entries on the channel that have not yet ended at
// the given time, soonest first. A zero limit means no cap.
func (r *EpgRepository) UpcomingPrograms(channelID int64, after int64, limit int) ([]*models.EpgProgram, error) {
	query := `
		SELECT id, channel_id, title, description, start_time, end_time
		FROM epg_programs
		WHERE channel_id = ? AND end_time > ?
		ORDER BY start_time
	`
	args := []any{channelID, after}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	return r.queryPrograms(query, args...)
}

// ProgramsForChannel lists every stored entry for the channel in start order.
func (r *EpgRepository) ProgramsForChannel(channelID int64) ([]*models.EpgProgram, error) {
	query := `
		SELECT id, channel_id, title, description, start_time, end_time
		FROM epg_programs
		WHERE channel_id = ?
		ORDER BY start_time
	`

	return r.queryPrograms(query, channelID)
}

// ChannelsWithPrograms joins a category's channels with their guide entries,
// channels ordered by name and entries by start time. Channels with an empty
// guide appear with no entries rather than being dropped.
func (r *EpgRepository) ChannelsWithPrograms(categoryID int64) ([]*models.ChannelWithPrograms, error) {
	query := `
		SELECT c.id, c.category_id, c.name, c.logo, c.stream_url, c.stream_id, c.epg_id,
			p.id, p.title, p.description, p.start_time, p.end_time
		FROM channels c
		LEFT JOIN epg_programs p ON p.channel_id = c.id
		WHERE c.category_id = ?
		ORDER BY c.name, c.id, p.start_time
	`

	rows, err := r.db.Query(query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to query channel guide: %w", err)
	}
	defer rows.Close()

	var joined []*models.ChannelWithPrograms
	byChannel := make(map[int64]*models.ChannelWithPrograms)

	for rows.Next() {
		var channel models.Channel
		var streamID sql.NullString
		var programID sql.NullInt64
		var title, description sql.NullString
		var startTime, endTime sql.NullInt64

		err := rows.Scan(
			&channel.ID,
			&channel.CategoryID,
			&channel.Name,
			&channel.Logo,
			&channel.StreamURL,
			&streamID,
			&channel.EpgID,
			&programID,
			&title,
			&description,
			&startTime,
			&endTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel guide row: %w", err)
		}
		channel.StreamID = streamID.String

		entry, ok := byChannel[channel.ID]
		if !ok {
			entry = &models.ChannelWithPrograms{Channel: channel}
			byChannel[channel.ID] = entry
			joined = append(joined, entry)
		}

		if programID.Valid {
			entry.Programs = append(entry.Programs, models.EpgProgram{
				ID:          programID.Int64,
				ChannelID:   channel.ID,
				Title:       title.String,
				Description: description.String,
				StartTime:   startTime.Int64,
				EndTime:     endTime.Int64,
			})
		}
	}

	return joined, rows.Err()
}

// WatchGuide is the live-query form of [EpgRepository.ChannelsWithPrograms]:
// the channel emits the current joined view immediately, then a fresh
// snapshot after every committed channel or guide batch, until ctx is done.
func (r *EpgRepository) WatchGuide(ctx context.Context, categoryID int64) <-chan []*models.ChannelWithPrograms {
	return watch(ctx, r.hub, func() ([]*models.ChannelWithPrograms, error) {
		return r.ChannelsWithPrograms(categoryID)
	}, TopicChannels, TopicGuide)
}

func (r *EpgRepository) queryPrograms(query string, args ...any) ([]*models.EpgProgram, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query programs: %w", err)
	}
	defer rows.Close()

	var programs []*models.EpgProgram
	for rows.Next() {
		var program models.EpgProgram
		err := rows.Scan(
			&program.ID,
			&program.ChannelID,
			&program.Title,
			&program.Description,
			&program.StartTime,
			&program.EndTime,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, &program)
	}

	return programs, rows.Err()
}
