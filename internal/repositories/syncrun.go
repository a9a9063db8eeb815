package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
)

// SyncRunRepository handles sync-run bookkeeping with status tracking.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Create inserts a new sync run into the database with generated ID and sequence
func (r *SyncRunRepository) Create(run *models.SyncRun) error {
	sequence, err := NextSequence(r.db, "sync_runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.ID = shared.GenerateID()
	run.Sequence = sequence

	now := time.Now()
	if run.StartedAt.IsZero() {
		run.StartedAt = now
	}
	if run.Status == "" {
		run.Status = models.RunPending
	}
	run.CreatedAt = now
	run.UpdatedAt = now

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO sync_runs (
			id, sequence, section, status, categories_total, categories_failed,
			records_upserted, error_message, started_at, completed_at,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID,
		run.Sequence,
		run.Section,
		run.Status,
		run.CategoriesTotal,
		run.CategoriesFailed,
		run.RecordsUpserted,
		run.ErrorMessage,
		run.StartedAt,
		run.CompletedAt,
		run.CreatedAt,
		run.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}

	return nil
}

// Update persists the run's mutable fields and stamps updated_at.
func (r *SyncRunRepository) Update(run *models.SyncRun) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	run.UpdatedAt = time.Now()

	query := `
		UPDATE sync_runs
		SET status = ?, categories_total = ?, categories_failed = ?,
			records_upserted = ?, error_message = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query,
		run.Status,
		run.CategoriesTotal,
		run.CategoriesFailed,
		run.RecordsUpserted,
		run.ErrorMessage,
		run.CompletedAt,
		run.UpdatedAt,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update sync run: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("sync run %s: %w", run.ID, shared.ErrNotFound)
	}

	return nil
}

// Get retrieves a sync run by ID.
func (r *SyncRunRepository) Get(id string) (*models.SyncRun, error) {
	query := syncRunSelect + ` WHERE id = ?`

	run, err := r.scanRun(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return run, err
}

// Latest retrieves the most recent run for a section, or for any section
// when section is empty.
func (r *SyncRunRepository) Latest(section models.Section) (*models.SyncRun, error) {
	query := syncRunSelect
	args := []any{}
	if section != "" {
		query += ` WHERE section = ?`
		args = append(args, section)
	}
	query += ` ORDER BY sequence DESC LIMIT 1`

	run, err := r.scanRun(r.db.QueryRow(query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	return run, err
}

// List returns runs newest first, capped at limit (zero means no cap).
func (r *SyncRunRepository) List(limit int) ([]*models.SyncRun, error) {
	query := syncRunSelect + ` ORDER BY sequence DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

const syncRunSelect = `
	SELECT id, sequence, section, status, categories_total, categories_failed,
		records_upserted, error_message, started_at, completed_at,
		created_at, updated_at
	FROM sync_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SyncRunRepository) scanRun(row rowScanner) (*models.SyncRun, error) {
	var run models.SyncRun
	err := row.Scan(
		&run.ID,
		&run.Sequence,
		&run.Section,
		&run.Status,
		&run.CategoriesTotal,
		&run.CategoriesFailed,
		&run.RecordsUpserted,
		&run.ErrorMessage,
		&run.StartedAt,
		&run.CompletedAt,
		&run.CreatedAt,
		&run.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan sync run: %w", err)
	}
	return &run, nil
}
