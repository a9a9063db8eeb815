package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
)

// ProgressSave records playback position for a stream.
func (r *Runner) ProgressSave(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	var kind models.ProgressKind
	switch cmd.String("kind") {
	case "vod":
		kind = models.ProgressVod
	case "episode":
		kind = models.ProgressSeriesEpisode
	default:
		return fmt.Errorf("%w: kind must be 'vod' or 'episode'", shared.ErrInvalidFlag)
	}

	record := &models.WatchProgress{
		StreamID:   cmd.String("stream"),
		Kind:       kind,
		PositionMs: int64(cmd.Int("position")),
		DurationMs: int64(cmd.Int("duration")),
	}

	if err := r.progress.Save(record); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}

	r.writePlain("✓ Saved progress for %s (%.0f%%)\n", record.StreamID, record.Percent())
	return nil
}

// ProgressGet shows the saved progress for one stream.
func (r *Runner) ProgressGet(ctx context.Context, cmd *cli.Command) error {
	streamID := cmd.StringArg("stream")
	if streamID == "" {
		return fmt.Errorf("%w: stream id", shared.ErrMissingArgument)
	}

	if err := r.openStore(); err != nil {
		return err
	}

	record, err := r.progress.Get(streamID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: no progress for stream %q", shared.ErrNotFound, streamID)
		}
		return err
	}

	r.writePlain("Stream:   %s (%s)\n", record.StreamID, record.Kind)
	r.writePlain("Position: %s of %s (%.0f%%)\n",
		formatDuration(record.PositionMs),
		formatDuration(record.DurationMs),
		record.Percent(),
	)
	r.writePlain("Watched:  %s\n", record.LastWatched.Format("2006-01-02 15:04"))
	return nil
}

// ProgressList lists saved progress, most recently watched first.
func (r *Runner) ProgressList(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	records, err := r.progress.List()
	if err != nil {
		return err
	}

	if len(records) == 0 {
		r.writePlain("No saved progress\n")
		return nil
	}

	r.writePlainHeader("Watch Progress")
	for _, record := range records {
		r.writePlain("%-10s %3.0f%%  %s\n", record.StreamID, record.Percent(), record.LastWatched.Format("Jan 02 15:04"))
	}
	return nil
}

// ProgressClear deletes the saved progress for one stream.
func (r *Runner) ProgressClear(ctx context.Context, cmd *cli.Command) error {
	streamID := cmd.StringArg("stream")
	if streamID == "" {
		return fmt.Errorf("%w: stream id", shared.ErrMissingArgument)
	}

	if err := r.openStore(); err != nil {
		return err
	}

	if err := r.progress.Delete(streamID); err != nil {
		return err
	}

	r.writePlain("✓ Cleared progress for %s\n", streamID)
	return nil
}

func formatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
