package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/tasks"
)

// EpgSync fetches guide entries for every synced channel carrying a stream id.
func (r *Runner) EpgSync(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	opts := tasks.GuideOpts{
		NumWorkers: r.config.Epg.Workers,
		RateLimit:  r.config.Epg.RateLimit,
		EntryLimit: r.config.Epg.Limit,
	}
	if workers := int(cmd.Int("workers")); workers > 0 {
		opts.NumWorkers = workers
	}
	if limit := int(cmd.Int("limit")); limit > 0 {
		opts.EntryLimit = limit
	}

	r.writePlain("Fetching program guide...\n\n")

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			r.writePlain("📥 %s\n", update.Message)
		}
	}()

	result, err := r.guide.SyncGuide(ctx, progressCh, opts)
	close(progressCh)

	if err != nil {
		return fmt.Errorf("guide sync failed: %w", err)
	}

	r.writePlain("\n")
	r.writePlainHeader("Guide Sync Complete")
	r.writePlain("Channels: %d (%d failed)\n", result.ChannelsTotal, result.ChannelsFailed)
	r.writePlain("Entries upserted: %d\n", result.EntriesUpserted)

	return nil
}

// EpgSweep evicts guide entries that ended in the past.
func (r *Runner) EpgSweep(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	evicted := r.guide.Sweep(time.Now().Unix(), nil)
	r.writePlain("✓ Evicted %d expired guide entries\n", evicted)
	return nil
}
