package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/formatter"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
)

// ExportM3U writes stored channels to an M3U playlist file.
func (r *Runner) ExportM3U(ctx context.Context, cmd *cli.Command) error {
	channels, names, err := r.exportableChannels(cmd)
	if err != nil {
		return err
	}

	path, err := formatter.WriteM3UExport(channels, names, cmd.String("output"))
	if err != nil {
		return fmt.Errorf("failed to write M3U export: %w", err)
	}

	r.writePlain("✓ Exported %d channels to %s\n", len(channels), path)
	return nil
}

// ExportCSV writes stored channels to a CSV file.
func (r *Runner) ExportCSV(ctx context.Context, cmd *cli.Command) error {
	channels, names, err := r.exportableChannels(cmd)
	if err != nil {
		return err
	}

	path, err := formatter.WriteChannelsCSVExport(channels, names, cmd.String("output"))
	if err != nil {
		return fmt.Errorf("failed to write CSV export: %w", err)
	}

	r.writePlain("✓ Exported %d channels to %s\n", len(channels), path)
	return nil
}

// ExportGuide writes a category's channels and their guide entries to a CSV file.
func (r *Runner) ExportGuide(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	categoryID := int64(cmd.Int("category"))
	joined, err := r.epg.ChannelsWithPrograms(categoryID)
	if err != nil {
		return err
	}

	path, err := formatter.WriteGuideCSVExport(joined, cmd.String("output"))
	if err != nil {
		return fmt.Errorf("failed to write guide export: %w", err)
	}

	entries := 0
	for _, row := range joined {
		entries += len(row.Programs)
	}
	r.writePlain("✓ Exported %d guide entries across %d channels to %s\n", entries, len(joined), path)
	return nil
}

func (r *Runner) exportableChannels(cmd *cli.Command) ([]*models.Channel, map[int64]string, error) {
	if err := r.openStore(); err != nil {
		return nil, nil, err
	}

	var channels []*models.Channel
	var err error
	if categoryID := int64(cmd.Int("category")); categoryID > 0 {
		channels, err = r.catalog.ChannelsByCategory(categoryID)
	} else {
		channels, err = r.catalog.AllChannels()
	}
	if err != nil {
		return nil, nil, err
	}

	names, err := r.categoryNames()
	if err != nil {
		return nil, nil, err
	}

	return channels, names, nil
}
