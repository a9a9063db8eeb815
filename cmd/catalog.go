package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/services"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/tasks"
)

// CategoriesList lists the provider's categories for a section, marking the
// ones selected for sync.
func (r *Runner) CategoriesList(ctx context.Context, cmd *cli.Command) error {
	section, err := models.ParseSection(cmd.String("section"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}

	if err := r.openStore(); err != nil {
		return err
	}

	account := r.prefs.AccountInfo()
	if !account.Complete() {
		return fmt.Errorf("%w: run 'auth login' first", shared.ErrNotAuthenticated)
	}

	categories, err := r.provider.ListCategories(ctx, services.Credentials{
		ServerURL: account.ServerURL,
		Username:  account.Username,
		Password:  account.Password,
	}, section)
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(categories, true)
	}

	selected := map[string]bool{}
	for _, id := range r.prefs.SelectedCategories(section) {
		selected[id] = true
	}

	r.writePlainHeader(fmt.Sprintf("%s Categories", section))
	for _, category := range categories {
		marker := " "
		if selected[category.ExternalID] {
			marker = "*"
		}
		r.writePlain("%s %-8s %s\n", marker, category.ExternalID, category.Name)
	}
	r.writePlain("\n* = selected for sync\n")

	return nil
}

// CategoriesSelect replaces the selected provider category ids for a section.
func (r *Runner) CategoriesSelect(ctx context.Context, cmd *cli.Command) error {
	section, err := models.ParseSection(cmd.String("section"))
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	ids := cmd.StringSlice("id")

	if err := r.openStore(); err != nil {
		return err
	}

	live := r.prefs.SelectedCategories(models.SectionLive)
	vod := r.prefs.SelectedCategories(models.SectionVod)
	series := r.prefs.SelectedCategories(models.SectionSeries)

	switch section {
	case models.SectionLive:
		live = ids
	case models.SectionVod:
		vod = ids
	case models.SectionSeries:
		series = ids
	}

	if err := r.prefs.SaveCategorySelections(live, vod, series); err != nil {
		return fmt.Errorf("failed to store selection: %w", err)
	}

	if len(ids) == 0 {
		r.writePlain("✓ Cleared %s selection\n", section)
	} else {
		r.writePlain("✓ Selected %d %s categories\n", len(ids), section)
	}
	return nil
}

// Sync synchronizes the selected categories of one section, or every section
// with --all. Section runs are sequential; a failed section stops the command.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	sections := []models.Section{}
	if cmd.Bool("all") {
		sections = models.Sections
	} else {
		section, err := models.ParseSection(cmd.String("section"))
		if err != nil {
			return fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
		}
		sections = append(sections, section)
	}

	for _, section := range sections {
		if err := r.syncSection(ctx, section); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) syncSection(ctx context.Context, section models.Section) error {
	r.writePlain("Syncing %s catalog...\n\n", section)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	go func() {
		for update := range progressCh {
			switch update.Phase {
			case tasks.FetchCategories:
				r.writePlain("📥 %s\n", update.Message)
			case tasks.FetchStreams:
				r.writePlain("   %s\n", update.Message)
			case tasks.UpsertBatch:
				r.writePlain("\n📝 %s\n", update.Message)
			}
		}
	}()

	result, err := r.engine.SyncSection(ctx, section, progressCh)
	close(progressCh)

	if err != nil {
		return fmt.Errorf("%s sync failed: %w", section, err)
	}

	r.writePlain("\n")
	r.writePlainHeader(fmt.Sprintf("%s Sync Complete", section))
	r.writePlain("Categories: %d (%d failed)\n", result.CategoriesTotal, result.CategoriesFailed)
	r.writePlain("Records upserted: %d\n", result.RecordsUpserted)

	if len(result.Failures) > 0 {
		r.writePlain("\nSkipped categories:\n")
		for _, failure := range result.Failures {
			r.writePlain("  - %s: %v\n", failure.ExternalID, failure.Err)
		}
	}

	return nil
}

// Channels lists stored channels, optionally restricted to one category.
func (r *Runner) Channels(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	categoryID := cmd.Int("category")

	var channels []*models.Channel
	var err error
	if categoryID > 0 {
		channels, err = r.catalog.ChannelsByCategory(int64(categoryID))
	} else {
		channels, err = r.catalog.AllChannels()
	}
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(channels, true)
	}

	if len(channels) == 0 {
		r.writePlain("No channels stored. Run 'sync --section live' first.\n")
		return nil
	}

	names, err := r.categoryNames()
	if err != nil {
		return err
	}

	r.writePlainHeader("Channels")
	for _, channel := range channels {
		r.writePlain("%-8s %-30s %s\n", channel.StreamID, channel.Name, names[channel.CategoryID])
	}
	r.writePlain("\n%d channels\n", len(channels))

	return nil
}

// Guide shows the airing and upcoming programs of one channel.
func (r *Runner) Guide(ctx context.Context, cmd *cli.Command) error {
	if err := r.openStore(); err != nil {
		return err
	}

	streamID := cmd.String("channel")
	at := int64(cmd.Int("at"))
	if at == 0 {
		at = time.Now().Unix()
	}
	limit := cmd.Int("limit")

	channel, err := r.catalog.ChannelByStreamID(streamID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return fmt.Errorf("%w: no channel with stream id %q", shared.ErrNotFound, streamID)
		}
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Guide: %s", channel.Name))

	current, err := r.epg.CurrentProgram(channel.ID, at)
	switch {
	case err == nil:
		r.writePlain("▶ Now: %s (%s – %s)\n",
			current.Title,
			time.Unix(current.StartTime, 0).Format("15:04"),
			time.Unix(current.EndTime, 0).Format("15:04"),
		)
		if current.Description != "" {
			r.writePlain("       %s\n", current.Description)
		}
	case errors.Is(err, shared.ErrNotFound):
		r.writePlain("Nothing airing right now\n")
	default:
		return err
	}

	upcoming, err := r.epg.UpcomingPrograms(channel.ID, at, int(limit))
	if err != nil {
		return err
	}

	if len(upcoming) > 0 {
		r.writePlainln("Upcoming:")
		for _, program := range upcoming {
			r.writePlain("  %s  %s\n", time.Unix(program.StartTime, 0).Format("Jan 02 15:04"), program.Title)
		}
	}

	return nil
}
