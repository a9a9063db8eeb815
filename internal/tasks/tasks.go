package tasks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/prefs"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/repositories"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/services"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
)

// CategoryFailure records one excluded category fetch.
type CategoryFailure struct {
	ExternalID string
	Err        error
}

// SyncResult contains all data from one catalog sync run.
type SyncResult struct {
	Section          models.Section
	CategoriesTotal  int               // Selected categories in scope
	CategoriesFailed int               // Fetches excluded from the batch
	RecordsUpserted  int               // Records written in the final batch
	Failures         []CategoryFailure // Per-category fetch errors
	Run              *models.SyncRun   // Bookkeeping row for this run
}

// CatalogEngine mirrors provider catalog sections into the local store.
//
// Re-running a section sync at any time is safe: every write is an upsert
// keyed by the provider's identifiers, so identical provider responses leave
// identical store content.
type CatalogEngine struct {
	provider  services.Provider
	prefs     *prefs.Store
	playlists *repositories.PlaylistRepository
	catalog   *repositories.CatalogRepository
	runs      *repositories.SyncRunRepository
	tracker   *Tracker
	logger    *log.Logger
}

// NewCatalogEngine creates a CatalogEngine with the provided dependencies.
func NewCatalogEngine(
	provider services.Provider,
	prefsStore *prefs.Store,
	playlists *repositories.PlaylistRepository,
	catalog *repositories.CatalogRepository,
	runs *repositories.SyncRunRepository,
	logger *log.Logger,
) *CatalogEngine {
	return &CatalogEngine{
		provider:  provider,
		prefs:     prefsStore,
		playlists: playlists,
		catalog:   catalog,
		runs:      runs,
		tracker:   NewTracker(),
		logger:    logger,
	}
}

// Tracker exposes the run-state observable for this engine.
func (e *CatalogEngine) Tracker() *Tracker {
	return e.tracker
}

// fetchResult is one settled per-category fetch task.
type fetchResult struct {
	externalID string
	streams    []services.Stream
	err        error
}

// SyncSection runs one catalog sync for the given section.
//
// Missing credentials fail the run before any network I/O. An empty category
// selection completes as success with zero writes. Per-category fetches run
// concurrently and settle independently: a failed category is logged and
// excluded while its siblings proceed, and partial success is still success.
// Only missing credentials or an error escaping the run as a whole (category
// listing, the batch upsert) produce a failed run.
func (e *CatalogEngine) SyncSection(ctx context.Context, section models.Section, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if !section.Valid() {
		return nil, fmt.Errorf("%w: unknown section %q", shared.ErrInvalidInput, section)
	}

	e.tracker.begin()
	result := &SyncResult{Section: section}

	run := &models.SyncRun{Section: section, Status: models.RunRunning}
	if err := e.runs.Create(run); err != nil {
		e.tracker.finish(err)
		return nil, fmt.Errorf("failed to record sync run: %w", err)
	}
	result.Run = run

	sendProgress(progress, readCredentialsUpdate())
	account := e.prefs.AccountInfo()
	if !account.Complete() {
		return result, e.fail(run, shared.ErrNotAuthenticated)
	}
	creds := services.Credentials{
		ServerURL: account.ServerURL,
		Username:  account.Username,
		Password:  account.Password,
	}

	selected := e.prefs.SelectedCategories(section)
	run.CategoriesTotal = len(selected)
	result.CategoriesTotal = len(selected)
	if len(selected) == 0 {
		sendProgress(progress, emptySelectionUpdate(string(section)))
		e.succeed(run, 0)
		return result, nil
	}
	e.tracker.advance(0.05)

	playlist, err := e.ensurePlaylist(account)
	if err != nil {
		return result, e.fail(run, err)
	}

	sendProgress(progress, fetchCategoriesUpdate(string(section), len(selected)))
	categories, err := e.syncCategories(ctx, creds, playlist.ID, section, selected)
	if err != nil {
		return result, e.fail(run, err)
	}
	e.tracker.advance(0.2)

	results := make(chan fetchResult, len(selected))
	var wg sync.WaitGroup
	for _, externalID := range selected {
		wg.Add(1)
		go func(externalID string) {
			defer wg.Done()
			streams, err := e.provider.ListStreams(ctx, creds, section, externalID)
			results <- fetchResult{externalID: externalID, streams: streams, err: err}
		}(externalID)
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	// collect-all-settled barrier: every task reports, failures are excluded
	settled := 0
	var fetched []fetchResult
	for res := range results {
		settled++
		e.tracker.advance(0.2 + 0.6*float64(settled)/float64(len(selected)))

		if res.err != nil {
			run.CategoriesFailed++
			result.CategoriesFailed++
			result.Failures = append(result.Failures, CategoryFailure{ExternalID: res.externalID, Err: res.err})
			e.logger.Warn("category fetch failed",
				"section", section, "category", res.externalID, "error", res.err)
			sendProgress(progress, categoryFailedUpdate(settled, len(selected), res.externalID, res.err))
			continue
		}

		sendProgress(progress, fetchStreamsUpdate(settled, len(selected), res.externalID))
		fetched = append(fetched, res)
	}

	upserted, err := e.upsertStreams(creds, section, categories, fetched)
	if err != nil {
		return result, e.fail(run, err)
	}
	result.RecordsUpserted = upserted
	sendProgress(progress, upsertUpdate(upserted))

	if err := e.playlists.TouchSynced(playlist.ID, time.Now()); err != nil {
		e.logger.Warn("failed to stamp playlist sync time", "error", err)
	}

	e.succeed(run, upserted)
	return result, nil
}

// ensurePlaylist resolves the local playlist row for the stored account,
// creating it on first sync.
func (e *CatalogEngine) ensurePlaylist(account prefs.AccountInfo) (*models.Playlist, error) {
	playlist, err := e.playlists.GetByName(account.Username)
	if err == nil {
		return playlist, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	playlist = &models.Playlist{
		Name:      account.Username,
		SourceURL: account.ServerURL,
		Kind:      models.KindProviderAPI,
	}
	if err := e.playlists.Create(playlist); err != nil {
		return nil, err
	}
	return playlist, nil
}

// syncCategories upserts the selected categories and returns the local rows
// keyed by external id. A selected id the provider no longer lists still
// gets a row, named by its id, so its channels keep a home.
func (e *CatalogEngine) syncCategories(
	ctx context.Context,
	creds services.Credentials,
	playlistID int64,
	section models.Section,
	selected []string,
) (map[string]*models.Category, error) {
	listed, err := e.provider.ListCategories(ctx, creds, section)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s categories: %w", section, err)
	}

	names := make(map[string]string, len(listed))
	for _, category := range listed {
		names[category.ExternalID] = category.Name
	}

	batch := make([]*models.Category, 0, len(selected))
	for _, externalID := range selected {
		name := names[externalID]
		if name == "" {
			name = externalID
		}
		batch = append(batch, &models.Category{
			PlaylistID: playlistID,
			ExternalID: externalID,
			Name:       name,
			Section:    section,
		})
	}

	if _, err := e.catalog.UpsertCategories(batch); err != nil {
		return nil, err
	}

	byExternalID := make(map[string]*models.Category, len(batch))
	for _, category := range batch {
		row, err := e.catalog.CategoryByExternalID(playlistID, section, category.ExternalID)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve category %s: %w", category.ExternalID, err)
		}
		byExternalID[category.ExternalID] = row
	}
	return byExternalID, nil
}

// upsertStreams flattens the settled fetches into local entities and writes
// them as one batch.
func (e *CatalogEngine) upsertStreams(
	creds services.Credentials,
	section models.Section,
	categories map[string]*models.Category,
	fetched []fetchResult,
) (int, error) {
	switch section {
	case models.SectionVod:
		var titles []*models.VodTitle
		for _, res := range fetched {
			category := categories[res.externalID]
			for _, stream := range res.streams {
				titles = append(titles, &models.VodTitle{
					CategoryID:  category.ID,
					Name:        stream.Name,
					Logo:        stream.Logo,
					StreamURL:   vodStreamURL(creds, stream.ExternalID, stream.Extension),
					StreamID:    stream.ExternalID,
					Rating:      stream.Rating,
					ReleaseDate: stream.ReleaseDate,
				})
			}
		}
		if len(titles) == 0 {
			return 0, nil
		}
		return e.catalog.UpsertVods(titles)

	default:
		var channels []*models.Channel
		for _, res := range fetched {
			category := categories[res.externalID]
			for _, stream := range res.streams {
				channels = append(channels, &models.Channel{
					CategoryID: category.ID,
					Name:       stream.Name,
					Logo:       stream.Logo,
					StreamURL:  liveStreamURL(creds, stream.ExternalID),
					StreamID:   stream.ExternalID,
					EpgID:      stream.EpgID,
				})
			}
		}
		if len(channels) == 0 {
			return 0, nil
		}
		return e.catalog.UpsertChannels(channels)
	}
}

// fail closes out the run row and the tracker for a failed run. The
// tracker's fraction still reaches 1.0 so observers never see a stuck run.
func (e *CatalogEngine) fail(run *models.SyncRun, err error) error {
	now := time.Now()
	run.Status = models.RunFailed
	run.ErrorMessage = err.Error()
	run.CompletedAt = &now
	if uerr := e.runs.Update(run); uerr != nil {
		e.logger.Warn("failed to record failed sync run", "error", uerr)
	}
	e.tracker.finish(err)
	return err
}

// succeed closes out the run row and the tracker for a successful run,
// including the zero-work and partial-success cases.
func (e *CatalogEngine) succeed(run *models.SyncRun, upserted int) {
	now := time.Now()
	run.Status = models.RunSucceeded
	run.RecordsUpserted = upserted
	run.CompletedAt = &now
	if err := e.runs.Update(run); err != nil {
		e.logger.Warn("failed to record sync run", "error", err)
	}
	e.tracker.finish(nil)
}

// liveStreamURL synthesizes the playback URL for a live stream. The exact
// shape matters: players resolve it directly against the provider.
func liveStreamURL(creds services.Credentials, externalID string) string {
	return fmt.Sprintf("%s/live/%s/%s/%s.m3u8",
		strings.TrimRight(creds.ServerURL, "/"), creds.Username, creds.Password, externalID)
}

// vodStreamURL synthesizes the playback URL for a VOD title, defaulting the
// container extension to mp4 when the provider omits it.
func vodStreamURL(creds services.Credentials, externalID, extension string) string {
	if extension == "" {
		extension = "mp4"
	}
	return fmt.Sprintf("%s/movie/%s/%s/%s.%s",
		strings.TrimRight(creds.ServerURL, "/"), creds.Username, creds.Password, externalID, extension)
}
