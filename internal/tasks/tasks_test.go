package tasks

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/prefs"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/repositories"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/services"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
	internaltesting "github.com/IISonGokuII/DjoudiniPlayer/internal/testing"
)

type engineDeps struct {
	db        *sql.DB
	prefs     *prefs.Store
	provider  *internaltesting.MockProvider
	playlists *repositories.PlaylistRepository
	catalog   *repositories.CatalogRepository
	epg       *repositories.EpgRepository
	runs      *repositories.SyncRunRepository
}

// setupEngine wires a CatalogEngine against an in-memory store, a temp
// prefs file and a scriptable provider double.
func setupEngine(t *testing.T) (*CatalogEngine, *engineDeps) {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	shared.ConfigureDatabase(db, 1, 1)
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	store, err := prefs.Open(filepath.Join(t.TempDir(), "prefs.toml"))
	if err != nil {
		t.Fatalf("failed to open prefs: %v", err)
	}

	hub := repositories.NewHub()
	deps := &engineDeps{
		db:        db,
		prefs:     store,
		provider:  &internaltesting.MockProvider{},
		playlists: repositories.NewPlaylistRepository(db, hub),
		catalog:   repositories.NewCatalogRepository(db, hub),
		epg:       repositories.NewEpgRepository(db, hub),
		runs:      repositories.NewSyncRunRepository(db),
	}

	engine := NewCatalogEngine(
		deps.provider,
		deps.prefs,
		deps.playlists,
		deps.catalog,
		deps.runs,
		shared.NewLogger(io.Discard),
	)
	return engine, deps
}

func loginTestAccount(t *testing.T, store *prefs.Store) {
	t.Helper()
	if err := store.SaveAccountInfo("http://provider.example", "user", "pass", "Unlimited"); err != nil {
		t.Fatalf("failed to save account info: %v", err)
	}
	if err := store.SetLoggedIn(true); err != nil {
		t.Fatalf("failed to set logged in: %v", err)
	}
}

func TestSyncSectionNotAuthenticated(t *testing.T) {
	engine, deps := setupEngine(t)

	result, err := engine.SyncSection(context.Background(), models.SectionLive, nil)
	if !errors.Is(err, shared.ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}

	// no network-shaped work before the credential check
	if calls := deps.provider.TotalCalls(); calls != 0 {
		t.Errorf("expected zero provider calls, got %d", calls)
	}

	run, repoErr := deps.runs.Get(result.Run.ID)
	if repoErr != nil {
		t.Fatalf("failed to load run: %v", repoErr)
	}
	if run.Status != models.RunFailed {
		t.Errorf("expected failed run, got %q", run.Status)
	}

	status := engine.Tracker().Status()
	if status.State != StateFailed || status.Fraction != 1 {
		t.Errorf("expected terminal Failed at fraction 1.0, got %+v", status)
	}
}

func TestSyncSectionEmptySelection(t *testing.T) {
	engine, deps := setupEngine(t)
	loginTestAccount(t, deps.prefs)

	result, err := engine.SyncSection(context.Background(), models.SectionLive, nil)
	if err != nil {
		t.Fatalf("empty selection should succeed: %v", err)
	}
	if result.RecordsUpserted != 0 || result.CategoriesTotal != 0 {
		t.Errorf("expected zero-work success, got %+v", result)
	}
	if calls := deps.provider.TotalCalls(); calls != 0 {
		t.Errorf("expected zero provider calls, got %d", calls)
	}

	run, repoErr := deps.runs.Latest(models.SectionLive)
	if repoErr != nil {
		t.Fatalf("failed to load run: %v", repoErr)
	}
	if run.Status != models.RunSucceeded {
		t.Errorf("expected succeeded run, got %q", run.Status)
	}

	status := engine.Tracker().Status()
	if status.State != StateSucceeded || status.Fraction != 1 {
		t.Errorf("expected terminal Success at fraction 1.0, got %+v", status)
	}
}

func TestSyncSectionLive(t *testing.T) {
	engine, deps := setupEngine(t)
	loginTestAccount(t, deps.prefs)

	if err := deps.prefs.SaveCategorySelections([]string{"10"}, nil, nil); err != nil {
		t.Fatalf("failed to save selections: %v", err)
	}
	deps.provider.Categories = map[models.Section][]services.Category{
		models.SectionLive: {{ExternalID: "10", Name: "News"}},
	}
	deps.provider.Streams = map[string][]services.Stream{
		"10": {
			{ExternalID: "100", Name: "World News", Logo: "http://logo/1.png", EpgID: "world"},
			{ExternalID: "101", Name: "Local News"},
		},
	}

	result, err := engine.SyncSection(context.Background(), models.SectionLive, nil)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.RecordsUpserted != 2 || result.CategoriesFailed != 0 {
		t.Errorf("unexpected result: %+v", result)
	}

	channels, err := deps.catalog.AllChannels()
	if err != nil {
		t.Fatalf("failed to list channels: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("expected 2 channels, got %d", len(channels))
	}

	playlist, err := deps.playlists.GetByName("user")
	if err != nil {
		t.Fatalf("failed to load playlist: %v", err)
	}
	category, err := deps.catalog.CategoryByExternalID(playlist.ID, models.SectionLive, "10")
	if err != nil {
		t.Fatalf("expected a locally-created News category: %v", err)
	}
	if category.Name != "News" {
		t.Errorf("expected category named News, got %q", category.Name)
	}

	for _, channel := range channels {
		if channel.CategoryID == 0 {
			t.Errorf("channel %q not resolved to a local category", channel.Name)
		}
	}

	first, err := deps.catalog.ChannelByStreamID("100")
	if err != nil {
		t.Fatalf("failed to fetch channel: %v", err)
	}
	want := "http://provider.example/live/user/pass/100.m3u8"
	if first.StreamURL != want {
		t.Errorf("expected stream URL %q, got %q", want, first.StreamURL)
	}

	// guide is empty until ingestion runs
	joined, err := deps.epg.ChannelsWithPrograms(first.CategoryID)
	if err != nil {
		t.Fatalf("failed to join guide: %v", err)
	}
	for _, entry := range joined {
		if len(entry.Programs) != 0 {
			t.Errorf("expected empty guide for %q before ingestion", entry.Channel.Name)
		}
	}
}

func TestSyncSectionIdempotent(t *testing.T) {
	engine, deps := setupEngine(t)
	loginTestAccount(t, deps.prefs)

	if err := deps.prefs.SaveCategorySelections([]string{"10"}, nil, nil); err != nil {
		t.Fatalf("failed to save selections: %v", err)
	}
	deps.provider.Categories = map[models.Section][]services.Category{
		models.SectionLive: {{ExternalID: "10", Name: "News"}},
	}
	deps.provider.Streams = map[string][]services.Stream{
		"10": {
			{ExternalID: "100", Name: "World News"},
			{ExternalID: "101", Name: "Local News"},
		},
	}

	for i := 0; i < 2; i++ {
		if _, err := engine.SyncSection(context.Background(), models.SectionLive, nil); err != nil {
			t.Fatalf("sync %d failed: %v", i, err)
		}
	}

	channels, err := deps.catalog.AllChannels()
	if err != nil {
		t.Fatalf("failed to list channels: %v", err)
	}
	if len(channels) != 2 {
		t.Errorf("re-running an identical sync must not grow the store, got %d channels", len(channels))
	}

	playlists, err := deps.playlists.List()
	if err != nil {
		t.Fatalf("failed to list playlists: %v", err)
	}
	if len(playlists) != 1 {
		t.Errorf("expected a single playlist row, got %d", len(playlists))
	}
}

func TestSyncSectionPartialFailure(t *testing.T) {
	engine, deps := setupEngine(t)
	loginTestAccount(t, deps.prefs)

	if err := deps.prefs.SaveCategorySelections([]string{"1", "2", "3"}, nil, nil); err != nil {
		t.Fatalf("failed to save selections: %v", err)
	}
	deps.provider.Categories = map[models.Section][]services.Category{
		models.SectionLive: {
			{ExternalID: "1", Name: "A"},
			{ExternalID: "2", Name: "B"},
			{ExternalID: "3", Name: "C"},
		},
	}
	deps.provider.Streams = map[string][]services.Stream{
		"1": {{ExternalID: "100", Name: "A1"}},
		"2": {{ExternalID: "200", Name: "B1"}},
		"3": {{ExternalID: "300", Name: "C1"}, {ExternalID: "301", Name: "C2"}},
	}
	deps.provider.StreamErr = map[string]error{
		"2": shared.ErrNetwork,
	}

	result, err := engine.SyncSection(context.Background(), models.SectionLive, nil)
	if err != nil {
		t.Fatalf("partial failure must still be success: %v", err)
	}
	if result.CategoriesFailed != 1 || len(result.Failures) != 1 {
		t.Errorf("expected exactly one excluded category, got %+v", result)
	}
	if result.Failures[0].ExternalID != "2" {
		t.Errorf("expected category 2 recorded as failed, got %q", result.Failures[0].ExternalID)
	}
	if result.RecordsUpserted != 3 {
		t.Errorf("expected 3 records from the surviving categories, got %d", result.RecordsUpserted)
	}

	if _, err := deps.catalog.ChannelByStreamID("200"); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("failed category's channels must not be stored, got %v", err)
	}
	for _, id := range []string{"100", "300", "301"} {
		if _, err := deps.catalog.ChannelByStreamID(id); err != nil {
			t.Errorf("sibling channel %s missing: %v", id, err)
		}
	}

	run, repoErr := deps.runs.Latest(models.SectionLive)
	if repoErr != nil {
		t.Fatalf("failed to load run: %v", repoErr)
	}
	if run.Status != models.RunSucceeded || run.CategoriesFailed != 1 {
		t.Errorf("unexpected run bookkeeping: %+v", run)
	}
}

func TestSyncSectionVod(t *testing.T) {
	engine, deps := setupEngine(t)
	loginTestAccount(t, deps.prefs)

	if err := deps.prefs.SaveCategorySelections(nil, []string{"5"}, nil); err != nil {
		t.Fatalf("failed to save selections: %v", err)
	}
	deps.provider.Categories = map[models.Section][]services.Category{
		models.SectionVod: {{ExternalID: "5", Name: "Action"}},
	}
	deps.provider.Streams = map[string][]services.Stream{
		"5": {
			{ExternalID: "900", Name: "Big Movie", Extension: "mkv", Rating: 8.1},
			{ExternalID: "901", Name: "Other Movie"},
		},
	}

	result, err := engine.SyncSection(context.Background(), models.SectionVod, nil)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.RecordsUpserted != 2 {
		t.Errorf("expected 2 vod titles, got %d", result.RecordsUpserted)
	}

	playlist, err := deps.playlists.GetByName("user")
	if err != nil {
		t.Fatalf("failed to load playlist: %v", err)
	}
	category, err := deps.catalog.CategoryByExternalID(playlist.ID, models.SectionVod, "5")
	if err != nil {
		t.Fatalf("failed to resolve category: %v", err)
	}

	titles, err := deps.catalog.VodsByCategory(category.ID)
	if err != nil {
		t.Fatalf("failed to list vod titles: %v", err)
	}
	byID := make(map[string]string)
	for _, title := range titles {
		byID[title.StreamID] = title.StreamURL
	}
	if got := byID["900"]; got != "http://provider.example/movie/user/pass/900.mkv" {
		t.Errorf("unexpected vod URL with extension: %q", got)
	}
	if got := byID["901"]; got != "http://provider.example/movie/user/pass/901.mp4" {
		t.Errorf("expected mp4 default extension, got %q", got)
	}
}

func TestSyncSectionUnlistedSelection(t *testing.T) {
	engine, deps := setupEngine(t)
	loginTestAccount(t, deps.prefs)

	// category 99 is selected but the provider no longer lists it
	if err := deps.prefs.SaveCategorySelections([]string{"99"}, nil, nil); err != nil {
		t.Fatalf("failed to save selections: %v", err)
	}
	deps.provider.Streams = map[string][]services.Stream{
		"99": {{ExternalID: "500", Name: "Orphan"}},
	}

	result, err := engine.SyncSection(context.Background(), models.SectionLive, nil)
	if err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	if result.RecordsUpserted != 1 {
		t.Errorf("expected the orphaned category to still sync, got %+v", result)
	}

	playlist, err := deps.playlists.GetByName("user")
	if err != nil {
		t.Fatalf("failed to load playlist: %v", err)
	}
	category, err := deps.catalog.CategoryByExternalID(playlist.ID, models.SectionLive, "99")
	if err != nil {
		t.Fatalf("failed to resolve category: %v", err)
	}
	if category.Name != "99" {
		t.Errorf("unlisted category should fall back to its id as name, got %q", category.Name)
	}
}

func TestSyncSectionCategoryListingFails(t *testing.T) {
	engine, deps := setupEngine(t)
	loginTestAccount(t, deps.prefs)

	if err := deps.prefs.SaveCategorySelections([]string{"1"}, nil, nil); err != nil {
		t.Fatalf("failed to save selections: %v", err)
	}
	deps.provider.CatErr = shared.ErrNetwork

	if _, err := engine.SyncSection(context.Background(), models.SectionLive, nil); !errors.Is(err, shared.ErrNetwork) {
		t.Fatalf("expected the run to fail on category listing, got %v", err)
	}

	run, repoErr := deps.runs.Latest(models.SectionLive)
	if repoErr != nil {
		t.Fatalf("failed to load run: %v", repoErr)
	}
	if run.Status != models.RunFailed || run.ErrorMessage == "" {
		t.Errorf("unexpected run bookkeeping: %+v", run)
	}
}

func TestSyncSectionProgressUpdates(t *testing.T) {
	engine, deps := setupEngine(t)
	loginTestAccount(t, deps.prefs)

	if err := deps.prefs.SaveCategorySelections([]string{"10"}, nil, nil); err != nil {
		t.Fatalf("failed to save selections: %v", err)
	}
	deps.provider.Categories = map[models.Section][]services.Category{
		models.SectionLive: {{ExternalID: "10", Name: "News"}},
	}
	deps.provider.Streams = map[string][]services.Stream{
		"10": {{ExternalID: "100", Name: "World News"}},
	}

	progress := make(chan ProgressUpdate, 64)
	if _, err := engine.SyncSection(context.Background(), models.SectionLive, progress); err != nil {
		t.Fatalf("sync failed: %v", err)
	}
	close(progress)

	seen := make(map[Phase]bool)
	for update := range progress {
		seen[update.Phase] = true
	}
	for _, phase := range []Phase{ReadCredentials, FetchCategories, FetchStreams, UpsertBatch} {
		if !seen[phase] {
			t.Errorf("expected a %s progress update", phase)
		}
	}
}
