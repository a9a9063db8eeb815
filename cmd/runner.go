package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/prefs"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/repositories"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/services"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	provider   services.Provider
	prefs      *prefs.Store
	db         *sql.DB
	hub        *repositories.Hub
	playlists  *repositories.PlaylistRepository
	catalog    *repositories.CatalogRepository
	epg        *repositories.EpgRepository
	progress   *repositories.WatchProgressRepository
	runs       *repositories.SyncRunRepository
	engine     *tasks.CatalogEngine
	guide      *tasks.GuideEngine
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Provider   services.Provider
	Prefs      *prefs.Store
	DB         *sql.DB
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Provider == nil {
		client := &http.Client{
			Timeout: time.Duration(opts.Config.Provider.TimeoutSeconds) * time.Second,
		}
		opts.Provider = services.NewXtreamService(client, opts.Config.Provider.RateLimit)
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		provider:   opts.Provider,
		prefs:      opts.Prefs,
		db:         opts.DB,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, categoriesCommand, syncCommand, epgCommand,
		channelsCommand, guideCommand, exportCommand, progressCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openStore opens the catalog database and preferences file and wires the
// repositories and engines. Safe to call more than once.
func (r *Runner) openStore() error {
	if r.catalog != nil {
		return nil
	}

	if r.prefs == nil {
		store, err := prefs.Open(r.config.Prefs.Path)
		if err != nil {
			return fmt.Errorf("failed to open preferences: %w", err)
		}
		r.prefs = store
	}

	if r.db == nil {
		db, err := shared.NewDatabase(r.config.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)
		r.db = db
	}

	r.hub = repositories.NewHub()
	r.playlists = repositories.NewPlaylistRepository(r.db, r.hub)
	r.catalog = repositories.NewCatalogRepository(r.db, r.hub)
	r.epg = repositories.NewEpgRepository(r.db, r.hub)
	r.progress = repositories.NewWatchProgressRepository(r.db, r.hub)
	r.runs = repositories.NewSyncRunRepository(r.db)

	r.engine = tasks.NewCatalogEngine(r.provider, r.prefs, r.playlists, r.catalog, r.runs, shared.WithLogger(r.logger, "engine", "catalog"))
	r.guide = tasks.NewGuideEngine(r.provider, r.prefs, r.catalog, r.epg, shared.WithLogger(r.logger, "engine", "guide"))

	return nil
}

// categoryNames maps stored category ids to display names across all playlists.
func (r *Runner) categoryNames() (map[int64]string, error) {
	names := map[int64]string{}

	playlists, err := r.playlists.List()
	if err != nil {
		return nil, err
	}

	for _, playlist := range playlists {
		for _, section := range models.Sections {
			categories, err := r.catalog.CategoriesBySection(playlist.ID, section)
			if err != nil {
				return nil, err
			}
			for _, category := range categories {
				names[category.ID] = category.Name
			}
		}
	}

	return names, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
