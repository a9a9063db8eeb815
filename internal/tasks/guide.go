package tasks

import (
	"context"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/IISonGokuII/DjoudiniPlayer/internal/models"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/prefs"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/repositories"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/services"
	"github.com/IISonGokuII/DjoudiniPlayer/internal/shared"
)

// GuideOpts contains configuration for program-guide ingestion.
type GuideOpts struct {
	NumWorkers int     // Concurrent workers (default: 5)
	RateLimit  float64 // Requests per second (default: 5)
	EntryLimit int     // Guide entries requested per channel (0 = provider default)
}

// GuideResult contains all data from one guide ingestion run.
type GuideResult struct {
	ChannelsTotal   int // Channels with a provider stream id
	ChannelsFailed  int // Fetches that failed and were skipped
	EntriesUpserted int // Guide entries written
}

// GuideEngine ingests program-guide data channel by channel.
//
// Guide ingestion is deliberately smaller-scoped than a catalog sync: a
// bounded worker pool fetches the short EPG per channel behind a shared rate
// limiter, and each channel's entries are upserted as they arrive. Invalid
// entries (start at or after end) are dropped individually.
type GuideEngine struct {
	provider services.Provider
	prefs    *prefs.Store
	catalog  *repositories.CatalogRepository
	epg      *repositories.EpgRepository
	logger   *log.Logger
}

// NewGuideEngine creates a GuideEngine with the provided dependencies.
func NewGuideEngine(
	provider services.Provider,
	prefsStore *prefs.Store,
	catalog *repositories.CatalogRepository,
	epg *repositories.EpgRepository,
	logger *log.Logger,
) *GuideEngine {
	return &GuideEngine{
		provider: provider,
		prefs:    prefsStore,
		catalog:  catalog,
		epg:      epg,
		logger:   logger,
	}
}

// guideFetch is one settled per-channel guide fetch.
type guideFetch struct {
	channel  *models.Channel
	upserted int
	err      error
}

// SyncGuide fetches guide entries for every stored channel that carries a
// provider stream id. A channel's fetch failing is logged and skipped, never
// fatal to the run.
func (e *GuideEngine) SyncGuide(ctx context.Context, progress chan<- ProgressUpdate, opts GuideOpts) (*GuideResult, error) {
	account := e.prefs.AccountInfo()
	if !account.Complete() {
		return nil, shared.ErrNotAuthenticated
	}
	creds := services.Credentials{
		ServerURL: account.ServerURL,
		Username:  account.Username,
		Password:  account.Password,
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 5
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	stored, err := e.catalog.AllChannels()
	if err != nil {
		return nil, fmt.Errorf("failed to load channels: %w", err)
	}

	var channels []*models.Channel
	for _, channel := range stored {
		if channel.StreamID != "" {
			channels = append(channels, channel)
		}
	}

	result := &GuideResult{ChannelsTotal: len(channels)}
	if len(channels) == 0 {
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)

	jobs := make(chan *models.Channel, len(channels))
	results := make(chan guideFetch, len(channels))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.guideWorker(ctx, &wg, creds, limiter, opts.EntryLimit, jobs, results)
	}

	for _, channel := range channels {
		jobs <- channel
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++

		if res.err != nil {
			result.ChannelsFailed++
			e.logger.Warn("guide fetch failed",
				"channel", res.channel.Name, "stream", res.channel.StreamID, "error", res.err)
			sendProgress(progress, guideFailedUpdate(completed, len(channels), res.channel.Name, res.err))
			continue
		}

		result.EntriesUpserted += res.upserted
		sendProgress(progress, guideChannelUpdate(completed, len(channels), res.channel.Name, res.upserted))
	}

	return result, nil
}

// guideWorker is a worker goroutine that fetches and upserts guide entries
// for channels from the jobs channel.
func (e *GuideEngine) guideWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	creds services.Credentials,
	limiter *rate.Limiter,
	entryLimit int,
	jobs <-chan *models.Channel,
	results chan<- guideFetch,
) {
	defer wg.Done()

	for channel := range jobs {
		select {
		case <-ctx.Done():
			results <- guideFetch{channel: channel, err: ctx.Err()}
			continue
		default:
		}

		if err := limiter.Wait(ctx); err != nil {
			results <- guideFetch{channel: channel, err: err}
			continue
		}

		entries, err := e.provider.ListGuide(ctx, creds, channel.StreamID, entryLimit)
		if err != nil {
			results <- guideFetch{channel: channel, err: err}
			continue
		}

		programs := make([]*models.EpgProgram, 0, len(entries))
		for _, entry := range entries {
			program := &models.EpgProgram{
				ChannelID:   channel.ID,
				Title:       entry.Title,
				Description: entry.Description,
				StartTime:   entry.StartTime,
				EndTime:     entry.EndTime,
			}
			if err := program.Validate(); err != nil {
				e.logger.Debug("dropping malformed guide entry",
					"channel", channel.Name, "error", err)
				continue
			}
			programs = append(programs, program)
		}

		if len(programs) == 0 {
			results <- guideFetch{channel: channel}
			continue
		}

		upserted, err := e.epg.UpsertPrograms(programs)
		results <- guideFetch{channel: channel, upserted: upserted, err: err}
	}
}

// Sweep evicts guide entries that ended strictly before now. A sweep failure
// is logged and absorbed; the next scheduled sweep retries naturally.
func (e *GuideEngine) Sweep(now int64, progress chan<- ProgressUpdate) int64 {
	evicted, err := e.epg.EvictExpired(now)
	if err != nil {
		e.logger.Warn("guide sweep failed", "error", err)
		return 0
	}

	sendProgress(progress, sweepUpdate(evicted))
	return evicted
}
