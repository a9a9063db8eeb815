package models

import (
	"fmt"
	"time"
)

// Section identifies one of the three catalog sections a provider exposes.
type Section string

const (
	SectionLive   Section = "LIVE"
	SectionVod    Section = "VOD"
	SectionSeries Section = "SERIES"
)

// Sections lists every catalog section in sync order.
var Sections = []Section{SectionLive, SectionVod, SectionSeries}

// Valid reports whether s is a known catalog section.
func (s Section) Valid() bool {
	switch s {
	case SectionLive, SectionVod, SectionSeries:
		return true
	}
	return false
}

// ParseSection converts a user-supplied string into a [Section].
func ParseSection(raw string) (Section, error) {
	switch raw {
	case string(SectionLive), "live":
		return SectionLive, nil
	case string(SectionVod), "vod":
		return SectionVod, nil
	case string(SectionSeries), "series":
		return SectionSeries, nil
	}
	return "", fmt.Errorf("unknown section %q", raw)
}

// PlaylistKind distinguishes flat M3U lists from provider API accounts.
type PlaylistKind string

const (
	KindList        PlaylistKind = "LIST"
	KindProviderAPI PlaylistKind = "PROVIDER_API"
)

// ProgressKind labels what a watch-progress row tracks.
type ProgressKind string

const (
	ProgressVod           ProgressKind = "VOD"
	ProgressSeriesEpisode ProgressKind = "SERIES_EPISODE"
)

// Playlist is a provider account or imported list that owns categories.
// Deleting it cascades to categories and, transitively, to channels, VOD
// titles and guide entries.
type Playlist struct {
	ID           int64
	Name         string
	SourceURL    string
	Kind         PlaylistKind
	ExpiresAt    *time.Time
	LastSyncedAt time.Time
}

// Validate checks if the playlist's data is valid and returns an error if not.
func (p *Playlist) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("playlist name is required")
	}
	if p.Kind != KindList && p.Kind != KindProviderAPI {
		return fmt.Errorf("unknown playlist kind %q", p.Kind)
	}
	return nil
}

// Category groups channels or VOD titles within a section of one playlist.
// ExternalID is the provider's category identifier and the natural key used
// for reconciliation; duplicate display names from upstream are expected.
type Category struct {
	ID         int64
	PlaylistID int64
	ExternalID string
	Name       string
	Section    Section
}

func (c *Category) Validate() error {
	if c.PlaylistID == 0 {
		return fmt.Errorf("category requires an owning playlist")
	}
	if !c.Section.Valid() {
		return fmt.Errorf("unknown section %q", c.Section)
	}
	return nil
}

// Channel is a live-section entry. StreamID is the provider identifier used
// as the natural key for upserts; rows without one fall back to surrogate
// identity.
type Channel struct {
	ID         int64
	CategoryID int64
	Name       string
	Logo       string
	StreamURL  string
	StreamID   string
	EpgID      string
}

func (c *Channel) Validate() error {
	if c.CategoryID == 0 {
		return fmt.Errorf("channel requires an owning category")
	}
	if c.StreamURL == "" {
		return fmt.Errorf("channel %q has no stream URL", c.Name)
	}
	return nil
}

// VodTitle is a VOD-section entry, owned by a category like a channel.
type VodTitle struct {
	ID          int64
	CategoryID  int64
	Name        string
	Logo        string
	StreamURL   string
	StreamID    string
	Rating      float64
	ReleaseDate string
}

func (v *VodTitle) Validate() error {
	if v.CategoryID == 0 {
		return fmt.Errorf("vod title requires an owning category")
	}
	if v.StreamURL == "" {
		return fmt.Errorf("vod title %q has no stream URL", v.Name)
	}
	return nil
}

// EpgProgram is one program-guide entry owned by exactly one channel.
// Entries are not required to be contiguous or non-overlapping; upstream
// data violates both and the store must not assume otherwise.
type EpgProgram struct {
	ID          int64
	ChannelID   int64
	Title       string
	Description string
	StartTime   int64 // unix seconds
	EndTime     int64 // unix seconds
}

func (p *EpgProgram) Validate() error {
	if p.ChannelID == 0 {
		return fmt.Errorf("guide entry requires an owning channel")
	}
	if p.StartTime >= p.EndTime {
		return fmt.Errorf("guide entry %q has start_time >= end_time", p.Title)
	}
	return nil
}

// ChannelWithPrograms joins a channel with its guide entries, ordered by
// start time. Computed from post-commit state only.
type ChannelWithPrograms struct {
	Channel  Channel
	Programs []EpgProgram
}

// WatchProgress records playback position keyed uniquely by the provider
// stream id. It is not owned by the cascading entity graph: the stream id
// outlives a resync that regenerates surrogate keys.
type WatchProgress struct {
	ID          int64
	StreamID    string
	Kind        ProgressKind
	PositionMs  int64
	DurationMs  int64
	LastWatched time.Time
}

func (w *WatchProgress) Validate() error {
	if w.StreamID == "" {
		return fmt.Errorf("watch progress requires a stream id")
	}
	if w.PositionMs < 0 || w.DurationMs < 0 {
		return fmt.Errorf("watch progress for %q has negative position or duration", w.StreamID)
	}
	return nil
}

// Percent returns completion as positionMs/durationMs*100, the value the
// activity-reporting integration consumes. Zero duration yields 0.
func (w *WatchProgress) Percent() float64 {
	if w.DurationMs <= 0 {
		return 0
	}
	return float64(w.PositionMs) / float64(w.DurationMs) * 100
}

// Sync run status enumeration
const (
	RunPending   = "pending"
	RunRunning   = "running"
	RunSucceeded = "succeeded"
	RunFailed    = "failed"
)

// SyncRun records one synchronization run for a section: how many
// categories were in scope, how many fetches failed, and how many records
// the batch upsert wrote.
type SyncRun struct {
	ID               string
	Sequence         int
	Section          Section
	Status           string
	CategoriesTotal  int
	CategoriesFailed int
	RecordsUpserted  int
	ErrorMessage     string
	StartedAt        time.Time
	CompletedAt      *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (r *SyncRun) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("sync run requires an id")
	}
	if !r.Section.Valid() {
		return fmt.Errorf("unknown section %q", r.Section)
	}
	switch r.Status {
	case RunPending, RunRunning, RunSucceeded, RunFailed:
		return nil
	}
	return fmt.Errorf("unknown run status %q", r.Status)
}
