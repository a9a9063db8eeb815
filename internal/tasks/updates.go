package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReadCredentials Phase = iota
	ReadSelection
	FetchCategories
	FetchStreams
	UpsertBatch
	FetchGuide
	SweepGuide
)

func (p Phase) String() string {
	switch p {
	case ReadCredentials:
		return "read_credentials"
	case ReadSelection:
		return "read_selection"
	case FetchCategories:
		return "fetch_categories"
	case FetchStreams:
		return "fetch_streams"
	case UpsertBatch:
		return "upsert_batch"
	case FetchGuide:
		return "fetch_guide"
	case SweepGuide:
		return "sweep_guide"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

func readCredentialsUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadCredentials,
		Step:    1,
		Total:   1,
		Message: "Reading stored account credentials...",
	}
}

func emptySelectionUpdate(section string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadSelection,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("No %s categories selected, nothing to sync", section),
	}
}

func fetchCategoriesUpdate(section string, count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCategories,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching %s categories (%d selected)...", section, count),
	}
}

func fetchStreamsUpdate(step, total int, categoryID string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchStreams,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetched category %s", step, total, categoryID),
	}
}

func categoryFailedUpdate(step, total int, categoryID string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchStreams,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ category %s: %v", step, total, categoryID, err),
	}
}

func upsertUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UpsertBatch,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Upserted %d records", count),
	}
}

func guideChannelUpdate(step, total int, name string, entries int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchGuide,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d entries)", step, total, name, entries),
	}
}

func guideFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchGuide,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}

func sweepUpdate(evicted int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SweepGuide,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Evicted %d expired guide entries", evicted),
	}
}
