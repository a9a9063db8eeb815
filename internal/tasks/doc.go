// Package tasks implements the synchronization engines that mirror a remote
// provider catalog into the local store.
//
// [CatalogEngine.SyncSection] runs one catalog sync: read credentials and the
// selected-category set, fan out one fetch task per category, settle them all,
// and upsert the combined result as a single batch. A category fetch failing
// is logged and excluded; siblings and the run as a whole are unaffected.
// Re-running a sync is idempotent because every write is an upsert keyed by
// the provider's identifiers.
//
// [GuideEngine] is the smaller parallel flow for program-guide data: a
// bounded worker pool fetches the short EPG per channel behind a rate
// limiter, and [GuideEngine.Sweep] evicts entries that have already ended.
// Guide data goes stale continuously, so sweeps run on their own cadence,
// decoupled from catalog syncs.
//
// Operations emit [ProgressUpdate] values via channels for non-blocking
// status reporting to the CLI/UI layer, and each engine run drives a
// [Tracker], the single-writer observable of run state.
package tasks
