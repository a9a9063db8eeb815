// Package repositories implements SQLite persistence for all domain entities.
//
// Batch writes are insert-or-replace keyed by natural key (provider external
// id where present, surrogate id otherwise): a re-fetched record fully
// replaces the prior row sharing its key, never a field merge. Each batch is
// one transaction, and change notifications for live queries publish only
// after the transaction commits, so a subscriber never observes a channel
// joined with a half-written batch of guide entries.
//
// Key Implementations:
//   - [PlaylistRepository] : Provider accounts, the root of the cascade graph
//   - [CatalogRepository] : Categories, channels and VOD titles
//   - [EpgRepository] : Program-guide entries, time-boxed eviction, joins
//   - [WatchProgressRepository] : Playback positions keyed by stream id
//   - [SyncRunRepository] : Sync-run bookkeeping with status tracking
//
// Sequence numbers provide stable, human-readable ordering for sync runs
// (run #42) independent of UUIDs and creation timestamps; the
// [NextSequence] function atomically increments per-table sequence counters
// in dedicated sequence tables.
//
// The [Hub] is the observer registry behind live queries: Watch* methods
// emit the current snapshot immediately, then a fresh post-commit snapshot
// after every relevant write. Slow subscribers miss intermediate snapshots;
// the latest state is always delivered.
package repositories
