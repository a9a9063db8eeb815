// Package models defines domain entities for the catalog mirror and EPG store.
//
// The package contains two categories of types:
//
// 1. Catalog entities mirrored from the provider and owned by the cascade graph:
//   - [Playlist] : Provider account or imported list, the root of the ownership graph
//   - [Category] : Per-section grouping, keyed by the provider external id
//   - [Channel] : Live-section entry with synthesized playback URL
//   - [VodTitle] : VOD-section entry
//   - [EpgProgram] : Time-boxed program-guide entry owned by one channel
//
// 2. Independent records outside the cascade graph:
//   - [WatchProgress] : Playback position keyed by provider stream id
//   - [SyncRun] : Bookkeeping for one synchronization run
//
// Entities validate their own invariants via Validate; repositories call it
// before writing.
package models
