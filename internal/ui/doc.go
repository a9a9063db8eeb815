// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view browser over the mirrored catalog:
//  1. [CategoryListView] : Browse the synced categories of a section
//  2. [ChannelListView] : Browse a category's channels
//  3. [GuideView] : Current and upcoming programs for a channel
//  4. [SyncView] : Monitor a catalog sync with real-time progress updates
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the CatalogEngine, providing non-blocking status reporting during syncs.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, s, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
