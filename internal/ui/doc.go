// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for monitoring video processing:
//  1. [LoginView] : Authenticate against the backend
//  2. [JobListView] : Browse the active-jobs list, refreshed in the background
//  3. [JobDetailView] : Watch one job's progress, cancel or reprioritize it
//  4. [HistoryView] : Review past notifications
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Background state flows in through two channels re-armed as commands: job
// updates from the poller and toast events from the notification bus.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
