// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for reviewing an import before it writes:
//  1. [DocumentListView] : Browse the documents built from the source file
//  2. [ProblemListView] : Inspect row-level problems recorded during the build
//  3. [ConfirmView] : Confirm the write
//  4. [WriteView] : Monitor real-time commit progress
//  5. [ResultView] : Display written counts and unmatched country spellings
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// The preview is one dry-run pass through the import engine; progress updates during
// the real write flow through a channel, providing non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
