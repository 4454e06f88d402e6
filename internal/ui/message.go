package ui

import (
	"github.com/hesi-tools/memberdir/internal/tasks"
)

// previewBuiltMsg carries the dry-run result that seeds both lists.
type previewBuiltMsg struct {
	result *tasks.ImportResult
	err    error
}

// progressUpdateMsg forwards one engine update into the Elm loop.
type progressUpdateMsg tasks.ProgressUpdate

// importCompleteMsg carries the final write result.
type importCompleteMsg struct {
	result *tasks.ImportResult
	err    error
}
