// package tasks implements the batch operations that reconcile tabular
// input and historical data with the content store.
//
// The core abstraction is Engine, which orchestrates imports, wipes,
// region normalization, and group tagging. Operations emit progress
// updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/hesi-tools/memberdir/internal/store"
)

// Mutation batch sizes. Creates carry full document bodies so they chunk
// smaller than deletes and patches.
const (
	createChunkSize = 100
	deleteChunkSize = 200
	patchChunkSize  = 200
)

// StoreAPI is the slice of the store client the task engine depends on.
// This abstraction allows for easier testing and decoupling from concrete implementation.
type StoreAPI interface {
	Countries(ctx context.Context) ([]store.Country, error)
	Regions(ctx context.Context) ([]store.Region, error)
	Categories(ctx context.Context, types []string) ([]store.Category, error)
	MemberIDs(ctx context.Context, status string) ([]string, error)
	MemberTitles(ctx context.Context) ([]store.MemberSummary, error)
	MembershipIDs(ctx context.Context) ([]string, error)
	DocumentsReferencing(ctx context.Context, ids []string) ([]map[string]any, error)
	Commit(ctx context.Context, tx *store.Transaction) (*store.CommitResult, error)
}

// Engine runs the batch operations against one store client.
type Engine struct {
	store  StoreAPI
	logger *log.Logger
}

// NewEngine creates an Engine with the provided store client.
func NewEngine(s StoreAPI, logger *log.Logger) *Engine {
	return &Engine{store: s, logger: logger}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
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

// chunked splits ids into batches of at most size.
func chunked[T any](items []T, size int) [][]T {
	if size <= 0 || len(items) == 0 {
		return nil
	}
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		out = append(out, items[start:end])
	}
	return out
}
