package tasks

import (
	"context"
	"fmt"

	"github.com/hesi-tools/memberdir/internal/store"
)

// WipeOptions select what a wipe removes.
type WipeOptions struct {
	SubmittedOnly bool // delete only status == "submitted" members
	DryRun        bool
}

// WipeResult reports what a wipe touched (or would touch, in a dry run).
type WipeResult struct {
	Scanned int
	Cleaned int // documents whose inbound references were patched
	Deleted int
	DryRun  bool
}

// WipeMembers deletes member documents in fixed-size batches, either every
// member or only never-published submissions.
func (e *Engine) WipeMembers(ctx context.Context, progress chan<- ProgressUpdate, opts WipeOptions) (*WipeResult, error) {
	status := ""
	if opts.SubmittedOnly {
		status = store.StatusSubmitted
	}

	ids, err := e.store.MemberIDs(ctx, status)
	if err != nil {
		return nil, err
	}

	result := &WipeResult{Scanned: len(ids), DryRun: opts.DryRun}
	e.sendProgress(progress, scanTargetsUpdate(len(ids), "member"))
	if len(ids) == 0 {
		e.logger.Info("nothing to wipe")
		return result, nil
	}
	if opts.DryRun {
		e.logger.Info("dry run: would delete members", "count", len(ids))
		return result, nil
	}

	deleted, err := e.deleteInBatches(ctx, progress, ids)
	result.Deleted = deleted
	return result, err
}

// WipeMemberships deletes every membership document. Documents elsewhere in
// the store may hold references to memberships; those are unset (scalar) or
// filtered out (array) first, otherwise the store rejects the delete.
func (e *Engine) WipeMemberships(ctx context.Context, progress chan<- ProgressUpdate, opts WipeOptions) (*WipeResult, error) {
	ids, err := e.store.MembershipIDs(ctx)
	if err != nil {
		return nil, err
	}

	result := &WipeResult{Scanned: len(ids), DryRun: opts.DryRun}
	e.sendProgress(progress, scanTargetsUpdate(len(ids), "membership"))
	if len(ids) == 0 {
		e.logger.Info("nothing to wipe")
		return result, nil
	}

	holders, err := e.store.DocumentsReferencing(ctx, ids)
	if err != nil {
		return nil, err
	}

	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	// Membership docs reference each other's member/category fields too;
	// they are about to be deleted, so only patch survivors.
	var patches []refPatch
	for _, doc := range holders {
		docID, _ := doc["_id"].(string)
		if docID == "" || idSet[docID] {
			continue
		}
		if patch := planRefCleaning(doc, idSet); patch != nil {
			patch.id = docID
			patches = append(patches, *patch)
		}
	}

	if opts.DryRun {
		e.logger.Info("dry run: would clean and delete",
			"referencing", len(patches), "memberships", len(ids))
		result.Cleaned = len(patches)
		return result, nil
	}

	batches := chunked(patches, patchChunkSize)
	for i, batch := range batches {
		e.sendProgress(progress, cleanReferencesUpdate(i+1, len(batches)))
		tx := store.NewTransaction()
		for _, p := range batch {
			tx.Patch(p.id, p.set, p.unset)
		}
		if _, err := e.store.Commit(ctx, tx); err != nil {
			return result, fmt.Errorf("reference cleaning batch %d/%d failed: %w", i+1, len(batches), err)
		}
		result.Cleaned += len(batch)
	}

	deleted, err := e.deleteInBatches(ctx, progress, ids)
	result.Deleted = deleted
	return result, err
}

func (e *Engine) deleteInBatches(ctx context.Context, progress chan<- ProgressUpdate, ids []string) (int, error) {
	deleted := 0
	batches := chunked(ids, deleteChunkSize)
	for i, batch := range batches {
		e.sendProgress(progress, deleteBatchUpdate(i+1, len(batches), len(batch)))

		tx := store.NewTransaction()
		for _, id := range batch {
			tx.Delete(id)
		}
		if _, err := e.store.Commit(ctx, tx); err != nil {
			return deleted, fmt.Errorf("delete batch %d/%d failed: %w", i+1, len(batches), err)
		}
		deleted += len(batch)
		e.logger.Info("batch deleted", "batch", i+1, "of", len(batches), "deleted", deleted)
	}
	return deleted, nil
}

// refPatch is one planned set/unset patch against a referencing document.
type refPatch struct {
	id    string
	set   map[string]any
	unset []string
}

// planRefCleaning scans a raw document for references into doomed and
// returns the patch that removes them: scalar reference fields are unset,
// arrays are replaced with a filtered copy. Returns nil when the document
// holds no matching references in its top-level fields.
func planRefCleaning(doc map[string]any, doomed map[string]bool) *refPatch {
	patch := &refPatch{set: map[string]any{}}

	for field, value := range doc {
		if len(field) > 0 && field[0] == '_' {
			continue
		}
		switch v := value.(type) {
		case map[string]any:
			if ref, _ := v["_ref"].(string); doomed[ref] {
				patch.unset = append(patch.unset, field)
			}
		case []any:
			filtered, changed := filterRefs(v, doomed)
			if changed {
				patch.set[field] = filtered
			}
		}
	}

	if len(patch.set) == 0 && len(patch.unset) == 0 {
		return nil
	}
	if len(patch.set) == 0 {
		patch.set = nil
	}
	return patch
}

func filterRefs(items []any, doomed map[string]bool) ([]any, bool) {
	filtered := make([]any, 0, len(items))
	changed := false
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			if ref, _ := m["_ref"].(string); doomed[ref] {
				changed = true
				continue
			}
		}
		filtered = append(filtered, item)
	}
	return filtered, changed
}
