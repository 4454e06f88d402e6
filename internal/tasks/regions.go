package tasks

import (
	"context"
	"fmt"

	"github.com/hesi-tools/memberdir/internal/countries"
	"github.com/hesi-tools/memberdir/internal/store"
)

// RegionOptions control how far region normalization goes. Without Apply
// the whole operation is a read-only plan.
type RegionOptions struct {
	Apply        bool
	DeleteExtras bool // also delete non-canonical region documents
}

// RegionResult reports the normalization plan and, when applied, what
// actually changed.
type RegionResult struct {
	Upserted int               // canonical regions ensured
	Remaps   map[string]string // old region ID -> canonical region ID
	Extras   []string          // titles of regions matching no canonical region
	Patched  int               // documents whose references were rewritten
	Deleted  int               // region documents removed
	Applied  bool
}

// NormalizeRegions collapses every region document onto the six canonical
// regions: canonical documents are upserted by stable ID, references to
// synonym regions are rewritten, and with DeleteExtras the stale region
// documents are removed afterwards.
func (e *Engine) NormalizeRegions(ctx context.Context, progress chan<- ProgressUpdate, opts RegionOptions) (*RegionResult, error) {
	result := &RegionResult{Remaps: map[string]string{}, Applied: opts.Apply}

	e.sendProgress(progress, upsertRegionsUpdate(len(countries.CanonicalRegions)))
	if opts.Apply {
		tx := store.NewTransaction()
		for _, r := range countries.CanonicalRegions {
			tx.CreateIfNotExists(store.Region{ID: r.ID, Type: "region", Title: r.Title})
		}
		if _, err := e.store.Commit(ctx, tx); err != nil {
			return result, fmt.Errorf("upserting canonical regions failed: %w", err)
		}
	}
	result.Upserted = len(countries.CanonicalRegions)

	existing, err := e.store.Regions(ctx)
	if err != nil {
		return result, err
	}

	var extraIDs []string
	for _, region := range existing {
		if countries.RegionByID(region.ID) != nil {
			continue
		}
		if canonID := countries.ToCanonRegionID(region.Title); canonID != "" {
			result.Remaps[region.ID] = canonID
		} else {
			result.Extras = append(result.Extras, region.Title)
			extraIDs = append(extraIDs, region.ID)
		}
	}
	e.sendProgress(progress, planRemapsUpdate(len(result.Remaps), len(result.Extras)))

	if len(result.Remaps) > 0 {
		patched, err := e.remapRegionRefs(ctx, progress, result.Remaps, opts.Apply)
		result.Patched = patched
		if err != nil {
			return result, err
		}
	}

	if !opts.Apply {
		e.logger.Info("plan only, pass --apply to write",
			"remaps", len(result.Remaps), "extras", len(result.Extras))
		return result, nil
	}

	if opts.DeleteExtras {
		doomed := make([]string, 0, len(result.Remaps)+len(extraIDs))
		for oldID := range result.Remaps {
			doomed = append(doomed, oldID)
		}
		doomed = append(doomed, e.unreferencedOnly(ctx, extraIDs)...)

		deleted, err := e.deleteInBatches(ctx, progress, doomed)
		result.Deleted = deleted
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// remapRegionRefs rewrites every reference to a remapped region, scalar
// fields and keyed arrays alike, preserving array keys.
func (e *Engine) remapRegionRefs(ctx context.Context, progress chan<- ProgressUpdate, remaps map[string]string, apply bool) (int, error) {
	oldIDs := make([]string, 0, len(remaps))
	for id := range remaps {
		oldIDs = append(oldIDs, id)
	}

	holders, err := e.store.DocumentsReferencing(ctx, oldIDs)
	if err != nil {
		return 0, err
	}

	var patches []refPatch
	for _, doc := range holders {
		docID, _ := doc["_id"].(string)
		if docID == "" || remaps[docID] != "" {
			continue
		}
		if patch := planRefRewrite(doc, remaps); patch != nil {
			patch.id = docID
			patches = append(patches, *patch)
		}
	}

	if !apply {
		return len(patches), nil
	}

	patched := 0
	batches := chunked(patches, patchChunkSize)
	for i, batch := range batches {
		e.sendProgress(progress, applyPatchesUpdate(i+1, len(batches), len(batch)))
		tx := store.NewTransaction()
		for _, p := range batch {
			tx.Patch(p.id, p.set, p.unset)
		}
		if _, err := e.store.Commit(ctx, tx); err != nil {
			return patched, fmt.Errorf("reference patch batch %d/%d failed: %w", i+1, len(batches), err)
		}
		patched += len(batch)
	}
	return patched, nil
}

// planRefRewrite builds the set patch replacing remapped references in a
// raw document. Returns nil when nothing points at a remapped region.
func planRefRewrite(doc map[string]any, remaps map[string]string) *refPatch {
	patch := &refPatch{set: map[string]any{}}

	for field, value := range doc {
		if len(field) > 0 && field[0] == '_' {
			continue
		}
		switch v := value.(type) {
		case map[string]any:
			if ref, _ := v["_ref"].(string); remaps[ref] != "" {
				patch.set[field] = rewriteRef(v, remaps[ref])
			}
		case []any:
			rewritten := make([]any, len(v))
			changed := false
			for i, item := range v {
				rewritten[i] = item
				if m, ok := item.(map[string]any); ok {
					if ref, _ := m["_ref"].(string); remaps[ref] != "" {
						rewritten[i] = rewriteRef(m, remaps[ref])
						changed = true
					}
				}
			}
			if changed {
				patch.set[field] = rewritten
			}
		}
	}

	if len(patch.set) == 0 {
		return nil
	}
	return patch
}

// rewriteRef copies a reference object with a new target, keeping _key and
// any other attributes intact.
func rewriteRef(ref map[string]any, newID string) map[string]any {
	out := make(map[string]any, len(ref))
	for k, v := range ref {
		out[k] = v
	}
	out["_ref"] = newID
	return out
}

// unreferencedOnly filters the given region IDs down to those nothing
// points at; referenced extras are left alone rather than breaking the
// documents holding them.
func (e *Engine) unreferencedOnly(ctx context.Context, ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	holders, err := e.store.DocumentsReferencing(ctx, ids)
	if err != nil {
		e.logger.Warn("could not check inbound references, skipping extra deletion", "err", err)
		return nil
	}

	referenced := make(map[string]bool)
	for _, doc := range holders {
		for _, id := range ids {
			if docReferences(doc, id) {
				referenced[id] = true
			}
		}
	}

	var out []string
	for _, id := range ids {
		if !referenced[id] {
			out = append(out, id)
		}
	}
	return out
}

func docReferences(doc map[string]any, id string) bool {
	for _, value := range doc {
		switch v := value.(type) {
		case map[string]any:
			if ref, _ := v["_ref"].(string); ref == id {
				return true
			}
		case []any:
			for _, item := range v {
				if m, ok := item.(map[string]any); ok {
					if ref, _ := m["_ref"].(string); ref == id {
						return true
					}
				}
			}
		}
	}
	return false
}
