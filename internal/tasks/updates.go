package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchCountries Phase = iota
	BuildDocuments
	WriteBatch
	ScanTargets
	CleanReferences
	DeleteBatch
	UpsertRegions
	PlanRemaps
	ApplyPatches
	ResolveNames
	TagMembers
)

func (p Phase) String() string {
	switch p {
	case FetchCountries:
		return "fetch_countries"
	case BuildDocuments:
		return "build_documents"
	case WriteBatch:
		return "write_batch"
	case ScanTargets:
		return "scan_targets"
	case CleanReferences:
		return "clean_references"
	case DeleteBatch:
		return "delete_batch"
	case UpsertRegions:
		return "upsert_regions"
	case PlanRemaps:
		return "plan_remaps"
	case ApplyPatches:
		return "apply_patches"
	case ResolveNames:
		return "resolve_names"
	case TagMembers:
		return "tag_members"
	default:
		return ""
	}
}

func fetchCountriesUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCountries,
		Step:    1,
		Total:   1,
		Message: "Fetching canonical countries from the store...",
	}
}

func buildDocumentUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildDocuments,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, title),
	}
}

func writeBatchUpdate(step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Committing batch %d/%d (%d documents)...", step, total, size),
	}
}

func scanTargetsUpdate(count int, kind string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ScanTargets,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d %s documents to remove", count, kind),
	}
}

func cleanReferencesUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CleanReferences,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Cleaning inbound references (batch %d/%d)...", step, total),
	}
}

func deleteBatchUpdate(step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeleteBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Deleting batch %d/%d (%d documents)...", step, total, size),
	}
}

func upsertRegionsUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UpsertRegions,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Ensuring %d canonical regions exist...", count),
	}
}

func planRemapsUpdate(remaps, extras int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PlanRemaps,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Planned %d remaps, %d unmatched extras", remaps, extras),
	}
}

func applyPatchesUpdate(step, total, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ApplyPatches,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Patching references (batch %d/%d, %d documents)...", step, total, size),
	}
}

func resolveNamesUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveNames,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving %s", step, total, name),
	}
}

func tagMembersUpdate(count, total int, group string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   TagMembers,
		Step:    count,
		Total:   total,
		Message: fmt.Sprintf("Tagging %d of %d members into %s...", count, total, group),
	}
}
