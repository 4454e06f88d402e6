package tasks

import (
	"context"
	"fmt"

	"github.com/hesi-tools/memberdir/internal/normalize"
	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/store"
)

// TagOptions name an action group and the member titles to put into it.
type TagOptions struct {
	GroupTitle string
	Names      []string
	Apply      bool
}

// TagResult reports how the name list reconciled against the directory.
type TagResult struct {
	GroupID      string
	GroupTitle   string
	CreatedGroup bool     // group did not exist and was (or would be) created
	Tagged       []string // member titles newly referenced into the group
	Already      []string // member titles that carried the reference before
	Unresolved   []string // names matching no member title
	Applied      bool
}

// TagGroup resolves a list of member names against the directory and
// appends an action-group reference to each match. Names resolve by exact
// case-insensitive title first, then by clean-key comparison. Members
// already in the group are left untouched, so re-running a list is safe.
func (e *Engine) TagGroup(ctx context.Context, progress chan<- ProgressUpdate, opts TagOptions) (*TagResult, error) {
	groupTitle := normalize.Text(opts.GroupTitle)
	if groupTitle == "" {
		return nil, fmt.Errorf("%w: action group title is required", shared.ErrInvalidInput)
	}

	result := &TagResult{GroupTitle: groupTitle, Applied: opts.Apply}

	groups, err := e.store.Categories(ctx, []string{store.TypeActionGroup})
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if normalize.Key(g.Title) == normalize.Key(groupTitle) {
			result.GroupID = g.ID
			result.GroupTitle = g.Title
			break
		}
	}
	if result.GroupID == "" {
		result.GroupID = "actionGroup." + normalize.CleanKey(groupTitle)
		result.CreatedGroup = true
		if opts.Apply {
			tx := store.NewTransaction().CreateIfNotExists(store.Category{
				ID: result.GroupID, Type: store.TypeActionGroup, Title: groupTitle,
			})
			if _, err := e.store.Commit(ctx, tx); err != nil {
				return result, fmt.Errorf("creating action group failed: %w", err)
			}
		}
	}

	members, err := e.store.MemberTitles(ctx)
	if err != nil {
		return result, err
	}
	exact := make(map[string]*store.MemberSummary, len(members))
	clean := make(map[string]*store.MemberSummary, len(members))
	for i := range members {
		m := &members[i]
		exact[normalize.Key(m.Title)] = m
		ck := normalize.CleanKey(m.Title)
		if _, dup := clean[ck]; !dup {
			clean[ck] = m
		}
	}

	var pending []*store.MemberSummary
	seen := make(map[string]bool)
	for i, name := range opts.Names {
		e.sendProgress(progress, resolveNamesUpdate(i+1, len(opts.Names), name))

		m := exact[normalize.Key(name)]
		if m == nil {
			m = clean[normalize.CleanKey(name)]
		}
		if m == nil {
			result.Unresolved = append(result.Unresolved, name)
			continue
		}
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true

		if hasGroupRef(m.Groups, result.GroupID) {
			result.Already = append(result.Already, m.Title)
			continue
		}
		pending = append(pending, m)
		result.Tagged = append(result.Tagged, m.Title)
	}

	if !opts.Apply || len(pending) == 0 {
		return result, nil
	}

	batches := chunked(pending, patchChunkSize)
	for i, batch := range batches {
		e.sendProgress(progress, tagMembersUpdate(len(batch), len(pending), result.GroupTitle))
		tx := store.NewTransaction()
		for _, m := range batch {
			ref := &store.Reference{Ref: result.GroupID, Type: "reference", Key: shared.GenerateID()}
			tx.AppendRef(m.ID, "actionGroups", ref)
		}
		if _, err := e.store.Commit(ctx, tx); err != nil {
			return result, fmt.Errorf("tag batch %d/%d failed: %w", i+1, len(batches), err)
		}
	}

	return result, nil
}

func hasGroupRef(refs []store.Reference, groupID string) bool {
	for _, r := range refs {
		if r.Ref == groupID {
			return true
		}
	}
	return false
}
