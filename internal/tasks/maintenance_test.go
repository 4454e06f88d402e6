package tasks

import (
	"context"
	"testing"

	"github.com/hesi-tools/memberdir/internal/countries"
	"github.com/hesi-tools/memberdir/internal/store"
)

func TestNormalizeRegions(t *testing.T) {
	t.Run("Plan Without Apply Commits Nothing", func(t *testing.T) {
		m := &mockStore{
			regions: []store.Region{
				{ID: "region.africa", Type: "region", Title: "Africa"},
				{ID: "r.legacy1", Type: "region", Title: "Sub-Saharan Africa"},
				{ID: "r.legacy2", Type: "region", Title: "Middle Earth"},
			},
			referencing: []map[string]any{
				{
					"_id":    "country.ken",
					"_type":  "country",
					"region": map[string]any{"_type": "reference", "_ref": "r.legacy1"},
				},
			},
		}
		engine := testEngine(m)

		result, err := engine.NormalizeRegions(context.Background(), nil, RegionOptions{})
		if err != nil {
			t.Fatalf("NormalizeRegions: %v", err)
		}
		if len(m.commits) != 0 {
			t.Fatalf("plan committed %d transactions", len(m.commits))
		}
		if result.Remaps["r.legacy1"] != "region.africa" {
			t.Errorf("remaps = %v", result.Remaps)
		}
		if len(result.Extras) != 1 || result.Extras[0] != "Middle Earth" {
			t.Errorf("extras = %v", result.Extras)
		}
		if result.Patched != 1 {
			t.Errorf("planned patches = %d", result.Patched)
		}
	})

	t.Run("Apply Upserts Patches And Deletes", func(t *testing.T) {
		m := &mockStore{
			regions: []store.Region{
				{ID: "r.legacy1", Type: "region", Title: "Asia-Pacific"},
			},
			referencing: []map[string]any{
				{
					"_id":    "country.kor",
					"_type":  "country",
					"region": map[string]any{"_type": "reference", "_ref": "r.legacy1"},
				},
			},
		}
		engine := testEngine(m)

		result, err := engine.NormalizeRegions(context.Background(), nil, RegionOptions{Apply: true, DeleteExtras: true})
		if err != nil {
			t.Fatalf("NormalizeRegions: %v", err)
		}
		if result.Upserted != len(countries.CanonicalRegions) {
			t.Errorf("upserted = %d", result.Upserted)
		}
		if result.Patched != 1 || result.Deleted != 1 {
			t.Errorf("patched = %d, deleted = %d", result.Patched, result.Deleted)
		}
		// upsert + patch + delete
		if len(m.commits) != 3 {
			t.Fatalf("commits = %d", len(m.commits))
		}

		muts := mutationsOf(t, m.commits[1])
		patch, ok := muts[0]["patch"].(map[string]any)
		if !ok {
			t.Fatalf("second commit is not a patch: %+v", muts[0])
		}
		set, _ := patch["set"].(map[string]any)
		region, _ := set["region"].(map[string]any)
		if region["_ref"] != "region.asia-pacific" {
			t.Errorf("rewritten ref = %v", region)
		}
	})
}

func TestTagGroup(t *testing.T) {
	members := []store.MemberSummary{
		{ID: "member.1", Title: "Test University"},
		{ID: "member.2", Title: "Côte d'Ivoire Institute"},
		{ID: "member.3", Title: "Tagged Already", Groups: []store.Reference{{Ref: "ag.green", Type: "reference"}}},
	}

	t.Run("Resolves Names And Tags", func(t *testing.T) {
		m := &mockStore{
			categories:   []store.Category{{ID: "ag.green", Type: store.TypeActionGroup, Title: "Green Campus"}},
			memberTitles: members,
		}
		engine := testEngine(m)

		result, err := engine.TagGroup(context.Background(), nil, TagOptions{
			GroupTitle: "green campus",
			Names:      []string{"test university", "Cote d'Ivoire Institute", "Tagged Already", "Nobody Home"},
			Apply:      true,
		})
		if err != nil {
			t.Fatalf("TagGroup: %v", err)
		}
		if result.GroupID != "ag.green" || result.CreatedGroup {
			t.Errorf("group = %q, created = %v", result.GroupID, result.CreatedGroup)
		}
		if len(result.Tagged) != 2 {
			t.Errorf("tagged = %v", result.Tagged)
		}
		if len(result.Already) != 1 || result.Already[0] != "Tagged Already" {
			t.Errorf("already = %v", result.Already)
		}
		if len(result.Unresolved) != 1 || result.Unresolved[0] != "Nobody Home" {
			t.Errorf("unresolved = %v", result.Unresolved)
		}

		if len(m.commits) != 1 {
			t.Fatalf("commits = %d", len(m.commits))
		}
		muts := mutationsOf(t, m.commits[0])
		if len(muts) != 2 {
			t.Fatalf("mutations = %d", len(muts))
		}
		patch, _ := muts[0]["patch"].(map[string]any)
		if patch["id"] != "member.1" {
			t.Errorf("first patch targets %v", patch["id"])
		}
		insert, _ := patch["insert"].(map[string]any)
		if insert["after"] != "actionGroups[-1]" {
			t.Errorf("insert = %v", insert)
		}
	})

	t.Run("Creates Missing Group", func(t *testing.T) {
		m := &mockStore{memberTitles: members}
		engine := testEngine(m)

		result, err := engine.TagGroup(context.Background(), nil, TagOptions{
			GroupTitle: "Open Science",
			Names:      []string{"Test University"},
			Apply:      true,
		})
		if err != nil {
			t.Fatalf("TagGroup: %v", err)
		}
		if !result.CreatedGroup || result.GroupID != "actionGroup.openscience" {
			t.Errorf("group = %q, created = %v", result.GroupID, result.CreatedGroup)
		}
		// group create + tag patch
		if len(m.commits) != 2 {
			t.Fatalf("commits = %d", len(m.commits))
		}
	})

	t.Run("Plan Without Apply Commits Nothing", func(t *testing.T) {
		m := &mockStore{memberTitles: members}
		engine := testEngine(m)

		result, err := engine.TagGroup(context.Background(), nil, TagOptions{
			GroupTitle: "Open Science",
			Names:      []string{"Test University"},
		})
		if err != nil {
			t.Fatalf("TagGroup: %v", err)
		}
		if len(m.commits) != 0 {
			t.Errorf("plan committed %d transactions", len(m.commits))
		}
		if len(result.Tagged) != 1 {
			t.Errorf("tagged = %v", result.Tagged)
		}
	})
}
