package tasks

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/store"
)

// mockStore is a test double for [StoreAPI] that records committed
// transactions and serves canned query results.
type mockStore struct {
	countries     []store.Country
	regions       []store.Region
	categories    []store.Category
	memberIDs     []string
	memberTitles  []store.MemberSummary
	membershipIDs []string
	referencing   []map[string]any

	commits   []*store.Transaction
	commitErr error
}

func (m *mockStore) Countries(ctx context.Context) ([]store.Country, error) {
	return m.countries, nil
}

func (m *mockStore) Regions(ctx context.Context) ([]store.Region, error) {
	return m.regions, nil
}

func (m *mockStore) Categories(ctx context.Context, types []string) ([]store.Category, error) {
	return m.categories, nil
}

func (m *mockStore) MemberIDs(ctx context.Context, status string) ([]string, error) {
	if status == "" {
		return m.memberIDs, nil
	}
	// the canned fixture keys submitted members by prefix
	var out []string
	for _, id := range m.memberIDs {
		if len(id) >= 4 && id[:4] == "sub." {
			out = append(out, id)
		}
	}
	return out, nil
}

func (m *mockStore) MemberTitles(ctx context.Context) ([]store.MemberSummary, error) {
	return m.memberTitles, nil
}

func (m *mockStore) MembershipIDs(ctx context.Context) ([]string, error) {
	return m.membershipIDs, nil
}

func (m *mockStore) DocumentsReferencing(ctx context.Context, ids []string) ([]map[string]any, error) {
	return m.referencing, nil
}

func (m *mockStore) Commit(ctx context.Context, tx *store.Transaction) (*store.CommitResult, error) {
	if m.commitErr != nil {
		return nil, m.commitErr
	}
	m.commits = append(m.commits, tx)
	return &store.CommitResult{TransactionID: "txn"}, nil
}

// mutationsOf decodes a recorded transaction into inspectable maps.
func mutationsOf(t *testing.T, tx *store.Transaction) []map[string]any {
	t.Helper()
	raw, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal transaction: %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal transaction: %v", err)
	}
	return out
}

func testEngine(m *mockStore) *Engine {
	return NewEngine(m, shared.NewLogger(io.Discard))
}

func usaCountries() []store.Country {
	return []store.Country{
		{ID: "country.usa", Type: "country", Title: "United States of America", RegionTitle: "North America"},
		{ID: "country.ken", Type: "country", Title: "Kenya", RegionTitle: "Africa"},
	}
}
