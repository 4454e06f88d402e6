package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"testing"

	"github.com/hesi-tools/memberdir/internal/mailer"
	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/store"
	"github.com/hesi-tools/memberdir/internal/token"
)

const testSecret = "handler-test-secret"

// fakeDirectory is an in-memory Directory for handler tests.
type fakeDirectory struct {
	members       map[string]*store.Member
	searchResults []store.MemberSummary
	emailMatches  []store.MemberSummary
	categories    []store.Category
	countries     []store.Country
	memberships   []store.Membership
	existing      map[string]*store.Membership

	commits   []*store.Transaction
	commitErr error
	pingErr   error
}

func (f *fakeDirectory) MemberByID(_ context.Context, id string) (*store.Member, error) {
	m, ok := f.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", id, shared.ErrNotFound)
	}
	return m, nil
}

func (f *fakeDirectory) SearchMembers(_ context.Context, _ string, _ int) ([]store.MemberSummary, error) {
	return f.searchResults, nil
}

func (f *fakeDirectory) MembersByEmail(_ context.Context, _ string) ([]store.MemberSummary, error) {
	return f.emailMatches, nil
}

func (f *fakeDirectory) Countries(_ context.Context) ([]store.Country, error) {
	return f.countries, nil
}

func (f *fakeDirectory) Categories(_ context.Context, _ []string) ([]store.Category, error) {
	return f.categories, nil
}

func (f *fakeDirectory) MembershipsForMember(_ context.Context, _ string) ([]store.Membership, error) {
	return f.memberships, nil
}

func (f *fakeDirectory) MembershipFor(_ context.Context, memberID, categoryID string) (*store.Membership, error) {
	return f.existing[memberID+"|"+categoryID], nil
}

func (f *fakeDirectory) Commit(_ context.Context, tx *store.Transaction) (*store.CommitResult, error) {
	if f.commitErr != nil {
		return nil, f.commitErr
	}
	f.commits = append(f.commits, tx)
	return &store.CommitResult{}, nil
}

func (f *fakeDirectory) Ping(_ context.Context) error { return f.pingErr }

// mutationsOf renders a transaction to its wire form for assertions.
func mutationsOf(t *testing.T, tx *store.Transaction) []map[string]any {
	t.Helper()
	data, err := json.Marshal(tx)
	if err != nil {
		t.Fatalf("marshal transaction: %v", err)
	}
	var muts []map[string]any
	if err := json.Unmarshal(data, &muts); err != nil {
		t.Fatalf("unmarshal transaction: %v", err)
	}
	return muts
}

func testSigner(t *testing.T) *token.Signer {
	t.Helper()
	s, err := token.NewSigner(testSecret)
	if err != nil {
		t.Fatalf("NewSigner() error = %v", err)
	}
	return s
}

func testJoinHandler(t *testing.T, d *fakeDirectory) *JoinHandler {
	t.Helper()
	logger := shared.NewLogger(io.Discard)
	mail := mailer.New(shared.MailConfig{From: "directory@test.edu"}, logger)
	return NewJoinHandler(d, testSigner(t), mail, "https://directory.test.edu", logger)
}
