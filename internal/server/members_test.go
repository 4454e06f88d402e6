package server

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/store"
)

func testMembersHandler(d *fakeDirectory) *MembersHandler {
	return NewMembersHandler(d, shared.NewLogger(io.Discard))
}

func countryFixture() *fakeDirectory {
	return &fakeDirectory{
		countries: []store.Country{
			{ID: "country.ken", Type: "country", Title: "Kenya", RegionTitle: "Africa"},
			{ID: "country.usa", Type: "country", Title: "United States of America", RegionTitle: "North America"},
		},
		existing: map[string]*store.Membership{},
	}
}

func TestCreateMember(t *testing.T) {
	t.Run("resolves country and writes one create", func(t *testing.T) {
		d := countryFixture()
		h := testMembersHandler(d)

		payload := `{"title":"Nairobi Institute","country":"kenya","website":"nairobi.test.edu","emails":"info@nairobi.test.edu, info@nairobi.test.edu"}`
		req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d body %s", rec.Code, http.StatusCreated, rec.Body)
		}
		body := decodeBody(t, rec)
		id, _ := body["id"].(string)
		if !strings.HasPrefix(id, "member.") {
			t.Errorf("id = %q, want member. prefix", id)
		}

		if len(d.commits) != 1 {
			t.Fatalf("commits = %d, want 1", len(d.commits))
		}
		muts := mutationsOf(t, d.commits[0])
		if len(muts) != 1 {
			t.Fatalf("mutations = %d, want 1", len(muts))
		}
		doc := muts[0]["create"].(map[string]any)
		if doc["status"] != "submitted" {
			t.Errorf("status = %v, want submitted", doc["status"])
		}
		if country := doc["country"].(map[string]any); country["_ref"] != "country.ken" {
			t.Errorf("country ref = %v, want country.ken", country["_ref"])
		}
		if doc["website"] != "https://nairobi.test.edu" {
			t.Errorf("website = %v", doc["website"])
		}
		if emails := doc["emails"].([]any); len(emails) != 1 {
			t.Errorf("emails = %v, want deduplicated single address", emails)
		}
		if slug := doc["slug"].(map[string]any); slug["current"] != "nairobi-institute" {
			t.Errorf("slug = %v, want nairobi-institute", slug["current"])
		}
		if doc["dateJoined"] == "" {
			t.Error("dateJoined is empty, want today's date")
		}
	})

	t.Run("unmatched country is kept raw", func(t *testing.T) {
		d := countryFixture()
		h := testMembersHandler(d)

		payload := `{"title":"Atlantis University","country":"Atlantis"}`
		req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d body %s", rec.Code, rec.Body)
		}
		doc := mutationsOf(t, d.commits[0])[0]["create"].(map[string]any)
		if _, set := doc["country"]; set {
			t.Error("country reference set for unknown country")
		}
		if doc["importCountryRaw"] != "Atlantis" {
			t.Errorf("importCountryRaw = %v, want Atlantis", doc["importCountryRaw"])
		}
	})

	t.Run("selections create memberships in the same transaction", func(t *testing.T) {
		d := countryFixture()
		h := testMembersHandler(d)

		payload := `{"title":"Nairobi Institute","country":"Kenya","selections":[` +
			`{"categoryId":"forum.climate","contribution":"Running the regional chapter"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d body %s", rec.Code, rec.Body)
		}
		muts := mutationsOf(t, d.commits[0])
		if len(muts) != 2 {
			t.Fatalf("mutations = %d, want member plus membership", len(muts))
		}
		member := muts[0]["create"].(map[string]any)
		ms := muts[1]["create"].(map[string]any)
		if ref := ms["member"].(map[string]any); ref["_ref"] != member["_id"] {
			t.Errorf("membership member ref = %v, want %v", ref["_ref"], member["_id"])
		}
	})

	t.Run("missing title or country is 400", func(t *testing.T) {
		h := testMembersHandler(countryFixture())

		for name, payload := range map[string]string{
			"no title":   `{"country":"Kenya"}`,
			"no country": `{"title":"Nairobi Institute"}`,
		} {
			t.Run(name, func(t *testing.T) {
				req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(payload))
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				if rec.Code != http.StatusBadRequest {
					t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
				}
			})
		}
	})

	t.Run("short contribution is 422", func(t *testing.T) {
		d := countryFixture()
		h := testMembersHandler(d)

		payload := `{"title":"Nairobi Institute","country":"Kenya","selections":[` +
			`{"categoryId":"forum.climate","contribution":"short"}]}`
		req := httptest.NewRequest(http.MethodPost, "/api/members", strings.NewReader(payload))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusUnprocessableEntity)
		}
		if len(d.commits) != 0 {
			t.Errorf("commits = %d, want none", len(d.commits))
		}
	})
}

func TestSearchMembers(t *testing.T) {
	t.Run("returns matches", func(t *testing.T) {
		d := countryFixture()
		d.searchResults = []store.MemberSummary{{ID: "member.1", Title: "Nairobi Institute"}}
		h := testMembersHandler(d)

		req := httptest.NewRequest(http.MethodGet, "/api/members/search?q=nai", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body %s", rec.Code, rec.Body)
		}
		body := decodeBody(t, rec)
		if got := len(body["members"].([]any)); got != 1 {
			t.Errorf("members = %d, want 1", got)
		}
	})

	t.Run("short query is 400", func(t *testing.T) {
		h := testMembersHandler(countryFixture())

		req := httptest.NewRequest(http.MethodGet, "/api/members/search?q=n", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

func TestLookupMembers(t *testing.T) {
	t.Run("returns members listing the address", func(t *testing.T) {
		d := countryFixture()
		d.emailMatches = []store.MemberSummary{{ID: "member.1", Title: "Nairobi Institute"}}
		h := testMembersHandler(d)

		req := httptest.NewRequest(http.MethodGet, "/api/members/lookup?email=info@nairobi.test.edu", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body %s", rec.Code, rec.Body)
		}
		body := decodeBody(t, rec)
		if got := len(body["members"].([]any)); got != 1 {
			t.Errorf("members = %d, want 1", got)
		}
	})

	t.Run("missing email is 400", func(t *testing.T) {
		h := testMembersHandler(countryFixture())

		req := httptest.NewRequest(http.MethodGet, "/api/members/lookup", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}
