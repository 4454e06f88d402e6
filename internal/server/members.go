package server

import (
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"

	"github.com/hesi-tools/memberdir/internal/countries"
	"github.com/hesi-tools/memberdir/internal/normalize"
	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/store"
)

const searchLimit = 20

// MembersHandler serves member creation, search, and email lookup.
type MembersHandler struct {
	store  Directory
	logger *log.Logger
}

func NewMembersHandler(d Directory, logger *log.Logger) *MembersHandler {
	return &MembersHandler{store: d, logger: logger}
}

func (h *MembersHandler) Routes() []string {
	return []string{"/api/members", "/api/members/search", "/api/members/lookup"}
}

func (h *MembersHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/members":
		h.create(w, r)
	case "/api/members/search":
		h.search(w, r)
	case "/api/members/lookup":
		h.lookup(w, r)
	default:
		fail(w, http.StatusNotFound, "not found")
	}
}

type createPayload struct {
	Title              string `json:"title"`
	Country            string `json:"country"`
	TypeOfOrganization string `json:"typeOfOrganization"`
	Description        string `json:"description"`
	Website            string `json:"website"`
	Emails             string `json:"emails"`
	Focalpoint         string `json:"focalpoint"`
	Selections         []struct {
		CategoryID   string `json:"categoryId"`
		Contribution string `json:"contribution"`
		Website      string `json:"website"`
	} `json:"selections"`
}

// create registers a new organization as submitted, resolving its country
// against the directory and creating any selected memberships in the same
// transaction.
func (h *MembersHandler) create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload createPayload
	if err := decodeJSON(r, &payload); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := normalize.Text(payload.Title)
	rawCountry := normalize.Text(payload.Country)
	if title == "" || rawCountry == "" {
		fail(w, http.StatusBadRequest, "title and country are required")
		return
	}
	for _, sel := range payload.Selections {
		if sel.CategoryID == "" {
			fail(w, http.StatusBadRequest, "selection is missing a category")
			return
		}
		if len(normalize.Text(sel.Contribution)) < minContribution {
			fail(w, http.StatusUnprocessableEntity,
				fmt.Sprintf("contribution must be at least %d characters", minContribution))
			return
		}
	}

	known, err := h.store.Countries(r.Context())
	if err != nil {
		h.logger.Error("country fetch failed", "err", err)
		fail(w, http.StatusBadGateway, "store unavailable")
		return
	}
	resolver := countries.NewResolver(resolverCountries(known))

	memberID := "member." + shared.GenerateID()
	member := store.Member{
		ID:                 memberID,
		Type:               "member",
		Title:              title,
		Slug:               store.NewSlug(normalize.Slugify(title)),
		TypeOfOrganization: normalize.Text(payload.TypeOfOrganization),
		Description:        normalize.Text(payload.Description),
		Website:            normalize.FixURL(payload.Website),
		Emails:             normalize.SplitEmails(payload.Emails),
		Focalpoint:         normalize.Text(payload.Focalpoint),
		DateJoined:         normalize.TodayISO(),
		Status:             store.StatusSubmitted,
	}
	if c := resolver.Resolve(rawCountry); c != nil {
		member.Country = store.Ref(c.ID)
	} else {
		member.ImportCountryRaw = rawCountry
	}

	tx := store.NewTransaction()
	tx.Create(member)
	for _, sel := range payload.Selections {
		tx.Create(store.Membership{
			Type:         "membership",
			Member:       store.Ref(memberID),
			Category:     store.Ref(sel.CategoryID),
			Contribution: normalize.Text(sel.Contribution),
			Website:      normalize.FixURL(sel.Website),
			Since:        normalize.TodayISO(),
			Status:       store.StatusSubmitted,
		})
	}

	if _, err := h.store.Commit(r.Context(), tx); err != nil {
		h.logger.Error("member commit failed", "err", err)
		fail(w, http.StatusBadGateway, "could not save member")
		return
	}

	respond(w, http.StatusCreated, map[string]any{
		"id":          memberID,
		"memberships": len(payload.Selections),
	})
}

// search returns published members whose title starts with the query.
func (h *MembersHandler) search(w http.ResponseWriter, r *http.Request) {
	q := normalize.Text(r.URL.Query().Get("q"))
	if len(q) < 2 {
		fail(w, http.StatusBadRequest, "query must be at least 2 characters")
		return
	}

	matches, err := h.store.SearchMembers(r.Context(), q, searchLimit)
	if err != nil {
		h.logger.Error("member search failed", "err", err)
		fail(w, http.StatusBadGateway, "store unavailable")
		return
	}
	respond(w, http.StatusOK, map[string]any{"members": matches})
}

// lookup finds members listing the given email, used to recover an
// organization when the requester only knows their own address.
func (h *MembersHandler) lookup(w http.ResponseWriter, r *http.Request) {
	email := normalize.Text(r.URL.Query().Get("email"))
	if email == "" {
		fail(w, http.StatusBadRequest, "email is required")
		return
	}

	matches, err := h.store.MembersByEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("member lookup failed", "err", err)
		fail(w, http.StatusBadGateway, "store unavailable")
		return
	}
	respond(w, http.StatusOK, map[string]any{"members": matches})
}

func resolverCountries(list []store.Country) []countries.Country {
	out := make([]countries.Country, 0, len(list))
	for _, c := range list {
		out = append(out, countries.Country{ID: c.ID, Title: c.Title, RegionTitle: c.RegionTitle})
	}
	return out
}
