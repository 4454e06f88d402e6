package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"

	"github.com/hesi-tools/memberdir/internal/mailer"
	"github.com/hesi-tools/memberdir/internal/normalize"
	"github.com/hesi-tools/memberdir/internal/shared"
	"github.com/hesi-tools/memberdir/internal/store"
	"github.com/hesi-tools/memberdir/internal/token"
)

// minContribution gates both the self-service and the admin submission
// paths identically.
const minContribution = 10

// categoryTypes lists every grouping a member can join through the form.
var categoryTypes = []string{store.TypeForum, store.TypeNetwork, store.TypePriorityArea, store.TypeActionGroup}

// Directory is the slice of the store client the handlers depend on.
type Directory interface {
	MemberByID(ctx context.Context, id string) (*store.Member, error)
	SearchMembers(ctx context.Context, prefix string, limit int) ([]store.MemberSummary, error)
	MembersByEmail(ctx context.Context, email string) ([]store.MemberSummary, error)
	Countries(ctx context.Context) ([]store.Country, error)
	Categories(ctx context.Context, types []string) ([]store.Category, error)
	MembershipsForMember(ctx context.Context, memberID string) ([]store.Membership, error)
	MembershipFor(ctx context.Context, memberID, categoryID string) (*store.Membership, error)
	Commit(ctx context.Context, tx *store.Transaction) (*store.CommitResult, error)
	Ping(ctx context.Context) error
}

// JoinHandler implements the magic-link flow: request a link, verify it,
// prefill the form, and submit membership updates.
type JoinHandler struct {
	store   Directory
	signer  *token.Signer
	mail    *mailer.Mailer
	baseURL string
	logger  *log.Logger
}

// NewJoinHandler creates a JoinHandler with the provided collaborators.
func NewJoinHandler(d Directory, signer *token.Signer, mail *mailer.Mailer, baseURL string, logger *log.Logger) *JoinHandler {
	return &JoinHandler{store: d, signer: signer, mail: mail, baseURL: baseURL, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *JoinHandler) Routes() []string {
	return []string{"/api/join/request-link", "/join/verify", "/api/join/prefill", "/api/join/submit"}
}

// ServeHTTP dispatches to the flow step matching the request path.
func (h *JoinHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/join/request-link":
		h.requestLink(w, r)
	case "/join/verify":
		h.verify(w, r)
	case "/api/join/prefill":
		h.prefill(w, r)
	case "/api/join/submit":
		h.submit(w, r)
	default:
		fail(w, http.StatusNotFound, "not found")
	}
}

type requestLinkPayload struct {
	MemberID string `json:"memberId"`
	Email    string `json:"email"`
}

// requestLink issues a signed link after checking the email is on the
// member's record. Email-not-on-record is an authorization failure, kept
// distinct from an unknown member.
func (h *JoinHandler) requestLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload requestLinkPayload
	if err := decodeJSON(r, &payload); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}
	email := normalize.Text(payload.Email)
	if payload.MemberID == "" || email == "" {
		fail(w, http.StatusBadRequest, "memberId and email are required")
		return
	}

	member, err := h.store.MemberByID(r.Context(), payload.MemberID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			fail(w, http.StatusNotFound, "member not found")
			return
		}
		h.logger.Error("member lookup failed", "err", err)
		fail(w, http.StatusBadGateway, "store unavailable")
		return
	}

	if !emailOnRecord(member.Emails, email) {
		fail(w, http.StatusForbidden, "email not on record for this member")
		return
	}

	signed, err := h.signer.Issue(member.ID, email)
	if err != nil {
		h.logger.Error("token issue failed", "err", err)
		fail(w, http.StatusInternalServerError, "could not issue link")
		return
	}

	link := fmt.Sprintf("%s/join/verify?token=%s", h.baseURL, url.QueryEscape(signed))
	result, err := h.mail.SendMagicLink(r.Context(), email, member.Title, link)
	if err != nil {
		h.logger.Error("magic link send failed", "err", err)
		fail(w, http.StatusBadGateway, "could not send email")
		return
	}

	body := map[string]any{"sent": result.Sent()}
	if result.PreviewURL != "" {
		body["previewUrl"] = result.PreviewURL
	}
	respond(w, http.StatusOK, body)
}

// verify checks the link and redirects into the edit form. Signature and
// expiry failures share one generic message.
func (h *JoinHandler) verify(w http.ResponseWriter, r *http.Request) {
	claims, err := h.signer.Verify(r.URL.Query().Get("token"))
	if err != nil {
		fail(w, http.StatusBadRequest, "link invalid or expired")
		return
	}

	target := fmt.Sprintf("%s/join/apply?member=%s&token=%s",
		h.baseURL, url.QueryEscape(claims.MemberID), url.QueryEscape(r.URL.Query().Get("token")))
	http.Redirect(w, r, target, http.StatusFound)
}

// prefill returns the categories plus the member's existing memberships so
// the form can render current state.
func (h *JoinHandler) prefill(w http.ResponseWriter, r *http.Request) {
	claims, err := h.signer.Verify(r.URL.Query().Get("token"))
	if err != nil {
		fail(w, http.StatusUnauthorized, "link invalid or expired")
		return
	}

	member, err := h.store.MemberByID(r.Context(), claims.MemberID)
	if err != nil {
		fail(w, http.StatusNotFound, "member not found")
		return
	}

	categories, err := h.store.Categories(r.Context(), categoryTypes)
	if err != nil {
		h.logger.Error("category fetch failed", "err", err)
		fail(w, http.StatusBadGateway, "store unavailable")
		return
	}
	memberships, err := h.store.MembershipsForMember(r.Context(), claims.MemberID)
	if err != nil {
		h.logger.Error("membership fetch failed", "err", err)
		fail(w, http.StatusBadGateway, "store unavailable")
		return
	}

	respond(w, http.StatusOK, map[string]any{
		"member":      map[string]any{"id": member.ID, "title": member.Title, "website": member.Website},
		"categories":  categories,
		"memberships": memberships,
	})
}

type submitPayload struct {
	Token      string `json:"token"`
	Selections []struct {
		CategoryID   string `json:"categoryId"`
		Contribution string `json:"contribution"`
		Website      string `json:"website"`
	} `json:"selections"`
}

// submit upserts one membership per selected category: an existing
// (member, category) link is patched in place, anything else is created.
// Re-submission therefore never duplicates a link.
func (h *JoinHandler) submit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		fail(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	var payload submitPayload
	if err := decodeJSON(r, &payload); err != nil {
		fail(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims, err := h.signer.Verify(payload.Token)
	if err != nil {
		fail(w, http.StatusUnauthorized, "link invalid or expired")
		return
	}
	if len(payload.Selections) == 0 {
		fail(w, http.StatusBadRequest, "no selections submitted")
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

	tx := store.NewTransaction()
	created, updated := 0, 0
	for _, sel := range payload.Selections {
		existing, err := h.store.MembershipFor(r.Context(), claims.MemberID, sel.CategoryID)
		if err != nil {
			h.logger.Error("membership lookup failed", "err", err)
			fail(w, http.StatusBadGateway, "store unavailable")
			return
		}
		if existing != nil {
			tx.Patch(existing.ID, map[string]any{
				"contribution": normalize.Text(sel.Contribution),
				"website":      normalize.FixURL(sel.Website),
			}, nil)
			updated++
			continue
		}
		tx.Create(store.Membership{
			Type:         "membership",
			Member:       store.Ref(claims.MemberID),
			Category:     store.Ref(sel.CategoryID),
			Contribution: normalize.Text(sel.Contribution),
			Website:      normalize.FixURL(sel.Website),
			Since:        normalize.TodayISO(),
			Status:       store.StatusSubmitted,
		})
		created++
	}

	if _, err := h.store.Commit(r.Context(), tx); err != nil {
		h.logger.Error("membership commit failed", "err", err)
		fail(w, http.StatusBadGateway, "could not save memberships")
		return
	}

	respond(w, http.StatusOK, map[string]any{"created": created, "updated": updated})
}

func emailOnRecord(onRecord []string, email string) bool {
	for _, e := range onRecord {
		if normalize.Key(e) == normalize.Key(email) {
			return true
		}
	}
	return false
}
