// package mailer delivers magic-link emails through Resend. Without an API
// key the link is returned as a preview instead of sent, which keeps local
// development working with no mail account.
package mailer

import (
	"context"
	"fmt"
	"html"

	"github.com/charmbracelet/log"
	"github.com/resend/resend-go/v2"

	"github.com/hesi-tools/memberdir/internal/shared"
)

// Result reports how a link left the process: SentID is the provider
// message ID on real delivery, PreviewURL the fallback when mail is not
// configured. Exactly one is set.
type Result struct {
	SentID     string
	PreviewURL string
}

// Sent reports whether the link went out by email.
func (r Result) Sent() bool { return r.SentID != "" }

type sender interface {
	SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error)
}

// Mailer sends directory emails from one configured address.
type Mailer struct {
	emails sender
	from   string
	logger *log.Logger
}

// New builds a mailer from configuration. With no API key the mailer is
// valid but unconfigured: every send falls back to a preview URL.
func New(cfg shared.MailConfig, logger *log.Logger) *Mailer {
	m := &Mailer{from: cfg.From, logger: logger}
	if cfg.APIKey != "" {
		m.emails = resend.NewClient(cfg.APIKey).Emails
	}
	return m
}

// Configured reports whether a mail provider is wired up.
func (m *Mailer) Configured() bool { return m.emails != nil }

// SendMagicLink emails the verification link to one recipient. When the
// provider is unconfigured the link comes back as a preview; when a
// configured send fails the error wraps [shared.ErrMailSend].
func (m *Mailer) SendMagicLink(ctx context.Context, to, memberTitle, link string) (Result, error) {
	if m.emails == nil {
		m.logger.Warn("mail provider not configured, returning preview link", "to", to)
		return Result{PreviewURL: link}, nil
	}

	subject := "Your update link for the community directory"
	text := fmt.Sprintf(
		"Hello,\n\nUse the link below to update the directory entry for %s. The link expires in 20 minutes.\n\n%s\n\nIf you did not request this, ignore this email.\n",
		memberTitle, link,
	)
	// Titles are operator-entered text; never trust them as markup.
	body := fmt.Sprintf(
		`<p>Hello,</p><p>Use the link below to update the directory entry for <strong>%s</strong>. The link expires in 20 minutes.</p><p><a href="%s">Update your entry</a></p><p>If you did not request this, ignore this email.</p>`,
		html.EscapeString(memberTitle), link,
	)

	resp, err := m.emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Text:    text,
		Html:    body,
	})
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", shared.ErrMailSend, err)
	}

	m.logger.Info("magic link sent", "to", to, "id", resp.Id)
	return Result{SentID: resp.Id}, nil
}
