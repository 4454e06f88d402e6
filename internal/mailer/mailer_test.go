package mailer

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/resend/resend-go/v2"

	"github.com/hesi-tools/memberdir/internal/shared"
)

type fakeSender struct {
	last *resend.SendEmailRequest
	err  error
}

func (f *fakeSender) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	f.last = params
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "email.1"}, nil
}

func TestSendMagicLink(t *testing.T) {
	logger := shared.NewLogger(io.Discard)

	t.Run("Unconfigured Falls Back To Preview", func(t *testing.T) {
		m := New(shared.MailConfig{From: "no-reply@example.com"}, logger)
		if m.Configured() {
			t.Fatal("mailer without API key reports configured")
		}

		res, err := m.SendMagicLink(context.Background(), "a@test.edu", "Test University", "https://example.com/join/verify?token=x")
		if err != nil {
			t.Fatalf("SendMagicLink: %v", err)
		}
		if res.Sent() {
			t.Error("preview result reports sent")
		}
		if res.PreviewURL != "https://example.com/join/verify?token=x" {
			t.Errorf("preview url = %q", res.PreviewURL)
		}
	})

	t.Run("Configured Sends Email", func(t *testing.T) {
		m := New(shared.MailConfig{APIKey: "re_test", From: "no-reply@example.com"}, logger)
		fake := &fakeSender{}
		m.emails = fake

		res, err := m.SendMagicLink(context.Background(), "a@test.edu", "Test University", "https://example.com/join/verify?token=x")
		if err != nil {
			t.Fatalf("SendMagicLink: %v", err)
		}
		if !res.Sent() || res.SentID != "email.1" {
			t.Errorf("result = %+v", res)
		}
		if fake.last == nil {
			t.Fatal("no request captured")
		}
		if fake.last.From != "no-reply@example.com" {
			t.Errorf("from = %q", fake.last.From)
		}
		if len(fake.last.To) != 1 || fake.last.To[0] != "a@test.edu" {
			t.Errorf("to = %v", fake.last.To)
		}
	})

	t.Run("Escapes Title In HTML Body", func(t *testing.T) {
		m := New(shared.MailConfig{APIKey: "re_test", From: "no-reply@example.com"}, logger)
		fake := &fakeSender{}
		m.emails = fake

		_, err := m.SendMagicLink(context.Background(), "a@test.edu", `<script>alert(1)</script> & Co`, "https://example.com")
		if err != nil {
			t.Fatalf("SendMagicLink: %v", err)
		}
		if strings.Contains(fake.last.Html, "<script>") {
			t.Errorf("title markup not escaped: %s", fake.last.Html)
		}
		if !strings.Contains(fake.last.Html, "&lt;script&gt;alert(1)&lt;/script&gt; &amp; Co") {
			t.Errorf("escaped title missing from body: %s", fake.last.Html)
		}
	})

	t.Run("Send Failure Wraps ErrMailSend", func(t *testing.T) {
		m := New(shared.MailConfig{APIKey: "re_test", From: "no-reply@example.com"}, logger)
		m.emails = &fakeSender{err: errors.New("provider down")}

		_, err := m.SendMagicLink(context.Background(), "a@test.edu", "Test University", "https://example.com")
		if !errors.Is(err, shared.ErrMailSend) {
			t.Errorf("expected ErrMailSend, got %v", err)
		}
	})
}
