// Package alerts delivers hot-lead escalation emails to the consultant team.
// Escalation events are queued through asynq when Redis is configured and
// delivered inline otherwise; delivery failure never reaches the sender's
// conversation.
package alerts

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"net"
	"time"

	"leadbot_backend/platform/config"

	gomail "github.com/wneessen/go-mail"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const subjectHotLeadFmt = "🔥 Hot Lead Alert: %s"

// Sender delivers hot-lead alert emails over SMTP.
type Sender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	recipient string
}

// NewSender creates an SMTP alert sender from config.
func NewSender(cfg config.AlertConfig) *Sender {
	return &Sender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUser(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetAlertFromName(),
		recipient: cfg.GetAlertRecipient(),
	}
}

// SendHotLeadAlert renders and delivers one escalation email.
func (s *Sender) SendHotLeadAlert(ctx context.Context, payload HotLeadPayload) error {
	if payload.Name == "" {
		payload.Name = payload.Phone
	}

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, "hot_lead.html", payload); err != nil {
		return fmt.Errorf("render alert template: %w", err)
	}

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.username); err != nil {
		return fmt.Errorf("alert from: %w", err)
	}
	if err := msg.To(s.recipient); err != nil {
		return fmt.Errorf("alert to: %w", err)
	}
	msg.Subject(fmt.Sprintf(subjectHotLeadFmt, payload.Name))
	msg.SetBodyString(gomail.TypeTextHTML, body.String())

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("alert smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("alert smtp send: %w", err)
	}

	return nil
}
