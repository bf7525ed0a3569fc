// Package notify sends transactional emails over SMTP.
package notify

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"mime/multipart"
	"net/smtp"
	"net/textproto"

	"github.com/illegalcall/esgtracker/internal/config"
	"github.com/illegalcall/esgtracker/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	TemplatePaymentFailed       = "payment_failed"
	TemplateSubscriptionChanged = "subscription_changed"
)

var ErrNotConfigured = errors.New("email configuration not complete")

type Mailer interface {
	Send(ctx context.Context, payload models.SendEmailPayload) error
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg       config.EmailConfig
	templates *template.Template
	send      sendFunc
}

func NewSMTPMailer(cfg config.EmailConfig) (*SMTPMailer, error) {
	if cfg.From == "" || cfg.Password == "" || cfg.Host == "" || cfg.Port == "" {
		return nil, ErrNotConfigured
	}
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse email templates: %w", err)
	}
	return &SMTPMailer{cfg: cfg, templates: tmpl, send: smtp.SendMail}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, payload models.SendEmailPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := m.render(payload)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", m.cfg.From, m.cfg.Password, m.cfg.Host)
	addr := fmt.Sprintf("%s:%s", m.cfg.Host, m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{payload.Recipient}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	slog.Info("Email sent successfully", "recipient", payload.Recipient, "subject", payload.Subject)
	return nil
}

func (m *SMTPMailer) render(payload models.SendEmailPayload) ([]byte, error) {
	if payload.Recipient == "" || payload.Subject == "" {
		return nil, fmt.Errorf("recipient and subject are required")
	}

	var body bytes.Buffer
	if err := m.templates.ExecuteTemplate(&body, payload.TemplateName+".html", payload); err != nil {
		return nil, fmt.Errorf("failed to execute template %q: %w", payload.TemplateName, err)
	}

	var msg bytes.Buffer
	mw := multipart.NewWriter(&msg)

	msg.WriteString("MIME-version: 1.0;\r\n")
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.cfg.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", payload.Recipient))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", payload.Subject))
	msg.WriteString(fmt.Sprintf("Content-Type: multipart/mixed; boundary=%s\r\n", mw.Boundary()))
	msg.WriteString("\r\n")

	h := make(textproto.MIMEHeader)
	h.Set("Content-Type", "text/html; charset=UTF-8")
	pw, err := mw.CreatePart(h)
	if err != nil {
		return nil, fmt.Errorf("failed to create email body part: %w", err)
	}
	if _, err := pw.Write(body.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to write email body: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return msg.Bytes(), nil
}
