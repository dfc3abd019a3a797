package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"

	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"

	"github.com/xavierca1/homni-leads/internal/entity"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templates = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

var statusLabels = map[entity.LeadStatus]string{
	entity.StatusNew:         "Ny",
	entity.StatusQualified:   "Kvalifisert",
	entity.StatusContacted:   "Kontaktet",
	entity.StatusNegotiating: "Under forhandling",
	entity.StatusConverted:   "Avtale inngått",
	entity.StatusLost:        "Avsluttet",
	entity.StatusPaused:      "På vent",
}

func NewEmailSender(host string, port int, user, password, from string) *EmailSender {
	return &EmailSender{
		Host:     host,
		Port:     port,
		User:     user,
		Password: password,
		From:     from,
		dialer:   gomail.NewDialer(host, port, user, password),
	}
}

// WithDialer swaps the SMTP dialer.
func (s *EmailSender) WithDialer(d Dialer) *EmailSender {
	s.dialer = d
	return s
}

func (s *EmailSender) Enabled() bool {
	return s != nil && s.Host != ""
}

// HandleLeadCreated sends the customer a receipt and, when configured, a copy to
// the internal inbox. Only a failed receipt is returned.
func (s *EmailSender) HandleLeadCreated(ctx context.Context, event entity.LeadEvent) error {
	if !s.Enabled() {
		return nil
	}
	data := dataFor(event)

	if event.CustomerEmail != "" {
		subject := fmt.Sprintf("Vi har mottatt forespørselen din: %s", event.Title)
		if err := s.send(event.CustomerEmail, subject, "lead_received.html", data); err != nil {
			return err
		}
	}

	// The internal copy is best-effort. Returning its error would redeliver the
	// event and send the customer a second receipt.
	if s.NotifyInbox != "" {
		subject := fmt.Sprintf("[lead] %s (%s)", event.Title, event.Category)
		if err := s.send(s.NotifyInbox, subject, "lead_internal.html", data); err != nil {
			logrus.WithError(err).WithField("lead_id", event.LeadID).Warn("internal lead copy not sent")
		}
	}
	return nil
}

// HandleStatusChanged tells the customer about the new status. Moves into or
// out of paused are internal and are skipped.
func (s *EmailSender) HandleStatusChanged(ctx context.Context, event entity.LeadEvent) error {
	if !s.Enabled() || event.CustomerEmail == "" {
		return nil
	}
	if event.Status == entity.StatusPaused || event.PreviousStatus == entity.StatusPaused {
		return nil
	}

	data := dataFor(event)
	subject := fmt.Sprintf("Oppdatering på forespørselen din: %s", data.StatusLabel)
	return s.send(event.CustomerEmail, subject, "lead_status.html", data)
}

func (s *EmailSender) send(to, subject, tmpl string, data LeadEmailData) error {
	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("render %s: %w", tmpl, err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body.String())

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email via smtp: %w", err)
	}

	logrus.WithFields(logrus.Fields{"to": to, "template": tmpl}).Info("📧 email sent")
	return nil
}

func dataFor(event entity.LeadEvent) LeadEmailData {
	label, ok := statusLabels[event.Status]
	if !ok {
		label = string(event.Status)
	}
	return LeadEmailData{
		CustomerName: event.CustomerName,
		Title:        event.Title,
		Category:     event.Category,
		StatusLabel:  label,
		LeadID:       event.LeadID,
	}
}
