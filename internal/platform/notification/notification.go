// Package notification sends clinic emails and records every delivery
// attempt. Recording a delivery never fails the caller.
package notification

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicops/practice/internal/platform/metrics"
)

// Channel is the medium a notification travels through.
type Channel string

const ChannelEmail Channel = "email"

// Notification is one outbound message.
type Notification struct {
	ID           string            `json:"id"`
	Channel      Channel           `json:"channel"`
	Recipient    string            `json:"recipient"`
	Subject      string            `json:"subject,omitempty"`
	Body         string            `json:"body"`
	TemplateID   string            `json:"template_id,omitempty"`
	ResourceType string            `json:"resource_type,omitempty"`
	ResourceID   string            `json:"resource_id,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// EmailSender delivers one email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template is a message with {{key}} placeholders.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine renders registered templates.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// TemplateTelehealthLink is sent when a visit link is shared with a patient.
const TemplateTelehealthLink = "telehealth-link"

// NewTemplateEngine creates an engine with the built-in templates.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]Template)}
	e.RegisterTemplate(Template{
		ID:      TemplateTelehealthLink,
		Subject: "Your video visit link",
		Body: "Your clinic has scheduled a video visit. Join using this link: {{url}}\n" +
			"The link is valid until {{expires_at}}.",
	})
	return e
}

// RegisterTemplate adds or replaces a template.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = t
}

// Render fills the template's placeholders from data. Unknown placeholders
// are left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject, body = t.Subject, t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Notifier sends notifications and logs each attempt to the delivery log.
type Notifier struct {
	email     EmailSender
	templates *TemplateEngine
	log       *DeliveryLog
	logger    zerolog.Logger
}

func NewNotifier(email EmailSender, templates *TemplateEngine, log *DeliveryLog, logger zerolog.Logger) *Notifier {
	return &Notifier{email: email, templates: templates, log: log, logger: logger}
}

// Send delivers n and records the outcome. The send error is returned; the
// delivery log write never is.
func (n *Notifier) Send(ctx context.Context, msg *Notification) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Channel == "" {
		msg.Channel = ChannelEmail
	}

	var sendErr error
	switch msg.Channel {
	case ChannelEmail:
		sendErr = n.email.SendEmail(ctx, msg.Recipient, msg.Subject, msg.Body)
	default:
		sendErr = fmt.Errorf("unsupported channel: %s", msg.Channel)
	}

	entry := Entry{
		NotificationID: msg.ID,
		Channel:        msg.Channel,
		Recipient:      msg.Recipient,
		TemplateID:     msg.TemplateID,
		ResourceType:   msg.ResourceType,
		ResourceID:     msg.ResourceID,
		Status:         StatusSent,
		AttemptedAt:    time.Now().UTC(),
	}
	if sendErr != nil {
		entry.Status = StatusFailed
		entry.Error = sendErr.Error()
		n.logger.Warn().Err(sendErr).Str("notification_id", msg.ID).Str("channel", string(msg.Channel)).Msg("notification delivery failed")
	}
	metrics.DeliveriesTotal.WithLabelValues(string(msg.Channel), string(entry.Status)).Inc()
	n.log.LogDelivery(ctx, entry)

	return sendErr
}

// SendTemplate renders templateID and sends it to recipient.
func (n *Notifier) SendTemplate(ctx context.Context, templateID, recipient string, data map[string]string, resourceType, resourceID string) error {
	subject, body, err := n.templates.Render(templateID, data)
	if err != nil {
		return err
	}
	return n.Send(ctx, &Notification{
		Channel:      ChannelEmail,
		Recipient:    recipient,
		Subject:      subject,
		Body:         body,
		TemplateID:   templateID,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	})
}

// LogSender writes emails to the log instead of sending them.
type LogSender struct {
	logger zerolog.Logger
}

func NewLogSender(logger zerolog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) SendEmail(_ context.Context, to, subject, _ string) error {
	s.logger.Info().Str("to", to).Str("subject", subject).Msg("email not sent: no provider configured")
	return nil
}
