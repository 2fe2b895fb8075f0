// Package notification delivers transactional email for the clinic with
// template rendering and a test double for the transport.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// Template defines a reusable notification template.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine manages notification templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates
// pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateAppointmentConfirmed,
			Subject: "Confirmación de turno - {{date}}",
			Body:    "Hola {{patient_name}},\n\nTu turno fue reservado para el {{date}} a las {{time}}.\n\nSi no podés asistir, cancelalo desde tu cuenta con anticipación.\n\nConsultorio",
		},
		{
			ID:      TemplateAppointmentCancelled,
			Subject: "Cancelación de turno - {{date}}",
			Body:    "Hola {{patient_name}},\n\nTu turno del {{date}} a las {{time}} fue cancelado.\n\nPodés reservar un nuevo turno desde tu cuenta.\n\nConsultorio",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

const (
	TemplateAppointmentConfirmed = "appointment-confirmed"
	TemplateAppointmentCancelled = "appointment-cancelled"
)

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are
// left as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Mailer renders appointment templates and hands them to the transport.
// Delivery failures are logged, not returned: a booking must not fail
// because the mail server is down.
type Mailer struct {
	sender    EmailSender
	templates *TemplateEngine
	logger    zerolog.Logger
}

func NewMailer(sender EmailSender, templates *TemplateEngine, logger zerolog.Logger) *Mailer {
	return &Mailer{sender: sender, templates: templates, logger: logger}
}

// SendAppointmentConfirmation notifies a patient that their appointment was
// booked.
func (m *Mailer) SendAppointmentConfirmation(ctx context.Context, to, patientName, date, timeOfDay string) {
	m.send(ctx, TemplateAppointmentConfirmed, to, patientName, date, timeOfDay)
}

// SendAppointmentCancellation notifies a patient that their appointment was
// cancelled.
func (m *Mailer) SendAppointmentCancellation(ctx context.Context, to, patientName, date, timeOfDay string) {
	m.send(ctx, TemplateAppointmentCancelled, to, patientName, date, timeOfDay)
}

func (m *Mailer) send(ctx context.Context, templateID, to, patientName, date, timeOfDay string) {
	subject, body, err := m.templates.Render(templateID, map[string]string{
		"patient_name": patientName,
		"date":         date,
		"time":         timeOfDay,
	})
	if err != nil {
		m.logger.Error().Err(err).Str("template", templateID).Msg("render notification")
		return
	}

	if err := m.sender.SendEmail(ctx, to, subject, body); err != nil {
		m.logger.Error().Err(err).
			Str("template", templateID).
			Str("recipient", to).
			Msg("send notification")
		return
	}

	m.logger.Info().
		Str("template", templateID).
		Str("recipient", to).
		Msg("notification sent")
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}
