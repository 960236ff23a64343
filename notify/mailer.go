package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	auth "github.com/hirewell/go-auth"
)

// Template ids, resolved by the Renderer.
const (
	TemplateVerification      = "verification_email"
	TemplatePasswordReset     = "password_reset_email"
	TemplateTemporaryPassword = "temporary_password"
	TemplateInterviewInvite   = "interview_invitation"
	TemplateInterviewMove     = "interview_reschedule"
	TemplateInterviewCancel   = "interview_cancellation"
	TemplateApplicationStatus = "application_status_update"
)

const defaultCancellationReason = "No specific reason provided."

// Queue accepts composed messages for asynchronous delivery.
type Queue interface {
	Dispatch(msg Message) bool
}

// Mailer composes the transactional emails. Rendering happens on the
// caller's goroutine; when a template fails the plain text fallback is used
// for both bodies so the essential content is always delivered.
type Mailer struct {
	renderer    Renderer
	queue       Queue
	frontendURL string
	logger      auth.Logger
	now         func() time.Time
}

// MailerOption configures a Mailer.
type MailerOption func(*Mailer)

// WithMailerLogger sets the logger.
func WithMailerLogger(logger auth.Logger) MailerOption {
	return func(m *Mailer) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithMailerClock overrides the time source.
func WithMailerClock(now func() time.Time) MailerOption {
	return func(m *Mailer) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMailer creates a mailer. frontendURL prefixes links sent to users.
func NewMailer(renderer Renderer, queue Queue, cfg Config, opts ...MailerOption) *Mailer {
	cfg = cfg.withDefaults()

	m := &Mailer{
		renderer:    renderer,
		queue:       queue,
		frontendURL: cfg.FrontendURL,
		logger:      auth.DefaultLogger(),
		now:         time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	return m
}

// SendVerificationEmail sends the email verification code.
func (m *Mailer) SendVerificationEmail(email, code string) bool {
	fallback := fmt.Sprintf("Your verification code is: %s", code)
	return m.send(email, "Verify Your Email Address", TemplateVerification, map[string]any{
		"verification_code": code,
	}, fallback, "")
}

// SendPasswordResetEmail sends a link to the frontend reset page.
func (m *Mailer) SendPasswordResetEmail(email, token string) bool {
	link := m.frontendURL + "/reset-password?token=" + url.QueryEscape(token)
	fallback := fmt.Sprintf("Reset your password using this link: %s", link)
	return m.send(email, "Password Reset Request", TemplatePasswordReset, map[string]any{
		"reset_link": link,
	}, fallback, "")
}

// SendTemporaryPassword sends an administrator issued password.
func (m *Mailer) SendTemporaryPassword(email, password, firstName string) bool {
	text := fmt.Sprintf("Hello %s,\n\nYour temporary password is: %s", firstName, password)
	return m.send(email, "Your Temporary Password", TemplateTemporaryPassword, map[string]any{
		"password":     password,
		"first_name":   firstName,
		"current_year": m.now().Year(),
	}, text, text)
}

// SendInterviewInvitation announces a scheduled interview.
func (m *Mailer) SendInterviewInvitation(email, candidateName, interviewDate, interviewType, meetingLink string) bool {
	fallback := fmt.Sprintf("Hi %s, your %s interview is scheduled on %s. Link: %s",
		candidateName, interviewType, interviewDate, meetingLink)
	return m.send(email, "Interview Invitation", TemplateInterviewInvite, map[string]any{
		"candidate_name": candidateName,
		"interview_date": interviewDate,
		"interview_type": interviewType,
		"meeting_link":   meetingLink,
	}, fallback, "")
}

// SendInterviewReschedule announces a moved interview.
func (m *Mailer) SendInterviewReschedule(email, candidateName, oldTime, newTime, interviewType, meetingLink string) bool {
	fallback := fmt.Sprintf("Hi %s, your %s interview has been rescheduled from %s to %s. Link: %s",
		candidateName, interviewType, oldTime, newTime, meetingLink)
	return m.send(email, "Interview Rescheduled", TemplateInterviewMove, map[string]any{
		"candidate_name": candidateName,
		"old_time":       oldTime,
		"new_time":       newTime,
		"interview_type": interviewType,
		"meeting_link":   meetingLink,
	}, fallback, "")
}

// SendInterviewCancellation announces a cancelled interview. An empty reason
// is replaced with a stock sentence.
func (m *Mailer) SendInterviewCancellation(email, candidateName, interviewDate, interviewType, reason string) bool {
	if strings.TrimSpace(reason) == "" {
		reason = defaultCancellationReason
	}
	fallback := fmt.Sprintf("Hi %s, your %s interview scheduled on %s has been cancelled.\nReason: %s",
		candidateName, interviewType, interviewDate, reason)
	text := fmt.Sprintf("Hi %s,\n\nYour %s interview scheduled on %s has been cancelled.\nReason: %s\n\nPlease contact us for rescheduling.",
		candidateName, interviewType, interviewDate, reason)
	return m.send(email, "Interview Cancellation Notice", TemplateInterviewCancel, map[string]any{
		"candidate_name": candidateName,
		"interview_date": interviewDate,
		"interview_type": interviewType,
		"reason":         reason,
	}, fallback, text)
}

// SendApplicationStatusUpdate tells a candidate their application moved.
func (m *Mailer) SendApplicationStatusUpdate(email, candidateName, status, positionTitle string) bool {
	subjectPosition := positionTitle
	if strings.TrimSpace(subjectPosition) == "" {
		subjectPosition = "your position"
	}
	fallback := fmt.Sprintf("Hi %s, your application for %s status is: %s",
		candidateName, positionTitle, status)
	return m.send(email, "Application Update for "+subjectPosition, TemplateApplicationStatus, map[string]any{
		"candidate_name": candidateName,
		"status":         status,
		"position_title": positionTitle,
	}, fallback, "")
}

// send renders the template, falling back to fallback for both bodies when
// rendering fails, and hands the message to the queue. text is the plain
// body used alongside a successfully rendered template.
func (m *Mailer) send(email, subject, template string, data map[string]any, fallback, text string) bool {
	email = strings.TrimSpace(email)
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		m.logger.Warn("notification skipped, invalid recipient", "template", template, "error", err)
		return false
	}

	html, err := m.render(template, data)
	if err != nil {
		m.logger.Error("email template render failed, using fallback", "template", template, "to", email, "error", err)
		html = fallback
		text = fallback
	}

	if m.queue == nil {
		m.logger.Error("notification dropped, no dispatcher", "template", template)
		return false
	}

	return m.queue.Dispatch(Message{
		Subject:    subject,
		Recipients: []string{email},
		HTML:       html,
		Text:       text,
	})
}

func (m *Mailer) render(template string, data map[string]any) (html string, err error) {
	if m.renderer == nil {
		return "", ErrRendererUnavailable
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("template %s panicked: %v", template, r)
		}
	}()
	return m.renderer.Render(template, data)
}
