// Package notify sends best-effort operational email. The only producer today
// is the escalation flow: when a visitor leaves contact details for an
// unanswered question, the property team gets a short alert. Delivery
// failures are reported to the caller and never retried.
package notify

import (
	"context"
	"fmt"
	"strings"

	gomail "gopkg.in/gomail.v2"

	"github.com/propdesk/go-guidebook-backend/internal/domain"
)

// Mailer delivers escalation alerts over SMTP.
type Mailer struct {
	dialer *gomail.Dialer
	from   string
	to     []string
}

// NewMailer builds a Mailer. to lists the staff recipients of every alert.
func NewMailer(host string, port int, user, pass, from string, to []string) *Mailer {
	return &Mailer{
		dialer: gomail.NewDialer(host, port, user, pass),
		from:   from,
		to:     to,
	}
}

// EscalationAlert emails the escalated question plus the visitor's contact
// details. The context is accepted for interface symmetry; gomail has no
// cancellation hook.
func (m *Mailer) EscalationAlert(_ context.Context, e *domain.Escalation, g *domain.Guidebook) error {
	if len(m.to) == 0 {
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "A guest question needs follow-up.\r\n\r\n")
	fmt.Fprintf(&b, "Guidebook: %s\r\n", g.Title)
	fmt.Fprintf(&b, "Question:  %s\r\n", e.Question)
	fmt.Fprintf(&b, "Reason:    %s\r\n\r\n", e.Reason)
	if e.Phone != "" {
		fmt.Fprintf(&b, "Phone: %s\r\n", e.Phone)
	}
	if e.Email != "" {
		fmt.Fprintf(&b, "Email: %s\r\n", e.Email)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", m.to...)
	msg.SetHeader("Subject", fmt.Sprintf("Guest follow-up needed: %s", g.Title))
	msg.SetBody("text/plain", b.String())

	return m.dialer.DialAndSend(msg)
}
