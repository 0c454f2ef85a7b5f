package newsletter

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"github.com/photoshare/photoshare-api/internal/domain"
)

// Mailer delivers a single message. Kept as an interface so the sender
// can be tested without an SMTP server.
type Mailer interface {
	Send(to, subject, htmlBody string) error
}

type SMTPMailer struct {
	addr string
	from string
}

func NewSMTPMailer(addr, from string) *SMTPMailer {
	return &SMTPMailer{addr: addr, from: from}
}

func (m *SMTPMailer) Send(to, subject, htmlBody string) error {
	var msg strings.Builder
	msg.WriteString("From: " + m.from + "\r\n")
	msg.WriteString("To: " + to + "\r\n")
	msg.WriteString("Subject: " + subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)
	return smtp.SendMail(m.addr, nil, m.from, []string{to}, []byte(msg.String()))
}

// RecipientSource lists the users eligible for the newsletter.
type RecipientSource interface {
	ActiveUsersCreatedSince(since time.Time) ([]domain.User, error)
}

// Sender emails every active user who registered within the lookback
// window.
type Sender struct {
	users    RecipientSource
	mailer   Mailer
	lookback time.Duration
}

func NewSender(users RecipientSource, mailer Mailer, lookback time.Duration) *Sender {
	return &Sender{users: users, mailer: mailer, lookback: lookback}
}

const subject = "Welcome to the community"

func body(u *domain.User) string {
	return fmt.Sprintf("<html><body><p>Hi %s!</p><p>Thanks for joining recently. Your photos are live and waiting for visitors.</p></body></html>", u.FirstName)
}

// Run sends the newsletter and reports one detail line per recipient.
// In dry-run mode recipients are listed without sending anything.
func (s *Sender) Run(ctx context.Context, dryRun bool) ([]string, error) {
	since := time.Now().Add(-s.lookback)
	users, err := s.users.ActiveUsersCreatedSince(since)
	if err != nil {
		return nil, fmt.Errorf("load recipients: %w", err)
	}
	details := make([]string, 0, len(users)+1)
	if len(users) == 0 {
		return []string{"no recipients in window"}, nil
	}
	for i := range users {
		u := &users[i]
		if err := ctx.Err(); err != nil {
			return details, err
		}
		if dryRun {
			details = append(details, "would send to "+u.Email)
			continue
		}
		if err := s.mailer.Send(u.Email, subject, body(u)); err != nil {
			return details, fmt.Errorf("send to %s: %w", u.Email, err)
		}
		details = append(details, "sent to "+u.Email)
	}
	return details, nil
}
