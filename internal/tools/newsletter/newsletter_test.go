package newsletter

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/photoshare/photoshare-api/internal/domain"
)

type recipientRepo struct {
	users []domain.User
	since time.Time
	err   error
}

func (r *recipientRepo) ActiveUsersCreatedSince(since time.Time) ([]domain.User, error) {
	r.since = since
	return r.users, r.err
}

type recordingMailer struct {
	sent []string
	body string
	err  error
}

func (m *recordingMailer) Send(to, subject, htmlBody string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, to)
	m.body = htmlBody
	return nil
}

func TestRunSendsToRecentUsers(t *testing.T) {
	repo := &recipientRepo{users: []domain.User{
		{FirstName: "Ana", Email: "ana@example.com"},
		{FirstName: "Bob", Email: "bob@example.com"},
	}}
	mailer := &recordingMailer{}
	sender := NewSender(repo, mailer, 7*24*time.Hour)

	details, err := sender.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mailer.sent) != 2 || mailer.sent[0] != "ana@example.com" {
		t.Fatalf("unexpected recipients: %v", mailer.sent)
	}
	if len(details) != 2 || details[1] != "sent to bob@example.com" {
		t.Fatalf("unexpected details: %v", details)
	}
	if !strings.Contains(mailer.body, "Hi Bob!") {
		t.Fatalf("greeting missing from body: %s", mailer.body)
	}
	if time.Since(repo.since) < 7*24*time.Hour-time.Minute {
		t.Fatalf("lookback window not applied: %v", repo.since)
	}
}

func TestRunDryRunSendsNothing(t *testing.T) {
	repo := &recipientRepo{users: []domain.User{{FirstName: "Ana", Email: "ana@example.com"}}}
	mailer := &recordingMailer{}
	sender := NewSender(repo, mailer, time.Hour)

	details, err := sender.Run(context.Background(), true)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatalf("dry run must not send, sent %v", mailer.sent)
	}
	if len(details) != 1 || details[0] != "would send to ana@example.com" {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestRunEmptyWindow(t *testing.T) {
	sender := NewSender(&recipientRepo{}, &recordingMailer{}, time.Hour)

	details, err := sender.Run(context.Background(), false)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(details) != 1 || details[0] != "no recipients in window" {
		t.Fatalf("unexpected details: %v", details)
	}
}

func TestRunMailerFailureStops(t *testing.T) {
	repo := &recipientRepo{users: []domain.User{{FirstName: "Ana", Email: "ana@example.com"}}}
	sender := NewSender(repo, &recordingMailer{err: errors.New("connection refused")}, time.Hour)

	_, err := sender.Run(context.Background(), false)
	if err == nil || !strings.Contains(err.Error(), "send to ana@example.com") {
		t.Fatalf("expected send error, got %v", err)
	}
}

func TestRunRepositoryFailure(t *testing.T) {
	sender := NewSender(&recipientRepo{err: errors.New("db down")}, &recordingMailer{}, time.Hour)

	_, err := sender.Run(context.Background(), false)
	if err == nil || !strings.Contains(err.Error(), "load recipients") {
		t.Fatalf("expected load error, got %v", err)
	}
}
