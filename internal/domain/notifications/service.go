package notifications

import (
	"context"
	"log/slog"
)

type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type Service struct {
	store        StoreAPI
	Mailer       Mailer
	EmailEnabled bool
	From         string
}

func New(store StoreAPI, mailer Mailer, emailEnabled bool, from string) *Service {
	if from == "" {
		from = "no-reply@example.com"
	}
	return &Service{store: store, Mailer: mailer, EmailEnabled: emailEnabled, From: from}
}

// Create writes the in-app notification and, when email delivery is on,
// mirrors it to the employee's inbox. Email failures are logged and
// swallowed; the stored notification is the source of truth.
func (s *Service) Create(ctx context.Context, employeeID, ntype, title, body string) error {
	if err := s.store.CreateNotification(ctx, employeeID, ntype, title, body); err != nil {
		return err
	}

	if s.Mailer == nil || !s.EmailEnabled {
		return nil
	}

	email, err := s.store.EmployeeEmail(ctx, employeeID)
	if err != nil {
		slog.Warn("notification email lookup failed", "err", err)
		return nil
	}
	if email == "" {
		return nil
	}
	if err := s.Mailer.Send(ctx, s.From, email, title, body); err != nil {
		slog.Warn("notification email send failed", "err", err)
	}
	return nil
}

func (s *Service) List(ctx context.Context, employeeID string, limit, offset int) ([]Notification, error) {
	return s.store.ListNotifications(ctx, employeeID, limit, offset)
}

func (s *Service) CountUnread(ctx context.Context, employeeID string) (int, error) {
	return s.store.CountUnread(ctx, employeeID)
}

func (s *Service) MarkRead(ctx context.Context, employeeID, notificationID string) error {
	return s.store.MarkRead(ctx, employeeID, notificationID)
}
