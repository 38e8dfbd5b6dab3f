package auth

import (
	"context"
	"errors"

	platformauth "appraisal/internal/auth"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	Store *Store
}

func NewService(store *Store) *Service {
	return &Service{Store: store}
}

// Authenticate checks email and password against the active user record.
// Both a missing user and a wrong password map to the same error so the
// response does not leak which one failed.
func (s *Service) Authenticate(ctx context.Context, email, password string) (AuthUser, error) {
	user, err := s.Store.FindActiveUserByEmail(ctx, email)
	if err != nil {
		return AuthUser{}, ErrInvalidCredentials
	}
	if err := platformauth.CheckPassword(user.Password, password); err != nil {
		return AuthUser{}, ErrInvalidCredentials
	}
	if err := s.Store.UpdateLastLogin(ctx, user.ID); err != nil {
		return AuthUser{}, err
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (AuthUser, error) {
	return s.Store.GetUser(ctx, id)
}

func (s *Service) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.Store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if err := platformauth.CheckPassword(user.Password, currentPassword); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := platformauth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.Store.UpdateUserPassword(ctx, userID, hash)
}
