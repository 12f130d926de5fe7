package identity

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/psweb/psweb/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Resolve loads the acting user by id, read-through on every call so role
// changes take effect on the next request.
func (s *Service) Resolve(ctx context.Context, id int64) (*User, error) {
	return s.repo.FindByID(ctx, id)
}
