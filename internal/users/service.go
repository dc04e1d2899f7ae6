package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/atelier-erp/atelier-erp/internal/authz"
	"github.com/atelier-erp/atelier-erp/internal/shared"
)

// ErrUnknownRole indicates a role name outside the supported set.
var ErrUnknownRole = errors.New("users: unknown role")

// RepositoryPort abstracts persistence for the service.
type RepositoryPort interface {
	ListUsers(ctx context.Context, limit, offset int) ([]User, error)
	CountUsers(ctx context.Context) (int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	CreateUser(ctx context.Context, email, name, passwordHash, role string) (User, error)
	UpdateUser(ctx context.Context, id int64, name, role string, isActive bool) (User, error)
	DeactivateUser(ctx context.Context, id int64) error
	SetPasswordHash(ctx context.Context, id int64, hash string) error
}

// Invalidator drops cached grants for a user after account changes.
type Invalidator interface {
	InvalidateUser(ctx context.Context, userID int64)
}

// Service implements account management.
type Service struct {
	repo   RepositoryPort
	grants Invalidator
	logger *slog.Logger
}

// NewService constructs the users service.
func NewService(repo RepositoryPort, grants Invalidator, logger *slog.Logger) *Service {
	return &Service{repo: repo, grants: grants, logger: logger}
}

// List returns one page of accounts with pagination metadata.
func (s *Service) List(ctx context.Context, page, perPage int) ([]User, shared.Pagination, error) {
	total, err := s.repo.CountUsers(ctx)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	p := shared.NewPagination(page, perPage, total)
	list, err := s.repo.ListUsers(ctx, p.PerPage, p.Offset())
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return list, p, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// Create registers a new account with a hashed password.
func (s *Service) Create(ctx context.Context, email, name, password string, role authz.Role) (User, error) {
	if !role.Valid() {
		return User{}, ErrUnknownRole
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("users: hash password: %w", err)
	}
	u, err := s.repo.CreateUser(ctx, email, name, string(hash), string(role))
	if err != nil {
		return User{}, err
	}
	s.logger.Info("user created", "user_id", u.ID, "role", u.Role)
	return u, nil
}

// Update changes name, role and activation. Cached grants are dropped so
// the next request resolves against the new role.
func (s *Service) Update(ctx context.Context, id int64, name string, role authz.Role, isActive bool) (User, error) {
	if !role.Valid() {
		return User{}, ErrUnknownRole
	}
	u, err := s.repo.UpdateUser(ctx, id, name, string(role), isActive)
	if err != nil {
		return User{}, err
	}
	s.grants.InvalidateUser(ctx, id)
	return u, nil
}

// Deactivate disables an account and drops its cached grants.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if err := s.repo.DeactivateUser(ctx, id); err != nil {
		return err
	}
	s.grants.InvalidateUser(ctx, id)
	return nil
}

// ResetPassword replaces the account credential.
func (s *Service) ResetPassword(ctx context.Context, id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("users: hash password: %w", err)
	}
	return s.repo.SetPasswordHash(ctx, id, string(hash))
}
