// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/gatehouse/gatehouse/internal/metrics"
	"github.com/gatehouse/gatehouse/internal/model"
	"github.com/gatehouse/gatehouse/internal/repository"
)

// Service errors.
var (
	ErrInvalidEmail = errors.New("valid email is required")
	ErrInvalidRole  = errors.New("invalid role")
	ErrEmailTaken   = errors.New("email already in use")
	ErrUserNotFound = errors.New("user not found")
	ErrSelfDelete   = errors.New("cannot delete yourself")
)

// UserStore is the persistence surface the service needs.
// Implemented by *repository.Repository.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
	DeleteUser(ctx context.Context, id string) error
}

// UserService handles admin management of the allowlist.
type UserService struct {
	store   UserStore
	metrics metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(store UserStore, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{
		store:   store,
		metrics: recorder,
	}
}

// CreateUserInput defines input for creating a user.
// Name and Role are optional; Role defaults to "user".
type CreateUserInput struct {
	Email string
	Name  *string
	Role  string
}

// CreateUser adds a record to the allowlist. Uniqueness of the normalized
// email is decided by the store's constraint, so two concurrent creates
// with the same email cannot both succeed.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*model.User, error) {
	email, err := validateEmail(input.Email)
	if err != nil {
		return nil, err
	}

	role, err := resolveRole(input.Role)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		Email:     email,
		Name:      input.Name,
		Role:      role,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserCreated()

	return user, nil
}

// GetUser retrieves a user by ID.
func (s *UserService) GetUser(ctx context.Context, id string) (*model.User, error) {
	user, err := s.store.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ListUsers returns every record, newest first. An empty allowlist is a
// valid result, never an error.
func (s *UserService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// UpdateUserInput defines input for updating a user. PUT semantics: an
// omitted Name becomes null and an omitted Role falls back to "user".
type UpdateUserInput struct {
	ID    string
	Email string
	Name  *string
	Role  string
}

// UpdateUser rewrites a record's email, name and role. A conflict only
// exists when a different record holds the target email; updating a record
// to its own current email succeeds.
func (s *UserService) UpdateUser(ctx context.Context, input UpdateUserInput) (*model.User, error) {
	email, err := validateEmail(input.Email)
	if err != nil {
		return nil, err
	}

	role, err := resolveRole(input.Role)
	if err != nil {
		return nil, err
	}

	existing, err := s.store.GetUserByID(ctx, input.ID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	existing.Email = email
	existing.Name = input.Name
	existing.Role = role

	if err := s.store.UpdateUser(ctx, existing); err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailTaken
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	s.metrics.IncUserUpdated()

	return existing, nil
}

// DeleteUser removes a record. callerEmail identifies the admin issuing the
// request; deleting your own record is refused so the allowlist can never
// lock out its last operable admin session.
func (s *UserService) DeleteUser(ctx context.Context, id, callerEmail string) error {
	caller, err := s.store.GetUserByEmail(ctx, model.NormalizeEmail(callerEmail))
	if err == nil && caller.ID == id {
		return ErrSelfDelete
	}
	if err != nil && !errors.Is(err, repository.ErrUserNotFound) {
		return fmt.Errorf("failed to resolve caller: %w", err)
	}

	if err := s.store.DeleteUser(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to delete user: %w", err)
	}

	s.metrics.IncUserDeleted()

	return nil
}

// validateEmail applies the plausibility check and normalization every
// write path shares.
func validateEmail(email string) (string, error) {
	normalized := model.NormalizeEmail(email)
	if normalized == "" || !strings.Contains(normalized, "@") {
		return "", ErrInvalidEmail
	}
	return normalized, nil
}

// resolveRole defaults an omitted role to "user" and rejects unknown values.
func resolveRole(role string) (string, error) {
	if role == "" {
		return model.RoleUser, nil
	}
	if !slices.Contains(model.ValidRoles, role) {
		return "", ErrInvalidRole
	}
	return role, nil
}
