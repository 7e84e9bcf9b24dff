package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lireddit/apiserver/internal/session"
	"github.com/lireddit/apiserver/internal/store"
	"github.com/lireddit/apiserver/types"
)

// Field labels and messages returned in UserResponse errors.
const (
	fieldUsername = "username"
	fieldPassword = "password"
	fieldUnknown  = "unknown"

	msgUsernameTaken     = "username taken"
	msgUsernameNotFound  = "that username was not found"
	msgIncorrectPassword = "incorrect password"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	List(ctx context.Context) ([]types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) (bool, error)
}

// UserService implements the account operations exposed over GraphQL.
type UserService struct {
	repo   UserRepository
	hasher PasswordHasher
	events EventPublisher
	log    *slog.Logger
}

func NewUserService(repo UserRepository, hasher PasswordHasher, events EventPublisher, log *slog.Logger) *UserService {
	if events == nil {
		events = NopPublisher{}
	}
	return &UserService{
		repo:   repo,
		hasher: hasher,
		events: events,
		log:    log,
	}
}

// Me returns the signed-in user, or nil when there is no session or the
// user no longer exists.
func (s *UserService) Me(rc RequestContext) (*types.User, error) {
	id, ok := session.UserID(rc.Session)
	if !ok {
		return nil, nil
	}

	user, err := s.repo.GetByID(rc.Ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load user %d: %w", id, err)
	}
	return &user, nil
}

// Users returns every user in store order.
func (s *UserService) Users(rc RequestContext) ([]types.User, error) {
	users, err := s.repo.List(rc.Ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Register validates input, stores a new user with a hashed password and
// returns it. It does not sign the user in.
func (s *UserService) Register(rc RequestContext, input types.UsernamePasswordInput) (types.UserResponse, error) {
	fieldErr, err := firstFieldError(input)
	if err != nil {
		return types.UserResponse{}, err
	}
	if fieldErr != nil {
		return failure(*fieldErr), nil
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		return types.UserResponse{}, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.repo.Create(rc.Ctx, types.User{
		Username: input.Username,
		Password: hashed,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return failure(types.FieldError{Field: fieldUsername, Message: msgUsernameTaken}), nil
		}
		s.log.Error("failed to create user",
			slog.String("username", input.Username),
			slog.String("error", err.Error()))
		return failure(types.FieldError{Field: fieldUnknown, Message: err.Error()}), nil
	}

	publishEvent(rc.Ctx, s.events, s.log, EventUserRegistered, user.ID)
	return types.UserResponse{User: &user}, nil
}

// Login checks credentials and, on success, stores the user's ID in the
// session. Failed attempts leave the session untouched.
func (s *UserService) Login(rc RequestContext, input types.UsernamePasswordInput) (types.UserResponse, error) {
	user, err := s.repo.GetByUsername(rc.Ctx, input.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return failure(types.FieldError{Field: fieldUsername, Message: msgUsernameNotFound}), nil
		}
		return types.UserResponse{}, fmt.Errorf("load user %q: %w", input.Username, err)
	}

	valid, err := s.hasher.Verify(user.Password, input.Password)
	if err != nil {
		s.log.Warn("stored password hash is unreadable",
			slog.Int("user_id", user.ID),
			slog.String("error", err.Error()))
	}
	if !valid {
		return failure(types.FieldError{Field: fieldPassword, Message: msgIncorrectPassword}), nil
	}

	if err := rc.Session.Set(session.UserIDKey, user.ID); err != nil {
		return types.UserResponse{}, fmt.Errorf("store session: %w", err)
	}
	return types.UserResponse{User: &user}, nil
}

// Logout ends the caller's session.
func (s *UserService) Logout(rc RequestContext) (bool, error) {
	if err := rc.Session.Destroy(); err != nil {
		return false, fmt.Errorf("destroy session: %w", err)
	}
	return true, nil
}

func failure(errs ...types.FieldError) types.UserResponse {
	return types.UserResponse{Errors: errs}
}
