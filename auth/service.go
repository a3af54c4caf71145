package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/coreybb/denima/datastore"
	"github.com/coreybb/denima/models"
	"github.com/google/uuid"
)

// UserStore is the slice of the user repository the credential flows need.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByLogin(ctx context.Context, identifier string) (*models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Service implements registration, login and password change on top of a
// UserStore and a TokenService.
type Service struct {
	users  UserStore
	tokens *TokenService
}

func NewService(users UserStore, tokens *TokenService) *Service {
	return &Service{users: users, tokens: tokens}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Phone    string
}

// Register validates the input, rejects taken usernames and emails, stores
// the user with a bcrypt hash and returns it together with a fresh token.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, string, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if err := ValidateRegistration(username, email, in.Password); err != nil {
		return nil, "", err
	}

	if _, err := s.users.GetUserByUsername(ctx, username); err == nil {
		return nil, "", datastore.ErrDuplicateUsername
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("failed to check username: %w", err)
	}
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, "", datastore.ErrDuplicateEmail
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := HashPassword(in.Password)
	if err != nil {
		return nil, "", err
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if phone := strings.TrimSpace(in.Phone); phone != "" {
		user.Phone = &phone
	}

	// The unique constraints still guard against a concurrent registration
	// that slipped past the checks above.
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login accepts a username or an email as identifier.
func (s *Service) Login(ctx context.Context, identifier, password string) (*models.User, string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" || password == "" {
		return nil, "", ErrInvalidCredentials
	}

	user, err := s.users.GetUserByLogin(ctx, identifier)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if !CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// ChangePassword requires the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if !CheckPassword(user.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if err := ValidatePassword("new_password", next); err != nil {
		return err
	}
	hash, err := HashPassword(next)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	user.PasswordHash = hash
	return nil
}

func (s *Service) Tokens() *TokenService {
	return s.tokens
}
