package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"ecobhandu-be/models"
	"ecobhandu-be/store"
)

const minPasswordLength = 6

// TokenGenerator issues session tokens for authenticated users.
type TokenGenerator interface {
	Generate(userID, role string) (string, error)
}

type AuthService struct {
	users  UserRepository
	tokens TokenGenerator
	log    *zap.Logger
	now    func() time.Time
}

func NewAuthService(users UserRepository, tokens TokenGenerator, log *zap.Logger) *AuthService {
	return &AuthService{users: users, tokens: tokens, log: log, now: time.Now}
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Signup creates a citizen or volunteer account.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" || in.Role == "" {
		return nil, validation("All fields are required")
	}
	if len(in.Password) < minPasswordLength {
		return nil, validation("Password must be at least %d characters", minPasswordLength)
	}
	role := models.Role(in.Role)
	if !role.SignupAllowed() {
		return nil, validation("Invalid role")
	}

	user := &models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		Password:  in.Password,
		Role:      role,
		CreatedAt: s.now(),
	}
	if err := user.HashPassword(); err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.log.Info("user created", zap.String("user_id", user.ID.Hex()), zap.String("role", string(role)))
	return user, nil
}

type SigninInput struct {
	Email    string
	Password string
	Role     string
}

// Signin verifies credentials and returns the user with a session token. When
// a role is given it must match the account's role.
func (s *AuthService) Signin(ctx context.Context, in SigninInput) (*models.User, string, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, "", validation("Email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("find user: %w", err)
	}
	if !user.ComparePassword(in.Password) {
		return nil, "", ErrInvalidCredentials
	}
	if in.Role != "" && models.Role(in.Role) != user.Role {
		return nil, "", newError(KindAuthorization,
			"This account is registered as a %s. Please select the correct role.", user.Role)
	}

	token, err := s.tokens.Generate(user.ID.Hex(), string(user.Role))
	if err != nil {
		return nil, "", fmt.Errorf("generate token: %w", err)
	}

	s.log.Info("user authenticated", zap.String("user_id", user.ID.Hex()), zap.String("role", string(user.Role)))
	return user, token, nil
}

// Me returns the account behind an authenticated user id.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
