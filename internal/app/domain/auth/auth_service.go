package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/openshelf/openshelf/internal/app/models"
)

// Ensure implementation satisfies the interface
var _ AuthService = (*AuthServiceImpl)(nil)

// AuthService defines the business logic contract.
type AuthService interface {
	// Register creates a user with a hashed password and returns the new ID.
	Register(ctx context.Context, name, email, password string, role models.Role) (int64, error)
	// Authenticate validates credentials and issues a Session. The session
	// role always comes from the stored user record.
	Authenticate(ctx context.Context, email, password string) (*models.Session, error)
	// AccountExists reports whether an account is registered for the email.
	AccountExists(ctx context.Context, email string) (bool, error)
}

// AuthServiceImpl provides the implementation for AuthService.
type AuthServiceImpl struct {
	logger *zap.Logger
	repo   AuthRepo
}

// NewAuthService creates a new authentication service instance.
func NewAuthService(repo AuthRepo, logger *zap.Logger) *AuthServiceImpl {
	return &AuthServiceImpl{logger: logger, repo: repo}
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
// Lookups and inserts always go through it, which makes the uniqueness
// constraint effectively case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthServiceImpl) Register(ctx context.Context, name, email, password string, role models.Role) (int64, error) {
	l := s.logger.With(zap.String("method", "Register"), zap.String("email", email))
	l.Debug("Attempting registration")

	tracer := otel.Tracer("AuthService")
	ctx, span := tracer.Start(ctx, "AuthService.Register", trace.WithAttributes(
		attribute.String("email", email),
		attribute.String("role", string(role)),
	))
	defer span.End()

	email = NormalizeEmail(email)
	if email == "" || password == "" {
		span.SetStatus(codes.Error, "Missing email or password")
		return 0, fmt.Errorf("email and password required: %w", models.ErrInvalidInput)
	}

	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		l.Error("Failed to hash password", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Password hashing failed")
		return 0, fmt.Errorf("could not process password")
	}

	userID, err := s.repo.CreateUser(ctx, name, email, string(hashedPasswordBytes), role)
	if err != nil {
		l.Warn("Repository registration failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Repository registration failed")
		return 0, fmt.Errorf("registration failed: %w", err)
	}

	l.Info("Registration successful", zap.Int64("userID", userID))
	span.SetStatus(codes.Ok, "User registered")
	return userID, nil
}

// Authenticate validates credentials against the credential store.
func (s *AuthServiceImpl) Authenticate(ctx context.Context, email, password string) (*models.Session, error) {
	l := s.logger.With(zap.String("method", "Authenticate"), zap.String("email", email))
	l.Debug("Attempting login")

	email = NormalizeEmail(email)

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			l.Warn("Login for unknown account")
			return nil, fmt.Errorf("login failed for %s: %w", email, models.ErrUnknownAccount)
		}
		l.Error("GetUserByEmail failed", zap.Error(err))
		return nil, fmt.Errorf("database error during login: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		l.Warn("Password comparison failed", zap.Int64("userID", user.ID))
		return nil, fmt.Errorf("login failed for %s: %w", email, models.ErrBadCredential)
	}

	// The role comes from the stored record, never from login input, so a
	// tampered request cannot escalate privileges.
	sess := &models.Session{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Name:   user.Name,
	}

	l.Info("Login successful", zap.Int64("userID", user.ID), zap.String("role", string(user.Role)))
	return sess, nil
}

// AccountExists backs the recovery flow, which only confirms existence.
func (s *AuthServiceImpl) AccountExists(ctx context.Context, email string) (bool, error) {
	email = NormalizeEmail(email)
	_, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("database error checking account: %w", err)
	}
	return true, nil
}
