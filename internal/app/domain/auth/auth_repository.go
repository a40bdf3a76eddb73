package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openshelf/openshelf/internal/app/models"
)

var _ AuthRepo = (*PostgresAuthRepo)(nil)

// DB is the subset of pgxpool.Pool the repositories need. pgxmock
// satisfies it in tests.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type AuthRepo interface {
	// CreateUser stores a new user with a HASHED password. Returns the new user ID.
	CreateUser(ctx context.Context, name, email, hashedPassword string, role models.Role) (int64, error)
	// GetUserByEmail fetches the full user record, including the password hash.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type PostgresAuthRepo struct {
	logger *zap.Logger
	db     DB
}

func NewPostgresAuthRepo(db DB, logger *zap.Logger) *PostgresAuthRepo {
	return &PostgresAuthRepo{
		logger: logger,
		db:     db,
	}
}

// CreateUser implements auth.AuthRepo. Expects a HASHED password; the email
// must already be case-normalized by the caller.
func (r *PostgresAuthRepo) CreateUser(ctx context.Context, name, email, hashedPassword string, role models.Role) (int64, error) {
	tracer := otel.Tracer("UserRepository")

	ctx, span := tracer.Start(ctx, "PostgresAuthRepo.CreateUser", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("email", email),
		attribute.String("role", string(role)),
	))
	defer span.End()

	var userID int64
	query := `INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id`
	err := r.db.QueryRow(ctx, query, name, email, hashedPassword, role).Scan(&userID)
	if err != nil {
		span.RecordError(err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			span.SetStatus(codes.Error, "Email conflict")
			return 0, fmt.Errorf("email %s already registered: %w", email, models.ErrDuplicateEmail)
		}
		span.SetStatus(codes.Error, "Database insert failed")
		r.logger.Error("Error inserting user", zap.Error(err), zap.String("email", email))
		return 0, fmt.Errorf("database error registering user: %w", err)
	}

	span.SetStatus(codes.Ok, "User created")
	r.logger.Info("User registered successfully", zap.Int64("userID", userID))
	return userID, nil
}

// GetUserByEmail implements auth.AuthRepo.
func (r *PostgresAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	query := `SELECT id, name, email, password_hash, role, created_at FROM users WHERE email = $1`
	err := r.db.QueryRow(ctx, query, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user with email %s not found: %w", email, models.ErrNotFound)
		}
		r.logger.Error("Error fetching user by email", zap.Error(err), zap.String("email", email))
		return nil, fmt.Errorf("database error fetching user: %w", err)
	}
	return &user, nil
}
