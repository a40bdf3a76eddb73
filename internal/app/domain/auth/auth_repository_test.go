package auth

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openshelf/openshelf/internal/app/models"
)

func newRepoWithMock(t *testing.T) (pgxmock.PgxPoolIface, *PostgresAuthRepo) {
	t.Helper()
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mockPool.Close)
	return mockPool, NewPostgresAuthRepo(mockPool, zap.NewNop())
}

func TestCreateUser_ReturnsID(t *testing.T) {
	pool, repo := newRepoWithMock(t)

	pool.ExpectQuery("INSERT INTO users").
		WithArgs("Ann", "ann@x.com", "hashed", models.RoleAdmin).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(int64(1)))

	userID, err := repo.CreateUser(context.Background(), "Ann", "ann@x.com", "hashed", models.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, int64(1), userID)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	pool, repo := newRepoWithMock(t)

	pool.ExpectQuery("INSERT INTO users").
		WithArgs("Bea", "ann@x.com", "hashed", models.RoleStudent).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"})

	_, err := repo.CreateUser(context.Background(), "Bea", "ann@x.com", "hashed", models.RoleStudent)

	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestGetUserByEmail_Found(t *testing.T) {
	pool, repo := newRepoWithMock(t)

	created := time.Now()
	pool.ExpectQuery("SELECT id, name, email, password_hash, role, created_at FROM users").
		WithArgs("ann@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "password_hash", "role", "created_at"}).
			AddRow(int64(1), "Ann", "ann@x.com", "hashed", models.RoleAdmin, created))

	user, err := repo.GetUserByEmail(context.Background(), "ann@x.com")

	require.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.Equal(t, "hashed", user.PasswordHash)
	assert.NoError(t, pool.ExpectationsWereMet())
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	pool, repo := newRepoWithMock(t)

	pool.ExpectQuery("SELECT id, name, email, password_hash, role, created_at FROM users").
		WithArgs("ghost@x.com").
		WillReturnError(pgx.ErrNoRows)

	user, err := repo.GetUserByEmail(context.Background(), "ghost@x.com")

	assert.Nil(t, user)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, pool.ExpectationsWereMet())
}
