package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/openshelf/openshelf/internal/app/models"
)

// MockAuthRepo is a mock implementation of the AuthRepo interface
type MockAuthRepo struct {
	mock.Mock
}

func (m *MockAuthRepo) CreateUser(ctx context.Context, name, email, hashedPassword string, role models.Role) (int64, error) {
	args := m.Called(ctx, name, email, hashedPassword, role)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAuthRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func hashFor(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister_HashesPasswordAndNormalizesEmail(t *testing.T) {
	mockRepo := new(MockAuthRepo)
	svc := NewAuthService(mockRepo, zap.NewNop())

	var storedHash string
	mockRepo.On("CreateUser", mock.Anything, "Ann", "ann@x.com", mock.MatchedBy(func(hash string) bool {
		storedHash = hash
		return hash != "pw1"
	}), models.RoleAdmin).Return(int64(7), nil)

	userID, err := svc.Register(context.Background(), "Ann", "  Ann@X.Com ", "pw1", models.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, int64(7), userID)
	// The stored value must verify against the plaintext but never equal it.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(storedHash), []byte("pw1")))
	mockRepo.AssertExpectations(t)
}

func TestRegister_RequiresEmailAndPassword(t *testing.T) {
	mockRepo := new(MockAuthRepo)
	svc := NewAuthService(mockRepo, zap.NewNop())

	_, err := svc.Register(context.Background(), "Ann", "", "pw1", models.RoleStudent)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.Register(context.Background(), "Ann", "ann@x.com", "", models.RoleStudent)
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	mockRepo.AssertNotCalled(t, "CreateUser")
}

func TestRegister_DuplicateEmail(t *testing.T) {
	mockRepo := new(MockAuthRepo)
	svc := NewAuthService(mockRepo, zap.NewNop())

	mockRepo.On("CreateUser", mock.Anything, "Bea", "ann@x.com", mock.Anything, models.RoleStudent).
		Return(int64(0), models.ErrDuplicateEmail)

	// Case variation normalizes to the already-registered address.
	_, err := svc.Register(context.Background(), "Bea", "ANN@X.COM", "pw2", models.RoleStudent)
	assert.ErrorIs(t, err, models.ErrDuplicateEmail)
}

func TestAuthenticate_SessionRoleComesFromStore(t *testing.T) {
	mockRepo := new(MockAuthRepo)
	svc := NewAuthService(mockRepo, zap.NewNop())

	mockRepo.On("GetUserByEmail", mock.Anything, "ann@x.com").Return(&models.User{
		ID:           7,
		Name:         "Ann",
		Email:        "ann@x.com",
		PasswordHash: hashFor(t, "pw1"),
		Role:         models.RoleLibrarian,
	}, nil)

	sess, err := svc.Authenticate(context.Background(), " Ann@X.Com ", "pw1")

	require.NoError(t, err)
	assert.Equal(t, int64(7), sess.UserID)
	assert.Equal(t, "Ann", sess.Name)
	// Stored role wins regardless of anything the login request claimed.
	assert.Equal(t, models.RoleLibrarian, sess.Role)
}

func TestAuthenticate_UnknownAccount(t *testing.T) {
	mockRepo := new(MockAuthRepo)
	svc := NewAuthService(mockRepo, zap.NewNop())

	mockRepo.On("GetUserByEmail", mock.Anything, "ghost@x.com").Return(nil, models.ErrNotFound)

	sess, err := svc.Authenticate(context.Background(), "ghost@x.com", "pw1")

	assert.Nil(t, sess)
	assert.ErrorIs(t, err, models.ErrUnknownAccount)
}

func TestAuthenticate_BadCredential(t *testing.T) {
	mockRepo := new(MockAuthRepo)
	svc := NewAuthService(mockRepo, zap.NewNop())

	mockRepo.On("GetUserByEmail", mock.Anything, "ann@x.com").Return(&models.User{
		ID:           7,
		Email:        "ann@x.com",
		PasswordHash: hashFor(t, "pw1"),
		Role:         models.RoleStudent,
	}, nil)

	sess, err := svc.Authenticate(context.Background(), "ann@x.com", "wrong")

	assert.Nil(t, sess)
	assert.ErrorIs(t, err, models.ErrBadCredential)
}

func TestAccountExists(t *testing.T) {
	mockRepo := new(MockAuthRepo)
	svc := NewAuthService(mockRepo, zap.NewNop())

	mockRepo.On("GetUserByEmail", mock.Anything, "ann@x.com").Return(&models.User{ID: 7}, nil)
	mockRepo.On("GetUserByEmail", mock.Anything, "ghost@x.com").Return(nil, models.ErrNotFound)

	exists, err := svc.AccountExists(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = svc.AccountExists(context.Background(), "ghost@x.com")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "ann@x.com", NormalizeEmail("  ANN@X.Com "))
	assert.Equal(t, "", NormalizeEmail("   "))
}
