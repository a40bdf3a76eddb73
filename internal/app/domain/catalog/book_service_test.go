package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openshelf/openshelf/internal/app/models"
)

// MockBookRepo is a mock implementation of the BookRepo interface
type MockBookRepo struct {
	mock.Mock
}

func (m *MockBookRepo) AddBook(ctx context.Context, title, author, filename string, uploadedBy int64) (int64, error) {
	args := m.Called(ctx, title, author, filename, uploadedBy)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockBookRepo) ListBooks(ctx context.Context) ([]models.Book, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Book), args.Error(1)
}

func (m *MockBookRepo) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Book), args.Error(1)
}

func TestAddBook_RejectsEmptyFields(t *testing.T) {
	mockRepo := new(MockBookRepo)
	svc := NewBookService(mockRepo, zap.NewNop())

	cases := []struct {
		name     string
		title    string
		author   string
		filename string
	}{
		{"empty title", "", "Melville", "md.txt"},
		{"blank title", "   ", "Melville", "md.txt"},
		{"empty author", "Moby Dick", "", "md.txt"},
		{"empty filename", "Moby Dick", "Melville", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddBook(context.Background(), tc.title, tc.author, tc.filename, 1)
			assert.ErrorIs(t, err, models.ErrInvalidInput)
		})
	}

	mockRepo.AssertNotCalled(t, "AddBook")
}

func TestListBooks_CachesListing(t *testing.T) {
	mockRepo := new(MockBookRepo)
	svc := NewBookService(mockRepo, zap.NewNop())

	listing := []models.Book{
		{ID: 2, Title: "Pale Fire", UploadedAt: time.Now()},
		{ID: 1, Title: "Moby Dick", UploadedAt: time.Now().Add(-time.Hour)},
	}
	mockRepo.On("ListBooks", mock.Anything).Return(listing, nil).Once()

	first, err := svc.ListBooks(context.Background())
	require.NoError(t, err)
	second, err := svc.ListBooks(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, "Pale Fire", first[0].Title)
	mockRepo.AssertNumberOfCalls(t, "ListBooks", 1)
}

func TestAddBook_InvalidatesListingCache(t *testing.T) {
	mockRepo := new(MockBookRepo)
	svc := NewBookService(mockRepo, zap.NewNop())

	mockRepo.On("ListBooks", mock.Anything).Return([]models.Book{}, nil)
	mockRepo.On("AddBook", mock.Anything, "Moby Dick", "Melville", "md.txt", int64(1)).Return(int64(1), nil)

	_, err := svc.ListBooks(context.Background())
	require.NoError(t, err)

	_, err = svc.AddBook(context.Background(), "Moby Dick", "Melville", "md.txt", 1)
	require.NoError(t, err)

	_, err = svc.ListBooks(context.Background())
	require.NoError(t, err)

	// The add must have dropped the cached listing.
	mockRepo.AssertNumberOfCalls(t, "ListBooks", 2)
}

func TestGetBook_NotFound(t *testing.T) {
	mockRepo := new(MockBookRepo)
	svc := NewBookService(mockRepo, zap.NewNop())

	mockRepo.On("GetBook", mock.Anything, int64(99)).Return(nil, models.ErrNotFound)

	book, err := svc.GetBook(context.Background(), 99)

	assert.Nil(t, book)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAddBook_TrimsMetadata(t *testing.T) {
	mockRepo := new(MockBookRepo)
	svc := NewBookService(mockRepo, zap.NewNop())

	mockRepo.On("AddBook", mock.Anything, "Moby Dick", "Melville", "md.txt", int64(1)).Return(int64(3), nil)

	bookID, err := svc.AddBook(context.Background(), "  Moby Dick ", " Melville ", "md.txt", 1)

	require.NoError(t, err)
	assert.Equal(t, int64(3), bookID)
	mockRepo.AssertExpectations(t)
}
