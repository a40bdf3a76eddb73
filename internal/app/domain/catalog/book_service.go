package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/openshelf/openshelf/internal/app/models"
)

// Ensure implementation satisfies the interface
var _ BookService = (*BookServiceImpl)(nil)

const listCacheKey = "books:list"

// BookService defines the catalog business logic contract.
type BookService interface {
	ListBooks(ctx context.Context) ([]models.Book, error)
	AddBook(ctx context.Context, title, author, filename string, uploadedBy int64) (int64, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
}

type BookServiceImpl struct {
	logger *zap.Logger
	repo   BookRepo
	cache  *cache.Cache
}

func NewBookService(repo BookRepo, logger *zap.Logger) *BookServiceImpl {
	return &BookServiceImpl{
		logger: logger,
		repo:   repo,
		cache:  cache.New(30*time.Second, time.Minute),
	}
}

// ListBooks serves the ordered listing, caching it briefly since every
// dashboard hits it.
func (s *BookServiceImpl) ListBooks(ctx context.Context) ([]models.Book, error) {
	if cached, found := s.cache.Get(listCacheKey); found {
		s.logger.Debug("Book listing cache hit")
		return cached.([]models.Book), nil
	}

	books, err := s.repo.ListBooks(ctx)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	s.cache.Set(listCacheKey, books, cache.DefaultExpiration)
	return books, nil
}

// AddBook validates the metadata and inserts the record. The stored
// listing cache is invalidated so the new book shows up immediately.
func (s *BookServiceImpl) AddBook(ctx context.Context, title, author, filename string, uploadedBy int64) (int64, error) {
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if title == "" || author == "" || filename == "" {
		return 0, fmt.Errorf("title, author and filename are required: %w", models.ErrInvalidInput)
	}

	bookID, err := s.repo.AddBook(ctx, title, author, filename, uploadedBy)
	if err != nil {
		return 0, fmt.Errorf("add book: %w", err)
	}

	s.cache.Delete(listCacheKey)
	s.logger.Info("Book added to catalog", zap.Int64("bookID", bookID), zap.String("title", title))
	return bookID, nil
}

func (s *BookServiceImpl) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	book, err := s.repo.GetBook(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return book, nil
}
