package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/openshelf/openshelf/internal/app/domain/auth"
	"github.com/openshelf/openshelf/internal/app/models"
	"github.com/openshelf/openshelf/internal/observability/metrics"
)

var _ BookRepo = (*PostgresBookRepo)(nil)

type BookRepo interface {
	// AddBook inserts a book record. The filename must already exist in the
	// file store.
	AddBook(ctx context.Context, title, author, filename string, uploadedBy int64) (int64, error)
	// ListBooks returns all books, newest upload first.
	ListBooks(ctx context.Context) ([]models.Book, error)
	// GetBook fetches a single book by id.
	GetBook(ctx context.Context, id int64) (*models.Book, error)
}

// psql builds queries with Postgres placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

type PostgresBookRepo struct {
	logger *zap.Logger
	db     auth.DB
}

func NewPostgresBookRepo(db auth.DB, logger *zap.Logger) *PostgresBookRepo {
	return &PostgresBookRepo{
		logger: logger,
		db:     db,
	}
}

// observeQuery feeds the db query duration histogram.
func observeQuery(ctx context.Context, queryName string, start time.Time) {
	if m := metrics.Get(); m != nil {
		m.DBQueryDurationSeconds.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("query", queryName)))
	}
}

// AddBook implements catalog.BookRepo.
func (r *PostgresBookRepo) AddBook(ctx context.Context, title, author, filename string, uploadedBy int64) (int64, error) {
	tracer := otel.Tracer("BookRepository")

	ctx, span := tracer.Start(ctx, "PostgresBookRepo.AddBook", trace.WithAttributes(
		semconv.DBSystemPostgreSQL,
		attribute.String("title", title),
		attribute.Int64("uploaded_by", uploadedBy),
	))
	defer span.End()
	defer observeQuery(ctx, "add_book", time.Now())

	query, args, err := psql.Insert("books").
		Columns("title", "author", "filename", "uploaded_by").
		Values(title, author, filename, uploadedBy).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build insert: %w", err)
	}

	var bookID int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&bookID); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Database insert failed")
		r.logger.Error("Error inserting book", zap.Error(err), zap.String("title", title))
		return 0, fmt.Errorf("database error inserting book: %w", err)
	}

	span.SetStatus(codes.Ok, "Book created")
	r.logger.Info("Book record created", zap.Int64("bookID", bookID), zap.String("filename", filename))
	return bookID, nil
}

// ListBooks implements catalog.BookRepo. Order is stable newest-first.
func (r *PostgresBookRepo) ListBooks(ctx context.Context) ([]models.Book, error) {
	defer observeQuery(ctx, "list_books", time.Now())

	query, args, err := psql.Select("id", "title", "author", "filename", "uploaded_by", "uploaded_at").
		From("books").
		OrderBy("uploaded_at DESC", "id DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Error listing books", zap.Error(err))
		return nil, fmt.Errorf("database error listing books: %w", err)
	}
	defer rows.Close()

	books := make([]models.Book, 0)
	for rows.Next() {
		var b models.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Author, &b.Filename, &b.UploadedBy, &b.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book rows: %w", err)
	}
	return books, nil
}

// GetBook implements catalog.BookRepo.
func (r *PostgresBookRepo) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	defer observeQuery(ctx, "get_book", time.Now())

	query, args, err := psql.Select("id", "title", "author", "filename", "uploaded_by", "uploaded_at").
		From("books").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var b models.Book
	err = r.db.QueryRow(ctx, query, args...).Scan(&b.ID, &b.Title, &b.Author, &b.Filename, &b.UploadedBy, &b.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("book %d not found: %w", id, models.ErrNotFound)
		}
		r.logger.Error("Error fetching book", zap.Error(err), zap.Int64("bookID", id))
		return nil, fmt.Errorf("database error fetching book: %w", err)
	}
	return &b, nil
}
