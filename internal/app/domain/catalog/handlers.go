package catalog

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/openshelf/openshelf/internal/app/domain/files"
	"github.com/openshelf/openshelf/internal/app/middleware"
	"github.com/openshelf/openshelf/internal/app/models"
	"github.com/openshelf/openshelf/internal/observability/metrics"
)

// CatalogHandlers orchestrates uploads and downloads across the book
// catalog and the file store.
type CatalogHandlers struct {
	books          BookService
	files          *files.Store
	maxUploadBytes int64
	logger         *zap.Logger
}

func NewCatalogHandlers(books BookService, fileStore *files.Store, maxUploadBytes int64, logger *zap.Logger) *CatalogHandlers {
	return &CatalogHandlers{
		books:          books,
		files:          fileStore,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Dashboard lists the catalog newest-first for whichever role group the
// route belongs to.
func (h *CatalogHandlers) Dashboard(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	books, err := h.books.ListBooks(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list books", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":  sess,
		"books": books,
	})
}

// Upload handles the Admin book upload: file store write first, catalog
// insert second, and the stored file is removed if the insert fails.
func (h *CatalogHandlers) Upload(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	title := c.PostForm("title")
	author := c.PostForm("author")
	fileHeader, err := c.FormFile("file")
	if title == "" || author == "" || err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, author and file are required."})
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Title, author and file are required."})
		return
	}
	defer src.Close()

	storedName, err := h.files.Save(fileHeader.Filename, src)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title, author and file are required."})
			return
		}
		h.logger.Error("Failed to store uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	// The catalog records the sanitized name the store actually used, not
	// the client-supplied one.
	bookID, err := h.books.AddBook(c.Request.Context(), title, author, storedName, sess.UserID)
	if err != nil {
		if removeErr := h.files.Remove(storedName); removeErr != nil {
			h.logger.Error("Failed to roll back stored file", zap.Error(removeErr), zap.String("filename", storedName))
		}
		if errors.Is(err, models.ErrInvalidInput) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title, author and file are required."})
			return
		}
		h.logger.Error("Failed to record book", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if m := metrics.Get(); m != nil {
		m.BookUploadsTotal.Add(c.Request.Context(), 1, metric.WithAttributes(
			attribute.String("role", string(sess.Role)),
		))
	}
	h.logger.Info("Book uploaded",
		zap.Int64("book_id", bookID),
		zap.Int64("uploaded_by", sess.UserID),
		zap.String("filename", storedName),
	)

	c.Redirect(http.StatusFound, "/admin/dashboard")
}

// Download resolves a book id to its stored file and redirects to the raw
// fetch route. An unknown id falls back to the role-appropriate listing.
func (h *CatalogHandlers) Download(c *gin.Context) {
	sess := middleware.SessionFromContext(c)

	bookID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.Redirect(http.StatusFound, sess.DashboardPath())
		return
	}

	book, err := h.books.GetBook(c.Request.Context(), bookID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			h.logger.Warn("Download for unknown book", zap.Int64("book_id", bookID))
			c.Redirect(http.StatusFound, sess.DashboardPath())
			return
		}
		h.logger.Error("Failed to resolve book", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	if m := metrics.Get(); m != nil {
		m.BookDownloadsTotal.Add(c.Request.Context(), 1, metric.WithAttributes(
			attribute.String("role", string(sess.Role)),
		))
	}

	c.Redirect(http.StatusFound, "/uploads/"+book.Filename)
}

// ServeUpload streams a stored file by its sanitized name.
func (h *CatalogHandlers) ServeUpload(c *gin.Context) {
	name := c.Param("filename")

	path, err := h.files.Path(name)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "file not found"})
			return
		}
		h.logger.Error("Failed to resolve stored file", zap.Error(err), zap.String("filename", name))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	c.File(path)
}
