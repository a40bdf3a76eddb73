package routes

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/openshelf/openshelf/internal/app/domain/auth"
	"github.com/openshelf/openshelf/internal/app/domain/catalog"
	"github.com/openshelf/openshelf/internal/app/domain/files"
	"github.com/openshelf/openshelf/internal/app/middleware"
	"github.com/openshelf/openshelf/internal/app/models"
	"github.com/openshelf/openshelf/internal/pkg/config"
)

type AppHandlers struct {
	Auth    *auth.AuthHandlers
	Catalog *catalog.CatalogHandlers
}

func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) error {
	handlers, err := setupDependencies(dbPool, cfg, log)
	if err != nil {
		return fmt.Errorf("setup dependencies: %w", err)
	}
	setupRouter(r, handlers, log)
	return nil
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) (*AppHandlers, error) {
	authRepo := auth.NewPostgresAuthRepo(dbPool, log)
	authService := auth.NewAuthService(authRepo, log)

	bookRepo := catalog.NewPostgresBookRepo(dbPool, log)
	bookService := catalog.NewBookService(bookRepo, log)

	fileStore, err := files.NewStore(cfg.Upload.Dir, log)
	if err != nil {
		return nil, err
	}

	return &AppHandlers{
		Auth:    auth.NewAuthHandlers(authService, log),
		Catalog: catalog.NewCatalogHandlers(bookService, fileStore, cfg.Upload.MaxBytes, log),
	}, nil
}

func setupRouter(r *gin.Engine, h *AppHandlers, log *zap.Logger) {
	pprof.Register(r)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/login")
	})

	// Unauthenticated surface.
	r.GET("/login", h.Auth.ShowLogin)
	r.POST("/login", h.Auth.Login)
	r.GET("/register", h.Auth.ShowRegister)
	r.POST("/register", h.Auth.Register)
	r.GET("/forgot_password", h.Auth.ShowForgotPassword)
	r.POST("/forgot_password", h.Auth.ForgotPassword)
	r.GET("/logout", h.Auth.Logout)

	// Role-gated dashboards. Each group checks the role captured in the
	// session at login time.
	student := r.Group("/student")
	student.Use(middleware.RequireRoles(log, models.RoleStudent, models.RoleLibrarian, models.RoleAdmin))
	{
		student.GET("/dashboard", h.Catalog.Dashboard)
	}

	librarian := r.Group("/librarian")
	librarian.Use(middleware.RequireRoles(log, models.RoleLibrarian, models.RoleAdmin))
	{
		librarian.GET("/dashboard", h.Catalog.Dashboard)
	}

	admin := r.Group("/admin")
	admin.Use(middleware.RequireRoles(log, models.RoleAdmin))
	{
		admin.GET("/dashboard", h.Catalog.Dashboard)
		admin.POST("/dashboard", h.Catalog.Upload)
	}

	// The raw fetch route sits behind an any-role gate so uploaded files
	// are never served to anonymous clients.
	uploads := r.Group("/uploads")
	uploads.Use(middleware.RequireRoles(log, models.RoleStudent, models.RoleLibrarian, models.RoleAdmin))
	{
		uploads.GET("/:filename", h.Catalog.ServeUpload)
	}

	book := r.Group("/book")
	book.Use(middleware.RequireRoles(log, models.RoleStudent, models.RoleLibrarian, models.RoleAdmin))
	{
		book.GET("/:id/download", h.Catalog.Download)
	}
}
