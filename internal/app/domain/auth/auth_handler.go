package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/openshelf/openshelf/internal/app/middleware"
	"github.com/openshelf/openshelf/internal/app/models"
	"github.com/openshelf/openshelf/internal/observability/metrics"
)

type AuthHandlers struct {
	authService AuthService
	logger      *zap.Logger
}

func NewAuthHandlers(authService AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		authService: authService,
		logger:      logger,
	}
}

// countAuthRequest records an authentication attempt outcome.
func countAuthRequest(c *gin.Context, operation, outcome string) {
	if m := metrics.Get(); m != nil {
		m.AuthRequestsTotal.Add(c.Request.Context(), 1, metric.WithAttributes(
			attribute.String("operation", operation),
			attribute.String("outcome", outcome),
		))
	}
}

// ShowLogin serves the login entry point. Rendering is owned by the
// template layer; this surface exposes the form contract.
func (h *AuthHandlers) ShowLogin(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "login", "fields": []string{"email", "password"}})
}

func (h *AuthHandlers) Login(c *gin.Context) {
	h.logger.Info("Login attempt", zap.String("remote_addr", c.ClientIP()))

	email := c.PostForm("email")
	password := c.PostForm("password")
	if email == "" || password == "" {
		countAuthRequest(c, "login", "invalid_input")
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	sess, err := h.authService.Authenticate(c.Request.Context(), email, password)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnknownAccount):
			countAuthRequest(c, "login", "unknown_account")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "No account found with that email. Please register.",
				"hint":  "/register",
			})
		case errors.Is(err, models.ErrBadCredential):
			countAuthRequest(c, "login", "bad_credential")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Incorrect password. You can recover your password below.",
				"hint":  "/forgot_password",
			})
		default:
			h.logger.Error("Login failed", zap.Error(err))
			countAuthRequest(c, "login", "error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	if err := middleware.SaveSession(c, sess); err != nil {
		h.logger.Error("Failed to save session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	countAuthRequest(c, "login", "success")
	h.logger.Info("Successful login",
		zap.Int64("user_id", sess.UserID),
		zap.String("role", string(sess.Role)),
	)

	// Role-based landing page, as the original flow does.
	c.Redirect(http.StatusFound, sess.DashboardPath())
}

func (h *AuthHandlers) ShowRegister(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "register", "fields": []string{"name", "email", "password", "role"}})
}

func (h *AuthHandlers) Register(c *gin.Context) {
	h.logger.Info("Registration attempt", zap.String("remote_addr", c.ClientIP()))

	name := c.PostForm("name")
	email := c.PostForm("email")
	password := c.PostForm("password")
	role := models.ParseRole(c.PostForm("role"))

	userID, err := h.authService.Register(c.Request.Context(), name, email, password, role)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrInvalidInput):
			countAuthRequest(c, "register", "invalid_input")
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password required"})
		case errors.Is(err, models.ErrDuplicateEmail):
			countAuthRequest(c, "register", "duplicate_email")
			c.JSON(http.StatusConflict, gin.H{"error": "An account with that email already exists."})
		default:
			h.logger.Error("Registration failed", zap.Error(err))
			countAuthRequest(c, "register", "error")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		}
		return
	}

	countAuthRequest(c, "register", "success")
	h.logger.Info("Successful registration", zap.Int64("user_id", userID))

	// Registration does not log the user in; send them to the login page.
	c.Redirect(http.StatusFound, "/login")
}

func (h *AuthHandlers) ShowForgotPassword(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"page": "forgot_password", "fields": []string{"email"}})
}

// ForgotPassword only confirms account existence; there is no reset token
// infrastructure.
func (h *AuthHandlers) ForgotPassword(c *gin.Context) {
	email := c.PostForm("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}

	exists, err := h.authService.AccountExists(c.Request.Context(), email)
	if err != nil {
		h.logger.Error("Account lookup failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}
	if !exists {
		c.JSON(http.StatusNotFound, gin.H{"error": "No account found with that email."})
		return
	}

	h.logger.Info("Password recovery requested", zap.String("email", NormalizeEmail(email)))
	c.JSON(http.StatusOK, gin.H{
		"message": "Password recovery: a password reset link has been (simulated) sent.",
	})
}

func (h *AuthHandlers) Logout(c *gin.Context) {
	if err := middleware.ClearSession(c); err != nil {
		h.logger.Error("Failed to clear session", zap.Error(err))
	}
	h.logger.Info("User logout")
	c.Redirect(http.StatusFound, "/login")
}
