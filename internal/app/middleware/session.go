package middleware

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/openshelf/openshelf/internal/app/models"
)

// SessionName is the cookie the session store writes.
const SessionName = "openshelf_session"

// Define typed context keys
type contextKey string

const SessionContextKey contextKey = "session"

// Session value keys inside the cookie store.
const (
	sessionKeyUserID = "user_id"
	sessionKeyEmail  = "email"
	sessionKeyRole   = "role"
	sessionKeyName   = "name"
)

// SaveSession writes the authenticated identity into the cookie session.
func SaveSession(c *gin.Context, s *models.Session) error {
	sess := sessions.Default(c)
	sess.Set(sessionKeyUserID, s.UserID)
	sess.Set(sessionKeyEmail, s.Email)
	sess.Set(sessionKeyRole, string(s.Role))
	sess.Set(sessionKeyName, s.Name)
	return sess.Save()
}

// ClearSession destroys the cookie session. Every later request in this
// client context is unauthenticated.
func ClearSession(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1, HttpOnly: true})
	return sess.Save()
}

// CurrentSession reconstructs the Session value from the cookie store.
// Returns nil when the client is unauthenticated.
func CurrentSession(c *gin.Context) *models.Session {
	sess := sessions.Default(c)
	userID, ok := sess.Get(sessionKeyUserID).(int64)
	if !ok {
		return nil
	}
	email, _ := sess.Get(sessionKeyEmail).(string)
	role, _ := sess.Get(sessionKeyRole).(string)
	name, _ := sess.Get(sessionKeyName).(string)
	return &models.Session{
		UserID: userID,
		Email:  email,
		Role:   models.Role(role),
		Name:   name,
	}
}

// SessionFromContext returns the Session placed in the gin context by the
// role gate. Handlers behind a gate can rely on a non-nil value.
func SessionFromContext(c *gin.Context) *models.Session {
	v, exists := c.Get(string(SessionContextKey))
	if !exists {
		return nil
	}
	s, ok := v.(*models.Session)
	if !ok {
		return nil
	}
	return s
}
