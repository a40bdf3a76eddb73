package models

import "time"

// Role is the access level a user registers with. Authorization decisions
// use the role captured in the session at login time.
type Role string

const (
	RoleStudent   Role = "Student"
	RoleLibrarian Role = "Librarian"
	RoleAdmin     Role = "Admin"
)

// ParseRole maps a submitted role string to a known Role. Unknown values
// fall back to Student, mirroring the registration form default.
func ParseRole(s string) Role {
	switch Role(s) {
	case RoleStudent, RoleLibrarian, RoleAdmin:
		return Role(s)
	default:
		return RoleStudent
	}
}

// User is a registered account. PasswordHash holds the bcrypt hash; the
// plaintext password is never stored or logged.
type User struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Book is an uploaded book record. Filename is the sanitized name under
// which the file store keeps the bytes.
type Book struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Author     string    `json:"author"`
	Filename   string    `json:"filename"`
	UploadedBy int64     `json:"uploaded_by"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Session is the authenticated identity issued at login. It is an
// immutable value handed to protected handlers; the role always comes
// from the stored user record, never from request input.
type Session struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   Role   `json:"role"`
	Name   string `json:"name"`
}

// DashboardPath returns the listing view for the session's role.
func (s *Session) DashboardPath() string {
	switch s.Role {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleLibrarian:
		return "/librarian/dashboard"
	default:
		return "/student/dashboard"
	}
}
