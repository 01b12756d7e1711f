package model

// RoleAdmin is the role claim of back-office operators.
const RoleAdmin = "admin"

// Session identifies the caller of an operation.
type Session struct {
	UserID    string
	Email     string
	Role      string
	Activated bool
}

// IsAdmin reports whether the caller is an authorized administrator.
func (s *Session) IsAdmin() bool {
	return s != nil && s.Role == RoleAdmin
}

// Owns reports whether the booking belongs to the caller.
func (s *Session) Owns(b *Booking) bool {
	return s != nil && b != nil && s.UserID != "" && s.UserID == b.UserID
}
