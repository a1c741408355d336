package entity

// Principal is the authenticated actor of a request.
type Principal struct {
	UserID int64
	Role   Role
}

// IsAdmin reports whether the actor is staff.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
