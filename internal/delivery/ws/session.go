package ws

import (
	"circulation/internal/domain/entity"
	"circulation/internal/usecase"
)

// Session is the account binding of one connection. A connection starts
// unbound; LOGIN or RESUME_SESSION binds it and LOGOUT or FORCE_LOGOUT
// unbinds it. Only the connection's own goroutine touches it.
type Session struct {
	id        string
	principal *entity.Principal
}

// Authenticated reports whether an account is bound.
func (s *Session) Authenticated() bool {
	return s.principal != nil
}

// Principal returns the bound actor. Callers check Authenticated first.
func (s *Session) Principal() entity.Principal {
	return *s.principal
}

// ID returns the session id issued at login, or an empty string.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) bind(out *usecase.SessionOutput) {
	s.id = out.SessionID
	s.principal = &entity.Principal{UserID: out.User.ID, Role: out.User.Role}
}

// refresh takes the role from the account as it is now, so a role change
// applies from the next request on.
func (s *Session) refresh(user *entity.User) {
	s.principal = &entity.Principal{UserID: user.ID, Role: user.Role}
}

func (s *Session) unbind() {
	s.id = ""
	s.principal = nil
}
