package domain

// Session is the authentication state of the store: either guest or
// authenticated as exactly one user. The zero value is the guest state.
type Session struct {
	user *User
}

// Guest returns the unauthenticated session.
func Guest() Session {
	return Session{}
}

// Authenticated returns a session scoped to the given user.
func Authenticated(u User) Session {
	return Session{user: &u}
}

func (s Session) IsAuthenticated() bool {
	return s.user != nil
}

// User returns the session's user, or false in the guest state.
func (s Session) User() (User, bool) {
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}
