package auth

// Guard is a password-protected operation: it carries the password the user
// typed and checks it against the current owner password before the
// operation may touch the store.
type Guard struct {
	password string
}

// NewGuard returns a guard for the supplied password.
func NewGuard(password string) Guard { return Guard{password: password} }

// Authorize fails with ErrInvalidPassword unless the supplied password matches current.
func (g Guard) Authorize(current Password) error {
	if !current.Matches(g.password) {
		return ErrInvalidPassword
	}
	return nil
}

// Equal compares guards by supplied password.
func (g Guard) Equal(other Guard) bool { return g.password == other.password }
