// Package command turns parsed user intents into calls on the rental
// manager. Every mutating command commits exactly once on success and leaves
// the store untouched on failure.
package command

import (
	"errors"

	"bike-rental/auth"
	"bike-rental/rental"
)

var (
	ErrUnknownBike   = errors.New("no such bike")
	ErrUnknownLoan   = errors.New("no such loan")
	ErrBikeInUse     = errors.New("bike is referenced by a loan")
	ErrLoansExist    = errors.New("loans still exist")
	ErrNothingToEdit = errors.New("at least one field to edit must be provided")
	ErrSamePassword  = errors.New("new password is the same as the old one")
)

// Command is a single user intent.
type Command interface {
	// Name identifies the command in logs and metrics.
	Name() string
	Execute(m *rental.Manager) (Result, error)
}

// Result is what a command hands back to the shell for display.
type Result struct {
	Message string
	Bikes   []rental.Bike
	Loans   []rental.Loan
	Summary *LoanSummary
}

// Protected is embedded by commands that need the owner password.
type Protected struct {
	Guard auth.Guard
}

// Protect builds the guard for password.
func Protect(password string) Protected {
	return Protected{Guard: auth.NewGuard(password)}
}

// Authorize checks the guard against the manager's current password.
func (p Protected) Authorize(m *rental.Manager) error {
	return p.Guard.Authorize(m.Password())
}

// apply runs fn against the live store. On success the batch is committed as
// one history entry; on failure every write fn made is discarded.
func apply(m *rental.Manager, fn func(s *rental.VersionedStore) error) error {
	if err := fn(m.Store()); err != nil {
		m.Discard()
		return err
	}
	m.Commit()
	return nil
}
