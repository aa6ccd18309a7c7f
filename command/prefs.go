package command

import (
	"fmt"

	"bike-rental/auth"
	"bike-rental/rental"
)

// SetPassword replaces the owner password. The old password guards it.
type SetPassword struct {
	Protected
	NewPassword string
}

// NewSetPassword builds the command from the old and new passwords.
func NewSetPassword(oldPassword, newPassword string) SetPassword {
	return SetPassword{Protected: Protect(oldPassword), NewPassword: newPassword}
}

func (SetPassword) Name() string { return "set password" }

func (c SetPassword) Execute(m *rental.Manager) (Result, error) {
	if err := c.Authorize(m); err != nil {
		return Result{}, err
	}
	if m.Password().Matches(c.NewPassword) {
		return Result{}, ErrSamePassword
	}
	salt, err := auth.NewSalt()
	if err != nil {
		return Result{}, fmt.Errorf("generate salt: %w", err)
	}
	pw, err := auth.NewPassword(c.NewPassword, salt)
	if err != nil {
		return Result{}, err
	}
	m.SetPassword(pw)
	return Result{Message: "Password changed"}, nil
}

// SetEmail stores the user's reminder address.
type SetEmail struct {
	Email string
}

func (SetEmail) Name() string { return "set email" }

func (c SetEmail) Execute(m *rental.Manager) (Result, error) {
	if err := m.SetUserEmail(c.Email); err != nil {
		return Result{}, err
	}
	return Result{Message: fmt.Sprintf("Email set to %s", m.UserEmail())}, nil
}

// ShowEmail reports the stored reminder address.
type ShowEmail struct{}

func (ShowEmail) Name() string { return "show email" }

func (ShowEmail) Execute(m *rental.Manager) (Result, error) {
	if m.UserEmail() == "" {
		return Result{Message: "No email set"}, nil
	}
	return Result{Message: fmt.Sprintf("Email: %s", m.UserEmail())}, nil
}
