// internal/app/system/authutil/authutil.go

// Package authutil holds the credential rules shared by setup, login, and
// user management.
package authutil

import (
	"errors"
	"regexp"
)

var (
	ErrEmailRequired    = errors.New("Email is required")
	ErrInvalidEmail     = errors.New("Invalid email format")
	ErrPasswordRequired = errors.New("Password is required")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// IsValidEmail reports whether email looks like local@domain.tld.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ValidateCredentials checks an email/password pair for account creation.
// An empty password is allowed when passwordOptional is set (edits that keep
// the existing password).
func ValidateCredentials(email, password string, passwordOptional bool) error {
	if email == "" {
		return ErrEmailRequired
	}
	if !IsValidEmail(email) {
		return ErrInvalidEmail
	}
	if password == "" {
		if passwordOptional {
			return nil
		}
		return ErrPasswordRequired
	}
	return ValidatePassword(password)
}
