// internal/app/system/authutil/password.go
package authutil

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Password validation constants
const (
	MinPasswordLength = 8
	MaxPasswordLength = 72 // bcrypt ignores bytes past 72
	BcryptCost        = 12
)

// Password validation errors
var (
	ErrPasswordTooShort = errors.New("Password must be at least 8 characters")
	ErrPasswordTooLong  = errors.New("Password must be at most 72 characters")
	ErrPasswordCommon   = errors.New("This password is too common. Please choose a different one.")
)

// commonPasswords blocks the most common passwords that pass the length rule.
var commonPasswords = map[string]bool{
	"12345678":   true,
	"123456789":  true,
	"1234567890": true,
	"password":   true,
	"password1":  true,
	"password123": true,
	"qwerty123":  true,
	"qwertyuiop": true,
	"iloveyou":   true,
	"11111111":   true,
	"00000000":   true,
	"princess":   true,
	"sunshine":   true,
	"football":   true,
	"baseball":   true,
	"superman":   true,
	"welcome1":   true,
	"letmein1":   true,
	"admin123":   true,
	"changeme":   true,
}

// PasswordRules returns a human-readable description of the password rules.
func PasswordRules() string {
	return "Password must be at least 8 characters and cannot be a common password like \"12345678\" or \"password\"."
}

// ValidatePassword checks if a password meets the requirements.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if commonPasswords[strings.ToLower(password)] {
		return ErrPasswordCommon
	}
	return nil
}

// HashPassword hashes a password using bcrypt.
// The password should be validated with ValidatePassword first.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a plain-text password with a bcrypt hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
