package auth

import (
	"strings"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
	// bcrypt ignores input past 72 bytes and newer versions reject it.
	MaxPasswordBytes = 72
)

// ValidateRegistration checks the registration fields in order and returns
// the first failure as a *ValidationError.
func ValidateRegistration(username, email, password string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidateEmail(email); err != nil {
		return err
	}
	return ValidatePassword("password", password)
}

func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return invalid("username", "username is required")
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return invalid("username", "username must be at least 3 characters")
	}
	// Login accepts a username or an email, so the two must never overlap.
	if strings.Contains(username, "@") {
		return invalid("username", "username must not contain @")
	}
	return nil
}

func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return invalid("email", "email is required")
	}
	if !strings.Contains(email, "@") {
		return invalid("email", "email must contain @")
	}
	return nil
}

// ValidatePassword checks a password supplied in the named field.
func ValidatePassword(field, password string) error {
	if password == "" {
		return invalid(field, "password is required")
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return invalid(field, "password must be at least 6 characters")
	}
	if len(password) > MaxPasswordBytes {
		return invalid(field, "password must be at most 72 bytes")
	}
	return nil
}
