// Package validate holds the local input rules checked before any request
// leaves the device. Every failure is an apperror.ValidationFailed with the
// offending field set, so forms can highlight it.
package validate

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/sakif/postgen/internal/apperror"
)

// Field limits.
const (
	MaxNameLength     = 20
	MaxUsernameLength = 15
	MaxPasswordLength = 20
	MinPasswordLength = 6
)

var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._]+$`)
)

// Email checks that s looks like an address.
func Email(s string) error {
	if !emailPattern.MatchString(s) {
		return apperror.ValidationFailed("email", "Please enter a valid email address.")
	}
	return nil
}

// Username allows letters, digits, periods and underscores, up to
// MaxUsernameLength characters.
func Username(s string) error {
	if !usernamePattern.MatchString(s) {
		return apperror.ValidationFailed("username",
			"Username can only contain letters, numbers, periods, and underscores.")
	}
	if utf8.RuneCountInString(s) > MaxUsernameLength {
		return apperror.ValidationFailed("username",
			fmt.Sprintf("Username cannot exceed %d characters.", MaxUsernameLength))
	}
	return nil
}

// Name enforces MaxNameLength.
func Name(s string) error {
	if utf8.RuneCountInString(s) > MaxNameLength {
		return apperror.ValidationFailed("name",
			fmt.Sprintf("Name cannot exceed %d characters.", MaxNameLength))
	}
	return nil
}

// Password enforces both length bounds.
func Password(s string) error {
	n := utf8.RuneCountInString(s)
	if n > MaxPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("Password cannot exceed %d characters.", MaxPasswordLength))
	}
	if n < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength))
	}
	return nil
}

// Login checks a login form. Only the lower password bound applies here:
// accounts created before the upper bound existed must still be able to
// sign in.
func Login(email, password string) error {
	if email == "" || password == "" {
		return apperror.ValidationFailed("", "Please fill in both fields")
	}
	if err := Email(email); err != nil {
		return err
	}
	if utf8.RuneCountInString(password) < MinPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("Password must be at least %d characters long.", MinPasswordLength))
	}
	return nil
}

// Signup checks a registration form in the order the fields are shown.
func Signup(email, name, username, password, confirm string) error {
	if err := Email(email); err != nil {
		return err
	}
	if !usernamePattern.MatchString(username) {
		return apperror.ValidationFailed("username",
			"Username can only contain letters, numbers, periods, and underscores.")
	}
	if err := Name(name); err != nil {
		return err
	}
	if err := Username(username); err != nil {
		return err
	}
	if utf8.RuneCountInString(password) > MaxPasswordLength {
		return apperror.ValidationFailed("password",
			fmt.Sprintf("Password cannot exceed %d characters.", MaxPasswordLength))
	}
	if password != confirm {
		return apperror.ValidationFailed("confirmPassword", "Your passwords do not match.")
	}
	return Password(password)
}

// Prompt rejects blank prompts.
func Prompt(s string) error {
	if strings.TrimSpace(s) == "" {
		return apperror.ValidationFailed("prompt", "Please enter a prompt!")
	}
	return nil
}
