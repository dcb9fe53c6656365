// Package auth holds the stub service's credential checks: bcrypt password
// hashing and the X-User-ID identity middleware.
//
// Hash format produced by bcrypt (salt and cost are embedded, so one column
// is enough):
//
//	$2a$12$<22-char salt><31-char hash>
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used outside tests.
const defaultCost = 12

// maxPasswordBytes is bcrypt's input limit. Longer inputs are rejected
// instead of silently truncated.
const maxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: password does not match")

// Passwords hashes and verifies account passwords.
type Passwords struct {
	cost int
}

// NewPasswords returns a Passwords using the default bcrypt cost.
func NewPasswords() *Passwords {
	return &Passwords{cost: defaultCost}
}

// NewPasswordsWithCost lets tests trade strength for speed. bcrypt's
// minimum is 4.
func NewPasswordsWithCost(cost int) *Passwords {
	return &Passwords{cost: cost}
}

// Hash returns the bcrypt hash of plaintext.
func (p *Passwords) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", maxPasswordBytes)
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports nil when plaintext matches hash and ErrPasswordMismatch
// when it does not. The comparison is constant-time.
func (p *Passwords) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
}
