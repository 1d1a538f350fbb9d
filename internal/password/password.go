// Package password hashes and verifies user credentials with bcrypt.
package password

import (
	"github.com/rotisserie/eris"
	"golang.org/x/crypto/bcrypt"
)

// MinLength is the shortest accepted password.
const MinLength = 8

// ErrTooShort rejects passwords under MinLength. Callers treat it as
// user input validation, not a hashing failure.
var ErrTooShort = eris.Errorf("password: must be at least %d characters", MinLength)

// Hash returns a bcrypt hash of the plaintext password.
func Hash(plain string) (string, error) {
	if len(plain) < MinLength {
		return "", ErrTooShort
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", eris.Wrap(err, "password: hash")
	}
	return string(hashed), nil
}

// Verify reports whether the plaintext matches the stored hash.
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
