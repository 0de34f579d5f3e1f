// Package auth verifies operator credentials and issues the bearer tokens
// that protect the admin API.
package auth

import (
	"context"
	"crypto/subtle"

	"github.com/knoxite/admin"
	"golang.org/x/crypto/bcrypt"
)

// HashCost is the bcrypt cost used for stored operator passwords.
const HashCost = 14

// MinPasswordLength is the shortest password setup accepts.
const MinPasswordLength = 8

var (
	// EIncorrectPassword is returned when any password operation fails in which
	// we do not want to leak information.
	EIncorrectPassword = &admin.Error{
		Code: admin.EForbidden,
		Msg:  "your username or password is incorrect",
	}

	// EShortPassword is used when a password is less than the minimum
	// acceptable password length.
	EShortPassword = &admin.Error{
		Code: admin.EInvalid,
		Msg:  "passwords must be at least 8 characters long",
	}
)

// HashPassword returns the bcrypt hash of password at the given cost. A cost
// of zero selects HashCost.
func HashPassword(password string, cost int) (string, error) {
	if len(password) < MinPasswordLength {
		return "", EShortPassword
	}
	if cost == 0 {
		cost = HashCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", &admin.Error{
			Code: admin.EInternal,
			Op:   "auth.HashPassword",
			Err:  err,
		}
	}
	return string(b), nil
}

// Authenticator checks the single operator account configured on the server.
type Authenticator struct {
	username     string
	passwordHash []byte
}

var _ admin.Authenticator = (*Authenticator)(nil)

// NewAuthenticator returns an Authenticator for username with the bcrypt
// passwordHash.
func NewAuthenticator(username, passwordHash string) *Authenticator {
	return &Authenticator{
		username:     username,
		passwordHash: []byte(passwordHash),
	}
}

// Authenticate compares a provided password with the stored password hash.
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) error {
	// The hash is compared even for unknown users so both paths take as long.
	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(a.username)) == 1
	if err := bcrypt.CompareHashAndPassword(a.passwordHash, []byte(password)); err != nil || !userOK {
		return EIncorrectPassword
	}
	return nil
}
