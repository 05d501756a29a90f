// Package auth implements the static-credential login collaborator. It is
// deliberately trivial: one configured account, constant-time comparison.
package auth

import (
	"crypto/subtle"

	apperrors "go-chart-analyzer/internal/errors"
)

type Authenticator struct {
	userID   string
	password string
}

func NewAuthenticator(userID, password string) *Authenticator {
	return &Authenticator{userID: userID, password: password}
}

// Authenticate checks the supplied credentials against the configured
// account. Both fields are compared even on a user ID mismatch so timing
// does not reveal which field was wrong.
func (a *Authenticator) Authenticate(userID, password string) error {
	if a.password == "" {
		return apperrors.NewUnauthorizedError("login is not configured")
	}
	userOK := subtle.ConstantTimeCompare([]byte(userID), []byte(a.userID))
	passOK := subtle.ConstantTimeCompare([]byte(password), []byte(a.password))
	if userOK&passOK != 1 {
		return apperrors.NewUnauthorizedError("invalid user ID or password")
	}
	return nil
}
