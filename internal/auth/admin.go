package auth

import (
	"strings"

	"golang.org/x/crypto/bcrypt"

	"evaladmin/internal/apperr"
)

// Admin holds the single administrator credential.
type Admin struct {
	Email        string
	PasswordHash string
}

// Verify checks an email/password pair against the configured admin. Any
// mismatch returns apperr.ErrUnauthorized.
func (a Admin) Verify(email, password string) error {
	if a.PasswordHash == "" {
		return apperr.ErrUnauthorized
	}
	if !strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(a.Email)) {
		return apperr.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return apperr.ErrUnauthorized
	}
	return nil
}

// HashPassword returns a bcrypt hash suitable for ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
