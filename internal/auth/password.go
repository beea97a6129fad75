// Package auth holds company secrets and session tokens.
package auth

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/phenrril/rodada/internal/domain"
)

const MinSecretLen = 4

var ErrSecretTooShort = errors.New("senha muito curta")

func HashSecret(secret string) (string, error) {
	if len(strings.TrimSpace(secret)) < MinSecretLen {
		return "", ErrSecretTooShort
	}
	b, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckSecret returns domain.ErrInvalidCredentials on any mismatch.
func CheckSecret(hash, secret string) error {
	if hash == "" {
		return domain.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)); err != nil {
		return domain.ErrInvalidCredentials
	}
	return nil
}
