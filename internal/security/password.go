package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPasscode returns a bcrypt hash suitable for AUTH_PASSCODE_HASH
func HashPasscode(passcode string) (string, error) {
	if passcode == "" {
		return "", errors.New("passcode is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passcode), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPasscode reports whether passcode matches the bcrypt hash
func CheckPasscode(passcode, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(passcode)) == nil
}
