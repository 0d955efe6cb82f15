package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword produces the bcrypt hash stored in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("empty password")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword checks a login attempt against the stored hash; a nil
// return means the password matches.
func ComparePassword(hash, password string) error {
	if hash == "" || password == "" {
		return errors.New("missing hash or password")
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
