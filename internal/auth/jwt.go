// Package auth covers the admin session: HS256 token issue/verify and
// the bcrypt password helpers behind ADMIN_PASSWORD_HASH.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Manager signs and parses the admin session tokens. Access and refresh
// tokens share the claim shape and differ only in lifetime; both travel
// in HTTP-only cookies.
type Manager struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

func (m *Manager) newToken(role string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.Secret)
}

func (m *Manager) NewAccessToken(role string) (string, error) {
	return m.newToken(role, m.AccessTTL)
}

func (m *Manager) NewRefreshToken(role string) (string, error) {
	return m.newToken(role, m.RefreshTTL)
}

// Parse verifies signature, expiry and issuer. A token signed with
// another method or minted by another issuer is ErrInvalidToken.
func (m *Manager) Parse(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return m.Secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if m.Issuer != "" && claims.Issuer != m.Issuer {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
