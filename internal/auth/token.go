// Package auth issues and checks the bearer tokens that let a client drive
// a table.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid table token")

// TableClaims ties a token to one table.
type TableClaims struct {
	TableID string `json:"table_id"`
	Kind    string `json:"kind"`
	jwt.RegisteredClaims
}

// IssueTableToken signs an HS256 token for tableID valid for ttl.
func IssueTableToken(secret, tableID, kind string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := TableClaims{
		TableID: tableID,
		Kind:    kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   tableID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign table token: %w", err)
	}
	return signed, nil
}

// ParseTableToken verifies token and returns its claims.
func ParseTableToken(secret, token string) (*TableClaims, error) {
	var claims TableClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !parsed.Valid || claims.TableID == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
