package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token roles carried in the JWT role claim.
const (
	// RoleAdmin marks a platform administrator session.
	RoleAdmin = "admin"
	// RoleCafe marks a cafe-owner session.
	RoleCafe = "cafe"
	// RoleUser marks an end-user session.
	RoleUser = "user"
)

// ErrInvalidToken indicates a token that failed parsing or validation.
var ErrInvalidToken = errors.New("security: invalid token")

// SessionClaims are the JWT claims issued for every signed-in principal.
type SessionClaims struct {
	SubjectID uint64 `json:"sid"`
	Role      string `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs a session token for the given principal.
func IssueToken(secret string, role string, subjectID uint64, expiry time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("security: empty jwt secret")
	}
	now := time.Now().UTC()
	claims := SessionClaims{
		SubjectID: subjectID,
		Role:      role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, errSign := token.SignedString([]byte(secret))
	if errSign != nil {
		return "", fmt.Errorf("security: sign token: %w", errSign)
	}
	return signed, nil
}

// ParseToken validates a session token and returns its claims when the role
// matches.
func ParseToken(secret, tokenString, wantRole string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, errParse := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("security: unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if errParse != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Role != wantRole {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
