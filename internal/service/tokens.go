package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/boddenberg/mortgage-estimator-go/internal/domain"
)

const (
	tokenIssuer = "mortgage-estimator"
	tokenType   = "session"
)

// SessionClaims binds a bearer token to one session id (the subject).
type SessionClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func (e *Estimator) signSessionToken(sessionID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(e.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(e.secret)
}

// ValidateToken checks a session token and returns the session id it
// was issued for.
func (e *Estimator) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return e.secret, nil
	}, jwt.WithIssuer(tokenIssuer))
	if err != nil {
		return "", &domain.ErrUnauthorized{Message: "invalid or expired session token"}
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid || claims.Type != tokenType || claims.Subject == "" {
		return "", &domain.ErrUnauthorized{Message: "invalid session token"}
	}
	return claims.Subject, nil
}
