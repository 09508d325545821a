// Package token issues and validates the stateless bearer tokens used by the
// API. There is no revocation list; expiry is the only invalidation.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ErrInvalidToken is the single error returned for every decode failure:
// bad signature, wrong algorithm, expired, malformed, missing subject.
// Callers never learn which check failed.
var ErrInvalidToken = errors.New("invalid token")

type Service struct {
	secret    []byte
	algorithm string
	issuer    string
}

// New creates a token service. Secret and algorithm come from configuration;
// algorithm defaults to HS256 when empty.
func New(secret, algorithm, issuer string) *Service {
	if algorithm == "" {
		algorithm = "HS256"
	}
	return &Service{
		secret:    []byte(secret),
		algorithm: algorithm,
		issuer:    issuer,
	}
}

// Issue signs a token binding the username with expiry now+ttl.
func (s *Service) Issue(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		Issuer:    s.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	method := jwt.GetSigningMethod(s.algorithm)
	if method == nil {
		return "", ErrInvalidToken
	}
	return jwt.NewWithClaims(method, claims).SignedString(s.secret)
}

// Decode verifies the signature and expiry and returns the subject username.
func (s *Service) Decode(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{s.algorithm}))
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	if claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
