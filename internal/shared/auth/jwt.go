package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const devSecret = "dev-secret"

var (
	// ErrInvalidToken covers every token that fails parsing, signature or claim checks.
	ErrInvalidToken = errors.New("invalid token")

	errMissingSecret = errors.New("jwt secret not configured")
)

// Claims is the identity carried by an access token. Subject is the stable user id.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
}

// Verifier checks HS256 access tokens issued by the identity provider.
type Verifier struct {
	secret []byte
}

// NewVerifier builds a Verifier. An empty secret falls back to a development
// secret unless requireSecret is set.
func NewVerifier(secret string, requireSecret bool) (*Verifier, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		if requireSecret {
			return nil, errMissingSecret
		}
		secret = devSecret
	}
	return &Verifier{secret: []byte(secret)}, nil
}

// Verify parses token and returns its claims when the signature, expiry and subject are valid.
func (v *Verifier) Verify(token string) (Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return Claims{}, ErrInvalidToken
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// Sign issues a token for subject valid for ttl. Used by tests and local tooling.
func (v *Verifier) Sign(subject string, ttl time.Duration) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", errors.New("subject is required")
	}
	now := time.Now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}
