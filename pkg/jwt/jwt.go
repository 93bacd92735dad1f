package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)

// TokenTTL is how long an issued token stays valid. There is no
// revocation: a leaked token remains usable until this elapses.
const TokenTTL = 7 * 24 * time.Hour

// Claims represents the JWT payload.
type Claims struct {
	UserID string `json:"id"`
	Role   string `json:"role"` // rider | driver | admin
	gojwt.RegisteredClaims
}

// Signer issues and verifies HS256 session tokens. The secret lives on
// the struct; construct one in main and pass it down.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner returns a Signer for the given secret. An empty secret is
// an error; callers treat it as fatal at startup.
func NewSigner(secret string) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("jwt: JWT_SECRET is required")
	}
	return &Signer{secret: []byte(secret), ttl: TokenTTL, now: time.Now}, nil
}

// Issue creates a signed token for the given user.
func (s *Signer) Issue(userID, role string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: gojwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  gojwt.NewNumericDate(now),
			ExpiresAt: gojwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	return gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify parses and validates a raw token string. Expired and tampered
// tokens both come back as errors; callers treat them alike.
func (s *Signer) Verify(raw string) (*Claims, error) {
	token, err := gojwt.ParseWithClaims(raw, &Claims{}, func(t *gojwt.Token) (any, error) {
		if _, ok := t.Method.(*gojwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, gojwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
