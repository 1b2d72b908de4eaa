// Package token mints and verifies the two signed credential types used by
// the service: user session tokens and service trust tokens. They use
// different keys and audiences and are verified by separate functions, so one
// can never be accepted in place of the other.
package token

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

const (
	SessionAudience      = "session"
	ServiceTrustAudience = "vendor-service"
)

var (
	ErrTokenExpired = errors.New("token is expired")
	ErrTokenInvalid = errors.New("token is invalid")
	ErrEmptySecret  = errors.New("signing secret must not be empty")
)

type signer struct {
	secret []byte
	issuer string
	clock  clockwork.Clock
}

func newSigner(secret []byte, issuer string, clock clockwork.Clock) (signer, error) {
	if len(secret) == 0 {
		return signer{}, ErrEmptySecret
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return signer{secret: secret, issuer: issuer, clock: clock}, nil
}

func (s signer) sign(claims jwt.Claims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s signer) parse(tokenString string, claims jwt.Claims, audience string) error {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(audience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.clock.Now),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ErrTokenExpired
		}
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid {
		return ErrTokenInvalid
	}
	return nil
}
