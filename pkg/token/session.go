package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

// SessionClaims is the self-contained user session credential.
type SessionClaims struct {
	PrincipalID int64  `json:"principal_id"`
	Role        string `json:"role"`
	VendorID    *int64 `json:"vendor_id,omitempty"`
	jwt.RegisteredClaims
}

type SessionIssuer struct {
	signer
	ttl time.Duration
}

func NewSessionIssuer(secret []byte, issuer string, ttl time.Duration, clock clockwork.Clock) (*SessionIssuer, error) {
	s, err := newSigner(secret, issuer, clock)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &SessionIssuer{signer: s, ttl: ttl}, nil
}

// Issue mints a session token and returns it with its expiry.
func (s *SessionIssuer) Issue(principalID int64, role string, vendorID *int64) (string, time.Time, error) {
	now := s.clock.Now()
	expiresAt := now.Add(s.ttl)

	claims := &SessionClaims{
		PrincipalID: principalID,
		Role:        role,
		VendorID:    vendorID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   fmt.Sprintf("%d", principalID),
			Audience:  jwt.ClaimStrings{SessionAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := s.sign(claims)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Verify checks signature, audience, issuer and expiry.
func (s *SessionIssuer) Verify(tokenString string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	if err := s.parse(tokenString, claims, SessionAudience); err != nil {
		return nil, err
	}
	if claims.PrincipalID <= 0 || claims.Role == "" {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
