package token

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// MaxServiceTrustTTL bounds how long a provisioning credential may live.
const MaxServiceTrustTTL = time.Hour

const serviceTrustRole = "vendor"

// ServiceTrustClaims authorizes exactly one provisioning call for a freshly
// created vendor principal.
type ServiceTrustClaims struct {
	PrincipalID int64  `json:"principal_id"`
	Role        string `json:"role"`
	jwt.RegisteredClaims
}

type ServiceTrustMinter struct {
	signer
	ttl time.Duration
}

func NewServiceTrustMinter(secret []byte, issuer string, ttl time.Duration, clock clockwork.Clock) (*ServiceTrustMinter, error) {
	s, err := newSigner(secret, issuer, clock)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 || ttl > MaxServiceTrustTTL {
		return nil, fmt.Errorf("service trust ttl must be within (0, %s]", MaxServiceTrustTTL)
	}
	return &ServiceTrustMinter{signer: s, ttl: ttl}, nil
}

func (m *ServiceTrustMinter) TTL() time.Duration {
	return m.ttl
}

// Mint issues a trust token scoped to principalID.
func (m *ServiceTrustMinter) Mint(principalID int64) (string, error) {
	if principalID <= 0 {
		return "", fmt.Errorf("principal id must be positive")
	}
	now := m.clock.Now()

	claims := &ServiceTrustClaims{
		PrincipalID: principalID,
		Role:        serviceTrustRole,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    m.issuer,
			Subject:   fmt.Sprintf("%d", principalID),
			Audience:  jwt.ClaimStrings{ServiceTrustAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	return m.sign(claims)
}

// Verify is the check the vendor service side performs on the bearer token.
func (m *ServiceTrustMinter) Verify(tokenString string) (*ServiceTrustClaims, error) {
	claims := &ServiceTrustClaims{}
	if err := m.parse(tokenString, claims, ServiceTrustAudience); err != nil {
		return nil, err
	}
	if claims.PrincipalID <= 0 || claims.Role != serviceTrustRole {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
