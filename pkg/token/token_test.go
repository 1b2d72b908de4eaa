package token

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	sessionSecret = []byte("session-secret-for-tests")
	serviceSecret = []byte("service-secret-for-tests")
)

func newIssuers(t *testing.T, clock clockwork.Clock) (*SessionIssuer, *ServiceTrustMinter) {
	t.Helper()

	sessions, err := NewSessionIssuer(sessionSecret, "accounts", 24*time.Hour, clock)
	require.NoError(t, err)

	minter, err := NewServiceTrustMinter(serviceSecret, "accounts", 5*time.Minute, clock)
	require.NoError(t, err)

	return sessions, minter
}

func TestSessionRoundTrip(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC))
	sessions, _ := newIssuers(t, clock)

	vendorID := int64(77)
	signed, expiresAt, err := sessions.Issue(42, "vendor", &vendorID)
	require.NoError(t, err)
	assert.Equal(t, clock.Now().Add(24*time.Hour), expiresAt)

	claims, err := sessions.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.PrincipalID)
	assert.Equal(t, "vendor", claims.Role)
	require.NotNil(t, claims.VendorID)
	assert.Equal(t, int64(77), *claims.VendorID)
}

func TestSessionWithoutVendor(t *testing.T) {
	sessions, _ := newIssuers(t, clockwork.NewFakeClock())

	signed, _, err := sessions.Issue(7, "customer", nil)
	require.NoError(t, err)

	claims, err := sessions.Verify(signed)
	require.NoError(t, err)
	assert.Nil(t, claims.VendorID)
	assert.Equal(t, "customer", claims.Role)
}

func TestSessionRejectedAfterExpiry(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sessions, _ := newIssuers(t, clock)

	signed, _, err := sessions.Issue(1, "customer", nil)
	require.NoError(t, err)

	clock.Advance(24*time.Hour - time.Minute)
	_, err = sessions.Verify(signed)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = sessions.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestSessionRejectsTamperedToken(t *testing.T) {
	sessions, _ := newIssuers(t, clockwork.NewFakeClock())

	signed, _, err := sessions.Issue(1, "admin", nil)
	require.NoError(t, err)

	_, err = sessions.Verify(signed + "x")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	_, err = sessions.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	sessions, minter := newIssuers(t, clockwork.NewFakeClock())

	trust, err := minter.Mint(9)
	require.NoError(t, err)
	_, err = sessions.Verify(trust)
	assert.ErrorIs(t, err, ErrTokenInvalid, "trust token must not pass as a session")

	session, _, err := sessions.Issue(9, "vendor", nil)
	require.NoError(t, err)
	_, err = minter.Verify(session)
	assert.ErrorIs(t, err, ErrTokenInvalid, "session token must not pass as a trust token")
}

func TestServiceTrustTokenScope(t *testing.T) {
	clock := clockwork.NewFakeClock()
	_, minter := newIssuers(t, clock)

	signed, err := minter.Mint(15)
	require.NoError(t, err)

	claims, err := minter.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, int64(15), claims.PrincipalID)
	assert.Equal(t, "vendor", claims.Role)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, 5*time.Minute, claims.ExpiresAt.Sub(claims.IssuedAt.Time))

	clock.Advance(6 * time.Minute)
	_, err = minter.Verify(signed)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestConstructorsRejectBadConfig(t *testing.T) {
	_, err := NewSessionIssuer(nil, "accounts", time.Hour, nil)
	assert.ErrorIs(t, err, ErrEmptySecret)

	_, err = NewServiceTrustMinter(serviceSecret, "accounts", 2*time.Hour, nil)
	assert.Error(t, err)

	_, err = NewServiceTrustMinter(serviceSecret, "accounts", 0, nil)
	assert.Error(t, err)

	minter, err := NewServiceTrustMinter(serviceSecret, "accounts", time.Minute, nil)
	require.NoError(t, err)
	_, err = minter.Mint(0)
	assert.Error(t, err)
}
