package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"account-provisioning/pkg/token"
	"account-provisioning/pkg/utils"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newIssuers(t *testing.T, clock clockwork.Clock) (*token.SessionIssuer, *token.ServiceTrustMinter) {
	t.Helper()
	sessions, err := token.NewSessionIssuer([]byte("session-key"), "accounts", time.Hour, clock)
	require.NoError(t, err)
	trust, err := token.NewServiceTrustMinter([]byte("service-key"), "accounts", 5*time.Minute, clock)
	require.NoError(t, err)
	return sessions, trust
}

func echoPrincipal(w http.ResponseWriter, r *http.Request) {
	id, _ := utils.GetPrincipalIDFromContext(r.Context())
	vendorID, _ := utils.GetVendorIDFromContext(r.Context())
	utils.ResponseSuccess(w, "ok", map[string]int64{"id": id, "vendor": vendorID})
}

func serve(h http.Handler, authHeader string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthSession(t *testing.T) {
	clock := clockwork.NewFakeClock()
	sessions, trust := newIssuers(t, clock)
	h := AuthSession(sessions, zap.NewNop())(http.HandlerFunc(echoPrincipal))

	vendorID := int64(77)
	signed, _, err := sessions.Issue(5, "vendor", &vendorID)
	require.NoError(t, err)

	rec := serve(h, "Bearer "+signed)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"vendor":77`)

	assert.Equal(t, http.StatusUnauthorized, serve(h, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Token "+signed).Code)

	trustToken, err := trust.Mint(5)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, serve(h, "Bearer "+trustToken).Code)

	clock.Advance(2 * time.Hour)
	rec = serve(h, "Bearer "+signed)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Session expired")
}

func TestAdmin(t *testing.T) {
	sessions, _ := newIssuers(t, clockwork.NewFakeClock())
	h := AuthSession(sessions, zap.NewNop())(Admin(zap.NewNop())(http.HandlerFunc(echoPrincipal)))

	admin, _, err := sessions.Issue(1, "admin", nil)
	require.NoError(t, err)
	customer, _, err := sessions.Issue(2, "customer", nil)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, serve(h, "Bearer "+admin).Code)
	assert.Equal(t, http.StatusForbidden, serve(h, "Bearer "+customer).Code)
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := serve(h, "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "Internal server error")
}
