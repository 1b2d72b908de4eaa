package usecase

import (
	"context"
	"strings"
	"testing"
	"time"

	"account-provisioning/internal/data/entity"
	"account-provisioning/internal/dto/request"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueTicket(t *testing.T, svc *Service, email string) string {
	t.Helper()
	resp, err := svc.Reset.ForgotPassword(context.Background(), &request.ForgotPasswordRequest{Email: email})
	require.NoError(t, err)
	require.NotEmpty(t, resp.ResetToken)
	return resp.ResetToken
}

func resetReq(token, password string) *request.ResetPasswordRequest {
	return &request.ResetPasswordRequest{Token: token, Password: password, ConfirmPassword: password}
}

func TestForgotPasswordUnknownEmail(t *testing.T) {
	env := newTestEnv(t, nil)

	resp, err := env.service().Reset.ForgotPassword(context.Background(), &request.ForgotPasswordRequest{Email: "ghost@x.com"})
	require.NoError(t, err)
	assert.Empty(t, resp.ResetToken)
	assert.Nil(t, resp.ExpiresAt)
}

func TestForgotPasswordStoresOnlyDigest(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.repo.seed(t, &entity.Principal{Name: "C", Email: "c@x.com", Role: entity.RoleCustomer, IsActive: true}, testPassword)

	secret := issueTicket(t, env.service(), "c@x.com")
	assert.Len(t, secret, 64)

	stored, _ := env.repo.FindByID(context.Background(), p.ID)
	require.NotNil(t, stored.ResetTokenHash)
	assert.NotEqual(t, secret, *stored.ResetTokenHash)
	assert.Equal(t, env.clock.Now().Add(15*time.Minute), *stored.ResetTokenExpiresAt)
}

func TestResetTicketIsSingleUse(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.service()
	env.repo.seed(t, &entity.Principal{Name: "C", Email: "c@x.com", Role: entity.RoleCustomer, IsActive: true}, testPassword)

	secret := issueTicket(t, svc, "c@x.com")

	require.NoError(t, svc.Reset.ResetPassword(context.Background(), resetReq(secret, "N3w-passw0rd")))

	err := svc.Reset.ResetPassword(context.Background(), resetReq(secret, "An0ther-pass"))
	assert.Equal(t, KindAuthentication, KindOf(err))

	appErr, err := login(svc, "c@x.com", "N3w-passw0rd")
	require.NoError(t, err)
	assert.Nil(t, appErr)
}

func TestResetClearsLockout(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.service()
	p := env.repo.seed(t, &entity.Principal{Name: "C", Email: "c@x.com", Role: entity.RoleCustomer, IsActive: true}, testPassword)

	for i := 0; i < 5; i++ {
		_, _ = login(svc, "c@x.com", "wrong")
	}
	secret := issueTicket(t, svc, "c@x.com")
	require.NoError(t, svc.Reset.ResetPassword(context.Background(), resetReq(secret, "N3w-passw0rd")))

	stored, _ := env.repo.FindByID(context.Background(), p.ID)
	assert.Zero(t, stored.FailedAttempts)
	assert.Nil(t, stored.LockUntil)
	assert.Nil(t, stored.ResetTokenHash)
}

func TestResetTicketExpires(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.service()
	env.repo.seed(t, &entity.Principal{Name: "C", Email: "c@x.com", Role: entity.RoleCustomer, IsActive: true}, testPassword)

	secret := issueTicket(t, svc, "c@x.com")
	env.clock.Advance(16 * time.Minute)

	err := svc.Reset.ResetPassword(context.Background(), resetReq(secret, "N3w-passw0rd"))
	assert.Equal(t, KindAuthentication, KindOf(err))
}

func TestNewTicketInvalidatesPrevious(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.service()
	env.repo.seed(t, &entity.Principal{Name: "C", Email: "c@x.com", Role: entity.RoleCustomer, IsActive: true}, testPassword)

	first := issueTicket(t, svc, "c@x.com")
	second := issueTicket(t, svc, "c@x.com")
	require.NotEqual(t, first, second)

	err := svc.Reset.ResetPassword(context.Background(), resetReq(first, "N3w-passw0rd"))
	assert.Equal(t, KindAuthentication, KindOf(err))
	assert.NoError(t, svc.Reset.ResetPassword(context.Background(), resetReq(second, "N3w-passw0rd")))
}

func TestResetRejectsWeakPasswordAndKeepsTicket(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.service()
	env.repo.seed(t, &entity.Principal{Name: "C", Email: "c@x.com", Role: entity.RoleCustomer, IsActive: true}, testPassword)

	secret := issueTicket(t, svc, "c@x.com")

	err := svc.Reset.ResetPassword(context.Background(), resetReq(secret, "weakpass"))
	assert.Equal(t, KindValidation, KindOf(err))

	assert.NoError(t, svc.Reset.ResetPassword(context.Background(), resetReq(secret, "Str0ng-pass")))
}

func TestResetAdminUsesRelaxedRule(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.service()
	env.repo.seed(t, &entity.Principal{Name: "R", Email: "root@x.com", Role: entity.RoleAdmin, IsActive: true}, "simple")

	secret := issueTicket(t, svc, "root@x.com")
	assert.NoError(t, svc.Reset.ResetPassword(context.Background(), resetReq(secret, "plain1")))
}

func TestResetUnknownToken(t *testing.T) {
	env := newTestEnv(t, nil)

	err := env.service().Reset.ResetPassword(context.Background(), resetReq("deadbeef", "N3w-passw0rd"))
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindAuthentication, appErr.Kind)
	assert.Equal(t, MsgInvalidResetToken, appErr.Message)
}

func TestResetRejectsMultibytePasswordOverByteLimit(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.service()
	env.repo.seed(t, &entity.Principal{Name: "C", Email: "c@x.com", Role: entity.RoleCustomer, IsActive: true}, testPassword)

	secret := issueTicket(t, svc, "c@x.com")

	err := svc.Reset.ResetPassword(context.Background(), resetReq(secret, strings.Repeat("é", 60)+"1!"))
	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, KindValidation, appErr.Kind)
	assert.Contains(t, appErr.Fields, "password")

	// ticket survives the rejected attempt
	assert.NoError(t, svc.Reset.ResetPassword(context.Background(), resetReq(secret, "Str0ng-pass")))
}
