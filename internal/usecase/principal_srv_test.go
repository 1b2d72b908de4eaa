package usecase

import (
	"context"
	"testing"

	"account-provisioning/internal/data/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetActiveBlocksLogin(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.service()
	p := env.repo.seed(t, &entity.Principal{Name: "C", Email: "c@x.com", Role: entity.RoleCustomer, IsActive: true}, testPassword)

	resp, err := svc.Principal.SetActive(context.Background(), p.ID, false)
	require.NoError(t, err)
	assert.False(t, resp.IsActive)

	appErr, _ := login(svc, "c@x.com", testPassword)
	require.NotNil(t, appErr)
	assert.Equal(t, KindInactiveAccount, appErr.Kind)
}

func TestPrincipalNotFound(t *testing.T) {
	env := newTestEnv(t, nil)
	svc := env.service()

	_, err := svc.Principal.GetProfile(context.Background(), 404)
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = svc.Principal.SetActive(context.Background(), 404, true)
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestGetProfileHidesSecrets(t *testing.T) {
	env := newTestEnv(t, nil)
	p := env.repo.seed(t, &entity.Principal{Name: "C", Email: "c@x.com", Role: entity.RoleCustomer, IsActive: true}, testPassword)

	resp, err := env.service().Principal.GetProfile(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, "c@x.com", resp.Email)
	assert.Equal(t, entity.RoleCustomer, resp.Role)
}
