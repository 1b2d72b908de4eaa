package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"account-provisioning/internal/data/entity"
	"account-provisioning/internal/data/remote"
	"account-provisioning/internal/data/repository"
	"account-provisioning/pkg/token"
	"account-provisioning/pkg/utils"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakePrincipalRepo is an in-memory repository.PrincipalRepository with the
// same uniqueness and conditional-update semantics as the SQL one.
type fakePrincipalRepo struct {
	mu         sync.Mutex
	clock      clockwork.Clock
	nextID     int64
	principals map[int64]*entity.Principal

	createErr error
	deleteErr error
	linkErr   error
	deletes   int
}

func newFakePrincipalRepo(clock clockwork.Clock) *fakePrincipalRepo {
	return &fakePrincipalRepo{clock: clock, principals: map[int64]*entity.Principal{}}
}

func clonePrincipal(p *entity.Principal) *entity.Principal {
	c := *p
	return &c
}

func (r *fakePrincipalRepo) byEmail(email string) *entity.Principal {
	email = repository.NormalizeEmail(email)
	for _, p := range r.principals {
		if p.Email == email {
			return p
		}
	}
	return nil
}

func (r *fakePrincipalRepo) Create(_ context.Context, p *entity.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}
	p.Email = repository.NormalizeEmail(p.Email)
	if r.byEmail(p.Email) != nil {
		return repository.ErrDuplicateEmail
	}

	r.nextID++
	p.ID = r.nextID
	p.CreatedAt = r.clock.Now()
	p.UpdatedAt = p.CreatedAt
	r.principals[p.ID] = clonePrincipal(p)
	return nil
}

func (r *fakePrincipalRepo) FindByID(_ context.Context, id int64) (*entity.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.principals[id]; ok {
		return clonePrincipal(p), nil
	}
	return nil, nil
}

func (r *fakePrincipalRepo) FindByEmail(_ context.Context, email string) (*entity.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.byEmail(email); p != nil {
		return clonePrincipal(p), nil
	}
	return nil, nil
}

func (r *fakePrincipalRepo) FindByResetTokenHash(_ context.Context, tokenHash string) (*entity.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.principals {
		if p.ResetTokenHash != nil && *p.ResetTokenHash == tokenHash {
			return clonePrincipal(p), nil
		}
	}
	return nil, nil
}

func (r *fakePrincipalRepo) FindUnlinkedVendors(_ context.Context, createdBefore time.Time, limit int) ([]*entity.Principal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []*entity.Principal
	for _, p := range r.principals {
		if p.Role == entity.RoleVendor && p.VendorID == nil && p.CreatedAt.Before(createdBefore) {
			out = append(out, clonePrincipal(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakePrincipalRepo) LinkVendor(_ context.Context, id, vendorID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.linkErr != nil {
		return r.linkErr
	}
	p, ok := r.principals[id]
	if !ok || p.Role != entity.RoleVendor || p.VendorID != nil {
		return fmt.Errorf("link vendor %d: %w", vendorID, repository.ErrPrincipalNotFound)
	}
	p.VendorID = &vendorID
	return nil
}

func (r *fakePrincipalRepo) UpdateLockout(_ context.Context, id int64, failedAttempts int, lockUntil *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.principals[id]; ok {
		p.FailedAttempts = failedAttempts
		p.LockUntil = lockUntil
	}
	return nil
}

func (r *fakePrincipalRepo) SetResetTicket(_ context.Context, id int64, tokenHash string, expiresAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.principals[id]
	if !ok {
		return repository.ErrPrincipalNotFound
	}
	p.ResetTokenHash = &tokenHash
	p.ResetTokenExpiresAt = &expiresAt
	return nil
}

func (r *fakePrincipalRepo) RedeemResetTicket(_ context.Context, id int64, tokenHash, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.principals[id]
	if !ok || p.ResetTokenHash == nil || *p.ResetTokenHash != tokenHash {
		return repository.ErrTicketNotFound
	}
	p.PasswordHash = passwordHash
	p.ResetTokenHash = nil
	p.ResetTokenExpiresAt = nil
	p.FailedAttempts = 0
	p.LockUntil = nil
	return nil
}

func (r *fakePrincipalRepo) SetActive(_ context.Context, id int64, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.principals[id]
	if !ok {
		return repository.ErrPrincipalNotFound
	}
	p.IsActive = active
	return nil
}

func (r *fakePrincipalRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	delete(r.principals, id)
	return nil
}

func (r *fakePrincipalRepo) DeleteUnlinkedVendor(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes++
	if r.deleteErr != nil {
		return r.deleteErr
	}
	p, ok := r.principals[id]
	if !ok || p.Role != entity.RoleVendor || p.VendorID != nil {
		return repository.ErrPrincipalNotFound
	}
	delete(r.principals, id)
	return nil
}

// seed stores a principal with a bcrypt hash of password.
func (r *fakePrincipalRepo) seed(t *testing.T, p *entity.Principal, password string) *entity.Principal {
	t.Helper()
	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	p.PasswordHash = hash
	require.NoError(t, r.Create(context.Background(), p))
	return p
}

var errStore = errors.New("connection reset by peer")

type testEnv struct {
	repo     *fakePrincipalRepo
	clock    *clockwork.FakeClock
	sessions *token.SessionIssuer
	trust    *token.ServiceTrustMinter
	vendors  remote.VendorClient
	config   *utils.Config
	log      *zap.Logger
}

func newTestEnv(t *testing.T, vendorHandler http.HandlerFunc) *testEnv {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	sessions, err := token.NewSessionIssuer([]byte("session-key"), "accounts", 24*time.Hour, clock)
	require.NoError(t, err)
	trust, err := token.NewServiceTrustMinter([]byte("service-key"), "accounts", 5*time.Minute, clock)
	require.NoError(t, err)

	if vendorHandler == nil {
		vendorHandler = func(w http.ResponseWriter, r *http.Request) {
			t.Errorf("unexpected vendor service call %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusInternalServerError)
		}
	}
	srv := httptest.NewServer(vendorHandler)
	t.Cleanup(srv.Close)

	config := &utils.Config{
		Lockout:   utils.LockoutConfig{Threshold: 5, Minutes: 15},
		Reset:     utils.ResetConfig{ExpiryMinutes: 15},
		Reconcile: utils.ReconcileConfig{Grace: 10 * time.Minute, Batch: 50},
	}

	log := zap.NewNop()
	return &testEnv{
		repo:     newFakePrincipalRepo(clock),
		clock:    clock,
		sessions: sessions,
		trust:    trust,
		vendors:  remote.NewVendorClient(srv.URL, 2*time.Second, srv.Client(), log),
		config:   config,
		log:      log,
	}
}

func (e *testEnv) service() *Service {
	return NewService(Dependencies{
		Repo:     &repository.Repository{Principal: e.repo},
		Vendors:  e.vendors,
		Sessions: e.sessions,
		Trust:    e.trust,
		Clock:    e.clock,
	}, e.config, e.log)
}
