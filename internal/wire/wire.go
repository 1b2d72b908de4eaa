// internal/wire/wire.go
package wire

import (
	"net/http"

	"account-provisioning/internal/adaptor"
	"account-provisioning/internal/data/cache"
	"account-provisioning/internal/data/remote"
	"account-provisioning/internal/data/repository"
	"account-provisioning/internal/usecase"
	"account-provisioning/internal/worker"
	"account-provisioning/pkg/metrics"
	"account-provisioning/pkg/middleware"
	"account-provisioning/pkg/token"
	"account-provisioning/pkg/utils"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// App holds the wired router and background workers.
type App struct {
	Router     *chi.Mux
	Reconciler *worker.Reconciler
}

// Wiring builds every dependency from config. A nil vendorCache disables caching.
func Wiring(repo *repository.Repository, vendorCache cache.VendorCache, config *utils.Config, logger *zap.Logger) (*App, error) {
	clock := clockwork.NewRealClock()

	sessions, err := token.NewSessionIssuer([]byte(config.JWT.SessionSecret), config.JWT.Issuer, config.SessionTTL(), clock)
	if err != nil {
		return nil, err
	}
	trust, err := token.NewServiceTrustMinter([]byte(config.JWT.ServiceSecret), config.JWT.Issuer, config.ServiceTrustTTL(), clock)
	if err != nil {
		return nil, err
	}

	vendors := remote.NewVendorClient(config.VendorService.BaseURL, config.VendorService.Timeout, nil, logger)

	// Initialize services and handlers
	service := usecase.NewService(usecase.Dependencies{
		Repo:        repo,
		Vendors:     vendors,
		VendorCache: vendorCache,
		Sessions:    sessions,
		Trust:       trust,
		Clock:       clock,
	}, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, sessions, config, logger)

	return &App{
		Router:     router,
		Reconciler: worker.NewReconciler(service.Reconcile, config.Reconcile.Interval, clock, logger),
	}, nil
}

func setupRouter(
	handler *adaptor.Handler,
	sessions *token.SessionIssuer,
	config *utils.Config,
	logger *zap.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Apply global middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS(config.App.CORSOrigins))
	r.Use(metrics.HTTPMetricsMiddleware)

	// Apply routes
	wireAuth(r, handler.Auth)
	wirePrincipal(r, handler.Principal, sessions, logger)

	r.Handle("/metrics", promhttp.Handler())

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
