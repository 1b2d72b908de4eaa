package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "accounts_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	registrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_registrations_total",
		Help: "Registration attempts by role and outcome",
	}, []string{"role", "result"})

	vendorProvisionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "accounts_vendor_provision_duration_seconds",
		Help:    "Duration of vendor profile provisioning calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})

	compensations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_compensations_total",
		Help: "Rollbacks of half-created vendor accounts by outcome",
	}, []string{"result"})

	orphanedAccounts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "accounts_orphaned_total",
		Help: "Vendor principals left behind after a failed rollback",
	})

	logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_logins_total",
		Help: "Login attempts by outcome",
	}, []string{"result"})

	reconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "accounts_reconcile_outcomes_total",
		Help: "Reconciliation sweep decisions for unlinked vendor principals",
	}, []string{"outcome"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

func ObserveRegistration(role, result string) {
	registrations.WithLabelValues(role, result).Inc()
}

// ObserveVendorProvision records one call to the vendor service.
func ObserveVendorProvision(result string, duration time.Duration) {
	vendorProvisionDuration.WithLabelValues(result).Observe(duration.Seconds())
}

func ObserveCompensation(result string) {
	compensations.WithLabelValues(result).Inc()
}

// IncOrphaned counts a principal that could not be rolled back.
func IncOrphaned() {
	orphanedAccounts.Inc()
}

func ObserveLogin(result string) {
	logins.WithLabelValues(result).Inc()
}

func ObserveReconcile(outcome string) {
	reconcileOutcomes.WithLabelValues(outcome).Inc()
}
