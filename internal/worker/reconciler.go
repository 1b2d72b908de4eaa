package worker

import (
	"context"
	"time"

	"account-provisioning/internal/usecase"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

// Reconciler periodically sweeps vendor principals whose provisioning saga
// never completed.
type Reconciler struct {
	service  usecase.ReconcileService
	interval time.Duration
	timeout  time.Duration
	clock    clockwork.Clock
	log      *zap.Logger
}

func NewReconciler(service usecase.ReconcileService, interval time.Duration, clock clockwork.Clock, log *zap.Logger) *Reconciler {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Reconciler{
		service:  service,
		interval: interval,
		timeout:  interval,
		clock:    clock,
		log:      log.With(zap.String("worker", "reconciler")),
	}
}

// Start blocks until ctx is done. A non-positive interval disables the sweep.
func (w *Reconciler) Start(ctx context.Context) {
	if w.interval <= 0 {
		w.log.Info("Reconciler disabled")
		return
	}

	ticker := w.clock.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("Reconciler started", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Reconciler stopped")
			return
		case <-ticker.Chan():
			w.runOnce(ctx)
		}
	}
}

func (w *Reconciler) runOnce(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if _, err := w.service.Reconcile(ctx); err != nil {
		w.log.Error("Reconciliation pass failed", zap.Error(err))
	}
}
