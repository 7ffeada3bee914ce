package scheduler

import (
	"context"
	"fmt"
	"time"

	ledgerrepo "callcenter_backend/internal/ledger/repository"
	ledgerservice "callcenter_backend/internal/ledger/service"
	"callcenter_backend/platform/config"
	"callcenter_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	ledger *ledgerservice.Service
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, pool *pgxpool.Pool, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		ledger: ledgerservice.New(ledgerrepo.New(pool), log),
		log:    log,
	}

	mux.HandleFunc(TaskLedgerReconcile, w.handleLedgerReconcile)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("reconciler worker stopped", "error", err)
	}
}

// handleLedgerReconcile runs the drift report for one period. Drift is
// logged, never auto-corrected: a human decides how to repair a ledger.
func (w *Worker) handleLedgerReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLedgerReconcilePayload(task)
	if err != nil {
		return err
	}

	if payload.Month == 0 {
		now := time.Now()
		payload.Month = int(now.Month())
		payload.Year = now.Year()
	}

	drifts, err := w.ledger.Reconcile(ctx, payload.Month, payload.Year)
	if err != nil {
		return err
	}

	if len(drifts) == 0 {
		w.log.Info("ledger reconciliation clean", "month", payload.Month, "year", payload.Year)
		return nil
	}

	for _, d := range drifts {
		w.log.Warn("ledger drift detected",
			"managerId", d.ManagerID.String(),
			"rowKey", d.RowKey,
			"countDelta", d.CountDelta,
			"bonusDeltaCents", d.BonusDeltaCents,
			"month", payload.Month,
			"year", payload.Year)
	}

	return nil
}
