package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/Kevin-Kurka/rabbithole-sub007/internal/model"
)

// RecomputeWorker is the change-driven coordinator. It listens for
// PostgreSQL NOTIFY on the 'score_events' channel and batches recomputation:
// if fifty mutations hit target X inside one window, it recomputes once.
// It also runs a periodic sweep over expired cache rows to self-heal any
// missed recompute. Per-target serialization is enforced downstream by the
// advisory-lock transaction, so cross-target work proceeds in parallel here.
type RecomputeWorker struct {
	pool       *pgxpool.Pool
	veracity   *VeracityService
	promotions *PromotionService
	batchMs    time.Duration
	sweepEvery time.Duration
	sweepRate  *rate.Limiter

	mu      sync.Mutex
	pending map[model.TargetRef]string // target → cause of the latest trigger

	listening atomic.Bool
}

// NewRecomputeWorker creates the coordinator.
func NewRecomputeWorker(pool *pgxpool.Pool, veracity *VeracityService, promotions *PromotionService) *RecomputeWorker {
	return &RecomputeWorker{
		pool:       pool,
		veracity:   veracity,
		promotions: promotions,
		batchMs:    2 * time.Second,
		sweepEvery: time.Minute,
		// The sweep is background self-healing; pace it so it never
		// competes with inline recomputes for the pool.
		sweepRate: rate.NewLimiter(rate.Limit(20), 5),
		pending:   make(map[model.TargetRef]string),
	}
}

// ListenerUp reports whether the notification listener currently holds a
// LISTEN connection. False while (re)connecting: mutations still land, the
// expiry sweep picks up anything missed.
func (w *RecomputeWorker) ListenerUp() bool {
	return w.listening.Load()
}

// Schedule queues a target for recomputation in the next batch window.
func (w *RecomputeWorker) Schedule(target model.TargetRef, cause string) {
	w.mu.Lock()
	w.pending[target] = cause
	w.mu.Unlock()
}

// Start begins listening for score_events notifications and processing
// batches. Blocks until ctx is cancelled.
func (w *RecomputeWorker) Start(ctx context.Context) {
	log.Info().Dur("batch_window", w.batchMs).Msg("recompute-worker: starting")

	go w.sweepLoop(ctx)

	for {
		if err := w.listenLoop(ctx); err != nil {
			if ctx.Err() != nil {
				log.Info().Msg("recompute-worker: stopping (context cancelled)")
				return
			}
			log.Error().Err(err).Msg("recompute-worker: listen error, reconnecting in 5s")
			select {
			case <-time.After(5 * time.Second):
			case <-ctx.Done():
				log.Info().Msg("recompute-worker: stopping (context cancelled)")
				return
			}
		}
	}
}

// listenLoop acquires a dedicated connection, LISTENs on score_events, and
// feeds the pending set.
func (w *RecomputeWorker) listenLoop(ctx context.Context) error {
	conn, err := w.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN score_events"); err != nil {
		return err
	}
	w.listening.Store(true)
	defer w.listening.Store(false)
	log.Info().Msg("recompute-worker: listening on score_events")

	flushCtx, flushCancel := context.WithCancel(ctx)
	defer flushCancel()
	go w.flushLoop(flushCtx)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return err
		}

		target, ok := parseTargetKey(notification.Payload)
		if !ok {
			log.Warn().Str("payload", notification.Payload).Msg("recompute-worker: malformed notification")
			continue
		}
		w.Schedule(target, "mutation_event")
	}
}

// flushLoop periodically drains the pending set and recomputes.
func (w *RecomputeWorker) flushLoop(ctx context.Context) {
	ticker := time.NewTicker(w.batchMs)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.flush(ctx)
		case <-ctx.Done():
			// Final flush before exit; each target's recompute is
			// independently idempotent, so partial work is safe.
			w.flush(context.Background())
			return
		}
	}
}

// flush drains the pending set and runs the full pipeline per target:
// veracity recompute → source credibility refresh → eligibility evaluation.
// Eligibility always runs last so it sees the freshly committed score inputs.
func (w *RecomputeWorker) flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	batch := w.pending
	w.pending = make(map[model.TargetRef]string)
	w.mu.Unlock()

	recomputed := 0
	for target, cause := range batch {
		if err := w.runPipeline(ctx, target, cause); err != nil {
			if errors.Is(err, ErrTargetMissing) {
				log.Debug().Str("target", target.Key()).Msg("recompute-worker: target gone, skipping")
				continue
			}
			log.Error().Err(err).Str("target", target.Key()).Msg("recompute-worker: pipeline error")
			continue
		}
		recomputed++
	}

	if recomputed > 0 {
		log.Info().Int("recomputed", recomputed).Int("batch", len(batch)).
			Msg("recompute-worker: batch complete")
	}
}

// runPipeline executes the declared dependency order for one target.
func (w *RecomputeWorker) runPipeline(ctx context.Context, target model.TargetRef, cause string) error {
	start := time.Now()

	if _, err := w.veracity.Recompute(ctx, target, cause, target.Key()); err != nil {
		return err
	}
	if err := w.veracity.RefreshSourceCredibility(ctx, target); err != nil {
		return err
	}
	if _, err := w.promotions.Reevaluate(ctx, target); err != nil {
		return err
	}

	observeRecomputeDuration(time.Since(start))
	return nil
}

// sweepLoop periodically rescans for expired cache rows and reschedules them.
func (w *RecomputeWorker) sweepLoop(ctx context.Context) {
	ticker := time.NewTicker(w.sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// sweep reschedules targets whose expiry has passed. Abandoning a sweep
// mid-batch is safe; the next tick resumes where inputs still warrant it.
func (w *RecomputeWorker) sweep(ctx context.Context) {
	targets, err := w.veracity.scores.ExpiredTargets(ctx, 200)
	if err != nil {
		log.Error().Err(err).Msg("recompute-worker: sweep query error")
		return
	}
	for _, target := range targets {
		if err := w.sweepRate.Wait(ctx); err != nil {
			return
		}
		w.Schedule(target, "expiry_sweep")
	}
	if len(targets) > 0 {
		log.Info().Int("targets", len(targets)).Msg("recompute-worker: sweep rescheduled expired rows")
	}
}

// parseTargetKey parses a "type:id" notification payload.
func parseTargetKey(payload string) (model.TargetRef, bool) {
	tt, id, ok := strings.Cut(payload, ":")
	if !ok || id == "" || !model.ValidTargetTypes[model.TargetType(tt)] {
		return model.TargetRef{}, false
	}
	return model.TargetRef{Type: model.TargetType(tt), ID: id}, true
}
