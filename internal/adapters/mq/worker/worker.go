// Package worker runs the resolution workers: each worker drains
// pending-bet jobs off the queue, asks the oracle how the line settled,
// and applies the terminal transition plus its standings rollup.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bozoleague/propline/internal/adapters/mq/queue"
	"github.com/bozoleague/propline/internal/adapters/oracle"
	"github.com/bozoleague/propline/internal/domain/model"
	"github.com/bozoleague/propline/internal/domain/resolve"
	"github.com/bozoleague/propline/pkg/logger"
	"github.com/bozoleague/propline/pkg/metrics"
)

const (
	defaultWorkerMultiplier = 4
	poolShutdownTimeout     = 30 * time.Second

	defaultOracleRate  = rate.Limit(50)
	defaultOracleBurst = 10
)

// Disposition classifies what happened to one job.
type Disposition int

const (
	// DispositionResolved means the bet reached a terminal status and
	// its rollup was applied.
	DispositionResolved Disposition = iota
	// DispositionPending means the oracle has no verdict yet.
	DispositionPending
	// DispositionSkipped means the bet needed no work: unmatched, or
	// already terminal.
	DispositionSkipped
	// DispositionFailed means the job errored.
	DispositionFailed
)

// Outcome is the per-job result delivered back to the resolution pass.
// Pass echoes the job's pass tag; a pass discards outcomes carrying
// another pass's tag.
type Outcome struct {
	BetID       string
	Pass        uint64
	Disposition Disposition
	Status      model.Status
	Err         error
}

// Settler answers how a line settled. oracle.ErrUnresolved leaves the
// bet pending.
type Settler interface {
	Resolve(ctx context.Context, lineID string) (oracle.Result, error)
}

// Store is the slice of the bet store workers need: the terminal
// compare-and-set.
type Store interface {
	Resolve(ctx context.Context, id string, status model.Status, at time.Time) (model.Bet, bool, error)
}

// Rollup folds a terminal transition into standings.
type Rollup interface {
	Rollup(ctx context.Context, bet model.Bet) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Worker processes resolution jobs until stopped.
type Worker interface {
	Run(ctx context.Context)
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker over the in-memory queue.
type InMemoryWorker struct {
	queue   Queue
	settler Settler
	store   Store
	rollup  Rollup
	limiter *rate.Limiter
	results chan<- Outcome
	name    string

	shutdown chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(q Queue, settler Settler, store Store, rollup Rollup, results chan<- Outcome, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		settler:  settler,
		store:    store,
		rollup:   rollup,
		limiter:  rate.NewLimiter(defaultOracleRate, defaultOracleBurst),
		results:  results,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			out := w.processJob(ctx, job)
			out.Pass = job.Pass
			w.deliver(ctx, out)
		}
	}
}

func (w *InMemoryWorker) deliver(ctx context.Context, out Outcome) {
	select {
	case w.results <- out:
	case <-ctx.Done():
	}
}

// signalStop closes the shutdown channel at most once, so worker and
// pool shutdowns can overlap safely.
func (w *InMemoryWorker) signalStop() {
	w.stopOnce.Do(func() { close(w.shutdown) })
}

// Shutdown gracefully stops the worker. Safe to call more than once.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.signalStop()

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processJob resolves a single bet.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) Outcome {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerLatency(float64(time.Since(start).Milliseconds()))
	}()

	bet := job.Bet

	// Unmatched bets have no line to settle against; they stay as
	// submitted until matched or voided by hand.
	if bet.LineID == nil {
		return Outcome{BetID: bet.ID, Disposition: DispositionSkipped, Status: bet.Status}
	}
	if bet.Status.Terminal() {
		return Outcome{BetID: bet.ID, Disposition: DispositionSkipped, Status: bet.Status}
	}

	if err := w.limiter.Wait(ctx); err != nil {
		return w.fail(ctx, bet, fmt.Errorf("waiting for oracle slot: %w", err))
	}

	verdict, err := w.settler.Resolve(ctx, *bet.LineID)
	if err != nil {
		if errors.Is(err, oracle.ErrUnresolved) {
			metrics.RecordOracleUnresolved()
			return Outcome{BetID: bet.ID, Disposition: DispositionPending, Status: bet.Status}
		}
		return w.fail(ctx, bet, fmt.Errorf("consulting oracle for line %s: %w", *bet.LineID, err))
	}

	status, changed, err := resolve.Transition(bet, verdict.Outcome)
	if err != nil {
		return w.fail(ctx, bet, err)
	}
	if !changed {
		return Outcome{BetID: bet.ID, Disposition: DispositionSkipped, Status: status}
	}

	stored, transitioned, err := w.store.Resolve(ctx, bet.ID, status, verdict.ObservedAt)
	if err != nil {
		return w.fail(ctx, bet, fmt.Errorf("storing transition for bet %s: %w", bet.ID, err))
	}
	if !transitioned {
		// Lost the race to another pass; the winner did the rollup.
		return Outcome{BetID: bet.ID, Disposition: DispositionSkipped, Status: stored.Status}
	}

	if err := w.rollup.Rollup(ctx, stored); err != nil {
		return w.fail(ctx, stored, err)
	}

	return Outcome{BetID: bet.ID, Disposition: DispositionResolved, Status: stored.Status}
}

func (w *InMemoryWorker) fail(ctx context.Context, bet model.Bet, err error) Outcome {
	metrics.RecordWorkerError()
	metrics.RecordResolutionError()
	w.logger.Error(ctx, "resolution job failed",
		logger.String("bet_id", bet.ID),
		logger.Error(err),
	)
	return Outcome{BetID: bet.ID, Disposition: DispositionFailed, Status: bet.Status, Err: err}
}

// Pool manages the resolution workers and the shared results channel.
type Pool struct {
	workers []*InMemoryWorker
	results chan Outcome

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers sharing one oracle
// rate limit. A workerCount below 1 sizes the pool from the CPU count.
func NewPool(workerCount int, q Queue, settler Settler, store Store, rollup Rollup, opts ...PoolOption) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	cfg := poolConfig{
		oracleRate:  defaultOracleRate,
		oracleBurst: defaultOracleBurst,
		resultsBuf:  workerCount * 2,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	pool := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		results: make(chan Outcome, cfg.resultsBuf),
		logger:  logger.Get().Named("worker-pool"),
	}

	limiter := rate.NewLimiter(cfg.oracleRate, cfg.oracleBurst)
	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			q, settler, store, rollup, pool.results,
			WithName("worker-"+strconv.Itoa(i)),
			WithLimiter(limiter),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Results is the channel resolution passes read per-job outcomes from.
// Passes must consume exactly as many outcomes as jobs they enqueued.
func (p *Pool) Results() <-chan Outcome {
	return p.results
}

// Shutdown gracefully shuts down the pool, closing the queue first so
// workers drain whatever is in flight.
func (p *Pool) Shutdown(ctx context.Context) error {
	if len(p.workers) == 0 {
		return nil
	}

	if closer, ok := p.workers[0].queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		w.signalStop()
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
