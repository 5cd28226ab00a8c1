// Package service wires the engine together: submission intake with
// matching and policy checks, scheduled resolution passes, standings
// and worst-miss reads. It implements the dependencies required by the
// HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bozoleague/propline/internal/adapters/catalog"
	jobqueue "github.com/bozoleague/propline/internal/adapters/mq/queue"
	workerpool "github.com/bozoleague/propline/internal/adapters/mq/worker"
	"github.com/bozoleague/propline/internal/adapters/oracle"
	"github.com/bozoleague/propline/internal/adapters/repository"
	"github.com/bozoleague/propline/internal/adapters/schedule"
	"github.com/bozoleague/propline/internal/domain/match"
	"github.com/bozoleague/propline/internal/domain/model"
	"github.com/bozoleague/propline/internal/domain/normalize"
	"github.com/bozoleague/propline/internal/domain/resolve"
	"github.com/bozoleague/propline/internal/domain/standings"
	"github.com/bozoleague/propline/internal/domain/validate"
	"github.com/bozoleague/propline/pkg/logger"
	"github.com/bozoleague/propline/pkg/metrics"
)

// Service implements the prop-bet engine.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	lines      catalog.Catalog
	settler    workerpool.Settler
	matcher    *match.Engine
	validator  *validate.Validator
	aggregator *standings.Aggregator
	queue      jobqueue.Queue
	pool       *workerpool.Pool
	gate       schedule.Gate

	// passMu serializes resolution passes so each pass reads exactly
	// the outcomes of its own jobs. passSeq tags each pass's jobs;
	// a cancelled pass can leave outcomes behind in the results
	// buffer, and the tag lets the next pass discard them.
	passMu  sync.Mutex
	passSeq uint64

	// Configuration
	workerCount int
	queueSize   int
	oracleRate  float64
	oracleBurst int

	// State
	started bool

	logger logger.Logger
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: 4,
		queueSize:   10_000,
		oracleRate:  50,
		oracleBurst: 10,
		gate:        schedule.AlwaysOpen{},
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	if s.store == nil {
		s.store = repository.NewMemoryStore()
	}
	if s.lines == nil {
		s.lines = catalog.NewMemoryCatalog()
	}
	if s.settler == nil {
		s.settler = oracle.NewRecordedOracle()
	}

	s.matcher = match.NewEngine(s.lines)
	s.validator = validate.New(s.store, s.store)
	s.aggregator = standings.New(s.store, s.logger)

	s.queue = jobqueue.NewInMemoryQueue(
		jobqueue.WithCapacity(s.queueSize),
	)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.settler, s.store, s.aggregator,
		workerpool.WithOracleRate(s.oracleRate, s.oracleBurst),
	)
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	s.logger.Info(ctx, "stopping engine...")

	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	if s.store != nil {
		if closer, ok := s.store.(interface{ Close() error }); ok {
			_ = closer.Close()
		}
	}

	s.started = false
	s.logger.Info(ctx, "engine stopped")
}

// LoadCatalogFeed loads a line feed file into the catalog. The whole
// file is rejected on any malformed entry.
func (s *Service) LoadCatalogFeed(ctx context.Context, path string) error {
	lines, err := catalog.LoadFeedFile(path)
	if err != nil {
		return fmt.Errorf("loading catalog feed: %w", err)
	}

	adder, ok := s.lines.(interface{ Add(...model.Line) })
	if !ok {
		return ErrCatalogReadOnly
	}
	adder.Add(lines...)

	metrics.RecordCatalogRefresh()
	s.logger.Info(ctx, "catalog feed loaded",
		logger.String("path", path),
		logger.Int("lines", len(lines)),
	)
	return nil
}

// SubmitRequest is one member's free-text bet submission.
type SubmitRequest struct {
	MemberID  string
	CohortID  string
	Cycle     model.Cycle
	Text      string
	Direction model.Direction
	Category  model.Category
}

// SubmitResult reports what happened to a submission. Duplicate means
// the same member already submitted the same (normalized) text this
// cycle and Bet is the original. Rejected submissions are not stored;
// Reason carries the stable rejection code.
type SubmitResult struct {
	Bet         model.Bet
	Duplicate   bool
	Accepted    bool
	Reason      string
	Detail      string
	Suggestions []string
}

// SubmitBet runs the intake pipeline: normalize, dedupe, match against
// the catalog, snapshot the line price, validate against the cohort
// policy, persist.
func (s *Service) SubmitBet(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if !s.isStarted() {
		return SubmitResult{}, ErrNotStarted
	}

	normText := normalize.TrimLineValue(normalize.Normalize(req.Text))

	if existing, err := s.store.FindSubmission(ctx, req.MemberID, req.Cycle, normText); err == nil {
		metrics.RecordSubmissionDuplicate()
		s.logger.Debug(ctx, "duplicate submission",
			logger.String("member_id", req.MemberID),
			logger.String("bet_id", existing.ID),
		)
		return SubmitResult{Bet: existing, Duplicate: true, Accepted: true}, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return SubmitResult{}, fmt.Errorf("checking for duplicate submission: %w", err)
	}

	matched, err := s.matcher.Match(ctx, req.Cycle, req.Text)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("matching submission: %w", err)
	}

	category := req.Category
	if category == "" {
		category = model.CategoryRisk
	}

	bet := model.Bet{
		ID:        uuid.NewString(),
		MemberID:  req.MemberID,
		CohortID:  req.CohortID,
		Cycle:     req.Cycle,
		RawText:   req.Text,
		Direction: req.Direction,
		Category:  category,
		Status:    model.StatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if matched.Found {
		lineID := matched.Line.SourceID
		price := matched.Line.Price
		bet.LineID = &lineID
		bet.Price = &price
		bet.Confidence = matched.Confidence
		metrics.RecordBetMatched()
		metrics.RecordMatchConfidence(matched.Confidence)
	} else {
		metrics.RecordBetUnmatched()
	}

	verdict, err := s.validator.Check(ctx, validate.Submission{
		CohortID: req.CohortID,
		MemberID: req.MemberID,
		NormText: normText,
		Price:    bet.Price,
	})
	if err != nil {
		return SubmitResult{}, err
	}
	if !verdict.OK {
		return SubmitResult{
			Reason:      verdict.Reason,
			Detail:      verdict.Detail,
			Suggestions: matched.Suggestions,
		}, nil
	}

	if err := s.store.Create(ctx, bet, normText); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Lost a submission race; surface the winner.
			existing, ferr := s.store.FindSubmission(ctx, req.MemberID, req.Cycle, normText)
			if ferr != nil {
				return SubmitResult{}, fmt.Errorf("resolving submission race: %w", ferr)
			}
			metrics.RecordSubmissionDuplicate()
			return SubmitResult{Bet: existing, Duplicate: true, Accepted: true}, nil
		}
		return SubmitResult{}, fmt.Errorf("storing bet: %w", err)
	}

	metrics.RecordBetSubmitted(string(category))
	return SubmitResult{
		Bet:         bet,
		Accepted:    true,
		Suggestions: matched.Suggestions,
	}, nil
}

// PreviewMatch matches text against the cycle's catalog without
// storing anything.
func (s *Service) PreviewMatch(ctx context.Context, cycle model.Cycle, text string) (match.Result, error) {
	if !s.isStarted() {
		return match.Result{}, ErrNotStarted
	}
	return s.matcher.Match(ctx, cycle, text)
}

// RecordOutcome feeds a settled line outcome to the oracle so the next
// resolution pass can apply it.
func (s *Service) RecordOutcome(ctx context.Context, lineID string, outcome model.Outcome, observedAt time.Time) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	recorder, ok := s.settler.(interface {
		Record(lineID string, outcome model.Outcome, observedAt time.Time)
	})
	if !ok {
		return ErrOracleReadOnly
	}
	recorder.Record(lineID, outcome, observedAt)
	return nil
}

// ResolveCycle runs one resolution pass over the cycle's pending bets.
// force bypasses the schedule gate. Passes are serialized; a pass
// returns only after every job it enqueued has an outcome.
func (s *Service) ResolveCycle(ctx context.Context, cycle model.Cycle, force bool) (resolve.Report, error) {
	if !s.isStarted() {
		return resolve.Report{}, ErrNotStarted
	}
	if !force && !s.gate.ShouldRun(time.Now()) {
		return resolve.Report{}, ErrScheduleClosed
	}

	s.passMu.Lock()
	defer s.passMu.Unlock()

	pending, err := s.store.ListPending(ctx, cycle)
	if err != nil {
		return resolve.Report{}, fmt.Errorf("listing pending bets: %w", err)
	}
	metrics.UpdatePendingBets(len(pending))

	s.passSeq++
	passID := s.passSeq

	var report resolve.Report
	enqueued := 0
	for _, bet := range pending {
		if s.queue.Enqueue(ctx, jobqueue.Job{Bet: bet, Pass: passID}) {
			enqueued++
			continue
		}
		report.Failures = append(report.Failures, resolve.ItemError{BetID: bet.ID, Err: ErrQueueFull})
	}

	for received := 0; received < enqueued; {
		select {
		case out := <-s.pool.Results():
			if out.Pass != passID {
				// Leftover from a pass that returned early on a
				// cancelled context. Not ours to count.
				continue
			}
			received++
			switch out.Disposition {
			case workerpool.DispositionResolved:
				report.Resolved++
			case workerpool.DispositionPending:
				report.Pending++
			case workerpool.DispositionSkipped:
				report.Skipped++
			case workerpool.DispositionFailed:
				report.Failures = append(report.Failures, resolve.ItemError{BetID: out.BetID, Err: out.Err})
			}
		case <-ctx.Done():
			return report, ctx.Err()
		}
	}

	if report.Resolved > 0 {
		if _, err := s.aggregator.DesignateWorstMiss(ctx, cycle); err != nil && !errors.Is(err, standings.ErrNoWorstMiss) {
			s.logger.Error(ctx, "worst-miss designation failed",
				logger.String("cycle", cycle.Key()),
				logger.Error(err),
			)
		}
	}

	s.logger.Info(ctx, "resolution pass finished",
		logger.String("cycle", cycle.Key()),
		logger.Int("resolved", report.Resolved),
		logger.Int("pending", report.Pending),
		logger.Int("skipped", report.Skipped),
		logger.Int("failed", len(report.Failures)),
	)
	return report, nil
}

// Standings returns the cohort's entries sorted by the given key.
func (s *Service) Standings(ctx context.Context, cohortID, sortBy string) ([]model.StandingEntry, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	key, err := repository.ParseSortKey(sortBy)
	if err != nil {
		return nil, err
	}
	return s.aggregator.Standings(ctx, cohortID, key)
}

// WorstMiss returns the cycle's designated worst miss, computing it on
// first read.
func (s *Service) WorstMiss(ctx context.Context, cycle model.Cycle) (model.Bet, error) {
	if !s.isStarted() {
		return model.Bet{}, ErrNotStarted
	}
	return s.aggregator.WorstMiss(ctx, cycle)
}

// GetBet returns a bet by id.
func (s *Service) GetBet(ctx context.Context, id string) (model.Bet, error) {
	if !s.isStarted() {
		return model.Bet{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// ListBets returns all of the cycle's bets in submission order.
func (s *Service) ListBets(ctx context.Context, cycle model.Cycle) ([]model.Bet, error) {
	if !s.isStarted() {
		return nil, ErrNotStarted
	}
	return s.store.ListByCycle(ctx, cycle)
}

// AddMember adds a member to a cohort.
func (s *Service) AddMember(ctx context.Context, cohortID, memberID string) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	return s.store.AddMember(ctx, cohortID, memberID)
}

// SetPolicy installs a cohort's odds policy. It applies to future
// submissions only.
func (s *Service) SetPolicy(ctx context.Context, cohortID string, policy model.Policy) error {
	if !s.isStarted() {
		return ErrNotStarted
	}
	return s.store.SetPolicy(ctx, cohortID, policy)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
	}

	if s.started {
		queueLen := s.queue.Len(context.Background())
		stats["queueLength"] = queueLen
		if counter, ok := s.lines.(interface{ Len() int }); ok {
			size := counter.Len()
			stats["catalogSize"] = size
			metrics.UpdateCatalogSize(size)
		}
	}

	return stats
}

func (s *Service) isStarted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.started
}
