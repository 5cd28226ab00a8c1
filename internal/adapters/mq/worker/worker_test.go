package worker_test

import (
	"context"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bozoleague/propline/internal/adapters/mq/queue"
	"github.com/bozoleague/propline/internal/adapters/mq/worker"
	"github.com/bozoleague/propline/internal/adapters/oracle"
	"github.com/bozoleague/propline/internal/adapters/repository"
	"github.com/bozoleague/propline/internal/domain/model"
	"github.com/bozoleague/propline/internal/domain/standings"
	"github.com/bozoleague/propline/pkg/logger"
)

var testCycle = model.Cycle{Season: 2025, Week: 14}

func strptr(s string) *string { return &s }
func intptr(n int) *int       { return &n }

func seedBet(ctx context.Context, store *repository.MemoryStore, id, lineID string, dir model.Direction) model.Bet {
	bet := model.Bet{
		ID:        id,
		MemberID:  "member-" + id,
		CohortID:  "league-1",
		Cycle:     testCycle,
		RawText:   "bet " + id,
		Direction: dir,
		Category:  model.CategoryRisk,
		Status:    model.StatusPending,
		Price:     intptr(-110),
		CreatedAt: time.Now(),
	}
	if lineID != "" {
		bet.LineID = strptr(lineID)
	}
	So(store.Create(ctx, bet, bet.RawText), ShouldBeNil)
	return bet
}

func TestPool(t *testing.T) {
	ctx := context.Background()

	Convey("Given a running pool over recorded outcomes", t, func() {
		store := repository.NewMemoryStore()
		settled := oracle.NewRecordedOracle()
		agg := standings.New(store, logger.Get())
		q := queue.NewInMemoryQueue(queue.WithCapacity(16))

		pool := worker.NewPool(2, q, settled, store, agg,
			worker.WithOracleRate(1000, 100))

		runCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		pool.Start(runCtx)

		collect := func(n int) map[string]worker.Outcome {
			outcomes := make(map[string]worker.Outcome, n)
			for i := 0; i < n; i++ {
				select {
				case out := <-pool.Results():
					outcomes[out.BetID] = out
				case <-time.After(2 * time.Second):
					t.Fatal("timed out waiting for outcomes")
				}
			}
			return outcomes
		}

		Convey("Then a settled over-line resolves and rolls up", func() {
			bet := seedBet(ctx, store, "b1", "line-1", model.DirectionOver)
			settled.Record("line-1", model.OutcomeOver, time.Now())

			So(q.Enqueue(ctx, queue.Job{Bet: bet}), ShouldBeTrue)
			outcomes := collect(1)

			So(outcomes["b1"].Disposition, ShouldEqual, worker.DispositionResolved)
			So(outcomes["b1"].Status, ShouldEqual, model.StatusHit)

			stored, err := store.Get(ctx, "b1")
			So(err, ShouldBeNil)
			So(stored.Status, ShouldEqual, model.StatusHit)

			entries, err := store.Standings(ctx, "league-1", repository.SortByHits)
			So(err, ShouldBeNil)
			So(len(entries), ShouldEqual, 1)
			So(entries[0].Hits, ShouldEqual, 1)
		})

		Convey("Then an unsettled line stays pending", func() {
			bet := seedBet(ctx, store, "b2", "line-nope", model.DirectionOver)

			So(q.Enqueue(ctx, queue.Job{Bet: bet}), ShouldBeTrue)
			outcomes := collect(1)

			So(outcomes["b2"].Disposition, ShouldEqual, worker.DispositionPending)
			stored, _ := store.Get(ctx, "b2")
			So(stored.Status, ShouldEqual, model.StatusPending)
		})

		Convey("Then an unmatched bet is skipped", func() {
			bet := seedBet(ctx, store, "b3", "", model.DirectionOver)

			So(q.Enqueue(ctx, queue.Job{Bet: bet}), ShouldBeTrue)
			outcomes := collect(1)

			So(outcomes["b3"].Disposition, ShouldEqual, worker.DispositionSkipped)
		})

		Convey("Then re-enqueueing a resolved bet is a skip, not a double rollup", func() {
			bet := seedBet(ctx, store, "b4", "line-4", model.DirectionUnder)
			settled.Record("line-4", model.OutcomeOver, time.Now())

			So(q.Enqueue(ctx, queue.Job{Bet: bet}), ShouldBeTrue)
			first := collect(1)
			So(first["b4"].Disposition, ShouldEqual, worker.DispositionResolved)
			So(first["b4"].Status, ShouldEqual, model.StatusMiss)

			// The pass re-reads pending bets in reality; feeding the stale
			// snapshot exercises the store's compare-and-set guard.
			So(q.Enqueue(ctx, queue.Job{Bet: bet}), ShouldBeTrue)
			second := collect(1)
			So(second["b4"].Disposition, ShouldEqual, worker.DispositionSkipped)

			entries, err := store.Standings(ctx, "league-1", repository.SortByMisses)
			So(err, ShouldBeNil)
			So(entries[0].Misses, ShouldEqual, 1)
		})

		Convey("Then outcomes carry the pass tag of their job", func() {
			bet := seedBet(ctx, store, "b5", "line-5", model.DirectionOver)
			settled.Record("line-5", model.OutcomeOver, time.Now())

			So(q.Enqueue(ctx, queue.Job{Bet: bet, Pass: 7}), ShouldBeTrue)
			outcomes := collect(1)
			So(outcomes["b5"].Pass, ShouldEqual, 7)
		})

		Convey("Then overlapping shutdowns do not panic", func() {
			So(func() {
				So(pool.Shutdown(ctx), ShouldBeNil)
				So(pool.Shutdown(ctx), ShouldBeNil)
			}, ShouldNotPanic)
		})
	})
}

func TestWorkerShutdownIdempotent(t *testing.T) {
	ctx := context.Background()

	Convey("Given a single running worker", t, func() {
		store := repository.NewMemoryStore()
		q := queue.NewInMemoryQueue(queue.WithCapacity(4))
		w := worker.NewInMemoryWorker(q, oracle.NewRecordedOracle(), store,
			standings.New(store, logger.Get()), make(chan worker.Outcome, 1))
		go w.Run(ctx)

		Convey("Then a second Shutdown is a no-op, not a panic", func() {
			So(w.Shutdown(ctx), ShouldBeNil)
			So(func() { _ = w.Shutdown(ctx) }, ShouldNotPanic)
		})
	})
}
