package standings_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bozoleague/propline/internal/adapters/repository"
	"github.com/bozoleague/propline/internal/domain/model"
	"github.com/bozoleague/propline/internal/domain/standings"
	"github.com/bozoleague/propline/pkg/logger"
)

func intptr(n int) *int { return &n }

func missBet(id string, price *int, category model.Category, status model.Status) model.Bet {
	return model.Bet{
		ID:       id,
		MemberID: "m-" + id,
		CohortID: "league-1",
		Cycle:    model.Cycle{Season: 2025, Week: 14},
		Price:    price,
		Category: category,
		Status:   status,
	}
}

func TestSelectWorstMiss(t *testing.T) {
	Convey("Given a cycle's resolved bets", t, func() {
		Convey("Then the highest-priced RISK miss wins", func() {
			bets := []model.Bet{
				missBet("a", intptr(-110), model.CategoryRisk, model.StatusMiss),
				missBet("b", intptr(450), model.CategoryRisk, model.StatusMiss),
				missBet("c", intptr(900), model.CategoryRisk, model.StatusHit),
			}
			worst, ok := standings.SelectWorstMiss(bets)
			So(ok, ShouldBeTrue)
			So(worst.ID, ShouldEqual, "b")
		})

		Convey("Then SAFE misses and priceless bets never qualify", func() {
			bets := []model.Bet{
				missBet("a", intptr(650), model.CategorySafe, model.StatusMiss),
				missBet("b", nil, model.CategoryRisk, model.StatusMiss),
			}
			_, ok := standings.SelectWorstMiss(bets)
			So(ok, ShouldBeFalse)
		})

		Convey("Then ties keep the earliest submission", func() {
			bets := []model.Bet{
				missBet("first", intptr(300), model.CategoryRisk, model.StatusMiss),
				missBet("second", intptr(300), model.CategoryRisk, model.StatusMiss),
			}
			worst, ok := standings.SelectWorstMiss(bets)
			So(ok, ShouldBeTrue)
			So(worst.ID, ShouldEqual, "first")
		})

		Convey("Then an empty slice yields nothing", func() {
			_, ok := standings.SelectWorstMiss(nil)
			So(ok, ShouldBeFalse)
		})
	})
}

func TestAggregator(t *testing.T) {
	ctx := context.Background()
	cycle := model.Cycle{Season: 2025, Week: 14}

	newAggregator := func() (*standings.Aggregator, *repository.MemoryStore) {
		store := repository.NewMemoryStore()
		return standings.New(store, logger.Get()), store
	}

	seed := func(store *repository.MemoryStore, bet model.Bet) model.Bet {
		bet.RawText = "seed " + bet.ID
		bet.Status = model.StatusPending
		bet.CreatedAt = time.Now()
		So(store.Create(ctx, bet, bet.RawText), ShouldBeNil)
		return bet
	}

	Convey("Given an aggregator over a live store", t, func() {
		agg, store := newAggregator()

		Convey("Then rollup rejects non-terminal bets", func() {
			bet := missBet("p1", intptr(100), model.CategoryRisk, model.StatusPending)
			err := agg.Rollup(ctx, bet)
			So(errors.Is(err, standings.ErrNotTerminal), ShouldBeTrue)
		})

		Convey("Then rollups accumulate into standings", func() {
			for _, bet := range []model.Bet{
				missBet("h1", intptr(100), model.CategoryRisk, model.StatusHit),
				missBet("h2", intptr(100), model.CategoryRisk, model.StatusHit),
			} {
				bet.MemberID = "alice"
				So(agg.Rollup(ctx, bet), ShouldBeNil)
			}
			entries, err := agg.Standings(ctx, "league-1", repository.SortByHits)
			So(err, ShouldBeNil)
			So(len(entries), ShouldEqual, 1)
			So(entries[0].MemberID, ShouldEqual, "alice")
			So(entries[0].Hits, ShouldEqual, 2)
		})

		Convey("Then designation persists and WorstMiss reuses it", func() {
			seeded := seed(store, missBet("w1", intptr(500), model.CategoryRisk, model.StatusPending))
			_, transitioned, err := store.Resolve(ctx, seeded.ID, model.StatusMiss, time.Now())
			So(err, ShouldBeNil)
			So(transitioned, ShouldBeTrue)

			worst, err := agg.DesignateWorstMiss(ctx, cycle)
			So(err, ShouldBeNil)
			So(worst.ID, ShouldEqual, "w1")

			cached, err := agg.WorstMiss(ctx, cycle)
			So(err, ShouldBeNil)
			So(cached.ID, ShouldEqual, "w1")
		})

		Convey("Then a cycle without a qualifying miss errors", func() {
			_, err := agg.DesignateWorstMiss(ctx, model.Cycle{Season: 2025, Week: 1})
			So(errors.Is(err, standings.ErrNoWorstMiss), ShouldBeTrue)
		})
	})
}
