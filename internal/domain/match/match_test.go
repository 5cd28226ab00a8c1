package match_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bozoleague/propline/internal/adapters/catalog"
	"github.com/bozoleague/propline/internal/domain/match"
	"github.com/bozoleague/propline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var week14 = model.Cycle{Season: 2025, Week: 14}

func fixtureCatalog() *catalog.MemoryCatalog {
	c := catalog.NewMemoryCatalog()
	c.Add(
		model.Line{SourceID: "buf-qb-pass", Subject: "Josh Allen (Bills)", Category: "Passing Yards", Threshold: 250.5, Price: -115, Cycle: week14},
		model.Line{SourceID: "kc-ml", Subject: "Chiefs", Category: "Moneyline", Price: -180, Cycle: week14},
		model.Line{SourceID: "kc-rec", Subject: "Travis Kelce (Chiefs)", Category: "Receptions", Threshold: 5.5, Price: 110, Cycle: week14},
	)
	return c
}

type failingSource struct{}

func (failingSource) Lines(context.Context, model.Cycle) ([]model.Line, error) {
	return nil, errors.New("connection refused")
}

func TestMatchTiers(t *testing.T) {
	Convey("Given an engine over a fixture catalog", t, func() {
		engine := match.NewEngine(fixtureCatalog())
		ctx := context.Background()

		Convey("When the text exactly names subject, category and line", func() {
			res, err := engine.Match(ctx, week14, "Josh Allen (Bills) - Passing Yards 250.5")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeTrue)
			So(res.Confidence, ShouldEqual, 1.0)
			So(res.Line.SourceID, ShouldEqual, "buf-qb-pass")
		})

		Convey("When the text is a whole-game bet naming the team", func() {
			res, err := engine.Match(ctx, week14, "Chiefs Moneyline")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeTrue)
			So(res.Confidence, ShouldEqual, 1.0)
			So(res.Line.Price, ShouldEqual, -180)
		})

		Convey("When the text names subject and a category fragment", func() {
			res, err := engine.Match(ctx, week14, "josh allen yards")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeTrue)
			So(res.Confidence, ShouldBeBetweenOrEqual, 0.7, 0.9)
			So(res.Confidence, ShouldNotEqual, 1.0)
			So(res.Line.SourceID, ShouldEqual, "buf-qb-pass")
		})

		Convey("When the text names the subject alone", func() {
			res, err := engine.Match(ctx, week14, "Josh Allen")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeTrue)
			So(res.Confidence, ShouldEqual, 0.8)
			So(res.Line.SourceID, ShouldEqual, "buf-qb-pass")
		})

		Convey("When the text names a category alone", func() {
			res, err := engine.Match(ctx, week14, "receptions")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeTrue)
			So(res.Confidence, ShouldEqual, 0.7)
			So(res.Line.SourceID, ShouldEqual, "kc-rec")
		})

		Convey("When only a partial name overlaps", func() {
			res, err := engine.Match(ctx, week14, "allen")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeTrue)
			So(res.Confidence, ShouldEqual, 0.5)
		})
	})
}

func TestMatchNoMatch(t *testing.T) {
	Convey("Given an engine over a fixture catalog", t, func() {
		engine := match.NewEngine(fixtureCatalog())
		ctx := context.Background()

		Convey("When no subject in the catalog matches", func() {
			res, err := engine.Match(ctx, week14, "Zzz Nonexistent Player rushing")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeFalse)

			Convey("Then suggestions combine the subject with known categories", func() {
				So(res.Suggestions, ShouldNotBeEmpty)
				So(len(res.Suggestions), ShouldBeLessThanOrEqualTo, 5)
				found := false
				for _, s := range res.Suggestions {
					if strings.Contains(s, "zzz nonexistent player") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})

		Convey("When the catalog for the cycle is empty", func() {
			res, err := engine.Match(ctx, model.Cycle{Season: 2025, Week: 99}, "Chiefs Moneyline")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeFalse)
			So(res.Suggestions, ShouldNotBeEmpty)
		})

		Convey("When the input is empty", func() {
			res, err := engine.Match(ctx, week14, "   ")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeFalse)
			So(res.Suggestions, ShouldBeEmpty)
		})
	})
}

func TestMatchMatchupSubjects(t *testing.T) {
	Convey("Given whole-game lines listed per team", t, func() {
		c := catalog.NewMemoryCatalog()
		c.Add(
			model.Line{SourceID: "kc-ml", Subject: "Chiefs", Category: "Moneyline", Price: -180, Cycle: week14},
			model.Line{SourceID: "buf-ml", Subject: "Buffalo Bills", Category: "Moneyline", Price: -140, Cycle: week14},
		)
		engine := match.NewEngine(c)

		Convey("When the text names the matchup rather than a single team", func() {
			res, err := engine.Match(context.Background(), week14, "Bills at Dolphins moneyline")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeTrue)
			So(res.Confidence, ShouldEqual, 1.0)
			So(res.Line.SourceID, ShouldEqual, "buf-ml")
		})

		Convey("When neither side of the matchup is in the catalog", func() {
			res, err := engine.Match(context.Background(), week14, "Jets vs Giants moneyline")
			So(err, ShouldBeNil)
			So(res.Found, ShouldBeFalse)
		})
	})
}

func TestMatchTieBreak(t *testing.T) {
	Convey("Given two equally good candidates", t, func() {
		c := catalog.NewMemoryCatalog()
		c.Add(
			model.Line{SourceID: "first", Subject: "Chiefs", Category: "Moneyline", Price: -180, Cycle: week14},
			model.Line{SourceID: "second", Subject: "Chiefs", Category: "Moneyline", Price: -185, Cycle: week14},
		)
		engine := match.NewEngine(c)

		Convey("Then catalog order decides, deterministically", func() {
			for i := 0; i < 10; i++ {
				res, err := engine.Match(context.Background(), week14, "Chiefs Moneyline")
				So(err, ShouldBeNil)
				So(res.Found, ShouldBeTrue)
				So(res.Line.SourceID, ShouldEqual, "first")
			}
		})
	})
}

func TestMatchCatalogUnavailable(t *testing.T) {
	Convey("Given a catalog source that fails", t, func() {
		engine := match.NewEngine(failingSource{})

		Convey("Then the failure is typed, distinct from no-match", func() {
			_, err := engine.Match(context.Background(), week14, "Chiefs Moneyline")
			So(err, ShouldNotBeNil)
			So(errors.Is(err, match.ErrCatalogUnavailable), ShouldBeTrue)
		})
	})
}
