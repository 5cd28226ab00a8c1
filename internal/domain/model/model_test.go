package model_test

import (
	"testing"

	"github.com/bozoleague/propline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestParseStatus(t *testing.T) {
	Convey("Given stored status strings", t, func() {
		Convey("When parsing known values", func() {
			for raw, want := range map[string]model.Status{
				"PENDING": model.StatusPending,
				"hit":     model.StatusHit,
				" MISS ":  model.StatusMiss,
				"push":    model.StatusPush,
				"VOID":    model.StatusVoid,
			} {
				got, err := model.ParseStatus(raw)
				So(err, ShouldBeNil)
				So(got, ShouldEqual, want)
			}
		})

		Convey("When parsing an unknown value", func() {
			_, err := model.ParseStatus("WON")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestStatusTerminal(t *testing.T) {
	Convey("Given the status lifecycle", t, func() {
		Convey("Then PENDING is the only non-terminal state", func() {
			So(model.StatusPending.Terminal(), ShouldBeFalse)
			So(model.StatusHit.Terminal(), ShouldBeTrue)
			So(model.StatusMiss.Terminal(), ShouldBeTrue)
			So(model.StatusPush.Terminal(), ShouldBeTrue)
			So(model.StatusVoid.Terminal(), ShouldBeTrue)
		})
	})
}

func TestParseCategory(t *testing.T) {
	Convey("Given stored category strings", t, func() {
		risk, err := model.ParseCategory("risk")
		So(err, ShouldBeNil)
		So(risk, ShouldEqual, model.CategoryRisk)

		safe, err := model.ParseCategory("SAFE")
		So(err, ShouldBeNil)
		So(safe, ShouldEqual, model.CategorySafe)

		_, err = model.ParseCategory("bozo")
		So(err, ShouldNotBeNil)
	})
}

func TestParseDirectionAndOutcome(t *testing.T) {
	Convey("Given submitted direction strings", t, func() {
		dir, err := model.ParseDirection(" Over ")
		So(err, ShouldBeNil)
		So(dir, ShouldEqual, model.DirectionOver)

		empty, err := model.ParseDirection("")
		So(err, ShouldBeNil)
		So(empty, ShouldEqual, model.Direction(""))

		_, err = model.ParseDirection("sideways")
		So(err, ShouldNotBeNil)
	})

	Convey("Given reported outcome strings", t, func() {
		for raw, want := range map[string]model.Outcome{
			"over": model.OutcomeOver, "UNDER": model.OutcomeUnder,
			"push": model.OutcomePush, " void ": model.OutcomeVoid,
		} {
			got, err := model.ParseOutcome(raw)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := model.ParseOutcome("postponed")
		So(err, ShouldNotBeNil)
	})
}

func TestCycleKey(t *testing.T) {
	Convey("Given a cycle", t, func() {
		c := model.Cycle{Season: 2025, Week: 14}

		Convey("Then the key round-trips", func() {
			So(c.Key(), ShouldEqual, "2025-w14")
			parsed, err := model.ParseCycleKey(c.Key())
			So(err, ShouldBeNil)
			So(parsed, ShouldResemble, c)
		})

		Convey("Then garbage keys are rejected", func() {
			_, err := model.ParseCycleKey("week fourteen")
			So(err, ShouldNotBeNil)
		})
	})
}

func TestPolicyAllows(t *testing.T) {
	Convey("Given an inclusive policy window", t, func() {
		p := model.Policy{MinPrice: -120, MaxPrice: 130}

		Convey("Then both bounds are accepted", func() {
			So(p.Allows(-120), ShouldBeTrue)
			So(p.Allows(130), ShouldBeTrue)
		})

		Convey("Then prices just outside are rejected", func() {
			So(p.Allows(-121), ShouldBeFalse)
			So(p.Allows(131), ShouldBeFalse)
		})
	})
}

func TestMissRate(t *testing.T) {
	Convey("Given standing entries", t, func() {
		Convey("Then the rate is derived from counters", func() {
			e := model.StandingEntry{Hits: 3, Misses: 1}
			So(e.MissRate(), ShouldAlmostEqual, 0.25)
		})

		Convey("Then an empty record has rate zero", func() {
			So(model.StandingEntry{}.MissRate(), ShouldEqual, 0)
		})

		Convey("Then pushes and voids do not affect the rate", func() {
			e := model.StandingEntry{Hits: 1, Misses: 1, Pushes: 5, Voids: 2}
			So(e.MissRate(), ShouldAlmostEqual, 0.5)
		})
	})
}
