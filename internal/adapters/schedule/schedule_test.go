package schedule_test

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bozoleague/propline/internal/adapters/schedule"
)

func TestCronGate(t *testing.T) {
	Convey("Given a gate on Tuesday 09:00 with a two-hour window", t, func() {
		gate, err := schedule.NewCronGate("0 9 * * 2", 2*time.Hour)
		So(err, ShouldBeNil)

		// 2025-09-09 is a Tuesday.
		tuesday := time.Date(2025, 9, 9, 9, 0, 0, 0, time.UTC)

		Convey("Then the gate opens at and just after the firing", func() {
			So(gate.ShouldRun(tuesday), ShouldBeTrue)
			So(gate.ShouldRun(tuesday.Add(90*time.Minute)), ShouldBeTrue)
		})

		Convey("Then the gate is shut outside the window", func() {
			So(gate.ShouldRun(tuesday.Add(-time.Minute)), ShouldBeFalse)
			So(gate.ShouldRun(tuesday.Add(3*time.Hour)), ShouldBeFalse)
			So(gate.ShouldRun(tuesday.AddDate(0, 0, 1)), ShouldBeFalse)
		})
	})

	Convey("Given a bad cron expression", t, func() {
		_, err := schedule.NewCronGate("not a spec", time.Hour)
		So(err, ShouldNotBeNil)
	})

	Convey("Given the always-open gate", t, func() {
		So(schedule.AlwaysOpen{}.ShouldRun(time.Now()), ShouldBeTrue)
	})
}
