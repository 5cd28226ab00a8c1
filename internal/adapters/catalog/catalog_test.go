package catalog_test

import (
	"context"
	"strings"
	"testing"

	"github.com/bozoleague/propline/internal/adapters/catalog"
	"github.com/bozoleague/propline/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var week14 = model.Cycle{Season: 2025, Week: 14}

func TestMemoryCatalog(t *testing.T) {
	Convey("Given an in-memory catalog", t, func() {
		c := catalog.NewMemoryCatalog()
		ctx := context.Background()

		Convey("When empty", func() {
			lines, err := c.Lines(ctx, week14)
			So(err, ShouldBeNil)
			So(lines, ShouldBeEmpty)
		})

		Convey("When lines are added for two cycles", func() {
			c.Add(
				model.Line{SourceID: "l1", Subject: "Chiefs", Category: "moneyline", Price: -180, Cycle: week14},
				model.Line{SourceID: "l2", Subject: "Bills", Category: "moneyline", Price: 150, Cycle: week14},
				model.Line{SourceID: "l3", Subject: "Chiefs", Category: "moneyline", Price: -120, Cycle: model.Cycle{Season: 2025, Week: 15}},
			)

			Convey("Then Lines filters by cycle in insertion order", func() {
				lines, err := c.Lines(ctx, week14)
				So(err, ShouldBeNil)
				So(len(lines), ShouldEqual, 2)
				So(lines[0].SourceID, ShouldEqual, "l1")
				So(lines[1].SourceID, ShouldEqual, "l2")
			})

			Convey("And Replace swaps only the target cycle", func() {
				c.Replace(week14, []model.Line{
					{SourceID: "l4", Subject: "Eagles", Category: "spread", Price: -110, Cycle: week14},
				})

				lines, err := c.Lines(ctx, week14)
				So(err, ShouldBeNil)
				So(len(lines), ShouldEqual, 1)
				So(lines[0].SourceID, ShouldEqual, "l4")

				next, err := c.Lines(ctx, model.Cycle{Season: 2025, Week: 15})
				So(err, ShouldBeNil)
				So(len(next), ShouldEqual, 1)
			})
		})
	})
}

func TestLoadFeed(t *testing.T) {
	Convey("Given an ingestion feed", t, func() {
		Convey("When the feed is well formed", func() {
			feed := `[
				{"source_id": "nfl-1", "subject": "Josh Allen (Bills)", "category": "passing yards",
				 "threshold": "250.5", "price": -115,
				 "valid_from": "2025-12-01T00:00:00Z", "valid_to": "2025-12-08T00:00:00Z",
				 "season": 2025, "week": 14},
				{"source_id": "nfl-2", "subject": "Chiefs", "category": "moneyline",
				 "price": -180, "season": 2025, "week": 14}
			]`

			lines, err := catalog.LoadFeed(strings.NewReader(feed))

			Convey("Then all entries decode with exact thresholds", func() {
				So(err, ShouldBeNil)
				So(len(lines), ShouldEqual, 2)
				So(lines[0].Threshold, ShouldEqual, 250.5)
				So(lines[0].Cycle, ShouldResemble, week14)
				So(lines[1].Threshold, ShouldEqual, 0)
				So(lines[1].Price, ShouldEqual, -180)
			})
		})

		Convey("When an entry is missing required fields", func() {
			_, err := catalog.LoadFeed(strings.NewReader(`[{"source_id": "x"}]`))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "malformed line feed")
		})

		Convey("When a threshold is not numeric", func() {
			_, err := catalog.LoadFeed(strings.NewReader(
				`[{"source_id": "x", "subject": "s", "category": "total", "threshold": "high"}]`))
			So(err, ShouldNotBeNil)
		})

		Convey("When the document is not JSON", func() {
			_, err := catalog.LoadFeed(strings.NewReader("not json"))
			So(err, ShouldNotBeNil)
		})
	})
}
