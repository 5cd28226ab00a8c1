package queue_test

import (
	"context"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/bozoleague/propline/internal/adapters/mq/queue"
	"github.com/bozoleague/propline/internal/domain/model"
)

func job(id string) queue.Job {
	return queue.Job{Bet: model.Bet{ID: id, Status: model.StatusPending}}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a bounded queue", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("Then jobs round-trip in order", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("b")), ShouldBeTrue)
			So(q.Len(ctx), ShouldEqual, 2)

			out := q.Dequeue(ctx)
			So((<-out).Bet.ID, ShouldEqual, "a")
			So((<-out).Bet.ID, ShouldEqual, "b")
		})

		Convey("Then a full queue refuses without blocking", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("b")), ShouldBeTrue)
			So(q.Enqueue(ctx, job("c")), ShouldBeFalse)
		})

		Convey("Then a closed queue refuses and drains", func() {
			So(q.Enqueue(ctx, job("a")), ShouldBeTrue)
			So(q.Close(), ShouldBeNil)
			So(q.IsClosed(), ShouldBeTrue)
			So(q.Enqueue(ctx, job("b")), ShouldBeFalse)

			out := q.Dequeue(ctx)
			So((<-out).Bet.ID, ShouldEqual, "a")
			_, open := <-out
			So(open, ShouldBeFalse)
		})

		Convey("Then Close is idempotent", func() {
			So(q.Close(), ShouldBeNil)
			So(q.Close(), ShouldBeNil)
		})
	})
}
