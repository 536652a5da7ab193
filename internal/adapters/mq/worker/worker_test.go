package worker_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	queue "github.com/okian/askdesk/internal/adapters/mq/queue"
	worker "github.com/okian/askdesk/internal/adapters/mq/worker"
	logging "github.com/okian/askdesk/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// mockAppender records appended interactions and fails on demand.
type mockAppender struct {
	mu       sync.Mutex
	records  []queue.Record
	failOn   map[string]error
	delay    time.Duration
	deadline []bool
}

func newMockAppender() *mockAppender {
	return &mockAppender{failOn: make(map[string]error)}
}

func (m *mockAppender) AppendInteraction(ctx context.Context, rec queue.Record) (int64, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, hasDeadline := ctx.Deadline()
	m.deadline = append(m.deadline, hasDeadline)
	if err, ok := m.failOn[rec.UserQuestion]; ok {
		return 0, err
	}
	m.records = append(m.records, rec)
	return int64(len(m.records)), nil
}

func (m *mockAppender) questions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.records))
	for i, r := range m.records {
		out[i] = r.UserQuestion
	}
	return out
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}

func TestInMemoryWorker(t *testing.T) {
	convey.Convey("Given a worker reading from a queue", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(10))
		appender := newMockAppender()
		w := worker.NewInMemoryWorker(q, appender, worker.WithName("test-writer"), worker.WithWriteTimeout(time.Second))
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go w.Run(ctx)

		convey.Convey("When a record is enqueued", func() {
			convey.So(q.Enqueue(ctx, queue.Record{UserQuestion: "where is the library"}), convey.ShouldBeNil)

			convey.Convey("Then it is appended with its own deadline", func() {
				convey.So(waitFor(func() bool { return w.Written() == 1 }), convey.ShouldBeTrue)
				convey.So(appender.questions(), convey.ShouldResemble, []string{"where is the library"})
				convey.So(appender.deadline[0], convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the append fails", func() {
			appender.failOn["broken"] = errors.New("disk full")
			_ = q.Enqueue(ctx, queue.Record{UserQuestion: "broken"})
			_ = q.Enqueue(ctx, queue.Record{UserQuestion: "fine"})

			convey.Convey("Then the failure is counted and the worker keeps going", func() {
				convey.So(waitFor(func() bool { return w.Written() == 1 && w.Failed() == 1 }), convey.ShouldBeTrue)
				convey.So(appender.questions(), convey.ShouldResemble, []string{"fine"})
			})
		})

		convey.Convey("When shutting down", func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Second)
			defer shutdownCancel()

			convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			convey.Convey("Then a second shutdown is harmless", func() {
				convey.So(w.Shutdown(shutdownCtx), convey.ShouldBeNil)
			})
		})
	})
}

func TestWorkerPool(t *testing.T) {
	convey.Convey("Given a worker pool", t, func() {
		_ = logging.Init()

		q := queue.NewInMemoryQueue(queue.WithCapacity(100))
		appender := newMockAppender()

		convey.Convey("When created with a non-positive count", func() {
			pool := worker.NewPool(0, q, appender)

			convey.Convey("Then it falls back to the default size", func() {
				convey.So(pool.Size(), convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When records are pending at shutdown", func() {
			appender.delay = 2 * time.Millisecond
			pool := worker.NewPool(3, q, appender)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			for i := 0; i < 20; i++ {
				convey.So(q.Enqueue(ctx, queue.Record{UserQuestion: "q"}), convey.ShouldBeNil)
			}
			pool.Start(ctx)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			err := pool.Shutdown(shutdownCtx)

			convey.Convey("Then the queue is drained before returning", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(pool.Written(), convey.ShouldEqual, 20)
				convey.So(pool.Failed(), convey.ShouldEqual, 0)
				convey.So(q.IsClosed(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When the drain deadline expires", func() {
			appender.delay = 50 * time.Millisecond
			pool := worker.NewPool(1, q, appender)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			for i := 0; i < 50; i++ {
				_ = q.Enqueue(ctx, queue.Record{UserQuestion: "slow"})
			}
			pool.Start(ctx)

			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer shutdownCancel()

			convey.Convey("Then shutdown reports the timeout", func() {
				convey.So(pool.Shutdown(shutdownCtx), convey.ShouldNotBeNil)
			})
		})
	})
}
