package probe_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/okian/askdesk/internal/adapters/http/api"
	"github.com/okian/askdesk/internal/adapters/repository"
	service "github.com/okian/askdesk/internal/app"
	"github.com/okian/askdesk/internal/probe"
	"github.com/okian/askdesk/internal/seed"
	"github.com/okian/askdesk/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	// Initialize logging for tests
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	store := repository.NewMemoryStore()
	svc := service.New(store, service.WithSeed(seed.Default()))
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(context.Background(), mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func TestRun(t *testing.T) {
	Convey("Given a running server over the sample knowledge base", t, func() {
		srv := newServer(t)

		Convey("When probing with one matching and one unmatched question", func() {
			rep, err := probe.Run(context.Background(), probe.Config{
				BaseURL:   srv.URL,
				Questions: 20,
				Workers:   4,
				Corpus:    []string{"What is the tuition fee?", "weekend buses"},
			})

			Convey("Then answers and fall-throughs are counted separately", func() {
				So(err, ShouldBeNil)
				So(rep.Sent, ShouldEqual, 20)
				So(rep.Found, ShouldEqual, 10)
				So(rep.NotFound, ShouldEqual, 10)
				So(rep.Failed, ShouldEqual, 0)
				So(rep.P50, ShouldBeGreaterThan, time.Duration(0))
				So(rep.P99, ShouldBeGreaterThanOrEqualTo, rep.P50)
				So(rep.Max, ShouldBeGreaterThanOrEqualTo, rep.P99)
			})
		})

		Convey("When a question is rejected by the server", func() {
			rep, err := probe.Run(context.Background(), probe.Config{
				BaseURL:   srv.URL,
				Questions: 3,
				Workers:   1,
				Corpus:    []string{"   "},
			})

			Convey("Then it is counted as failed", func() {
				So(err, ShouldBeNil)
				So(rep.Failed, ShouldEqual, 3)
				So(rep.P50, ShouldEqual, time.Duration(0))
			})
		})
	})

	Convey("Given a server that is not healthy", t, func() {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		Convey("When probing", func() {
			_, err := probe.Run(context.Background(), probe.Config{BaseURL: srv.URL, Questions: 1})

			Convey("Then the health check fails the run", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "health check")
			})
		})
	})

	Convey("Given a negative worker count", t, func() {
		_, err := probe.Run(context.Background(), probe.Config{Workers: -1})

		Convey("Then the config is rejected", func() {
			So(errors.Is(err, probe.ErrInvalidConfig), ShouldBeTrue)
		})
	})
}
