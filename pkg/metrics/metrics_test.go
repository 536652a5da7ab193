package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a private registry", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 5, 10}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)

			Convey("Then every collector is registered under the namespace", func() {
				So(manager, ShouldNotBeNil)
				manager.asks.WithLabelValues(OutcomeMatched).Inc()
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
				for _, f := range families {
					So(strings.HasPrefix(f.GetName(), "test_unit_"), ShouldBeTrue)
				}
			})
		})

		Convey("When creating two managers on the same registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then the second registration panics", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics manager", t, func() {
		Convey("When recording ask outcomes", func() {
			before := testutil.ToFloat64(globalManager.asks.WithLabelValues(OutcomeNoMatch))
			RecordAsk(OutcomeNoMatch)
			RecordAsk(OutcomeNoMatch)

			Convey("Then the outcome counter advances", func() {
				after := testutil.ToFloat64(globalManager.asks.WithLabelValues(OutcomeNoMatch))
				So(after-before, ShouldEqual, 2)
			})
		})

		Convey("When recording interaction log events", func() {
			dropped := testutil.ToFloat64(globalManager.logDropped)
			failed := testutil.ToFloat64(globalManager.logFailed)
			RecordInteractionDropped()
			RecordInteractionFailed()
			UpdateLogQueueSize(7)

			Convey("Then the pipeline counters advance", func() {
				So(testutil.ToFloat64(globalManager.logDropped)-dropped, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.logFailed)-failed, ShouldEqual, 1)
				So(testutil.ToFloat64(globalManager.logQueueSize), ShouldEqual, 7)
			})
		})

		Convey("When recording everything else", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordAskLatency(1.5)
					RecordCandidatesScored(5)
					RecordBestConfidence(135)
					UpdateEntriesTotal(5)
					RecordInteractionEnqueued()
					RecordInteractionWritten()
					RecordInteractionWriteLatency(0.3)
					UpdateLogQueueCapacity(100)
					UpdateLogWorkers(2)
					RecordAnalyticsLatency(2)
					RecordStoreLatency("entries", 0.5)
					RecordStoreError("entries")
					RecordHTTPRequest("ask", "POST", "200")
					RecordHTTPRequestDuration("ask", "POST", "200", 3)
					RecordErrorByComponent("store", "read")
					RecordErrorByType("client_error", "medium")
					RecordErrorByEndpoint("ask", "POST", "client_error")
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(10)
					RecordSystemGCPauseTime(0.2)
				}, ShouldNotPanic)
			})
		})

		Convey("Then the custom registry is exposed", func() {
			So(GetRegistry(), ShouldEqual, customRegistry)
		})
	})
}
