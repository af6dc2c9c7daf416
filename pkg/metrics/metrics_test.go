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
			manager := NewManager(WithPrometheusRegistry(registry))

			Convey("Then it uses the default namespace", func() {
				So(manager, ShouldNotBeNil)
				So(manager.namespace, ShouldEqual, "matchday")
				So(manager.subsystem, ShouldEqual, "vaep")
			})
		})

		Convey("When creating with custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test_namespace"),
				WithSubsystem("test_subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithTrainingBuckets([]float64{1, 10}),
				WithPrometheusRegistry(registry),
			)
			manager.cacheHits.Inc()

			Convey("Then metric names carry the namespace", func() {
				families, err := registry.Gather()
				So(err, ShouldBeNil)
				found := false
				for _, f := range families {
					if strings.HasPrefix(f.GetName(), "test_namespace_test_subsystem_model_cache_hits_total") {
						found = true
					}
				}
				So(found, ShouldBeTrue)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording model lifecycle metrics", func() {
			before := testutil.ToFloat64(globalManager.trainingRuns.WithLabelValues("success"))
			RecordTrainingRun("success")
			RecordTrainingDuration(120)
			UpdateTrainingRows(4200)
			UpdateValidationAUC("scoring", 0.71)

			Convey("Then the counters move", func() {
				So(testutil.ToFloat64(globalManager.trainingRuns.WithLabelValues("success")), ShouldEqual, before+1)
				So(testutil.ToFloat64(globalManager.trainingRows), ShouldEqual, 4200)
				So(testutil.ToFloat64(globalManager.validationAUC.WithLabelValues("scoring")), ShouldEqual, 0.71)
			})
		})

		Convey("When recording cache metrics", func() {
			hits := testutil.ToFloat64(globalManager.cacheHits)
			RecordModelCacheHit()
			RecordModelCacheMiss()
			RecordModelCacheEviction()
			RecordModelCacheInvalidation()
			UpdateModelCacheSize(3)

			Convey("Then they are reflected", func() {
				So(testutil.ToFloat64(globalManager.cacheHits), ShouldEqual, hits+1)
				So(testutil.ToFloat64(globalManager.cacheSize), ShouldEqual, 3)
			})
		})

		Convey("When recording data warnings", func() {
			before := testutil.ToFloat64(globalManager.dataWarnings.WithLabelValues("missing_coordinate"))
			RecordDataIntegrityWarning("missing_coordinate", 4)
			RecordDataIntegrityWarning("missing_coordinate", 0)

			Convey("Then only positive counts are added", func() {
				So(testutil.ToFloat64(globalManager.dataWarnings.WithLabelValues("missing_coordinate")), ShouldEqual, before+4)
			})
		})

		Convey("When recording the remaining metrics", func() {
			So(func() {
				RecordActionsValued(10)
				RecordActionsValued(-1)
				RecordSimulation()
				UpdateDatasetSize(1000, 10)
				UpdateQueueSize(1)
				UpdateQueueCapacity(16)
				UpdateQueueUtilization(1.0 / 16)
				RecordQueueEnqueue()
				RecordQueueDequeue()
				RecordQueueEnqueueError()
				UpdateWorkerActiveCount(2)
				RecordWorkerProcessingLatency(900)
				RecordWorkerError()
				RecordHTTPRequest("/healthz", "GET", "200")
				RecordHTTPRequestDuration("/healthz", "GET", "200", 2)
				RecordErrorByComponent("trainer", "insufficient_data")
				RecordErrorByType("server_error", "high")
				RecordErrorByEndpoint("/api/simulation/pre-match", "POST", "not_found")
				UpdateSystemMemoryUsage(1024 * 1024)
				UpdateSystemGoroutineCount(12)
				RecordSystemGCPauseTime(0.3)
			}, ShouldNotPanic)
			So(GetRegistry(), ShouldNotBeNil)
		})
	})
}
