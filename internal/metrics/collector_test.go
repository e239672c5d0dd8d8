package metrics_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/backup-config/internal/metrics"
)

var _ = Describe("Collector", func() {
	var (
		collector *metrics.Collector
		log       *slog.Logger
		ctx       context.Context
		cancel    context.CancelFunc
	)

	BeforeEach(func() {
		log = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelError,
		}))
		ctx, cancel = context.WithCancel(context.Background())
		collector = metrics.NewCollector(100, log)
	})

	AfterEach(func() {
		cancel()
	})

	Describe("event processing", func() {
		It("should process EventRenderStarted", func() {
			collector.Start(ctx)

			collector.EventChannel() <- metrics.MetricEvent{
				Type:      metrics.EventRenderStarted,
				Timestamp: time.Now(),
				Job:       toolJob,
			}

			Eventually(func() int64 {
				return collector.Snapshot("").Jobs[toolJob].Renders
			}).Should(Equal(int64(1)))
		})

		It("should process EventRenderSucceeded", func() {
			collector.Start(ctx)

			collector.Emit(metrics.MetricEvent{
				Type:     metrics.EventRenderSucceeded,
				Job:      toolJob,
				Duration: 10 * time.Millisecond,
			})

			Eventually(func() int64 {
				return collector.Snapshot("").Jobs[toolJob].Successes
			}).Should(Equal(int64(1)))
		})

		It("should process EventRenderFailed", func() {
			collector.Start(ctx)

			collector.Emit(metrics.MetricEvent{
				Type:   metrics.EventRenderFailed,
				Job:    clientJob,
				Reason: "missing_property",
			})

			Eventually(func() int64 {
				return collector.Snapshot("").Jobs[clientJob].Failures["missing_property"]
			}).Should(Equal(int64(1)))
		})

		It("should drain events on context cancellation", func() {
			for i := 0; i < 5; i++ {
				collector.Emit(metrics.MetricEvent{Type: metrics.EventRenderStarted, Job: toolJob})
			}

			collector.Start(ctx)
			cancel()
			Eventually(collector.Done()).Should(BeClosed())

			Expect(collector.Snapshot("").Jobs[toolJob].Renders).To(Equal(int64(5)))
		})
	})

	Describe("Emit", func() {
		It("should not block when the buffer is full", func() {
			small := metrics.NewCollector(1, log)
			small.Emit(metrics.MetricEvent{Type: metrics.EventRenderStarted, Job: toolJob})
			small.Emit(metrics.MetricEvent{Type: metrics.EventRenderStarted, Job: toolJob})
		})

		It("should tolerate a nil collector", func() {
			var nilCollector *metrics.Collector
			nilCollector.Emit(metrics.MetricEvent{Type: metrics.EventRenderStarted})
		})
	})

	Describe("Handler", func() {
		It("should serve the snapshot as JSON", func() {
			collector.Start(ctx)
			collector.Emit(metrics.MetricEvent{Type: metrics.EventRenderStarted, Job: toolJob})
			Eventually(func() int64 {
				return collector.Snapshot("").TotalRenders
			}).Should(Equal(int64(1)))

			rec := httptest.NewRecorder()
			collector.Handler("cf-mysql-backup")(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

			var snap metrics.Snapshot
			Expect(json.Unmarshal(rec.Body.Bytes(), &snap)).To(Succeed())
			Expect(snap.Namespace).To(Equal("cf-mysql-backup"))
			Expect(snap.TotalRenders).To(Equal(int64(1)))
		})
	})
})
