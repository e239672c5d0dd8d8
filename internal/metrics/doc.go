// Package metrics collects render statistics for the configuration renderer.
//
// It uses a channel-based event pipeline to asynchronously collect:
//   - Render counts per job
//   - Successful renders per job
//   - Failures per job, keyed by reason (missing_property, type_mismatch, ...)
//   - Render durations with percentile calculations (P50, P95, P99)
//
// The collector runs in a dedicated goroutine so renders never block on
// bookkeeping. Events are sent with non-blocking semantics and are drained on
// shutdown.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:     metrics.EventRenderFailed,
//		Job:      "streaming-mysql-backup-tool",
//		Duration: 2 * time.Millisecond,
//		Reason:   "missing_property",
//	})
//
//	snapshot := collector.Snapshot("cf-mysql-backup")
//
// Metrics storage is guarded by a sync.RWMutex.
package metrics
