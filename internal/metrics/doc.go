// Package metrics collects request and to-do activity metrics and exposes
// them in the Prometheus text format.
//
// Handlers never touch Prometheus directly. They emit MetricEvent values on a
// buffered channel with a non-blocking send, and a single collector goroutine
// folds the events into counters and histograms. A full buffer drops the event
// instead of slowing the request path.
//
// Example usage:
//
//	collector := metrics.NewCollector(1000, logger)
//	collector.Start(ctx)
//
//	collector.Emit(metrics.MetricEvent{
//		Type:       metrics.EventRequestCompleted,
//		Method:     http.MethodGet,
//		Route:      "GET /todo",
//		StatusCode: http.StatusOK,
//		Duration:   3 * time.Millisecond,
//	})
//
//	mux.Handle("/metrics", collector.Handler())
//
// On shutdown the collector drains whatever is still buffered.
package metrics
