// Package metrics keeps in-process HTTP and realtime counters and renders
// them in Prometheus text exposition format. Counters are plain atomics;
// no exporter runs in-process.
package metrics

import (
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

// latencyBucketsMS are cumulative histogram upper bounds in milliseconds.
var latencyBucketsMS = []int64{50, 100, 250, 500, 1000, 2500, 5000}

// Registry accumulates request counters. The zero value is not usable;
// call NewRegistry.
type Registry struct {
	inFlight      atomic.Int64
	totalRequests atomic.Int64
	class2xx      atomic.Int64
	class4xx      atomic.Int64
	class5xx      atomic.Int64
	buckets       []atomic.Int64
	latencySumMS  atomic.Int64

	wsSessions    func() int64
	eventsDropped func() int64
}

// NewRegistry wires the registry to its realtime gauge sources. Either
// source may be nil, in which case the gauge reads zero.
func NewRegistry(wsSessions, eventsDropped func() int64) *Registry {
	return &Registry{
		buckets:       make([]atomic.Int64, len(latencyBucketsMS)+1),
		wsSessions:    wsSessions,
		eventsDropped: eventsDropped,
	}
}

// Middleware records one observation per request.
func (r *Registry) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		r.inFlight.Add(1)
		start := time.Now()

		c.Next()

		r.inFlight.Add(-1)
		r.totalRequests.Add(1)
		switch status := c.Writer.Status(); {
		case status >= 500:
			r.class5xx.Add(1)
		case status >= 400:
			r.class4xx.Add(1)
		case status >= 200 && status < 300:
			r.class2xx.Add(1)
		}
		r.observeLatency(time.Since(start).Milliseconds())
	}
}

func (r *Registry) observeLatency(elapsedMS int64) {
	r.latencySumMS.Add(elapsedMS)
	for i, bound := range latencyBucketsMS {
		if elapsedMS <= bound {
			r.buckets[i].Add(1)
		}
	}
	r.buckets[len(latencyBucketsMS)].Add(1)
}

// Handler serves GET /metrics.
func (r *Registry) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/plain; version=0.0.4; charset=utf-8", []byte(r.render()))
	}
}

func (r *Registry) render() string {
	var b strings.Builder

	writeGauge(&b, "galynx_http_requests_in_flight", "Requests currently being served.", r.inFlight.Load())
	writeCounter(&b, "galynx_http_requests_total", "Total HTTP requests served.", r.totalRequests.Load())
	writeCounter(&b, "galynx_http_responses_2xx_total", "Responses with a 2xx status.", r.class2xx.Load())
	writeCounter(&b, "galynx_http_responses_4xx_total", "Responses with a 4xx status.", r.class4xx.Load())
	writeCounter(&b, "galynx_http_responses_5xx_total", "Responses with a 5xx status.", r.class5xx.Load())

	fmt.Fprintf(&b, "# HELP galynx_http_request_duration_ms Request latency histogram in milliseconds.\n")
	fmt.Fprintf(&b, "# TYPE galynx_http_request_duration_ms histogram\n")
	for i, bound := range latencyBucketsMS {
		fmt.Fprintf(&b, "galynx_http_request_duration_ms_bucket{le=\"%d\"} %d\n", bound, r.buckets[i].Load())
	}
	fmt.Fprintf(&b, "galynx_http_request_duration_ms_bucket{le=\"+Inf\"} %d\n", r.buckets[len(latencyBucketsMS)].Load())
	fmt.Fprintf(&b, "galynx_http_request_duration_ms_sum %d\n", r.latencySumMS.Load())
	fmt.Fprintf(&b, "galynx_http_request_duration_ms_count %d\n", r.buckets[len(latencyBucketsMS)].Load())

	writeGauge(&b, "galynx_ws_sessions", "Open WebSocket sessions.", r.gauge(r.wsSessions))
	writeCounter(&b, "galynx_ws_events_dropped_total", "Events dropped by slow realtime subscribers.", r.gauge(r.eventsDropped))

	return b.String()
}

func (r *Registry) gauge(source func() int64) int64 {
	if source == nil {
		return 0
	}
	return source()
}

func writeCounter(b *strings.Builder, name, help string, value int64) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s counter\n%s %d\n", name, help, name, name, value)
}

func writeGauge(b *strings.Builder, name, help string, value int64) {
	fmt.Fprintf(b, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n", name, help, name, name, value)
}
