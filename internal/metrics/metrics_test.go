package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(registry *Registry) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(registry.Middleware())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	router.GET("/metrics", registry.Handler())
	return router
}

func scrape(t *testing.T, router *gin.Engine) string {
	t.Helper()
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/plain; version=0.0.4; charset=utf-8", rec.Header().Get("Content-Type"))
	return rec.Body.String()
}

func TestMiddlewareCountsByStatusClass(t *testing.T) {
	registry := NewRegistry(nil, nil)
	router := newTestRouter(registry)

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/ok", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))

	body := scrape(t, router)
	assert.Contains(t, body, "galynx_http_requests_total 5\n")
	assert.Contains(t, body, "galynx_http_responses_2xx_total 3\n")
	assert.Contains(t, body, "galynx_http_responses_4xx_total 1\n")
	assert.Contains(t, body, "galynx_http_responses_5xx_total 1\n")
	// The scrape request itself is still in flight while its body renders.
	assert.Contains(t, body, "galynx_http_requests_in_flight 1\n")
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	registry := NewRegistry(nil, nil)

	registry.observeLatency(10)
	registry.observeLatency(120)
	registry.observeLatency(9000)

	body := registry.render()
	assert.Contains(t, body, "galynx_http_request_duration_ms_bucket{le=\"50\"} 1\n")
	assert.Contains(t, body, "galynx_http_request_duration_ms_bucket{le=\"250\"} 2\n")
	assert.Contains(t, body, "galynx_http_request_duration_ms_bucket{le=\"5000\"} 2\n")
	assert.Contains(t, body, "galynx_http_request_duration_ms_bucket{le=\"+Inf\"} 3\n")
	assert.Contains(t, body, "galynx_http_request_duration_ms_sum 9130\n")
	assert.Contains(t, body, "galynx_http_request_duration_ms_count 3\n")
}

func TestRealtimeGaugesReadFromSources(t *testing.T) {
	registry := NewRegistry(func() int64 { return 4 }, func() int64 { return 17 })

	body := registry.render()
	assert.Contains(t, body, "galynx_ws_sessions 4\n")
	assert.Contains(t, body, "galynx_ws_events_dropped_total 17\n")
}

func TestNilGaugeSourcesReadZero(t *testing.T) {
	registry := NewRegistry(nil, nil)

	body := registry.render()
	assert.Contains(t, body, "galynx_ws_sessions 0\n")
	assert.Contains(t, body, "galynx_ws_events_dropped_total 0\n")
}

func TestRenderDeclaresEverySeries(t *testing.T) {
	body := NewRegistry(nil, nil).render()
	for _, name := range []string{
		"galynx_http_requests_in_flight",
		"galynx_http_requests_total",
		"galynx_http_responses_2xx_total",
		"galynx_http_responses_4xx_total",
		"galynx_http_responses_5xx_total",
		"galynx_http_request_duration_ms",
		"galynx_ws_sessions",
		"galynx_ws_events_dropped_total",
	} {
		assert.True(t, strings.Contains(body, "# TYPE "+name+" "), "missing TYPE line for %s", name)
	}
}
