package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgzerolog "github.com/duynhne/pkg/logger/zerolog"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGetTraceID(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{
			name:    "traceparent wins",
			headers: map[string]string{TraceParentHeader: "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01", TraceIDHeader: "other"},
			want:    "4bf92f3577b34da6a3ce929d0e0e4736",
		},
		{
			name:    "x-trace-id fallback",
			headers: map[string]string{TraceIDHeader: "abc123"},
			want:    "abc123",
		},
		{
			name:    "malformed traceparent falls through",
			headers: map[string]string{TraceParentHeader: "garbage", TraceIDHeader: "abc123"},
			want:    "abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetTraceID(c))
		})
	}
}

func TestGetTraceIDGenerates(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	id := GetTraceID(c)
	assert.Len(t, id, 32)
	assert.NotEqual(t, id, GetTraceID(c))
}

func TestLoggingMiddlewareEchoesTraceID(t *testing.T) {
	r := gin.New()
	r.Use(LoggingMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		v, ok := c.Get(traceIDKey)
		require.True(t, ok)
		c.String(http.StatusOK, v.(string))
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceIDHeader, "trace-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "trace-1", w.Header().Get(TraceIDHeader))
	assert.Equal(t, "trace-1", w.Body.String())
}

// captureLogs points the global logger at a buffer for the test's duration.
func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })
	return &buf
}

func logEntries(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m), line)
		out = append(out, m)
	}
	return out
}

func TestLoggingMiddlewareTagsHandlerLogsWithTraceID(t *testing.T) {
	buf := captureLogs(t)

	r := gin.New()
	r.Use(LoggingMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		pkgzerolog.FromContext(c.Request.Context()).Info().Msg("in handler")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceIDHeader, "trace-2")
	r.ServeHTTP(httptest.NewRecorder(), req)

	entries := logEntries(t, buf)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "trace-2", e["trace_id"])
		assert.NotContains(t, e, "span_id")
	}
}

func TestLoggingMiddlewareUsesSpanContext(t *testing.T) {
	buf := captureLogs(t)

	tp := sdktrace.NewTracerProvider()
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	r := gin.New()
	r.Use(TracingMiddleware(), LoggingMiddleware())
	r.GET("/ping", func(c *gin.Context) {
		pkgzerolog.FromContext(c.Request.Context()).Info().Msg("in handler")
		c.Status(http.StatusNoContent)
	})

	const parentTrace = "4bf92f3577b34da6a3ce929d0e0e4736"
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(TraceParentHeader, "00-"+parentTrace+"-00f067aa0ba902b7-01")
	req.Header.Set(TraceIDHeader, "ignored")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, parentTrace, w.Header().Get(TraceIDHeader))

	entries := logEntries(t, buf)
	require.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, parentTrace, e["trace_id"])
		assert.NotEmpty(t, e["span_id"])
		assert.NotEqual(t, "00f067aa0ba902b7", e["span_id"], "server span is a child of the incoming one")
	}
}

func TestPrometheusMiddlewareCountsByRoute(t *testing.T) {
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/isbn/:key", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/isbn/:key", "404"))

	for _, key := range []string{"1", "2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/isbn/"+key, nil))
	}

	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/isbn/:key", "404"))
	assert.Equal(t, before+2, after)
	assert.Equal(t, float64(0), testutil.ToFloat64(httpInFlight))
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(reviewMutations.WithLabelValues("added"))
	RecordReviewMutation("added")
	assert.Equal(t, before+1, testutil.ToFloat64(reviewMutations.WithLabelValues("added")))

	SetActiveSessions(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(activeSessions))
}
