package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New("test", zap.New(core)), logs
}

func TestStartSpanPropagatesTrace(t *testing.T) {
	tracer, _ := newObserved()
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "validate_all")
	child, childCtx := tracer.StartSpan(ctx, "validate")

	assert.NotEmpty(t, parent.TraceID)
	assert.Empty(t, parent.ParentID)
	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.NotEqual(t, parent.SpanID, child.SpanID)
	assert.Equal(t, child.TraceID, GetTraceID(childCtx))
	assert.Equal(t, child.SpanID, GetSpanID(childCtx))
	assert.Equal(t, "test", child.Service)
}

func TestCloseFlushesSubmittedSpans(t *testing.T) {
	tracer, logs := newObserved()

	ok, _ := tracer.StartSpan(context.Background(), "validate")
	ok.SetTag("source", "Moonlit")
	tracer.End(ok)

	bad, _ := tracer.StartSpan(context.Background(), "repair")
	bad.SetError(errors.New("provider unreachable"))
	tracer.End(bad)

	tracer.Close()
	tracer.Close()

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "span completed", logs.All()[0].Message)
	assert.Equal(t, "Moonlit", logs.All()[0].ContextMap()["source"])
	assert.Equal(t, "span completed with error", logs.All()[1].Message)

	// dropped after close
	late, _ := tracer.StartSpan(context.Background(), "late")
	tracer.End(late)
	assert.Equal(t, 2, logs.Len())
}

func TestNilTracer(t *testing.T) {
	var tracer *Tracer
	span, ctx := tracer.StartSpan(context.Background(), "validate")
	tracer.End(span)
	tracer.Close()
	assert.Equal(t, span.TraceID, GetTraceID(ctx))
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObserved()

	var seen TraceID
	r := gin.New()
	r.Use(HTTPMiddleware(tracer))
	r.GET("/api/report", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/report", nil)
	req.Header.Set(HeaderTraceID, "trace-from-caller")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	tracer.Close()

	assert.Equal(t, TraceID("trace-from-caller"), seen)
	assert.Equal(t, "trace-from-caller", w.Header().Get(HeaderTraceID))
	assert.NotEmpty(t, w.Header().Get(HeaderSpanID))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0].ContextMap()
	assert.Equal(t, "GET /api/report", entry["operation"])
	assert.Equal(t, "200", entry["http.status"])
}
