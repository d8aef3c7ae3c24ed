package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/SourceHealth/internal/api/middleware"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/catalog"
	"github.com/GriffinCanCode/SourceHealth/internal/domain/health"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/config"
	"github.com/GriffinCanCode/SourceHealth/internal/infrastructure/monitoring"
)

type stubPipeline struct{}

func (stubPipeline) Sources(_ context.Context, name, _ string) ([]*catalog.SourceDefinition, error) {
	return []*catalog.SourceDefinition{{Name: name, Lang: "en"}}, nil
}

func (stubPipeline) Validate(_ context.Context, def *catalog.SourceDefinition) health.SourceValidationResult {
	return health.SourceValidationResult{SourceName: def.Name, OverallStatus: health.Healthy}
}

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	opts.Pipeline = stubPipeline{}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}
	return NewServer(config.Default(), opts, nil)
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRoutes(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		method string
		path   string
		code   int
	}{
		{http.MethodGet, "/healthz", http.StatusOK},
		{http.MethodGet, "/api/report", http.StatusOK},
		{http.MethodGet, "/api/sources", http.StatusOK},
		{http.MethodGet, "/api/sources/Moonlit", http.StatusNotFound},
		{http.MethodPost, "/api/sources/Moonlit/validate", http.StatusOK},
		{http.MethodGet, "/api/sources/Moonlit", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.code, serve(s, tt.method, tt.path).Code, "%s %s", tt.method, tt.path)
	}
}

func TestMetricsRecordRequests(t *testing.T) {
	s := newTestServer(t, Options{})
	serve(s, http.MethodGet, "/healthz")

	body := serve(s, http.MethodGet, "/metrics").Body.String()
	assert.True(t, strings.Contains(body, `path="/healthz"`), body)
}

func TestValidateIsRateLimited(t *testing.T) {
	s := newTestServer(t, Options{RateLimit: middleware.RateLimitConfig{RequestsPerSecond: 0.01, Burst: 1}})

	assert.Equal(t, http.StatusOK, serve(s, http.MethodPost, "/api/sources/Moonlit/validate").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s, http.MethodPost, "/api/sources/Moonlit/validate").Code)
	// reads are not limited
	assert.Equal(t, http.StatusOK, serve(s, http.MethodGet, "/api/sources/Moonlit").Code)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Server.Port = "0"
	s := NewServer(cfg, Options{Pipeline: stubPipeline{}}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
