package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, p *Provider) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestProvider_ExportsInstruments(t *testing.T) {
	p, err := Init(true, "test", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Shutdown(context.Background()) })
	assert.True(t, p.Enabled())

	ctx := context.Background()

	server, err := NewServerMetrics(p.Meter())
	require.NoError(t, err)
	server.RequestStarted(ctx)
	server.RecordRequest(ctx, http.MethodGet, "/admin/rooms", "200", 12.5)
	server.RecordRequest(ctx, http.MethodPost, "/admin/rooms/create", "500", 3)
	server.RequestFinished(ctx)

	guard, err := NewGuardMetrics(p.Meter())
	require.NoError(t, err)
	guard.RecordGuardDecision(ctx, "forbidden")

	authMetrics, err := NewAuthMetrics(p.Meter())
	require.NoError(t, err)
	authMetrics.RecordAuth(ctx, AuthStepExchange, false)

	code, body := scrape(t, p)
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, body, "http_server_request_count")
	assert.Contains(t, body, "http_server_error_count")
	assert.Contains(t, body, "guard_decision_count")
	assert.Contains(t, body, `guard_outcome="forbidden"`)
	assert.Contains(t, body, "auth_failure_count")
	assert.Contains(t, body, "go_goroutines")
}

func TestProvider_Disabled(t *testing.T) {
	p, err := Init(false, "test", nil)
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	guard, err := NewGuardMetrics(p.Meter())
	require.NoError(t, err)
	guard.RecordGuardDecision(context.Background(), "authorized")

	code, _ := scrape(t, p)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.NoError(t, p.Shutdown(context.Background()))
}
