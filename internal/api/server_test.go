package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mev-engine/sandwich-arb-engine/internal/config"
	"github.com/mev-engine/sandwich-arb-engine/pkg/metrics"
)

func testServer(t *testing.T) *Server {
	cfg := config.Default()
	collector := metrics.NewCollectorWithRegistry(nil, prometheus.NewRegistry())
	return NewServer(cfg, nil, collector, zap.NewNop().Sugar())
}

func TestHandleHealthReturnsHealthy(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	s.router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestHandleRecentOpportunitiesEmptyByDefault(t *testing.T) {
	s := testServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/opportunities", nil)
	rec := httptest.NewRecorder()

	s.router().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}
