package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerServesRegisteredSeries(t *testing.T) {
	m := New()
	m.IncrementSession("success")
	m.IncrementSession("success")
	m.IncrementSession("invalid_credentials")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.Sessions.WithLabelValues("success")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `taxdesk_sessions_total{outcome="invalid_credentials"} 1`)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
