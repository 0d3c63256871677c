package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imamik/vpcforge/internal/metrics"
)

func TestHandlerExposesCounters(t *testing.T) {
	metrics.ResourcesCreated.WithLabelValues("vpc").Inc()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "vpcforge_resources_created_total")
	assert.Contains(t, body, "vpcforge_unwinds_total")
}
