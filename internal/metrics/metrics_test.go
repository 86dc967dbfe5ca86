package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()

	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/api/jobs/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })
	r.GET("/metrics", m.Handler())

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/jobs/42", nil))
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/jobs/:id", "404")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "businessconnect_http_requests_total")
}

func TestHelpers_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.PaymentInitiated("etudiant", "ok")
		m.WebhookHandled("activated")
		m.SubscriptionTransition("active")
		m.ItemModerated("approved")
	})
}
