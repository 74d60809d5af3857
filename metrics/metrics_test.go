package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/api/reports/:id", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/reports/:id", "404"))
	for _, id := range []string{"a", "b"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/reports/"+id, nil))
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "/api/reports/:id", "404"))

	assert.Equal(t, 2.0, after-before)
	assert.Equal(t, 0.0, testutil.ToFloat64(httpRequestsInFlight))
}

func TestRecorders(t *testing.T) {
	claimsFailed := rewardClaimsTotal.WithLabelValues("tshirt", "error")
	before := testutil.ToFloat64(claimsFailed)
	RecordClaim("tshirt", errors.New("insufficient"))
	assert.Equal(t, before+1, testutil.ToFloat64(claimsFailed))

	ok := taskTransitionsTotal.WithLabelValues("Resolved", "success")
	before = testutil.ToFloat64(ok)
	RecordTransition("Resolved", nil)
	assert.Equal(t, before+1, testutil.ToFloat64(ok))

	SubscriberConnected()
	SubscriberConnected()
	SubscriberDisconnected()
	assert.Equal(t, 1.0, testutil.ToFloat64(eventSubscribers))
	SubscriberDisconnected()
}

func TestHandler_ServesMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	RecordReportCreated("Critical")

	r := gin.New()
	r.GET("/metrics", Handler())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `ecobhandu_reports_created_total{severity="Critical"}`)
}
