package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	reportsCreatedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecobhandu_reports_created_total",
			Help: "Total number of reports created",
		},
		[]string{"severity"},
	)

	taskTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecobhandu_task_transitions_total",
			Help: "Report status transitions by target status and outcome",
		},
		[]string{"status", "outcome"},
	)

	rewardClaimsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ecobhandu_reward_claims_total",
			Help: "Reward claims by reward and outcome",
		},
		[]string{"reward", "outcome"},
	)

	eventSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "ecobhandu_event_subscribers",
			Help: "Number of connected report event subscribers",
		},
	)
)

// Middleware collects HTTP request metrics. Long-lived streams are counted
// when they end.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		httpRequestsInFlight.Inc()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}

		c.Next()

		httpRequestsInFlight.Dec()
		status := strconv.Itoa(c.Writer.Status())
		httpRequestsTotal.WithLabelValues(c.Request.Method, endpoint, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the Prometheus scrape endpoint.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}

func RecordReportCreated(severity string) {
	reportsCreatedTotal.WithLabelValues(severity).Inc()
}

func RecordTransition(status string, err error) {
	taskTransitionsTotal.WithLabelValues(status, outcome(err)).Inc()
}

func RecordClaim(rewardID string, err error) {
	rewardClaimsTotal.WithLabelValues(rewardID, outcome(err)).Inc()
}

func SubscriberConnected()    { eventSubscribers.Inc() }
func SubscriberDisconnected() { eventSubscribers.Dec() }

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
