package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "businessconnect"

// Metrics holds the application collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPLatency         *prometheus.HistogramVec
	PaymentsInitiated   *prometheus.CounterVec
	PaymentWebhooks     *prometheus.CounterVec
	SubscriptionChanges *prometheus.CounterVec
	ItemsModerated      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		PaymentsInitiated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_initiated_total",
			Help:      "CinetPay payment initializations by plan and result.",
		}, []string{"plan", "result"}),
		PaymentWebhooks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payment_webhooks_total",
			Help:      "Payment notifications by outcome.",
		}, []string{"outcome"}),
		SubscriptionChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_transitions_total",
			Help:      "Subscription status transitions by target status.",
		}, []string{"status"}),
		ItemsModerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "marketplace_moderations_total",
			Help:      "Marketplace moderation decisions by status.",
		}, []string{"status"}),
	}

	m.Registry.MustRegister(
		m.HTTPRequests,
		m.HTTPLatency,
		m.PaymentsInitiated,
		m.PaymentWebhooks,
		m.SubscriptionChanges,
		m.ItemsModerated,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Middleware records request counts and latency using the matched route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.HTTPLatency.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
}

// The helpers below are nil-safe so services can run without metrics in tests.

func (m *Metrics) PaymentInitiated(plan, result string) {
	if m == nil {
		return
	}
	m.PaymentsInitiated.WithLabelValues(plan, result).Inc()
}

func (m *Metrics) WebhookHandled(outcome string) {
	if m == nil {
		return
	}
	m.PaymentWebhooks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SubscriptionTransition(status string) {
	if m == nil {
		return
	}
	m.SubscriptionChanges.WithLabelValues(status).Inc()
}

func (m *Metrics) ItemModerated(status string) {
	if m == nil {
		return
	}
	m.ItemsModerated.WithLabelValues(status).Inc()
}
