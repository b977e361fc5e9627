// Package metrics define las metricas prometheus del servicio.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var HttpRequestsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "orga_http_requests_total",
		Help: "Total number of HTTP requests received",
	},
	[]string{"endpoint", "status", "method"},
)

var HttpRequestDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "orga_http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"endpoint", "method"},
)

var HttpErrorsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "orga_http_errors_total",
		Help: "Total number of failed HTTP requests (4xx/5xx)",
	},
	[]string{"endpoint", "status", "method"},
)

var LoginRateLimitRejectionsTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "orga_login_rate_limit_rejections_total",
		Help: "Total number of login attempts rejected by the rate limiter",
	},
)

var ChatbotCallsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "orga_chatbot_calls_total",
		Help: "Total number of chatbot calls by outcome",
	},
	[]string{"outcome"},
)

var ChatbotCallDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "orga_chatbot_call_duration_seconds",
		Help:    "Duration of chatbot calls in seconds",
		Buckets: prometheus.DefBuckets,
	},
)

var UsageLimitRejectionsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "orga_usage_limit_rejections_total",
		Help: "Total number of operations rejected by tenant limits",
	},
	[]string{"limit"},
)

var registerOnce sync.Once

// Register agrega todas las metricas al registry por defecto. Es idempotente.
func Register() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			HttpRequestsTotal,
			HttpRequestDuration,
			HttpErrorsTotal,
			LoginRateLimitRejectionsTotal,
			ChatbotCallsTotal,
			ChatbotCallDuration,
			UsageLimitRejectionsTotal,
		)
	})
}

// ObserveChatbotCall registra duracion y resultado de una llamada al chatbot.
func ObserveChatbotCall(start time.Time, err error) {
	ChatbotCallDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		ChatbotCallsTotal.WithLabelValues("failure").Inc()
		return
	}
	ChatbotCallsTotal.WithLabelValues("success").Inc()
}
