package shared

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vipo_http_requests_total",
		Help: "HTTP requests by route and status.",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "vipo_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	RateLimited = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vipo_rate_limited_total",
		Help: "Requests rejected by the rate limiter.",
	}, []string{"limit"})

	OrdersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vipo_orders_created_total",
		Help: "Orders created, by attribution source.",
	}, []string{"source"})

	CommissionsReleased = promauto.NewCounter(prometheus.CounterOpts{
		Name: "vipo_commissions_released_total",
		Help: "Orders whose commission moved to available.",
	})

	WithdrawalActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vipo_withdrawal_actions_total",
		Help: "Withdrawal requests created and processed.",
	}, []string{"action"})

	BackupRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vipo_backup_runs_total",
		Help: "Backup, restore and cleanup runs by result.",
	}, []string{"action", "result"})

	SocialScans = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "vipo_social_scans_total",
		Help: "Social audit reports generated by status.",
	}, []string{"type", "status"})
)

func MetricsHandler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
