package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	Moves             *prometheus.CounterVec
	GamesFinished     *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkers_operations_total",
			Help: "Operations executed, by outcome.",
		}, []string{"operation", "outcome"}),
		OperationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "checkers_operation_duration_seconds",
			Help:    "Time spent executing an operation.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		Moves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkers_moves_total",
			Help: "Moves applied, by actor.",
		}, []string{"actor"}),
		GamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkers_games_finished_total",
			Help: "Games finished, by result.",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkers_http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.Operations, m.OperationDuration, m.Moves, m.GamesFinished, m.HTTPRequests)
	return m
}

// ObserveOperation records one executed operation. A nil receiver is a no-op
// so callers can run without metrics.
func (m *Metrics) ObserveOperation(op string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(elapsed.Seconds())
}

func (m *Metrics) MoveApplied(actor string) {
	if m == nil {
		return
	}
	m.Moves.WithLabelValues(actor).Inc()
}

func (m *Metrics) GameFinished(result string) {
	if m == nil {
		return
	}
	m.GamesFinished.WithLabelValues(result).Inc()
}

// GinMiddleware counts requests by route template rather than raw path.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if m == nil {
			return
		}
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPRequests.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
