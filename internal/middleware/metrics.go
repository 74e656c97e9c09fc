package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrors counts Redis command failures by command name.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acceso_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// CacheHits counts view cache hits by key.
	CacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acceso_cache_hits_total",
		Help: "Total number of view cache hits",
	}, []string{"key"})

	// CacheMisses counts view cache misses by key.
	CacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acceso_cache_misses_total",
		Help: "Total number of view cache misses",
	}, []string{"key"})

	// Decisions counts admin decisions by outcome.
	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acceso_decisions_total",
		Help: "Total number of request decisions by outcome",
	}, []string{"outcome"})

	// UpstreamErrors counts failed access service calls by error code.
	UpstreamErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "acceso_upstream_errors_total",
		Help: "Total number of failed access service calls by error code",
	}, []string{"code"})
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics creates the Prometheus middleware for the given service name.
// The underlying collectors register with the default registry, so the
// middleware is created once per process.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}

// MetricsMiddleware returns the Fiber handler recording per-route HTTP metrics.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
