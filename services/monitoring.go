package services

import (
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/alphabatem/common/context"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

const (
	MONITORING_SVC          = "monitoring_svc"
	SERVICE_NAME            = "sharegate"
	DEFAULT_PROMETHEUS_PORT = 2112
)

// HTTP Metrics
var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"endpoint", "method", "status"},
	)

	httpRequestsActive = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "http_requests_active",
			Help: "Number of active concurrent HTTP requests",
		},
		[]string{"endpoint", "method"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"endpoint", "method", "status"},
	)
)

// Gateway Metrics
var (
	gateOutcomesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acrg_gate_outcomes_total",
			Help: "Gateway decisions by phase and outcome",
		},
		[]string{"phase", "outcome"},
	)

	challengesIssuedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acrg_challenges_issued_total",
			Help: "Challenges issued by kind",
		},
		[]string{"kind"},
	)

	challengeVerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acrg_challenge_verifications_total",
			Help: "Challenge verification results",
		},
		[]string{"result"},
	)

	tokenRedemptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acrg_token_redemptions_total",
			Help: "Access token redemption results",
		},
		[]string{"result"},
	)

	securityViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acrg_security_violations_total",
			Help: "Replays and binding mismatches",
		},
		[]string{"kind"},
	)

	ledgerErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acrg_ledger_errors_total",
			Help: "Threat ledger store errors (requests failed open)",
		},
		[]string{"operation"},
	)

	abuseFlagsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "acrg_abuse_flags_total",
			Help: "Failed abuse checks by check name",
		},
		[]string{"check"},
	)

	backoffSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "acrg_password_backoff_seconds",
			Help:    "Delay applied after wrong resource passwords",
			Buckets: []float64{1, 2, 4, 8, 16, 32},
		},
	)
)

// System Metrics
var (
	heapAllocBytes = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "heap_alloc_bytes",
			Help: "Heap memory allocated in bytes",
		},
	)

	gcTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "gc_total",
			Help: "Total number of garbage collections",
		},
	)
)

type MonitoringService struct {
	context.DefaultService

	port     int
	register *prometheus.Registry

	closed      chan struct{}
	server      *fiber.App
	lastGCCount uint32
}

func (svc *MonitoringService) Id() string {
	return MONITORING_SVC
}

func (svc *MonitoringService) Configure(ctx *context.Context) error {
	svc.port = envInt("PROMETHEUS_PORT", DEFAULT_PROMETHEUS_PORT)
	return svc.DefaultService.Configure(ctx)
}

func (svc *MonitoringService) Start() error {
	svc.closed = make(chan struct{}, 1)

	reg := prometheus.NewRegistry()

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	reg.MustRegister(
		httpRequestsTotal,
		httpRequestsActive,
		httpRequestDurationSeconds,
		gateOutcomesTotal,
		challengesIssuedTotal,
		challengeVerificationsTotal,
		tokenRedemptionsTotal,
		securityViolationsTotal,
		ledgerErrorsTotal,
		abuseFlagsTotal,
		backoffSeconds,
		heapAllocBytes,
		gcTotal,
	)

	svc.register = reg

	go svc.updateMemoryMetrics()

	config := fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusInternalServerError).SendString("Internal Server Error")
		},
	}

	svc.server = fiber.New(config)
	svc.server.Use(recover.New())

	svc.server.Get("/metrics", svc.metricsHandler)
	svc.server.Get("/health", svc.healthHandler)

	// the http service blocks in its own Start, so metrics listen in the background
	go func() {
		if err := svc.server.Listen(fmt.Sprintf(":%v", svc.port)); err != nil {
			log.Error().Err(err).Msg("Prometheus metrics server stopped")
		}
	}()

	log.Info().Int("port", svc.port).Msg("Prometheus metrics server started")
	return nil
}

func (svc *MonitoringService) Shutdown() {
	if svc.closed != nil {
		svc.closed <- struct{}{}
	}
	if svc.server != nil {
		_ = svc.server.Shutdown()
	}
}

func (svc *MonitoringService) metricsHandler(c *fiber.Ctx) error {
	handler := promhttp.HandlerFor(svc.register, promhttp.HandlerOpts{})
	return adaptor.HTTPHandler(handler)(c)
}

func (svc *MonitoringService) healthHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "healthy",
		"service":   SERVICE_NAME,
		"timestamp": time.Now().Unix(),
	})
}

// updateMemoryMetrics updates memory-related metrics every 15 seconds
func (svc *MonitoringService) updateMemoryMetrics() {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			var m runtime.MemStats
			runtime.ReadMemStats(&m)

			heapAllocBytes.Set(float64(m.Alloc))

			if m.NumGC > svc.lastGCCount {
				gcTotal.Add(float64(m.NumGC - svc.lastGCCount))
				svc.lastGCCount = m.NumGC
			}

		case <-svc.closed:
			log.Info().Msg("Memory metrics updater stopped")
			return
		}
	}
}

// MonitoringMiddleware records request count, latency and concurrency per route pattern.
func MonitoringMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		method := c.Method()

		err := c.Next()

		// route pattern, not the raw path, to keep label cardinality bounded
		endpoint := c.Route().Path
		status := strconv.Itoa(c.Response().StatusCode())

		httpRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
		httpRequestDurationSeconds.WithLabelValues(endpoint, method, status).Observe(time.Since(start).Seconds())

		return err
	}
}

// ActiveRequestsMiddleware tracks in-flight requests for a route group.
func ActiveRequestsMiddleware(group string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		httpRequestsActive.WithLabelValues(group, c.Method()).Inc()
		defer httpRequestsActive.WithLabelValues(group, c.Method()).Dec()
		return c.Next()
	}
}
