package server

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

// shutdownTimeout bounds graceful shutdown in Serve.
const shutdownTimeout = 5 * time.Second

// Options configures the API.
type Options struct {
	// Credential is required from clients when non-empty.
	Credential string

	// FailRate is the share of mutating requests rejected with 503.
	FailRate float64

	// Rand draws the fault injection samples. Defaults to math/rand.
	Rand func() float64

	Logger *log.Logger

	// Registry receives the server metrics and backs /metrics. A fresh
	// registry is used when nil.
	Registry *prometheus.Registry
}

type metrics struct {
	requests *prometheus.CounterVec
	injected prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "kanban_server_requests_total",
			Help: "API requests by method, route and status",
		}, []string{"method", "route", "status"}),
		injected: f.NewCounter(prometheus.CounterOpts{
			Name: "kanban_server_injected_failures_total",
			Help: "Mutating requests failed on purpose",
		}),
	}
}

// New returns an echo instance serving the board API from repo.
func New(repo Repository, opts Options) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	Register(e, repo, opts)
	return e
}

// Register wires up all API routes on the provided Echo instance.
func Register(e *echo.Echo, repo Repository, opts Options) {
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	random := opts.Rand
	if random == nil {
		random = rand.Float64
	}
	m := newMetrics(reg)

	e.Use(middleware.Recover())
	e.Use(requestLogger(logger, m))

	e.GET("/healthz", healthz(repo))
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	g := e.Group("/cards", authenticate(opts.Credential), injectFaults(opts.FailRate, random, m))
	g.GET("", listCards(repo))
	g.POST("/:cardId/tasks", addTask(repo))
	g.DELETE("/:cardId/tasks/:taskId", deleteTask(repo))
	g.PUT("/:cardId/tasks/:taskId", setTaskDone(repo))
}

// Serve runs e on addr until ctx is done, then shuts it down gracefully.
func Serve(ctx context.Context, e *echo.Echo, addr string) error {
	errCh := make(chan error, 1)
	go func() { errCh <- e.Start(addr) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
