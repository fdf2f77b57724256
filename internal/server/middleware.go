package server

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"
)

// authenticate rejects requests whose Authorization header does not carry
// credential, either bare or after a scheme such as "Bearer". An empty
// credential disables the check.
func authenticate(credential string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if credential == "" {
				return next(c)
			}
			if !credentialMatches(c.Request().Header.Get(echo.HeaderAuthorization), credential) {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid credential")
			}
			return next(c)
		}
	}
}

func credentialMatches(header, want string) bool {
	header = strings.TrimSpace(header)
	if header == "" {
		return false
	}
	if equal(header, want) {
		return true
	}
	_, rest, ok := strings.Cut(header, " ")
	return ok && equal(strings.TrimSpace(rest), want)
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// injectFaults fails the given share of mutating requests with 503 before
// they reach the repository.
func injectFaults(rate float64, random func() float64, m *metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if rate <= 0 || !mutating(c.Request().Method) {
				return next(c)
			}
			if random() < rate {
				m.injected.Inc()
				return echo.NewHTTPError(http.StatusServiceUnavailable, "injected failure")
			}
			return next(c)
		}
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// requestLogger logs one line per request and counts it.
func requestLogger(logger *log.Logger, m *metrics) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:    true,
		LogMethod:    true,
		LogURI:       true,
		LogRoutePath: true,
		LogLatency:   true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			m.requests.WithLabelValues(v.Method, v.RoutePath, strconv.Itoa(v.Status)).Inc()
			entry := logger.WithFields(log.Fields{
				"status": v.Status,
				"method": v.Method,
				"path":   v.URI,
				"ms":     v.Latency.Milliseconds(),
			})
			if v.Error != nil {
				entry.WithError(v.Error).Warn("request failed")
				return nil
			}
			entry.Info("request")
			return nil
		},
	})
}
