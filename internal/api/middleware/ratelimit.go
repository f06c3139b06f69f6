package middleware

import (
	"errors"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/Bakhromov-02/task-management/internal/api/metrics"
	"github.com/Bakhromov-02/task-management/internal/core/ports"
)

var ErrRateLimited = errors.New("too many requests, please try again later")

// RateLimitConfig configures one limiter scope.
type RateLimitConfig struct {
	Scope  string
	Limit  int64
	Window time.Duration
}

// RateLimit limits requests per client IP. When the limiter backend fails
// the request is let through and the failure logged.
func RateLimit(limiter ports.RateLimiter, cfg RateLimitConfig, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d, err := limiter.Allow(c.Request().Context(), cfg.Scope, c.RealIP(), cfg.Limit, cfg.Window)
			if err != nil {
				metrics.RateLimiterErrorsTotal.WithLabelValues(cfg.Scope).Inc()
				log.Warn().Err(err).Str("scope", cfg.Scope).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(d.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(d.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(d.ResetAt.Unix(), 10))
			if !d.Allowed {
				metrics.RateLimitedTotal.WithLabelValues(cfg.Scope).Inc()
				retry := time.Until(d.ResetAt)
				if retry < time.Second {
					retry = time.Second
				}
				h.Set("Retry-After", strconv.Itoa(int(retry.Seconds())))
				return ErrRateLimited
			}
			return next(c)
		}
	}
}
