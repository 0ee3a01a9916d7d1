package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/flytogether/internal/ratelimit"
	"github.com/mohammad-safakhou/flytogether/internal/telemetry"
)

const tooManyRequests = "Too many requests. Try again later."

// enforceLimit charges one request to the caller. Handlers call it after
// validating input so malformed requests do not consume quota.
func enforceLimit(c echo.Context, l ratelimit.Limiter, route string) error {
	if l == nil {
		return nil
	}
	ok, err := l.Allow(c.Request().Context(), clientIdentity(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "rate limiter unavailable").SetInternal(err)
	}
	if !ok {
		telemetry.RateLimited.WithLabelValues(route).Inc()
		return echo.NewHTTPError(http.StatusTooManyRequests, tooManyRequests)
	}
	return nil
}
