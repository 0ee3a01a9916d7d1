package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/flytogether/internal/amadeus"
	"github.com/mohammad-safakhou/flytogether/internal/reconcile"
	"github.com/mohammad-safakhou/flytogether/models"
)

// httpError maps domain errors onto HTTP statuses. The original error is
// kept as the internal cause for logging.
func httpError(err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	var (
		apiErr    *amadeus.APIError
		searchErr *reconcile.SearchError
	)
	switch {
	case errors.Is(err, models.ErrEmptyWishlist):
		return echo.NewHTTPError(http.StatusBadRequest, "Wishlist must have at least one flight").SetInternal(err)
	case errors.Is(err, models.ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	case errors.Is(err, models.ErrSessionNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "Session not found").SetInternal(err)
	case errors.Is(err, context.DeadlineExceeded):
		return echo.NewHTTPError(http.StatusGatewayTimeout, "upstream timed out").SetInternal(err)
	case errors.As(err, &apiErr), errors.As(err, &searchErr):
		return echo.NewHTTPError(http.StatusBadGateway, "Error searching flights").SetInternal(err)
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error()).SetInternal(err)
	}
}
