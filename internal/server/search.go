package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/flytogether/internal/flights"
	"github.com/mohammad-safakhou/flytogether/internal/ratelimit"
	"github.com/mohammad-safakhou/flytogether/models"
)

// OfferSearcher runs a prepared flight-offers search.
type OfferSearcher interface {
	Search(ctx context.Context, req flights.SearchRequest) ([]models.FlightOffer, error)
}

type SearchHandler struct {
	Searcher OfferSearcher
	Limiter  ratelimit.Limiter
}

func (h *SearchHandler) Register(g *echo.Group) {
	g.GET("/search", h.search)
}

func (h *SearchHandler) search(c echo.Context) error {
	var q SearchQuery
	err := echo.QueryParamsBinder(c).
		String("origin", &q.Origin).
		String("destination", &q.Destination).
		String("departureDate", &q.DepartureDate).
		String("returnDate", &q.ReturnDate).
		Int("adults", &q.Adults).
		String("travelClass", &q.TravelClass).
		String("stops", &q.Stops).
		String("sort", &q.Sort).
		Int("page", &q.Page).
		Int("pageSize", &q.PageSize).
		BindError()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req := flights.SearchRequest{
		Origin:        q.Origin,
		Destination:   q.Destination,
		DepartureDate: q.DepartureDate,
		ReturnDate:    q.ReturnDate,
		Adults:        q.Adults,
		TravelClass:   q.TravelClass,
	}.Normalize()
	if err := req.Validate(); err != nil {
		return httpError(err)
	}
	if _, err := flights.FilterByStops(nil, q.Stops); err != nil {
		return httpError(err)
	}
	switch q.Sort {
	case "", "price", "none":
	default:
		return echo.NewHTTPError(http.StatusBadRequest, `sort must be "price" or "none"`)
	}
	if err := enforceLimit(c, h.Limiter, "search"); err != nil {
		return err
	}

	offers, err := h.Searcher.Search(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, models.ErrInvalidInput) {
			return httpError(err)
		}
		return echo.NewHTTPError(http.StatusBadGateway, "Error searching flights").SetInternal(err)
	}
	offers, _ = flights.FilterByStops(offers, q.Stops)
	if q.Sort != "none" {
		flights.SortByPrice(offers)
	}
	return c.JSON(http.StatusOK, flights.Paginate(offers, q.Page, q.PageSize))
}
