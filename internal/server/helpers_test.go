package server

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/mohammad-safakhou/flytogether/internal/flights"
	"github.com/mohammad-safakhou/flytogether/internal/reconcile"
	"github.com/mohammad-safakhou/flytogether/models"
)

type stubSearcher struct {
	offers []models.FlightOffer
	err    error
	calls  int
}

func (s *stubSearcher) Search(ctx context.Context, req flights.SearchRequest) ([]models.FlightOffer, error) {
	s.calls++
	return s.offers, s.err
}

type stubRefresher struct {
	report reconcile.Report
	err    error
	ids    []string
}

func (s *stubRefresher) Refresh(ctx context.Context, id string) (reconcile.Report, error) {
	s.ids = append(s.ids, id)
	if s.err != nil {
		return reconcile.Report{SessionID: id}, s.err
	}
	rep := s.report
	rep.SessionID = id
	return rep, nil
}

func oneWay(id, price string, stops int) models.FlightOffer {
	segs := make([]models.Segment, stops+1)
	for i := range segs {
		segs[i] = models.Segment{
			Departure:   models.Endpoint{IATACode: "LAX", At: "2025-06-01T08:00:00"},
			Arrival:     models.Endpoint{IATACode: "JFK", At: "2025-06-01T16:30:00"},
			CarrierCode: "AA",
			Number:      fmt.Sprint(100 + i),
		}
	}
	return models.FlightOffer{
		ID:            id,
		Itineraries:   []models.Itinerary{{Segments: segs}},
		Price:         models.Price{Total: price, Currency: "USD"},
		NumberOfStops: stops,
	}
}

func requireHTTPError(t *testing.T, err error, code int) *echo.HTTPError {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError with %d, got %v", code, err)
	}
	if he.Code != code {
		t.Fatalf("expected status %d got %d (%v)", code, he.Code, he.Message)
	}
	return he
}
