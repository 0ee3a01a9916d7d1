package flights

import (
	"context"
	"errors"
	"testing"

	"github.com/mohammad-safakhou/flytogether/models"
)

type stubProvider struct {
	offers []models.FlightOffer
	err    error
	got    []SearchRequest
}

func (s *stubProvider) SearchOffers(ctx context.Context, req SearchRequest) ([]models.FlightOffer, error) {
	s.got = append(s.got, req)
	return s.offers, s.err
}

func twoLegOffer() models.FlightOffer {
	return models.FlightOffer{
		ID:    "1",
		Notes: "upstream should never set this",
		Itineraries: []models.Itinerary{{Segments: []models.Segment{
			{Departure: models.Endpoint{IATACode: "LAX", At: "2025-06-01T08:00:00"}, Arrival: models.Endpoint{IATACode: "DEN"}, CarrierCode: "UA", Number: "1"},
			{Departure: models.Endpoint{IATACode: "DEN"}, Arrival: models.Endpoint{IATACode: "JFK"}, CarrierCode: "UA", Number: "2"},
		}}},
		Price: models.Price{Total: "250.00", Currency: "USD"},
	}
}

func TestServiceSearchPreparesOffers(t *testing.T) {
	p := &stubProvider{offers: []models.FlightOffer{twoLegOffer(), {ID: "2"}}}
	s := NewService(p, nil)

	got, err := s.Search(context.Background(), SearchRequest{Origin: "lax", Destination: "jfk", DepartureDate: "2025-06-01"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("offers without segments should be dropped, got %d", len(got))
	}
	o := got[0]
	if o.ID == "" || o.ID == "1" {
		t.Fatalf("expected a fresh id, got %q", o.ID)
	}
	if o.Notes != "" || o.NumberOfStops != 1 {
		t.Fatalf("unexpected prepared offer: notes=%q stops=%d", o.Notes, o.NumberOfStops)
	}
	if len(p.got) != 1 || p.got[0].Origin != "LAX" || p.got[0].Adults != 1 {
		t.Fatalf("provider got unnormalized request: %+v", p.got)
	}
}

func TestServiceSearchRejectsInvalidRequest(t *testing.T) {
	p := &stubProvider{}
	s := NewService(p, nil)
	_, err := s.Search(context.Background(), SearchRequest{Origin: "LAX"})
	if !errors.Is(err, models.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if len(p.got) != 0 {
		t.Fatalf("provider must not be called for invalid requests")
	}
}

func TestServiceSearchPropagatesProviderError(t *testing.T) {
	boom := errors.New("upstream down")
	s := NewService(&stubProvider{err: boom}, nil)
	_, err := s.Search(context.Background(), SearchRequest{Origin: "LAX", Destination: "JFK", DepartureDate: "2025-06-01"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
