package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/mohammad-safakhou/flytogether/internal/flights"
	"github.com/mohammad-safakhou/flytogether/models"
)

type leg struct {
	from, to, dep, arr, carrier, number string
}

func offer(id, price string, legs ...leg) models.FlightOffer {
	segs := make([]models.Segment, len(legs))
	for i, l := range legs {
		segs[i] = models.Segment{
			Departure:   models.Endpoint{IATACode: l.from, At: l.dep},
			Arrival:     models.Endpoint{IATACode: l.to, At: l.arr},
			CarrierCode: l.carrier,
			Number:      l.number,
			Aircraft:    models.Aircraft{Code: "321"},
			ID:          fmt.Sprint(i + 1),
		}
	}
	return models.FlightOffer{
		ID:            id,
		Itineraries:   []models.Itinerary{{Duration: "PT5H", Segments: segs}},
		Price:         models.Price{Total: price, Currency: "USD"},
		NumberOfStops: len(segs) - 1,
	}
}

type fakeSearcher struct {
	results map[string][]models.FlightOffer
	errs    map[string]error
	calls   []flights.SearchRequest
}

func (f *fakeSearcher) Search(ctx context.Context, req flights.SearchRequest) ([]models.FlightOffer, error) {
	f.calls = append(f.calls, req)
	key := GroupKey{Origin: req.Origin, Destination: req.Destination, DepartureDate: req.DepartureDate}.String()
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.results[key], nil
}

type fakeStore struct {
	sessions map[string]models.Session
	puts     int
	putErr   error
}

func (f *fakeStore) Get(ctx context.Context, id string) (models.Session, error) {
	s, ok := f.sessions[id]
	if !ok {
		return models.Session{}, models.ErrSessionNotFound
	}
	return s.Clone(), nil
}

func (f *fakeStore) Put(ctx context.Context, id string, s models.Session) error {
	if f.putErr != nil {
		return f.putErr
	}
	if _, ok := f.sessions[id]; !ok {
		return models.ErrSessionNotFound
	}
	f.puts++
	f.sessions[id] = s.Clone()
	return nil
}

var errUpstream = errors.New("upstream unavailable")

// tripClock sits a month before the trips in tripWishlist.
var tripClock = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func testRefresher(st *fakeStore, s Searcher, opts Options) *Refresher {
	r := NewRefresher(st, s, opts, log.New(io.Discard, "", 0))
	r.Now = func() time.Time { return tripClock }
	return r
}
