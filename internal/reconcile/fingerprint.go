// Package reconcile recognises saved wishlist offers inside fresh search
// results so their price and schedule can be refreshed in place.
package reconcile

import (
	"errors"
	"strings"
	"time"

	"github.com/mohammad-safakhou/flytogether/models"
)

// ErrUnusableOffer is returned for offers without a first itinerary, without
// segments, or whose departure does not start with a YYYY-MM-DD date.
// Callers skip such offers.
var ErrUnusableOffer = errors.New("offer has no usable itinerary")

const dateLayout = "2006-01-02"

// departure.at comes without an offset from the provider; the other layouts
// cover offers stored by older clients. Only the tie-break needs the time of
// day, so an unreadable one never makes an offer unusable.
var timeLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	dateLayout,
}

// Fingerprint is the canonical shape of an offer's first itinerary.
type Fingerprint struct {
	Origin        string
	Destination   string
	DepartureDate string
	CarrierCode   string
	FlightNumber  string
	SegmentCount  int
}

// GroupKey identifies one upstream search: route and departure date.
type GroupKey struct {
	Origin        string
	Destination   string
	DepartureDate string
}

func (k GroupKey) String() string {
	return k.Origin + "-" + k.Destination + "@" + k.DepartureDate
}

// Key returns the search group the fingerprint belongs to.
func (f Fingerprint) Key() GroupKey {
	return GroupKey{Origin: f.Origin, Destination: f.Destination, DepartureDate: f.DepartureDate}
}

// Matches reports whether two fingerprints describe the same flight. Segment
// count is deliberately not compared.
func (f Fingerprint) Matches(o Fingerprint) bool {
	return f.Origin == o.Origin &&
		f.Destination == o.Destination &&
		f.DepartureDate == o.DepartureDate &&
		f.CarrierCode == o.CarrierCode &&
		f.FlightNumber == o.FlightNumber
}

// Extract builds the fingerprint of the offer's first itinerary. The
// departure date is the calendar date as written; time of day and offset are
// dropped because searches are issued by date only.
func Extract(o models.FlightOffer) (Fingerprint, error) {
	segs := o.FirstSegments()
	if len(segs) == 0 {
		return Fingerprint{}, ErrUnusableOffer
	}
	first, last := segs[0], segs[len(segs)-1]
	date, ok := departureDate(first.Departure.At)
	if !ok {
		return Fingerprint{}, ErrUnusableOffer
	}
	return Fingerprint{
		Origin:        normCode(first.Departure.IATACode),
		Destination:   normCode(last.Arrival.IATACode),
		DepartureDate: date,
		CarrierCode:   normCode(first.CarrierCode),
		FlightNumber:  strings.TrimSpace(first.Number),
		SegmentCount:  len(segs),
	}, nil
}

// departureDate returns the leading calendar date of at, whatever follows it.
func departureDate(at string) (string, bool) {
	at = strings.TrimSpace(at)
	if len(at) < len(dateLayout) {
		return "", false
	}
	date := at[:len(dateLayout)]
	if _, err := time.Parse(dateLayout, date); err != nil {
		return "", false
	}
	return date, true
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func normCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}
