package reconcile

import (
	"math"
	"time"

	"github.com/mohammad-safakhou/flytogether/internal/flights"
	"github.com/mohammad-safakhou/flytogether/models"
)

// IsMatchingFlight reports whether candidate is the same flight as saved:
// equal origin, destination, departure date, carrier and flight number.
// Price, arrival time, aircraft and connections may drift. Offers that
// cannot be fingerprinted never match.
func IsMatchingFlight(saved, candidate models.FlightOffer) bool {
	a, err := Extract(saved)
	if err != nil {
		return false
	}
	b, err := Extract(candidate)
	if err != nil {
		return false
	}
	return a.Matches(b)
}

// BestMatch returns the index of the candidate that best matches saved.
// Candidates with a different number of itineraries are never picked, so a
// saved return trip is not overwritten by a one-way fare. Among several
// matches it prefers, in order: identical leg sequence,
// closest first departure time, closest price, earliest position.
func BestMatch(saved models.FlightOffer, candidates []models.FlightOffer) (int, bool) {
	fp, err := Extract(saved)
	if err != nil {
		return -1, false
	}
	savedDep, savedDepOK := firstDeparture(saved)
	savedPrice := flights.PriceValue(saved)

	best := -1
	var bestScore matchScore
	for i, c := range candidates {
		if len(c.Itineraries) != len(saved.Itineraries) {
			continue
		}
		cfp, err := Extract(c)
		if err != nil || !fp.Matches(cfp) {
			continue
		}
		score := matchScore{
			legsDiffer: !sameLegs(saved, c),
			depDelta:   unknownDelta,
			priceDelta: priceDelta(savedPrice, flights.PriceValue(c)),
		}
		if dep, ok := firstDeparture(c); ok && savedDepOK {
			score.depDelta = absDuration(dep.Sub(savedDep))
		}
		if best < 0 || score.less(bestScore) {
			best, bestScore = i, score
		}
	}
	return best, best >= 0
}

type matchScore struct {
	legsDiffer bool
	depDelta   time.Duration
	priceDelta float64
}

func (s matchScore) less(o matchScore) bool {
	if s.legsDiffer != o.legsDiffer {
		return !s.legsDiffer
	}
	if s.depDelta != o.depDelta {
		return s.depDelta < o.depDelta
	}
	return s.priceDelta < o.priceDelta
}

func sameLegs(a, b models.FlightOffer) bool {
	as, bs := a.FirstSegments(), b.FirstSegments()
	if len(as) != len(bs) {
		return false
	}
	for i := range as {
		if normCode(as[i].CarrierCode) != normCode(bs[i].CarrierCode) || as[i].Number != bs[i].Number {
			return false
		}
	}
	return true
}

// unknownDelta ranks candidates whose departure time can't be compared last.
const unknownDelta = time.Duration(math.MaxInt64)

// firstDeparture is only called on offers that passed Extract.
func firstDeparture(o models.FlightOffer) (time.Time, bool) {
	t, err := parseTime(o.FirstSegments()[0].Departure.At)
	return t, err == nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func priceDelta(a, b float64) float64 {
	if math.IsInf(a, 0) || math.IsInf(b, 0) {
		return math.Inf(1)
	}
	return math.Abs(a - b)
}
