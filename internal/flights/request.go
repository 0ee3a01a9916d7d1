package flights

import (
	"fmt"
	"strings"
	"time"

	"github.com/mohammad-safakhou/flytogether/models"
)

const dateLayout = "2006-01-02"

// Travel classes accepted by the flight-offers search.
const (
	ClassEconomy        = "ECONOMY"
	ClassPremiumEconomy = "PREMIUM_ECONOMY"
	ClassBusiness       = "BUSINESS"
	ClassFirst          = "FIRST"
)

const (
	MinAdults = 1
	MaxAdults = 9
)

// SearchRequest is a one-way or return flight-offers query.
type SearchRequest struct {
	Origin        string `json:"origin" query:"origin"`
	Destination   string `json:"destination" query:"destination"`
	DepartureDate string `json:"departureDate" query:"departureDate"`
	ReturnDate    string `json:"returnDate,omitempty" query:"returnDate"`
	Adults        int    `json:"adults" query:"adults"`
	TravelClass   string `json:"travelClass,omitempty" query:"travelClass"`
}

// Normalize trims and upper-cases codes and applies the default adult count.
func (r SearchRequest) Normalize() SearchRequest {
	r.Origin = strings.ToUpper(strings.TrimSpace(r.Origin))
	r.Destination = strings.ToUpper(strings.TrimSpace(r.Destination))
	r.DepartureDate = strings.TrimSpace(r.DepartureDate)
	r.ReturnDate = strings.TrimSpace(r.ReturnDate)
	r.TravelClass = strings.ToUpper(strings.TrimSpace(r.TravelClass))
	if r.Adults == 0 {
		r.Adults = MinAdults
	}
	return r
}

// Validate rejects requests missing required parameters or carrying
// malformed ones. It expects a normalized request.
func (r SearchRequest) Validate() error {
	if r.Origin == "" || r.Destination == "" || r.DepartureDate == "" {
		return models.NewValidationError("", "missing required parameters: origin, destination, departureDate")
	}
	if !isIATACode(r.Origin) {
		return models.NewValidationError("origin", fmt.Sprintf("%q is not a 3-letter IATA code", r.Origin))
	}
	if !isIATACode(r.Destination) {
		return models.NewValidationError("destination", fmt.Sprintf("%q is not a 3-letter IATA code", r.Destination))
	}
	if r.Origin == r.Destination {
		return models.NewValidationError("destination", "must differ from origin")
	}
	dep, err := time.Parse(dateLayout, r.DepartureDate)
	if err != nil {
		return models.NewValidationError("departureDate", "expected YYYY-MM-DD")
	}
	if r.ReturnDate != "" {
		ret, err := time.Parse(dateLayout, r.ReturnDate)
		if err != nil {
			return models.NewValidationError("returnDate", "expected YYYY-MM-DD")
		}
		if ret.Before(dep) {
			return models.NewValidationError("returnDate", "must not be before departureDate")
		}
	}
	if r.Adults < MinAdults || r.Adults > MaxAdults {
		return models.NewValidationError("adults", fmt.Sprintf("must be between %d and %d", MinAdults, MaxAdults))
	}
	switch r.TravelClass {
	case "", ClassEconomy, ClassPremiumEconomy, ClassBusiness, ClassFirst:
	default:
		return models.NewValidationError("travelClass", fmt.Sprintf("unknown travel class %q", r.TravelClass))
	}
	return nil
}

func isIATACode(s string) bool {
	if len(s) != 3 {
		return false
	}
	for _, r := range s {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
