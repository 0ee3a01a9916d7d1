package flights

import (
	"math"
	"sort"
	"strconv"

	"github.com/mohammad-safakhou/flytogether/models"
)

const DefaultPageSize = 10

// StopsAny disables the stop-count filter.
const StopsAny = "any"

// FilterByStops keeps offers with exactly the given number of stops. "any"
// or an empty filter keeps everything.
func FilterByStops(offers []models.FlightOffer, stops string) ([]models.FlightOffer, error) {
	if stops == "" || stops == StopsAny {
		return offers, nil
	}
	n, err := strconv.Atoi(stops)
	if err != nil || n < 0 {
		return nil, models.NewValidationError("stops", `expected "any" or a non-negative number`)
	}
	out := make([]models.FlightOffer, 0, len(offers))
	for _, o := range offers {
		if o.NumberOfStops == n {
			out = append(out, o)
		}
	}
	return out, nil
}

// SortByPrice orders offers by ascending total price. Unparseable prices
// sort last; ties keep their upstream order.
func SortByPrice(offers []models.FlightOffer) {
	sort.SliceStable(offers, func(i, j int) bool {
		return PriceValue(offers[i]) < PriceValue(offers[j])
	})
}

// PriceValue parses the decimal total, +Inf when absent or malformed.
func PriceValue(o models.FlightOffer) float64 {
	v, err := strconv.ParseFloat(o.Price.Total, 64)
	if err != nil {
		return math.Inf(1)
	}
	return v
}

// Page is one slice of a browsed result list.
type Page struct {
	Offers     []models.FlightOffer `json:"data"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	PageSize   int                  `json:"pageSize"`
	TotalPages int                  `json:"totalPages"`
}

// Paginate returns the requested zero-based page, clamped to the last page
// when the request overshoots.
func Paginate(offers []models.FlightOffer, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 0 {
		page = 0
	}
	total := len(offers)
	totalPages := (total + size - 1) / size
	if totalPages > 0 && page >= totalPages {
		page = totalPages - 1
	}
	start := page * size
	end := start + size
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return Page{
		Offers:     offers[start:end],
		Total:      total,
		Page:       page,
		PageSize:   size,
		TotalPages: totalPages,
	}
}
