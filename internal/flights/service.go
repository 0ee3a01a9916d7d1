package flights

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/flytogether/internal/telemetry"
	"github.com/mohammad-safakhou/flytogether/models"
)

// Provider fetches raw offers from an upstream flight-data API.
type Provider interface {
	SearchOffers(ctx context.Context, req SearchRequest) ([]models.FlightOffer, error)
}

// Service validates search requests and prepares upstream offers for the
// wishlist: each offer gets a fresh id, empty notes and its stop count.
type Service struct {
	Provider Provider
	Logger   *log.Logger
}

func NewService(p Provider, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[SEARCH] ", log.LstdFlags)
	}
	return &Service{Provider: p, Logger: logger}
}

// Search runs one upstream search. Offers with no segments in their first
// itinerary are dropped since they can never be shown or matched.
func (s *Service) Search(ctx context.Context, req SearchRequest) ([]models.FlightOffer, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	raw, err := s.Provider.SearchOffers(ctx, req)
	if err != nil {
		telemetry.SearchRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	telemetry.SearchRequests.WithLabelValues("ok").Inc()

	out := make([]models.FlightOffer, 0, len(raw))
	for _, o := range raw {
		if len(o.FirstSegments()) == 0 {
			continue
		}
		out = append(out, Prepare(o))
	}
	if dropped := len(raw) - len(out); dropped > 0 {
		s.Logger.Printf("search %s-%s %s: dropped %d offers without segments", req.Origin, req.Destination, req.DepartureDate, dropped)
	}
	return out, nil
}

// Prepare assigns a working-set id and resets user-authored fields.
func Prepare(o models.FlightOffer) models.FlightOffer {
	o.ID = uuid.NewString()
	o.Notes = ""
	o.NumberOfStops = o.StopCount()
	return o
}
