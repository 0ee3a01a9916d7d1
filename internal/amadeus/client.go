// Package amadeus is a client for the Amadeus Self-Service flight-offers
// search. It satisfies flights.Provider.
package amadeus

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohammad-safakhou/flytogether/internal/flights"
	"github.com/mohammad-safakhou/flytogether/models"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL  = "https://test.api.amadeus.com"
	tokenPath       = "/v1/security/oauth2/token"
	flightOfferPath = "/v2/shopping/flight-offers"
)

type Config struct {
	BaseURL           string
	APIKey            string
	APISecret         string
	CurrencyCode      string
	MaxResults        int
	Timeout           time.Duration
	MaxRetries        int
	Backoff           time.Duration
	RequestsPerSecond float64
	Burst             int
}

type Client struct {
	baseURL  string
	currency string
	max      int
	http     *httpClient
	tokens   *tokenSource
	logger   *log.Logger
}

func NewClient(cfg Config, logger *log.Logger) (*Client, error) {
	if cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, errors.New("amadeus: api key and secret are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.CurrencyCode == "" {
		cfg.CurrencyCode = "USD"
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[AMADEUS] ", log.LstdFlags)
	}
	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	hc := newHTTPClient(cfg.Timeout, cfg.MaxRetries, cfg.Backoff, limiter)
	return &Client{
		baseURL:  base,
		currency: strings.ToUpper(cfg.CurrencyCode),
		max:      cfg.MaxResults,
		http:     hc,
		tokens:   newTokenSource(hc, base+tokenPath, cfg.APIKey, cfg.APISecret),
		logger:   logger,
	}, nil
}

type offersResponse struct {
	Data []models.FlightOffer `json:"data"`
}

// SearchOffers returns the provider's offers for req in upstream order. A
// rejected token is dropped and the search retried once with a fresh one.
func (c *Client) SearchOffers(ctx context.Context, req flights.SearchRequest) ([]models.FlightOffer, error) {
	u := c.baseURL + flightOfferPath + "?" + c.query(req).Encode()
	offers, err := c.searchOnce(ctx, u)
	if isUnauthorized(err) {
		c.logger.Printf("token rejected, refetching")
		c.tokens.Invalidate()
		offers, err = c.searchOnce(ctx, u)
	}
	if err != nil {
		c.logger.Printf("search %s-%s %s failed: %v", req.Origin, req.Destination, req.DepartureDate, err)
		return nil, err
	}
	return offers, nil
}

func (c *Client) searchOnce(ctx context.Context, u string) ([]models.FlightOffer, error) {
	tok, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}
	var resp offersResponse
	headers := map[string]string{"Authorization": "Bearer " + tok}
	if err := c.http.doJSON(ctx, "flight-offers", http.MethodGet, u, headers, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		resp.Data = []models.FlightOffer{}
	}
	return resp.Data, nil
}

func (c *Client) query(req flights.SearchRequest) url.Values {
	q := url.Values{}
	q.Set("originLocationCode", req.Origin)
	q.Set("destinationLocationCode", req.Destination)
	q.Set("departureDate", req.DepartureDate)
	if req.ReturnDate != "" {
		q.Set("returnDate", req.ReturnDate)
	}
	adults := req.Adults
	if adults <= 0 {
		adults = 1
	}
	q.Set("adults", strconv.Itoa(adults))
	if req.TravelClass != "" {
		q.Set("travelClass", req.TravelClass)
	}
	q.Set("currencyCode", c.currency)
	if c.max > 0 {
		q.Set("max", strconv.Itoa(c.max))
	}
	return q
}
