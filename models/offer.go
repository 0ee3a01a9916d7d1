package models

import (
	"encoding/json"
)

// FlightOffer is a priced itinerary option as returned by the flight-offers
// search, plus the fields the wishlist adds on top (id, notes, numberOfStops).
// Fields the service does not interpret are kept in Extra and written back
// unchanged.
type FlightOffer struct {
	ID            string      `json:"id"`
	Itineraries   []Itinerary `json:"itineraries"`
	Price         Price       `json:"price"`
	Notes         string      `json:"notes"`
	NumberOfStops int         `json:"numberOfStops"`

	Extra map[string]json.RawMessage `json:"-"`
}

type Itinerary struct {
	Duration string    `json:"duration,omitempty"`
	Segments []Segment `json:"segments"`
}

type Segment struct {
	Departure     Endpoint `json:"departure"`
	Arrival       Endpoint `json:"arrival"`
	CarrierCode   string   `json:"carrierCode"`
	Number        string   `json:"number"`
	Aircraft      Aircraft `json:"aircraft"`
	Duration      string   `json:"duration,omitempty"`
	ID            string   `json:"id,omitempty"`
	NumberOfStops int      `json:"numberOfStops"`
}

type Endpoint struct {
	IATACode string `json:"iataCode"`
	Terminal string `json:"terminal,omitempty"`
	At       string `json:"at"`
}

type Aircraft struct {
	Code string `json:"code"`
}

// Price keeps the total as the decimal string the provider sends.
type Price struct {
	Total    string                     `json:"total"`
	Currency string                     `json:"currency"`
	Extra    map[string]json.RawMessage `json:"-"`
}

var offerKnownFields = []string{"id", "itineraries", "price", "notes", "numberOfStops"}

var priceKnownFields = []string{"total", "currency"}

// offerFields mirrors FlightOffer without its methods so the codec below can
// reuse the default struct encoding.
type offerFields FlightOffer

type priceFields Price

func (o *FlightOffer) UnmarshalJSON(data []byte) error {
	var known offerFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := collectExtra(data, offerKnownFields)
	if err != nil {
		return err
	}
	*o = FlightOffer(known)
	o.Extra = extra
	return nil
}

func (o FlightOffer) MarshalJSON() ([]byte, error) {
	return mergeExtra(offerFields(o), o.Extra)
}

func (p *Price) UnmarshalJSON(data []byte) error {
	var known priceFields
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	extra, err := collectExtra(data, priceKnownFields)
	if err != nil {
		return err
	}
	*p = Price(known)
	p.Extra = extra
	return nil
}

func (p Price) MarshalJSON() ([]byte, error) {
	return mergeExtra(priceFields(p), p.Extra)
}

// FirstSegments returns the segments of the first itinerary, or nil.
func (o FlightOffer) FirstSegments() []Segment {
	if len(o.Itineraries) == 0 {
		return nil
	}
	return o.Itineraries[0].Segments
}

// StopCount is the number of stops of the first itinerary; -1 when the offer
// has no segments.
func (o FlightOffer) StopCount() int {
	return len(o.FirstSegments()) - 1
}

// Clone returns a deep copy so wishlist edits never alias caller data.
func (o FlightOffer) Clone() FlightOffer {
	out := o
	if o.Itineraries != nil {
		out.Itineraries = make([]Itinerary, len(o.Itineraries))
		for i, it := range o.Itineraries {
			it.Segments = append([]Segment(nil), it.Segments...)
			out.Itineraries[i] = it
		}
	}
	out.Extra = cloneRaw(o.Extra)
	out.Price.Extra = cloneRaw(o.Price.Extra)
	return out
}

func collectExtra(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeExtra(known any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(known)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var all map[string]json.RawMessage
	if err := json.Unmarshal(b, &all); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := all[k]; !ok {
			all[k] = v
		}
	}
	return json.Marshal(all)
}

func cloneRaw(m map[string]json.RawMessage) map[string]json.RawMessage {
	if m == nil {
		return nil
	}
	out := make(map[string]json.RawMessage, len(m))
	for k, v := range m {
		out[k] = append(json.RawMessage(nil), v...)
	}
	return out
}
