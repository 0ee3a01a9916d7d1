package server

import "github.com/mohammad-safakhou/flytogether/models"

// HTTPError is a generic error envelope returned by the server.
type HTTPError struct {
	Error string `json:"error"`
}

// CreateSessionRequest is the payload for sharing a new wishlist.
type CreateSessionRequest struct {
	WishlistTitle string               `json:"wishlistTitle"`
	Wishlist      []models.FlightOffer `json:"wishlist"`
	SharedWith    []string             `json:"sharedWith"`
}

// SessionIDResponse is returned when a session is created.
type SessionIDResponse struct {
	SessionID string `json:"sessionId"`
}

// ShareRequest adds or removes one collaborator.
type ShareRequest struct {
	Email string `json:"email"`
}

// ReorderRequest moves the offer at From to To.
type ReorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

// NoteRequest replaces the notes of one offer.
type NoteRequest struct {
	Notes string `json:"notes"`
}

// SearchQuery holds the query parameters of GET /api/search.
type SearchQuery struct {
	Origin        string
	Destination   string
	DepartureDate string
	ReturnDate    string
	Adults        int
	TravelClass   string
	Stops         string
	Sort          string
	Page          int
	PageSize      int
}
