package models

import "time"

// Session is the persisted, shareable container of a wishlist.
type Session struct {
	SessionID     string        `json:"sessionId"`
	WishlistTitle string        `json:"wishlistTitle"`
	Wishlist      []FlightOffer `json:"wishlist"`
	SharedWith    []string      `json:"sharedWith"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

// Clone returns a deep copy of the session.
func (s Session) Clone() Session {
	out := s
	if s.Wishlist != nil {
		out.Wishlist = make([]FlightOffer, len(s.Wishlist))
		for i, o := range s.Wishlist {
			out.Wishlist[i] = o.Clone()
		}
	}
	out.SharedWith = append([]string(nil), s.SharedWith...)
	return out
}
