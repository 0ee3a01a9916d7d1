package sessions

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/flytogether/internal/store"
	"github.com/mohammad-safakhou/flytogether/models"
)

// Service applies wishlist edits on top of a SessionStore. Every edit is a
// read-modify-write of the whole session; concurrent edits to the same
// session race and the last write wins.
type Service struct {
	Store  store.SessionStore
	Logger *log.Logger
}

func NewService(st store.SessionStore, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(log.Writer(), "[SESSIONS] ", log.LstdFlags)
	}
	return &Service{Store: st, Logger: logger}
}

// Patch carries the fields of an update. Nil fields are left unchanged; a
// non-nil empty wishlist clears it.
type Patch struct {
	WishlistTitle *string               `json:"wishlistTitle"`
	Wishlist      *[]models.FlightOffer `json:"wishlist"`
	SharedWith    *[]string             `json:"sharedWith"`
}

func (p Patch) empty() bool {
	return p.WishlistTitle == nil && p.Wishlist == nil && p.SharedWith == nil
}

func (s *Service) Create(ctx context.Context, title string, wishlist []models.FlightOffer, sharedWith []string) (models.Session, error) {
	if len(wishlist) == 0 {
		return models.Session{}, models.ErrEmptyWishlist
	}
	offers, err := normalizeWishlist(wishlist)
	if err != nil {
		return models.Session{}, err
	}
	shared, err := normalizeEmails(sharedWith)
	if err != nil {
		return models.Session{}, err
	}
	sess := models.Session{
		WishlistTitle: strings.TrimSpace(title),
		Wishlist:      offers,
		SharedWith:    shared,
	}
	id, err := s.Store.Create(ctx, sess)
	if err != nil {
		return models.Session{}, err
	}
	s.Logger.Printf("created session %s with %d offers", id, len(offers))
	return s.Store.Get(ctx, id)
}

func (s *Service) Get(ctx context.Context, id string) (models.Session, error) {
	return s.Store.Get(ctx, id)
}

func (s *Service) Update(ctx context.Context, id string, p Patch) (models.Session, error) {
	if p.empty() {
		return models.Session{}, models.NewValidationError("", "nothing to update: provide wishlistTitle, wishlist or sharedWith")
	}
	return s.modify(ctx, id, func(sess *models.Session) error {
		if p.WishlistTitle != nil {
			sess.WishlistTitle = strings.TrimSpace(*p.WishlistTitle)
		}
		if p.Wishlist != nil {
			offers, err := normalizeWishlist(*p.Wishlist)
			if err != nil {
				return err
			}
			sess.Wishlist = offers
		}
		if p.SharedWith != nil {
			shared, err := normalizeEmails(*p.SharedWith)
			if err != nil {
				return err
			}
			sess.SharedWith = shared
		}
		return nil
	})
}

// Share adds email to the session's collaborators. Adding an existing
// collaborator is a no-op.
func (s *Service) Share(ctx context.Context, id, email string) (models.Session, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return models.Session{}, err
	}
	return s.modify(ctx, id, func(sess *models.Session) error {
		for _, e := range sess.SharedWith {
			if e == addr {
				return nil
			}
		}
		sess.SharedWith = append(sess.SharedWith, addr)
		return nil
	})
}

func (s *Service) Unshare(ctx context.Context, id, email string) (models.Session, error) {
	addr, err := normalizeEmail(email)
	if err != nil {
		return models.Session{}, err
	}
	return s.modify(ctx, id, func(sess *models.Session) error {
		kept := sess.SharedWith[:0]
		for _, e := range sess.SharedWith {
			if e != addr {
				kept = append(kept, e)
			}
		}
		sess.SharedWith = kept
		return nil
	})
}

// Reorder moves the offer at position from to position to, shifting the
// offers in between.
func (s *Service) Reorder(ctx context.Context, id string, from, to int) (models.Session, error) {
	return s.modify(ctx, id, func(sess *models.Session) error {
		n := len(sess.Wishlist)
		if from < 0 || from >= n {
			return models.NewValidationError("from", fmt.Sprintf("index %d out of range [0,%d)", from, n))
		}
		if to < 0 || to >= n {
			return models.NewValidationError("to", fmt.Sprintf("index %d out of range [0,%d)", to, n))
		}
		moved := sess.Wishlist[from]
		w := append(sess.Wishlist[:from:from], sess.Wishlist[from+1:]...)
		w = append(w[:to], append([]models.FlightOffer{moved}, w[to:]...)...)
		sess.Wishlist = w
		return nil
	})
}

// SetNote replaces the notes of the wishlist offer with the given id.
func (s *Service) SetNote(ctx context.Context, id, offerID, note string) (models.Session, error) {
	return s.modify(ctx, id, func(sess *models.Session) error {
		for i := range sess.Wishlist {
			if sess.Wishlist[i].ID == offerID {
				sess.Wishlist[i].Notes = note
				return nil
			}
		}
		return models.NewValidationError("offerId", fmt.Sprintf("no offer %q in wishlist", offerID))
	})
}

func (s *Service) modify(ctx context.Context, id string, edit func(*models.Session) error) (models.Session, error) {
	sess, err := s.Store.Get(ctx, id)
	if err != nil {
		return models.Session{}, err
	}
	if err := edit(&sess); err != nil {
		return models.Session{}, err
	}
	if err := s.Store.Put(ctx, id, sess); err != nil {
		return models.Session{}, err
	}
	return s.Store.Get(ctx, id)
}

// normalizeWishlist rejects offers without segments and fills in the fields
// the wishlist relies on: a unique id and the stop count.
func normalizeWishlist(in []models.FlightOffer) ([]models.FlightOffer, error) {
	out := make([]models.FlightOffer, len(in))
	seen := make(map[string]bool, len(in))
	for i, o := range in {
		if len(o.FirstSegments()) == 0 {
			return nil, models.NewValidationError(fmt.Sprintf("wishlist[%d]", i), "offer has no flight segments")
		}
		o = o.Clone()
		if o.ID == "" || seen[o.ID] {
			o.ID = uuid.NewString()
		}
		seen[o.ID] = true
		o.NumberOfStops = o.StopCount()
		out[i] = o
	}
	return out, nil
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", models.NewValidationError("email", fmt.Sprintf("%q is not a valid email address", raw))
	}
	return strings.ToLower(addr.Address), nil
}

func normalizeEmails(in []string) ([]string, error) {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, raw := range in {
		addr, err := normalizeEmail(raw)
		if err != nil {
			return nil, err
		}
		if !seen[addr] {
			seen[addr] = true
			out = append(out, addr)
		}
	}
	return out, nil
}
