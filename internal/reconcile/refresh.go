package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mohammad-safakhou/flytogether/internal/flights"
	"github.com/mohammad-safakhou/flytogether/internal/telemetry"
	"github.com/mohammad-safakhou/flytogether/models"
)

// Searcher runs one flight-offers search.
type Searcher interface {
	Search(ctx context.Context, req flights.SearchRequest) ([]models.FlightOffer, error)
}

// SessionStore is the part of the session store a refresh needs.
type SessionStore interface {
	Get(ctx context.Context, id string) (models.Session, error)
	Put(ctx context.Context, id string, s models.Session) error
}

// Options tune the searches issued for each group.
type Options struct {
	Adults      int
	TravelClass string
	// Now enables skipping groups that have already departed. Nil searches
	// every group regardless of date.
	Now func() time.Time
}

// departed reports whether no airport anywhere is still on the group's
// departure date. UTC-12 is the last zone to leave a calendar day.
func (o Options) departed(k GroupKey) bool {
	if o.Now == nil {
		return false
	}
	latest := o.Now().UTC().Add(-12 * time.Hour).Format(dateLayout)
	return k.DepartureDate < latest
}

// Report describes the outcome of one refresh. Indices refer to wishlist
// positions.
type Report struct {
	SessionID string `json:"sessionId,omitempty"`
	Groups    int    `json:"groups"`
	Searches  int    `json:"searches"`
	Refreshed []int  `json:"refreshed"`
	Unmatched []int  `json:"unmatched"`
	Skipped   []int  `json:"skipped"`
	Expired   []int  `json:"expired"`
	Persisted bool   `json:"persisted"`
}

// SearchError reports the group whose search aborted a refresh.
type SearchError struct {
	Group GroupKey
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("search %s: %v", e.Group, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

type group struct {
	key     GroupKey
	indices []int
}

// RefreshWishlist searches once per (origin, destination, date) group and
// returns a copy of wishlist where every matched item is replaced in place
// by its fresh counterpart. The saved id and notes carry over. Items without
// a match are returned untouched. Any search failure aborts the whole
// refresh and no partial result is returned.
func RefreshWishlist(ctx context.Context, searcher Searcher, wishlist []models.FlightOffer, opts Options) ([]models.FlightOffer, Report, error) {
	rep := emptyReport()
	groups := groupWishlist(wishlist, &rep)
	rep.Groups = len(groups)

	out := append([]models.FlightOffer(nil), wishlist...)
	for _, g := range groups {
		if err := ctx.Err(); err != nil {
			return nil, rep, err
		}
		if opts.departed(g.key) {
			rep.Expired = append(rep.Expired, g.indices...)
			continue
		}
		rep.Searches++
		candidates, err := searcher.Search(ctx, flights.SearchRequest{
			Origin:        g.key.Origin,
			Destination:   g.key.Destination,
			DepartureDate: g.key.DepartureDate,
			Adults:        opts.Adults,
			TravelClass:   opts.TravelClass,
		})
		if err != nil {
			// a saved offer the search rejects as input can't be refreshed
			if errors.Is(err, models.ErrInvalidInput) {
				rep.Skipped = append(rep.Skipped, g.indices...)
				continue
			}
			return nil, rep, &SearchError{Group: g.key, Err: err}
		}
		for _, i := range g.indices {
			j, ok := BestMatch(wishlist[i], candidates)
			if !ok {
				rep.Unmatched = append(rep.Unmatched, i)
				continue
			}
			out[i] = merge(wishlist[i], candidates[j])
			rep.Refreshed = append(rep.Refreshed, i)
		}
	}
	return out, rep, nil
}

func emptyReport() Report {
	return Report{Refreshed: []int{}, Unmatched: []int{}, Skipped: []int{}, Expired: []int{}}
}

// groupWishlist groups usable items by search key in order of first
// appearance; unusable items are recorded as skipped.
func groupWishlist(wishlist []models.FlightOffer, rep *Report) []*group {
	var groups []*group
	byKey := make(map[GroupKey]*group)
	for i, o := range wishlist {
		fp, err := Extract(o)
		if err != nil {
			rep.Skipped = append(rep.Skipped, i)
			continue
		}
		g, ok := byKey[fp.Key()]
		if !ok {
			g = &group{key: fp.Key()}
			byKey[g.key] = g
			groups = append(groups, g)
		}
		g.indices = append(g.indices, i)
	}
	return groups
}

// merge returns the fresh offer carrying over the user-authored fields of
// the saved one.
func merge(saved, fresh models.FlightOffer) models.FlightOffer {
	out := fresh.Clone()
	out.ID = saved.ID
	out.Notes = saved.Notes
	out.NumberOfStops = out.StopCount()
	return out
}

// Refresher refreshes the wishlist of a stored session and writes it back
// with a single Put.
type Refresher struct {
	Store    SessionStore
	Searcher Searcher
	Options  Options
	Logger   *log.Logger
	Now      func() time.Time
}

func NewRefresher(st SessionStore, s Searcher, opts Options, logger *log.Logger) *Refresher {
	if logger == nil {
		logger = log.New(log.Writer(), "[REFRESH] ", log.LstdFlags)
	}
	return &Refresher{Store: st, Searcher: s, Options: opts, Logger: logger, Now: time.Now}
}

// Refresh loads the session, refreshes its wishlist and persists the result
// when at least one item changed. Unknown sessions surface
// models.ErrSessionNotFound; search and store failures are returned and
// nothing is written.
func (r *Refresher) Refresh(ctx context.Context, sessionID string) (Report, error) {
	sess, err := r.Store.Get(ctx, sessionID)
	if err != nil {
		return Report{SessionID: sessionID}, err
	}
	if len(sess.Wishlist) == 0 {
		rep := emptyReport()
		rep.SessionID = sessionID
		return rep, nil
	}

	opts := r.Options
	if opts.Now == nil {
		opts.Now = r.now
	}
	updated, rep, err := RefreshWishlist(ctx, r.Searcher, sess.Wishlist, opts)
	rep.SessionID = sessionID
	if err != nil {
		telemetry.RefreshRuns.WithLabelValues("error").Inc()
		r.Logger.Printf("session %s: refresh aborted after %d searches: %v", sessionID, rep.Searches, err)
		return rep, err
	}
	telemetry.RefreshOffers.WithLabelValues("refreshed").Add(float64(len(rep.Refreshed)))
	telemetry.RefreshOffers.WithLabelValues("unmatched").Add(float64(len(rep.Unmatched)))
	telemetry.RefreshOffers.WithLabelValues("skipped").Add(float64(len(rep.Skipped)))
	telemetry.RefreshOffers.WithLabelValues("expired").Add(float64(len(rep.Expired)))

	if len(rep.Refreshed) > 0 {
		sess.Wishlist = updated
		sess.UpdatedAt = r.now()
		if err := r.Store.Put(ctx, sessionID, sess); err != nil {
			telemetry.RefreshRuns.WithLabelValues("error").Inc()
			return rep, fmt.Errorf("persist session %s: %w", sessionID, err)
		}
		rep.Persisted = true
	}
	telemetry.RefreshRuns.WithLabelValues("ok").Inc()
	r.Logger.Printf("session %s: %d groups, %d refreshed, %d unmatched, %d skipped, %d expired",
		sessionID, rep.Groups, len(rep.Refreshed), len(rep.Unmatched), len(rep.Skipped), len(rep.Expired))
	return rep, nil
}

func (r *Refresher) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
