package sessions

import (
	"context"
	"errors"
	"testing"

	"github.com/mohammad-safakhou/flytogether/internal/store"
	"github.com/mohammad-safakhou/flytogether/models"
	"github.com/stretchr/testify/require"
)

func flight(id, carrier, number string) models.FlightOffer {
	return models.FlightOffer{
		ID: id,
		Itineraries: []models.Itinerary{{Segments: []models.Segment{{
			Departure:   models.Endpoint{IATACode: "LAX", At: "2025-06-01T08:00:00"},
			Arrival:     models.Endpoint{IATACode: "JFK", At: "2025-06-01T16:30:00"},
			CarrierCode: carrier,
			Number:      number,
		}}}},
		Price: models.Price{Total: "320.00", Currency: "USD"},
	}
}

func newService(t *testing.T, offers ...models.FlightOffer) (*Service, string) {
	t.Helper()
	svc := NewService(store.NewMemoryStore(), nil)
	if len(offers) == 0 {
		offers = []models.FlightOffer{flight("a", "AA", "1"), flight("b", "UA", "2"), flight("c", "DL", "3")}
	}
	sess, err := svc.Create(context.Background(), "Summer", offers, nil)
	require.NoError(t, err)
	return svc, sess.SessionID
}

func wishlistIDs(s models.Session) []string {
	out := make([]string, len(s.Wishlist))
	for i, o := range s.Wishlist {
		out[i] = o.ID
	}
	return out
}

func TestCreateRejectsEmptyWishlist(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil)
	_, err := svc.Create(context.Background(), "Nothing", nil, nil)
	require.ErrorIs(t, err, models.ErrEmptyWishlist)
}

func TestCreateRejectsOfferWithoutSegments(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil)
	_, err := svc.Create(context.Background(), "Broken", []models.FlightOffer{flight("a", "AA", "1"), {ID: "b"}}, nil)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestCreateFillsIDsAndStops(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil)
	sess, err := svc.Create(context.Background(), "  Trip ", []models.FlightOffer{flight("", "AA", "1"), flight("x", "UA", "2"), flight("x", "DL", "3")}, []string{"Ann@Example.com", "ann@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, sess.SessionID)
	require.Equal(t, "Trip", sess.WishlistTitle)
	require.Equal(t, []string{"ann@example.com"}, sess.SharedWith)
	ids := wishlistIDs(sess)
	require.NotEmpty(t, ids[0])
	require.Equal(t, "x", ids[1])
	require.NotEqual(t, "x", ids[2], "duplicate ids get replaced")
	for _, o := range sess.Wishlist {
		require.Equal(t, 0, o.NumberOfStops)
	}
}

func TestGetUnknownSession(t *testing.T) {
	svc := NewService(store.NewMemoryStore(), nil)
	_, err := svc.Get(context.Background(), "nope")
	require.True(t, errors.Is(err, models.ErrSessionNotFound))
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()
	svc, id := newService(t)

	_, err := svc.Update(ctx, id, Patch{})
	require.ErrorIs(t, err, models.ErrInvalidInput)

	title := "Winter"
	got, err := svc.Update(ctx, id, Patch{WishlistTitle: &title})
	require.NoError(t, err)
	require.Equal(t, "Winter", got.WishlistTitle)
	require.Len(t, got.Wishlist, 3)

	empty := []models.FlightOffer{}
	got, err = svc.Update(ctx, id, Patch{Wishlist: &empty})
	require.NoError(t, err)
	require.Empty(t, got.Wishlist)
	require.Equal(t, "Winter", got.WishlistTitle)

	_, err = svc.Update(ctx, "missing", Patch{WishlistTitle: &title})
	require.ErrorIs(t, err, models.ErrSessionNotFound)
}

func TestShareAndUnshare(t *testing.T) {
	ctx := context.Background()
	svc, id := newService(t)

	_, err := svc.Share(ctx, id, "not an email")
	require.ErrorIs(t, err, models.ErrInvalidInput)

	got, err := svc.Share(ctx, id, " Bob@Example.com ")
	require.NoError(t, err)
	require.Equal(t, []string{"bob@example.com"}, got.SharedWith)

	got, err = svc.Share(ctx, id, "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, []string{"bob@example.com"}, got.SharedWith)

	_, err = svc.Share(ctx, id, "carol@example.com")
	require.NoError(t, err)
	got, err = svc.Unshare(ctx, id, "BOB@example.com")
	require.NoError(t, err)
	require.Equal(t, []string{"carol@example.com"}, got.SharedWith)
}

func TestReorder(t *testing.T) {
	ctx := context.Background()
	svc, id := newService(t)

	got, err := svc.Reorder(ctx, id, 0, 2)
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c", "a"}, wishlistIDs(got))

	got, err = svc.Reorder(ctx, id, 2, 0)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, wishlistIDs(got))

	got, err = svc.Reorder(ctx, id, 1, 1)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, wishlistIDs(got))

	_, err = svc.Reorder(ctx, id, 0, 3)
	require.ErrorIs(t, err, models.ErrInvalidInput)
	_, err = svc.Reorder(ctx, id, -1, 0)
	require.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestSetNote(t *testing.T) {
	ctx := context.Background()
	svc, id := newService(t)

	got, err := svc.SetNote(ctx, id, "b", "cheapest so far")
	require.NoError(t, err)
	require.Equal(t, "cheapest so far", got.Wishlist[1].Notes)
	require.Empty(t, got.Wishlist[0].Notes)

	_, err = svc.SetNote(ctx, id, "zzz", "x")
	require.ErrorIs(t, err, models.ErrInvalidInput)
}
