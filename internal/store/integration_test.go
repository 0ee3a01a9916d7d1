package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/mohammad-safakhou/flytogether/internal/store"
	"github.com/mohammad-safakhou/flytogether/models"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func integrationSession() models.Session {
	return models.Session{
		WishlistTitle: "Road trip",
		Wishlist: []models.FlightOffer{{
			ID: "o1",
			Itineraries: []models.Itinerary{{Segments: []models.Segment{{
				Departure:   models.Endpoint{IATACode: "SFO", At: "2025-06-02T09:00:00"},
				Arrival:     models.Endpoint{IATACode: "ORD", At: "2025-06-02T15:10:00"},
				CarrierCode: "UA",
				Number:      "200",
			}}}},
			Price: models.Price{Total: "199.99", Currency: "USD"},
		}},
	}
}

func exerciseStore(t *testing.T, ctx context.Context, st interface {
	store.SessionStore
	store.Lister
}) {
	t.Helper()

	id, err := st.Create(ctx, integrationSession())
	require.NoError(t, err)

	got, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.SessionID)
	require.Equal(t, "Road trip", got.WishlistTitle)
	require.Len(t, got.Wishlist, 1)
	require.Equal(t, "199.99", got.Wishlist[0].Price.Total)

	got.SharedWith = []string{"friend@example.com"}
	got.Wishlist[0].Notes = "aisle"
	require.NoError(t, st.Put(ctx, id, got))

	again, err := st.Get(ctx, id)
	require.NoError(t, err)
	require.Equal(t, []string{"friend@example.com"}, again.SharedWith)
	require.Equal(t, "aisle", again.Wishlist[0].Notes)
	require.False(t, again.UpdatedAt.Before(again.CreatedAt))

	ids, err := st.ListIDs(ctx)
	require.NoError(t, err)
	require.Contains(t, ids, id)

	_, err = st.Get(ctx, "does-not-exist")
	require.True(t, errors.Is(err, models.ErrSessionNotFound))
	err = st.Put(ctx, "does-not-exist", got)
	require.True(t, errors.Is(err, models.ErrSessionNotFound))
}

func TestRedisStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	redisC, err := tcRedis.RunContainer(ctx, testcontainers.WithWaitStrategy(wait.ForListeningPort("6379/tcp")))
	if err != nil {
		t.Fatalf("redis container: %v", err)
	}
	defer func() { _ = redisC.Terminate(ctx) }()

	host, err := redisC.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := redisC.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	st := store.NewRedisStore(client, time.Hour)
	defer func() { _ = st.Close() }()

	exerciseStore(t, ctx, st)
}

func TestPostgresStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		tcPostgres.WithDatabase("flytogether"),
		tcPostgres.WithUsername("flytogether"),
		tcPostgres.WithPassword("flytogether"),
		testcontainers.WithWaitStrategy(wait.ForListeningPort("5432/tcp")),
	)
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	defer func() { _ = pgC.Terminate(ctx) }()

	host, err := pgC.Host(ctx)
	if err != nil {
		t.Fatalf("postgres host: %v", err)
	}
	port, err := pgC.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("postgres port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://flytogether:flytogether@%s:%s/flytogether?sslmode=disable", host, port.Port())

	// the port opens before postgres accepts connections
	var migrateErr error
	for i := 0; i < 20; i++ {
		if migrateErr = store.Migrate("file://../../migrations", dsn, "up", 0); migrateErr == nil {
			break
		}
		time.Sleep(500 * time.Millisecond)
	}
	require.NoError(t, migrateErr)

	st, err := store.NewPostgresWithDSN(ctx, dsn)
	require.NoError(t, err)
	defer func() { _ = st.Close() }()

	exerciseStore(t, ctx, st)
}
