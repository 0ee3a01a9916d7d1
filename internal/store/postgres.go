package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/mohammad-safakhou/flytogether/models"
)

// PostgresStore keeps sessions in the flight_sessions table; the wishlist is
// a JSONB document so upstream offer fields survive untouched.
type PostgresStore struct {
	DB  *sql.DB
	now func() time.Time
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{DB: db, now: time.Now}
}

// NewPostgresWithDSN opens and pings a Postgres connection.
func NewPostgresWithDSN(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewPostgresStore(db), nil
}

func (p *PostgresStore) Get(ctx context.Context, id string) (models.Session, error) {
	var (
		s        models.Session
		wishlist []byte
		shared   pq.StringArray
	)
	err := p.DB.QueryRowContext(ctx, `
SELECT wishlist_title, wishlist, shared_with, created_at, updated_at
FROM flight_sessions
WHERE id=$1
`, id).Scan(&s.WishlistTitle, &wishlist, &shared, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Session{}, models.ErrSessionNotFound
		}
		return models.Session{}, err
	}
	if err := json.Unmarshal(wishlist, &s.Wishlist); err != nil {
		return models.Session{}, err
	}
	s.SessionID = id
	s.SharedWith = []string(shared)
	return s, nil
}

func (p *PostgresStore) Put(ctx context.Context, id string, s models.Session) error {
	wishlist, err := encodeWishlist(s.Wishlist)
	if err != nil {
		return err
	}
	res, err := p.DB.ExecContext(ctx, `
UPDATE flight_sessions
SET wishlist_title=$2, wishlist=$3, shared_with=$4, updated_at=$5
WHERE id=$1
`, id, s.WishlistTitle, wishlist, pq.Array(nonNil(s.SharedWith)), p.now())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrSessionNotFound
	}
	return nil
}

func (p *PostgresStore) Create(ctx context.Context, s models.Session) (string, error) {
	wishlist, err := encodeWishlist(s.Wishlist)
	if err != nil {
		return "", err
	}
	id := NewSessionID()
	now := p.now()
	_, err = p.DB.ExecContext(ctx, `
INSERT INTO flight_sessions (id, wishlist_title, wishlist, shared_with, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6)
`, id, s.WishlistTitle, wishlist, pq.Array(nonNil(s.SharedWith)), now, now)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *PostgresStore) ListIDs(ctx context.Context) ([]string, error) {
	rows, err := p.DB.QueryContext(ctx, `SELECT id FROM flight_sessions ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *PostgresStore) Close() error {
	return p.DB.Close()
}

func encodeWishlist(w []models.FlightOffer) ([]byte, error) {
	if w == nil {
		w = []models.FlightOffer{}
	}
	return json.Marshal(w)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
