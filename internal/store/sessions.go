package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/flytogether/models"
)

// SessionStore persists wishlist sessions by opaque id. Writes overwrite the
// whole document; concurrent writers race and the last one wins.
type SessionStore interface {
	Get(ctx context.Context, id string) (models.Session, error)
	Put(ctx context.Context, id string, s models.Session) error
	Create(ctx context.Context, s models.Session) (string, error)
}

// Lister enumerates stored session ids for background jobs.
type Lister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

// NewSessionID returns a fresh opaque session id.
func NewSessionID() string {
	return uuid.NewString()
}
