package session

import (
	"context"

	"ratings/internal/microservices/http-api/models"
)

// Flags stores "already rated" markers per session id.
//
// ClaimRated sets the marker and reports whether this call set it; a false
// result means the session had already claimed the item. ReleaseRated undoes
// a claim whose vote was never recorded.
type Flags interface {
	HasRated(ctx context.Context, sessionID string, key models.ItemKey) (bool, error)
	ClaimRated(ctx context.Context, sessionID string, key models.ItemKey) (bool, error)
	ReleaseRated(ctx context.Context, sessionID string, key models.ItemKey) error
}

// Bound is a Flags store pinned to one session id.
type Bound struct {
	flags     Flags
	sessionID string
}

// Bind pins flags to sessionID for the duration of one request.
func Bind(flags Flags, sessionID string) *Bound {
	return &Bound{flags: flags, sessionID: sessionID}
}

func (b *Bound) HasRated(ctx context.Context, key models.ItemKey) (bool, error) {
	return b.flags.HasRated(ctx, b.sessionID, key)
}

func (b *Bound) ClaimRated(ctx context.Context, key models.ItemKey) (bool, error) {
	return b.flags.ClaimRated(ctx, b.sessionID, key)
}

func (b *Bound) ReleaseRated(ctx context.Context, key models.ItemKey) error {
	return b.flags.ReleaseRated(ctx, b.sessionID, key)
}
