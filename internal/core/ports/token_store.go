package ports

import "context"

// TokenStore persists the single opaque bearer token for this gateway
// instance. Exactly one token is held at a time; presence means "attempting
// authenticated", not "valid"; validity is only established by the backend.
//
// Get returns domain.ErrNoToken when nothing is stored. No expiry is enforced
// locally; an expired token is discovered via a rejected backend call.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}
