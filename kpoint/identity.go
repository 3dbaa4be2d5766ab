package kpoint

import "context"

// Identity is the end user asserted in challenge tokens. Empty fields fall
// back to the codec defaults.
type Identity struct {
	Name          string
	AccountNumber string
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFrom(ctx context.Context) Identity {
	id, _ := ctx.Value(identityKey{}).(Identity)
	return id
}
