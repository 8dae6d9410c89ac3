// Package identity describes who is making a request.
package identity

import "context"

// Caller is the resolved identity of the current request.
type Caller struct {
	UserID        string
	Username      string
	Role          string
	Address       string
	Authenticated bool
}

// Anonymous returns an unauthenticated caller seen from the given network address.
func Anonymous(address string) Caller {
	return Caller{Address: address}
}

// VoterKey is the value recorded in the vote log: the user id for logged-in
// callers, the network address otherwise.
func (c Caller) VoterKey() string {
	if c.Authenticated && c.UserID != "" {
		return c.UserID
	}
	return c.Address
}

// LookupKeys lists every voter key that counts as "this caller already voted".
// A user who voted anonymously from the same address is caught as well.
func (c Caller) LookupKeys() []string {
	keys := make([]string, 0, 2)
	if c.Authenticated && c.UserID != "" {
		keys = append(keys, c.UserID)
	}
	if c.Address != "" && (len(keys) == 0 || keys[0] != c.Address) {
		keys = append(keys, c.Address)
	}
	return keys
}

type contextKey struct{}

// WithCaller stores the caller in ctx.
func WithCaller(ctx context.Context, c Caller) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the caller stored in ctx, or an anonymous caller.
func FromContext(ctx context.Context) Caller {
	c, _ := ctx.Value(contextKey{}).(Caller)
	return c
}
