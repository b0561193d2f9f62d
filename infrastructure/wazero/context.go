package wazero

import (
	"context"

	"github.com/tetratelabs/wazero/api"
)

// contextKey is a private type for context keys.
type contextKey struct {
	name string
}

var sessionKey = &contextKey{name: "session"}

// WithSession attaches the guest session to the context. Host calls made
// with this context run against s.
func WithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext retrieves the session from the context.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	s, ok := ctx.Value(sessionKey).(*Session)
	return s, ok && s != nil
}

// resolveSession returns the context session, falling back to the store's
// session for the calling module.
func resolveSession(ctx context.Context, mod api.Module, store *SessionStore) *Session {
	if s, ok := SessionFromContext(ctx); ok {
		return s
	}
	return store.Get(mod.Name())
}
