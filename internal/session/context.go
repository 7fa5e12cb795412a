package session

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying m.
func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// FromContext returns the [Manager] stored by [NewContext].
//
// It panics when none is present: a component that needs the session was mounted outside it.
func FromContext(ctx context.Context) *Manager {
	m, ok := ctx.Value(contextKey{}).(*Manager)
	if !ok || m == nil {
		panic("session: FromContext called without a session manager in context")
	}
	return m
}
