// Package session tracks who is browsing the storefront: a Session is resolved
// once per request from the bearer token and the Redis session store.
package session

import (
	"context"

	"github.com/utafrali/plantstore/internal/domain"
)

// Session exposes the authenticated user, if any. CurrentUser is synchronous
// and returns nil for anonymous visitors.
type Session interface {
	CurrentUser() *domain.User
}

// UserSession is a stored login session.
type UserSession struct {
	id   string
	user *domain.User
}

// New returns a session with the given id for user.
func New(id string, user *domain.User) *UserSession {
	return &UserSession{id: id, user: user}
}

// ID returns the session identifier.
func (s *UserSession) ID() string {
	return s.id
}

// CurrentUser returns the logged-in user.
func (s *UserSession) CurrentUser() *domain.User {
	return s.user
}

type anonymous struct{}

func (anonymous) CurrentUser() *domain.User { return nil }

// Anonymous returns the session of a visitor who is not logged in.
func Anonymous() Session {
	return anonymous{}
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, or the anonymous session.
func FromContext(ctx context.Context) Session {
	if s, ok := ctx.Value(contextKey{}).(Session); ok && s != nil {
		return s
	}
	return Anonymous()
}

// IDFromContext returns the id of the stored session in ctx, or "".
func IDFromContext(ctx context.Context) string {
	if s, ok := FromContext(ctx).(*UserSession); ok {
		return s.id
	}
	return ""
}
