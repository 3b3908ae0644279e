package testutil

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"contractdesk/pkg/domain"
	"contractdesk/pkg/requestcontext"
)

// NewPrincipal returns a principal with a fresh user id.
func NewPrincipal(role domain.Role) domain.Principal {
	return domain.Principal{UserID: domain.UserID(uuid.New()), Role: role}
}

// WithPrincipal adds a principal to the request context.
// This simulates what the auth middleware would do for authenticated requests.
func WithPrincipal(req *http.Request, p domain.Principal) *http.Request {
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), p))
}

// AuthedContext returns a context carrying principal and a fixed request time.
func AuthedContext(p domain.Principal, now time.Time) context.Context {
	ctx := requestcontext.WithPrincipal(context.Background(), p)
	return requestcontext.WithTime(ctx, now)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
