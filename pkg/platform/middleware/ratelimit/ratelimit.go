// Package ratelimit throttles API calls per principal, falling back to the
// client IP for unauthenticated requests.
package ratelimit

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	dErrors "contractdesk/pkg/domain-errors"
	"contractdesk/pkg/platform/httputil"
	"contractdesk/pkg/platform/middleware/metadata"
	"contractdesk/pkg/requestcontext"
)

const storePrefix = "contractdesk:ratelimit"

// Recorder is notified of every rejected request.
type Recorder interface {
	IncrementRateLimited()
}

// Config configures the limiter.
type Config struct {
	Requests int64
	Period   time.Duration
	Store    limiter.Store
}

// NewMemoryStore returns an in-process store.
func NewMemoryStore() limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          storePrefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
}

// NewRedisStore returns a store shared across replicas.
func NewRedisStore(client *redis.Client) (limiter.Store, error) {
	return sredis.NewStoreWithOptions(client, limiter.StoreOptions{
		Prefix: storePrefix,
	})
}

// KeyFor identifies the caller: the authenticated user id, else the client IP.
func KeyFor(r *http.Request) string {
	ctx := r.Context()
	if p := requestcontext.Principal(ctx); !p.IsZero() {
		return "user:" + p.UserID.String()
	}
	if ip := metadata.GetClientIP(ctx); ip != "" {
		return "ip:" + ip
	}
	return "ip:" + metadata.ClientIPFromRequest(r)
}

// Middleware rejects requests over the configured rate with 429.
func Middleware(cfg Config, recorder Recorder, logger *slog.Logger) func(http.Handler) http.Handler {
	lim := limiter.New(cfg.Store, limiter.Rate{Period: cfg.Period, Limit: cfg.Requests})
	mw := stdlib.NewMiddleware(lim,
		stdlib.WithKeyGetter(KeyFor),
		stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger.WarnContext(ctx, "rate limit exceeded",
				"request_id", requestcontext.RequestID(ctx),
				"key", KeyFor(r),
			)
			if recorder != nil {
				recorder.IncrementRateLimited()
			}
			httputil.WriteError(w, dErrors.New(dErrors.CodeRateLimited, "too many requests"))
		}),
		stdlib.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			ctx := r.Context()
			logger.ErrorContext(ctx, "rate limiter store failed",
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
			httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "rate limiter unavailable"))
		}),
	)
	return mw.Handler
}
