//go:build integration

package ratelimit_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"contractdesk/pkg/platform/middleware/ratelimit"
	"contractdesk/pkg/testutil/containers"
)

type RedisLimiterSuite struct {
	suite.Suite
	redis *containers.RedisContainer
}

func TestRedisLimiterSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisLimiterSuite))
}

func (s *RedisLimiterSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
}

func (s *RedisLimiterSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisLimiterSuite) handler() http.Handler {
	store, err := ratelimit.NewRedisStore(s.redis.Client)
	s.Require().NoError(err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mw := ratelimit.Middleware(ratelimit.Config{Requests: 3, Period: time.Minute, Store: store}, nil, logger)
	return mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func (s *RedisLimiterSuite) do(h http.Handler, remote string) int {
	r := httptest.NewRequest(http.MethodGet, "/contracts", nil)
	r.RemoteAddr = remote
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr.Code
}

// Two middleware instances stand in for two replicas sharing one Redis.
func (s *RedisLimiterSuite) TestCountersAreSharedAcrossInstances() {
	first, second := s.handler(), s.handler()

	s.Equal(http.StatusNoContent, s.do(first, "203.0.113.7:1000"))
	s.Equal(http.StatusNoContent, s.do(second, "203.0.113.7:1001"))
	s.Equal(http.StatusNoContent, s.do(first, "203.0.113.7:1002"))
	s.Equal(http.StatusTooManyRequests, s.do(second, "203.0.113.7:1003"))

	s.Equal(http.StatusNoContent, s.do(first, "203.0.113.8:1000"), "other clients keep their own budget")
}

func (s *RedisLimiterSuite) TestKeysArePrefixed() {
	h := s.handler()
	s.Equal(http.StatusNoContent, s.do(h, "203.0.113.9:1000"))

	keys, err := s.redis.Client.Keys(context.Background(), "contractdesk:ratelimit*").Result()
	s.Require().NoError(err)
	s.NotEmpty(keys)
}
