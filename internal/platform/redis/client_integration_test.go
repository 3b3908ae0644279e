//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contractdesk/internal/platform/config"
	"contractdesk/internal/platform/redis"
	"contractdesk/pkg/testutil/containers"
)

func TestNewConnectsAndPings(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)
	ctx := context.Background()

	client, err := redis.New(ctx, config.RateLimit{RedisURL: rc.URL})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.Health(ctx))
	require.NoError(t, client.Set(ctx, "contractdesk:ping", "1", 0).Err())
	assert.Equal(t, "1", client.Get(ctx, "contractdesk:ping").Val())
}

func TestNewRejectsBadURL(t *testing.T) {
	_, err := redis.New(context.Background(), config.RateLimit{RedisURL: "not-a-url"})
	assert.Error(t, err)

	_, err = redis.New(context.Background(), config.RateLimit{})
	assert.Error(t, err)
}
