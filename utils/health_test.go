package utils

import (
	"context"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCheckHealth_LogsUnreachableRedis(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	prev := Logger
	Logger = zap.New(core)
	t.Cleanup(func() { Logger = prev })

	// Nothing listens on port 1.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	status := CheckHealth(context.Background(), []*redis.Client{client}, nil)

	assert.Equal(t, []bool{false}, status.Redis)
	assert.False(t, status.Mongo)
	assert.Equal(t, status, GetHealthStatus())

	entries := logs.FilterMessage("Redis health check failed").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, int64(0), fields["client"])
	assert.Equal(t, "127.0.0.1:1", fields["addr"])
	assert.NotEmpty(t, fields["error"])
}
