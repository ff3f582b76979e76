package conversation

import (
	"context"
	"os"
	"testing"
	"time"

	"clinicbot/models"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMemoryStore_LoadReturnsCopy(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	sess, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.FlowNone, sess.ActiveFlow)
	assert.Equal(t, models.LanguageArabic, sess.LastLanguage)

	sess.StartBooking()
	require.NoError(t, store.Save(ctx, sess))
	sess.Booking.Name = "mutated after save"

	loaded, err := store.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.FlowBooking, loaded.ActiveFlow)
	assert.Empty(t, loaded.Booking.Name)
}

func TestMemoryStore_LockIsExclusivePerUser(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	release, err := store.Lock(ctx, "u1")
	require.NoError(t, err)

	// Another user is not blocked.
	other, err := store.Lock(ctx, "u2")
	require.NoError(t, err)
	other()

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = store.Lock(waitCtx, "u1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	acquired := make(chan struct{})
	go func() {
		second, err := store.Lock(ctx, "u1")
		if err == nil {
			second()
		}
		close(acquired)
	}()

	release()
	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock was not handed over after release")
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	now := time.Now()

	stale := models.NewSession("stale")
	stale.UpdatedAt = now.Add(-time.Hour)
	fresh := models.NewSession("fresh")
	fresh.UpdatedAt = now.Add(-time.Minute)
	busy := models.NewSession("busy")
	busy.UpdatedAt = now.Add(-time.Hour)
	for _, s := range []*models.Session{stale, fresh, busy} {
		require.NoError(t, store.Save(ctx, s))
	}

	release, err := store.Lock(ctx, "busy")
	require.NoError(t, err)
	defer release()

	assert.Equal(t, 1, store.Sweep(30*time.Minute, now))
	assert.Equal(t, 2, store.Len())

	loaded, err := store.Load(ctx, "stale")
	require.NoError(t, err)
	assert.True(t, loaded.UpdatedAt.IsZero())
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	ctx := context.Background()
	store := NewRedisStore(client, time.Minute, 0, nil)
	assert.Equal(t, defaultLockTTL, store.lockTTL)
	userID := "test-" + time.Now().Format("150405.000000")
	defer client.Del(ctx, sessionPrefix+userID, lockPrefix+userID)

	release, err := store.Lock(ctx, userID)
	require.NoError(t, err)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = store.Lock(waitCtx, userID)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	sess, err := store.Load(ctx, userID)
	require.NoError(t, err)
	sess.StartBooking()
	sess.Booking.AppointmentSlot = "sat"
	require.NoError(t, store.Save(ctx, sess))
	release()

	loaded, err := store.Load(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "sat", loaded.Booking.AppointmentSlot)

	ttl, err := client.TTL(ctx, sessionPrefix+userID).Result()
	require.NoError(t, err)
	assert.True(t, ttl > 0 && ttl <= time.Minute)
}

func TestRedisStore_LockOutlivesTurn(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	ctx := context.Background()
	store := NewRedisStore(client, time.Minute, 150*time.Second, zap.New(core))
	userID := "test-lock-" + time.Now().Format("150405.000000")
	defer client.Del(ctx, lockPrefix+userID)

	release, err := store.Lock(ctx, userID)
	require.NoError(t, err)
	ttl, err := client.PTTL(ctx, lockPrefix+userID).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 2*time.Minute)

	// Another owner took over after expiry: release must keep its lock and say so.
	require.NoError(t, client.Set(ctx, lockPrefix+userID, "someone-else", time.Minute).Err())
	release()

	owner, err := client.Get(ctx, lockPrefix+userID).Result()
	require.NoError(t, err)
	assert.Equal(t, "someone-else", owner)
	assert.Equal(t, 1, logs.FilterMessage("session lock expired before release").Len())
}

func TestRedisStore_ReleaseErrorIsLogged(t *testing.T) {
	// Nothing listens on port 1.
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1})
	defer client.Close()
	core, logs := observer.New(zapcore.WarnLevel)
	store := NewRedisStore(client, time.Minute, 0, zap.New(core))

	store.release(lockPrefix+"u1", "token")

	entries := logs.FilterMessage("failed to release session lock").All()
	require.Len(t, entries, 1)
	assert.Equal(t, lockPrefix+"u1", entries[0].ContextMap()["key"])
}
