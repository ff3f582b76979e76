package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const dedupePrefix = "wa:msg:"

// Deduper remembers inbound message ids so redelivered webhooks are handled once.
type Deduper interface {
	// FirstSeen records id and reports whether it had not been seen before.
	FirstSeen(ctx context.Context, id string) (bool, error)
}

// RedisDeduper shares seen ids across replicas.
type RedisDeduper struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisDeduper(client *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, ttl: ttl}
}

func (d *RedisDeduper) FirstSeen(ctx context.Context, id string) (bool, error) {
	ok, err := d.client.SetNX(ctx, dedupePrefix+id, 1, d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedupe: setnx: %w", err)
	}
	return ok, nil
}

// MemoryDeduper keeps seen ids in process memory until they expire.
type MemoryDeduper struct {
	mu        sync.Mutex
	seen      map[string]time.Time
	ttl       time.Duration
	lastPurge time.Time
	now       func() time.Time
}

func NewMemoryDeduper(ttl time.Duration) *MemoryDeduper {
	return &MemoryDeduper{seen: make(map[string]time.Time), ttl: ttl, now: time.Now}
}

func (d *MemoryDeduper) FirstSeen(_ context.Context, id string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	if now.Sub(d.lastPurge) > d.ttl {
		for k, exp := range d.seen {
			if now.After(exp) {
				delete(d.seen, k)
			}
		}
		d.lastPurge = now
	}

	if exp, ok := d.seen[id]; ok && now.Before(exp) {
		return false, nil
	}
	d.seen[id] = now.Add(d.ttl)
	return true, nil
}
