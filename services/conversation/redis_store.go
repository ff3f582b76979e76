package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"clinicbot/models"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionPrefix = "conv:session:"
	lockPrefix    = "conv:lock:"

	defaultLockTTL   = time.Minute
	lockPollInterval = 50 * time.Millisecond
)

// releaseScript deletes the lock only if it is still owned by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisStore keeps sessions in Redis so several replicas can share them. The
// per-user lock becomes a distributed lock with an owner token; sessions
// expire after ttl of inactivity.
type RedisStore struct {
	client  *redis.Client
	ttl     time.Duration
	lockTTL time.Duration
	logger  *zap.Logger
}

// NewRedisStore builds a store whose locks expire after lockTTL. lockTTL
// must outlast the longest turn, otherwise a second replica can take the
// lock mid-turn; a non-positive value uses one minute.
func NewRedisStore(client *redis.Client, ttl, lockTTL time.Duration, logger *zap.Logger) *RedisStore {
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, ttl: ttl, lockTTL: lockTTL, logger: logger}
}

func (s *RedisStore) Lock(ctx context.Context, userID string) (func(), error) {
	key := lockPrefix + userID
	token := uuid.New().String()
	ticker := time.NewTicker(lockPollInterval)
	defer ticker.Stop()

	for {
		ok, err := s.client.SetNX(ctx, key, token, s.lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("redis store: acquire lock: %w", err)
		}
		if ok {
			released := false
			return func() {
				if released {
					return
				}
				released = true
				s.release(key, token)
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *RedisStore) release(key, token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	deleted, err := releaseScript.Run(ctx, s.client, []string{key}, token).Int()
	if err != nil {
		s.logger.Warn("failed to release session lock", zap.String("key", key), zap.Error(err))
		return
	}
	if deleted == 0 {
		s.logger.Warn("session lock expired before release", zap.String("key", key), zap.Duration("lock_ttl", s.lockTTL))
	}
}

func (s *RedisStore) Load(ctx context.Context, userID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionPrefix+userID).Result()
	if err == redis.Nil {
		return models.NewSession(userID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis store: load session: %w", err)
	}
	var sess models.Session
	if err := json.Unmarshal([]byte(data), &sess); err != nil {
		return nil, fmt.Errorf("redis store: decode session: %w", err)
	}
	return &sess, nil
}

func (s *RedisStore) Save(ctx context.Context, sess *models.Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("redis store: encode session: %w", err)
	}
	return s.client.Set(ctx, sessionPrefix+sess.UserID, b, s.ttl).Err()
}
