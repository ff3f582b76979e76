package utils

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

const healthCheckInterval = 60 * time.Second

// HealthStatus represents current status of external services.
type HealthStatus struct {
	Mongo     bool      `json:"mongo"`
	Redis     []bool    `json:"redis"`
	CheckedAt time.Time `json:"checkedAt"`
}

var (
	currentHealth HealthStatus
	mu            sync.RWMutex
)

// GetHealthStatus returns latest stored health snapshot.
func GetHealthStatus() HealthStatus {
	mu.RLock()
	defer mu.RUnlock()
	return currentHealth
}

// CheckHealth pings every backend once and stores the snapshot.
func CheckHealth(ctx context.Context, redisClients []*redis.Client, mongoClient *mongo.Client) HealthStatus {
	redisHealth := make([]bool, 0, len(redisClients))
	for i, client := range redisClients {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := client.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			GetLogger().Warn("Redis health check failed",
				zap.Int("client", i),
				zap.String("addr", client.Options().Addr),
				zap.Error(err))
		}
		redisHealth = append(redisHealth, err == nil)
	}

	mongoHealthy := false
	if mongoClient != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err := mongoClient.Ping(pingCtx, nil)
		cancel()
		if err != nil {
			GetLogger().Warn("MongoDB health check failed", zap.Error(err))
		}
		mongoHealthy = err == nil
	}

	status := HealthStatus{Mongo: mongoHealthy, Redis: redisHealth, CheckedAt: time.Now()}
	mu.Lock()
	currentHealth = status
	mu.Unlock()
	return status
}

// StartHealthMonitor performs periodic health checks until ctx is cancelled.
func StartHealthMonitor(ctx context.Context, redisClients []*redis.Client, mongoClient *mongo.Client) {
	go func() {
		ticker := time.NewTicker(healthCheckInterval)
		defer ticker.Stop()

		CheckHealth(ctx, redisClients, mongoClient)
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CheckHealth(ctx, redisClients, mongoClient)
			}
		}
	}()
}
