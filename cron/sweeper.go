package cron

import (
	"time"

	"clinicbot/utils"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Sweeper evicts idle in-memory sessions.
type Sweeper interface {
	Sweep(idle time.Duration, now time.Time) int
}

// StartSessionSweeper evicts sessions idle longer than idle on the given
// schedule, e.g. "@every 1m". Stop the returned scheduler on shutdown.
func StartSessionSweeper(store Sweeper, idle time.Duration, spec string) (*cron.Cron, error) {
	c := cron.New()
	_, err := c.AddFunc(spec, sweepJob(store, idle, time.Now))
	if err != nil {
		return nil, err
	}
	c.Start()
	utils.GetLogger().Info("Session sweeper started", zap.String("schedule", spec), zap.Duration("idle_timeout", idle))
	return c, nil
}

func sweepJob(store Sweeper, idle time.Duration, now func() time.Time) func() {
	return func() {
		if n := store.Sweep(idle, now()); n > 0 {
			utils.GetLogger().Debug("Evicted idle sessions", zap.Int("count", n))
		}
	}
}
