package app

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// StartPurger runs PurgeCaches on cfg.PurgeSchedule (standard cron syntax or
// descriptors like "@hourly") until ctx is done. The returned function stops
// the scheduler and waits for a running purge.
func (a *App) StartPurger(ctx context.Context) (func(), error) {
	c := cron.New()
	_, err := c.AddFunc(a.cfg.PurgeSchedule, func() {
		a.PurgeCaches(ctx, time.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("purge schedule %q: %w", a.cfg.PurgeSchedule, err)
	}
	c.Start()
	log.Info().Str("schedule", a.cfg.PurgeSchedule).Msg("cache purge scheduled")
	stop := func() { <-c.Stop().Done() }
	go func() {
		<-ctx.Done()
		c.Stop()
	}()
	return stop, nil
}
