// Package schedule drives repeated pipeline runs. Runs never overlap:
// the interval loop is single-threaded and the cron trigger skips a tick
// while the previous run is still in flight.
package schedule

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
)

// Job is one scheduled unit of work. Errors are logged, never fatal: the
// schedule continues regardless of per-run failures.
type Job func(ctx context.Context) error

// RunLoop executes the job immediately and then every interval until the
// context is cancelled.
func RunLoop(ctx context.Context, interval time.Duration, job Job) {
	for {
		if err := job(ctx); err != nil {
			log.Printf("Scheduled run failed: %v", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// RunDaily executes the job once a day at the given local wall-clock time
// ("HH:MM") until the context is cancelled.
func RunDaily(ctx context.Context, dailyAt string, job Job) error {
	hour, minute, err := ParseDailyAt(dailyAt)
	if err != nil {
		return err
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	_, err = c.AddFunc(spec, func() {
		if err := job(ctx); err != nil {
			log.Printf("Scheduled run failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("registering daily schedule: %w", err)
	}

	log.Printf("Daily schedule enabled: %02d:%02d", hour, minute)
	c.Start()
	<-ctx.Done()

	stop := c.Stop()
	<-stop.Done()
	return nil
}

// ParseDailyAt parses "HH:MM" into hour and minute.
func ParseDailyAt(value string) (int, int, error) {
	var hour, minute int
	if _, err := fmt.Sscanf(value, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid --daily-at value %q (expected HH:MM)", value)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid --daily-at value %q (expected HH:MM)", value)
	}
	return hour, minute, nil
}
