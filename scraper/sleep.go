package scraper

import (
	"context"
	"time"
)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the default SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// sleepChunked sleeps for total in pieces no longer than chunk, calling tick
// after every piece except the last. It returns early with ctx's error.
func sleepChunked(ctx context.Context, sleep SleepFunc, total, chunk time.Duration, tick func(elapsed, remaining time.Duration)) error {
	if chunk <= 0 {
		chunk = total
	}
	remaining := total
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		step := min(chunk, remaining)
		if err := sleep(ctx, step); err != nil {
			return err
		}
		remaining -= step
		if remaining > 0 && tick != nil {
			tick(total-remaining, remaining)
		}
	}
	return ctx.Err()
}
