package scraper

import (
	"math/rand"
	"time"
)

// Range is a closed interval of durations; Draw picks uniformly from it.
type Range struct {
	Min time.Duration
	Max time.Duration
}

// Draw returns a uniformly random duration in [Min, Max].
func (r Range) Draw(rng *rand.Rand) time.Duration {
	if r.Max <= r.Min {
		return r.Min
	}
	return r.Min + time.Duration(rng.Int63n(int64(r.Max-r.Min)+1))
}

// Mean is the midpoint of the range.
func (r Range) Mean() time.Duration {
	return (r.Min + r.Max) / 2
}

// IntRange is a closed interval of ints.
type IntRange struct {
	Min int
	Max int
}

// Draw returns a uniformly random int in [Min, Max], with both bounds capped
// at limit and never below 1.
func (r IntRange) Draw(rng *rand.Rand, limit int) int {
	lo, hi := min(r.Min, limit), min(r.Max, limit)
	lo = max(lo, 1)
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// Pacing is the request pacing policy of one run.
type Pacing struct {
	// PageDelay separates consecutive listing pages.
	PageDelay Range
	// RequestDelay separates profile fetches inside a batch.
	RequestDelay Range
	// BatchSize is how many profiles are fetched before a break.
	BatchSize IntRange
	// BatchBreak is the pause between batches.
	BatchBreak Range
	// SleepChunk bounds a single uninterrupted sleep so cancellation and
	// progress stay responsive.
	SleepChunk time.Duration
	// MaxPages is a safety ceiling on listing pages per run.
	MaxPages int
	// ProfileFilterMultiplier widens the candidate window when a filter can
	// only be applied after profiles are fetched.
	ProfileFilterMultiplier int
	// MaxRetries and RetryDelay apply to listing pages that fail with a
	// network error.
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultPacing mirrors the directory's tolerated browsing pattern: a few
// seconds between pages, 15-60s between profiles, batches of 5-15 and
// 10-20 minute breaks.
func DefaultPacing() Pacing {
	return Pacing{
		PageDelay:               Range{Min: 3 * time.Second, Max: 8 * time.Second},
		RequestDelay:            Range{Min: 15 * time.Second, Max: 60 * time.Second},
		BatchSize:               IntRange{Min: 5, Max: 15},
		BatchBreak:              Range{Min: 10 * time.Minute, Max: 20 * time.Minute},
		SleepChunk:              10 * time.Second,
		MaxPages:                100,
		ProfileFilterMultiplier: 3,
		MaxRetries:              3,
		RetryDelay:              5 * time.Second,
	}
}

// EstimateProfilePhase approximates how long fetching n profiles takes.
func (p Pacing) EstimateProfilePhase(n int) time.Duration {
	if n <= 0 {
		return 0
	}
	avgBatch := (p.BatchSize.Min + p.BatchSize.Max) / 2
	if avgBatch < 1 {
		avgBatch = 1
	}
	batches := (n + avgBatch - 1) / avgBatch
	// A break replaces the request delay at each batch boundary.
	return time.Duration(n-batches)*p.RequestDelay.Mean() + time.Duration(batches-1)*p.BatchBreak.Mean()
}
