package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"github.com/titanous/json5"

	"agentharvest/scraper"
)

// Pacing presets.
const (
	PresetConservative = "conservative"
	PresetBalanced     = "balanced"
	PresetAggressive   = "aggressive"
	PresetDefault      = "default"
)

// SecondsRange is a closed interval in seconds.
type SecondsRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CountRange is a closed interval of counts.
type CountRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// PacingFile is the on-disk pacing format. Zero fields keep the preset value,
// e.g.
//
//	{
//	  // slower than balanced between profiles
//	  request_delay: { min: 20, max: 40 },
//	  batch_break: { min: 1200, max: 2400 },
//	}
type PacingFile struct {
	PageDelay               SecondsRange `json:"page_delay"`
	RequestDelay            SecondsRange `json:"request_delay"`
	BatchSize               CountRange   `json:"batch_size"`
	BatchBreak              SecondsRange `json:"batch_break"`
	SleepChunk              float64      `json:"sleep_chunk"`
	MaxPages                int          `json:"max_pages"`
	ProfileFilterMultiplier int          `json:"profile_filter_multiplier"`
	MaxRetries              int          `json:"max_retries"`
	RetryDelay              float64      `json:"retry_delay"`
}

var presets = map[string]PacingFile{
	PresetConservative: {
		RequestDelay: SecondsRange{Min: 15, Max: 25},
		BatchSize:    CountRange{Min: 5, Max: 5},
		BatchBreak:   SecondsRange{Min: 3600, Max: 3600},
	},
	PresetBalanced: {
		RequestDelay: SecondsRange{Min: 10, Max: 20},
		BatchSize:    CountRange{Min: 10, Max: 10},
		BatchBreak:   SecondsRange{Min: 1800, Max: 1800},
	},
	PresetAggressive: {
		RequestDelay: SecondsRange{Min: 5, Max: 10},
		BatchSize:    CountRange{Min: 15, Max: 15},
		BatchBreak:   SecondsRange{Min: 900, Max: 900},
	},
	PresetDefault: {},
}

// Pacing resolves the configured preset, merges the optional JSON5 pacing
// file over it and returns the scheduler policy.
func (c *Config) Pacing() (scraper.Pacing, error) {
	return LoadPacing(c.PacingPreset, c.PacingFile)
}

// LoadPacing builds a pacing policy from a preset name and an optional file.
func LoadPacing(preset, file string) (scraper.Pacing, error) {
	if preset == "" {
		preset = PresetBalanced
	}
	base, ok := presets[preset]
	if !ok {
		return scraper.Pacing{}, fmt.Errorf("config: unknown pacing preset %q", preset)
	}

	out := fromPacing(scraper.DefaultPacing())
	if err := mergo.Merge(&out, base, mergo.WithOverride); err != nil {
		return scraper.Pacing{}, fmt.Errorf("config: apply preset %q: %w", preset, err)
	}

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return scraper.Pacing{}, fmt.Errorf("config: read pacing file: %w", err)
		}
		var override PacingFile
		if err := json5.Unmarshal(data, &override); err != nil {
			return scraper.Pacing{}, fmt.Errorf("config: parse pacing file %q: %w", file, err)
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride); err != nil {
			return scraper.Pacing{}, fmt.Errorf("config: merge pacing file %q: %w", file, err)
		}
	}

	p := out.toPacing()
	if err := validatePacing(p); err != nil {
		return scraper.Pacing{}, err
	}
	return p, nil
}

func validatePacing(p scraper.Pacing) error {
	ranges := []struct {
		name string
		r    scraper.Range
	}{
		{"page_delay", p.PageDelay},
		{"request_delay", p.RequestDelay},
		{"batch_break", p.BatchBreak},
	}
	for _, r := range ranges {
		if r.r.Min < 0 || r.r.Max < r.r.Min {
			return fmt.Errorf("config: pacing %s must satisfy 0 <= min <= max", r.name)
		}
	}
	if p.BatchSize.Min < 1 || p.BatchSize.Max < p.BatchSize.Min {
		return fmt.Errorf("config: pacing batch_size must satisfy 1 <= min <= max")
	}
	if p.MaxPages < 1 {
		return fmt.Errorf("config: pacing max_pages must be at least 1")
	}
	return nil
}

func seconds(f float64) time.Duration {
	return time.Duration(f * float64(time.Second))
}

func (r SecondsRange) toRange() scraper.Range {
	return scraper.Range{Min: seconds(r.Min), Max: seconds(r.Max)}
}

func fromRange(r scraper.Range) SecondsRange {
	return SecondsRange{Min: r.Min.Seconds(), Max: r.Max.Seconds()}
}

func (f PacingFile) toPacing() scraper.Pacing {
	return scraper.Pacing{
		PageDelay:               f.PageDelay.toRange(),
		RequestDelay:            f.RequestDelay.toRange(),
		BatchSize:               scraper.IntRange{Min: f.BatchSize.Min, Max: f.BatchSize.Max},
		BatchBreak:              f.BatchBreak.toRange(),
		SleepChunk:              seconds(f.SleepChunk),
		MaxPages:                f.MaxPages,
		ProfileFilterMultiplier: f.ProfileFilterMultiplier,
		MaxRetries:              f.MaxRetries,
		RetryDelay:              seconds(f.RetryDelay),
	}
}

func fromPacing(p scraper.Pacing) PacingFile {
	return PacingFile{
		PageDelay:               fromRange(p.PageDelay),
		RequestDelay:            fromRange(p.RequestDelay),
		BatchSize:               CountRange{Min: p.BatchSize.Min, Max: p.BatchSize.Max},
		BatchBreak:              fromRange(p.BatchBreak),
		SleepChunk:              p.SleepChunk.Seconds(),
		MaxPages:                p.MaxPages,
		ProfileFilterMultiplier: p.ProfileFilterMultiplier,
		MaxRetries:              p.MaxRetries,
		RetryDelay:              p.RetryDelay.Seconds(),
	}
}
