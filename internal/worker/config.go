// Package worker runs background jobs for the weather API.
package worker

import (
	"time"
)

// SweepConfig holds configuration for the idle-session sweep job.
type SweepConfig struct {
	// IdleTTL is how long a session may go unseen before it is evicted.
	// Default: 30 minutes
	IdleTTL time.Duration

	// Interval is how often the sweep runs.
	// Default: 1 minute
	Interval time.Duration
}

// DefaultSweepConfig returns the default sweep configuration.
func DefaultSweepConfig() SweepConfig {
	return SweepConfig{
		IdleTTL:  30 * time.Minute,
		Interval: time.Minute,
	}
}

// withDefaults fills zero fields from DefaultSweepConfig.
func (c SweepConfig) withDefaults() SweepConfig {
	def := DefaultSweepConfig()
	if c.IdleTTL <= 0 {
		c.IdleTTL = def.IdleTTL
	}
	if c.Interval <= 0 {
		c.Interval = def.Interval
	}
	return c
}
