package worker

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper evicts idle sessions. It is implemented by *session.Store.
type Sweeper interface {
	Sweep(idleTTL time.Duration) int
	Len() int
}

// SweepJob evicts sessions that have been idle longer than the configured TTL.
type SweepJob struct {
	config  SweepConfig
	sweeper Sweeper
	logger  zerolog.Logger

	metrics *SweepMetrics
}

// SweepMetrics tracks sweep job statistics.
type SweepMetrics struct {
	mu sync.RWMutex

	TotalRuns     int64
	TotalEvicted  int64
	LastRunAt     time.Time
	LastEvicted   int
	LastRemaining int
}

// SweepJobConfig holds configuration for creating a SweepJob.
type SweepJobConfig struct {
	Config  SweepConfig
	Sweeper Sweeper
	Logger  zerolog.Logger
}

// NewSweepJob creates a new sweep job.
func NewSweepJob(cfg SweepJobConfig) *SweepJob {
	return &SweepJob{
		config:  cfg.Config.withDefaults(),
		sweeper: cfg.Sweeper,
		logger:  cfg.Logger,
		metrics: &SweepMetrics{},
	}
}

// SweepResult contains the result of one sweep.
type SweepResult struct {
	StartTime time.Time
	Duration  time.Duration
	Evicted   int
	Remaining int
}

// Run executes one sweep.
func (j *SweepJob) Run() *SweepResult {
	start := time.Now()

	evicted := j.sweeper.Sweep(j.config.IdleTTL)
	result := &SweepResult{
		StartTime: start,
		Duration:  time.Since(start),
		Evicted:   evicted,
		Remaining: j.sweeper.Len(),
	}

	j.updateMetrics(result)

	event := j.logger.Debug()
	if evicted > 0 {
		event = j.logger.Info()
	}
	event.
		Int("evicted", result.Evicted).
		Int("remaining", result.Remaining).
		Dur("idle_ttl", j.config.IdleTTL).
		Msg("idle session sweep completed")

	return result
}

func (j *SweepJob) updateMetrics(result *SweepResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.TotalEvicted += int64(result.Evicted)
	j.metrics.LastRunAt = result.StartTime
	j.metrics.LastEvicted = result.Evicted
	j.metrics.LastRemaining = result.Remaining
}

// GetMetrics returns a copy of the current metrics.
func (j *SweepJob) GetMetrics() SweepMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return SweepMetrics{
		TotalRuns:     j.metrics.TotalRuns,
		TotalEvicted:  j.metrics.TotalEvicted,
		LastRunAt:     j.metrics.LastRunAt,
		LastEvicted:   j.metrics.LastEvicted,
		LastRemaining: j.metrics.LastRemaining,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *SweepJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":     m.TotalRuns,
		"total_evicted":  m.TotalEvicted,
		"last_run_at":    m.LastRunAt,
		"last_evicted":   m.LastEvicted,
		"last_remaining": m.LastRemaining,
	}
}
