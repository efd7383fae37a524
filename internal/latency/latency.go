// Package latency makes in-process operations feel like network calls.
package latency

import (
	"sync"
	"time"
)

// DefaultDelay is the per-operation wait when nothing else is configured.
const DefaultDelay = 300 * time.Millisecond

// Simulator waits a configured delay before each operation completes.
// The wait is not cancellable.
type Simulator struct {
	mu        sync.RWMutex
	def       time.Duration
	overrides map[string]time.Duration
	sleep     func(time.Duration)
}

// New creates a simulator with a default delay and per-operation overrides.
// Negative durations are treated as zero.
func New(def time.Duration, overrides map[string]time.Duration) *Simulator {
	s := &Simulator{def: max(def, 0), overrides: make(map[string]time.Duration, len(overrides)), sleep: time.Sleep}
	for op, d := range overrides {
		s.overrides[op] = max(d, 0)
	}
	return s
}

// Off returns a simulator that never waits; used by tests and the CLI.
func Off() *Simulator {
	return New(0, nil)
}

// Delay reports the wait applied to op.
func (s *Simulator) Delay(op string) time.Duration {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.overrides[op]; ok {
		return d
	}
	return s.def
}

// Set overrides the delay for a single operation.
func (s *Simulator) Set(op string, d time.Duration) {
	s.mu.Lock()
	s.overrides[op] = max(d, 0)
	s.mu.Unlock()
}

// Wait blocks for op's delay.
func (s *Simulator) Wait(op string) {
	if d := s.Delay(op); d > 0 {
		s.sleep(d)
	}
}
