// Package utils holds small helpers shared by the simulation stages.
package utils

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// SlowStageThreshold is the duration above which a stage is logged as slow.
const SlowStageThreshold = 10 * time.Second

// Timer measures the duration of one named stage. Timers are started through StageTimings.Start.
type Timer struct {
	start time.Time
	name  string
	log   zerolog.Logger
	now   func() time.Time
}

// newTimer starts a timer for the named stage reading the clock from now
func newTimer(name string, log zerolog.Logger, now func() time.Time) *Timer {
	return &Timer{start: now(), name: name, log: log, now: now}
}

// Stop logs the elapsed duration and returns it
func (t *Timer) Stop() time.Duration {
	duration := t.now().Sub(t.start)

	t.log.Debug().
		Str("stage", t.name).
		Dur("duration_ms", duration).
		Msg("Stage completed")

	if duration > SlowStageThreshold {
		t.log.Warn().
			Str("stage", t.name).
			Dur("duration", duration).
			Msg("Slow stage detected")
	}

	return duration
}

// StageTimings collects stage durations of one run in execution order
type StageTimings struct {
	mu     sync.Mutex
	names  []string
	byName map[string]time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

// NewStageTimings creates an empty collection logging through log
func NewStageTimings(log zerolog.Logger) *StageTimings {
	return &StageTimings{
		byName: make(map[string]time.Duration),
		log:    log,
		now:    time.Now,
	}
}

// Start begins timing stage; call the returned function when it finishes.
// Repeated stages accumulate.
//
// Usage:
//
//	done := timings.Start("propagator")
//	defer done()
func (s *StageTimings) Start(stage string) func() {
	t := newTimer(stage, s.log, s.now)
	return func() {
		s.record(stage, t.Stop())
	}
}

func (s *StageTimings) record(stage string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byName[stage]; !ok {
		s.names = append(s.names, stage)
	}
	s.byName[stage] += d
}

// Stages returns the recorded stage names in the order they first started
func (s *StageTimings) Stages() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.names...)
}

// Duration returns the accumulated duration of stage
func (s *StageTimings) Duration(stage string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byName[stage]
}

// Total returns the sum of all stage durations
func (s *StageTimings) Total() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total time.Duration
	for _, d := range s.byName {
		total += d
	}
	return total
}

// LogSummary logs every stage duration and the total at info level
func (s *StageTimings) LogSummary() {
	event := s.log.Info()
	for _, name := range s.Stages() {
		event = event.Dur(name, s.Duration(name))
	}
	event.Dur("total", s.Total()).Msg("Run stage timings")
}
