package transform

import (
	"sync"
	"time"

	"tennis-transform/internal/domain"
)

// stageAnalysis labels the optional analysis step in stage statistics.
const stageAnalysis = "analysis"

// Observer is notified as a transformation progresses.
type Observer interface {
	StageFinished(stage string, err error, elapsed time.Duration)
	RequestFinished(result *domain.TransformResult, err error, elapsed time.Duration)
}

type nopObserver struct{}

func (nopObserver) StageFinished(string, error, time.Duration) {}
func (nopObserver) RequestFinished(*domain.TransformResult, error, time.Duration) {}

// StageCounters tracks attempts for one stage.
type StageCounters struct {
	Attempts  int64 `json:"attempts"`
	Failures  int64 `json:"failures"`
	TotalMsec int64 `json:"total_ms"`
}

// Snapshot is a point-in-time copy of Stats.
type Snapshot struct {
	Requests  int64                    `json:"requests"`
	Successes map[string]int64         `json:"successes"`
	Failures  map[string]int64         `json:"failures"`
	Stages    map[string]StageCounters `json:"stages"`
	Uptime    string                   `json:"uptime"`
}

// Stats is an in-process Observer backing the metrics endpoint.
type Stats struct {
	mu        sync.Mutex
	started   time.Time
	requests  int64
	successes map[string]int64
	failures  map[string]int64
	stages    map[string]*StageCounters
}

func NewStats() *Stats {
	return &Stats{
		started:   time.Now(),
		successes: map[string]int64{},
		failures:  map[string]int64{},
		stages:    map[string]*StageCounters{},
	}
}

func (s *Stats) StageFinished(stage string, err error, elapsed time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.stages[stage]
	if !ok {
		c = &StageCounters{}
		s.stages[stage] = c
	}
	c.Attempts++
	c.TotalMsec += elapsed.Milliseconds()
	if err != nil {
		c.Failures++
	}
}

func (s *Stats) RequestFinished(result *domain.TransformResult, err error, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests++
	if err != nil {
		s.failures[domain.Category(err)]++
		return
	}
	if result != nil {
		s.successes[string(result.Method)]++
	}
}

// Snapshot copies the counters.
func (s *Stats) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := Snapshot{
		Requests:  s.requests,
		Successes: make(map[string]int64, len(s.successes)),
		Failures:  make(map[string]int64, len(s.failures)),
		Stages:    make(map[string]StageCounters, len(s.stages)),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	}
	for k, v := range s.successes {
		out.Successes[k] = v
	}
	for k, v := range s.failures {
		out.Failures[k] = v
	}
	for k, v := range s.stages {
		out.Stages[k] = *v
	}
	return out
}
