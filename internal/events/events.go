// Package events carries task-progress notifications from the orchestrator
// to whoever is rendering them (the terminal UI, a log sink). The loop
// itself is strictly sequential; the stream exists so progress reporting
// stays out of the control flow.
package events

import (
	"log"
	"sync"
	"time"
)

const subscriberBufSize = 64

// Kind labels one progress event.
type Kind string

const (
	KindTaskStarted   Kind = "task_started"
	KindPlanReady     Kind = "plan_ready"
	KindStepStarted   Kind = "step_started"
	KindStepEvaluated Kind = "step_evaluated"
	KindRetryStarted  Kind = "retry_started"   // "attempting to fix"
	KindRetryFixed    Kind = "retry_fixed"     // "fixed"
	KindRetryFailed   Kind = "retry_failed"    // "could not fix"
	KindTaskCompleted Kind = "task_completed"
)

// Event is one progress notification.
type Event struct {
	Kind      Kind
	Timestamp time.Time
	TaskID    string
	StepIndex int    // 1-based; zero for task-level events
	StepTotal int
	Step      string
	Detail    string
}

// Stream fans events out to subscribers. Publishing never blocks: a slow
// subscriber drops events rather than stalling the task loop.
type Stream struct {
	mu   sync.RWMutex
	subs []chan Event
}

// NewStream creates an empty Stream.
func NewStream() *Stream {
	return &Stream{}
}

// Publish fans ev out to all subscribers, stamping it if unstamped.
func (s *Stream) Publish(ev Event) {
	if s == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	s.mu.RLock()
	subs := s.subs
	s.mu.RUnlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			log.Printf("[events] WARNING: subscriber full — %s event dropped", ev.Kind)
		}
	}
}

// Subscribe returns a receive-only channel delivering every published event.
// Each call creates an independent subscriber.
func (s *Stream) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBufSize)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()
	return ch
}
