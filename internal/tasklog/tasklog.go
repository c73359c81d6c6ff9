// Package tasklog provides per-task structured logging for the agent loop.
//
// Each task gets one JSONL file in a configurable directory. Events capture
// the plan, every step execution and verdict, retries, and the final
// report, so a failed run can be reconstructed offline.
//
// All TaskLog methods are nil-safe (no-op on nil receiver) so callers don't
// need nil checks before every log call.
package tasklog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cwhuang/stride/internal/types"
)

// EventKind labels a single structured event in the task log.
type EventKind string

const (
	KindTaskBegin EventKind = "task_begin"
	KindPlan      EventKind = "plan"
	KindStepBegin EventKind = "step_begin"
	KindVerdict   EventKind = "verdict"
	KindRetry     EventKind = "retry"
	KindTaskEnd   EventKind = "task_end"
)

// Event is one JSONL line in the task log. Fields are omitempty so each
// event only serialises relevant data.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp string    `json:"ts"`

	// task_begin / task_end
	TaskID      string `json:"task_id,omitempty"`
	Request     string `json:"request,omitempty"`
	Success     *bool  `json:"success,omitempty"` // pointer: false must be serialised
	FailedSteps []int  `json:"failed_steps,omitempty"`
	Partial     bool   `json:"partial,omitempty"`

	// plan
	Description string   `json:"description,omitempty"`
	Steps       []string `json:"steps,omitempty"`

	// step_begin / verdict / retry
	StepIndex int      `json:"step_index,omitempty"` // 1-based
	Step      string   `json:"step,omitempty"`
	Errors    []string `json:"errors,omitempty"`
	Learnings []string `json:"learnings,omitempty"`
	Fixed     *bool    `json:"fixed,omitempty"`
}

// TaskLog writes one task's JSONL stream. Safe for use from a single
// goroutine per task; the mutex guards the shared registry close path.
type TaskLog struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// Registry owns task-log files. One log per task, named by task ID.
type Registry struct {
	dir string
}

// NewRegistry creates a Registry writing under dir. An empty dir disables
// task logging: Open then returns a nil *TaskLog, which is valid.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// Open creates the JSONL file for taskID and returns its TaskLog.
func (r *Registry) Open(taskID string) (*TaskLog, error) {
	if r == nil || r.dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return nil, fmt.Errorf("tasklog: create dir: %w", err)
	}
	path := filepath.Join(r.dir, taskID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("tasklog: open %s: %w", path, err)
	}
	return &TaskLog{f: f, path: path}, nil
}

// Path returns the log file path, or "" on a nil log.
func (l *TaskLog) Path() string {
	if l == nil {
		return ""
	}
	return l.path
}

func (l *TaskLog) write(ev Event) {
	if l == nil || l.f == nil {
		return
	}
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	line, err := json.Marshal(ev)
	if err != nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.f.Write(append(line, '\n'))
}

// TaskBegin records the incoming request.
func (l *TaskLog) TaskBegin(taskID, request string) {
	l.write(Event{Kind: KindTaskBegin, TaskID: taskID, Request: request})
}

// Plan records the generated plan.
func (l *TaskLog) Plan(p *types.TaskPlan) {
	l.write(Event{Kind: KindPlan, TaskID: p.TaskID, Description: p.Description, Steps: p.Steps})
}

// StepBegin records the start of one step. index is 1-based.
func (l *TaskLog) StepBegin(index int, step string) {
	l.write(Event{Kind: KindStepBegin, StepIndex: index, Step: step})
}

// Verdict records an evaluation outcome for one step.
func (l *TaskLog) Verdict(index int, eval types.Evaluation) {
	s := eval.Success
	l.write(Event{
		Kind:      KindVerdict,
		StepIndex: index,
		Success:   &s,
		Errors:    eval.Errors,
		Learnings: eval.Learnings,
	})
}

// Retry records the fix attempt for a failed step and whether it worked.
func (l *TaskLog) Retry(index int, fixed bool) {
	l.write(Event{Kind: KindRetry, StepIndex: index, Fixed: &fixed})
}

// TaskEnd records the final report summary and closes the log.
func (l *TaskLog) TaskEnd(report *types.TaskReport) {
	if l == nil {
		return
	}
	s := report.Success
	l.write(Event{
		Kind:        KindTaskEnd,
		TaskID:      report.Plan.TaskID,
		Success:     &s,
		FailedSteps: report.FailedSteps,
		Partial:     report.Partial,
	})
	l.mu.Lock()
	defer l.mu.Unlock()
	l.f.Close()
	l.f = nil
}
