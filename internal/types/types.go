// Package types defines the shared data model for the stride agent:
// task plans, step results, evaluations, and the report the orchestrator
// returns once every step has been attempted.
package types

import "time"

// TaskStatus is the lifecycle state of a TaskPlan.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
	StatusFailed     TaskStatus = "failed"
)

// Role identifies the author of a conversation entry.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TaskPlan is an ordered decomposition of one user request.
// Plans are append-only history once persisted; only the status and
// completion timestamp of the current plan are mutated, and only by the
// orchestrator.
type TaskPlan struct {
	TaskID      string     `json:"task_id"`
	Description string     `json:"description"`
	Steps       []string   `json:"steps"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ConversationEntry is one turn of the user/assistant dialogue.
type ConversationEntry struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// StepResult is the executor's output for one step. Success is always true
// at this layer: execution produces a result, evaluation produces the verdict.
type StepResult struct {
	Step      string    `json:"step"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
	Success   bool      `json:"success"`
}

// Evaluation is the evaluator's verdict on one StepResult.
type Evaluation struct {
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
	NextAction string   `json:"next_action"`
	Learnings  []string `json:"learnings"`
}

// RetryRecord holds the outcome of the single fix attempt for a failed step.
type RetryRecord struct {
	Result     StepResult `json:"result"`
	Evaluation Evaluation `json:"evaluation"`
}

// StepRecord is the per-step context entry the orchestrator accumulates:
// the original result and verdict, plus the retry outcome when one happened.
// A step's final verdict is the retry's verdict when a retry ran.
type StepRecord struct {
	Index      int          `json:"index"`
	Step       string       `json:"step"`
	Result     StepResult   `json:"result"`
	Evaluation Evaluation   `json:"evaluation"`
	Retry      *RetryRecord `json:"retry,omitempty"`
}

// Failed reports whether the step's final verdict is failure, accounting
// for the retry when present.
func (r StepRecord) Failed() bool {
	if r.Evaluation.Success {
		return false
	}
	return r.Retry == nil || !r.Retry.Evaluation.Success
}

// LearnedPattern counts occurrences of one exact learning text.
type LearnedPattern struct {
	Count     int       `json:"count"`
	FirstSeen time.Time `json:"first_seen"`
}

// ErrorRecord is one append-only error-log entry. Context carries the full
// StepResult the errors were observed on.
type ErrorRecord struct {
	Timestamp time.Time  `json:"timestamp"`
	Errors    []string   `json:"errors"`
	Context   StepResult `json:"context"`
}

// TaskReport is the orchestrator's outcome for one request.
//
// Success stays true once every planned step has been attempted — step
// failures never abort the task. FailedSteps lists the indexes whose final
// verdict (after the retry) was still failure, and Partial marks a completed
// task that carries such steps, so callers can distinguish a clean run from
// a degraded one.
type TaskReport struct {
	Plan        TaskPlan     `json:"plan"`
	Steps       []StepRecord `json:"steps"`
	Success     bool         `json:"success"`
	FailedSteps []int        `json:"failed_steps,omitempty"`
	Partial     bool         `json:"partial"`
	Timestamp   time.Time    `json:"timestamp"`
}

// TaskContext is the explicit state object threaded through one task's
// execution: the originating request plus the record of every step executed
// so far, in order. Step n's prompt sees the evaluated results of steps
// 1..n-1 through this object.
type TaskContext struct {
	Request string       `json:"request"`
	Steps   []StepRecord `json:"steps,omitempty"`
}

// ToolInfo describes one tool discovered from the tool-invocation
// collaborator. The core lists tools; it never calls them.
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
