// Package memory holds the agent's sole persisted aggregate — conversation
// history, task plans, learned patterns, and the error log — together with
// the file-backed store that round-trips it as a JSON document.
//
// Every mutation funnels through a named operation on AgentMemory so each
// one can be tested in isolation. Nothing outside this package writes the
// collections directly.
package memory

import (
	"time"

	"github.com/cwhuang/stride/internal/types"
)

// AgentMemory is all durable agent state. The orchestrator owns the single
// live instance; the store owns it once persisted.
type AgentMemory struct {
	ConversationHistory []types.ConversationEntry        `json:"conversation_history"`
	TaskPlans           []*types.TaskPlan                `json:"task_plans"`
	CompletedTasks      []string                         `json:"completed_tasks"`
	LearnedPatterns     map[string]types.LearnedPattern  `json:"learned_patterns"`
	ErrorLog            []types.ErrorRecord              `json:"error_log"`
}

// New returns an empty aggregate, equivalent to what Load yields when no
// state file exists yet.
func New() *AgentMemory {
	return &AgentMemory{
		ConversationHistory: []types.ConversationEntry{},
		TaskPlans:           []*types.TaskPlan{},
		CompletedTasks:      []string{},
		LearnedPatterns:     map[string]types.LearnedPattern{},
		ErrorLog:            []types.ErrorRecord{},
	}
}

// normalize repairs nil collections after a JSON round-trip so callers never
// see a nil map.
func (m *AgentMemory) normalize() {
	if m.ConversationHistory == nil {
		m.ConversationHistory = []types.ConversationEntry{}
	}
	if m.TaskPlans == nil {
		m.TaskPlans = []*types.TaskPlan{}
	}
	if m.CompletedTasks == nil {
		m.CompletedTasks = []string{}
	}
	if m.LearnedPatterns == nil {
		m.LearnedPatterns = map[string]types.LearnedPattern{}
	}
	if m.ErrorLog == nil {
		m.ErrorLog = []types.ErrorRecord{}
	}
}

// AppendConversation appends one dialogue turn, stamped now.
func (m *AgentMemory) AppendConversation(role types.Role, content string) {
	m.ConversationHistory = append(m.ConversationHistory, types.ConversationEntry{
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

// RecentConversation returns the last n history entries, oldest first.
func (m *AgentMemory) RecentConversation(n int) []types.ConversationEntry {
	if n <= 0 || len(m.ConversationHistory) == 0 {
		return nil
	}
	if n > len(m.ConversationHistory) {
		n = len(m.ConversationHistory)
	}
	return m.ConversationHistory[len(m.ConversationHistory)-n:]
}

// AppendPlan appends a plan to the append-only plan history.
func (m *AgentMemory) AppendPlan(p *types.TaskPlan) {
	m.TaskPlans = append(m.TaskPlans, p)
}

// MarkTaskCompleted appends taskID to the completed set. A task that is
// already recorded is not appended twice.
func (m *AgentMemory) MarkTaskCompleted(taskID string) {
	for _, id := range m.CompletedTasks {
		if id == taskID {
			return
		}
	}
	m.CompletedTasks = append(m.CompletedTasks, taskID)
}

// RecordLearning upserts one learning text. A new key starts at count 1
// with first_seen stamped now; a repeated key increments the count and
// leaves first_seen unchanged. Keys are exact text — no canonicalization.
func (m *AgentMemory) RecordLearning(learning string) {
	if p, ok := m.LearnedPatterns[learning]; ok {
		p.Count++
		m.LearnedPatterns[learning] = p
		return
	}
	m.LearnedPatterns[learning] = types.LearnedPattern{
		Count:     1,
		FirstSeen: time.Now().UTC(),
	}
}

// AppendError appends one error-log record with the step result as context.
func (m *AgentMemory) AppendError(errs []string, context types.StepResult) {
	m.ErrorLog = append(m.ErrorLog, types.ErrorRecord{
		Timestamp: time.Now().UTC(),
		Errors:    errs,
		Context:   context,
	})
}

// ClearConversation drops the dialogue history, leaving every other
// collection intact.
func (m *AgentMemory) ClearConversation() {
	m.ConversationHistory = []types.ConversationEntry{}
}

// Reset replaces all state with a fresh empty aggregate.
func (m *AgentMemory) Reset() {
	*m = *New()
}

// Compact trims the oldest conversation and error-log entries down to the
// given keep limits. A limit of zero or below means keep everything. The
// core never calls this on its own; it runs only when retention is
// configured.
func (m *AgentMemory) Compact(keepHistory, keepErrors int) {
	if keepHistory > 0 && len(m.ConversationHistory) > keepHistory {
		m.ConversationHistory = append(
			[]types.ConversationEntry{},
			m.ConversationHistory[len(m.ConversationHistory)-keepHistory:]...,
		)
	}
	if keepErrors > 0 && len(m.ErrorLog) > keepErrors {
		m.ErrorLog = append(
			[]types.ErrorRecord{},
			m.ErrorLog[len(m.ErrorLog)-keepErrors:]...,
		)
	}
}

// Stats summarises the aggregate's collection sizes for the /memory command.
type Stats struct {
	Conversations   int
	TaskPlans       int
	CompletedTasks  int
	LearnedPatterns int
	ErrorRecords    int
}

// Stats returns current collection sizes.
func (m *AgentMemory) Stats() Stats {
	return Stats{
		Conversations:   len(m.ConversationHistory),
		TaskPlans:       len(m.TaskPlans),
		CompletedTasks:  len(m.CompletedTasks),
		LearnedPatterns: len(m.LearnedPatterns),
		ErrorRecords:    len(m.ErrorLog),
	}
}
