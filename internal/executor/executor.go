// Package executor carries out one plan step through a single model call.
// It produces results, never verdicts — judging the outcome belongs to the
// evaluator.
package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cwhuang/stride/internal/llm"
	"github.com/cwhuang/stride/internal/memory"
	"github.com/cwhuang/stride/internal/toolbox"
	"github.com/cwhuang/stride/internal/types"
)

// historyWindow is how many trailing conversation entries are included in
// the execution prompt.
const historyWindow = 5

// Instruction is the agent persona used for step execution and plain Q&A.
const Instruction = `You are an experienced software engineer. You can:
1. Read, write, and modify files
2. Execute commands and code
3. Search through codebases
4. Manage git repositories
5. Create and organize directories

When given a task:
- First, understand the requirements thoroughly
- Break down complex tasks into smaller steps
- Implement solutions incrementally
- Test your implementations
- Handle errors gracefully and learn from them
- Document your work clearly

Always think step-by-step and explain your reasoning.`

// Executor is the Step Executor.
type Executor struct {
	llm   llm.Chatter
	tools *toolbox.Toolbox
}

// New creates an Executor. tools may be nil; the agent then runs without a
// tool-invocation collaborator.
func New(chatter llm.Chatter, tools *toolbox.Toolbox) *Executor {
	return &Executor{llm: chatter, tools: tools}
}

// Execute runs one step. The prompt carries the step text, the accumulated
// task context, the last few conversation entries, and the collaborator's
// declared tool list. The returned result always has Success=true — the
// executor does not judge correctness. The assistant's response is appended
// to the conversation history as a side effect.
//
// Only a transport-level LLM failure returns an error.
func (e *Executor) Execute(ctx context.Context, step string, taskCtx *types.TaskContext, mem *memory.AgentMemory) (types.StepResult, error) {
	prompt := e.buildPrompt(ctx, step, taskCtx, mem)

	response, _, err := e.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: Instruction},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		return types.StepResult{}, fmt.Errorf("executor: %w", err)
	}

	result := types.StepResult{
		Step:      step,
		Response:  response,
		Timestamp: time.Now().UTC(),
		Success:   true,
	}
	mem.AppendConversation(types.RoleAssistant, response)
	return result, nil
}

func (e *Executor) buildPrompt(ctx context.Context, step string, taskCtx *types.TaskContext, mem *memory.AgentMemory) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Current step to execute: %s\n\n", step)

	ctxJSON, _ := json.MarshalIndent(taskCtx, "", "  ")
	fmt.Fprintf(&sb, "Context from previous steps:\n%s\n\n", ctxJSON)

	recent := mem.RecentConversation(historyWindow)
	histJSON, _ := json.MarshalIndent(recent, "", "  ")
	fmt.Fprintf(&sb, "Recent conversation history:\n%s\n\n", histJSON)

	if tools, err := e.tools.Tools(ctx); err != nil {
		// A collaborator that cannot enumerate tools is degraded, not fatal:
		// the step still executes, just without the tool list.
		log.Printf("[executor] WARNING: list tools: %v", err)
	} else if len(tools) > 0 {
		sb.WriteString("Available tools:\n")
		for _, t := range tools {
			fmt.Fprintf(&sb, "- %s: %s\n", t.Name, t.Description)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Use the available tools to complete this step. Be specific and thorough.")
	return sb.String()
}
