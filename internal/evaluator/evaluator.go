// Package evaluator judges step results. It is the feedback half of the
// execute→evaluate loop: the executor produces a result, this package
// produces the verdict, harvests learnings, and records errors.
package evaluator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/cwhuang/stride/internal/llm"
	"github.com/cwhuang/stride/internal/memory"
	"github.com/cwhuang/stride/internal/types"
)

const systemPrompt = `You are an evaluation assistant. Analyze execution results and provide feedback.`

const evalPrompt = `Evaluate the following execution result:
%s

Determine:
1. Was the step successful?
2. Are there any errors that need to be fixed?
3. What should be the next action?
4. Any learnings to remember for future?

Return as JSON:
{
  "success": true/false,
  "errors": [],
  "next_action": "description",
  "learnings": []
}`

// Evaluator is the Outcome Evaluator.
type Evaluator struct {
	llm   llm.Chatter
	store *memory.Store
}

// New creates an Evaluator.
func New(chatter llm.Chatter, store *memory.Store) *Evaluator {
	return &Evaluator{llm: chatter, store: store}
}

// Evaluate asks the model to judge result and applies the verdict's side
// effects: every learning is upserted into the learned-pattern map, and a
// non-empty error list is appended to the error log with the full result as
// context, after which memory is persisted.
//
// A response that cannot be parsed into the evaluation schema is itself
// treated as a failed step: the returned default verdict has success=false
// and next_action="retry", biasing the loop toward a retry rather than a
// silent pass. Only a transport-level LLM failure returns an error.
func (e *Evaluator) Evaluate(ctx context.Context, result types.StepResult, mem *memory.AgentMemory) (types.Evaluation, error) {
	resultJSON, _ := json.MarshalIndent(result, "", "  ")

	raw, _, err := e.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(evalPrompt, resultJSON)},
	})
	if err != nil {
		return types.Evaluation{}, fmt.Errorf("evaluator: %w", err)
	}

	eval, ok := parseEvaluation(raw)
	if !ok {
		log.Printf("[evaluator] unparseable verdict, defaulting to retry (raw: %s)", firstN(raw, 200))
		return defaultEvaluation(raw), nil
	}

	for _, learning := range eval.Learnings {
		mem.RecordLearning(learning)
	}
	if len(eval.Errors) > 0 {
		mem.AppendError(eval.Errors, result)
	}
	if err := e.store.Save(mem); err != nil {
		log.Printf("[evaluator] WARNING: persist after evaluation: %v", err)
	}
	return eval, nil
}

// parseEvaluation attempts the strict schema decode of the model response.
func parseEvaluation(raw string) (types.Evaluation, bool) {
	blob, err := llm.ExtractJSON(raw)
	if err != nil {
		return types.Evaluation{}, false
	}
	var eval types.Evaluation
	if err := json.Unmarshal([]byte(blob), &eval); err != nil {
		return types.Evaluation{}, false
	}
	return eval, true
}

// defaultEvaluation is the verdict used when the model's answer had no
// usable JSON: a failure that asks for a retry.
func defaultEvaluation(raw string) types.Evaluation {
	return types.Evaluation{
		Success:    false,
		Errors:     []string{fmt.Sprintf("could not parse evaluation: %s", firstN(raw, 200))},
		NextAction: "retry",
		Learnings:  []string{},
	}
}

func firstN(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
