// Package planner turns a natural-language request into an ordered TaskPlan
// by asking the model for a structured decomposition.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/cwhuang/stride/internal/llm"
	"github.com/cwhuang/stride/internal/memory"
	"github.com/cwhuang/stride/internal/types"
)

// descriptionLimit caps the fallback plan's description at the request's
// leading runes.
const descriptionLimit = 100

const systemPrompt = `You are a planning assistant. Create detailed plans for software development tasks.`

const planPrompt = `As a software engineer, create a detailed plan to complete this request:
%s

Break it down into clear, actionable steps.
Return your response as a JSON object with the following structure:
{
  "task_id": "unique_id",
  "description": "brief description",
  "steps": ["step 1", "step 2", ...]
}`

// Planner is the Plan Generator. It owns no state beyond its collaborators.
type Planner struct {
	llm   llm.Chatter
	store *memory.Store
}

// New creates a Planner.
func New(chatter llm.Chatter, store *memory.Store) *Planner {
	return &Planner{llm: chatter, store: store}
}

// planShape is the strict decode target for the model's plan JSON.
type planShape struct {
	TaskID      string   `json:"task_id"`
	Description string   `json:"description"`
	Steps       []string `json:"steps"`
}

// Plan asks the model to decompose request into steps, appends the resulting
// plan to memory, and persists.
//
// Parse failures never surface: a response with no usable JSON degrades to a
// single-step fallback plan whose one step is the raw response text. Only a
// transport-level LLM failure returns an error — an unreachable collaborator
// is fatal, a malformed answer is not.
func (p *Planner) Plan(ctx context.Context, request string, mem *memory.AgentMemory) (*types.TaskPlan, error) {
	raw, _, err := p.llm.Chat(ctx, []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf(planPrompt, request)},
	})
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	plan, ok := parsePlan(raw)
	if !ok {
		plan = fallbackPlan(request, raw)
		mem.AppendPlan(plan)
		// Best effort on the fallback path: a failed save is logged, never
		// propagated.
		if err := p.store.Save(mem); err != nil {
			log.Printf("[planner] WARNING: persist after fallback plan: %v", err)
		}
		log.Printf("[planner] fallback plan task_id=%s (response had no usable JSON)", plan.TaskID)
		return plan, nil
	}

	mem.AppendPlan(plan)
	if err := p.store.Save(mem); err != nil {
		return nil, fmt.Errorf("planner: persist plan: %w", err)
	}
	log.Printf("[planner] plan task_id=%s steps=%d", plan.TaskID, len(plan.Steps))
	return plan, nil
}

// parsePlan attempts the strict schema decode of the model response.
func parsePlan(raw string) (*types.TaskPlan, bool) {
	blob, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, false
	}
	var shape planShape
	if err := json.Unmarshal([]byte(blob), &shape); err != nil {
		return nil, false
	}
	if shape.TaskID == "" || len(shape.Steps) == 0 {
		return nil, false
	}
	return &types.TaskPlan{
		TaskID:      shape.TaskID,
		Description: shape.Description,
		Steps:       shape.Steps,
		Status:      types.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}, true
}

// fallbackPlan builds the single-step degraded plan: the raw model response
// becomes the only step and the description is the request itself,
// truncated.
func fallbackPlan(request, raw string) *types.TaskPlan {
	return &types.TaskPlan{
		TaskID:      "task_" + uuid.New().String(),
		Description: truncate(request, descriptionLimit),
		Steps:       []string{raw},
		Status:      types.StatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
