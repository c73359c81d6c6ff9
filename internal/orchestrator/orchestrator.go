// Package orchestrator runs the plan→execute→evaluate→retry control loop
// for one request at a time. It owns the current TaskPlan's lifecycle and
// the final persistence of memory; everything else is delegated to its
// collaborators.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/cwhuang/stride/internal/archive"
	"github.com/cwhuang/stride/internal/events"
	"github.com/cwhuang/stride/internal/memory"
	"github.com/cwhuang/stride/internal/tasklog"
	"github.com/cwhuang/stride/internal/types"
)

// PlanGenerator decomposes a request into an ordered TaskPlan.
type PlanGenerator interface {
	Plan(ctx context.Context, request string, mem *memory.AgentMemory) (*types.TaskPlan, error)
}

// StepExecutor carries out one step.
type StepExecutor interface {
	Execute(ctx context.Context, step string, taskCtx *types.TaskContext, mem *memory.AgentMemory) (types.StepResult, error)
}

// OutcomeEvaluator judges one step result.
type OutcomeEvaluator interface {
	Evaluate(ctx context.Context, result types.StepResult, mem *memory.AgentMemory) (types.Evaluation, error)
}

// Orchestrator drives one task end to end. It is not safe for concurrent
// use: the memory aggregate is owned by exactly one orchestrator at a time.
type Orchestrator struct {
	planner   PlanGenerator
	executor  StepExecutor
	evaluator OutcomeEvaluator
	mem       *memory.AgentMemory
	store     *memory.Store
	logs      *tasklog.Registry
	arch      *archive.Archive
	stream    *events.Stream
}

// Config holds the orchestrator's collaborators. Logs, Archive, and Stream
// are optional.
type Config struct {
	Planner   PlanGenerator
	Executor  StepExecutor
	Evaluator OutcomeEvaluator
	Memory    *memory.AgentMemory
	Store     *memory.Store
	Logs      *tasklog.Registry
	Archive   *archive.Archive
	Stream    *events.Stream
}

// New creates an Orchestrator.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{
		planner:   cfg.Planner,
		executor:  cfg.Executor,
		evaluator: cfg.Evaluator,
		mem:       cfg.Memory,
		store:     cfg.Store,
		logs:      cfg.Logs,
		arch:      cfg.Archive,
		stream:    cfg.Stream,
	}
}

// ExecuteTask runs the full loop for one request:
//
//	plan → for each step: execute → evaluate → one retry on failure → next
//
// Persistent step failure never aborts the task — every planned step is
// attempted, failures are recorded, and the plan still completes. Only an
// unreachable collaborator (LLM transport failure) aborts, leaving the
// current plan marked failed rather than completed.
func (o *Orchestrator) ExecuteTask(ctx context.Context, request string) (*types.TaskReport, error) {
	o.mem.AppendConversation(types.RoleUser, request)

	plan, err := o.planner.Plan(ctx, request, o.mem)
	if err != nil {
		return nil, err
	}
	plan.Status = types.StatusInProgress

	tlog, err := o.logs.Open(plan.TaskID)
	if err != nil {
		log.Printf("[orchestrator] WARNING: open task log: %v", err)
	}
	tlog.TaskBegin(plan.TaskID, request)
	tlog.Plan(plan)

	o.publish(events.Event{Kind: events.KindTaskStarted, TaskID: plan.TaskID, Detail: request})
	o.publish(events.Event{
		Kind: events.KindPlanReady, TaskID: plan.TaskID,
		StepTotal: len(plan.Steps), Detail: plan.Description,
	})

	taskCtx := &types.TaskContext{Request: request}

	for i, step := range plan.Steps {
		rec, err := o.runStep(ctx, plan, i, step, taskCtx, tlog)
		if err != nil {
			o.abort(plan, tlog)
			return nil, err
		}
		taskCtx.Steps = append(taskCtx.Steps, rec)
	}

	now := time.Now().UTC()
	plan.Status = types.StatusCompleted
	plan.CompletedAt = &now
	o.mem.MarkTaskCompleted(plan.TaskID)
	if err := o.store.Save(o.mem); err != nil {
		log.Printf("[orchestrator] WARNING: final persist: %v", err)
	}

	report := buildReport(plan, taskCtx.Steps, now)
	if err := o.arch.Put(report); err != nil {
		log.Printf("[orchestrator] WARNING: archive transcript: %v", err)
	}
	tlog.TaskEnd(report)
	o.publish(events.Event{
		Kind: events.KindTaskCompleted, TaskID: plan.TaskID,
		Detail: fmt.Sprintf("%d/%d steps clean", len(plan.Steps)-len(report.FailedSteps), len(plan.Steps)),
	})
	return report, nil
}

// runStep executes and evaluates one step, escalating to exactly one fix
// attempt when the verdict is failure. The retry's result and verdict are
// folded into the step record; the loop advances regardless of the retry's
// outcome.
func (o *Orchestrator) runStep(ctx context.Context, plan *types.TaskPlan, index int, step string, taskCtx *types.TaskContext, tlog *tasklog.TaskLog) (types.StepRecord, error) {
	n := index + 1
	o.publish(events.Event{
		Kind: events.KindStepStarted, TaskID: plan.TaskID,
		StepIndex: n, StepTotal: len(plan.Steps), Step: step,
	})
	tlog.StepBegin(n, step)

	result, err := o.executor.Execute(ctx, step, taskCtx, o.mem)
	if err != nil {
		return types.StepRecord{}, err
	}
	eval, err := o.evaluator.Evaluate(ctx, result, o.mem)
	if err != nil {
		return types.StepRecord{}, err
	}
	tlog.Verdict(n, eval)
	o.publish(events.Event{
		Kind: events.KindStepEvaluated, TaskID: plan.TaskID,
		StepIndex: n, StepTotal: len(plan.Steps), Detail: verdictDetail(eval),
	})

	rec := types.StepRecord{Index: n, Step: step, Result: result, Evaluation: eval}
	if eval.Success {
		return rec, nil
	}

	// One fix attempt, never more.
	o.publish(events.Event{
		Kind: events.KindRetryStarted, TaskID: plan.TaskID,
		StepIndex: n, StepTotal: len(plan.Steps), Step: step,
	})
	fixPrompt := fmt.Sprintf(
		"The previous step failed with errors: %v\nOriginal step: %s\nPlease fix the issue and retry.",
		eval.Errors, step,
	)
	retryResult, err := o.executor.Execute(ctx, fixPrompt, taskCtx, o.mem)
	if err != nil {
		return types.StepRecord{}, err
	}
	retryEval, err := o.evaluator.Evaluate(ctx, retryResult, o.mem)
	if err != nil {
		return types.StepRecord{}, err
	}
	rec.Retry = &types.RetryRecord{Result: retryResult, Evaluation: retryEval}
	tlog.Retry(n, retryEval.Success)

	kind := events.KindRetryFailed
	if retryEval.Success {
		kind = events.KindRetryFixed
	}
	o.publish(events.Event{
		Kind: kind, TaskID: plan.TaskID,
		StepIndex: n, StepTotal: len(plan.Steps), Detail: verdictDetail(retryEval),
	})
	return rec, nil
}

// abort marks the current plan failed after an unrecoverable collaborator
// error. What was persisted before the failure stays persisted; the plan is
// never marked completed.
func (o *Orchestrator) abort(plan *types.TaskPlan, tlog *tasklog.TaskLog) {
	plan.Status = types.StatusFailed
	if err := o.store.Save(o.mem); err != nil {
		log.Printf("[orchestrator] WARNING: persist after abort: %v", err)
	}
	tlog.TaskEnd(&types.TaskReport{Plan: *plan, Success: false})
}

func buildReport(plan *types.TaskPlan, steps []types.StepRecord, now time.Time) *types.TaskReport {
	var failed []int
	for _, rec := range steps {
		if rec.Failed() {
			failed = append(failed, rec.Index)
		}
	}
	return &types.TaskReport{
		Plan:        *plan,
		Steps:       steps,
		Success:     true,
		FailedSteps: failed,
		Partial:     len(failed) > 0,
		Timestamp:   now,
	}
}

func verdictDetail(eval types.Evaluation) string {
	if eval.Success {
		return "ok"
	}
	if len(eval.Errors) > 0 {
		return eval.Errors[0]
	}
	return "failed"
}

func (o *Orchestrator) publish(ev events.Event) {
	o.stream.Publish(ev)
}
