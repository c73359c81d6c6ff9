package evaluator

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cwhuang/stride/internal/llm"
	"github.com/cwhuang/stride/internal/memory"
	"github.com/cwhuang/stride/internal/types"
)

type fakeChatter struct {
	response string
	err      error
}

func (f *fakeChatter) Chat(ctx context.Context, messages []llm.Message) (string, llm.Usage, error) {
	return f.response, llm.Usage{}, f.err
}

func newTestEvaluator(t *testing.T, chatter llm.Chatter) (*Evaluator, *memory.Store) {
	t.Helper()
	store := memory.NewStore(filepath.Join(t.TempDir(), "memory.json"))
	return New(chatter, store), store
}

func someResult() types.StepResult {
	return types.StepResult{Step: "write the parser", Response: "done", Success: true}
}

// --- Evaluate: structured verdict ---

func TestEvaluate_ParsesVerdict(t *testing.T) {
	e, _ := newTestEvaluator(t, &fakeChatter{
		response: `{"success":true,"errors":[],"next_action":"continue","learnings":["use table tests"]}`,
	})
	eval, err := e.Evaluate(context.Background(), someResult(), memory.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !eval.Success {
		t.Error("expected success verdict")
	}
	if eval.NextAction != "continue" {
		t.Errorf("unexpected next_action %q", eval.NextAction)
	}
}

func TestEvaluate_RecordsLearnings(t *testing.T) {
	// Every learning in the verdict is upserted into the pattern map.
	e, _ := newTestEvaluator(t, &fakeChatter{
		response: `{"success":true,"errors":[],"next_action":"","learnings":["a","b"]}`,
	})
	mem := memory.New()
	if _, err := e.Evaluate(context.Background(), someResult(), mem); err != nil {
		t.Fatal(err)
	}
	if len(mem.LearnedPatterns) != 2 {
		t.Errorf("expected 2 learned patterns, got %d", len(mem.LearnedPatterns))
	}
	if mem.LearnedPatterns["a"].Count != 1 {
		t.Errorf("expected count 1 for new learning, got %d", mem.LearnedPatterns["a"].Count)
	}
}

func TestEvaluate_RepeatedLearningIncrements(t *testing.T) {
	e, _ := newTestEvaluator(t, &fakeChatter{
		response: `{"success":true,"errors":[],"next_action":"","learnings":["check edge cases"]}`,
	})
	mem := memory.New()
	e.Evaluate(context.Background(), someResult(), mem)
	e.Evaluate(context.Background(), someResult(), mem)
	if got := mem.LearnedPatterns["check edge cases"].Count; got != 2 {
		t.Errorf("expected count 2, got %d", got)
	}
}

func TestEvaluate_ErrorsAppendedToErrorLog(t *testing.T) {
	// A non-empty errors list lands in the error log with the result as
	// context.
	e, _ := newTestEvaluator(t, &fakeChatter{
		response: `{"success":false,"errors":["missing import"],"next_action":"retry","learnings":[]}`,
	})
	mem := memory.New()
	if _, err := e.Evaluate(context.Background(), someResult(), mem); err != nil {
		t.Fatal(err)
	}
	if len(mem.ErrorLog) != 1 {
		t.Fatalf("expected 1 error record, got %d", len(mem.ErrorLog))
	}
	if mem.ErrorLog[0].Context.Step != "write the parser" {
		t.Errorf("expected result as context, got %+v", mem.ErrorLog[0].Context)
	}
}

func TestEvaluate_NoErrorsMeansNoErrorRecord(t *testing.T) {
	e, _ := newTestEvaluator(t, &fakeChatter{
		response: `{"success":true,"errors":[],"next_action":"","learnings":[]}`,
	})
	mem := memory.New()
	e.Evaluate(context.Background(), someResult(), mem)
	if len(mem.ErrorLog) != 0 {
		t.Errorf("expected empty error log, got %d records", len(mem.ErrorLog))
	}
}

func TestEvaluate_PersistsAfterVerdict(t *testing.T) {
	e, store := newTestEvaluator(t, &fakeChatter{
		response: `{"success":true,"errors":[],"next_action":"","learnings":["persisted"]}`,
	})
	mem := memory.New()
	if _, err := e.Evaluate(context.Background(), someResult(), mem); err != nil {
		t.Fatal(err)
	}
	reloaded, err := store.Load()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := reloaded.LearnedPatterns["persisted"]; !ok {
		t.Error("expected learning persisted to the state file")
	}
}

// --- Evaluate: degraded response ---

func TestEvaluate_ProseResponseDefaultsToRetry(t *testing.T) {
	// An unparseable verdict is treated as a failed step asking for a
	// retry, never a silent pass.
	e, _ := newTestEvaluator(t, &fakeChatter{response: "Looks good to me!"})
	eval, err := e.Evaluate(context.Background(), someResult(), memory.New())
	if err != nil {
		t.Fatalf("default path must not error: %v", err)
	}
	if eval.Success {
		t.Error("expected failure verdict for unparseable response")
	}
	if eval.NextAction != "retry" {
		t.Errorf("expected next_action retry, got %q", eval.NextAction)
	}
	if len(eval.Errors) == 0 || !strings.Contains(eval.Errors[0], "could not parse") {
		t.Errorf("expected parse-failure error, got %v", eval.Errors)
	}
}

func TestEvaluate_DefaultVerdictDoesNotMutateMemory(t *testing.T) {
	// The fake verdict carries no real learnings or errors to record.
	e, _ := newTestEvaluator(t, &fakeChatter{response: "no json"})
	mem := memory.New()
	e.Evaluate(context.Background(), someResult(), mem)
	if len(mem.LearnedPatterns) != 0 || len(mem.ErrorLog) != 0 {
		t.Error("expected memory untouched on parse failure")
	}
}

// --- Evaluate: transport failure ---

func TestEvaluate_TransportErrorPropagates(t *testing.T) {
	e, _ := newTestEvaluator(t, &fakeChatter{err: errors.New("timeout")})
	_, err := e.Evaluate(context.Background(), someResult(), memory.New())
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestFirstN_KeepsRuneBoundaries(t *testing.T) {
	// Truncation must not split a multi-byte rune: the parse-failure text
	// ends up in the error log and has to stay valid UTF-8.
	got := firstN("评估失败、无法解析", 4)
	if got != "评估失败..." {
		t.Errorf("expected %q, got %q", "评估失败...", got)
	}
	if !utf8.ValidString(got) {
		t.Errorf("expected valid UTF-8, got %q", got)
	}
}
