package archive

import (
	"fmt"
	"testing"
	"time"

	"github.com/cwhuang/stride/internal/types"
)

func testReport(id string, ts time.Time) *types.TaskReport {
	return &types.TaskReport{
		Plan: types.TaskPlan{
			TaskID:      id,
			Description: "desc " + id,
			Steps:       []string{"a", "b"},
			Status:      types.StatusCompleted,
		},
		Steps: []types.StepRecord{
			{Index: 1, Step: "a", Result: types.StepResult{Response: "done a"}},
		},
		Success:   true,
		Timestamp: ts,
	}
}

func TestPutGet_RoundTripsReport(t *testing.T) {
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	want := testReport("task_1", time.Now().UTC())
	if err := a.Put(want); err != nil {
		t.Fatal(err)
	}
	got, err := a.Get("task_1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("expected report, got nil")
	}
	if got.Plan.Description != "desc task_1" || len(got.Steps) != 1 {
		t.Errorf("report did not round-trip: %+v", got)
	}
}

func TestGet_AbsentTaskReturnsNilNil(t *testing.T) {
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	got, err := a.Get("never_stored")
	if err != nil {
		t.Fatalf("absence is not an error: %v", err)
	}
	if got != nil {
		t.Error("expected nil report for absent task")
	}
}

func TestRecent_NewestFirst(t *testing.T) {
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	base := time.Now().UTC()
	for i := 0; i < 3; i++ {
		if err := a.Put(testReport(fmt.Sprintf("task_%d", i), base.Add(time.Duration(i)*time.Second))); err != nil {
			t.Fatal(err)
		}
	}
	got, err := a.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 reports, got %d", len(got))
	}
	if got[0].Plan.TaskID != "task_2" || got[1].Plan.TaskID != "task_1" {
		t.Errorf("expected newest first, got %s then %s", got[0].Plan.TaskID, got[1].Plan.TaskID)
	}
}

func TestNilArchive_AllOpsAreSafe(t *testing.T) {
	// An agent without an archive uses a nil *Archive throughout.
	var a *Archive
	if err := a.Put(testReport("x", time.Now())); err != nil {
		t.Errorf("Put on nil: %v", err)
	}
	if got, err := a.Get("x"); err != nil || got != nil {
		t.Errorf("Get on nil: %v, %v", got, err)
	}
	if got, err := a.Recent(5); err != nil || got != nil {
		t.Errorf("Recent on nil: %v, %v", got, err)
	}
	if err := a.Close(); err != nil {
		t.Errorf("Close on nil: %v", err)
	}
}

func TestPut_OverwritesSameTaskID(t *testing.T) {
	a, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	first := testReport("task_1", time.Now().UTC())
	a.Put(first)
	second := testReport("task_1", time.Now().UTC().Add(time.Second))
	second.Plan.Description = "updated"
	a.Put(second)

	got, err := a.Get("task_1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Plan.Description != "updated" {
		t.Error("expected latest report for the task ID")
	}
}
