package types

import "testing"

// --- StepRecord.Failed ---

func TestStepRecordFailed_SuccessIsNotFailed(t *testing.T) {
	// A step whose first verdict passed is never failed.
	rec := StepRecord{Evaluation: Evaluation{Success: true}}
	if rec.Failed() {
		t.Error("expected Failed()=false for successful verdict")
	}
}

func TestStepRecordFailed_FailureWithoutRetryIsFailed(t *testing.T) {
	// A failed verdict with no retry record stays failed.
	rec := StepRecord{Evaluation: Evaluation{Success: false}}
	if !rec.Failed() {
		t.Error("expected Failed()=true for failed verdict without retry")
	}
}

func TestStepRecordFailed_FixedRetryClearsFailure(t *testing.T) {
	// The retry's verdict supersedes the original failure.
	rec := StepRecord{
		Evaluation: Evaluation{Success: false},
		Retry:      &RetryRecord{Evaluation: Evaluation{Success: true}},
	}
	if rec.Failed() {
		t.Error("expected Failed()=false when the retry verdict passed")
	}
}

func TestStepRecordFailed_FailedRetryStaysFailed(t *testing.T) {
	// Failure on both attempts is a failed step.
	rec := StepRecord{
		Evaluation: Evaluation{Success: false},
		Retry:      &RetryRecord{Evaluation: Evaluation{Success: false}},
	}
	if !rec.Failed() {
		t.Error("expected Failed()=true when both verdicts failed")
	}
}

func TestStepRecordFailed_SuccessIgnoresRetryVerdict(t *testing.T) {
	// A passing first verdict is final even if a stale retry record exists.
	rec := StepRecord{
		Evaluation: Evaluation{Success: true},
		Retry:      &RetryRecord{Evaluation: Evaluation{Success: false}},
	}
	if rec.Failed() {
		t.Error("expected Failed()=false when the first verdict passed")
	}
}
