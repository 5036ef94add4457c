package pipeline

import (
	"errors"
	"testing"
	"time"

	"github.com/dgallion1/mindgest/internal/doctree"
)

func TestNewJob_Queued(t *testing.T) {
	job := NewJob(doctree.Document{Title: "Guide"}, DefaultOptions())
	if job.ID == "" {
		t.Fatal("expected a job ID")
	}
	if job.Status != StatusQueued {
		t.Errorf("expected status %q, got %q", StatusQueued, job.Status)
	}
	if job.Title != "Guide" {
		t.Errorf("expected title %q, got %q", "Guide", job.Title)
	}

	other := NewJob(doctree.Document{}, DefaultOptions())
	if other.ID == job.ID {
		t.Errorf("expected distinct job IDs, got %q twice", job.ID)
	}
}

func TestJob_StateTransitions(t *testing.T) {
	job := &Job{
		ID:        "test-1",
		Status:    StatusQueued,
		Phase:     "queued",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	transitions := []JobStatus{
		StatusEmbedding,
		StatusOutlining,
		StatusSelecting,
		StatusExpanding,
		StatusAssembling,
	}

	for _, status := range transitions {
		before := job.UpdatedAt
		// Small sleep to ensure time difference is detectable.
		time.Sleep(time.Millisecond)
		job.SetStatus(status, string(status))

		if job.Status != status {
			t.Errorf("expected status %q, got %q", status, job.Status)
		}
		if job.Phase != string(status) {
			t.Errorf("expected phase %q, got %q", status, job.Phase)
		}
		if !job.UpdatedAt.After(before) {
			t.Errorf("expected UpdatedAt to advance after SetStatus(%q)", status)
		}
		if status.Done() {
			t.Errorf("expected %q not to be terminal", status)
		}
	}
}

func TestJob_Complete(t *testing.T) {
	job := NewJob(doctree.Document{Title: "T", Blocks: []doctree.Block{{Text: "x"}}}, DefaultOptions())
	job.Complete(Result{Markdown: "# T", Meta: Meta{LeavesExpanded: 2}})

	snap := job.Snapshot()
	if snap.Status != StatusCompleted {
		t.Errorf("expected status %q, got %q", StatusCompleted, snap.Status)
	}
	if snap.Result == nil || snap.Result.Markdown != "# T" {
		t.Fatalf("expected result markdown %q, got %+v", "# T", snap.Result)
	}
	if snap.Result.Meta.LeavesExpanded != 2 {
		t.Errorf("expected 2 leaves expanded, got %d", snap.Result.Meta.LeavesExpanded)
	}
	if len(job.doc.Blocks) != 0 {
		t.Error("expected document to be released after completion")
	}
}

func TestJob_FailKeepsPhase(t *testing.T) {
	job := &Job{ID: "test-fail", Status: StatusOutlining, UpdatedAt: time.Now()}
	job.Fail(errors.New("oracle down"))

	snap := job.Snapshot()
	if snap.Status != StatusFailed {
		t.Errorf("expected status %q, got %q", StatusFailed, snap.Status)
	}
	if snap.Phase != string(StatusOutlining) {
		t.Errorf("expected phase %q, got %q", StatusOutlining, snap.Phase)
	}
	if len(snap.Errors) != 1 || snap.Errors[0] != "oracle down" {
		t.Errorf("expected errors [oracle down], got %v", snap.Errors)
	}
	if snap.Result != nil {
		t.Error("expected no result on a failed job")
	}
}

func TestJob_AddError(t *testing.T) {
	job := &Job{ID: "err-test", UpdatedAt: time.Now()}
	job.AddError("leaf 3 failed")
	job.AddError("leaf 7 failed")

	snap := job.Snapshot()
	if len(snap.Errors) != 2 {
		t.Fatalf("expected 2 errors, got %d", len(snap.Errors))
	}
	if snap.Errors[0] != "leaf 3 failed" {
		t.Errorf("expected first error %q, got %q", "leaf 3 failed", snap.Errors[0])
	}
}

func TestJob_SnapshotErrorsNotNil(t *testing.T) {
	// Snapshot should always return non-nil errors slice.
	job := &Job{ID: "snap-test", UpdatedAt: time.Now()}
	snap := job.Snapshot()
	if snap.Errors == nil {
		t.Error("expected non-nil errors slice in snapshot")
	}
	if len(snap.Errors) != 0 {
		t.Errorf("expected empty errors, got %d", len(snap.Errors))
	}
}

func TestJobStore_PutGet(t *testing.T) {
	store := NewJobStore(time.Hour)
	job := &Job{ID: "store-1", UpdatedAt: time.Now()}
	store.Put(job)

	got := store.Get("store-1")
	if got == nil {
		t.Fatal("expected to get job back")
	}
	if got.ID != "store-1" {
		t.Errorf("expected ID %q, got %q", "store-1", got.ID)
	}
	if store.Len() != 1 {
		t.Errorf("expected 1 job, got %d", store.Len())
	}
}

func TestJobStore_GetMissing(t *testing.T) {
	store := NewJobStore(time.Hour)
	if store.Get("nonexistent") != nil {
		t.Error("expected nil for missing job")
	}
}

func TestJobStore_TTLCleanup(t *testing.T) {
	store := NewJobStore(50 * time.Millisecond)

	expired := &Job{ID: "old", Status: StatusCompleted, UpdatedAt: time.Now()}
	running := &Job{ID: "running", Status: StatusExpanding, UpdatedAt: time.Now()}
	store.Put(expired)
	store.Put(running)

	// Wait for the TTL to pass.
	time.Sleep(100 * time.Millisecond)

	// Add a fresh job.
	fresh := &Job{ID: "new", Status: StatusFailed, UpdatedAt: time.Now()}
	store.Put(fresh)

	store.Cleanup()

	if store.Get("old") != nil {
		t.Error("expected expired job to be cleaned up")
	}
	if store.Get("new") == nil {
		t.Error("expected fresh job to survive cleanup")
	}
	if store.Get("running") == nil {
		t.Error("expected running job to survive cleanup")
	}
}
