package pipeline

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/mindgest/internal/doctree"
)

// JobStatus represents the state of an outline job.
type JobStatus string

const (
	StatusQueued     JobStatus = "queued"
	StatusEmbedding  JobStatus = "embedding"
	StatusOutlining  JobStatus = "outlining"
	StatusSelecting  JobStatus = "selecting"
	StatusExpanding  JobStatus = "expanding"
	StatusAssembling JobStatus = "assembling"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Done reports whether the status is terminal.
func (s JobStatus) Done() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job tracks one asynchronous outline build.
type Job struct {
	mu sync.Mutex

	ID     string    `json:"job_id"`
	Status JobStatus `json:"status"`
	Phase  string    `json:"phase"`
	Title  string    `json:"title"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Internal: not serialized.
	doc    doctree.Document
	opts   Options
	result *Result
	errors []string
}

// NewJob creates a queued job for doc.
func NewJob(doc doctree.Document, opts Options) *Job {
	now := time.Now()
	return &Job{
		ID:        uuid.NewString(),
		Status:    StatusQueued,
		Phase:     "queued",
		Title:     doc.Title,
		CreatedAt: now,
		UpdatedAt: now,
		doc:       doc,
		opts:      opts,
	}
}

// JobStore is a thread-safe in-memory job registry with TTL eviction.
type JobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
	ttl  time.Duration
}

func NewJobStore(ttl time.Duration) *JobStore {
	return &JobStore{
		jobs: make(map[string]*Job),
		ttl:  ttl,
	}
}

func (s *JobStore) Put(job *Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
}

func (s *JobStore) Get(id string) *Job {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.jobs[id]
}

// Len returns the number of tracked jobs.
func (s *JobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.jobs)
}

// Cleanup removes finished jobs not touched within the TTL. Running jobs are
// kept however old they are.
func (s *JobStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, job := range s.jobs {
		snap := job.Snapshot()
		if snap.Status.Done() && now.Sub(snap.UpdatedAt) > s.ttl {
			delete(s.jobs, id)
		}
	}
}

// SetStatus updates job status atomically.
func (j *Job) SetStatus(status JobStatus, phase string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Status = status
	j.Phase = phase
	j.UpdatedAt = time.Now()
}

// AddError records an error.
func (j *Job) AddError(err string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err)
	j.UpdatedAt = time.Now()
}

// Complete stores the result and marks the job completed.
func (j *Job) Complete(res Result) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.result = &res
	j.doc = doctree.Document{}
	j.Status = StatusCompleted
	j.Phase = "done"
	j.UpdatedAt = time.Now()
}

// Fail records err and marks the job failed in the current phase.
func (j *Job) Fail(err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.errors = append(j.errors, err.Error())
	j.doc = doctree.Document{}
	j.Phase = string(j.Status)
	j.Status = StatusFailed
	j.UpdatedAt = time.Now()
}

// JobSnapshot is a read-only, JSON-safe copy of job state.
type JobSnapshot struct {
	ID        string    `json:"job_id"`
	Status    JobStatus `json:"status"`
	Phase     string    `json:"phase"`
	Title     string    `json:"title"`
	Errors    []string  `json:"errors"`
	Result    *Result   `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Snapshot returns a JSON-safe copy of the job state.
func (j *Job) Snapshot() JobSnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	errs := append([]string{}, j.errors...)
	var res *Result
	if j.result != nil {
		r := *j.result
		res = &r
	}
	return JobSnapshot{
		ID:        j.ID,
		Status:    j.Status,
		Phase:     j.Phase,
		Title:     j.Title,
		Errors:    errs,
		Result:    res,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}
