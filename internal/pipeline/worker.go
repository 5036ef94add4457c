package pipeline

import (
	"context"
	"log/slog"
	"time"
)

// Worker runs queued jobs one at a time.
type Worker struct {
	runner  Runner
	log     *slog.Logger
	timeout time.Duration
}

func NewWorker(runner Runner, log *slog.Logger, timeout time.Duration) *Worker {
	return &Worker{runner: runner, log: log, timeout: timeout}
}

// Process builds the job's outline, tracking each phase on the job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID)
	if w.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.timeout)
		defer cancel()
	}

	opts := job.opts
	opts.OnPhase = func(s JobStatus) {
		job.SetStatus(s, string(s))
	}
	opts.OnWarning = job.AddError

	log.Info("job started", "title", job.Title, "blocks", len(job.doc.Blocks))
	res, err := w.runner.Run(ctx, job.doc, opts)
	if err != nil {
		log.Error("job failed", "error", err)
		job.Fail(err)
		return
	}
	job.Complete(res)
	log.Info("job completed",
		"leaves_expanded", res.Meta.LeavesExpanded,
		"duration_ms", res.Meta.DurationMS,
	)
}
