package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/progress"
	"github.com/aussiebroadwan/bulkinvite/pkg/idx"
	"github.com/aussiebroadwan/bulkinvite/pkg/slogx"
)

var ErrJobRunning = errors.New("a job is already running")

// JobRecorder persists job history. store.Jobs satisfies it.
type JobRecorder interface {
	CreateJob(ctx context.Context, job domain.Job) error
	UpdateJob(ctx context.Context, job domain.Job) error
}

// Runner owns the single job slot. At most one engine run is in flight;
// submissions while it runs are rejected, never queued.
type Runner struct {
	Engine *Engine
	Sink   *progress.Sink
	Jobs   JobRecorder
	Logger *slog.Logger

	// ProgressLevel is the lowest level written to the progress log.
	ProgressLevel slog.Leveler

	mu     sync.Mutex
	active *activeJob
	last   *domain.Job
}

type activeJob struct {
	job    domain.Job
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner wires a runner. jobs may be nil when history is not kept.
func NewRunner(engine *Engine, sink *progress.Sink, jobs JobRecorder, logger *slog.Logger) *Runner {
	return &Runner{
		Engine:        engine,
		Sink:          sink,
		Jobs:          jobs,
		Logger:        logger,
		ProgressLevel: slog.LevelInfo,
	}
}

// Submit starts a job in the background and returns immediately. On
// ErrJobRunning nothing is started and src still belongs to the caller;
// otherwise the runner closes src (when it is an io.Closer) once the job ends.
func (r *Runner) Submit(ctx context.Context, cfg domain.JobConfig, src Source) (domain.JobStatus, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return domain.JobStatus{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return domain.JobStatus{}, ErrJobRunning
	}

	job := domain.Job{
		JobStatus: domain.JobStatus{
			ID:         idx.New().String(),
			State:      domain.JobStateIdle,
			DryRun:     cfg.DryRun,
			SourceName: cfg.SourceName,
			StartedAt:  time.Now().UTC(),
		},
		Username:   cfg.Credentials.Username,
		APIHost:    cfg.APIHost,
		APIVersion: cfg.APIVersion,
		RoleID:     cfg.RoleID,
		Delay:      cfg.Delay,
	}
	if d, ok := src.(interface{ Digest() string }); ok {
		job.ListDigest = d.Digest()
	}

	if err := r.Sink.Reset(); err != nil {
		r.logger().Warn("failed to reset progress log", "error", err)
	}

	logger := slog.New(slogx.Fanout(
		r.logger().Handler(),
		r.Sink.Handler(r.progressLevel()),
	)).With("job_id", job.ID)

	logger.Info("received " + cfg.SourceName)
	if l, ok := src.(interface{ Lines() int }); ok {
		logger.Info(fmt.Sprintf("processing %d lines", l.Lines()))
	}
	logger.Info("starting list processing")

	if r.Jobs != nil {
		if err := r.Jobs.CreateJob(ctx, job); err != nil {
			logger.Warn("failed to record job", "error", err)
		}
	}

	jobCtx, cancel := context.WithCancel(context.Background())
	jobCtx = slogx.WithContext(jobCtx, logger)

	a := &activeJob{job: job, cancel: cancel, done: make(chan struct{})}
	r.active = a

	go r.work(jobCtx, a, cfg, src, logger)

	return job.JobStatus, nil
}

func (r *Runner) work(ctx context.Context, a *activeJob, cfg domain.JobConfig, src Source, logger *slog.Logger) {
	defer close(a.done)
	defer a.cancel()

	eng := *r.Engine
	eng.Logger = logger
	eng.OnState = func(s domain.JobState, c domain.Counters) {
		r.mu.Lock()
		prev := a.job.State
		a.job.State = s
		a.job.Counters = c
		job := a.job
		r.mu.Unlock()

		if s != prev {
			r.persist(job)
		}
	}

	res := eng.Run(ctx, cfg, src)

	if c, ok := src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			logger.Warn("failed to release staged list", "error", err)
		}
	}

	r.mu.Lock()
	a.job.State = res.State
	a.job.Counters = res.Counters
	a.job.FinishedAt = time.Now().UTC()
	if res.Err != nil {
		a.job.Error = res.Err.Error()
	}
	job := a.job
	r.mu.Unlock()

	// The record is final before the slot frees up.
	r.persist(job)

	r.mu.Lock()
	r.last = &job
	r.active = nil
	r.mu.Unlock()

	r.logger().Info("job finished",
		"job_id", job.ID,
		"state", job.State,
		"processed", job.Processed,
		"invited", job.Invited,
		"skipped", job.Skipped,
		"deleted", job.Deleted,
		"failures", job.Failures,
	)
}

func (r *Runner) persist(job domain.Job) {
	if r.Jobs == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Jobs.UpdateJob(ctx, job); err != nil {
		r.logger().Warn("failed to update job record", "job_id", job.ID, "error", err)
	}
}

// Status returns the running job, or else the last finished one. The bool
// is false when no job has been submitted since start.
func (r *Runner) Status() (domain.JobStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch {
	case r.active != nil:
		return r.active.job.JobStatus, true
	case r.last != nil:
		return r.last.JobStatus, true
	}
	return domain.JobStatus{}, false
}

// ProgressPage is a read of the progress log together with the job that
// wrote it.
type ProgressPage struct {
	JobID    string
	Lines    []string
	Offset   int
	Finished bool
}

// Progress returns the progress lines after offset. Finished comes from the
// job's state, which turns terminal only after the terminal line is written,
// so a finished page always holds the whole log.
func (r *Runner) Progress(offset int) ProgressPage {
	r.mu.Lock()
	defer r.mu.Unlock()

	var page ProgressPage
	switch {
	case r.active != nil:
		page.JobID = r.active.job.ID
		page.Finished = r.active.job.State.Terminal()
	case r.last != nil:
		page.JobID = r.last.ID
		page.Finished = true
	}
	page.Lines, page.Offset = r.Sink.Lines(offset)
	return page
}

// Active reports whether the job slot is taken.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active != nil
}

// Cancel asks the running job to stop. It reports false when nothing runs.
func (r *Runner) Cancel() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return false
	}
	r.active.cancel()
	return true
}

// Wait blocks until the running job, if any, has finished.
func (r *Runner) Wait() {
	r.mu.Lock()
	a := r.active
	r.mu.Unlock()

	if a != nil {
		<-a.done
	}
}

// Shutdown cancels the running job and waits for it, up to ctx.
func (r *Runner) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	a := r.active
	r.mu.Unlock()

	if a == nil {
		return nil
	}
	a.cancel()

	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return slog.Default()
	}
	return r.Logger
}

func (r *Runner) progressLevel() slog.Leveler {
	if r.ProgressLevel == nil {
		return slog.LevelInfo
	}
	return r.ProgressLevel
}
