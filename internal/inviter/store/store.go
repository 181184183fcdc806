package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers implement it and
// expose sub-repositories per concern.
type Store interface {
	Jobs() Jobs

	ApplyMigrations() error

	// Close releases any underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

type Jobs interface {
	// CreateJob inserts a new job record (id is a ULID minted by the runner).
	CreateJob(ctx context.Context, job domain.Job) error

	// UpdateJob overwrites state, counters, error and finished_at.
	UpdateJob(ctx context.Context, job domain.Job) error

	// GetJob returns a job by id.
	GetJob(ctx context.Context, id string) (domain.Job, error)

	// ListJobs returns up to limit jobs, newest first.
	ListJobs(ctx context.Context, limit int) ([]domain.Job, error)

	// MarkAbandoned fails every job still recorded as active. A restarted
	// process never resumes a job, so those records are stale.
	MarkAbandoned(ctx context.Context, at time.Time) (int64, error)

	// DeleteFinishedBefore is housekeeping for job history.
	DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
