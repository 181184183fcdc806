package domain

import "time"

// JobState is a step in the reconciliation state machine.
type JobState string

const (
	JobStateIdle             JobState = "idle"
	JobStateAuthenticating   JobState = "authenticating"
	JobStateResolvingAccount JobState = "resolving_account"
	JobStateCleaningUp       JobState = "cleaning_up"
	JobStateDispatching      JobState = "dispatching"
	JobStateCompleted        JobState = "completed"
	JobStateFailed           JobState = "failed"
	JobStateCancelled        JobState = "cancelled"
)

// Terminal reports whether the job has finished, one way or another.
func (s JobState) Terminal() bool {
	switch s {
	case JobStateCompleted, JobStateFailed, JobStateCancelled:
		return true
	}
	return false
}

// Active reports whether a job in this state holds the single job slot.
func (s JobState) Active() bool {
	return s != JobStateIdle && s != "" && !s.Terminal()
}

// Counters tally what a job has done so far.
type Counters struct {
	// Processed counts every input row read, the header row included.
	Processed int
	Invited   int
	Skipped   int
	Deleted   int
	Failures  int
}

// JobStatus is the structured view of a job, independent of its log text.
type JobStatus struct {
	Counters

	ID         string
	State      JobState
	DryRun     bool
	SourceName string
	ListDigest string
	StartedAt  time.Time
	FinishedAt time.Time
	Error      string
}

// Job is the persisted record of a run.
type Job struct {
	JobStatus

	Username   string
	APIHost    string
	APIVersion string
	RoleID     string
	Delay      time.Duration
}
