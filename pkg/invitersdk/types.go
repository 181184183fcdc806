package invitersdk

import (
	"io"
	"time"
)

// Sentinel marks the terminal line of every job's progress log.
const Sentinel = "finished processing"

// Header names used by the progress endpoint.
const (
	HeaderProgressOffset   = "X-Progress-Offset"
	HeaderProgressJob      = "X-Progress-Job"
	HeaderProgressFinished = "X-Progress-Finished"
)

// ErrorResponse is the JSON body of every error the service returns.
type ErrorResponse struct {
	// Error is a machine readable code (e.g., "job_running", "invalid_request")
	Error string `json:"error"`

	// ErrorDescription is a human-readable description of the error
	ErrorDescription string `json:"error_description"`
}

// HealthResponse is returned by /livez and /readyz.
type HealthResponse struct {
	Status  string        `json:"status"`
	Uptime  string        `json:"uptime"`
	Version string        `json:"version"`
	Checks  *HealthChecks `json:"checks,omitempty"`
}

// HealthChecks reports dependency health on /readyz.
type HealthChecks struct {
	Database string `json:"database"`
	Staging  string `json:"staging"`
}

// JobStatus is the structured state of a job.
type JobStatus struct {
	ID         string     `json:"id"`
	State      string     `json:"state"`
	DryRun     bool       `json:"dry_run"`
	SourceName string     `json:"source_name"`
	ListDigest string     `json:"list_digest,omitempty"`
	Processed  int        `json:"processed"`
	Invited    int        `json:"invited"`
	Skipped    int        `json:"skipped"`
	Deleted    int        `json:"deleted"`
	Failures   int        `json:"failures"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Terminal reports whether the job has stopped.
func (s JobStatus) Terminal() bool {
	switch s.State {
	case "completed", "failed", "cancelled":
		return true
	}
	return false
}

// Job is a job history record.
type Job struct {
	JobStatus

	Username   string `json:"username"`
	APIHost    string `json:"api_host"`
	APIVersion string `json:"api_version"`
	RoleID     string `json:"role_id"`
	DelayMS    int64  `json:"delay_ms"`
}

// JobList is the body of GET /v1/jobs.
type JobList struct {
	Jobs []Job `json:"jobs"`
}

// Progress is a slice of the progress log.
type Progress struct {
	// Lines are the lines after the requested offset.
	Lines []string

	// Offset is the offset to request next.
	Offset int

	// JobID is the job that wrote the log. It changes when a new job starts.
	JobID string

	// Finished is set once that job has ended; Lines then reach the end of
	// its log.
	Finished bool
}

// SubmitRequest describes a new job. Empty directory settings fall back to
// the server's defaults.
type SubmitRequest struct {
	Username   string
	Password   string
	APIHost    string
	APIVersion string
	RoleID     string
	DryRun     bool
	DelayMS    int

	// FileName is reported back in logs and history.
	FileName string
	File     io.Reader
}
