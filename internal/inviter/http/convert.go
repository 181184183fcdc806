package http

import (
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
)

func toStatusResponse(s domain.JobStatus) invitersdk.JobStatus {
	out := invitersdk.JobStatus{
		ID:         s.ID,
		State:      string(s.State),
		DryRun:     s.DryRun,
		SourceName: s.SourceName,
		ListDigest: s.ListDigest,
		Processed:  s.Processed,
		Invited:    s.Invited,
		Skipped:    s.Skipped,
		Deleted:    s.Deleted,
		Failures:   s.Failures,
		StartedAt:  s.StartedAt,
		Error:      s.Error,
	}
	if !s.FinishedAt.IsZero() {
		finished := s.FinishedAt
		out.FinishedAt = &finished
	}
	return out
}

func toJobResponse(j domain.Job) invitersdk.Job {
	return invitersdk.Job{
		JobStatus:  toStatusResponse(j.JobStatus),
		Username:   j.Username,
		APIHost:    j.APIHost,
		APIVersion: j.APIVersion,
		RoleID:     j.RoleID,
		DelayMS:    j.Delay.Milliseconds(),
	}
}
