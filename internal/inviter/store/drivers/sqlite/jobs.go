package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/store"
)

const jobColumns = `id, state, dry_run, source_name, list_digest, username, api_host,
	api_version, role_id, delay_ms, processed, invited, skipped, deleted, failures,
	error, started_at, finished_at`

type jobsRepo struct {
	q querier
}

func (r *jobsRepo) CreateJob(ctx context.Context, job domain.Job) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO jobs (`+jobColumns+`, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		string(job.State),
		job.DryRun,
		job.SourceName,
		job.ListDigest,
		job.Username,
		job.APIHost,
		job.APIVersion,
		job.RoleID,
		job.Delay.Milliseconds(),
		job.Processed,
		job.Invited,
		job.Skipped,
		job.Deleted,
		job.Failures,
		job.Error,
		toMillis(job.StartedAt),
		mapOptionalTime(job.FinishedAt),
		toMillis(time.Now()),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return store.ErrAlreadyExists
	}
	return err
}

func (r *jobsRepo) UpdateJob(ctx context.Context, job domain.Job) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE jobs
		SET state = ?, processed = ?, invited = ?, skipped = ?, deleted = ?,
		    failures = ?, error = ?, finished_at = ?, updated_at = ?
		WHERE id = ?`,
		string(job.State),
		job.Processed,
		job.Invited,
		job.Skipped,
		job.Deleted,
		job.Failures,
		job.Error,
		mapOptionalTime(job.FinishedAt),
		toMillis(time.Now()),
		job.ID,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *jobsRepo) GetJob(ctx context.Context, id string) (domain.Job, error) {
	row := r.q.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if err != nil {
		return domain.Job{}, mapNotFound(err)
	}
	return job, nil
}

func (r *jobsRepo) ListJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 20
	}

	// ULIDs sort by creation time.
	rows, err := r.q.QueryContext(ctx, `SELECT `+jobColumns+` FROM jobs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

func (r *jobsRepo) MarkAbandoned(ctx context.Context, at time.Time) (int64, error) {
	active := []domain.JobState{
		domain.JobStateIdle,
		domain.JobStateAuthenticating,
		domain.JobStateResolvingAccount,
		domain.JobStateCleaningUp,
		domain.JobStateDispatching,
	}
	args := []any{string(domain.JobStateFailed), "abandoned: process restarted", toMillis(at), toMillis(at)}
	for _, s := range active {
		args = append(args, string(s))
	}

	res, err := r.q.ExecContext(ctx, fmt.Sprintf(`
		UPDATE jobs
		SET state = ?, error = ?, finished_at = ?, updated_at = ?
		WHERE state IN (%s)`, placeholders(len(active))), args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *jobsRepo) DeleteFinishedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.q.ExecContext(ctx,
		`DELETE FROM jobs WHERE finished_at IS NOT NULL AND finished_at < ?`, toMillis(cutoff))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (domain.Job, error) {
	var (
		job        domain.Job
		state      string
		delayMS    int64
		startedAt  int64
		finishedAt sql.NullInt64
	)
	err := row.Scan(
		&job.ID,
		&state,
		&job.DryRun,
		&job.SourceName,
		&job.ListDigest,
		&job.Username,
		&job.APIHost,
		&job.APIVersion,
		&job.RoleID,
		&delayMS,
		&job.Processed,
		&job.Invited,
		&job.Skipped,
		&job.Deleted,
		&job.Failures,
		&job.Error,
		&startedAt,
		&finishedAt,
	)
	if err != nil {
		return domain.Job{}, err
	}

	job.State = domain.JobState(state)
	job.Delay = time.Duration(delayMS) * time.Millisecond
	job.StartedAt = fromMillis(startedAt)
	job.FinishedAt = mapNullTime(finishedAt)
	return job, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
