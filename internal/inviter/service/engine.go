package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/directory"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/progress"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/recipients"
	"github.com/aussiebroadwan/bulkinvite/pkg/slogx"
)

var (
	ErrAuthentication    = errors.New("login to directory failed")
	ErrAccountResolution = errors.New("could not resolve acting account")
	ErrMemberListing     = errors.New("could not list account members")
)

// Directory is the remote membership directory as the engine sees it.
// *directory.Client satisfies it.
type Directory interface {
	Authenticate(ctx context.Context, creds domain.Credentials) (string, error)
	ResolveAccount(ctx context.Context, token string) (domain.AccountIdentity, error)
	ListInvites(ctx context.Context, token string) ([]domain.ExistingInvite, error)
	ListMembers(ctx context.Context, token, accountID string) ([]domain.ExistingMember, error)
	DeleteInvite(ctx context.Context, token, inviteID string) error
	CreateInvite(ctx context.Context, token string, account domain.AccountIdentity, roleID string, r domain.Recipient) (domain.InviteReceipt, error)
}

// Source yields the recipients of one job in input order.
type Source interface {
	Next() (recipients.Record, error)
	Consumed() int
}

// Result is the outcome of one engine run.
type Result struct {
	domain.Counters

	State domain.JobState
	Err   error

	// Suppressed is the size of the suppression set when the job ended.
	Suppressed int
}

// Engine reconciles one recipient list against the directory.
type Engine struct {
	// NewDirectory builds the directory client for a job's host and version.
	NewDirectory func(cfg domain.JobConfig) Directory

	// Logger receives every progress line. Falls back to the context logger.
	Logger *slog.Logger

	// OnState, when set, is called on every state change and after every
	// dispatched record. It runs on the engine's goroutine.
	OnState func(domain.JobState, domain.Counters)
}

// DirectoryFactory returns a NewDirectory func that talks to the real
// directory over scheme (https unless overridden) with the given timeout.
func DirectoryFactory(scheme string, timeout time.Duration) func(domain.JobConfig) Directory {
	return func(cfg domain.JobConfig) Directory {
		return directory.NewClient(directory.BaseURL(scheme, cfg.APIHost, cfg.APIVersion), timeout)
	}
}

// run holds the state of a single job.
type run struct {
	cfg      domain.JobConfig
	dir      Directory
	log      *jobLog
	onState  func(domain.JobState, domain.Counters)
	set      *SuppressionSet
	state    domain.JobState
	counters domain.Counters
}

func (r *run) enter(s domain.JobState) {
	r.state = s
	r.notify()
}

func (r *run) notify() {
	if r.onState != nil {
		r.onState(r.state, r.counters)
	}
}

// finish records the terminal state and writes the terminal line.
func (r *run) finish(s domain.JobState, err error) Result {
	r.log.Terminal(progress.Finished(r.counters.Processed))
	r.enter(s)
	return Result{State: s, Counters: r.counters, Err: err, Suppressed: r.set.Len()}
}

// Run executes one job to completion. It never panics on remote failures;
// the outcome is carried in Result and the last progress line.
func (e *Engine) Run(ctx context.Context, cfg domain.JobConfig, src Source) Result {
	logger := e.Logger
	if logger == nil {
		logger = slogx.FromContext(ctx)
	}
	ctx = slogx.WithContext(ctx, logger)

	r := &run{
		cfg:     cfg.WithDefaults(),
		dir:     e.NewDirectory(cfg.WithDefaults()),
		log:     &jobLog{ctx: ctx, logger: logger},
		onState: e.OnState,
		set:     NewSuppressionSet(),
		state:   domain.JobStateIdle,
	}

	// 1. Authenticate.
	r.enter(domain.JobStateAuthenticating)
	r.log.Debugf("logging into %s", r.cfg.APIHost)
	token, err := r.dir.Authenticate(ctx, r.cfg.Credentials)
	if err != nil {
		r.log.Error("halting processing due to login failure")
		return r.finish(r.stopState(ctx), fmt.Errorf("%w: %w", ErrAuthentication, err))
	}
	if exp, ok := directory.TokenExpiry(token); ok {
		r.log.Debugf("access token expires %s", exp.UTC().Format(time.RFC3339))
	}

	// 2. Resolve who we are acting as.
	r.enter(domain.JobStateResolvingAccount)
	who, err := r.dir.ResolveAccount(ctx, token)
	if err != nil {
		r.log.Error("halting processing missing account ID")
		return r.finish(r.stopState(ctx), fmt.Errorf("%w: %w", ErrAccountResolution, err))
	}

	if r.cfg.DryRun {
		r.log.Info("performing dry run simulation only")
	}

	// 3. Retire invitations that were already accepted.
	r.enter(domain.JobStateCleaningUp)
	r.log.Infof("deleting accepted invitations for users in account: %s", who.AccountID)
	if err := r.cleanup(ctx, token, who); err != nil {
		return r.finish(domain.JobStateCancelled, err)
	}

	// 4. Build the suppression set from fresh listings.
	r.log.Infof("getting existing account members for account: %s", who.AccountID)
	members, err := r.dir.ListMembers(ctx, token, who.AccountID)
	if err != nil {
		r.log.Error("halting processing, unable to list account members")
		return r.finish(r.stopState(ctx), fmt.Errorf("%w: %w", ErrMemberListing, err))
	}

	r.set.AddMembers(members)

	r.log.Infof("sending invites with user_id: %s, account id: %s", who.UserID, who.AccountID)
	invites, err := r.dir.ListInvites(ctx, token)
	if err != nil {
		r.log.Warn("no existing invitations")
	} else {
		r.set.AddPendingInvites(invites)
	}

	// 5. Dispatch.
	r.enter(domain.JobStateDispatching)
	if err := r.dispatch(ctx, token, who, src); err != nil {
		r.log.Warn("processing cancelled")
		return r.finish(domain.JobStateCancelled, err)
	}

	// 6. Done.
	return r.finish(domain.JobStateCompleted, nil)
}

// stopState is the terminal state for a fatal error: cancelled when the
// error came from the job being cancelled, failed otherwise.
func (r *run) stopState(ctx context.Context) domain.JobState {
	if ctx.Err() != nil {
		return domain.JobStateCancelled
	}
	return domain.JobStateFailed
}

// cleanup deletes accepted invitations issued by the acting account. Listing
// and deletion failures are logged and never stop the job; only
// cancellation does.
func (r *run) cleanup(ctx context.Context, token string, who domain.AccountIdentity) error {
	invites, err := r.dir.ListInvites(ctx, token)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.log.Warn("unable to list invitations, skipping cleanup")
		return nil
	}

	for _, in := range invites {
		if in.Status != domain.InviteStatusAccepted || in.InviterAccountID != who.AccountID {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if r.cfg.DryRun {
			r.log.Infof("dry run - would have deleted accepted invitation for %s", in.InviteeEmail)
			r.counters.Deleted++
			continue
		}

		r.log.Infof("deleting accepted invitation for %s", in.InviteeEmail)
		if err := r.dir.DeleteInvite(ctx, token, in.InviteID); err != nil {
			r.counters.Failures++
			continue
		}
		r.counters.Deleted++
	}
	r.notify()
	return nil
}

// dispatch walks the source in order. It returns an error only when the job
// was cancelled; a bad row ends the loop but still completes the job.
func (r *run) dispatch(
	ctx context.Context,
	token string,
	who domain.AccountIdentity,
	src Source,
) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := src.Next()
		r.counters.Processed = src.Consumed()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			r.log.Errorf("error reading CSV: %v", err)
			return nil
		}
		if rec.Header {
			continue
		}

		name := rec.FirstName + " " + rec.LastName
		if r.set.Contains(rec.Email) {
			r.log.Infof("invitation for %s: %s already processed", name, rec.Email)
			r.counters.Skipped++
			r.notify()
			continue
		}

		if r.cfg.DryRun {
			r.log.Infof("dry run - would have processed invitation for %s: %s", name, rec.Email)
			r.counters.Invited++
		} else {
			r.log.Infof("processing invitation for %s: %s", name, rec.Email)
			if _, err := r.dir.CreateInvite(ctx, token, who, r.cfg.RoleID, rec.Recipient); err != nil {
				r.counters.Failures++
			} else {
				r.counters.Invited++
			}
		}
		r.set.Add(rec.Email)
		r.notify()

		if err := sleep(ctx, r.cfg.Delay); err != nil {
			return err
		}
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// jobLog writes printf-style progress lines.
type jobLog struct {
	ctx    context.Context
	logger *slog.Logger
}

func (l *jobLog) log(level slog.Level, msg string) {
	l.logger.Log(l.ctx, level, msg)
}

func (l *jobLog) Debugf(format string, args ...any) { l.log(slog.LevelDebug, fmt.Sprintf(format, args...)) }
func (l *jobLog) Infof(format string, args ...any)  { l.log(slog.LevelInfo, fmt.Sprintf(format, args...)) }
func (l *jobLog) Errorf(format string, args ...any) { l.log(slog.LevelError, fmt.Sprintf(format, args...)) }
func (l *jobLog) Info(msg string)                   { l.log(slog.LevelInfo, msg) }
func (l *jobLog) Warn(msg string)                   { l.log(slog.LevelWarn, msg) }
func (l *jobLog) Error(msg string)                  { l.log(slog.LevelError, msg) }

// Terminal writes the line that ends the job.
func (l *jobLog) Terminal(msg string) {
	l.logger.LogAttrs(l.ctx, slog.LevelInfo, msg, progress.TerminalAttr())
}
