package service_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/progress"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/recipients"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/service"
)

var errRemote = errors.New("remote said no")

// fakeDirectory is an in-memory Directory that records every call.
type fakeDirectory struct {
	mu sync.Mutex

	account        domain.AccountIdentity
	members        []domain.ExistingMember
	invites        []domain.ExistingInvite
	authErr        error
	resolveErr     error
	listInvitesErr error
	listMembersErr error
	deleteErr      error
	createErr      map[string]error

	// gate, when set, blocks Authenticate until closed or ctx is done.
	gate chan struct{}

	calls   []string
	created []domain.Recipient
	deleted []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		account:   domain.AccountIdentity{UserID: "u-1", AccountID: "a-1"},
		createErr: map[string]error{},
	}
}

func (f *fakeDirectory) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeDirectory) Authenticate(ctx context.Context, _ domain.Credentials) (string, error) {
	f.record("authenticate")
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if f.authErr != nil {
		return "", f.authErr
	}
	return "token", nil
}

func (f *fakeDirectory) ResolveAccount(context.Context, string) (domain.AccountIdentity, error) {
	f.record("resolve")
	return f.account, f.resolveErr
}

func (f *fakeDirectory) ListInvites(context.Context, string) ([]domain.ExistingInvite, error) {
	f.record("list_invites")
	if f.listInvitesErr != nil {
		return nil, f.listInvitesErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ExistingInvite(nil), f.invites...), nil
}

func (f *fakeDirectory) ListMembers(context.Context, string, string) ([]domain.ExistingMember, error) {
	f.record("list_members")
	if f.listMembersErr != nil {
		return nil, f.listMembersErr
	}
	return f.members, nil
}

func (f *fakeDirectory) DeleteInvite(_ context.Context, _ string, id string) error {
	f.record("delete")
	if f.deleteErr != nil {
		return f.deleteErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeDirectory) CreateInvite(_ context.Context, _ string, _ domain.AccountIdentity, _ string, r domain.Recipient) (domain.InviteReceipt, error) {
	f.record("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, r)
	if err := f.createErr[r.Email]; err != nil {
		return domain.InviteReceipt{}, err
	}
	return domain.InviteReceipt{InviteIDs: []string{"new-" + r.Email}}, nil
}

func (f *fakeDirectory) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeDirectory) CreatedEmails() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.created {
		out = append(out, r.Email)
	}
	return out
}

func (f *fakeDirectory) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

func newEngine(dir service.Directory, sink *progress.Sink) *service.Engine {
	return &service.Engine{
		NewDirectory: func(domain.JobConfig) service.Directory { return dir },
		Logger:       slog.New(sink.Handler(slog.LevelInfo)),
	}
}

func jobConfig() domain.JobConfig {
	return domain.JobConfig{
		Credentials: domain.Credentials{Username: "ops@example.com", Password: "secret"},
		SourceName:  "list.csv",
	}.WithDefaults()
}

func csvSource(rows ...string) *recipients.Reader {
	return recipients.NewReader(strings.NewReader(strings.Join(rows, "\n") + "\n"))
}

func lastLine(t *testing.T, sink *progress.Sink) string {
	t.Helper()
	lines, _ := sink.Lines(0)
	if len(lines) == 0 {
		t.Fatal("progress log is empty")
	}
	return lines[len(lines)-1]
}

// closingSource records whether the runner released it.
type closingSource struct {
	*recipients.Reader

	mu     sync.Mutex
	closed bool
	lines  int
}

func (c *closingSource) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *closingSource) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *closingSource) Lines() int     { return c.lines }
func (c *closingSource) Digest() string { return "digest-1" }

var _ io.Closer = (*closingSource)(nil)
