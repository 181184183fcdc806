package directory_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/directory"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/directory/directorytest"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/pkg/slogx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*directory.Client, *directorytest.Server) {
	t.Helper()
	srv := directorytest.New()
	t.Cleanup(srv.Close)
	return directory.NewClient(srv.BaseURL(), 5*time.Second), srv
}

func TestBaseURL(t *testing.T) {
	t.Parallel()

	require.Equal(t, "https://api.example.com/v1", directory.BaseURL("", "api.example.com", "v1"))
	require.Equal(t, "http://localhost:8080/v2", directory.BaseURL("http", "localhost:8080/", "/v2/"))
}

func TestAuthenticateAndResolve(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, srv := newClient(t)

	token, err := c.Authenticate(ctx, domain.Credentials{Username: srv.Username, Password: srv.Password})
	require.NoError(t, err)
	require.Equal(t, srv.Token, token)

	who, err := c.ResolveAccount(ctx, token)
	require.NoError(t, err)
	require.Equal(t, domain.AccountIdentity{UserID: "u-1", AccountID: "a-1"}, who)
}

func TestAuthenticateRejected(t *testing.T) {
	t.Parallel()
	c, srv := newClient(t)

	_, err := c.Authenticate(context.Background(), domain.Credentials{Username: srv.Username, Password: "wrong"})
	require.Error(t, err)
	require.True(t, directory.IsStatus(err, http.StatusUnauthorized))

	var opErr *directory.OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, "login", opErr.Op)
	require.Contains(t, opErr.Body, "bad credentials")
}

func TestResolveAccountMissingAccount(t *testing.T) {
	t.Parallel()
	c, srv := newClient(t)
	srv.AccountID = ""

	_, err := c.ResolveAccount(context.Background(), srv.Token)
	require.ErrorIs(t, err, directory.ErrMissingAccount)

	_, err = c.ResolveAccount(context.Background(), "")
	require.ErrorIs(t, err, directory.ErrMissingToken)
}

func TestMissingTokenAndAccountAreLogged(t *testing.T) {
	t.Parallel()
	c, srv := newClient(t)

	var buf bytes.Buffer
	ctx := slogx.WithContext(context.Background(), slog.New(slog.NewTextHandler(&buf, nil)))

	srv.Token = ""
	_, err := c.Authenticate(ctx, domain.Credentials{Username: srv.Username, Password: srv.Password})
	require.ErrorIs(t, err, directory.ErrMissingToken)

	var opErr *directory.OperationError
	require.ErrorAs(t, err, &opErr)
	require.Equal(t, "login", opErr.Op)
	require.Equal(t, srv.Username, opErr.Target)
	require.Contains(t, buf.String(), "directory call failed")
	require.Contains(t, buf.String(), "op=login")

	buf.Reset()
	c2, srv2 := newClient(t)
	srv2.AccountID = ""
	_, err = c2.ResolveAccount(ctx, srv2.Token)
	require.ErrorIs(t, err, directory.ErrMissingAccount)
	require.Contains(t, buf.String(), `op="get user"`)
	require.Contains(t, buf.String(), "missing account id")
}

func TestInviteLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	c, srv := newClient(t)
	srv.AddMember("member@example.com")
	srv.AddInvite(directorytest.Invite{
		InviteID: "old-1", InviteeEmail: "done@example.com", Status: "accepted", InviterAccountID: "a-1",
	})

	members, err := c.ListMembers(ctx, srv.Token, "a-1")
	require.NoError(t, err)
	require.Equal(t, []domain.ExistingMember{{Email: "member@example.com"}}, members)

	invites, err := c.ListInvites(ctx, srv.Token)
	require.NoError(t, err)
	require.Len(t, invites, 1)
	require.Equal(t, domain.InviteStatusAccepted, invites[0].Status)

	who := domain.AccountIdentity{UserID: "u-1", AccountID: "a-1"}
	receipt, err := c.CreateInvite(ctx, srv.Token, who, "r-1", domain.Recipient{
		FirstName: "Ann", LastName: "Lee", Email: "ann@example.com",
	})
	require.NoError(t, err)
	require.Len(t, receipt.InviteIDs, 1)

	created := srv.Created()
	require.Len(t, created, 1)
	require.Equal(t, "a-1", created[0].InviterAccountID)
	require.Equal(t, "u-1", created[0].InviterUserID)
	require.Equal(t, []string{"a-1"}, created[0].AccountIDs)
	require.Equal(t, "r-1", created[0].RoleID)
	require.Equal(t, "Ann", created[0].Invitees[0].FirstName)

	require.NoError(t, c.DeleteInvite(ctx, srv.Token, "old-1"))
	require.Equal(t, []string{"old-1"}, srv.Deleted())
}

func TestServerErrorsAreTyped(t *testing.T) {
	t.Parallel()
	c, srv := newClient(t)
	srv.Fail("create_invite", http.StatusInternalServerError)

	_, err := c.CreateInvite(context.Background(), srv.Token, domain.AccountIdentity{AccountID: "a-1"}, "r", domain.Recipient{Email: "x@example.com"})
	require.True(t, directory.IsStatus(err, http.StatusInternalServerError))
	require.False(t, directory.IsStatus(err, http.StatusBadRequest))
	require.Contains(t, err.Error(), "x@example.com")
}

func TestTransportFailureIsTyped(t *testing.T) {
	t.Parallel()
	c, srv := newClient(t)
	srv.Close()

	_, err := c.ListInvites(context.Background(), "t")
	var opErr *directory.OperationError
	require.ErrorAs(t, err, &opErr)
	require.Zero(t, opErr.StatusCode)
	require.NotNil(t, opErr.Err)
}

func TestCancelledContext(t *testing.T) {
	t.Parallel()
	c, srv := newClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListMembers(ctx, srv.Token, "a-1")
	require.True(t, errors.Is(err, context.Canceled))
}

func TestTokenExpiry(t *testing.T) {
	t.Parallel()

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)

	got, ok := directory.TokenExpiry(signed)
	require.True(t, ok)
	require.True(t, exp.Equal(got))

	_, ok = directory.TokenExpiry("opaque-token")
	require.False(t, ok)
}
