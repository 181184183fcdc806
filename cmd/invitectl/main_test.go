package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/directory/directorytest"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	inviterhttp "github.com/aussiebroadwan/bulkinvite/internal/inviter/http"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/progress"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/service"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/staging"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/store/drivers/sqlite"
	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
	"github.com/aussiebroadwan/bulkinvite/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func writeList(t *testing.T, rows ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "team.csv")
	require.NoError(t, os.WriteFile(path, []byte(strings.Join(rows, "\n")+"\n"), 0o600))
	return path
}

// newServer runs the real HTTP stack against a fake directory.
func newServer(t *testing.T) (string, *directorytest.Server, *service.Runner) {
	t.Helper()

	dir := directorytest.New()
	t.Cleanup(dir.Close)

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	stager, err := staging.New(t.TempDir(), 1<<20)
	require.NoError(t, err)

	sink := progress.NewSink()
	eng := &service.Engine{NewDirectory: service.DirectoryFactory("http", 5*time.Second)}
	runner := service.NewRunner(eng, sink, st.Jobs(), slogx.Discard())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = runner.Shutdown(ctx)
	})

	router := inviterhttp.NewRouter("test", st, runner, stager, slogx.Discard())
	router.Defaults = domain.JobConfig{APIHost: dir.Host(), APIVersion: dir.Version}
	router.ApplyRoutes()

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv.URL, dir, runner
}

func TestSubmitFollow(t *testing.T) {
	url, dir, runner := newServer(t)
	list := writeList(t, "FirstName,LastName,email", "Ada,Lovelace,ada@example.com")

	out, errOut, err := runCLI(t, "--server", url, "submit", list,
		"-u", "ops@example.com", "-p", "secret", "--delay", "0s",
		"--follow", "--interval", "20ms")
	require.NoError(t, err, errOut)

	require.Contains(t, out, "received team.csv")
	require.Contains(t, out, progress.Finished(2))
	require.Contains(t, errOut, "completed")
	require.Contains(t, errOut, "invited 1")
	require.Equal(t, []string{"ada@example.com"}, dir.CreatedEmails())
	runner.Wait()

	out, _, err = runCLI(t, "--server", url, "status")
	require.NoError(t, err)
	require.Contains(t, out, "completed")
	require.Contains(t, out, "team.csv")

	out, _, err = runCLI(t, "--server", url, "jobs")
	require.NoError(t, err)
	require.Contains(t, out, "completed")

	out, _, err = runCLI(t, "--server", url, "--json", "jobs", "-n", "1")
	require.NoError(t, err)
	var list2 invitersdk.JobList
	require.NoError(t, json.Unmarshal([]byte(out), &list2))
	require.Len(t, list2.Jobs, 1)
	require.Equal(t, "completed", list2.Jobs[0].State)
}

func TestSubmitFollowReadsPastRecipientText(t *testing.T) {
	url, dir, runner := newServer(t)
	list := writeList(t, "finished processing,X,a@x.com", "Bob,J,bob@x.com")

	out, errOut, err := runCLI(t, "--server", url, "submit", list,
		"-u", "ops@example.com", "-p", "secret", "--delay", "0s",
		"--follow", "--interval", "20ms")
	require.NoError(t, err, errOut)
	runner.Wait()

	require.Contains(t, out, "finished-processing X: a@x.com")
	require.Contains(t, out, "bob@x.com")
	require.Contains(t, out, progress.Finished(2))
	require.Contains(t, errOut, "invited 2")
	require.ElementsMatch(t, []string{"a@x.com", "bob@x.com"}, dir.CreatedEmails())
}

func TestSubmitWithoutFollowPrintsID(t *testing.T) {
	url, _, runner := newServer(t)
	list := writeList(t, "Ada,Lovelace,ada@example.com")

	out, _, err := runCLI(t, "--server", url, "--json", "submit", list,
		"-u", "ops@example.com", "-p", "secret", "--dry-run", "--delay", "0s")
	require.NoError(t, err)
	runner.Wait()

	var status invitersdk.JobStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	require.NotEmpty(t, status.ID)
	require.True(t, status.DryRun)
}

func TestIdleServer(t *testing.T) {
	url, _, _ := newServer(t)

	out, _, err := runCLI(t, "--server", url, "status")
	require.NoError(t, err)
	require.Contains(t, out, "No job has run")

	_, _, err = runCLI(t, "--server", url, "cancel")
	require.EqualError(t, err, "no job is running")

	out, _, err = runCLI(t, "--server", url, "jobs")
	require.NoError(t, err)
	require.Contains(t, out, "No jobs recorded")
}

func TestSubmitRequiresCredentials(t *testing.T) {
	t.Setenv("INVITER_USERNAME", "")
	t.Setenv("INVITER_PASSWORD", "")

	_, _, err := runCLI(t, "--server", "http://127.0.0.1:1", "submit", writeList(t, "a,b,c@example.com"))
	require.ErrorContains(t, err, "username and password are required")
}

func TestSubmitWhileBusy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(invitersdk.ErrorResponse{Error: invitersdk.CodeJobRunning})
	}))
	defer srv.Close()

	_, _, err := runCLI(t, "--server", srv.URL, "submit", writeList(t, "a,b,c@example.com"), "-u", "u", "-p", "p")
	require.ErrorContains(t, err, "another job is running")
}

func TestRunLocal(t *testing.T) {
	dir := directorytest.New()
	defer dir.Close()
	dir.AddMember("member@example.com")

	list := writeList(t,
		"FirstName,LastName,email",
		"Ada,Lovelace,ada@example.com",
		"Mem,Ber,member@example.com",
	)

	out, errOut, err := runCLI(t, "run", list,
		"-u", dir.Username, "-p", dir.Password,
		"--api-host", dir.Host(), "--api-version", dir.Version,
		"--scheme", "http", "--delay", "0s",
		"--staging-dir", t.TempDir())
	require.NoError(t, err, errOut)

	require.Contains(t, out, " - inviter - INFO - received team.csv")
	require.Contains(t, out, "processing 3 lines")
	require.Contains(t, out, "member@example.com already processed")
	require.Contains(t, out, progress.Finished(3))
	require.Contains(t, errOut, "Run completed")
	require.Equal(t, []string{"ada@example.com"}, dir.CreatedEmails())
}

func TestRunRefusesBusyStaging(t *testing.T) {
	stagingDir := t.TempDir()
	stager, err := staging.New(stagingDir, 0)
	require.NoError(t, err)

	held, err := stager.Stage("other.csv", strings.NewReader("a,b,c@example.com\n"))
	require.NoError(t, err)
	defer held.Close()

	_, _, err = runCLI(t, "run", writeList(t, "a,b,c@example.com"),
		"-u", "u", "-p", "p", "--staging-dir", stagingDir)
	require.ErrorContains(t, err, "another job is using")
}

func TestRunFailedLogin(t *testing.T) {
	dir := directorytest.New()
	defer dir.Close()

	out, _, err := runCLI(t, "run", writeList(t, "a,b,c@example.com"),
		"-u", dir.Username, "-p", "wrong",
		"--api-host", dir.Host(), "--scheme", "http",
		"--staging-dir", t.TempDir())
	require.ErrorIs(t, err, service.ErrAuthentication)
	require.Contains(t, out, "halting processing due to login failure")
	require.Contains(t, out, progress.Finished(0))
}
