package invitersdk_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/progress"
	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, h http.Handler) *invitersdk.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return invitersdk.NewClient(srv.URL + "/")
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func TestSentinelMatchesProgressLog(t *testing.T) {
	t.Parallel()
	require.Equal(t, progress.Sentinel, invitersdk.Sentinel)
	require.True(t, invitersdk.IsTerminal(progress.Finished(3)))
}

func TestSubmitJobSendsForm(t *testing.T) {
	t.Parallel()

	var got map[string]string
	var file string
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		got = map[string]string{}
		for k, v := range r.MultipartForm.Value {
			got[k] = v[0]
		}
		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		body, _ := io.ReadAll(f)
		file = hdr.Filename + ":" + string(body)

		writeJSON(w, http.StatusAccepted, invitersdk.JobStatus{ID: "j1", State: "idle", DryRun: true})
	})
	client := newServer(t, mux)

	status, err := client.SubmitJob(context.Background(), invitersdk.SubmitRequest{
		Username: "ops@example.com",
		Password: "secret",
		DryRun:   true,
		DelayMS:  250,
		FileName: "team.csv",
		File:     strings.NewReader("a,b,c@example.com\n"),
	})
	require.NoError(t, err)
	require.Equal(t, "j1", status.ID)
	require.True(t, status.DryRun)

	require.Equal(t, "ops@example.com", got["username"])
	require.Equal(t, "secret", got["password"])
	require.Equal(t, "on", got["dryrun"])
	require.Equal(t, "250", got["delay"])
	require.NotContains(t, got, "apihost", "empty fields fall back to server defaults")
	require.Equal(t, "team.csv:a,b,c@example.com\n", file)
}

func TestAPIErrors(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusConflict, invitersdk.ErrorResponse{
			Error:            invitersdk.CodeJobRunning,
			ErrorDescription: "a job is already running",
		})
	})
	mux.HandleFunc("GET /v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	client := newServer(t, mux)

	_, err := client.SubmitJob(context.Background(), invitersdk.SubmitRequest{Username: "u", Password: "p"})
	require.True(t, invitersdk.IsCode(err, invitersdk.CodeJobRunning))
	require.ErrorContains(t, err, "a job is already running")

	_, err = client.GetJob(context.Background(), "missing")
	var apiErr *invitersdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	require.False(t, invitersdk.IsCode(err, invitersdk.CodeJobRunning))
}

func TestListAndGetJobs(t *testing.T) {
	t.Parallel()

	finished := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "5", r.URL.Query().Get("limit"))
		writeJSON(w, http.StatusOK, invitersdk.JobList{Jobs: []invitersdk.Job{
			{JobStatus: invitersdk.JobStatus{ID: "j2", State: "completed", FinishedAt: &finished}, DelayMS: 1000},
			{JobStatus: invitersdk.JobStatus{ID: "j1", State: "failed"}},
		}})
	})
	mux.HandleFunc("GET /v1/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, invitersdk.Job{JobStatus: invitersdk.JobStatus{ID: r.PathValue("id")}})
	})
	client := newServer(t, mux)

	jobs, err := client.ListJobs(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	require.Equal(t, "j2", jobs[0].ID)
	require.True(t, jobs[0].Terminal())
	require.Equal(t, finished, *jobs[0].FinishedAt)
	require.Equal(t, int64(1000), jobs[0].DelayMS)

	job, err := client.GetJob(context.Background(), "j9")
	require.NoError(t, err)
	require.Equal(t, "j9", job.ID)
}

func TestCurrentAndCancel(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/jobs/current", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, invitersdk.JobStatus{ID: "j1", State: "dispatching", Processed: 4})
	})
	mux.HandleFunc("DELETE /v1/jobs/current", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusAccepted, invitersdk.JobStatus{ID: "j1", State: "dispatching"})
	})
	client := newServer(t, mux)

	cur, err := client.CurrentJob(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, cur.Processed)
	require.False(t, cur.Terminal())

	cancelled, err := client.CancelJob(context.Background())
	require.NoError(t, err)
	require.Equal(t, "j1", cancelled.ID)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /livez", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, invitersdk.HealthResponse{Status: "ok", Version: "test"})
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, invitersdk.HealthResponse{
			Status: "unavailable",
			Checks: &invitersdk.HealthChecks{Database: "error", Staging: "ok"},
		})
	})
	client := newServer(t, mux)

	live, err := client.GetLiveness(context.Background())
	require.NoError(t, err)
	require.Equal(t, "ok", live.Status)

	_, err = client.GetReadiness(context.Background())
	var apiErr *invitersdk.APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
}

// progressLog serves a growing log the way the server does.
type progressLog struct {
	mu       sync.Mutex
	jobID    string
	lines    []string
	finished bool
}

func (p *progressLog) append(lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, lines...)
}

func (p *progressLog) finish(lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lines = append(p.lines, lines...)
	p.finished = true
}

// replace starts a new job's log.
func (p *progressLog) replace(jobID string, lines ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobID = jobID
	p.lines = lines
	p.finished = false
}

func (p *progressLog) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset > len(p.lines) {
		offset = 0
	}

	w.Header().Set(invitersdk.HeaderProgressOffset, strconv.Itoa(len(p.lines)))
	w.Header().Set(invitersdk.HeaderProgressJob, p.jobID)
	w.Header().Set(invitersdk.HeaderProgressFinished, strconv.FormatBool(p.finished))
	for _, l := range p.lines[offset:] {
		_, _ = io.WriteString(w, l+"\n")
	}
}

// collector gathers followed lines.
type collector struct {
	mu    sync.Mutex
	lines []string
}

func (c *collector) add(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = append(c.lines, line)
}

func (c *collector) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.lines...)
}

func follow(client *invitersdk.Client, got *collector) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- client.Follow(context.Background(), 10*time.Millisecond, got.add)
	}()
	return done
}

func waitDone(t *testing.T, done <-chan error) {
	t.Helper()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("follow did not stop")
	}
}

func TestProgress(t *testing.T) {
	t.Parallel()

	log := &progressLog{jobID: "j1"}
	log.append("one", "two")
	client := newServer(t, log)

	p, err := client.Progress(context.Background(), 0)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two"}, p.Lines)
	require.Equal(t, 2, p.Offset)
	require.Equal(t, "j1", p.JobID)
	require.False(t, p.Finished)

	p, err = client.Progress(context.Background(), 2)
	require.NoError(t, err)
	require.Empty(t, p.Lines)
	require.Equal(t, 2, p.Offset)
}

func TestFollowStopsWhenFinished(t *testing.T) {
	t.Parallel()

	log := &progressLog{jobID: "j1"}
	log.append("received team.csv", "starting list processing")
	client := newServer(t, log)

	got := &collector{}
	done := follow(client, got)

	time.Sleep(30 * time.Millisecond)
	log.finish("invitation for a@example.com: 201", progress.Finished(2))
	waitDone(t, done)

	require.Equal(t, []string{
		"received team.csv",
		"starting list processing",
		"invitation for a@example.com: 201",
		progress.Finished(2),
	}, got.snapshot())
}

func TestFollowIgnoresSentinelInRecipientText(t *testing.T) {
	t.Parallel()

	log := &progressLog{jobID: "j1"}
	log.append("processing invitation for " + progress.Sentinel + " X: a@x.com")
	client := newServer(t, log)

	got := &collector{}
	done := follow(client, got)

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 5*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	select {
	case <-done:
		t.Fatal("follow stopped on a line that was not the end of the job")
	default:
	}

	log.finish("processing invitation for Bob J: bob@x.com", progress.Finished(2))
	waitDone(t, done)
	require.Len(t, got.snapshot(), 3)
}

func TestFollowRestartsWhenJobChanges(t *testing.T) {
	t.Parallel()

	log := &progressLog{jobID: "j1"}
	log.append("received a.csv", "starting list processing", "processing 2 lines")
	client := newServer(t, log)

	got := &collector{}
	done := follow(client, got)

	require.Eventually(t, func() bool { return len(got.snapshot()) == 3 }, 5*time.Second, 5*time.Millisecond)

	// The new job's log is longer than the offset already read.
	log.replace("j2", "received b.csv", "starting list processing", "processing 1 lines", "processing invitation for Ann B: ann@x.com")
	log.finish(progress.Finished(1))
	waitDone(t, done)

	require.Equal(t, []string{
		"received a.csv",
		"starting list processing",
		"processing 2 lines",
		"received b.csv",
		"starting list processing",
		"processing 1 lines",
		"processing invitation for Ann B: ann@x.com",
		progress.Finished(1),
	}, got.snapshot())
}

func TestFollowHonoursContext(t *testing.T) {
	t.Parallel()

	log := &progressLog{}
	log.append("starting list processing")
	client := newServer(t, log)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := client.Follow(ctx, 10*time.Millisecond, func(string) {})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
