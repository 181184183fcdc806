//go:build e2e

package inviter_test

import (
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/bulkinvite/pkg/invitersdk"
	"github.com/stretchr/testify/require"
)

// TestIdleServer verifies the job endpoints before anything was submitted.
func TestIdleServer(t *testing.T) {
	client := setupInviterContainer(t)

	_, err := client.CurrentJob(t.Context())
	require.True(t, invitersdk.IsCode(err, invitersdk.CodeNotFound))

	jobs, err := client.ListJobs(t.Context(), 10)
	require.NoError(t, err)
	require.Empty(t, jobs)
}

// TestUnreachableDirectoryFailsJob submits a list while the directory is
// down and follows the job to its terminal line.
func TestUnreachableDirectoryFailsJob(t *testing.T) {
	client := setupInviterContainer(t)

	submitted := submitList(t, client,
		"FirstName,LastName,email",
		"Ada,Lovelace,ada@example.com",
	)
	require.True(t, submitted.DryRun)
	require.Equal(t, "team.csv", submitted.SourceName)

	lines := followToEnd(t, client)
	require.Contains(t, lines[0], "received team.csv")
	require.Contains(t, lines[len(lines)-2], "halting processing due to login failure")
	require.True(t, invitersdk.IsTerminal(lines[len(lines)-1]))

	var current *invitersdk.JobStatus
	require.Eventually(t, func() bool {
		var err error
		current, err = client.CurrentJob(t.Context())
		return err == nil && current.FinishedAt != nil
	}, 10*time.Second, 100*time.Millisecond)
	require.Equal(t, submitted.ID, current.ID)
	require.Equal(t, "failed", current.State)
	require.NotEmpty(t, current.Error)

	job, err := client.GetJob(t.Context(), submitted.ID)
	require.NoError(t, err)
	require.Equal(t, "failed", job.State)
	require.Equal(t, int64(0), job.DelayMS)
	require.Equal(t, "127.0.0.1:1", job.APIHost)

	// The slot frees up once the record is final.
	var second *invitersdk.JobStatus
	require.Eventually(t, func() bool {
		var err error
		second, err = client.SubmitJob(t.Context(), invitersdk.SubmitRequest{
			Username: testUsername,
			Password: testPassword,
			DryRun:   true,
			FileName: "team.csv",
			File:     strings.NewReader("Grace,Hopper,grace@example.com\n"),
		})
		return err == nil
	}, 10*time.Second, 100*time.Millisecond)
	require.NotEqual(t, submitted.ID, second.ID)
	lines = followToEnd(t, client)
	require.Contains(t, lines[0], "received team.csv")

	jobs, err := client.ListJobs(t.Context(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, jobs)
	require.Equal(t, second.ID, jobs[0].ID, "newest job first")
}
