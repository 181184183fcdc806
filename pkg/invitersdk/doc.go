/*
Package invitersdk provides a client for the bulk invitation service's job API.

# Overview

A job reconciles one uploaded recipient list against the remote directory.
The service runs at most one job at a time and keeps a line-oriented progress
log for it. The SDK submits jobs, reads their status and follows the log.

	client := invitersdk.NewClient("http://localhost:8080")

	status, err := client.SubmitJob(ctx, invitersdk.SubmitRequest{
		Username: "ops@example.com",
		Password: "secret",
		DryRun:   true,
		FileName: "team.csv",
		File:     f,
	})
	if invitersdk.IsCode(err, invitersdk.CodeJobRunning) {
		// someone else's job holds the slot
	}

# Following progress

Follow polls the progress log from the start and hands every new line to a
callback until the terminal line arrives:

	err := client.Follow(ctx, time.Second, func(line string) {
		fmt.Println(line)
	})

Follow returns once a response carries X-Progress-Finished: true and its
lines have been delivered, or when ctx ends. A change of X-Progress-Job means
another job took over the log; Follow then starts again from that job's first
line. Recipient text is never mistaken for the end of a job.

# Errors

Every non-2xx response becomes an *APIError carrying the HTTP status and the
service's error code. Use IsCode or errors.As to inspect it.
*/
package invitersdk
