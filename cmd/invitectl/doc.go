// Command invitectl drives the bulk invitation service from a terminal.
//
// Against a running server it submits lists, follows progress, inspects and
// cancels the current job, and lists job history:
//
//	invitectl submit team.csv --username ops@example.com --follow
//	invitectl jobs --limit 10
//
// The run command reconciles a list in-process without a server. It shares
// the server's staging lock, so it refuses to start while the server on the
// same host is running a job.
//
// Credentials may come from INVITER_USERNAME and INVITER_PASSWORD instead of
// flags; the server address from INVITER_URL. A .env file is loaded first.
package main
