package invitersdk

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// SubmitJob uploads a list and starts a job. It fails with CodeJobRunning
// while another job holds the slot.
func (c *Client) SubmitJob(ctx context.Context, req SubmitRequest) (*JobStatus, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"username":   req.Username,
		"password":   req.Password,
		"apihost":    req.APIHost,
		"apiversion": req.APIVersion,
		"roleid":     req.RoleID,
		"delay":      strconv.Itoa(req.DelayMS),
	}
	if req.DryRun {
		fields["dryrun"] = "on"
	}
	for k, v := range fields {
		if v == "" {
			continue
		}
		if err := mw.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
	}

	if req.File != nil {
		name := req.FileName
		if name == "" {
			name = "list.csv"
		}
		fw, err := mw.CreateFormFile("file", name)
		if err != nil {
			return nil, fmt.Errorf("failed to encode form: %w", err)
		}
		if _, err := io.Copy(fw, req.File); err != nil {
			return nil, fmt.Errorf("failed to read list: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode form: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/jobs", &buf, map[string]string{
		"Content-Type": mw.FormDataContentType(),
	})
	if err != nil {
		return nil, err
	}

	var status JobStatus
	if err := decodeJSON(resp, &status, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &status, nil
}

// CurrentJob returns the running job, or the last one to finish.
func (c *Client) CurrentJob(ctx context.Context) (*JobStatus, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/jobs/current", nil, nil)
	if err != nil {
		return nil, err
	}

	var status JobStatus
	if err := decodeJSON(resp, &status, http.StatusOK); err != nil {
		return nil, err
	}
	return &status, nil
}

// CancelJob stops the running job. It fails with CodeNotFound when idle.
func (c *Client) CancelJob(ctx context.Context) (*JobStatus, error) {
	resp, err := c.doRequest(ctx, http.MethodDelete, "/v1/jobs/current", nil, nil)
	if err != nil {
		return nil, err
	}

	var status JobStatus
	if err := decodeJSON(resp, &status, http.StatusAccepted); err != nil {
		return nil, err
	}
	return &status, nil
}

// ListJobs returns up to limit history records, newest first.
func (c *Client) ListJobs(ctx context.Context, limit int) ([]Job, error) {
	path := "/v1/jobs"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}

	var list JobList
	if err := decodeJSON(resp, &list, http.StatusOK); err != nil {
		return nil, err
	}
	return list.Jobs, nil
}

// GetJob returns one history record.
func (c *Client) GetJob(ctx context.Context, id string) (*Job, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/jobs/"+url.PathEscape(id), nil, nil)
	if err != nil {
		return nil, err
	}

	var job Job
	if err := decodeJSON(resp, &job, http.StatusOK); err != nil {
		return nil, err
	}
	return &job, nil
}

// Progress returns the progress lines after offset.
func (c *Client) Progress(ctx context.Context, offset int) (*Progress, error) {
	path := "/v1/jobs/current/progress?offset=" + strconv.Itoa(offset)

	resp, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, parseErrorResponse(resp, body)
	}

	next, err := strconv.Atoi(resp.Header.Get(HeaderProgressOffset))
	if err != nil {
		return nil, fmt.Errorf("invalid %s header: %w", HeaderProgressOffset, err)
	}

	p := &Progress{
		Offset:   next,
		JobID:    resp.Header.Get(HeaderProgressJob),
		Finished: resp.Header.Get(HeaderProgressFinished) == "true",
	}
	if text := strings.TrimSuffix(string(body), "\n"); text != "" {
		p.Lines = strings.Split(text, "\n")
	}
	return p, nil
}
