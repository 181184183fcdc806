package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aussiebroadwan/bulkinvite/pkg/slogx"
)

func (c *Client) url(path string) string {
	return c.BaseURL + path
}

// doRequest sends a JSON request. A nil body sends no payload. token may be
// empty for the login call only.
func (c *Client) doRequest(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), rdr)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return c.HTTPClient.Do(req)
}

// call performs one directory operation and decodes a successful response
// into target (which may be nil). Every failure comes back as an
// *OperationError and is logged through the context logger.
func (c *Client) call(ctx context.Context, op, target, method, path, token string, body, out any) error {
	resp, err := c.doRequest(ctx, method, path, token, body)
	if err != nil {
		return c.fail(ctx, &OperationError{Op: op, Target: target, Err: err})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(ctx, &OperationError{Op: op, Target: target, StatusCode: resp.StatusCode, Err: err})
	}

	if resp.StatusCode >= http.StatusMultipleChoices {
		return c.fail(ctx, &OperationError{
			Op:         op,
			Target:     target,
			StatusCode: resp.StatusCode,
			Body:       truncateBody(data),
		})
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return c.fail(ctx, &OperationError{
			Op:         op,
			Target:     target,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("failed to decode response: %w", err),
		})
	}
	return nil
}

func (c *Client) fail(ctx context.Context, err *OperationError) error {
	attrs := []any{"op", err.Op, "target", err.Target}
	if err.StatusCode != 0 {
		attrs = append(attrs, "status", err.StatusCode)
	}
	if err.Body != "" {
		attrs = append(attrs, "body", err.Body)
	}
	if err.Err != nil {
		attrs = append(attrs, "error", err.Err)
	}
	slogx.FromContext(ctx).ErrorContext(ctx, "directory call failed", attrs...)
	return err
}
