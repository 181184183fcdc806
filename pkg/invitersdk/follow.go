package invitersdk

import (
	"context"
	"strings"
	"time"
)

// IsTerminal reports whether line is a job's terminal line.
func IsTerminal(line string) bool {
	return strings.Contains(line, Sentinel)
}

// Follow polls the progress log every interval and calls onLine for each new
// line, in order, until the service reports the job finished or ctx ends.
// When another job takes over the log, Follow starts again from its first
// line.
func (c *Client) Follow(ctx context.Context, interval time.Duration, onLine func(string)) error {
	if interval <= 0 {
		interval = time.Second
	}

	offset := 0
	jobID := ""
	for {
		p, err := c.Progress(ctx, offset)
		if err != nil {
			return err
		}

		if p.JobID != jobID {
			jobID = p.JobID
			if offset > 0 {
				offset = 0
				continue
			}
		}
		offset = p.Offset

		for _, line := range p.Lines {
			onLine(line)
		}
		if p.Finished {
			return nil
		}

		t := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return ctx.Err()
		case <-t.C:
		}
	}
}
