// Package progress holds the line-oriented progress log of the current job.
package progress

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Sentinel appears in the last line of every job and nowhere else. Lines
// written through Handler escape it in every other record.
const Sentinel = "finished processing"

// Finished renders the terminal line for a job that read n records.
func Finished(n int) string {
	return fmt.Sprintf("%s %d records", Sentinel, n)
}

// IsTerminal reports whether line is a job's terminal line.
func IsTerminal(line string) bool {
	return strings.Contains(line, Sentinel)
}

// Sink is an append-only line log. Only complete lines are ever visible to
// readers; a write without a trailing newline is held until the newline
// arrives. A Sink may mirror published lines to a file.
type Sink struct {
	mu      sync.Mutex
	lines   []string
	pending []byte

	mirrorPath string
	mirror     *os.File
}

// NewSink returns an in-memory sink.
func NewSink() *Sink {
	return &Sink{}
}

// NewMirroredSink returns a sink that also writes published lines to path.
// The file is truncated on open and on every Reset.
func NewMirroredSink(path string) (*Sink, error) {
	s := &Sink{mirrorPath: path}
	if err := s.openMirror(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sink) openMirror() error {
	if s.mirrorPath == "" {
		return nil
	}
	f, err := os.OpenFile(s.mirrorPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open progress file: %w", err)
	}
	s.mirror = f
	return nil
}

// Write implements io.Writer. It never fails on the in-memory side; mirror
// errors are returned after the lines are published.
func (s *Sink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, p...)

	var published []byte
	for {
		i := bytes.IndexByte(s.pending, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimSuffix(s.pending[:i], []byte{'\r'}))
		s.lines = append(s.lines, line)
		published = append(published, s.pending[:i+1]...)
		s.pending = s.pending[i+1:]
	}
	if len(s.pending) == 0 {
		s.pending = nil
	}

	if s.mirror != nil && len(published) > 0 {
		if _, err := s.mirror.Write(published); err != nil {
			return len(p), fmt.Errorf("write progress file: %w", err)
		}
	}
	return len(p), nil
}

// Snapshot returns every published line, each newline terminated.
func (s *Sink) Snapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for _, l := range s.lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return b.String()
}

// Lines returns the published lines after offset and the offset to pass on
// the next call. An offset past the end means the log was reset since the
// caller last read, so reading starts over from the first line.
func (s *Sink) Lines(offset int) ([]string, int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if offset < 0 || offset > len(s.lines) {
		offset = 0
	}
	out := make([]string, len(s.lines)-offset)
	copy(out, s.lines[offset:])
	return out, len(s.lines)
}

// Len is the number of published lines.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lines)
}

// Reset drops all lines, including a held partial line, and truncates the
// mirror file.
func (s *Sink) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lines = nil
	s.pending = nil

	if s.mirror == nil {
		return nil
	}
	if err := s.mirror.Truncate(0); err != nil {
		return fmt.Errorf("truncate progress file: %w", err)
	}
	return nil
}

// Close releases the mirror file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mirror == nil {
		return nil
	}
	err := s.mirror.Close()
	s.mirror = nil
	return err
}
