// Package staging keeps uploaded recipient lists on disk for the lifetime of
// a job.
package staging

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/recipients"
	"github.com/aussiebroadwan/bulkinvite/pkg/idx"
	"github.com/gofrs/flock"
	"golang.org/x/crypto/blake2b"
)

const (
	lockName = "staging.lock"
	fileExt  = ".csv"
)

var (
	// ErrBusy means another list is staged, in this process or another one.
	ErrBusy = errors.New("staging: another list is in use")

	ErrEmpty    = errors.New("staging: list is empty")
	ErrTooLarge = errors.New("staging: list exceeds size limit")
)

// Stager writes uploads into Dir. Only one staged list may exist at a time;
// the lock file in Dir enforces that across processes.
type Stager struct {
	Dir string

	// MaxBytes caps the size of a list. Zero means no limit.
	MaxBytes int64
}

// New creates dir if needed.
func New(dir string, maxBytes int64) (*Stager, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &Stager{Dir: dir, MaxBytes: maxBytes}, nil
}

// Stage copies r to disk and opens it for reading. The caller must Close the
// returned list, which removes the file and releases the lock.
func (s *Stager) Stage(name string, r io.Reader) (_ *List, err error) {
	lock := flock.New(filepath.Join(s.Dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire staging lock: %w", err)
	}
	if !ok {
		return nil, ErrBusy
	}

	path := filepath.Join(s.Dir, idx.New().String()+fileExt)
	defer func() {
		if err != nil {
			_ = os.Remove(path)
			_ = lock.Unlock()
		}
	}()

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged list: %w", err)
	}

	h, _ := blake2b.New256(nil)
	lc := &lineCounter{}

	src := r
	if s.MaxBytes > 0 {
		src = io.LimitReader(r, s.MaxBytes+1)
	}
	n, err := io.Copy(io.MultiWriter(f, h, lc), src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("write staged list: %w", err)
	}
	if s.MaxBytes > 0 && n > s.MaxBytes {
		return nil, ErrTooLarge
	}
	if n == 0 {
		return nil, ErrEmpty
	}

	rf, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open staged list: %w", err)
	}

	return &List{
		Reader: recipients.NewReader(rf),
		name:   name,
		path:   path,
		size:   n,
		lines:  lc.Lines(),
		digest: hex.EncodeToString(h.Sum(nil)),
		file:   rf,
		lock:   lock,
	}, nil
}

// Sweep removes staged files older than age that no job holds. It is a
// no-op while a list is staged.
func (s *Stager) Sweep(age time.Duration) (int, error) {
	lock := flock.New(filepath.Join(s.Dir, lockName))
	ok, err := lock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("acquire staging lock: %w", err)
	}
	if !ok {
		return 0, nil
	}
	defer func() { _ = lock.Unlock() }()

	entries, err := os.ReadDir(s.Dir)
	if err != nil {
		return 0, fmt.Errorf("read staging dir: %w", err)
	}

	cutoff := time.Now().Add(-age)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fileExt) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.Dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

// List is a staged upload. It reads as a recipient source.
type List struct {
	*recipients.Reader

	name   string
	path   string
	size   int64
	lines  int
	digest string
	file   *os.File
	lock   *flock.Flock
	closed bool
}

// Name is the file name the list was uploaded as.
func (l *List) Name() string { return l.name }

// Path is where the list is staged.
func (l *List) Path() string { return l.path }

// Size is the list size in bytes.
func (l *List) Size() int64 { return l.size }

// Lines counts text lines, a final unterminated line included.
func (l *List) Lines() int { return l.lines }

// Digest is the hex BLAKE2b-256 of the list contents.
func (l *List) Digest() string { return l.digest }

// Close removes the staged file and releases the lock. It is safe to call
// more than once.
func (l *List) Close() error {
	if l.closed {
		return nil
	}
	l.closed = true

	errs := []error{l.file.Close()}
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	errs = append(errs, l.lock.Unlock())
	return errors.Join(errs...)
}

type lineCounter struct {
	newlines int
	last     byte
	seen     bool
}

func (c *lineCounter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	c.newlines += bytes.Count(p, []byte{'\n'})
	c.last = p[len(p)-1]
	c.seen = true
	return len(p), nil
}

func (c *lineCounter) Lines() int {
	if c.seen && c.last != '\n' {
		return c.newlines + 1
	}
	return c.newlines
}

// Check verifies that Dir is still a writable directory.
func (s *Stager) Check() error {
	fi, err := os.Stat(s.Dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", s.Dir)
	}
	f, err := os.CreateTemp(s.Dir, ".writable-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}
