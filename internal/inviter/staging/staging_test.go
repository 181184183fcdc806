package staging_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/staging"
	"github.com/stretchr/testify/require"
)

func newStager(t *testing.T, maxBytes int64) *staging.Stager {
	t.Helper()
	s, err := staging.New(filepath.Join(t.TempDir(), "staging"), maxBytes)
	require.NoError(t, err)
	return s
}

func TestStageReadsBackAndCleansUp(t *testing.T) {
	t.Parallel()
	s := newStager(t, 0)

	list, err := s.Stage("team.csv", strings.NewReader("FirstName,LastName,email\nBob,J,bob@x.com"))
	require.NoError(t, err)

	require.Equal(t, "team.csv", list.Name())
	require.Equal(t, 2, list.Lines(), "an unterminated last line counts")
	require.Len(t, list.Digest(), 64)
	require.FileExists(t, list.Path())

	rec, err := list.Next()
	require.NoError(t, err)
	require.True(t, rec.Header)
	rec, err = list.Next()
	require.NoError(t, err)
	require.Equal(t, "bob@x.com", rec.Email)
	_, err = list.Next()
	require.True(t, errors.Is(err, io.EOF))

	require.NoError(t, list.Close())
	require.NoError(t, list.Close())
	require.NoFileExists(t, list.Path())
}

func TestStageDigestIsContentAddressed(t *testing.T) {
	t.Parallel()
	s := newStager(t, 0)

	a, err := s.Stage("a.csv", strings.NewReader("A,A,a@x.com\n"))
	require.NoError(t, err)
	da := a.Digest()
	require.NoError(t, a.Close())

	b, err := s.Stage("b.csv", strings.NewReader("A,A,a@x.com\n"))
	require.NoError(t, err)
	require.Equal(t, da, b.Digest())
	require.NoError(t, b.Close())
}

func TestStageIsExclusive(t *testing.T) {
	t.Parallel()
	s := newStager(t, 0)

	first, err := s.Stage("a.csv", strings.NewReader("A,A,a@x.com\n"))
	require.NoError(t, err)

	_, err = s.Stage("b.csv", strings.NewReader("B,B,b@x.com\n"))
	require.ErrorIs(t, err, staging.ErrBusy)

	require.NoError(t, first.Close())

	second, err := s.Stage("b.csv", strings.NewReader("B,B,b@x.com\n"))
	require.NoError(t, err)
	require.NoError(t, second.Close())
}

func TestStageRejectsEmptyAndOversized(t *testing.T) {
	t.Parallel()
	s := newStager(t, 16)

	_, err := s.Stage("empty.csv", strings.NewReader(""))
	require.ErrorIs(t, err, staging.ErrEmpty)

	_, err = s.Stage("big.csv", strings.NewReader(strings.Repeat("x", 17)))
	require.ErrorIs(t, err, staging.ErrTooLarge)

	entries, err := os.ReadDir(s.Dir)
	require.NoError(t, err)
	for _, e := range entries {
		require.False(t, strings.HasSuffix(e.Name(), ".csv"), "failed stages leave no files")
	}

	list, err := s.Stage("ok.csv", strings.NewReader("A,A,a@x.com\n"))
	require.NoError(t, err, "failed stages release the lock")
	require.NoError(t, list.Close())
}

func TestSweepRemovesStaleFiles(t *testing.T) {
	t.Parallel()
	s := newStager(t, 0)

	stale := filepath.Join(s.Dir, "01STALE.csv")
	require.NoError(t, os.WriteFile(stale, []byte("x"), 0o600))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	fresh := filepath.Join(s.Dir, "01FRESH.csv")
	require.NoError(t, os.WriteFile(fresh, []byte("x"), 0o600))

	n, err := s.Sweep(time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoFileExists(t, stale)
	require.FileExists(t, fresh)

	list, err := s.Stage("a.csv", strings.NewReader("A,A,a@x.com\n"))
	require.NoError(t, err)
	n, err = s.Sweep(0)
	require.NoError(t, err)
	require.Zero(t, n, "sweeping waits while a list is staged")
	require.NoError(t, list.Close())
}
