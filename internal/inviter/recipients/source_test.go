package recipients_test

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
	"github.com/aussiebroadwan/bulkinvite/internal/inviter/recipients"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, r *recipients.Reader) ([]recipients.Record, error) {
	t.Helper()
	var out []recipients.Record
	for {
		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
}

func TestReaderWithHeader(t *testing.T) {
	t.Parallel()

	r := recipients.NewReader(strings.NewReader(
		"FirstName,LastName,email\nBob,Johnson,bob@example.com\n\"Smith, Jr\",Mike,mike@example.com\n"))

	recs, err := readAll(t, r)
	require.NoError(t, err)
	require.Len(t, recs, 3)

	require.True(t, recs[0].Header)
	require.Empty(t, recs[0].Email)

	require.False(t, recs[1].Header)
	require.Equal(t, domain.Recipient{FirstName: "Bob", LastName: "Johnson", Email: "bob@example.com"}, recs[1].Recipient)
	require.Equal(t, 2, recs[1].Line)
	require.Equal(t, "Smith, Jr", recs[2].FirstName)

	require.Equal(t, 3, r.Consumed())
}

func TestReaderKeepsWhitespaceAndCase(t *testing.T) {
	t.Parallel()

	r := recipients.NewReader(strings.NewReader("Ann,Lee, Ann@Example.com \n"))
	rec, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, " Ann@Example.com ", rec.Email)
}

func TestReaderShortRowEndsRead(t *testing.T) {
	t.Parallel()

	r := recipients.NewReader(strings.NewReader("a,b,a@example.com\nbroken,row\nc,d,c@example.com\n"))

	recs, err := readAll(t, r)
	require.ErrorIs(t, err, recipients.ErrFormat)
	require.Len(t, recs, 1)
	require.Equal(t, 2, r.Consumed(), "the malformed row still counts")

	_, err = r.Next()
	require.ErrorIs(t, err, recipients.ErrFormat, "errors are sticky")
}

func TestReaderParseErrorIsFormatError(t *testing.T) {
	t.Parallel()

	r := recipients.NewReader(strings.NewReader("a,b,a@example.com\n\"unterminated,b,c\n"))

	recs, err := readAll(t, r)
	require.ErrorIs(t, err, recipients.ErrFormat)
	require.Len(t, recs, 1)
	require.Equal(t, 1, r.Consumed())
}

func TestReaderExtraFieldsIgnored(t *testing.T) {
	t.Parallel()

	r := recipients.NewReader(strings.NewReader("a,b,a@example.com,extra\n"))
	rec, err := r.Next()
	require.NoError(t, err)
	require.Equal(t, "a@example.com", rec.Email)
}
