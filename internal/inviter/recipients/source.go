// Package recipients reads uploaded invitee lists.
package recipients

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/aussiebroadwan/bulkinvite/internal/inviter/domain"
)

// HeaderToken marks the optional header row by its first field.
const HeaderToken = "FirstName"

// ErrFormat reports a row the reader cannot turn into a recipient. It ends
// the read; nothing after it is returned.
var ErrFormat = errors.New("recipients: malformed row")

// Record is one input row.
type Record struct {
	domain.Recipient

	// Line is the 1-based line the row started on.
	Line int

	// Header is set for the header row. Header rows carry no recipient.
	Header bool
}

// Reader yields records lazily from excel-dialect CSV. Fields are kept
// exactly as written, surrounding whitespace included.
type Reader struct {
	csv      *csv.Reader
	consumed int
	done     error
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Reader{csv: cr}
}

// Next returns the next record, io.EOF at the end, or an error wrapping
// ErrFormat. After any error every later call returns the same error.
func (r *Reader) Next() (Record, error) {
	if r.done != nil {
		return Record{}, r.done
	}

	fields, err := r.csv.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			r.done = io.EOF
			return Record{}, io.EOF
		}
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			err = fmt.Errorf("%w: %w", ErrFormat, perr)
		}
		r.done = err
		return Record{}, err
	}

	// The row was read, so it counts even when it cannot be used.
	r.consumed++
	line, _ := r.csv.FieldPos(0)

	if len(fields) < 3 {
		r.done = fmt.Errorf("%w: line %d has %d fields, want 3", ErrFormat, line, len(fields))
		return Record{}, r.done
	}

	rec := Record{
		Line: line,
		Recipient: domain.Recipient{
			FirstName: fields[0],
			LastName:  fields[1],
			Email:     fields[2],
		},
	}
	if fields[0] == HeaderToken {
		rec.Header = true
		rec.Recipient = domain.Recipient{}
	}
	return rec, nil
}

// Consumed is the number of rows read so far, header and malformed rows
// included.
func (r *Reader) Consumed() int {
	return r.consumed
}
