/*
Package alignment holds the pairwise contig alignment record consumed by the
merge engine, and readers that produce it.

Coordinates are 1-based and inclusive, as printed by MUMmer's show-coords.
Reference coordinates always ascend. Query coordinates of a reverse-strand
hit may be printed descending, so callers should use QueryLo and QueryHi
rather than QueryStart and QueryEnd directly.
*/
package alignment

import (
	"errors"
	"fmt"
	"strings"
)

// Default terminus slack. An alignment touches the reference terminus when it
// starts before StartSlack or ends after RefLen-EndSlack
const (
	StartSlack = 24
	EndSlack   = 23
)

var (
	errBadStrand = errors.New("strand must be 1 or -1")
	errBadCoords = errors.New("coordinates out of range")

	// ErrUngrouped is returned when records for one reference are not contiguous
	ErrUngrouped = errors.New("alignment records are not grouped by reference")
)

// Eligible tags; a record is classified only if its tag field contains one of these
var tags = []string{"CONTAINS", "IDENTITY", "END", "BEGIN", "CONTAINED"}

// Strand is the relative orientation of two sequences
type Strand int8

const (
	Forward Strand = 1
	Reverse Strand = -1
)

// ParseStrand parses "1", "+1" or "+" as Forward and "-1" or "-" as Reverse
func ParseStrand(s string) (Strand, error) {
	switch s {
	case "1", "+1", "+":
		return Forward, nil
	case "-1", "-":
		return Reverse, nil
	}
	return 0, errBadStrand
}

func (s Strand) String() string {
	if s == Reverse {
		return "-1"
	}
	return "1"
}

// Times composes two orientations
func (s Strand) Times(o Strand) Strand {
	if s == o {
		return Forward
	}
	return Reverse
}

// Boundary is one end of a contig
type Boundary int

const (
	Start Boundary = iota
	End
)

func (b Boundary) String() string {
	if b == End {
		return "end"
	}
	return "start"
}

// Opposite returns the other end
func (b Boundary) Opposite() Boundary {
	if b == End {
		return Start
	}
	return End
}

// Record is one pairwise alignment between a reference contig and a query contig
type Record struct {
	RefStart      int
	RefEnd        int
	QueryStart    int
	QueryEnd      int
	RefAlignLen   int
	QueryAlignLen int
	Identity      float64
	RefLen        int
	QueryLen      int
	RefCoverage   float64
	QueryCoverage float64
	Frame         int
	Strand        Strand
	Ref           string
	Query         string
	Tag           string
}

func (r Record) RefLo() int {
	if r.RefStart > r.RefEnd {
		return r.RefEnd
	}
	return r.RefStart
}

func (r Record) RefHi() int {
	if r.RefStart > r.RefEnd {
		return r.RefStart
	}
	return r.RefEnd
}

func (r Record) QueryLo() int {
	if r.QueryStart > r.QueryEnd {
		return r.QueryEnd
	}
	return r.QueryStart
}

func (r Record) QueryHi() int {
	if r.QueryStart > r.QueryEnd {
		return r.QueryStart
	}
	return r.QueryEnd
}

// Eligible reports whether the tag marks this record as an overlap worth classifying
func (r Record) Eligible() bool {
	return eligible(r.Tag)
}

func eligible(s string) bool {
	for _, t := range tags {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

// TouchesTerminus reports whether the reference side of the alignment falls
// within the slack window of either end of the reference
func (r Record) TouchesTerminus(startSlack, endSlack int) bool {
	return r.RefLo() < startSlack || r.RefHi() > r.RefLen-endSlack
}

// Validate checks 1 <= lo <= hi <= len on both sides
func (r Record) Validate() error {
	if r.RefLo() < 1 || r.RefHi() > r.RefLen {
		return fmt.Errorf("%w: reference %s %d-%d of %d", errBadCoords, r.Ref, r.RefStart, r.RefEnd, r.RefLen)
	}
	if r.QueryLo() < 1 || r.QueryHi() > r.QueryLen {
		return fmt.Errorf("%w: query %s %d-%d of %d", errBadCoords, r.Query, r.QueryStart, r.QueryEnd, r.QueryLen)
	}
	return nil
}

// Source is anything that yields alignment records in order. Read returns
// io.EOF once the records are exhausted
type Source interface {
	Read() (Record, error)
}

// MalformedRecordError reports an input line that could not be parsed
type MalformedRecordError struct {
	Line int
	Text string
	Err  error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed alignment record at line %d (%q): %v", e.Line, e.Text, e.Err)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}
