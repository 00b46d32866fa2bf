// Package report is the append-only decision log written at the end of a run
package report

import (
	"bufio"
	"io"
	"strings"
)

// Reason tags
const (
	Covered100        = "covered_100"
	Covered98         = "covered_98"
	CoveredButMerged  = "covered_but_merged"
	StartShort        = "start_short"
	EndShort          = "end_short"
	BothEndsShort     = "both_ends_short"
	InGood            = "but contig is in good"
	QueryCoversRef    = "query covers ref"
	CombinedCoversRef = "combined query covers ref"
	Renamed           = "actual_ref is not equal to final_ref"
	UnsafePair        = "unsafe_pair"
	ConflictingCover  = "conflicting_cover"
	StillRedirected   = "still_redirected"
)

type Log struct {
	entries []string
}

func New() *Log {
	return &Log{}
}

// Add appends one tab-separated entry
func (l *Log) Add(fields ...string) {
	l.entries = append(l.entries, strings.Join(fields, "\t"))
}

func (l *Log) Entries() []string {
	return l.entries
}

func (l *Log) Len() int {
	return len(l.entries)
}

// Contains reports whether any entry equals line exactly
func (l *Log) Contains(line string) bool {
	for _, e := range l.entries {
		if e == line {
			return true
		}
	}
	return false
}

// WriteTo writes every entry on its own line
func (l *Log) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var n int64
	for _, e := range l.entries {
		m, err := bw.WriteString(e + "\n")
		n += int64(m)
		if err != nil {
			return n, err
		}
	}
	return n, bw.Flush()
}
