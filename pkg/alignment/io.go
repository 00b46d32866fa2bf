package alignment

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const numFields = 16

// Reader reads tab-separated show-coords output (show-coords -rclTHo).
// The first line is always skipped, as are lines without an eligible tag.
type Reader struct {
	*bufio.Reader
	line int
}

func NewReader(f io.Reader) *Reader {
	return &Reader{Reader: bufio.NewReader(f)}
}

// Read returns the next eligible record. After the last record it returns
// an empty Record and io.EOF
func (r *Reader) Read() (Record, error) {
	for {
		text, err := r.ReadString('\n')
		if err != nil && err != io.EOF {
			return Record{}, err
		}
		if len(text) == 0 && err == io.EOF {
			return Record{}, io.EOF
		}
		r.line++

		text = strings.TrimRight(text, "\r\n")

		if r.line == 1 || !eligible(text) {
			if err == io.EOF {
				return Record{}, io.EOF
			}
			continue
		}

		rec, perr := ParseLine(text)
		if perr != nil {
			return Record{}, &MalformedRecordError{Line: r.line, Text: text, Err: perr}
		}

		return rec, nil
	}
}

// ParseLine parses one 16-field line in show-coords order: S1 E1 S2 E2 LEN1
// LEN2 %IDY LENR LENQ COVR COVQ FRM STRAND REF QUERY TAG
func ParseLine(line string) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != numFields {
		return Record{}, fmt.Errorf("expected %d tab-separated fields, found %d", numFields, len(fields))
	}

	var (
		rec  Record
		err  error
		ints = []*int{
			&rec.RefStart, &rec.RefEnd, &rec.QueryStart, &rec.QueryEnd,
			&rec.RefAlignLen, &rec.QueryAlignLen,
		}
	)

	for i, p := range ints {
		if *p, err = strconv.Atoi(strings.TrimSpace(fields[i])); err != nil {
			return Record{}, err
		}
	}
	if rec.Identity, err = strconv.ParseFloat(strings.TrimSpace(fields[6]), 64); err != nil {
		return Record{}, err
	}
	if rec.RefLen, err = strconv.Atoi(strings.TrimSpace(fields[7])); err != nil {
		return Record{}, err
	}
	if rec.QueryLen, err = strconv.Atoi(strings.TrimSpace(fields[8])); err != nil {
		return Record{}, err
	}
	if rec.RefCoverage, err = strconv.ParseFloat(strings.TrimSpace(fields[9]), 64); err != nil {
		return Record{}, err
	}
	if rec.QueryCoverage, err = strconv.ParseFloat(strings.TrimSpace(fields[10]), 64); err != nil {
		return Record{}, err
	}
	if rec.Frame, err = strconv.Atoi(strings.TrimSpace(fields[11])); err != nil {
		return Record{}, err
	}
	if rec.Strand, err = ParseStrand(strings.TrimSpace(fields[12])); err != nil {
		return Record{}, err
	}

	rec.Ref = strings.TrimSpace(fields[13])
	rec.Query = strings.TrimSpace(fields[14])
	rec.Tag = strings.TrimSpace(fields[15])

	if rec.Ref == "" || rec.Query == "" {
		return Record{}, errors.New("empty contig name")
	}

	if err = rec.Validate(); err != nil {
		return Record{}, err
	}

	return rec, nil
}

// Grouper wraps a Source and fails if a reference reappears after its group
// of records has ended
type Grouper struct {
	src     Source
	current string
	done    map[string]bool
}

func Grouped(src Source) *Grouper {
	return &Grouper{src: src, done: make(map[string]bool)}
}

func (g *Grouper) Read() (Record, error) {
	rec, err := g.src.Read()
	if err != nil {
		return rec, err
	}
	if rec.Ref != g.current {
		if g.done[rec.Ref] {
			return Record{}, fmt.Errorf("%w: %s seen again after %s", ErrUngrouped, rec.Ref, g.current)
		}
		if g.current != "" {
			g.done[g.current] = true
		}
		g.current = rec.Ref
	}
	return rec, nil
}
