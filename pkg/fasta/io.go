package fasta

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/biogo/hts/fai"
)

var (
	errBadlyFormedFasta = errors.New("badly formed fasta file")
	errEmptyFasta       = errors.New("empty fasta file")
	errDuplicateID      = errors.New("duplicate sequence name in fasta file")
)

type Reader struct {
	*bufio.Reader
}

func NewReader(f io.Reader) *Reader {
	return &Reader{bufio.NewReader(f)}
}

// Read reads one fasta record from the underlying reader. The final record is
// returned with error = nil, and the next call to Read() returns an empty Record
// struct and error = io.EOF.
func (r *Reader) Read() (Record, error) {

	var (
		buffer, line, peek []byte
		fields             [][]byte
		err                error
		FR                 Record
	)

	first := true

	for {
		if first {
			line, err = r.ReadBytes('\n')

			// a file that ends on a header line is an error, as is a header without a >
			if err != nil {
				if err == io.EOF && len(line) > 0 {
					return Record{}, errBadlyFormedFasta
				}
				return Record{}, err
			} else if line[0] != '>' {
				return Record{}, errBadlyFormedFasta
			}

			line = dropNewline(line)

			fields = bytes.Fields(line[1:])
			if len(fields) == 0 {
				return Record{}, errBadlyFormedFasta
			}
			FR.ID = string(fields[0])
			FR.Description = string(line[1:])

			first = false

		} else {
			// peek ahead to see if this record (or the file) has finished
			peek, err = r.Peek(1)

			if err == io.EOF || (err == nil && peek[0] == '>') {
				err = nil
				break
			} else if err != nil {
				return Record{}, err
			}

			// io.EOF here is caught by the Peek on the next iteration
			line, err = r.ReadBytes('\n')
			if err != nil && err != io.EOF {
				return Record{}, err
			}

			buffer = append(buffer, dropNewline(line)...)
		}
	}
	FR.Seq = string(buffer)

	return FR, err
}

// dropNewline strips a trailing unix or dos newline
func dropNewline(line []byte) []byte {
	if len(line) > 0 && line[len(line)-1] == '\n' {
		line = line[:len(line)-1]
		if len(line) > 0 && line[len(line)-1] == '\r' {
			line = line[:len(line)-1]
		}
	}
	return line
}

// LoadAssembly reads every record from f, in order. Names must be unique
func LoadAssembly(f io.Reader) ([]Record, error) {
	r := NewReader(f)
	seen := make(map[string]bool)
	records := make([]Record, 0)

	for counter := 0; ; counter++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if seen[record.ID] {
			return nil, fmt.Errorf("%w: %s", errDuplicateID, record.ID)
		}
		seen[record.ID] = true
		record.Idx = counter
		records = append(records, record)
	}

	if len(records) == 0 {
		return nil, errEmptyFasta
	}

	return records, nil
}

// WriteWrap writes records to w with sequence lines wrapped to wrap
// characters. A wrap < 1 writes each sequence on a single line
func WriteWrap(w io.Writer, records []Record, wrap int) error {
	bw := bufio.NewWriter(w)

	for _, record := range records {
		if _, err := bw.WriteString(">" + record.ID + "\n"); err != nil {
			return err
		}

		if wrap < 1 {
			if len(record.Seq) == 0 {
				continue
			}
			if _, err := bw.WriteString(record.Seq + "\n"); err != nil {
				return err
			}
			continue
		}

		for written := 0; written < len(record.Seq); written += wrap {
			end := written + wrap
			if end > len(record.Seq) {
				end = len(record.Seq)
			}
			if _, err := bw.WriteString(record.Seq[written:end] + "\n"); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}

// WriteIndexed writes records to w as WriteWrap does, and a .fai index of
// the written bytes to idx
func WriteIndexed(w, idx io.Writer, records []Record, wrap int) error {
	var buf bytes.Buffer

	if err := WriteWrap(&buf, records, wrap); err != nil {
		return err
	}

	index, err := fai.NewIndex(bytes.NewReader(buf.Bytes()))
	if err != nil {
		return fmt.Errorf("indexing fasta: %w", err)
	}

	if _, err = w.Write(buf.Bytes()); err != nil {
		return err
	}

	return fai.WriteTo(idx, index)
}
