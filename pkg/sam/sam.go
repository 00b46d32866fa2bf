/*
Package sam reads contig-to-contig alignments in SAM format as alignment records.

RNAME is the reference contig and QNAME the query contig. Reference lengths
come from the @SQ header lines; query lengths from the CIGAR, including clips.
Records must be grouped by reference, as they are after coordinate sorting.
*/
package sam

import (
	"io"
	"math"

	"github.com/charmbracelet/log"

	biogosam "github.com/biogo/hts/sam"

	"github.com/virus-evolution/assemblender/pkg/alignment"
)

var nmTag = biogosam.NewTag("NM")

// Reader converts SAM records to alignment records. Unmapped and secondary
// records are skipped, as are records whose geometry does not qualify as an overlap
type Reader struct {
	r       *biogosam.Reader
	logger  *log.Logger
	skipped int
}

func NewReader(f io.Reader, logger *log.Logger) (*Reader, error) {
	r, err := biogosam.NewReader(f)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Reader{r: r, logger: logger}, nil
}

// Skipped is the number of SAM records passed over so far
func (r *Reader) Skipped() int {
	return r.skipped
}

func (r *Reader) Read() (alignment.Record, error) {
	for {
		samLine, err := r.r.Read()
		if err != nil {
			return alignment.Record{}, err
		}

		rec, ok, err := Convert(samLine)
		if err != nil {
			return alignment.Record{}, err
		}
		if !ok {
			r.skipped++
			r.logger.Debug("skipping sam record", "query", samLine.Name, "flags", samLine.Flags)
			continue
		}

		return rec, nil
	}
}

// Convert builds an alignment record from one SAM line. It returns false for lines that
// are unmapped, secondary, or do not overlap either end of either contig
func Convert(samLine *biogosam.Record) (alignment.Record, bool, error) {
	if samLine.Flags&(biogosam.Unmapped|biogosam.Secondary) != 0 || samLine.Ref == nil || samLine.Pos < 0 {
		return alignment.Record{}, false, nil
	}

	var (
		leading, trailing int
		queryAligned      int
		columns           int
		mismatches        int
		gaps              int
		seenAligned       bool
	)

	for _, op := range samLine.Cigar {
		size := op.Len()
		switch op.Type() {
		case biogosam.CigarSoftClipped, biogosam.CigarHardClipped:
			if seenAligned {
				trailing += size
			} else {
				leading += size
			}
		case biogosam.CigarMatch, biogosam.CigarEqual:
			seenAligned = true
			queryAligned += size
			columns += size
		case biogosam.CigarMismatch:
			seenAligned = true
			queryAligned += size
			columns += size
			mismatches += size
		case biogosam.CigarInsertion:
			seenAligned = true
			queryAligned += size
			columns += size
			gaps += size
		case biogosam.CigarDeletion:
			seenAligned = true
			columns += size
			gaps += size
		}
	}

	if queryAligned == 0 || columns == 0 {
		return alignment.Record{}, false, nil
	}

	edits := mismatches + gaps
	if nm, ok := editDistance(samLine); ok {
		edits = nm
	}

	queryLen := leading + queryAligned + trailing

	rec := alignment.Record{
		RefStart:      samLine.Pos + 1,
		RefEnd:        samLine.End(),
		RefAlignLen:   samLine.End() - samLine.Pos,
		QueryAlignLen: queryAligned,
		Identity:      round2(100 * float64(columns-edits) / float64(columns)),
		RefLen:        samLine.Ref.Len(),
		QueryLen:      queryLen,
		Frame:         1,
		Strand:        alignment.Forward,
		Ref:           samLine.Ref.Name(),
		Query:         samLine.Name,
	}

	// SAM stores reverse hits as the reverse complement of the query
	if samLine.Flags&biogosam.Reverse != 0 {
		rec.Strand = alignment.Reverse
		rec.QueryStart = queryLen - leading
		rec.QueryEnd = queryLen - leading - queryAligned + 1
	} else {
		rec.QueryStart = leading + 1
		rec.QueryEnd = leading + queryAligned
	}

	rec.RefCoverage = round2(100 * float64(rec.RefAlignLen) / float64(rec.RefLen))
	rec.QueryCoverage = round2(100 * float64(rec.QueryAlignLen) / float64(rec.QueryLen))

	if err := rec.Validate(); err != nil {
		return alignment.Record{}, false, err
	}

	rec.Tag = overlapTag(rec)
	if rec.Tag == "" {
		return alignment.Record{}, false, nil
	}

	return rec, true, nil
}

// overlapTag classifies the geometry the way show-coords -o does
func overlapTag(rec alignment.Record) string {
	refWhole := rec.RefLo() < alignment.StartSlack && rec.RefHi() > rec.RefLen-alignment.EndSlack
	queryWhole := rec.QueryLo() < alignment.StartSlack && rec.QueryHi() > rec.QueryLen-alignment.EndSlack

	switch {
	case refWhole && queryWhole:
		return "[IDENTITY]"
	case queryWhole:
		return "[CONTAINS]"
	case refWhole:
		return "[CONTAINED]"
	case rec.RefLo() < alignment.StartSlack:
		return "[BEGIN]"
	case rec.RefHi() > rec.RefLen-alignment.EndSlack:
		return "[END]"
	}
	return ""
}

func editDistance(samLine *biogosam.Record) (int, bool) {
	aux := samLine.AuxFields.Get(nmTag)
	if aux == nil {
		return 0, false
	}
	switch v := aux.Value().(type) {
	case int8:
		return int(v), true
	case uint8:
		return int(v), true
	case int16:
		return int(v), true
	case uint16:
		return int(v), true
	case int32:
		return int(v), true
	case uint32:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
