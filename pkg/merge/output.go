package merge

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/virus-evolution/assemblender/pkg/fasta"
	"github.com/virus-evolution/assemblender/pkg/registry"
)

// Outputs are the destinations for one run. Index may be nil
type Outputs struct {
	Fasta      io.Writer
	Index      io.Writer
	Contigs    io.Writer
	ContigIn   io.Writer
	ContigSelf io.Writer
	Report     io.Writer
}

// Assembly returns the surviving composites in input order
func (e *Engine) Assembly() []fasta.Record {
	survivors := e.reg.Survivors()
	records := make([]fasta.Record, 0, len(survivors))
	for i, s := range survivors {
		records = append(records, fasta.Record{ID: s.Name, Seq: string(s.Seq), Idx: i})
	}
	return records
}

// WriteContigs writes each surviving composite's name followed by its composition, sorted by name
func (e *Engine) WriteContigs(w io.Writer) error {
	survivors := e.reg.Survivors()
	slices.SortFunc(survivors, func(a, b *registry.Entry) int {
		return strings.Compare(a.Name, b.Name)
	})

	bw := bufio.NewWriter(w)
	for _, s := range survivors {
		if _, err := bw.WriteString(s.Name + "\t" + strings.Join(s.Composition, "\t") + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Write emits every output of the run
func (e *Engine) Write(o Outputs, wrap int) error {
	var err error
	if o.Index != nil {
		err = fasta.WriteIndexed(o.Fasta, o.Index, e.Assembly(), wrap)
	} else {
		err = fasta.WriteWrap(o.Fasta, e.Assembly(), wrap)
	}
	if err != nil {
		return err
	}

	if err = e.WriteContigs(o.Contigs); err != nil {
		return err
	}
	if err = e.ledger.WriteContigIn(o.ContigIn); err != nil {
		return err
	}
	if err = e.ledger.WriteContigSelf(o.ContigSelf); err != nil {
		return err
	}
	_, err = e.report.WriteTo(o.Report)

	return err
}
