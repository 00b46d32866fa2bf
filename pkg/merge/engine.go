/*
Package merge is the contig blending engine.

The engine consumes alignment records grouped by reference contig. Each
record is classified as containment, terminus extension or noise; extensions
accumulate as candidates against the reference's start and end. When the
reference changes, the accumulated candidates are resolved: the longest
surviving extension on each side is spliced on, the composite is named after
the lexically smallest contig it contains, and every contig involved is
re-placed onto the new composite.
*/
package merge

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/virus-evolution/assemblender/pkg/alignment"
	"github.com/virus-evolution/assemblender/pkg/fasta"
	"github.com/virus-evolution/assemblender/pkg/ledger"
	"github.com/virus-evolution/assemblender/pkg/registry"
	"github.com/virus-evolution/assemblender/pkg/report"
)

// Options are the classification thresholds
type Options struct {
	// records at or below this identity are ignored
	MinIdentity float64
	// containment when the reference is already part of a composite
	ContainIdentity float64
	NearCoverage    float64
	NearIdentity    float64
	StartSlack      int
	EndSlack        int
}

func DefaultOptions() Options {
	return Options{
		MinIdentity:     94.99,
		ContainIdentity: 97.9,
		NearCoverage:    98.0,
		NearIdentity:    98.0,
		StartSlack:      alignment.StartSlack,
		EndSlack:        alignment.EndSlack,
	}
}

type Engine struct {
	opts   Options
	reg    *registry.Registry
	ledger *ledger.Ledger
	report *report.Log
	logger *log.Logger

	pending [2][]Candidate

	lastRef     string
	previousRef string
	lastQuery   string
	flushed     bool
}

func New(reg *registry.Registry, opts Options, logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Engine{
		opts:   opts,
		reg:    reg,
		ledger: ledger.New(),
		report: report.New(),
		logger: logger,
	}
}

// Load seeds a registry from the input assembly
func Load(records []fasta.Record) (*registry.Registry, error) {
	reg := registry.New()
	for _, r := range records {
		if err := reg.Add(r.ID, []byte(r.Seq)); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

func (e *Engine) Registry() *registry.Registry { return e.reg }
func (e *Engine) Ledger() *ledger.Ledger       { return e.ledger }
func (e *Engine) Report() *report.Log          { return e.report }

// Run feeds every record from src, then flushes
func (e *Engine) Run(src alignment.Source) error {
	n := 0
	for {
		rec, err := src.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if err = e.Feed(rec); err != nil {
			return err
		}
		n++
	}

	e.logger.Info("read alignments", "records", n)

	return e.Flush()
}

// Feed processes one record. A change of reference first resolves the previous one
func (e *Engine) Feed(rec alignment.Record) error {
	if e.lastRef != "" && rec.Ref != e.lastRef {
		if err := e.resolve(e.lastRef); err != nil {
			return err
		}
		e.lastRef = ""
	}

	if !rec.Eligible() || rec.Ref == rec.Query {
		return nil
	}

	for _, name := range []string{rec.Ref, rec.Query} {
		if _, ok := e.reg.Get(name); !ok {
			return violation("feed", rec.Ref, "", registry.ErrUnknown, name)
		}
	}

	if !e.reg.Usable(rec.Ref) {
		return nil
	}
	if !e.reg.Usable(rec.Query) || e.reg.Processed(rec.Query) {
		return nil
	}
	if rec.Identity <= e.opts.MinIdentity {
		return nil
	}

	e.previousRef = e.lastRef
	e.lastRef = rec.Ref

	classified, err := e.classify(rec)
	if err != nil {
		return err
	}
	if !classified {
		return nil
	}

	if e.lastQuery == rec.Query && e.previousRef == rec.Ref && (len(e.pending[alignment.Start]) > 0 || len(e.pending[alignment.End]) > 0) {
		e.dedup(rec.Ref)
	}
	e.lastQuery = rec.Query

	return nil
}

// Flush resolves the final reference and records which contigs remain redirected.
// It must be called once, after the last record
func (e *Engine) Flush() error {
	if e.flushed {
		return nil
	}
	if e.lastRef != "" {
		if err := e.resolve(e.lastRef); err != nil {
			return err
		}
		e.lastRef = ""
	}

	for _, r := range e.reg.Redirects() {
		e.report.Add(r.Name, report.StillRedirected, r.Placement.Host)
	}
	e.flushed = true

	e.logger.Info("blending finished", "contigs", len(e.reg.Survivors()), "redirected", len(e.reg.Redirects()))

	return nil
}

func (e *Engine) clearPending() {
	e.pending[alignment.Start] = nil
	e.pending[alignment.End] = nil
}
