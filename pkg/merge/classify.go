package merge

import (
	"github.com/virus-evolution/assemblender/pkg/alignment"
	"github.com/virus-evolution/assemblender/pkg/alphabet"
	"github.com/virus-evolution/assemblender/pkg/registry"
	"github.com/virus-evolution/assemblender/pkg/report"
)

// Candidate is a proposed extension of an owner composite at one of its ends
type Candidate struct {
	Length int
	Donor  string
	// Seq is oriented as the owner composite and is spliced on as is
	Seq []byte
	// the end of the donor's host composite that overlaps the owner
	DonorBoundary alignment.Boundary
	// orientation of the donor relative to the owner composite
	Strand   alignment.Strand
	Identity float64

	Host       string
	HostStrand alignment.Strand
	HostLen    int
	Owner      string
}

// frame is the orientation of the donor's host composite relative to the owner composite
func (c Candidate) frame() alignment.Strand {
	return c.Strand.Times(c.HostStrand)
}

// classify decides what one record means. It returns false if the record was skipped
func (e *Engine) classify(rec alignment.Record) (bool, error) {
	rp, err := e.reg.Locate(rec.Ref)
	if err != nil {
		return false, violation("classify", rec.Ref, "", err, rec.Query)
	}
	qp, err := e.reg.Locate(rec.Query)
	if err != nil {
		return false, violation("classify", rec.Ref, rp.Host, err, rec.Query)
	}

	refEntry, _ := e.reg.Get(rec.Ref)
	queryEntry, _ := e.reg.Get(rec.Query)
	if refEntry.Length != rec.RefLen || queryEntry.Length != rec.QueryLen {
		return false, violation("classify", rec.Ref, rp.Host, errLengthMismatch, rec.Query)
	}

	if rp.Host == qp.Host {
		return false, nil
	}
	if !e.reg.Usable(rp.Host) || !e.reg.Usable(qp.Host) {
		return false, nil
	}

	refRedirected := rp.Host != rec.Ref
	queryRedirected := qp.Host != rec.Query

	minContain := 0.0
	if refRedirected {
		minContain = e.opts.ContainIdentity
	}
	if rec.QueryCoverage >= 100 && rec.QueryAlignLen == rec.QueryLen && rec.Identity >= minContain {
		e.contain(rec, rp, report.Covered100)
		return true, nil
	}

	// each unmerged pair is seen from both sides; only the lexically ordered one extends
	if !refRedirected && !queryRedirected && rec.Query < rec.Ref {
		return false, nil
	}

	if rec.TouchesTerminus(e.opts.StartSlack, e.opts.EndSlack) {
		return true, e.extend(rec, rp, qp)
	}

	if rec.QueryCoverage >= e.opts.NearCoverage && rec.Identity >= e.opts.NearIdentity {
		e.contain(rec, rp, report.Covered98)
	}

	return true, nil
}

func (e *Engine) contain(rec alignment.Record, rp registry.Placement, tag string) {
	if e.reg.Redirected(rec.Query) || e.reg.MemberCount(rec.Query) > 1 {
		e.report.Add(rec.Ref, rec.Query, report.CoveredButMerged)
		return
	}

	s := rec.Strand.Times(rp.Strand)
	e.reg.MarkBad(rec.Query)
	e.ledger.Contain(rp.Host, rec.Query, s)
	e.ledger.Transfer(rec.Query, rp.Host, s)
	e.report.Add(rec.Ref, rec.Query, tag)

	e.logger.Debug("contained", "ref", rec.Ref, "query", rec.Query, "identity", rec.Identity, "reason", tag)
}

// extend works out how far the query's composite reaches past either end of
// the reference, in the reference composite's orientation
func (e *Engine) extend(rec alignment.Record, rp, qp registry.Placement) error {
	hostR, _ := e.reg.Get(rp.Host)
	hostQ, _ := e.reg.Get(qp.Host)
	if hostR.Seq == nil || hostQ.Seq == nil {
		return violation("extend", rec.Ref, rp.Host, errMissingSequence, rec.Query)
	}

	s := rec.Strand
	t := s.Times(qp.Strand)
	hl := len(hostQ.Seq)
	qLen, rLen := rec.QueryLen, rec.RefLen

	// position of query base j in the query composite, oriented as the reference
	phi := func(j int) int {
		h := qp.Offset + j
		if qp.Strand == alignment.Reverse {
			h = qp.Offset + qLen - 1 - j
		}
		if t == alignment.Reverse {
			return hl - 1 - h
		}
		return h
	}

	j0, j1 := rec.QueryLo()-1, rec.QueryHi()-1
	if s == alignment.Reverse {
		j0, j1 = j1, j0
	}

	qa, qb := phi(0), phi(qLen-1)
	if qa > qb {
		qa, qb = qb, qa
	}
	if qa < 0 || qb >= hl {
		e.logger.Warn("placement outside composite", "query", rec.Query, "host", qp.Host, "offset", qp.Offset)
		return nil
	}

	a := phi(j0) - (rec.RefLo() - 1)
	b := phi(j1) + (rLen - rec.RefHi())

	frameSlice := func(lo, hi int) []byte {
		if t == alignment.Forward {
			out := make([]byte, hi-lo)
			copy(out, hostQ.Seq[lo:hi])
			return out
		}
		return alphabet.ReverseComplement(hostQ.Seq[hl-hi : hl-lo])
	}

	before, after := a > 0, b+1 < hl

	// the query composite must not diverge from the reference beyond the query itself
	startOK := before && (qb >= b || qb == hl-1)
	endOK := after && (qa <= a || qa == 0)

	// a composite reaching past both ends spans the reference, so both ends go
	// forward together or not at all
	if before && after {
		startOK = startOK || endOK
		endOK = startOK
		if startOK && !(e.atTerminus(rec, rp, hostR, alignment.Start) && e.atTerminus(rec, rp, hostR, alignment.End)) {
			e.logger.Debug("spanning composite is internal to reference composite", "ref", rec.Ref, "query", rec.Query)
			return nil
		}
	}

	if startOK {
		e.propose(rec, rp, qp, hostR, hl, alignment.Start, frameSlice(0, a))
	}
	if endOK {
		e.propose(rec, rp, qp, hostR, hl, alignment.End, frameSlice(b+1, hl))
	}

	return nil
}

// propose queues an extension found at side of the reference, if side is also an end of the reference's composite
func (e *Engine) propose(rec alignment.Record, rp, qp registry.Placement, hostR *registry.Entry, hl int, side alignment.Boundary, ext []byte) {
	boundary := side
	seq := ext
	if rp.Strand == alignment.Reverse {
		boundary = side.Opposite()
		seq = alphabet.ReverseComplement(ext)
	}

	if !e.atTerminus(rec, rp, hostR, side) {
		e.logger.Debug("extension is internal to composite", "ref", rec.Ref, "host", rp.Host, "side", side)
		return
	}

	c := Candidate{
		Length:     len(seq),
		Donor:      rec.Query,
		Seq:        seq,
		Strand:     rec.Strand.Times(rp.Strand),
		Identity:   rec.Identity,
		Host:       qp.Host,
		HostStrand: qp.Strand,
		HostLen:    hl,
		Owner:      rp.Host,
	}

	// the donor's host lies before the owner for a start extension, after it for an end extension
	c.DonorBoundary = boundary.Opposite()
	if c.frame() == alignment.Reverse {
		c.DonorBoundary = boundary
	}

	e.pending[boundary] = append(e.pending[boundary], c)

	e.logger.Debug("extension", "ref", rec.Ref, "query", rec.Query, "boundary", boundary, "length", c.Length)
}

// atTerminus reports whether side of the reference is also an end of its composite
func (e *Engine) atTerminus(rec alignment.Record, rp registry.Placement, hostR *registry.Entry, side alignment.Boundary) bool {
	boundary := side
	if rp.Strand == alignment.Reverse {
		boundary = side.Opposite()
	}
	if boundary == alignment.End {
		return rp.Offset+rec.RefLen == len(hostR.Seq)
	}
	return rp.Offset == 0
}
