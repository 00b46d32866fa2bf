package merge

import (
	"github.com/virus-evolution/assemblender/pkg/alignment"
	"github.com/virus-evolution/assemblender/pkg/report"
)

// dedup runs when consecutive records pair the same reference and query
func (e *Engine) dedup(ref string) {
	start, end := e.pending[alignment.Start], e.pending[alignment.End]

	// one query reaching past both ends of the reference: neither can be trusted again
	if len(start) > 0 && len(end) > 0 && start[len(start)-1].Donor == end[len(end)-1].Donor {
		donor := start[len(start)-1].Donor

		e.reg.MarkUnsafe(ref)
		e.reg.MarkUnsafe(donor)
		e.reg.MarkProcessed(ref)

		e.pending[alignment.Start] = start[:len(start)-1]
		e.pending[alignment.End] = end[:len(end)-1]

		e.report.Add(ref, donor, report.UnsafePair)
		e.logger.Warn("unsafe pair", "ref", ref, "query", donor)
		return
	}

	switch {
	case repeated(start):
		e.pending[alignment.Start] = keepBetter(start)
	case repeated(end):
		e.pending[alignment.End] = keepBetter(end)
	}
}

func repeated(list []Candidate) bool {
	return len(list) > 1 && list[len(list)-1].Donor == list[len(list)-2].Donor
}

// keepBetter drops one of the final two candidates: the lower identity, or on a tie the shorter
func keepBetter(list []Candidate) []Candidate {
	n := len(list)
	last, prev := list[n-1], list[n-2]

	dropLast := last.Identity < prev.Identity || (last.Identity == prev.Identity && last.Length < prev.Length)
	if dropLast {
		return list[:n-1]
	}

	out := list[:n-2]
	return append(out, last)
}
