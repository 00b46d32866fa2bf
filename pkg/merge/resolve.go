package merge

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/virus-evolution/assemblender/pkg/alignment"
	"github.com/virus-evolution/assemblender/pkg/registry"
	"github.com/virus-evolution/assemblender/pkg/report"
)

// resolve finalises every candidate queued against ref
func (e *Engine) resolve(ref string) error {
	defer e.clearPending()

	if len(e.pending[alignment.Start]) == 0 && len(e.pending[alignment.End]) == 0 {
		return nil
	}
	if !e.reg.Usable(ref) {
		return nil
	}

	owner, err := e.owner(ref)
	if err != nil {
		return err
	}
	if !e.reg.Usable(owner) {
		return nil
	}

	start, err := e.prune(ref, owner, e.pending[alignment.Start])
	if err != nil {
		return err
	}
	end, err := e.prune(ref, owner, e.pending[alignment.End])
	if err != nil {
		return err
	}
	if len(start) == 0 && len(end) == 0 {
		return nil
	}

	var ws, we *Candidate
	if len(start) > 0 {
		ws = &start[0]
	}
	if len(end) > 0 {
		we = &end[0]
	}

	e.logger.Debug("resolving", "ref", ref, "owner", owner, "start", len(start), "end", len(end))

	var merged bool
	if ws != nil && we != nil && ws.Host == we.Host {
		merged, err = e.cover(ref, owner, ws, we)
	} else {
		merged, err = true, e.splice(ref, owner, ws, we)
	}
	if err != nil {
		return err
	}

	if merged {
		e.losers(ref, start, end)
	}
	e.reg.MarkProcessed(ref)

	return nil
}

// owner is the composite that ref's extensions apply to. A covered ref is
// placed inside its container, so one lookup finds either
func (e *Engine) owner(ref string) (string, error) {
	p, err := e.reg.Locate(ref)
	if err != nil {
		return "", violation("resolve", ref, "", err)
	}
	return p.Host, nil
}

// prune drops candidates whose donor has since left play, then orders the rest longest first
func (e *Engine) prune(ref, owner string, list []Candidate) ([]Candidate, error) {
	out := make([]Candidate, 0, len(list))
	for _, c := range list {
		if !e.reg.Usable(c.Donor) || !e.reg.Usable(c.Host) || c.Host == owner || c.Owner != owner {
			continue
		}
		p, err := e.reg.Locate(c.Donor)
		if err != nil {
			return nil, violation("resolve", ref, owner, err, c.Donor)
		}
		if p.Host != c.Host {
			continue
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b Candidate) int {
		return b.Length - a.Length
	})

	return out, nil
}

// splice joins the winning extensions onto either end of the owner composite
func (e *Engine) splice(ref, owner string, ws, we *Candidate) error {
	h, _ := e.reg.Get(owner)
	hrl := len(h.Seq)
	donors := donorNames(ws, we)

	var ls, le int
	var hs, he *registry.Entry
	if ws != nil {
		hs, _ = e.reg.Get(ws.Host)
		if len(hs.Seq) != ws.HostLen {
			return violation("splice", ref, owner, errMissingSequence, donors...)
		}
		ls = ws.Length
	}
	if we != nil {
		he, _ = e.reg.Get(we.Host)
		if len(he.Seq) != we.HostLen {
			return violation("splice", ref, owner, errMissingSequence, donors...)
		}
		le = we.Length
	}

	seq := make([]byte, 0, ls+hrl+le)
	var comp []string
	if ws != nil {
		seq = append(seq, ws.Seq...)
		comp = append(comp, oriented(hs.Composition, ws.frame())...)
	}
	seq = append(seq, h.Seq...)
	comp = append(comp, h.Composition...)
	if we != nil {
		seq = append(seq, we.Seq...)
		comp = append(comp, oriented(he.Composition, we.frame())...)
	}

	for _, m := range e.reg.Members(owner) {
		me, _ := e.reg.Get(m)
		p := me.Placement
		p.Offset += ls
		if err := e.reg.Place(m, p); err != nil {
			return violation("splice", ref, owner, err, donors...)
		}
	}
	if ws != nil {
		if err := e.fold(ws.Host, registry.Placement{Host: owner, Offset: 0, Strand: ws.frame()}); err != nil {
			return violation("splice", ref, owner, err, donors...)
		}
	}
	if we != nil {
		outer := registry.Placement{Host: owner, Offset: ls + hrl + le - we.HostLen, Strand: we.frame()}
		if err := e.fold(we.Host, outer); err != nil {
			return violation("splice", ref, owner, err, donors...)
		}
	}
	if err := e.reg.SetComposite(owner, seq, comp); err != nil {
		return violation("splice", ref, owner, err, donors...)
	}

	label := fmt.Sprintf("%s (%s)", ref, owner)
	names := []string{owner}
	if ws != nil {
		e.report.Add(label, fmt.Sprintf("%s part of %s", ws.Donor, ws.Host), fmt.Sprintf("start_extended_%d", ls))
		names = append(names, ws.Donor, ws.Host)
	}
	if we != nil {
		e.report.Add(label, fmt.Sprintf("%s part of %s", we.Donor, we.Host), fmt.Sprintf("end_extended_%d", le))
		names = append(names, we.Donor, we.Host)
	}

	return e.settle(ref, owner, smallest(names...))
}

// cover handles both winners coming from the same composite, which then already spans the owner
func (e *Engine) cover(ref, owner string, ws, we *Candidate) (bool, error) {
	x := ws.Host
	label := fmt.Sprintf("%s (%s)", ref, owner)

	if ws.frame() != we.frame() {
		e.report.Add(label, x, report.ConflictingCover)
		e.logger.Warn("conflicting cover", "ref", ref, "owner", owner, "host", x)
		return false, nil
	}

	h, _ := e.reg.Get(owner)
	hx, _ := e.reg.Get(x)
	if len(hx.Seq) != ws.HostLen {
		return false, violation("cover", ref, owner, errMissingSequence, donorNames(ws, we)...)
	}

	u := ws.frame()
	outer := registry.Placement{Host: x, Offset: ws.Length, Strand: u}
	if u == alignment.Reverse {
		outer.Offset = ws.HostLen - ws.Length - len(h.Seq)
	}
	if err := e.fold(owner, outer); err != nil {
		return false, violation("cover", ref, owner, err, donorNames(ws, we)...)
	}

	if ws.Donor == we.Donor && ws.Donor == x {
		re, _ := e.reg.Get(ref)
		s := re.Placement.Strand

		e.reg.MarkBad(ref)
		e.ledger.Contain(x, ref, s)
		e.ledger.Transfer(ref, x, s)
		e.report.Add(label, x, report.QueryCoversRef)

		return true, e.settle(ref, x, x)
	}

	e.report.Add(label, fmt.Sprintf("%s and %s both in %s", ws.Donor, we.Donor, x), report.CombinedCoversRef)

	return true, e.settle(ref, x, smallest(owner, ws.Donor, x, we.Donor))
}

// fold re-places every member of the composite hosted by from into outer
func (e *Engine) fold(from string, outer registry.Placement) error {
	inner, _ := e.reg.Get(from)
	innerLen := len(inner.Seq)
	for _, m := range e.reg.Members(from) {
		me, _ := e.reg.Get(m)
		if err := e.reg.Place(m, me.Placement.Compose(outer, innerLen, me.Length)); err != nil {
			return err
		}
	}
	return nil
}

// settle renames the composite hosted by host to final, brings the ledger up to
// date, and flips the composite so that final reads forward
func (e *Engine) settle(ref, host, final string) error {
	if final != host {
		if err := e.reg.Rename(host, final); err != nil {
			return violation("rename", ref, host, err, final)
		}
		e.report.Add(host, final, report.Renamed)
	}

	for _, m := range e.reg.Members(final) {
		if m == final {
			continue
		}
		me, _ := e.reg.Get(m)
		e.ledger.Absorb(final, m, me.Placement.Strand)
	}

	fe, _ := e.reg.Get(final)
	if fe.Placement.Strand == alignment.Reverse {
		if err := e.reg.Flip(final); err != nil {
			return violation("flip", ref, host, err, final)
		}
		e.ledger.Flip(final)
	}

	e.logger.Info("merged", "ref", ref, "contig", final, "length", len(fe.Seq), "members", e.reg.MemberCount(final))

	return nil
}

// losers retires the candidates that did not win
func (e *Engine) losers(ref string, start, end []Candidate) {
	startLost := make(map[string]bool)
	endLost := make(map[string]bool)
	if len(start) > 1 {
		for _, c := range start[1:] {
			startLost[c.Donor] = true
		}
	}
	if len(end) > 1 {
		for _, c := range end[1:] {
			endLost[c.Donor] = true
		}
	}

	if len(start) > 1 {
		for _, c := range start[1:] {
			tag := report.StartShort
			if endLost[c.Donor] {
				tag = report.BothEndsShort
			}
			e.retire(ref, c.Donor, tag)
		}
	}
	if len(end) > 1 {
		for _, c := range end[1:] {
			if !startLost[c.Donor] {
				e.retire(ref, c.Donor, report.EndShort)
			}
		}
	}
}

func (e *Engine) retire(ref, donor, tag string) {
	if !e.reg.Usable(donor) {
		return
	}
	if e.reg.Redirected(donor) || e.reg.MemberCount(donor) > 1 {
		e.report.Add(ref, donor, tag+" "+report.InGood)
		return
	}
	e.reg.MarkBad(donor)
	e.report.Add(ref, donor, tag)
}

// oriented returns a composition as read in orientation s
func oriented(comp []string, s alignment.Strand) []string {
	out := make([]string, len(comp))
	copy(out, comp)
	if s == alignment.Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}

func smallest(names ...string) string {
	var min string
	for _, n := range names {
		if n != "" && (min == "" || n < min) {
			min = n
		}
	}
	return min
}

func donorNames(ws, we *Candidate) []string {
	var out []string
	if ws != nil {
		out = append(out, ws.Donor)
	}
	if we != nil {
		out = append(out, we.Donor)
	}
	return out
}
