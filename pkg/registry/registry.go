/*
Package registry owns every contig's sequence, status and position.

Each input contig is placed inside exactly one composite: the composite
is named after its host, and a contig that has been spliced into someone
else's composite is redirected to that host with the offset and strand of
its original sequence there. Redirects are always one hop deep; whenever a
composite is absorbed into another, all of its members are re-placed onto
the new host directly.
*/
package registry

import (
	"errors"
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/virus-evolution/assemblender/pkg/alignment"
	"github.com/virus-evolution/assemblender/pkg/alphabet"
)

var (
	ErrDuplicate     = errors.New("duplicate contig name")
	ErrUnknown       = errors.New("contig not in registry")
	ErrRedirectChain = errors.New("redirect chain longer than one hop")
	ErrNotMember     = errors.New("contig is not a member of the composite")
)

type Status int

const (
	Active Status = iota
	Bad
	Redirected
	// Unsafe contigs belong to a pair that extends each other at both ends.
	// Unlike Bad they are not dropped: both stay in the output assembly and are
	// only barred from any further merging
	Unsafe
)

func (s Status) String() string {
	switch s {
	case Bad:
		return "bad"
	case Redirected:
		return "redirected"
	case Unsafe:
		return "unsafe"
	}
	return "active"
}

// Placement locates a contig's original sequence inside a composite
type Placement struct {
	Host   string
	Offset int
	Strand alignment.Strand
}

// Compose re-expresses p, a placement inside a composite of length innerLen,
// relative to the composite that outer places that whole composite into.
// length is the length of the sequence p places
func (p Placement) Compose(outer Placement, innerLen, length int) Placement {
	if outer.Strand == alignment.Forward {
		return Placement{Host: outer.Host, Offset: outer.Offset + p.Offset, Strand: p.Strand}
	}
	return Placement{
		Host:   outer.Host,
		Offset: outer.Offset + innerLen - p.Offset - length,
		Strand: p.Strand.Times(alignment.Reverse),
	}
}

type Entry struct {
	Name      string
	Index     int
	Length    int
	Status    Status
	Placement Placement

	// Seq and Composition are only held by hosts
	Seq         []byte
	Composition []string
}

// IsHost reports whether this contig names its own composite
func (e *Entry) IsHost() bool {
	return e.Placement.Host == e.Name
}

type Registry struct {
	entries   map[string]*Entry
	order     []string
	members   map[string]map[string]struct{}
	processed map[string]bool
}

func New() *Registry {
	return &Registry{
		entries:   make(map[string]*Entry),
		members:   make(map[string]map[string]struct{}),
		processed: make(map[string]bool),
	}
}

// Add registers a new contig as the sole member of its own composite
func (r *Registry) Add(name string, seq []byte) error {
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, name)
	}

	owned := make([]byte, len(seq))
	copy(owned, seq)

	r.entries[name] = &Entry{
		Name:        name,
		Index:       len(r.order),
		Length:      len(seq),
		Status:      Active,
		Placement:   Placement{Host: name, Offset: 0, Strand: alignment.Forward},
		Seq:         owned,
		Composition: []string{name},
	}
	r.order = append(r.order, name)
	r.members[name] = map[string]struct{}{name: {}}

	return nil
}

func (r *Registry) Get(name string) (*Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

func (r *Registry) Len() int {
	return len(r.entries)
}

// Locate returns where name currently sits
func (r *Registry) Locate(name string) (Placement, error) {
	e, ok := r.entries[name]
	if !ok {
		return Placement{}, fmt.Errorf("%w: %s", ErrUnknown, name)
	}

	p := e.Placement
	if p.Host == name {
		return p, nil
	}

	h, ok := r.entries[p.Host]
	if !ok {
		return Placement{}, fmt.Errorf("%w: %s (host of %s)", ErrUnknown, p.Host, name)
	}
	if !h.IsHost() {
		return Placement{}, fmt.Errorf("%w: %s -> %s -> %s", ErrRedirectChain, name, h.Name, h.Placement.Host)
	}

	return p, nil
}

// Host returns the entry holding the composite that name belongs to
func (r *Registry) Host(name string) (*Entry, error) {
	p, err := r.Locate(name)
	if err != nil {
		return nil, err
	}
	return r.entries[p.Host], nil
}

// Usable reports whether name can take part in a merge
func (r *Registry) Usable(name string) bool {
	e, ok := r.entries[name]
	return ok && (e.Status == Active || e.Status == Redirected)
}

func (r *Registry) Redirected(name string) bool {
	e, ok := r.entries[name]
	return ok && !e.IsHost()
}

// MarkBad deactivates name and drops it from its composite's member list
func (r *Registry) MarkBad(name string) {
	e, ok := r.entries[name]
	if !ok {
		return
	}
	e.Status = Bad
	if m, ok := r.members[e.Placement.Host]; ok {
		delete(m, name)
		if len(m) == 0 {
			delete(r.members, e.Placement.Host)
		}
	}
	if e.IsHost() {
		e.Seq = nil
	}
}

func (r *Registry) MarkUnsafe(name string) {
	if e, ok := r.entries[name]; ok && e.Status != Bad {
		e.Status = Unsafe
	}
}

// Members returns the names placed in host's composite, sorted
func (r *Registry) Members(host string) []string {
	names := maps.Keys(r.members[host])
	slices.Sort(names)
	return names
}

func (r *Registry) MemberCount(host string) int {
	return len(r.members[host])
}

// Place moves name into the composite named by p.Host
func (r *Registry) Place(name string, p Placement) error {
	e, ok := r.entries[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, name)
	}

	if m, ok := r.members[e.Placement.Host]; ok {
		delete(m, name)
		if len(m) == 0 {
			delete(r.members, e.Placement.Host)
		}
	}

	e.Placement = p
	if e.Status == Active || e.Status == Redirected {
		if p.Host == name {
			e.Status = Active
		} else {
			e.Status = Redirected
		}
	}
	if p.Host != name {
		e.Seq = nil
		e.Composition = nil
	}

	if e.Status != Bad {
		m, ok := r.members[p.Host]
		if !ok {
			m = make(map[string]struct{})
			r.members[p.Host] = m
		}
		m[name] = struct{}{}
	}

	return nil
}

// SetComposite replaces host's sequence and composition
func (r *Registry) SetComposite(host string, seq []byte, composition []string) error {
	e, ok := r.entries[host]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, host)
	}
	e.Seq = seq
	e.Composition = composition
	return nil
}

// Rename hands the composite hosted by from over to to, which must already be a member
func (r *Registry) Rename(from, to string) error {
	if from == to {
		return nil
	}

	h, ok := r.entries[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, from)
	}
	n, ok := r.entries[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, to)
	}
	if n.Placement.Host != from {
		return fmt.Errorf("%w: %s is not in %s", ErrNotMember, to, from)
	}

	seq, comp := h.Seq, h.Composition

	for _, name := range r.Members(from) {
		p := r.entries[name].Placement
		p.Host = to
		if err := r.Place(name, p); err != nil {
			return err
		}
	}

	n.Seq, n.Composition = seq, comp

	return nil
}

// Flip reverse complements host's composite, reversing its composition and every member's placement
func (r *Registry) Flip(host string) error {
	h, ok := r.entries[host]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknown, host)
	}

	total := len(h.Seq)
	h.Seq = alphabet.ReverseComplement(h.Seq)

	comp := make([]string, len(h.Composition))
	for i, j := 0, len(h.Composition)-1; j >= 0; i, j = i+1, j-1 {
		comp[i] = h.Composition[j]
	}
	h.Composition = comp

	for name := range r.members[host] {
		e := r.entries[name]
		e.Placement.Offset = total - e.Placement.Offset - e.Length
		e.Placement.Strand = e.Placement.Strand.Times(alignment.Reverse)
	}

	return nil
}

func (r *Registry) Processed(name string) bool {
	return r.processed[name]
}

func (r *Registry) MarkProcessed(name string) {
	r.processed[name] = true
}

// Survivors returns the hosts that belong in the output, in input order
func (r *Registry) Survivors() []*Entry {
	var out []*Entry
	for _, name := range r.order {
		e := r.entries[name]
		if e.IsHost() && (e.Status == Active || e.Status == Unsafe) {
			out = append(out, e)
		}
	}
	return out
}

// Redirects returns the contigs still redirected into another composite, in input order
func (r *Registry) Redirects() []*Entry {
	var out []*Entry
	for _, name := range r.order {
		e := r.entries[name]
		if !e.IsHost() && e.Status != Bad {
			out = append(out, e)
		}
	}
	return out
}
