/*
Package ledger tracks containment provenance for fragment-named contigs.

A fragment name has the form "super.sub". The ledger keeps two views:

	in[owner][member]        = orientation of member in owner
	self[super][sub][owner]  = orientation of super.sub in owner

Every fragment has exactly one current owner. Absorbing an owner into a
new one moves everything it held across, composing orientations.
*/
package ledger

import (
	"bufio"
	"io"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/virus-evolution/assemblender/pkg/alignment"
)

type Bucket map[string]alignment.Strand

type Ledger struct {
	in   map[string]Bucket
	self map[string]map[string]Bucket
	// owner -> fragments it currently owns in self
	owned map[string]map[string]struct{}
}

func New() *Ledger {
	return &Ledger{
		in:    make(map[string]Bucket),
		self:  make(map[string]map[string]Bucket),
		owned: make(map[string]map[string]struct{}),
	}
}

// SplitFragment splits a "super.sub" name
func SplitFragment(name string) (string, string, bool) {
	super, sub, ok := strings.Cut(name, ".")
	if !ok || super == "" || sub == "" {
		return "", "", false
	}
	return super, sub, true
}

// In returns owner's member bucket, creating it empty if needed
func (l *Ledger) In(owner string) Bucket {
	b, ok := l.in[owner]
	if !ok {
		b = make(Bucket)
		l.in[owner] = b
	}
	return b
}

// Self returns the owner bucket of fragment super.sub, creating it empty if needed
func (l *Ledger) Self(super, sub string) Bucket {
	subs, ok := l.self[super]
	if !ok {
		subs = make(map[string]Bucket)
		l.self[super] = subs
	}
	b, ok := subs[sub]
	if !ok {
		b = make(Bucket)
		subs[sub] = b
	}
	return b
}

// Owner returns the current owner of a fragment
func (l *Ledger) Owner(fragment string) (string, alignment.Strand, bool) {
	super, sub, ok := SplitFragment(fragment)
	if !ok {
		return "", 0, false
	}
	for o, s := range l.self[super][sub] {
		return o, s, true
	}
	return "", 0, false
}

func (l *Ledger) setOwner(fragment, owner string, s alignment.Strand) {
	super, sub, _ := SplitFragment(fragment)
	b := l.Self(super, sub)
	for o := range b {
		delete(b, o)
		if f, ok := l.owned[o]; ok {
			delete(f, fragment)
			if len(f) == 0 {
				delete(l.owned, o)
			}
		}
	}
	b[owner] = s

	f, ok := l.owned[owner]
	if !ok {
		f = make(map[string]struct{})
		l.owned[owner] = f
	}
	f[fragment] = struct{}{}
}

// Contain records that member is wholly covered by owner. Only fragment
// names are recorded
func (l *Ledger) Contain(owner, member string, s alignment.Strand) {
	if _, _, ok := SplitFragment(member); !ok {
		return
	}
	l.setOwner(member, owner, s)
}

// Absorb records that member, oriented s, is now part of owner. Everything
// member held is transferred to owner
func (l *Ledger) Absorb(owner, member string, s alignment.Strand) {
	if owner == member {
		return
	}
	if _, _, ok := SplitFragment(member); ok {
		l.In(owner)[member] = s
		l.setOwner(member, owner, s)
	}
	l.Transfer(member, owner, s)
}

// Transfer moves everything from holds to to, where from sits in to with
// orientation s. Members already present under to are left alone
func (l *Ledger) Transfer(from, to string, s alignment.Strand) {
	if from == to {
		return
	}

	if b, ok := l.in[from]; ok {
		dest := l.In(to)
		for m, ms := range b {
			if m == to {
				continue
			}
			if _, ok := dest[m]; !ok {
				dest[m] = s.Times(ms)
			}
		}
		delete(l.in, from)
	}

	if f, ok := l.owned[from]; ok {
		for _, fragment := range maps.Keys(f) {
			_, fs, _ := l.Owner(fragment)
			l.setOwner(fragment, to, s.Times(fs))
		}
	}

	l.collapse(to)
}

// collapse drops owners of owner's members that are themselves members of owner
func (l *Ledger) collapse(owner string) {
	b, ok := l.in[owner]
	if !ok {
		return
	}
	for m, ms := range b {
		super, sub, ok := SplitFragment(m)
		if !ok {
			continue
		}
		owners := l.Self(super, sub)
		for o := range owners {
			if _, inside := b[o]; inside {
				delete(owners, o)
				if f, ok := l.owned[o]; ok {
					delete(f, m)
				}
			}
		}
		if len(owners) == 0 {
			l.setOwner(m, owner, ms)
		}
	}
}

// Flip reverses the orientation of everything owner holds
func (l *Ledger) Flip(owner string) {
	for m, s := range l.in[owner] {
		l.in[owner][m] = s.Times(alignment.Reverse)
	}
	for fragment := range l.owned[owner] {
		super, sub, _ := SplitFragment(fragment)
		b := l.Self(super, sub)
		b[owner] = b[owner].Times(alignment.Reverse)
	}
}

// WriteContigIn writes one line per non-empty owner: owner, then its members comma-joined
func (l *Ledger) WriteContigIn(w io.Writer) error {
	bw := bufio.NewWriter(w)

	owners := maps.Keys(l.in)
	slices.Sort(owners)

	for _, owner := range owners {
		members := maps.Keys(l.in[owner])
		if len(members) == 0 {
			continue
		}
		slices.Sort(members)
		if _, err := bw.WriteString(owner + "\t" + strings.Join(members, ",") + "\n"); err != nil {
			return err
		}
	}

	return bw.Flush()
}

// WriteContigSelf writes one line per fragment: super.sub, then its owners comma-joined
func (l *Ledger) WriteContigSelf(w io.Writer) error {
	bw := bufio.NewWriter(w)

	supers := maps.Keys(l.self)
	slices.Sort(supers)

	for _, super := range supers {
		subs := maps.Keys(l.self[super])
		slices.Sort(subs)
		for _, sub := range subs {
			owners := maps.Keys(l.self[super][sub])
			if len(owners) == 0 {
				continue
			}
			slices.Sort(owners)
			if _, err := bw.WriteString(super + "." + sub + "\t" + strings.Join(owners, ",") + "\n"); err != nil {
				return err
			}
		}
	}

	return bw.Flush()
}
