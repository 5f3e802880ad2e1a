package tracks

import (
	"sort"

	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/protocol"
)

// Sequence keeps elements sorted by position, ties broken by id, so
// the encoding of equal contents is always the same.
type Sequence[E Element] struct {
	items []E
}

func (s *Sequence[E]) Len() int {
	return len(s.items)
}

// All returns the elements in order; the slice is shared.
func (s *Sequence[E]) All() []E {
	return s.items
}

func (s *Sequence[E]) index(id string) int {
	for i, e := range s.items {
		if e.Identity() == id {
			return i
		}
	}
	return -1
}

func (s *Sequence[E]) Get(id string) (e E, ok bool) {
	i := s.index(id)
	if i < 0 {
		return e, false
	}
	return s.items[i], true
}

func less[E Element](a, b E) bool {
	if a.Position() != b.Position() {
		return a.Position() < b.Position()
	}
	return a.Identity() < b.Identity()
}

// Put inserts or replaces the element with the same id. It returns
// the replaced element, if any.
func (s *Sequence[E]) Put(e E) (old E, replaced bool) {
	if i := s.index(e.Identity()); i >= 0 {
		old, replaced = s.items[i], true
		s.items = append(s.items[:i], s.items[i+1:]...)
	}
	at := sort.Search(len(s.items), func(i int) bool { return less(e, s.items[i]) })
	s.items = append(s.items, e)
	copy(s.items[at+1:], s.items[at:])
	s.items[at] = e
	return
}

func (s *Sequence[E]) Remove(id string) (old E, ok bool) {
	i := s.index(id)
	if i < 0 {
		return old, false
	}
	old = s.items[i]
	s.items = append(s.items[:i], s.items[i+1:]...)
	return old, true
}

// Encode renders the collection payload of the kind.
func (s *Sequence[E]) Encode(k vcs.Kind) []byte {
	tree := vcs.NewPayload(k)
	for _, e := range s.items {
		tree.Add(e.Tree())
	}
	return tree.Marshal()
}

// DecodeSequence parses a whole collection payload. Nothing is
// returned unless every element parses.
func DecodeSequence[E Element](k vcs.Kind, payload []byte, parse func(*protocol.Tree) (E, error)) (*Sequence[E], error) {
	tree, err := vcs.ParsePayload(k, payload)
	if err != nil {
		return nil, err
	}
	seq := &Sequence[E]{}
	for _, child := range tree.Children {
		e, err := parse(child)
		if err != nil {
			return nil, &vcs.DecodeError{Kind: k, Err: err}
		}
		if _, dup := seq.Put(e); dup {
			vcs.IdentityCollisions.WithLabelValues(k.String()).Inc()
			vcs.Log.Warn("identity collision", "kind", k.String(), "id", e.Identity())
		}
	}
	return seq, nil
}

// SequenceChanges is what Reset did, by identity.
type SequenceChanges[E Element] struct {
	Added   []E
	Changed [][2]E
	Removed []E
}

// Reset replaces the contents with next's and reports the difference.
func (s *Sequence[E]) Reset(next *Sequence[E]) (ch SequenceChanges[E]) {
	for _, e := range next.items {
		old, ok := s.Get(e.Identity())
		if !ok {
			ch.Added = append(ch.Added, e)
		} else if !old.Tree().Equal(e.Tree()) {
			ch.Changed = append(ch.Changed, [2]E{old, e})
		}
	}
	for _, e := range s.items {
		if next.index(e.Identity()) < 0 {
			ch.Removed = append(ch.Removed, e)
		}
	}
	s.items = append(s.items[:0:0], next.items...)
	return
}
