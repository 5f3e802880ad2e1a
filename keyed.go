package vcs

import (
	"bytes"
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/drpcorg/vcs/protocol"
)

// keyedSet is a collection payload decoded into elements keyed by
// their id property. Element bodies stay serialized: the engine only
// needs identity and structural equality, never the concrete type.
type keyedSet struct {
	order []string
	byID  map[string][]byte
}

func newKeyedSet() *keyedSet {
	return &keyedSet{byID: make(map[string][]byte)}
}

// decodeKeyed parses a collection payload; nil payload is an empty set.
// Duplicate ids: the last one in payload order wins, and it is reported.
func decodeKeyed(k Kind, payload []byte) (*keyedSet, error) {
	set := newKeyedSet()
	if payload == nil {
		return set, nil
	}
	tree, err := ParsePayload(k, payload)
	if err != nil {
		return nil, err
	}
	for _, child := range tree.Children {
		id, ok := child.GetString(IDProp)
		if !ok {
			return nil, &DecodeError{Kind: k, Err: ErrNoIdentity}
		}
		if _, seen := set.byID[id]; seen {
			IdentityCollisions.WithLabelValues(k.String()).Inc()
			Log.Warn("identity collision", "kind", k.String(), "id", id)
		} else {
			set.order = append(set.order, id)
		}
		set.byID[id] = child.Marshal()
	}
	return set, nil
}

func (ks *keyedSet) Len() int {
	return len(ks.order)
}

func (ks *keyedSet) add(id string, element []byte) {
	if _, ok := ks.byID[id]; !ok {
		ks.order = append(ks.order, id)
	}
	ks.byID[id] = element
}

// sort puts the elements in timeline order, position then id, which
// is the order live collections encode in.
func (ks *keyedSet) sort() {
	pos := make(map[string]float64, len(ks.order))
	for _, id := range ks.order {
		if el, err := protocol.Unmarshal(ks.byID[id]); err == nil {
			pos[id], _ = el.GetFloat(PosProp)
		}
	}
	slices.SortFunc(ks.order, func(a, b string) int {
		if c := cmp.Compare(pos[a], pos[b]); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
}

func (ks *keyedSet) encode(k Kind) []byte {
	tree := NewPayload(k)
	for _, id := range ks.order {
		child, err := protocol.Unmarshal(ks.byID[id])
		if err != nil { // elements come from parsed payloads
			continue
		}
		tree.Add(child)
	}
	return tree.Marshal()
}

// ElementChange is one element modified in place, matched by id.
type ElementChange struct {
	ID       string
	Old, New []byte
}

// CollectionPatch is what changed inside a keyed collection, by
// identity. Element payloads are serialized element trees.
type CollectionPatch struct {
	Added    [][]byte
	Removed  [][]byte
	Modified []ElementChange
}

func (p *CollectionPatch) Empty() bool {
	return p == nil || len(p.Added)+len(p.Removed)+len(p.Modified) == 0
}

func (p *CollectionPatch) String() string {
	return fmt.Sprintf("+%d -%d ~%d", len(p.Added), len(p.Removed), len(p.Modified))
}

// Marshal renders the patch as a payload tree:
// patch{added{...} removed{...} modified{change{old{..} new{..}}}}
func (p *CollectionPatch) Marshal() []byte {
	added := protocol.NewTree("added")
	for _, el := range p.Added {
		if child, err := protocol.Unmarshal(el); err == nil {
			added.Add(child)
		}
	}
	removed := protocol.NewTree("removed")
	for _, el := range p.Removed {
		if child, err := protocol.Unmarshal(el); err == nil {
			removed.Add(child)
		}
	}
	modified := protocol.NewTree("modified")
	for _, mod := range p.Modified {
		change := protocol.NewTree("change").SetString(IDProp, mod.ID)
		old, err1 := protocol.Unmarshal(mod.Old)
		nu, err2 := protocol.Unmarshal(mod.New)
		if err1 != nil || err2 != nil {
			continue
		}
		change.Add(old).Add(nu)
		modified.Add(change)
	}
	return protocol.NewTree("patch").Add(added).Add(removed).Add(modified).Marshal()
}

// diffKeyed compares two collections by identity: ids only in target
// are added, ids only in initial are removed, the rest are modified
// when their serialized bodies differ. Order changes are not changes.
func diffKeyed(initial, target *keyedSet) *CollectionPatch {
	patch := &CollectionPatch{}
	for _, id := range target.order {
		el := target.byID[id]
		old, ok := initial.byID[id]
		if !ok {
			patch.Added = append(patch.Added, el)
		} else if !bytes.Equal(old, el) {
			patch.Modified = append(patch.Modified, ElementChange{ID: id, Old: old, New: el})
		}
	}
	for _, id := range initial.order {
		if _, ok := target.byID[id]; !ok {
			patch.Removed = append(patch.Removed, initial.byID[id])
		}
	}
	return patch
}

func describePatch(k Kind, p *CollectionPatch) string {
	parts := make([]string, 0, 3)
	if len(p.Added) > 0 {
		parts = append(parts, fmt.Sprintf("%d added", len(p.Added)))
	}
	if len(p.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("%d removed", len(p.Removed)))
	}
	if len(p.Modified) > 0 {
		parts = append(parts, fmt.Sprintf("%d changed", len(p.Modified)))
	}
	return elementNoun(k) + ": " + strings.Join(parts, ", ")
}

func elementNoun(k Kind) string {
	switch k {
	case NotesSet:
		return "notes"
	case EventsSet:
		return "events"
	case ClipsSet:
		return "clips"
	}
	return k.String()
}
