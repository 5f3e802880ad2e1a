package vcs

import (
	"bytes"
	"strings"
)

type Op byte

const (
	Added   Op = '+'
	Removed Op = '-'
	Changed Op = '~'
)

func (op Op) String() string {
	switch op {
	case Added:
		return "added"
	case Removed:
		return "removed"
	case Changed:
		return "changed"
	}
	return "?"
}

// Change is one delta kind that differs between two states.
// Old is nil for Added, New is nil for Removed. A Changed collection
// carries the Patch instead of the two whole payloads.
type Change struct {
	Kind  Kind
	Op    Op
	Old   []byte
	New   []byte
	Patch *CollectionPatch
}

func (c Change) String() string {
	var desc string
	switch {
	case c.Patch != nil:
		desc = describePatch(c.Kind, c.Patch)
	case c.Op == Added:
		desc = Describe(c.Kind, c.New)
	case c.Op == Removed:
		desc = Describe(c.Kind, c.Old)
	default:
		desc = Describe(c.Kind, c.Old) + " -> " + Describe(c.Kind, c.New)
	}
	return string(rune(c.Op)) + c.Kind.String() + " " + desc
}

// Diff lists the changes in Kind order. It is for display and audit;
// applying a state goes through a merge and ResetStateTo.
type Diff []Change

func (d Diff) Empty() bool {
	return len(d) == 0
}

func (d Diff) Find(k Kind) (Change, bool) {
	for _, c := range d {
		if c.Kind == k {
			return c, true
		}
	}
	return Change{}, false
}

func (d Diff) String() string {
	lines := make([]string, 0, len(d))
	for _, c := range d {
		lines = append(lines, c.String())
	}
	return strings.Join(lines, "\n")
}

// diffItems compares target against initial, kind by kind.
func diffItems(initial, target TrackedItem) Diff {
	var diff Diff
	for k := Kind(0); k < numKinds; k++ {
		old := PayloadOf(initial, k)
		nu := PayloadOf(target, k)
		switch {
		case old == nil && nu == nil:
		case old == nil:
			diff = append(diff, Change{Kind: k, Op: Added, New: nu})
		case nu == nil:
			diff = append(diff, Change{Kind: k, Op: Removed, Old: old})
		case bytes.Equal(old, nu):
		case k.IsCollection():
			if c, ok := diffCollection(k, old, nu); ok {
				diff = append(diff, c)
			}
		default:
			diff = append(diff, Change{Kind: k, Op: Changed, Old: old, New: nu})
		}
	}
	return diff
}

// diffCollection reports ok=false when both sides hold the same
// elements. A side that does not decode is compared as a whole payload.
func diffCollection(k Kind, old, nu []byte) (Change, bool) {
	from, err := decodeKeyed(k, old)
	if err == nil {
		var to *keyedSet
		to, err = decodeKeyed(k, nu)
		if err == nil {
			patch := diffKeyed(from, to)
			if patch.Empty() {
				return Change{}, false
			}
			return Change{Kind: k, Op: Changed, Patch: patch}, true
		}
	}
	Log.Warn("collection diffed as a whole", "kind", k.String(), "err", err)
	return Change{Kind: k, Op: Changed, Old: old, New: nu}, true
}
