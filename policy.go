package vcs

import (
	"bytes"
	"fmt"
)

// MergePolicy reconciles one kind's payloads. Any of base, ours and
// theirs may be nil, meaning the side has no such delta; a nil result
// drops the delta. conflict reports that both sides changed the value
// in different ways and ours was taken.
type MergePolicy func(k Kind, base, ours, theirs []byte) (merged []byte, conflict bool)

// policies has an entry for every Kind; a hole is caught at init.
var policies = [numKinds]MergePolicy{
	TrackPath:          MergeScalar,
	TrackMute:          MergeScalar,
	TrackColour:        MergeScalar,
	TrackInstrument:    MergeScalar,
	TrackController:    MergeScalar,
	NotesSet:           MergeKeyed,
	EventsSet:          MergeKeyed,
	ClipsSet:           MergeKeyed,
	ProjectPath:        MergeScalar,
	ProjectFullName:    MergeScalar,
	ProjectAuthor:      MergeScalar,
	ProjectDescription: MergeScalar,
}

func init() {
	for k, p := range policies {
		if p == nil {
			panic(fmt.Sprintf("vcs: no merge policy for %s", Kind(k)))
		}
	}
}

func PolicyFor(k Kind) MergePolicy {
	if !k.Valid() {
		defect("no merge policy", "kind", k)
		return MergeScalar
	}
	return policies[k]
}

func sameBytes(a, b []byte) bool {
	return (a == nil) == (b == nil) && bytes.Equal(a, b)
}

// MergeScalar takes the side that moved away from base; if both moved
// to different values, ours wins.
func MergeScalar(_ Kind, base, ours, theirs []byte) ([]byte, bool) {
	switch {
	case sameBytes(ours, theirs):
		return ours, false
	case sameBytes(ours, base):
		return theirs, false
	case sameBytes(theirs, base):
		return ours, false
	}
	return ours, true
}

// MergeKeyed is the structural union of two keyed collections, matched
// by element id. Unchanged elements stay once, additions from either
// side stay, a removal on one side holds if the other side left the
// element alone. When both sides touched the same element, ours wins:
// its edit, its removal or its keep. Local order comes first, then the
// incoming additions in their order.
//
// A payload that does not decode is merged as a scalar.
func MergeKeyed(k Kind, base, ours, theirs []byte) ([]byte, bool) {
	if ours == nil || theirs == nil {
		// the collection itself appeared or vanished
		return MergeScalar(k, base, ours, theirs)
	}
	if sameBytes(ours, theirs) {
		return ours, false
	}
	b, errB := decodeKeyed(k, base)
	o, errO := decodeKeyed(k, ours)
	t, errT := decodeKeyed(k, theirs)
	if errB != nil || errO != nil || errT != nil {
		Log.Warn("collection merged as a whole", "kind", k.String())
		return MergeScalar(k, base, ours, theirs)
	}
	merged, conflict := mergeKeyedSets(b, o, t)
	return merged.encode(k), conflict
}

func mergeKeyedSets(base, ours, theirs *keyedSet) (*keyedSet, bool) {
	merged := newKeyedSet()
	conflict := false
	for _, id := range ours.order {
		mine := ours.byID[id]
		orig, inBase := base.byID[id]
		other, inTheirs := theirs.byID[id]
		switch {
		case inBase && inTheirs:
			if bytes.Equal(mine, orig) {
				merged.add(id, other)
			} else {
				merged.add(id, mine)
				conflict = conflict || !bytes.Equal(other, orig) && !bytes.Equal(other, mine)
			}
		case inBase:
			// removed by theirs
			if bytes.Equal(mine, orig) {
				continue
			}
			merged.add(id, mine)
			conflict = true
		default:
			merged.add(id, mine)
			conflict = conflict || inTheirs && !bytes.Equal(other, mine)
		}
	}
	for _, id := range theirs.order {
		if _, inOurs := ours.byID[id]; inOurs {
			continue
		}
		orig, inBase := base.byID[id]
		if inBase {
			// removed by ours
			conflict = conflict || !bytes.Equal(theirs.byID[id], orig)
			continue
		}
		merged.add(id, theirs.byID[id])
	}
	merged.sort()
	return merged, conflict
}
