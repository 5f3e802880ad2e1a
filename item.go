package vcs

import (
	"log/slog"

	"github.com/drpcorg/vcs/utils"
)

// Log receives engine warnings: skipped deltas, identity collisions,
// misuse. Replace it before use to route them elsewhere.
var Log utils.Logger = utils.NewDefaultLogger(slog.LevelWarn)

// TrackedItem is anything the engine can diff and merge: a track,
// the project info record, or a frozen Snapshot of either.
//
// At most one delta per Kind. The delta order is only for display,
// the engine matches deltas by Kind.
type TrackedItem interface {
	ItemKind() ItemKind
	NumDeltas() int
	// Delta describes the slot from the current state
	Delta(i int) Delta
	// SerializeDeltaData must be pure w.r.t. the item's state
	SerializeDeltaData(i int) []byte
}

// Resettable is a live item that can be rewound to a given state.
//
// ResetStateTo decodes every delta present in state and overwrites the
// matching field, skipping (and reporting) payloads that do not decode.
// Applying the same state twice changes nothing. With notify=false no
// listener is called. Callers serialize mutations of one item.
type Resettable interface {
	TrackedItem
	ResetStateTo(state TrackedItem, notify bool) error
}

// FindDelta returns the slot index of the kind, -1 if the item has none.
func FindDelta(item TrackedItem, k Kind) int {
	for i := 0; i < item.NumDeltas(); i++ {
		if item.Delta(i).Kind == k {
			return i
		}
	}
	return -1
}

// PayloadOf serializes one kind of the item, nil if absent.
func PayloadOf(item TrackedItem, k Kind) []byte {
	if snap, ok := item.(*Snapshot); ok {
		payload, _ := snap.Payload(k)
		return payload
	}
	i := FindDelta(item, k)
	if i < 0 {
		return nil
	}
	return item.SerializeDeltaData(i)
}

// ForEachDelta walks the item's slots with their serialized payloads;
// it stops early when f returns false.
func ForEachDelta(item TrackedItem, f func(d Delta, payload []byte) bool) {
	for i := 0; i < item.NumDeltas(); i++ {
		if !f(item.Delta(i), item.SerializeDeltaData(i)) {
			return
		}
	}
}
