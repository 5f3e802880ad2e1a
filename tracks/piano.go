package tracks

import (
	"github.com/drpcorg/vcs"
)

// PianoTrack is a track of notes.
type PianoTrack struct {
	Track
	notes Sequence[Note]
}

func NewPianoTrack(id ItemID, path string) *PianoTrack {
	return &PianoTrack{Track: newTrack(id, path)}
}

func (t *PianoTrack) Notes() []Note {
	return t.notes.All()
}

func (t *PianoTrack) PutNote(n Note, notify bool) {
	old, replaced := t.notes.Put(n)
	switch {
	case !replaced:
		t.notify(notify, func(l Listener) { l.OnAddEvent(t.id, n) })
	case old != n:
		t.notify(notify, func(l Listener) { l.OnChangeEvent(t.id, old, n) })
	}
}

func (t *PianoTrack) RemoveNote(id string, notify bool) bool {
	old, ok := t.notes.Remove(id)
	if ok {
		t.notify(notify, func(l Listener) { l.OnRemoveEvent(t.id, old) })
	}
	return ok
}

func (t *PianoTrack) ItemKind() vcs.ItemKind {
	return vcs.PianoTrackItem
}

func (t *PianoTrack) NumDeltas() int {
	return len(vcs.PianoTrackItem.Kinds())
}

func (t *PianoTrack) Delta(i int) vcs.Delta {
	k := vcs.PianoTrackItem.Kinds()[i]
	if k == vcs.NotesSet {
		return vcs.Delta{Kind: k, Description: vcs.CountDescription(t.notes.Len(), "notes", "empty sequence")}
	}
	return vcs.Delta{Kind: k, Description: t.describe(k)}
}

func (t *PianoTrack) SerializeDeltaData(i int) []byte {
	k := vcs.PianoTrackItem.Kinds()[i]
	if k == vcs.NotesSet {
		return t.notes.Encode(k)
	}
	payload, _ := t.encode(k)
	return payload
}

func (t *PianoTrack) ResetStateTo(state vcs.TrackedItem, notify bool) error {
	return resetItem(t, state, func(k vcs.Kind, payload []byte) error {
		if k == vcs.NotesSet {
			notes, err := DecodeSequence(k, payload, ParseNote)
			if err == nil {
				resetEvents(&t.Track, &t.notes, notes, notify)
			}
			return err
		}
		_, err := t.decode(k, payload, notify)
		return err
	})
}

// resetEvents swaps a track's event sequence, reporting per event.
func resetEvents[E Event](t *Track, seq *Sequence[E], next *Sequence[E], notify bool) {
	ch := seq.Reset(next)
	for _, e := range ch.Removed {
		t.notify(notify, func(l Listener) { l.OnRemoveEvent(t.id, e) })
	}
	for _, e := range ch.Changed {
		t.notify(notify, func(l Listener) { l.OnChangeEvent(t.id, e[0], e[1]) })
	}
	for _, e := range ch.Added {
		t.notify(notify, func(l Listener) { l.OnAddEvent(t.id, e) })
	}
}
