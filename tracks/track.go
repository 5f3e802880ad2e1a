package tracks

import (
	"errors"
	"fmt"

	"github.com/drpcorg/vcs"
)

// Track holds what piano and automation tracks share: the tree path,
// looks, the instrument and the clips placing the track on the timeline.
type Track struct {
	base
	path       string
	colour     uint32
	mute       bool
	instrument string
	clips      Sequence[Clip]
}

func newTrack(id ItemID, path string) Track {
	if id == "" {
		id = NewItemID()
	}
	return Track{base: base{id: id}, path: path, colour: 0xffffffff}
}

func (t *Track) Path() string       { return t.path }
func (t *Track) Colour() uint32     { return t.colour }
func (t *Track) Muted() bool        { return t.mute }
func (t *Track) Instrument() string { return t.instrument }
func (t *Track) Clips() []Clip      { return t.clips.All() }

// Mutations take the notify flag; history replay passes false.

func (t *Track) SetPath(path string, notify bool) {
	if t.path != path {
		t.path = path
		t.propertiesChanged(notify)
	}
}

func (t *Track) SetColour(colour uint32, notify bool) {
	if t.colour != colour {
		t.colour = colour
		t.propertiesChanged(notify)
	}
}

func (t *Track) SetMute(mute bool, notify bool) {
	if t.mute != mute {
		t.mute = mute
		t.propertiesChanged(notify)
	}
}

func (t *Track) SetInstrument(instrument string, notify bool) {
	if t.instrument != instrument {
		t.instrument = instrument
		t.propertiesChanged(notify)
	}
}

func (t *Track) propertiesChanged(notify bool) {
	t.notify(notify, func(l Listener) { l.OnChangeTrackProperties(t.id) })
}

func (t *Track) PutClip(clip Clip, notify bool) {
	old, replaced := t.clips.Put(clip)
	switch {
	case !replaced:
		t.notify(notify, func(l Listener) { l.OnAddClip(t.id, clip) })
	case old != clip:
		t.notify(notify, func(l Listener) { l.OnChangeClip(t.id, old, clip) })
	}
}

func (t *Track) RemoveClip(id string, notify bool) bool {
	old, ok := t.clips.Remove(id)
	if ok {
		t.notify(notify, func(l Listener) { l.OnRemoveClip(t.id, old) })
	}
	return ok
}

func (t *Track) resetClips(next *Sequence[Clip], notify bool) {
	ch := t.clips.Reset(next)
	for _, c := range ch.Removed {
		t.notify(notify, func(l Listener) { l.OnRemoveClip(t.id, c) })
	}
	for _, c := range ch.Changed {
		t.notify(notify, func(l Listener) { l.OnChangeClip(t.id, c[0], c[1]) })
	}
	for _, c := range ch.Added {
		t.notify(notify, func(l Listener) { l.OnAddClip(t.id, c) })
	}
}

// encode is the shared part of the snapshot codec; ok=false means
// the kind is not a common track kind.
func (t *Track) encode(k vcs.Kind) (payload []byte, ok bool) {
	switch k {
	case vcs.TrackPath:
		return vcs.NewPayload(k).SetString(vcs.DeltaProp, t.path).Marshal(), true
	case vcs.TrackMute:
		return vcs.NewPayload(k).SetBool(vcs.DeltaProp, t.mute).Marshal(), true
	case vcs.TrackColour:
		return vcs.NewPayload(k).SetUint(vcs.DeltaProp, uint64(t.colour)).Marshal(), true
	case vcs.TrackInstrument:
		return vcs.NewPayload(k).SetString(vcs.DeltaProp, t.instrument).Marshal(), true
	case vcs.ClipsSet:
		return t.clips.Encode(k), true
	}
	return nil, false
}

func (t *Track) describe(k vcs.Kind) string {
	switch k {
	case vcs.TrackPath:
		return t.path
	case vcs.TrackMute:
		if t.mute {
			return "muted"
		}
		return "unmuted"
	case vcs.TrackColour:
		return fmt.Sprintf("#%08x", t.colour)
	case vcs.TrackInstrument:
		return t.instrument
	case vcs.ClipsSet:
		return vcs.CountDescription(t.clips.Len(), "clips", "empty pattern")
	}
	return ""
}

// decode applies one common kind, handled=false if it is not one.
// The field is written only if the whole payload decodes.
func (t *Track) decode(k vcs.Kind, payload []byte, notify bool) (handled bool, err error) {
	switch k {
	case vcs.TrackPath:
		var path string
		if path, err = DecodeString(k, payload); err == nil {
			t.SetPath(path, notify)
		}
	case vcs.TrackMute:
		var mute bool
		if mute, err = DecodeBool(k, payload); err == nil {
			t.SetMute(mute, notify)
		}
	case vcs.TrackColour:
		var colour uint64
		if colour, err = DecodeUint(k, payload); err == nil && colour > 0xffffffff {
			err = &vcs.DecodeError{Kind: k, Err: vcs.ErrMalformedPayload}
		}
		if err == nil {
			t.SetColour(uint32(colour), notify)
		}
	case vcs.TrackInstrument:
		var instrument string
		if instrument, err = DecodeString(k, payload); err == nil {
			t.SetInstrument(instrument, notify)
		}
	case vcs.ClipsSet:
		var clips *Sequence[Clip]
		if clips, err = DecodeSequence(k, payload, ParseClip); err == nil {
			t.resetClips(clips, notify)
		}
	default:
		return false, nil
	}
	return true, err
}

// resetItem is ResetStateTo for every item kind: each delta of state
// goes to apply, undecodable ones are skipped and reported together.
func resetItem(self vcs.TrackedItem, state vcs.TrackedItem, apply func(k vcs.Kind, payload []byte) error) error {
	if state.ItemKind() != self.ItemKind() {
		return fmt.Errorf("%w: %s into %s", vcs.ErrItemMismatch, state.ItemKind(), self.ItemKind())
	}
	var errs []error
	vcs.ForEachDelta(state, func(d vcs.Delta, payload []byte) bool {
		var err error
		if self.ItemKind().Carries(d.Kind) {
			err = apply(d.Kind, payload)
		} else {
			err = vcs.ErrKindMismatch
		}
		if err != nil {
			errs = append(errs, vcs.Skip(d.Kind, err))
		}
		return true
	})
	return errors.Join(errs...)
}
