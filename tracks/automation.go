package tracks

import (
	"strconv"

	"github.com/drpcorg/vcs"
)

// AutomationTrack is a controller curve: a MIDI cc number and its points.
type AutomationTrack struct {
	Track
	controller int64
	events     Sequence[AutomationEvent]
}

func NewAutomationTrack(id ItemID, path string, controller int64) *AutomationTrack {
	return &AutomationTrack{Track: newTrack(id, path), controller: controller}
}

func (t *AutomationTrack) Controller() int64 {
	return t.controller
}

func (t *AutomationTrack) Events() []AutomationEvent {
	return t.events.All()
}

func (t *AutomationTrack) SetController(cc int64, notify bool) {
	if t.controller != cc {
		t.controller = cc
		t.propertiesChanged(notify)
	}
}

func (t *AutomationTrack) PutEvent(e AutomationEvent, notify bool) {
	old, replaced := t.events.Put(e)
	switch {
	case !replaced:
		t.notify(notify, func(l Listener) { l.OnAddEvent(t.id, e) })
	case old != e:
		t.notify(notify, func(l Listener) { l.OnChangeEvent(t.id, old, e) })
	}
}

func (t *AutomationTrack) RemoveEvent(id string, notify bool) bool {
	old, ok := t.events.Remove(id)
	if ok {
		t.notify(notify, func(l Listener) { l.OnRemoveEvent(t.id, old) })
	}
	return ok
}

func (t *AutomationTrack) ItemKind() vcs.ItemKind {
	return vcs.AutomationTrackItem
}

func (t *AutomationTrack) NumDeltas() int {
	return len(vcs.AutomationTrackItem.Kinds())
}

func (t *AutomationTrack) Delta(i int) vcs.Delta {
	k := vcs.AutomationTrackItem.Kinds()[i]
	switch k {
	case vcs.TrackController:
		return vcs.Delta{Kind: k, Description: "cc " + strconv.FormatInt(t.controller, 10)}
	case vcs.EventsSet:
		return vcs.Delta{Kind: k, Description: vcs.CountDescription(t.events.Len(), "events", "empty sequence")}
	}
	return vcs.Delta{Kind: k, Description: t.describe(k)}
}

func (t *AutomationTrack) SerializeDeltaData(i int) []byte {
	k := vcs.AutomationTrackItem.Kinds()[i]
	switch k {
	case vcs.TrackController:
		return vcs.NewPayload(k).SetInt(vcs.DeltaProp, t.controller).Marshal()
	case vcs.EventsSet:
		return t.events.Encode(k)
	}
	payload, _ := t.encode(k)
	return payload
}

func (t *AutomationTrack) ResetStateTo(state vcs.TrackedItem, notify bool) error {
	return resetItem(t, state, func(k vcs.Kind, payload []byte) error {
		switch k {
		case vcs.TrackController:
			cc, err := DecodeInt(k, payload)
			if err == nil {
				t.SetController(cc, notify)
			}
			return err
		case vcs.EventsSet:
			events, err := DecodeSequence(k, payload, ParseAutomationEvent)
			if err == nil {
				resetEvents(&t.Track, &t.events, events, notify)
			}
			return err
		}
		_, err := t.decode(k, payload, notify)
		return err
	})
}
