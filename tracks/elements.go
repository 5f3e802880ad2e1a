package tracks

import (
	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/protocol"
	"golang.org/x/exp/constraints"
)

const (
	MinKey      = 0
	MaxKey      = 127
	MinLength   = 1.0 / 16
	MaxVelocity = 1.0
)

// Clamp pins v into [lo, hi].
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Element is an identity-bearing entry of a keyed collection.
type Element interface {
	Identity() string
	Position() float64
	Tree() *protocol.Tree
}

// Event is a timed element of a track: a note or an automation point.
type Event interface {
	Element
	event()
}

// Note is a piano roll note. Beat and Length are in beats,
// Velocity is 0..1.
type Note struct {
	ID       string
	Key      int64
	Beat     float64
	Length   float64
	Velocity float64
}

// NewNote makes a note with a fresh id and sane ranges.
func NewNote(key int64, beat, length, velocity float64) Note {
	return Note{
		ID:       NewElementID(),
		Key:      Clamp(key, MinKey, MaxKey),
		Beat:     beat,
		Length:   max(length, MinLength),
		Velocity: Clamp(velocity, 0, MaxVelocity),
	}
}

func (n Note) Identity() string  { return n.ID }
func (n Note) Position() float64 { return n.Beat }
func (n Note) event()            {}

func (n Note) Tree() *protocol.Tree {
	return protocol.NewTree("note").
		SetString(vcs.IDProp, n.ID).
		SetInt("key", n.Key).
		SetFloat(vcs.PosProp, n.Beat).
		SetFloat("len", n.Length).
		SetFloat("vel", n.Velocity)
}

func ParseNote(t *protocol.Tree) (n Note, err error) {
	if !t.HasType("note") {
		return n, vcs.ErrMalformedPayload
	}
	var ok [5]bool
	n.ID, ok[0] = t.GetString(vcs.IDProp)
	n.Key, ok[1] = t.GetInt("key")
	n.Beat, ok[2] = t.GetFloat(vcs.PosProp)
	n.Length, ok[3] = t.GetFloat("len")
	n.Velocity, ok[4] = t.GetFloat("vel")
	return n, allOK(ok[:])
}

// AutomationEvent is a point of a controller curve. Curve is the
// tension towards the next point, 0.5 being linear.
type AutomationEvent struct {
	ID    string
	Beat  float64
	Value float64
	Curve float64
}

func NewAutomationEvent(beat, value float64) AutomationEvent {
	return AutomationEvent{
		ID:    NewElementID(),
		Beat:  beat,
		Value: Clamp(value, 0, 1),
		Curve: 0.5,
	}
}

func (e AutomationEvent) Identity() string  { return e.ID }
func (e AutomationEvent) Position() float64 { return e.Beat }
func (e AutomationEvent) event()            {}

func (e AutomationEvent) Tree() *protocol.Tree {
	return protocol.NewTree("auto").
		SetString(vcs.IDProp, e.ID).
		SetFloat(vcs.PosProp, e.Beat).
		SetFloat("val", e.Value).
		SetFloat("curve", e.Curve)
}

func ParseAutomationEvent(t *protocol.Tree) (e AutomationEvent, err error) {
	if !t.HasType("auto") {
		return e, vcs.ErrMalformedPayload
	}
	var ok [4]bool
	e.ID, ok[0] = t.GetString(vcs.IDProp)
	e.Beat, ok[1] = t.GetFloat(vcs.PosProp)
	e.Value, ok[2] = t.GetFloat("val")
	e.Curve, ok[3] = t.GetFloat("curve")
	return e, allOK(ok[:])
}

// Clip is an instance of a track's sequence placed on the timeline,
// shifted by Beat and transposed by Key.
type Clip struct {
	ID       string
	TrackID  ItemID
	Beat     float64
	Key      int64
	Velocity float64
	Mute     bool
}

func NewClip(track ItemID, beat float64) Clip {
	return Clip{ID: NewElementID(), TrackID: track, Beat: beat, Velocity: MaxVelocity}
}

func (c Clip) Identity() string  { return c.ID }
func (c Clip) Position() float64 { return c.Beat }

func (c Clip) Tree() *protocol.Tree {
	return protocol.NewTree("clip").
		SetString(vcs.IDProp, c.ID).
		SetString("track", string(c.TrackID)).
		SetFloat(vcs.PosProp, c.Beat).
		SetInt("key", c.Key).
		SetFloat("vel", c.Velocity).
		SetBool("mute", c.Mute)
}

func ParseClip(t *protocol.Tree) (c Clip, err error) {
	if !t.HasType("clip") {
		return c, vcs.ErrMalformedPayload
	}
	var ok [6]bool
	var track string
	c.ID, ok[0] = t.GetString(vcs.IDProp)
	track, ok[1] = t.GetString("track")
	c.Beat, ok[2] = t.GetFloat(vcs.PosProp)
	c.Key, ok[3] = t.GetInt("key")
	c.Velocity, ok[4] = t.GetFloat("vel")
	c.Mute, ok[5] = t.GetBool("mute")
	c.TrackID = ItemID(track)
	return c, allOK(ok[:])
}

func allOK(ok []bool) error {
	for _, o := range ok {
		if !o {
			return vcs.ErrMalformedPayload
		}
	}
	return nil
}
