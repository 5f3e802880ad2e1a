package vcs

import (
	"fmt"
	"strconv"

	"github.com/drpcorg/vcs/protocol"
)

// Delta is a read-only view of one versioned slot of an item. The
// payload is not part of it: items serialize it on demand, snapshots
// keep it next to the delta.
type Delta struct {
	Kind        Kind
	Description string
}

func (d Delta) HasType(k Kind) bool {
	return d.Kind == k
}

func (d Delta) String() string {
	if d.Description == "" {
		return d.Kind.String()
	}
	return d.Kind.String() + ": " + d.Description
}

const (
	// DeltaProp holds the value of a scalar payload
	DeltaProp = "delta"
	// IDProp is the identity of an element inside a keyed collection
	IDProp = "id"
	// PosProp is an element's place on the timeline, in beats;
	// collections are ordered by it, then by id
	PosProp = "beat"
)

// NewPayload starts a payload tree tagged with the kind.
func NewPayload(k Kind) *protocol.Tree {
	return protocol.NewTree(k.String())
}

// ParsePayload decodes a payload and checks its tag against the kind.
func ParsePayload(k Kind, payload []byte) (*protocol.Tree, error) {
	tree, err := protocol.Unmarshal(payload)
	if err != nil {
		return nil, &DecodeError{Kind: k, Err: err}
	}
	if !tree.HasType(k.String()) {
		return nil, &DecodeError{Kind: k, Err: fmt.Errorf("%w: got %q", ErrKindMismatch, tree.Type)}
	}
	return tree, nil
}

// CountDescription renders "{x} notes" style descriptions.
func CountDescription(n int, noun, empty string) string {
	if n == 0 {
		return empty
	}
	return strconv.Itoa(n) + " " + noun
}

// Describe derives a description from a serialized payload; used
// where no live item is around (snapshots, merge results, history).
func Describe(k Kind, payload []byte) string {
	tree, err := ParsePayload(k, payload)
	if err != nil {
		return "malformed"
	}
	switch k {
	case NotesSet:
		return CountDescription(len(tree.Children), "notes", "empty sequence")
	case EventsSet:
		return CountDescription(len(tree.Children), "events", "empty sequence")
	case ClipsSet:
		return CountDescription(len(tree.Children), "clips", "empty pattern")
	case TrackMute:
		if mute, _ := tree.GetBool(DeltaProp); mute {
			return "muted"
		}
		return "unmuted"
	case TrackColour:
		colour, _ := tree.GetUint(DeltaProp)
		return fmt.Sprintf("#%08x", colour)
	case TrackController:
		cc, _ := tree.GetInt(DeltaProp)
		return "cc " + strconv.FormatInt(cc, 10)
	case TrackPath, TrackInstrument, ProjectPath, ProjectFullName, ProjectAuthor, ProjectDescription:
		str, _ := tree.GetString(DeltaProp)
		return str
	}
	return ""
}
