package vcs

import (
	"errors"
	"testing"

	"github.com/drpcorg/vcs/protocol"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotMarshal(t *testing.T) {
	snap := pianoTrack("Drums/Kick", notes(note("n1", 36), note("n2", 38)))
	data := snap.Marshal()

	back, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.True(t, snap.Equal(back))
	assert.Equal(t, snap.Hash(), back.Hash())
	assert.Equal(t, PianoTrackItem, back.ItemKind())

	_, err = UnmarshalSnapshot(data[:len(data)-2])
	assert.Error(t, err)
	_, err = UnmarshalSnapshot(protocol.Record('I', []byte("guitarTrack")))
	assert.ErrorIs(t, err, ErrUnknownItem)
	_, err = UnmarshalSnapshot(protocol.Concat(
		protocol.Record('I', []byte("pianoTrack")),
		protocol.Record('D', protocol.Record('K', []byte("trackVolume")), protocol.Record('V'))))
	assert.ErrorIs(t, err, ErrBadSnapshot)
}

func TestSnapshotHashIgnoresSlotOrder(t *testing.T) {
	a := NewSnapshot(ProjectInfoItem)
	a.Put(ProjectAuthor, scalar(ProjectAuthor, "ann"))
	a.Put(ProjectPath, scalar(ProjectPath, "song.helio"))
	b := NewSnapshot(ProjectInfoItem)
	b.Put(ProjectPath, scalar(ProjectPath, "song.helio"))
	b.Put(ProjectAuthor, scalar(ProjectAuthor, "ann"))

	assert.True(t, a.Equal(b))
	assert.Equal(t, a.Hash(), b.Hash())

	b.Put(ProjectAuthor, scalar(ProjectAuthor, "bob"))
	assert.False(t, a.Equal(b))
	assert.NotEqual(t, a.Hash(), b.Hash())
}

func TestSnapshotPut(t *testing.T) {
	snap := NewSnapshot(PianoTrackItem)
	snap.Put(TrackPath, scalar(TrackPath, "a"))
	snap.Put(TrackMute, NewPayload(TrackMute).SetBool(DeltaProp, false).Marshal())
	snap.Put(TrackPath, scalar(TrackPath, "b"))
	assert.Equal(t, 2, snap.NumDeltas())
	assert.Equal(t, 0, FindDelta(snap, TrackPath))
	assert.Equal(t, "trackPath: b", snap.Delta(0).String())
	assert.Equal(t, "trackMute: unmuted", snap.Delta(1).String())

	snap.Put(TrackPath, nil)
	assert.Equal(t, 1, snap.NumDeltas())
	assert.Equal(t, -1, FindDelta(snap, TrackPath))
	assert.Nil(t, PayloadOf(snap, TrackPath))
}

func TestCaptureCopies(t *testing.T) {
	orig := pianoTrack("x", notes())
	captured := Capture(orig)
	orig.Put(TrackPath, scalar(TrackPath, "y"))
	path, _ := captured.Payload(TrackPath)
	assert.Equal(t, scalar(TrackPath, "x"), path)
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "empty sequence", Describe(NotesSet, notes()))
	assert.Equal(t, "2 notes", Describe(NotesSet, notes(note("a", 1), note("b", 2))))
	assert.Equal(t, "empty pattern", Describe(ClipsSet, NewPayload(ClipsSet).Marshal()))
	assert.Equal(t, "cc 74", Describe(TrackController, NewPayload(TrackController).SetInt(DeltaProp, 74).Marshal()))
	assert.Equal(t, "malformed", Describe(TrackPath, scalar(ProjectPath, "x")))
	assert.Equal(t, "malformed", Describe(TrackPath, []byte("garbage")))
}

func TestParsePayloadKindMismatch(t *testing.T) {
	_, err := ParsePayload(TrackMute, scalar(TrackPath, "x"))
	assert.ErrorIs(t, err, ErrKindMismatch)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, TrackMute, de.Kind)
}

func TestKinds(t *testing.T) {
	assert.Equal(t, "notesAdded", NotesSet.String())
	assert.Equal(t, "unknownDelta", numKinds.String())
	k, ok := KindByTag("clipsAdded")
	assert.True(t, ok)
	assert.Equal(t, ClipsSet, k)
	_, ok = KindByTag("nope")
	assert.False(t, ok)
	assert.True(t, EventsSet.IsCollection())
	assert.False(t, TrackController.IsCollection())
	assert.True(t, AutomationTrackItem.Carries(TrackController))
	assert.False(t, PianoTrackItem.Carries(TrackController))
}

func TestSkipCounts(t *testing.T) {
	if debugAsserts {
		assert.Panics(t, func() { _ = Skip(TrackColour, ErrMalformedPayload) })
		return
	}
	before := testutil.ToFloat64(ResetSkipped.WithLabelValues(TrackColour.String()))
	err := Skip(TrackColour, ErrMalformedPayload)
	assert.ErrorIs(t, err, ErrMalformedPayload)
	var de *DecodeError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, TrackColour, de.Kind)
	after := testutil.ToFloat64(ResetSkipped.WithLabelValues(TrackColour.String()))
	assert.Equal(t, before+1, after)
}

func TestPayloadOfSnapshotSkipsDescriptions(t *testing.T) {
	snap := pianoTrack("P", notes(note("n1", 60), note("n2", 62), note("n3", 64)))
	want, _ := snap.Payload(NotesSet)
	assert.Equal(t, want, PayloadOf(snap, NotesSet))
	assert.Nil(t, PayloadOf(snap, ClipsSet))
	allocs := testing.AllocsPerRun(20, func() {
		_ = PayloadOf(snap, NotesSet)
		_ = PayloadOf(snap, ClipsSet)
	})
	assert.Zero(t, allocs)
}
