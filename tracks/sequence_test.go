package tracks

import (
	"testing"

	"github.com/drpcorg/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceOrder(t *testing.T) {
	var seq Sequence[Note]
	seq.Put(Note{ID: "b", Beat: 2})
	seq.Put(Note{ID: "c", Beat: 1})
	seq.Put(Note{ID: "a", Beat: 1})
	ids := func() (ret []string) {
		for _, n := range seq.All() {
			ret = append(ret, n.ID)
		}
		return
	}
	assert.Equal(t, []string{"a", "c", "b"}, ids())

	old, replaced := seq.Put(Note{ID: "b", Beat: 0})
	assert.True(t, replaced)
	assert.Equal(t, 2.0, old.Beat)
	assert.Equal(t, []string{"b", "a", "c"}, ids())

	_, ok := seq.Remove("a")
	assert.True(t, ok)
	_, ok = seq.Remove("a")
	assert.False(t, ok)
	assert.Equal(t, 2, seq.Len())
}

func TestDecodeSequenceCollision(t *testing.T) {
	payload := vcs.NewPayload(vcs.ClipsSet).
		Add(Clip{ID: "c1", Beat: 0}.Tree()).
		Add(Clip{ID: "c1", Beat: 4}.Tree()).
		Marshal()
	seq, err := DecodeSequence(vcs.ClipsSet, payload, ParseClip)
	require.NoError(t, err)
	require.Equal(t, 1, seq.Len())
	assert.Equal(t, 4.0, seq.All()[0].Beat)

	_, err = DecodeSequence(vcs.NotesSet, payload, ParseNote)
	assert.ErrorIs(t, err, vcs.ErrKindMismatch)
	_, err = DecodeSequence(vcs.ClipsSet, payload, ParseNote)
	assert.ErrorIs(t, err, vcs.ErrMalformedPayload)
}

func TestNewElementsAreClamped(t *testing.T) {
	n := NewNote(200, 1, 0, 3)
	assert.Equal(t, int64(MaxKey), n.Key)
	assert.Equal(t, MinLength, n.Length)
	assert.Equal(t, MaxVelocity, n.Velocity)
	assert.NotEmpty(t, n.ID)
	assert.NotEqual(t, n.ID, NewNote(1, 1, 1, 1).ID)

	e := NewAutomationEvent(0, -1)
	assert.Equal(t, 0.0, e.Value)
	assert.Equal(t, 5, Clamp(9, 1, 5))
}

func TestElementTrees(t *testing.T) {
	n := Note{ID: "n1", Key: 60, Beat: 1.5, Length: 0.25, Velocity: 0.5}
	back, err := ParseNote(n.Tree())
	require.NoError(t, err)
	assert.Equal(t, n, back)

	e := AutomationEvent{ID: "e", Beat: 3, Value: 0.75, Curve: 0.1}
	eb, err := ParseAutomationEvent(e.Tree())
	require.NoError(t, err)
	assert.Equal(t, e, eb)

	c := Clip{ID: "c", TrackID: "t", Beat: 16, Key: -12, Velocity: 0.9, Mute: true}
	cb, err := ParseClip(c.Tree())
	require.NoError(t, err)
	assert.Equal(t, c, cb)

	_, err = ParseClip(n.Tree())
	assert.ErrorIs(t, err, vcs.ErrMalformedPayload)
}
