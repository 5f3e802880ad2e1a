package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() *Tree {
	notes := NewTree("notesAdded")
	notes.Add(NewTree("note").SetString("id", "n1").SetInt("key", 60).SetFloat("beat", 0.5))
	notes.Add(NewTree("note").SetString("id", "n2").SetInt("key", -3).SetFloat("beat", 16))
	return notes
}

func TestTreeRoundTrip(t *testing.T) {
	tree := sampleTree()
	data := tree.Marshal()

	back, err := Unmarshal(data)
	require.Nil(t, err)
	assert.Equal(t, "notesAdded", back.Type)
	require.Equal(t, 2, len(back.Children))

	id, ok := back.Children[1].GetString("id")
	assert.True(t, ok)
	assert.Equal(t, "n2", id)
	key, ok := back.Children[1].GetInt("key")
	assert.True(t, ok)
	assert.Equal(t, int64(-3), key)
	beat, ok := back.Children[0].GetFloat("beat")
	assert.True(t, ok)
	assert.Equal(t, 0.5, beat)

	assert.Equal(t, data, back.Marshal())
	assert.True(t, tree.Equal(back))
}

func TestTreeSetReplaces(t *testing.T) {
	tree := NewTree("trackMute").SetBool("delta", true)
	tree.SetBool("delta", false)
	assert.Equal(t, 1, len(tree.Props))
	mute, ok := tree.GetBool("delta")
	assert.True(t, ok)
	assert.False(t, mute)
	_, ok = tree.Get("missing")
	assert.False(t, ok)
}

func TestTreeString(t *testing.T) {
	tree := NewTree("trackPath").SetString("delta", "Drums/Kick")
	assert.Equal(t, `trackPath{delta:"Drums/Kick"}`, tree.String())
	note := NewTree("note").SetString("id", "n1").SetInt("key", -3).SetFloat("beat", 0.5)
	assert.Equal(t, `notes{note{id:"n1" key:#05 beat:#fc07}}`, NewTree("notes").Add(note).String())
}

func TestTreeMalformed(t *testing.T) {
	data := sampleTree().Marshal()

	_, err := Unmarshal(data[:len(data)-2])
	assert.NotNil(t, err)

	_, err = Unmarshal(append(data, 'x'))
	assert.Equal(t, ErrBadTree, err)

	_, err = Unmarshal(Record('P', []byte("nope")))
	assert.Equal(t, ErrBadRecord, err)

	bogus := Record(TreeLit, Record(TypeLit, []byte("x")), Record('Z', []byte{1}))
	_, err = Unmarshal(bogus)
	assert.Equal(t, ErrBadTree, err)
}
