package document

import (
	"testing"

	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/tracks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type counter struct {
	tracks.NopListener
	props, events, clips, info, reloads int
}

func (c *counter) OnChangeTrackProperties(tracks.ItemID)                   { c.props++ }
func (c *counter) OnAddEvent(tracks.ItemID, tracks.Event)                  { c.events++ }
func (c *counter) OnChangeEvent(tracks.ItemID, tracks.Event, tracks.Event) { c.events++ }
func (c *counter) OnRemoveEvent(tracks.ItemID, tracks.Event)               { c.events++ }
func (c *counter) OnAddClip(tracks.ItemID, tracks.Clip)                    { c.clips++ }
func (c *counter) OnChangeProjectInfo(tracks.ItemID)                       { c.info++ }
func (c *counter) OnReloadProjectContent()                                 { c.reloads++ }

func (c *counter) total() int {
	return c.props + c.events + c.clips + c.info + c.reloads
}

func demo(t *testing.T) (*Document, *tracks.PianoTrack, *tracks.ProjectInfo) {
	doc := New(nil)
	piano := tracks.NewPianoTrack("", "Piano")
	info := tracks.NewProjectInfo("", "demo.helio")
	require.NoError(t, doc.Add(piano))
	require.NoError(t, doc.Add(info))
	return doc, piano, info
}

func TestArena(t *testing.T) {
	doc, piano, info := demo(t)
	assert.ErrorIs(t, doc.Add(piano), ErrDuplicateItem)
	assert.Equal(t, 2, doc.Len())

	item, ok := doc.Item(piano.ID())
	assert.True(t, ok)
	assert.Same(t, piano, item)
	assert.Equal(t, []tracks.Item{piano, info}, doc.Items())

	removed, ok := doc.Remove(info.ID())
	assert.True(t, ok)
	assert.Same(t, info, removed)
	_, ok = doc.Item(info.ID())
	assert.False(t, ok)
}

func TestNotifications(t *testing.T) {
	doc, piano, info := demo(t)
	c := &counter{}
	doc.AddListener(c)

	piano.SetPath("Keys", true)
	piano.PutNote(tracks.NewNote(60, 0, 1, 1), true)
	piano.PutNote(tracks.NewNote(62, 1, 1, 1), false)
	info.Set(vcs.ProjectAuthor, "Ann", true)
	assert.Equal(t, 1, c.props)
	assert.Equal(t, 1, c.events)
	assert.Equal(t, 1, c.info)

	// a removed item only holds a dead link
	doc.Remove(info.ID())
	info.Set(vcs.ProjectAuthor, "Bob", true)
	assert.Equal(t, 1, c.info)

	doc.RemoveListener(c)
	piano.SetPath("Piano", true)
	assert.Equal(t, 1, c.props)
}

func TestSnapshotAndSilentReset(t *testing.T) {
	doc, piano, info := demo(t)
	piano.PutNote(tracks.Note{ID: "n1", Key: 60, Length: 1, Velocity: 1}, false)
	info.Set(vcs.ProjectAuthor, "Ann", false)
	committed := doc.Snapshot()
	require.Len(t, committed, 2)

	piano.SetPath("Changed", false)
	piano.RemoveNote("n1", false)
	info.Set(vcs.ProjectAuthor, "Bob", false)

	c := &counter{}
	doc.AddListener(c)
	require.NoError(t, doc.ResetTo(committed, false))
	assert.Zero(t, c.total())
	assert.Equal(t, "Piano", piano.Path())
	assert.Len(t, piano.Notes(), 1)
	assert.Equal(t, "Ann", info.Author())

	for id, snap := range doc.Snapshot() {
		assert.True(t, snap.Equal(committed[id]))
	}
}

func TestNotifyingResetMatchesSilent(t *testing.T) {
	loudDoc, loudPiano, _ := demo(t)
	quietDoc, quietPiano, _ := demo(t)

	source := tracks.NewPianoTrack(loudPiano.ID(), "Strings")
	source.PutNote(tracks.Note{ID: "n1", Key: 50, Length: 2, Velocity: 0.5}, false)
	source.SetMute(true, false)
	state := State{loudPiano.ID(): vcs.Capture(source)}
	quietState := State{quietPiano.ID(): vcs.Capture(source)}

	loud, quiet := &counter{}, &counter{}
	loudDoc.AddListener(loud)
	quietDoc.AddListener(quiet)
	require.NoError(t, loudDoc.ResetTo(state, true))
	require.NoError(t, quietDoc.ResetTo(quietState, false))

	assert.Equal(t, 1, loud.reloads)
	assert.Equal(t, 1, loud.events)
	assert.Equal(t, 2, loud.props)
	assert.Zero(t, quiet.total())
	assert.Equal(t, vcs.Capture(loudPiano).Marshal(), vcs.Capture(quietPiano).Marshal())
}

func TestResetCreatesAndSyncDrops(t *testing.T) {
	doc, piano, info := demo(t)
	auto := tracks.NewAutomationTrack("", "Cutoff", 74)
	auto.PutEvent(tracks.NewAutomationEvent(0, 0.5), false)

	state := State{auto.ID(): vcs.Capture(auto), piano.ID(): vcs.Capture(piano)}
	require.NoError(t, doc.Sync(state, false))

	assert.Equal(t, 2, doc.Len())
	_, ok := doc.Item(info.ID())
	assert.False(t, ok)
	created, ok := doc.Item(auto.ID())
	require.True(t, ok)
	assert.True(t, vcs.Capture(created).Equal(state[auto.ID()]))

	c := &counter{}
	doc.AddListener(c)
	created.(*tracks.AutomationTrack).SetController(1, true)
	assert.Equal(t, 1, c.props)
}

func TestResetReportsBadItems(t *testing.T) {
	doc, piano, _ := demo(t)
	err := doc.ResetTo(State{
		piano.ID(): vcs.Capture(tracks.NewProjectInfo("", "x")),
		"stray":    vcs.NewSnapshot(vcs.UnknownItem),
	}, false)
	assert.ErrorIs(t, err, vcs.ErrItemMismatch)
	assert.ErrorIs(t, err, vcs.ErrUnknownItem)
}
