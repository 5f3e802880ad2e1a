package history

import (
	"bytes"
	"strings"
	"sync"
	"testing"

	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/document"
	"github.com/drpcorg/vcs/tracks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openStore(t *testing.T) *Store {
	store, err := Open(t.TempDir(), Options{Author: "tester", CacheSize: 4})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func project(t *testing.T) (*document.Document, *tracks.PianoTrack, *tracks.ProjectInfo) {
	doc := document.New(nil)
	piano := tracks.NewPianoTrack("", "Piano")
	piano.PutNote(tracks.Note{ID: "n1", Key: 60, Beat: 0, Length: 1, Velocity: 1}, false)
	piano.PutNote(tracks.Note{ID: "n2", Key: 62, Beat: 1, Length: 1, Velocity: 1}, false)
	info := tracks.NewProjectInfo("", "demo.helio")
	require.NoError(t, doc.Add(piano))
	require.NoError(t, doc.Add(info))
	return doc, piano, info
}

func noteIDs(track *tracks.PianoTrack) (ids []string) {
	for _, n := range track.Notes() {
		ids = append(ids, n.ID)
	}
	return
}

func countKeys(t *testing.T, store *Store, prefix string) (n int) {
	var buf bytes.Buffer
	require.NoError(t, store.Dump(&buf))
	for _, line := range strings.Split(buf.String(), "\n") {
		if strings.HasPrefix(line, prefix) {
			n++
		}
	}
	return
}

func TestCommitAndLoad(t *testing.T) {
	store := openStore(t)
	doc, piano, _ := project(t)

	head, err := store.Head()
	require.NoError(t, err)
	assert.Empty(t, head)

	first, err := store.Commit(doc, "first")
	require.NoError(t, err)
	piano.SetMute(true, false)
	second, err := store.Commit(doc, "mute")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.Parent)

	head, err = store.Head()
	require.NoError(t, err)
	assert.Equal(t, second.ID, head)

	// bypass the cache
	store.cache.Purge()
	loaded, err := store.Load(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", loaded.Message)
	assert.Equal(t, "tester", loaded.Author)
	assert.Equal(t, first.Time.UnixNano(), loaded.Time.UnixNano())
	require.Len(t, loaded.Items, 2)
	for id, snap := range first.Items {
		assert.True(t, snap.Equal(loaded.Items[id]))
	}

	log, err := store.Log(0)
	require.NoError(t, err)
	require.Len(t, log, 2)
	assert.Equal(t, second.ID, log[0].ID)
	log, err = store.Log(1)
	require.NoError(t, err)
	assert.Len(t, log, 1)

	_, err = store.Load("nope")
	assert.ErrorIs(t, err, ErrNoRevision)
}

func TestUnchangedItemsStoredOnce(t *testing.T) {
	store := openStore(t)
	doc, piano, _ := project(t)
	_, err := store.Commit(doc, "one")
	require.NoError(t, err)
	_, err = store.Commit(doc, "two")
	require.NoError(t, err)
	assert.Equal(t, 2, countKeys(t, store, "B"))

	piano.SetPath("Keys", false)
	_, err = store.Commit(doc, "three")
	require.NoError(t, err)
	assert.Equal(t, 3, countKeys(t, store, "B"))
	assert.Equal(t, 3, countKeys(t, store, "R\t"))
	assert.Equal(t, 6, countKeys(t, store, "S"))
}

func TestCheckoutIsSilent(t *testing.T) {
	store := openStore(t)
	doc, piano, info := project(t)
	first, err := store.Commit(doc, "first")
	require.NoError(t, err)

	piano.RemoveNote("n1", false)
	info.Set(vcs.ProjectAuthor, "Ann", false)
	extra := tracks.NewAutomationTrack("", "Cutoff", 74)
	require.NoError(t, doc.Add(extra))
	_, err = store.Commit(doc, "second")
	require.NoError(t, err)

	calls := 0
	doc.AddListener(&countingListener{calls: &calls})
	require.NoError(t, store.Checkout(first.ID, doc))
	assert.Zero(t, calls)

	assert.Equal(t, []string{"n1", "n2"}, noteIDs(piano))
	assert.Empty(t, info.Author())
	_, ok := doc.Item(extra.ID())
	assert.False(t, ok)
	head, _ := store.Head()
	assert.Equal(t, first.ID, head)
}

func TestCheckoutAndCommitDoNotInterleave(t *testing.T) {
	store := openStore(t)
	doc, piano, _ := project(t)
	first, err := store.Commit(doc, "first")
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		piano.SetMute(true, false)
		_, err = store.Commit(doc, "muted")
		require.NoError(t, err)

		var wg sync.WaitGroup
		var rev *Revision
		var commitErr error
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.Checkout(first.ID, doc))
		}()
		go func() {
			defer wg.Done()
			rev, commitErr = store.Commit(doc, "racing")
		}()
		wg.Wait()
		require.NoError(t, commitErr)

		// whichever ran first, the commit holds its parent's contents
		parent, err := store.Load(rev.Parent)
		require.NoError(t, err)
		require.Len(t, rev.Items, len(parent.Items))
		for id, snap := range rev.Items {
			assert.True(t, snap.Equal(parent.Items[id]), string(id))
		}
	}
}

func TestDiffRevisions(t *testing.T) {
	store := openStore(t)
	doc, piano, info := project(t)
	first, err := store.Commit(doc, "first")
	require.NoError(t, err)

	piano.PutNote(tracks.Note{ID: "n3", Key: 64, Beat: 2, Length: 1, Velocity: 1}, false)
	doc.Remove(info.ID())
	second, err := store.Commit(doc, "second")
	require.NoError(t, err)

	diffs, err := store.Diff(first.ID, second.ID)
	require.NoError(t, err)
	require.Len(t, diffs, 2)
	byID := map[tracks.ItemID]ItemDiff{}
	for _, d := range diffs {
		byID[d.ID] = d
	}
	pd := byID[piano.ID()]
	assert.Equal(t, vcs.Changed, pd.Op)
	require.Len(t, pd.Diff, 1)
	assert.Len(t, pd.Diff[0].Patch.Added, 1)
	assert.Equal(t, vcs.Removed, byID[info.ID()].Op)

	same, err := store.Diff(second.ID, second.ID)
	require.NoError(t, err)
	assert.Empty(t, same)
}

func TestMergeBranches(t *testing.T) {
	store := openStore(t)
	doc, piano, info := project(t)
	base, err := store.Commit(doc, "base")
	require.NoError(t, err)

	// incoming branch: add n4, rename to B, set the author
	piano.PutNote(tracks.Note{ID: "n4", Key: 65, Beat: 3, Length: 1, Velocity: 1}, false)
	piano.SetPath("B", false)
	info.Set(vcs.ProjectAuthor, "Bob", false)
	theirs, err := store.Commit(doc, "theirs")
	require.NoError(t, err)

	// local branch: drop n2, add n3, rename to A
	require.NoError(t, store.Checkout(base.ID, doc))
	piano.RemoveNote("n2", false)
	piano.PutNote(tracks.Note{ID: "n3", Key: 64, Beat: 2, Length: 1, Velocity: 1}, false)
	piano.SetPath("A", false)
	ours, err := store.Commit(doc, "ours")
	require.NoError(t, err)

	mb, err := store.MergeBase(ours.ID, theirs.ID)
	require.NoError(t, err)
	assert.Equal(t, base.ID, mb)

	merged, err := store.MergeInto(doc, theirs.ID, "merge")
	require.NoError(t, err)
	assert.Equal(t, ours.ID, merged.Parent)
	assert.Equal(t, theirs.ID, merged.Merged)

	assert.Equal(t, []string{"n1", "n3", "n4"}, noteIDs(piano))
	assert.Equal(t, "A", piano.Path())
	assert.Equal(t, "Bob", info.Author())

	_, err = store.MergeInto(doc, theirs.ID, "again")
	assert.ErrorIs(t, err, ErrNothingToMerge)

	state, err := store.Merge(base.ID, ours.ID, theirs.ID)
	require.NoError(t, err)
	for id, snap := range state {
		assert.True(t, snap.Equal(merged.Items[id]), string(id))
	}
}

func TestMergeStatesItems(t *testing.T) {
	kept := tracks.NewPianoTrack("", "kept")
	edited := tracks.NewPianoTrack("", "edited")
	dropped := tracks.NewPianoTrack("", "dropped")
	base := document.State{
		kept.ID():    vcs.Capture(kept),
		edited.ID():  vcs.Capture(edited),
		dropped.ID(): vcs.Capture(dropped),
	}
	ours := document.State{
		kept.ID():   vcs.Capture(kept),
		edited.ID(): vcs.Capture(edited),
	}
	edited.SetMute(true, false)
	added := tracks.NewProjectInfo("", "new")
	theirs := document.State{
		edited.ID():  vcs.Capture(edited),
		dropped.ID(): vcs.Capture(dropped),
		added.ID():   vcs.Capture(added),
	}
	merged := MergeStates(base, ours, theirs)
	assert.Len(t, merged, 2)
	_, ok := merged[kept.ID()]
	assert.False(t, ok, "removed upstream, unchanged here")
	_, ok = merged[dropped.ID()]
	assert.False(t, ok, "removed here, unchanged upstream")
	assert.True(t, merged[edited.ID()].Equal(vcs.Capture(edited)))
	assert.True(t, merged[added.ID()].Equal(vcs.Capture(added)))
}

func TestResolve(t *testing.T) {
	store := openStore(t)
	doc, _, _ := project(t)
	_, err := store.Resolve("HEAD")
	assert.ErrorIs(t, err, ErrNoRevision)

	rev, err := store.Commit(doc, "first")
	require.NoError(t, err)
	id, err := store.Resolve(rev.ID.Short())
	require.NoError(t, err)
	assert.Equal(t, rev.ID, id)
	id, err = store.Resolve("HEAD")
	require.NoError(t, err)
	assert.Equal(t, rev.ID, id)
	_, err = store.Resolve("zzzz")
	assert.ErrorIs(t, err, ErrNoRevision)
}

func TestCollector(t *testing.T) {
	store := openStore(t)
	doc, _, _ := project(t)
	_, err := store.Commit(doc, "first")
	require.NoError(t, err)
	assert.Equal(t, 10, testutil.CollectAndCount(store.Collector()))
}

type countingListener struct {
	tracks.NopListener
	calls *int
}

func (c *countingListener) OnChangeTrackProperties(tracks.ItemID)     { *c.calls++ }
func (c *countingListener) OnRemoveEvent(tracks.ItemID, tracks.Event) { *c.calls++ }
func (c *countingListener) OnAddEvent(tracks.ItemID, tracks.Event)    { *c.calls++ }
func (c *countingListener) OnChangeProjectInfo(tracks.ItemID)         { *c.calls++ }
func (c *countingListener) OnReloadProjectContent()                   { *c.calls++ }
