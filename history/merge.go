package history

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/document"
	"github.com/drpcorg/vcs/tracks"
	"github.com/drpcorg/vcs/utils"
	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
)

var ErrNothingToMerge = errors.New("history: already merged")

// ItemDiff is how one item differs between two revisions.
type ItemDiff struct {
	ID   tracks.ItemID
	Kind vcs.ItemKind
	Op   vcs.Op
	Diff vcs.Diff
}

func (d ItemDiff) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%c%s %s", byte(d.Op), d.Kind, d.ID)
	for _, c := range d.Diff {
		b.WriteString("\n\t")
		b.WriteString(c.String())
	}
	return b.String()
}

// DiffStates compares two project states item by item, in id order.
// An added or removed item is diffed against an empty one.
func DiffStates(from, to document.State) []ItemDiff {
	ids := maps.Keys(from)
	for id := range to {
		if _, ok := from[id]; !ok {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	var ret []ItemDiff
	for _, id := range ids {
		old, inFrom := from[id]
		nu, inTo := to[id]
		switch {
		case !inFrom:
			ret = append(ret, ItemDiff{ID: id, Kind: nu.ItemKind(), Op: vcs.Added,
				Diff: vcs.NewDiffLogic(nu).CreateDiff(vcs.NewSnapshot(nu.ItemKind()))})
		case !inTo:
			ret = append(ret, ItemDiff{ID: id, Kind: old.ItemKind(), Op: vcs.Removed,
				Diff: vcs.NewDiffLogic(vcs.NewSnapshot(old.ItemKind())).CreateDiff(old)})
		case old.ItemKind() != nu.ItemKind():
			// the id got reused for another kind of item
			ret = append(ret,
				ItemDiff{ID: id, Kind: old.ItemKind(), Op: vcs.Removed},
				ItemDiff{ID: id, Kind: nu.ItemKind(), Op: vcs.Added})
		default:
			diff := vcs.NewDiffLogic(nu).CreateDiff(old)
			if !diff.Empty() {
				ret = append(ret, ItemDiff{ID: id, Kind: nu.ItemKind(), Op: vcs.Changed, Diff: diff})
			}
		}
	}
	return ret
}

// Diff tells what changed from revision a to revision b.
func (s *Store) Diff(a, b RevisionID) ([]ItemDiff, error) {
	from, err := s.Load(a)
	if err != nil {
		return nil, err
	}
	to, err := s.Load(b)
	if err != nil {
		return nil, err
	}
	return DiffStates(from.Items, to.Items), nil
}

// ancestors lists a revision and everything it descends from.
func (s *Store) ancestors(id RevisionID) (map[RevisionID]bool, error) {
	seen := map[RevisionID]bool{}
	queue := []RevisionID{id}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if seen[next] {
			continue
		}
		seen[next] = true
		rev, err := s.Load(next)
		if err != nil {
			return nil, err
		}
		queue = append(queue, rev.Parents()...)
	}
	return seen, nil
}

// MergeBase finds the nearest common ancestor of two revisions by a
// breadth-first walk from b; "" if they share no history.
func (s *Store) MergeBase(a, b RevisionID) (RevisionID, error) {
	mine, err := s.ancestors(a)
	if err != nil {
		return "", err
	}
	seen := map[RevisionID]bool{}
	queue := []RevisionID{b}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if mine[next] {
			return next, nil
		}
		if seen[next] {
			continue
		}
		seen[next] = true
		rev, err := s.Load(next)
		if err != nil {
			return "", err
		}
		queue = append(queue, rev.Parents()...)
	}
	return "", nil
}

// MergeStates reconciles ours and theirs against base item by item.
// Items follow the rule of collection elements: an item added on
// either side is kept, one removed on a side is gone unless the other
// side changed it, and on a true conflict ours wins.
func MergeStates(base, ours, theirs document.State) document.State {
	merged := make(document.State, len(ours))
	for id, mine := range ours {
		orig, inBase := base[id]
		other, inTheirs := theirs[id]
		switch {
		case inTheirs && other.ItemKind() == mine.ItemKind():
			if !inBase || orig.ItemKind() != mine.ItemKind() {
				orig = vcs.NewSnapshot(mine.ItemKind())
			}
			merged[id] = vcs.NewDiffLogic(mine).CreateThreeWayMerge(orig, other)
		case inTheirs:
			merged[id] = mine.Clone()
		case inBase && mine.Equal(orig):
			// removed by theirs
		default:
			merged[id] = mine.Clone()
		}
	}
	for id, other := range theirs {
		if _, inOurs := ours[id]; inOurs {
			continue
		}
		if orig, inBase := base[id]; inBase {
			if !other.Equal(orig) {
				vcs.Log.Warn("item changed upstream was removed here", "item", id)
			}
			continue
		}
		merged[id] = other.Clone()
	}
	return merged
}

// Merge computes the merged project state of two revisions given
// their common ancestor; base may be "" for unrelated histories.
func (s *Store) Merge(base, ours, theirs RevisionID) (document.State, error) {
	baseItems := document.State{}
	if base != "" {
		rev, err := s.Load(base)
		if err != nil {
			return nil, err
		}
		baseItems = rev.Items
	}
	our, err := s.Load(ours)
	if err != nil {
		return nil, err
	}
	their, err := s.Load(theirs)
	if err != nil {
		return nil, err
	}
	return MergeStates(baseItems, our.Items, their.Items), nil
}

// MergeInto merges revision theirs into the document, the local side
// being its current state, uncommitted edits included. The result is
// applied with notifications and committed as a merge of the head.
func (s *Store) MergeInto(doc *document.Document, theirs RevisionID, message string) (*Revision, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	head, err := s.Head()
	if err != nil {
		return nil, err
	}
	if head == "" {
		return nil, errors.Wrap(ErrNoRevision, "merge into an empty history")
	}
	base, err := s.MergeBase(head, theirs)
	if err != nil {
		return nil, err
	}
	if base == theirs {
		return nil, ErrNothingToMerge
	}
	baseItems := document.State{}
	if base != "" {
		rev, err := s.Load(base)
		if err != nil {
			return nil, err
		}
		baseItems = rev.Items
	}
	their, err := s.Load(theirs)
	if err != nil {
		return nil, err
	}
	ctx := utils.WithDefaultArgs(context.Background(), "head", head.Short(), "theirs", theirs.Short())
	state := MergeStates(baseItems, doc.Snapshot(), their.Items)
	if err := doc.Sync(state, true); err != nil {
		s.opts.Log.WarnCtx(ctx, "merge skipped deltas", "err", err)
	}
	s.opts.Log.DebugCtx(ctx, "merged", "base", base.Short(), "items", len(state))
	return s.commit(doc.Snapshot(), head, theirs, message)
}
