package document

import (
	"errors"
	"fmt"
	"slices"

	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/tracks"
	"golang.org/x/exp/maps"
)

// State is a whole project frozen: one snapshot per item.
type State map[tracks.ItemID]*vcs.Snapshot

// Snapshot captures every item, which is what a commit stores.
func (d *Document) Snapshot() State {
	state := make(State, d.items.Size())
	d.items.Range(func(id tracks.ItemID, item tracks.Item) bool {
		state[id] = vcs.Capture(item)
		return true
	})
	return state
}

// ResetTo brings the items named in states to those states, creating
// the ones the document lacks. Items not named are left alone.
// With notify, listeners get the per-item changes and then one
// OnReloadProjectContent; without it they get nothing.
func (d *Document) ResetTo(states State, notify bool) error {
	var errs []error
	ids := maps.Keys(states)
	slices.Sort(ids)
	for _, id := range ids {
		state := states[id]
		item, ok := d.items.Load(id)
		if !ok {
			created, err := tracks.NewItem(state.ItemKind(), id)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
				continue
			}
			item = created
			// attached after the reset, creation is reported by the reload
			if err := item.ResetStateTo(state, false); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
			}
			if err := d.Add(item); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", id, err))
			}
			continue
		}
		if err := item.ResetStateTo(state, notify); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", id, err))
		}
	}
	if notify {
		d.broadcast(func(l Listener) { l.OnReloadProjectContent() })
	}
	return errors.Join(errs...)
}

// Sync is ResetTo that also drops the items states does not name,
// so the document ends up holding exactly that project.
func (d *Document) Sync(states State, notify bool) error {
	for _, item := range d.Items() {
		if _, keep := states[item.ID()]; !keep {
			d.Remove(item.ID())
		}
	}
	return d.ResetTo(states, notify)
}
