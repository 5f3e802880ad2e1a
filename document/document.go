// Package document owns the items of an open project. It is the arena
// items are addressed in by id and the hub their changes are
// broadcast from.
package document

import (
	"errors"
	"slices"
	"sync"

	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/tracks"
	"github.com/drpcorg/vcs/utils"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	ErrDuplicateItem = errors.New("document: item id already taken")
	ErrNoItem        = errors.New("document: no such item")
)

type Listener = tracks.Listener

// Document is safe for concurrent lookups; mutations of one item
// must come from a single writer at a time.
type Document struct {
	items *xsync.MapOf[tracks.ItemID, tracks.Item]

	lock      sync.RWMutex
	listeners []Listener

	log utils.Logger
}

func New(log utils.Logger) *Document {
	if log == nil {
		log = vcs.Log
	}
	return &Document{
		items: xsync.NewMapOf[tracks.ItemID, tracks.Item](),
		log:   log,
	}
}

// Add takes ownership of the item.
func (d *Document) Add(item tracks.Item) error {
	if _, loaded := d.items.LoadOrStore(item.ID(), item); loaded {
		return ErrDuplicateItem
	}
	item.Attach(d)
	return nil
}

func (d *Document) Remove(id tracks.ItemID) (tracks.Item, bool) {
	item, ok := d.items.LoadAndDelete(id)
	if ok {
		item.Attach(nil)
	}
	return item, ok
}

func (d *Document) Item(id tracks.ItemID) (tracks.Item, bool) {
	return d.items.Load(id)
}

func (d *Document) Len() int {
	return d.items.Size()
}

// Items lists the items ordered by id, which for generated ids is
// the order of creation.
func (d *Document) Items() []tracks.Item {
	ret := make([]tracks.Item, 0, d.items.Size())
	d.items.Range(func(_ tracks.ItemID, item tracks.Item) bool {
		ret = append(ret, item)
		return true
	})
	slices.SortFunc(ret, func(a, b tracks.Item) int {
		switch {
		case a.ID() < b.ID():
			return -1
		case a.ID() > b.ID():
			return 1
		}
		return 0
	})
	return ret
}

func (d *Document) AddListener(l Listener) {
	d.lock.Lock()
	d.listeners = append(d.listeners, l)
	d.lock.Unlock()
}

func (d *Document) RemoveListener(l Listener) {
	d.lock.Lock()
	d.listeners = slices.DeleteFunc(d.listeners, func(x Listener) bool { return x == l })
	d.lock.Unlock()
}

// Notify implements tracks.Notifier. Changes of items that left the
// document are dropped.
func (d *Document) Notify(from tracks.ItemID, call func(l Listener)) {
	if _, ok := d.items.Load(from); !ok {
		d.log.Debug("notification from a detached item", "item", from)
		return
	}
	d.broadcast(call)
}

func (d *Document) broadcast(call func(l Listener)) {
	d.lock.RLock()
	listeners := slices.Clone(d.listeners)
	d.lock.RUnlock()
	for _, l := range listeners {
		call(l)
	}
}
