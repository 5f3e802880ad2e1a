package tracks

import (
	"github.com/drpcorg/vcs"
	"github.com/google/uuid"
)

// ItemID is the stable address of an item within its document.
type ItemID string

func NewItemID() ItemID {
	return ItemID(uuid.Must(uuid.NewV7()).String())
}

// NewElementID makes an id for a note, clip or automation point.
// Short ids are enough there, they are unique within a track.
func NewElementID() string {
	id := uuid.Must(uuid.NewV7())
	return id.String()[24:]
}

// Listener observes project changes. Calls happen on the mutating
// goroutine, after the change is applied.
type Listener interface {
	OnChangeTrackProperties(track ItemID)
	OnAddEvent(track ItemID, ev Event)
	OnChangeEvent(track ItemID, old, nu Event)
	OnRemoveEvent(track ItemID, ev Event)
	OnAddClip(track ItemID, clip Clip)
	OnChangeClip(track ItemID, old, nu Clip)
	OnRemoveClip(track ItemID, clip Clip)
	OnChangeProjectInfo(info ItemID)
	OnReloadProjectContent()
}

// Notifier delivers an item's change to the listeners of whatever
// owns the item. Items keep it only to notify.
type Notifier interface {
	Notify(from ItemID, call func(l Listener))
}

// Item is a project entity the document can own and version.
type Item interface {
	vcs.Resettable
	ID() ItemID
	// Attach sets the back-reference used for notifications; nil detaches.
	Attach(owner Notifier)
}

// base is the identity and owner link every item carries.
type base struct {
	id    ItemID
	owner Notifier
}

func (b *base) ID() ItemID {
	return b.id
}

func (b *base) Attach(owner Notifier) {
	b.owner = owner
}

func (b *base) notify(notify bool, call func(l Listener)) {
	if notify && b.owner != nil {
		b.owner.Notify(b.id, call)
	}
}

// NopListener ignores everything; embed it to implement a few calls.
type NopListener struct{}

func (NopListener) OnChangeTrackProperties(ItemID)     {}
func (NopListener) OnAddEvent(ItemID, Event)           {}
func (NopListener) OnChangeEvent(ItemID, Event, Event) {}
func (NopListener) OnRemoveEvent(ItemID, Event)        {}
func (NopListener) OnAddClip(ItemID, Clip)             {}
func (NopListener) OnChangeClip(ItemID, Clip, Clip)    {}
func (NopListener) OnRemoveClip(ItemID, Clip)          {}
func (NopListener) OnChangeProjectInfo(ItemID)         {}
func (NopListener) OnReloadProjectContent()            {}

var (
	_ Item = (*PianoTrack)(nil)
	_ Item = (*AutomationTrack)(nil)
	_ Item = (*ProjectInfo)(nil)
)

// NewItem makes an empty item of the kind, e.g. to check out a
// revision that has a track the document does not.
func NewItem(kind vcs.ItemKind, id ItemID) (Item, error) {
	switch kind {
	case vcs.PianoTrackItem:
		return NewPianoTrack(id, ""), nil
	case vcs.AutomationTrackItem:
		return NewAutomationTrack(id, "", 0), nil
	case vcs.ProjectInfoItem:
		return NewProjectInfo(id, ""), nil
	case vcs.UnknownItem:
	}
	return nil, vcs.ErrUnknownItem
}
