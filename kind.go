package vcs

// Kind identifies what a delta represents. The set is closed: every
// Kind has a wire tag, a class (scalar or keyed collection) and a merge
// policy, and adding one means extending each table below.
type Kind uint8

const (
	TrackPath Kind = iota
	TrackMute
	TrackColour
	TrackInstrument
	TrackController
	NotesSet
	EventsSet
	ClipsSet
	ProjectPath
	ProjectFullName
	ProjectAuthor
	ProjectDescription

	numKinds
)

// wire tags, stable across versions
var kindTags = [numKinds]string{
	TrackPath:          "trackPath",
	TrackMute:          "trackMute",
	TrackColour:        "trackColour",
	TrackInstrument:    "trackInstrument",
	TrackController:    "trackController",
	NotesSet:           "notesAdded",
	EventsSet:          "eventsAdded",
	ClipsSet:           "clipsAdded",
	ProjectPath:        "projectPath",
	ProjectFullName:    "projectFullName",
	ProjectAuthor:      "projectAuthor",
	ProjectDescription: "projectDescription",
}

func (k Kind) Valid() bool {
	return k < numKinds
}

func (k Kind) String() string {
	if !k.Valid() {
		return "unknownDelta"
	}
	return kindTags[k]
}

// KindByTag maps a wire tag back onto the Kind.
func KindByTag(tag string) (Kind, bool) {
	for k, t := range kindTags {
		if t == tag {
			return Kind(k), true
		}
	}
	return numKinds, false
}

// IsCollection tells keyed collections (notes, events, clips) from scalars.
func (k Kind) IsCollection() bool {
	switch k {
	case NotesSet, EventsSet, ClipsSet:
		return true
	case TrackPath, TrackMute, TrackColour, TrackInstrument, TrackController,
		ProjectPath, ProjectFullName, ProjectAuthor, ProjectDescription:
		return false
	}
	return false
}

// AllKinds lists every Kind in declaration order.
func AllKinds() []Kind {
	ret := make([]Kind, 0, numKinds)
	for k := Kind(0); k < numKinds; k++ {
		ret = append(ret, k)
	}
	return ret
}

// ItemKind is the closed set of versionable entities.
type ItemKind uint8

const (
	UnknownItem ItemKind = iota
	PianoTrackItem
	AutomationTrackItem
	ProjectInfoItem
)

func (ik ItemKind) String() string {
	switch ik {
	case PianoTrackItem:
		return "pianoTrack"
	case AutomationTrackItem:
		return "automationTrack"
	case ProjectInfoItem:
		return "projectInfo"
	}
	return "unknown"
}

// ItemKindByName is the inverse of String.
func ItemKindByName(name string) ItemKind {
	for _, ik := range []ItemKind{PianoTrackItem, AutomationTrackItem, ProjectInfoItem} {
		if ik.String() == name {
			return ik
		}
	}
	return UnknownItem
}

// Kinds are the delta slots an item of this kind carries, in display order.
func (ik ItemKind) Kinds() []Kind {
	switch ik {
	case PianoTrackItem:
		return []Kind{TrackPath, TrackMute, TrackColour, TrackInstrument, NotesSet, ClipsSet}
	case AutomationTrackItem:
		return []Kind{TrackPath, TrackMute, TrackColour, TrackInstrument, TrackController, EventsSet, ClipsSet}
	case ProjectInfoItem:
		return []Kind{ProjectPath, ProjectFullName, ProjectAuthor, ProjectDescription}
	}
	return nil
}

// Carries tells whether items of this kind have a slot for k.
func (ik ItemKind) Carries(k Kind) bool {
	for _, has := range ik.Kinds() {
		if has == k {
			return true
		}
	}
	return false
}
