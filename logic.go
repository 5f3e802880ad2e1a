package vcs

// DiffLogic computes diffs and merges for one item, the target. The
// target is the changed (local) side; arguments are baselines or the
// incoming side. Results never alias the inputs' payload slots, and
// no input is retained after the call returns.
type DiffLogic interface {
	ItemKind() ItemKind
	// CreateDiff compares the target against the initial state.
	CreateDiff(initial TrackedItem) Diff
	// CreateMergedItem layers the target over initial, initial being
	// the common ancestor. Kinds the target lacks come from initial.
	CreateMergedItem(initial TrackedItem) *Snapshot
	// CreateThreeWayMerge reconciles the target (ours) with incoming
	// (theirs) against their common ancestor base.
	CreateThreeWayMerge(base, incoming TrackedItem) *Snapshot
}

// NewDiffLogic picks the logic for the target's item kind.
func NewDiffLogic(target TrackedItem) DiffLogic {
	switch ik := target.ItemKind(); ik {
	case PianoTrackItem:
		return &PianoTrackDiffLogic{logic{target: target, kind: ik}}
	case AutomationTrackItem:
		return &AutomationTrackDiffLogic{logic{target: target, kind: ik}}
	case ProjectInfoItem:
		return &ProjectInfoDiffLogic{logic{target: target, kind: ik}}
	case UnknownItem:
	}
	defect("no diff logic", "item", target.ItemKind())
	return &logic{target: target, kind: UnknownItem}
}

type PianoTrackDiffLogic struct {
	logic
}

type AutomationTrackDiffLogic struct {
	logic
}

type ProjectInfoDiffLogic struct {
	logic
}

// logic is shared by the variants; they differ in the kinds their
// items carry, which is what the item kind tells.
type logic struct {
	target TrackedItem
	kind   ItemKind
}

func (l *logic) ItemKind() ItemKind {
	return l.kind
}

func (l *logic) kinds() []Kind {
	if l.kind == UnknownItem {
		return AllKinds()
	}
	return l.kind.Kinds()
}

func (l *logic) matches(other TrackedItem) bool {
	if other.ItemKind() == l.kind {
		return true
	}
	defect("diff of mismatched items", "target", l.kind, "other", other.ItemKind())
	return false
}

func (l *logic) CreateDiff(initial TrackedItem) Diff {
	DiffCount.WithLabelValues(l.kind.String()).Inc()
	if !l.matches(initial) {
		return nil
	}
	diff := diffItems(initial, l.target)
	ret := diff[:0]
	for _, c := range diff {
		if l.kind == UnknownItem || l.kind.Carries(c.Kind) {
			ret = append(ret, c)
		}
	}
	return ret
}

func (l *logic) CreateMergedItem(initial TrackedItem) *Snapshot {
	MergeCount.WithLabelValues(l.kind.String()).Inc()
	if !l.matches(initial) {
		return Capture(l.target)
	}
	merged := NewSnapshot(l.kind)
	for _, k := range l.kinds() {
		base := PayloadOf(initial, k)
		ours := PayloadOf(l.target, k)
		if ours == nil {
			merged.Put(k, clonePayload(base))
			continue
		}
		payload, _ := PolicyFor(k)(k, base, ours, base)
		merged.Put(k, clonePayload(payload))
	}
	return merged
}

func (l *logic) CreateThreeWayMerge(base, incoming TrackedItem) *Snapshot {
	MergeCount.WithLabelValues(l.kind.String()).Inc()
	if !l.matches(base) || !l.matches(incoming) {
		return Capture(l.target)
	}
	merged := NewSnapshot(l.kind)
	for _, k := range l.kinds() {
		payload, conflict := PolicyFor(k)(k,
			PayloadOf(base, k), PayloadOf(l.target, k), PayloadOf(incoming, k))
		if conflict {
			MergeConflicts.WithLabelValues(k.String()).Inc()
		}
		merged.Put(k, clonePayload(payload))
	}
	return merged
}

func clonePayload(payload []byte) []byte {
	if payload == nil {
		return nil
	}
	return append([]byte{}, payload...)
}
