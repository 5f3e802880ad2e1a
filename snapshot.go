package vcs

import (
	"bytes"
	"errors"

	"github.com/cespare/xxhash"
	"github.com/drpcorg/vcs/protocol"
)

// Snapshot is a frozen TrackedItem: one payload per Kind. Commits
// capture items into snapshots, merges produce them, and a live item
// takes one back via ResetStateTo.
type Snapshot struct {
	kind  ItemKind
	slots []slot
}

type slot struct {
	kind    Kind
	payload []byte
}

var ErrBadSnapshot = errors.New("vcs: bad snapshot record")

func NewSnapshot(kind ItemKind) *Snapshot {
	return &Snapshot{kind: kind}
}

// Capture serializes every delta of the item once. The snapshot owns
// copies of the payloads, so the item can change right after.
func Capture(item TrackedItem) *Snapshot {
	if snap, ok := item.(*Snapshot); ok {
		return snap.Clone()
	}
	snap := NewSnapshot(item.ItemKind())
	for i := 0; i < item.NumDeltas(); i++ {
		d := item.Delta(i)
		payload := item.SerializeDeltaData(i)
		snap.Put(d.Kind, bytes.Clone(payload))
	}
	return snap
}

func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{kind: s.kind, slots: make([]slot, len(s.slots))}
	copy(c.slots, s.slots)
	return c
}

// Put sets the payload of the kind, replacing the previous one.
// A nil payload removes the slot.
func (s *Snapshot) Put(k Kind, payload []byte) {
	for i := range s.slots {
		if s.slots[i].kind == k {
			if payload == nil {
				s.slots = append(s.slots[:i], s.slots[i+1:]...)
			} else {
				s.slots[i].payload = payload
			}
			return
		}
	}
	if payload != nil {
		s.slots = append(s.slots, slot{kind: k, payload: payload})
	}
}

func (s *Snapshot) Payload(k Kind) (payload []byte, ok bool) {
	for _, sl := range s.slots {
		if sl.kind == k {
			return sl.payload, true
		}
	}
	return nil, false
}

func (s *Snapshot) ItemKind() ItemKind {
	return s.kind
}

func (s *Snapshot) NumDeltas() int {
	return len(s.slots)
}

func (s *Snapshot) Delta(i int) Delta {
	sl := s.slots[i]
	return Delta{Kind: sl.kind, Description: Describe(sl.kind, sl.payload)}
}

func (s *Snapshot) SerializeDeltaData(i int) []byte {
	return s.slots[i].payload
}

// Hash fingerprints the contents; equal snapshots hash equally
// regardless of the slot order.
func (s *Snapshot) Hash() uint64 {
	h := xxhash.New()
	_, _ = h.Write([]byte(s.kind.String()))
	for k := Kind(0); k < numKinds; k++ {
		payload, ok := s.Payload(k)
		if !ok {
			continue
		}
		_, _ = h.Write(protocol.Record('K', []byte(k.String())))
		_, _ = h.Write(payload)
	}
	return h.Sum64()
}

// Equal compares contents kind by kind.
func (s *Snapshot) Equal(b *Snapshot) bool {
	if s.kind != b.kind || len(s.slots) != len(b.slots) {
		return false
	}
	for _, sl := range s.slots {
		other, ok := b.Payload(sl.kind)
		if !ok || !bytes.Equal(other, sl.payload) {
			return false
		}
	}
	return true
}

// Marshal is the storage form: an I record with the item kind,
// then a D record {K tag, V payload} per slot.
func (s *Snapshot) Marshal() []byte {
	ret := protocol.Record('I', []byte(s.kind.String()))
	for _, sl := range s.slots {
		ret = protocol.Append(ret, 'D',
			protocol.Record('K', []byte(sl.kind.String())),
			protocol.Record('V', sl.payload))
	}
	return ret
}

func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	name, rest, err := protocol.TakeWary('I', data)
	if err != nil {
		return nil, err
	}
	kind := ItemKindByName(string(name))
	if kind == UnknownItem {
		return nil, ErrUnknownItem
	}
	snap := NewSnapshot(kind)
	for len(rest) > 0 {
		var body []byte
		body, rest, err = protocol.TakeWary('D', rest)
		if err != nil {
			return nil, err
		}
		tag, val, err := protocol.TakeWary('K', body)
		if err != nil {
			return nil, err
		}
		payload, tail, err := protocol.TakeWary('V', val)
		if err != nil {
			return nil, err
		}
		k, ok := KindByTag(string(tag))
		if !ok || len(tail) != 0 {
			return nil, ErrBadSnapshot
		}
		snap.Put(k, bytes.Clone(payload))
	}
	return snap, nil
}
