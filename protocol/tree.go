package protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
	"strconv"
	"unicode/utf8"
)

// Tree is a structured-document fragment: a typed node holding named
// properties and ordered children. Delta payloads are Trees whose Type
// is the delta kind tag, e.g.
//
//	notesAdded
//	  note{id:"n1" key:60 beat:0 len:1 vel:0.8}
//	  note{id:"n2" key:64 beat:1 len:1 vel:0.8}
//
// The encoding is canonical: properties and children keep insertion
// order, so equal trees built the same way have equal bytes.
type Tree struct {
	Type     string
	Props    []Prop
	Children []*Tree
}

type Prop struct {
	Name  string
	Value []byte
}

const (
	TreeLit  = 'N'
	TypeLit  = 'T'
	PropLit  = 'P'
	KeyLit   = 'K'
	ValueLit = 'V'
)

var ErrBadTree = errors.New("bad payload tree")

func NewTree(typ string) *Tree {
	return &Tree{Type: typ}
}

// Set replaces the named property or appends a new one.
func (t *Tree) Set(name string, value []byte) *Tree {
	for i := range t.Props {
		if t.Props[i].Name == name {
			t.Props[i].Value = value
			return t
		}
	}
	t.Props = append(t.Props, Prop{Name: name, Value: value})
	return t
}

func (t *Tree) SetString(name, value string) *Tree {
	return t.Set(name, []byte(value))
}

func (t *Tree) SetInt(name string, value int64) *Tree {
	return t.Set(name, ZipInt64(value))
}

func (t *Tree) SetUint(name string, value uint64) *Tree {
	return t.Set(name, ZipUint64(value))
}

func (t *Tree) SetFloat(name string, value float64) *Tree {
	return t.Set(name, ZipFloat64(value))
}

func (t *Tree) SetBool(name string, value bool) *Tree {
	if value {
		return t.Set(name, []byte{1})
	}
	return t.Set(name, []byte{})
}

func (t *Tree) Get(name string) (value []byte, ok bool) {
	for _, p := range t.Props {
		if p.Name == name {
			return p.Value, true
		}
	}
	return nil, false
}

func (t *Tree) GetString(name string) (string, bool) {
	val, ok := t.Get(name)
	return string(val), ok
}

func (t *Tree) GetInt(name string) (int64, bool) {
	val, ok := t.Get(name)
	if !ok || len(val) > 8 {
		return 0, false
	}
	return UnzipInt64(val), true
}

func (t *Tree) GetUint(name string) (uint64, bool) {
	val, ok := t.Get(name)
	if !ok || len(val) > 8 {
		return 0, false
	}
	return UnzipUint64(val), true
}

func (t *Tree) GetFloat(name string) (float64, bool) {
	val, ok := t.Get(name)
	if !ok || len(val) > 8 {
		return 0, false
	}
	return UnzipFloat64(val), true
}

func (t *Tree) GetBool(name string) (bool, bool) {
	val, ok := t.Get(name)
	if !ok || len(val) > 1 {
		return false, false
	}
	return len(val) == 1 && val[0] != 0, true
}

// Add appends a child node, returns the parent
func (t *Tree) Add(child *Tree) *Tree {
	t.Children = append(t.Children, child)
	return t
}

func (t *Tree) HasType(typ string) bool {
	return t != nil && t.Type == typ
}

// Marshal produces the canonical TLV form.
func (t *Tree) Marshal() []byte {
	return t.appendTo(nil)
}

func (t *Tree) appendTo(into []byte) []byte {
	bm, res := OpenHeader(into, TreeLit)
	res = Append(res, TypeLit, []byte(t.Type))
	for _, p := range t.Props {
		res = Append(res, PropLit,
			Record(KeyLit, []byte(p.Name)),
			Record(ValueLit, p.Value))
	}
	for _, child := range t.Children {
		res = child.appendTo(res)
	}
	CloseHeader(res, bm)
	return res
}

// Unmarshal parses a single tree; trailing bytes are an error.
func Unmarshal(data []byte) (*Tree, error) {
	body, rest, err := TakeWary(TreeLit, data)
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, ErrBadTree
	}
	return parseTree(body, 0)
}

const maxTreeDepth = 32

func parseTree(body []byte, depth int) (t *Tree, err error) {
	if depth > maxTreeDepth {
		return nil, ErrBadTree
	}
	typ, rest, err := TakeWary(TypeLit, body)
	if err != nil {
		return nil, err
	}
	t = &Tree{Type: string(typ)}
	for len(rest) > 0 {
		var lit byte
		var rec []byte
		lit, rec, rest, err = TakeAnyWary(rest)
		if err != nil {
			return nil, err
		}
		switch lit {
		case PropLit:
			key, val, e := TakeWary(KeyLit, rec)
			if e != nil {
				return nil, e
			}
			value, tail, e := TakeWary(ValueLit, val)
			if e != nil {
				return nil, e
			}
			if len(tail) != 0 {
				return nil, ErrBadTree
			}
			t.Props = append(t.Props, Prop{Name: string(key), Value: value})
		case TreeLit:
			child, e := parseTree(rec, depth+1)
			if e != nil {
				return nil, e
			}
			t.Children = append(t.Children, child)
		default:
			return nil, ErrBadTree
		}
	}
	return t, nil
}

// Equal compares the canonical forms.
func (t *Tree) Equal(b *Tree) bool {
	if t == nil || b == nil {
		return t == b
	}
	return bytes.Equal(t.Marshal(), b.Marshal())
}

// String is the text form, for the REPL and test failures mostly.
func (t *Tree) String() string {
	return string(t.appendString(nil))
}

func (t *Tree) appendString(ret []byte) []byte {
	ret = append(ret, t.Type...)
	ret = append(ret, '{')
	for i, p := range t.Props {
		if i > 0 {
			ret = append(ret, ' ')
		}
		ret = append(ret, p.Name...)
		ret = append(ret, ':')
		if utf8.Valid(p.Value) && isPrintable(p.Value) {
			ret = strconv.AppendQuote(ret, string(p.Value))
		} else {
			ret = append(ret, '#')
			ret = hex.AppendEncode(ret, p.Value)
		}
	}
	for i, c := range t.Children {
		if i > 0 || len(t.Props) > 0 {
			ret = append(ret, ' ')
		}
		ret = c.appendString(ret)
	}
	ret = append(ret, '}')
	return ret
}

func isPrintable(b []byte) bool {
	for _, r := range string(b) {
		if !strconv.IsPrint(r) {
			return false
		}
	}
	return true
}
