package tracks

import (
	"github.com/drpcorg/vcs"
)

// ProjectInfo is the project metadata record.
type ProjectInfo struct {
	base
	path        string
	fullName    string
	author      string
	description string
}

func NewProjectInfo(id ItemID, path string) *ProjectInfo {
	if id == "" {
		id = NewItemID()
	}
	return &ProjectInfo{base: base{id: id}, path: path}
}

func (p *ProjectInfo) Path() string        { return p.path }
func (p *ProjectInfo) FullName() string    { return p.fullName }
func (p *ProjectInfo) Author() string      { return p.author }
func (p *ProjectInfo) Description() string { return p.description }

// field maps a kind onto its string field; all project info is text.
func (p *ProjectInfo) field(k vcs.Kind) *string {
	switch k {
	case vcs.ProjectPath:
		return &p.path
	case vcs.ProjectFullName:
		return &p.fullName
	case vcs.ProjectAuthor:
		return &p.author
	case vcs.ProjectDescription:
		return &p.description
	}
	return nil
}

// Set changes one field of the record.
func (p *ProjectInfo) Set(k vcs.Kind, value string, notify bool) {
	f := p.field(k)
	if f == nil {
		vcs.Log.Error("not a project info field", "kind", k.String())
		return
	}
	if *f != value {
		*f = value
		p.notify(notify, func(l Listener) { l.OnChangeProjectInfo(p.id) })
	}
}

func (p *ProjectInfo) ItemKind() vcs.ItemKind {
	return vcs.ProjectInfoItem
}

func (p *ProjectInfo) NumDeltas() int {
	return len(vcs.ProjectInfoItem.Kinds())
}

func (p *ProjectInfo) Delta(i int) vcs.Delta {
	k := vcs.ProjectInfoItem.Kinds()[i]
	return vcs.Delta{Kind: k, Description: *p.field(k)}
}

func (p *ProjectInfo) SerializeDeltaData(i int) []byte {
	k := vcs.ProjectInfoItem.Kinds()[i]
	return vcs.NewPayload(k).SetString(vcs.DeltaProp, *p.field(k)).Marshal()
}

func (p *ProjectInfo) ResetStateTo(state vcs.TrackedItem, notify bool) error {
	return resetItem(p, state, func(k vcs.Kind, payload []byte) error {
		value, err := DecodeString(k, payload)
		if err == nil {
			p.Set(k, value, notify)
		}
		return err
	})
}
