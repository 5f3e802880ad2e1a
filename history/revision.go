package history

import (
	"fmt"
	"strings"
	"time"

	"github.com/drpcorg/vcs/document"
	"github.com/drpcorg/vcs/protocol"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// RevisionID is a uuid v7, so ids sort in commit order.
type RevisionID string

func NewRevisionID() RevisionID {
	return RevisionID(uuid.Must(uuid.NewV7()).String())
}

// Short is the prefix shown in logs and accepted by the REPL.
func (id RevisionID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[len(id)-8:])
}

type Revision struct {
	ID      RevisionID
	Parent  RevisionID
	Merged  RevisionID // the incoming parent of a merge commit
	Message string
	Author  string
	Time    time.Time
	Items   document.State
}

func (r *Revision) Parents() []RevisionID {
	ret := make([]RevisionID, 0, 2)
	if r.Parent != "" {
		ret = append(ret, r.Parent)
	}
	if r.Merged != "" {
		ret = append(ret, r.Merged)
	}
	return ret
}

func (r *Revision) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s <%s> %s", r.ID.Short(), r.Time.Format(time.DateTime), r.Author, r.Message)
	if r.Merged != "" {
		fmt.Fprintf(&b, " (merge %s)", r.Merged.Short())
	}
	return b.String()
}

var ErrBadRevision = errors.New("history: bad revision record")

// header is the R record body: everything but the items.
func (r *Revision) header() []byte {
	return protocol.Concat(
		protocol.Record('P', []byte(r.Parent)),
		protocol.Record('M', []byte(r.Merged)),
		protocol.Record('T', []byte(r.Message)),
		protocol.Record('A', []byte(r.Author)),
		protocol.Record('W', protocol.ZipInt64(r.Time.UnixNano())),
	)
}

func parseHeader(id RevisionID, data []byte) (*Revision, error) {
	var fields [5][]byte
	rest := data
	for i, lit := range []byte{'P', 'M', 'T', 'A', 'W'} {
		var err error
		fields[i], rest, err = protocol.TakeWary(lit, rest)
		if err != nil {
			return nil, errors.Wrapf(ErrBadRevision, "%s: %s", id, err)
		}
	}
	if len(rest) != 0 || len(fields[4]) > 8 {
		return nil, errors.Wrapf(ErrBadRevision, "%s", id)
	}
	return &Revision{
		ID:      id,
		Parent:  RevisionID(fields[0]),
		Merged:  RevisionID(fields[1]),
		Message: string(fields[2]),
		Author:  string(fields[3]),
		Time:    time.Unix(0, protocol.UnzipInt64(fields[4])),
		Items:   make(document.State),
	}, nil
}
