// Package history keeps the revisions of a project in a pebble
// database. A revision stores one snapshot per item; identical
// snapshots are stored once.
//
// Keys:
//
//	H                  head revision id
//	R<rev>             revision header
//	S<rev>/<item>      xxhash of the item snapshot
//	B<hash>            snapshot bytes
package history

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash"
	"github.com/cockroachdb/pebble"
	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/document"
	"github.com/drpcorg/vcs/tracks"
	"github.com/drpcorg/vcs/utils"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

var (
	ErrNoRevision    = errors.New("history: no such revision")
	ErrAmbiguous     = errors.New("history: ambiguous revision prefix")
	ErrHashCollision = errors.New("history: snapshot hash collision")
	ErrClosed        = errors.New("history: store is closed")
)

var WriteOptions = pebble.WriteOptions{Sync: true}

type Options struct {
	Author    string
	CacheSize int
	Log       utils.Logger
}

func (o *Options) SetDefaults() {
	if o.Author == "" {
		o.Author = "anonymous"
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 64
	}
	if o.Log == nil {
		o.Log = vcs.Log
	}
}

type Store struct {
	db    *pebble.DB
	opts  Options
	cache *lru.Cache[RevisionID, *Revision]
	// serializes head updates
	lock sync.Mutex
}

func Open(dir string, opts Options) (*Store, error) {
	opts.SetDefaults()
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", dir)
	}
	cache, err := lru.New[RevisionID, *Revision](opts.CacheSize)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, opts: opts, cache: cache}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return ErrClosed
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) Collector() *Collector {
	return NewCollector(s.db)
}

func revKey(id RevisionID) []byte {
	return append([]byte{'R'}, id...)
}

func itemPrefix(id RevisionID) []byte {
	return append(append([]byte{'S'}, id...), '/')
}

func blobKey(hash uint64) []byte {
	return binary.BigEndian.AppendUint64([]byte{'B'}, hash)
}

// Head is the current revision, "" for an empty history.
func (s *Store) Head() (RevisionID, error) {
	val, closer, err := s.db.Get([]byte{'H'})
	if errors.Is(err, pebble.ErrNotFound) {
		return "", nil
	} else if err != nil {
		return "", errors.Wrap(err, "read head")
	}
	head := RevisionID(val)
	_ = closer.Close()
	return head, nil
}

func (s *Store) setHead(batch *pebble.Batch, id RevisionID) error {
	return batch.Set([]byte{'H'}, []byte(id), nil)
}

// Commit records the document state as a child of the head.
func (s *Store) Commit(doc *document.Document, message string) (*Revision, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	head, err := s.Head()
	if err != nil {
		return nil, err
	}
	return s.commit(doc.Snapshot(), head, "", message)
}

func (s *Store) commit(state document.State, parent, merged RevisionID, message string) (*Revision, error) {
	rev := &Revision{
		ID:      NewRevisionID(),
		Parent:  parent,
		Merged:  merged,
		Message: message,
		Author:  s.opts.Author,
		Time:    time.Now(),
		Items:   state,
	}
	batch := s.db.NewIndexedBatch()
	defer batch.Close()
	if err := batch.Set(revKey(rev.ID), rev.header(), nil); err != nil {
		return nil, err
	}
	for id, snap := range state {
		hash, err := s.putBlob(batch, snap)
		if err != nil {
			return nil, errors.Wrapf(err, "item %s", id)
		}
		key := append(itemPrefix(rev.ID), id...)
		if err := batch.Set(key, binary.BigEndian.AppendUint64(nil, hash), nil); err != nil {
			return nil, err
		}
	}
	if err := s.setHead(batch, rev.ID); err != nil {
		return nil, err
	}
	if err := batch.Commit(&WriteOptions); err != nil {
		return nil, errors.Wrap(err, "commit")
	}
	s.cache.Add(rev.ID, rev)
	s.opts.Log.Info("committed", "rev", rev.ID.Short(), "items", len(state), "msg", message)
	return rev, nil
}

// putBlob stores the snapshot under its hash unless it is there.
// The batch is indexed, so reads see both its writes and the db.
func (s *Store) putBlob(batch *pebble.Batch, snap *vcs.Snapshot) (uint64, error) {
	data := snap.Marshal()
	hash := xxhash.Sum64(data)
	key := blobKey(hash)
	stored, closer, err := batch.Get(key)
	switch {
	case errors.Is(err, pebble.ErrNotFound):
		return hash, batch.Set(key, data, nil)
	case err != nil:
		return 0, err
	}
	defer closer.Close()
	if !bytes.Equal(stored, data) {
		return 0, ErrHashCollision
	}
	return hash, nil
}

// Load reads a revision with all its items. Revisions are immutable,
// so they are cached; callers must not modify the result.
func (s *Store) Load(id RevisionID) (*Revision, error) {
	if rev, ok := s.cache.Get(id); ok {
		return rev, nil
	}
	val, closer, err := s.db.Get(revKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, errors.Wrapf(ErrNoRevision, "%s", id)
	} else if err != nil {
		return nil, err
	}
	rev, err := parseHeader(id, val)
	_ = closer.Close()
	if err != nil {
		return nil, err
	}
	prefix := itemPrefix(id)
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: append(append([]byte{'S'}, id...), '/'+1),
	})
	if err != nil {
		return nil, err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		item := tracks.ItemID(it.Key()[len(prefix):])
		if len(it.Value()) != 8 {
			return nil, errors.Wrapf(ErrBadRevision, "%s item %s", id, item)
		}
		snap, err := s.loadBlob(binary.BigEndian.Uint64(it.Value()))
		if err != nil {
			return nil, errors.Wrapf(err, "%s item %s", id, item)
		}
		rev.Items[item] = snap
	}
	s.cache.Add(id, rev)
	return rev, nil
}

func (s *Store) loadBlob(hash uint64) (*vcs.Snapshot, error) {
	val, closer, err := s.db.Get(blobKey(hash))
	if err != nil {
		return nil, err
	}
	defer closer.Close()
	return vcs.UnmarshalSnapshot(val)
}

// Resolve expands a short id (a suffix, see Short) or "HEAD".
func (s *Store) Resolve(ref string) (RevisionID, error) {
	if ref == "HEAD" || ref == "" {
		head, err := s.Head()
		if err == nil && head == "" {
			err = ErrNoRevision
		}
		return head, err
	}
	var found []RevisionID
	err := s.scanRevisions(func(id RevisionID) bool {
		if strings.HasSuffix(string(id), ref) {
			found = append(found, id)
		}
		return true
	})
	switch {
	case err != nil:
		return "", err
	case len(found) == 0:
		return "", errors.Wrapf(ErrNoRevision, "%s", ref)
	case len(found) > 1:
		return "", errors.Wrapf(ErrAmbiguous, "%s", ref)
	}
	return found[0], nil
}

func (s *Store) scanRevisions(f func(id RevisionID) bool) error {
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte{'R'},
		UpperBound: []byte{'S'},
	})
	if err != nil {
		return err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		if !f(RevisionID(it.Key()[1:])) {
			break
		}
	}
	return nil
}

// Log walks first parents from the head, newest first. limit <= 0
// means the whole history.
func (s *Store) Log(limit int) ([]*Revision, error) {
	head, err := s.Head()
	if err != nil {
		return nil, err
	}
	var ret []*Revision
	for id := head; id != "" && (limit <= 0 || len(ret) < limit); {
		rev, err := s.Load(id)
		if err != nil {
			return ret, err
		}
		ret = append(ret, rev)
		id = rev.Parent
	}
	return ret, nil
}

// Checkout silently brings the document to the revision and moves
// the head there. Listeners are not called; views reload themselves.
func (s *Store) Checkout(id RevisionID, doc *document.Document) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	rev, err := s.Load(id)
	if err != nil {
		return err
	}
	if err := doc.Sync(rev.Items, false); err != nil {
		s.opts.Log.Warn("checkout skipped deltas", "rev", id.Short(), "err", err)
	}
	batch := s.db.NewBatch()
	defer batch.Close()
	if err := s.setHead(batch, id); err != nil {
		return err
	}
	return batch.Commit(&WriteOptions)
}

// Dump prints every key, one line each, for debugging.
func (s *Store) Dump(w io.Writer) error {
	it, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer it.Close()
	for it.First(); it.Valid(); it.Next() {
		key, val := it.Key(), it.Value()
		var line string
		switch key[0] {
		case 'H':
			line = fmt.Sprintf("H\t%s", val)
		case 'R':
			rev, err := parseHeader(RevisionID(key[1:]), val)
			if err != nil {
				line = fmt.Sprintf("R%s\t%v", key[1:], err)
			} else {
				line = "R\t" + rev.String()
			}
		case 'S':
			line = fmt.Sprintf("S%s\t%x", key[1:], val)
		case 'B':
			snap, err := vcs.UnmarshalSnapshot(val)
			if err != nil {
				line = fmt.Sprintf("B%x\t%v", key[1:], err)
			} else {
				line = fmt.Sprintf("B%x\t%s %d deltas", key[1:], snap.ItemKind(), snap.NumDeltas())
			}
		default:
			line = fmt.Sprintf("%q\t%d bytes", key, len(val))
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
