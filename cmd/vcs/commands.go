package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/document"
	"github.com/drpcorg/vcs/history"
	"github.com/drpcorg/vcs/tracks"
	dto "github.com/prometheus/client_model/go"
	"golang.org/x/exp/maps"
)

var (
	HelpTrack    = errors.New("track piano <path> | track auto <path> <cc>")
	HelpDrop     = errors.New("drop <item>")
	HelpNote     = errors.New("note <track> <key> <beat> [length] [velocity]")
	HelpEvent    = errors.New("event <track> <beat> <value>")
	HelpClip     = errors.New("clip <track> <beat>")
	HelpRemove   = errors.New("rm <track> <element id>")
	HelpProperty = errors.New("path|mute|colour|instrument <track> <value>")
	HelpInfo     = errors.New("info path|name|author|desc <text>")
	HelpCommit   = errors.New("commit <message>")
	HelpCheckout = errors.New("checkout <revision>")
	HelpMerge    = errors.New("merge <revision>")
)

var ErrNotATrack = errors.New("not a track")

type track interface {
	tracks.Item
	SetPath(path string, notify bool)
	SetMute(mute bool, notify bool)
	SetColour(colour uint32, notify bool)
	SetInstrument(instrument string, notify bool)
	PutClip(clip tracks.Clip, notify bool)
	RemoveClip(id string, notify bool) bool
}

func (repl *REPL) findTrack(ref string) (track, error) {
	item, err := repl.find(ref)
	if err != nil {
		return nil, err
	}
	t, ok := item.(track)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotATrack, ref)
	}
	return t, nil
}

func parseFloats(args []string) ([]float64, error) {
	ret := make([]float64, len(args))
	for i, arg := range args {
		f, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", arg)
		}
		ret[i] = f
	}
	return ret, nil
}

func (repl *REPL) CommandHelp(args []string) error {
	for _, help := range []error{HelpTrack, HelpDrop, HelpNote, HelpEvent, HelpClip,
		HelpRemove, HelpProperty, HelpInfo, HelpCommit, HelpCheckout, HelpMerge} {
		_, _ = fmt.Fprintln(repl.out, help.Error())
	}
	_, _ = fmt.Fprintln(repl.out, "ls | log | show [rev] | diff [from [to]] | metrics | dump | exit")
	return nil
}

func (repl *REPL) CommandList(args []string) error {
	for _, item := range repl.doc.Items() {
		_, _ = fmt.Fprintf(repl.out, "%s %s\n", shortID(item.ID()), item.ItemKind())
		vcs.ForEachDelta(item, func(d vcs.Delta, _ []byte) bool {
			_, _ = fmt.Fprintf(repl.out, "\t%s\n", d)
			return true
		})
	}
	return nil
}

func (repl *REPL) CommandTrack(args []string) (err error) {
	var item tracks.Item
	switch {
	case len(args) == 2 && args[0] == "piano":
		item = tracks.NewPianoTrack("", args[1])
	case len(args) == 3 && args[0] == "auto":
		cc, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil {
			return HelpTrack
		}
		item = tracks.NewAutomationTrack("", args[1], cc)
	default:
		return HelpTrack
	}
	if err = repl.doc.Add(item); err == nil {
		_, _ = fmt.Fprintf(repl.out, "%s %s\n", shortID(item.ID()), item.ItemKind())
	}
	return
}

func (repl *REPL) CommandDrop(args []string) error {
	if len(args) != 1 {
		return HelpDrop
	}
	item, err := repl.find(args[0])
	if err != nil {
		return err
	}
	repl.doc.Remove(item.ID())
	return nil
}

func (repl *REPL) CommandNote(args []string) error {
	if len(args) < 3 || len(args) > 5 {
		return HelpNote
	}
	item, err := repl.find(args[0])
	if err != nil {
		return err
	}
	piano, ok := item.(*tracks.PianoTrack)
	if !ok {
		return fmt.Errorf("%s is not a piano track", args[0])
	}
	nums, err := parseFloats(args[1:])
	if err != nil {
		return err
	}
	// length and velocity default to 1
	nums = append(nums, 1, 1)[:4]
	note := tracks.NewNote(int64(nums[0]), nums[1], nums[2], nums[3])
	piano.PutNote(note, true)
	return nil
}

func (repl *REPL) CommandEvent(args []string) error {
	if len(args) != 3 {
		return HelpEvent
	}
	item, err := repl.find(args[0])
	if err != nil {
		return err
	}
	auto, ok := item.(*tracks.AutomationTrack)
	if !ok {
		return fmt.Errorf("%s is not an automation track", args[0])
	}
	nums, err := parseFloats(args[1:])
	if err != nil {
		return err
	}
	auto.PutEvent(tracks.NewAutomationEvent(nums[0], nums[1]), true)
	return nil
}

func (repl *REPL) CommandClip(args []string) error {
	if len(args) != 2 {
		return HelpClip
	}
	t, err := repl.findTrack(args[0])
	if err != nil {
		return err
	}
	beat, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		return HelpClip
	}
	t.PutClip(tracks.NewClip(t.ID(), beat), true)
	return nil
}

func (repl *REPL) CommandRemove(args []string) error {
	if len(args) != 2 {
		return HelpRemove
	}
	t, err := repl.findTrack(args[0])
	if err != nil {
		return err
	}
	var removed bool
	switch t := t.(type) {
	case *tracks.PianoTrack:
		removed = t.RemoveNote(args[1], true)
	case *tracks.AutomationTrack:
		removed = t.RemoveEvent(args[1], true)
	}
	if !removed && !t.RemoveClip(args[1], true) {
		return fmt.Errorf("no element %s in %s", args[1], args[0])
	}
	return nil
}

func (repl *REPL) CommandProperty(prop string, args []string) error {
	if len(args) < 2 {
		return HelpProperty
	}
	t, err := repl.findTrack(args[0])
	if err != nil {
		return err
	}
	value := strings.Join(args[1:], " ")
	switch prop {
	case "path":
		t.SetPath(value, true)
	case "instrument":
		t.SetInstrument(value, true)
	case "mute":
		mute, err := strconv.ParseBool(value)
		if err != nil {
			return HelpProperty
		}
		t.SetMute(mute, true)
	case "colour":
		colour, err := strconv.ParseUint(strings.TrimPrefix(value, "#"), 16, 32)
		if err != nil {
			return HelpProperty
		}
		t.SetColour(uint32(colour), true)
	}
	return nil
}

var infoFields = map[string]vcs.Kind{
	"path":   vcs.ProjectPath,
	"name":   vcs.ProjectFullName,
	"author": vcs.ProjectAuthor,
	"desc":   vcs.ProjectDescription,
}

func (repl *REPL) CommandInfo(args []string) error {
	if len(args) < 2 {
		return HelpInfo
	}
	k, ok := infoFields[args[0]]
	if !ok {
		return HelpInfo
	}
	info, err := repl.projectInfo()
	if err != nil {
		return err
	}
	info.Set(k, strings.Join(args[1:], " "), true)
	return nil
}

func (repl *REPL) CommandCommit(args []string) error {
	if len(args) == 0 {
		return HelpCommit
	}
	rev, err := repl.store.Commit(repl.doc, strings.Join(args, " "))
	if err == nil {
		_, _ = fmt.Fprintln(repl.out, rev.String())
	}
	return err
}

func (repl *REPL) CommandShow(args []string) error {
	ref := "HEAD"
	if len(args) > 0 {
		ref = args[0]
	}
	return printRevision(repl.out, repl.store, ref)
}

// CommandDiff compares revisions; a missing side is the working state.
func (repl *REPL) CommandDiff(args []string) error {
	from, to := "HEAD", ""
	switch len(args) {
	case 0:
	case 1:
		from = args[0]
	default:
		from, to = args[0], args[1]
	}
	if to != "" {
		return printDiff(repl.out, repl.store, from, to)
	}
	id, err := repl.store.Resolve(from)
	if err != nil {
		return err
	}
	rev, err := repl.store.Load(id)
	if err != nil {
		return err
	}
	writeDiffs(repl.out, history.DiffStates(rev.Items, repl.doc.Snapshot()))
	return nil
}

func (repl *REPL) CommandCheckout(args []string) error {
	if len(args) != 1 {
		return HelpCheckout
	}
	id, err := repl.store.Resolve(args[0])
	if err != nil {
		return err
	}
	if err := repl.store.Checkout(id, repl.doc); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(repl.out, "at %s, %d items\n", id.Short(), repl.doc.Len())
	return nil
}

func (repl *REPL) CommandMerge(args []string) error {
	if len(args) != 1 {
		return HelpMerge
	}
	id, err := repl.store.Resolve(args[0])
	if err != nil {
		return err
	}
	rev, err := repl.store.MergeInto(repl.doc, id, "merge "+id.Short())
	if err == nil {
		_, _ = fmt.Fprintln(repl.out, rev.String())
	}
	return err
}

func (repl *REPL) CommandMetrics(args []string) error {
	families, err := repl.reg.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			_, _ = fmt.Fprintf(repl.out, "%s%s %g\n", mf.GetName(), labels(m), value(m))
		}
	}
	return nil
}

func labels(m *dto.Metric) string {
	if len(m.GetLabel()) == 0 {
		return ""
	}
	pairs := make([]string, 0, len(m.GetLabel()))
	for _, l := range m.GetLabel() {
		pairs = append(pairs, fmt.Sprintf("%s=%q", l.GetName(), l.GetValue()))
	}
	return "{" + strings.Join(pairs, ",") + "}"
}

func value(m *dto.Metric) float64 {
	switch {
	case m.Counter != nil:
		return m.GetCounter().GetValue()
	case m.Gauge != nil:
		return m.GetGauge().GetValue()
	}
	return m.GetUntyped().GetValue()
}

func printLog(w io.Writer, store *history.Store, limit int) error {
	revs, err := store.Log(limit)
	for _, rev := range revs {
		_, _ = fmt.Fprintln(w, rev.String())
	}
	return err
}

func printRevision(w io.Writer, store *history.Store, ref string) error {
	id, err := store.Resolve(ref)
	if err != nil {
		return err
	}
	rev, err := store.Load(id)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintln(w, rev.String())
	writeState(w, rev.Items)
	return nil
}

func writeState(w io.Writer, state document.State) {
	ids := maps.Keys(state)
	slices.Sort(ids)
	for _, id := range ids {
		snap := state[id]
		_, _ = fmt.Fprintf(w, "%s %s\n", shortID(id), snap.ItemKind())
		for i := 0; i < snap.NumDeltas(); i++ {
			_, _ = fmt.Fprintf(w, "\t%s\n", snap.Delta(i))
		}
	}
}

func printDiff(w io.Writer, store *history.Store, from, to string) error {
	a, err := store.Resolve(from)
	if err != nil {
		return err
	}
	b, err := store.Resolve(to)
	if err != nil {
		return err
	}
	diffs, err := store.Diff(a, b)
	if err != nil {
		return err
	}
	writeDiffs(w, diffs)
	return nil
}

func writeDiffs(w io.Writer, diffs []history.ItemDiff) {
	if len(diffs) == 0 {
		_, _ = fmt.Fprintln(w, "no changes")
	}
	for _, d := range diffs {
		_, _ = fmt.Fprintln(w, d.String())
	}
}
