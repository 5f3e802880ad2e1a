package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/drpcorg/vcs"
	"github.com/drpcorg/vcs/document"
	"github.com/drpcorg/vcs/history"
	"github.com/drpcorg/vcs/tracks"
	"github.com/ergochat/readline"
	"github.com/prometheus/client_golang/prometheus"
)

// REPL per se.
type REPL struct {
	doc   *document.Document
	store *history.Store
	rl    *readline.Instance
	out   io.Writer
	reg   *prometheus.Registry
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("help"),

	readline.PcItem("ls"),
	readline.PcItem("track",
		readline.PcItem("piano"),
		readline.PcItem("auto"),
	),
	readline.PcItem("drop"),
	readline.PcItem("note"),
	readline.PcItem("event"),
	readline.PcItem("clip"),
	readline.PcItem("rm"),
	readline.PcItem("path"),
	readline.PcItem("mute"),
	readline.PcItem("colour"),
	readline.PcItem("instrument"),
	readline.PcItem("info",
		readline.PcItem("path"),
		readline.PcItem("name"),
		readline.PcItem("author"),
		readline.PcItem("desc"),
	),

	readline.PcItem("commit"),
	readline.PcItem("log"),
	readline.PcItem("show"),
	readline.PcItem("diff"),
	readline.PcItem("checkout"),
	readline.PcItem("merge"),

	readline.PcItem("metrics"),
	readline.PcItem("dump"),

	readline.PcItem("exit"),
	readline.PcItem("quit"),
)

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func NewREPL(doc *document.Document, store *history.Store, out io.Writer) *REPL {
	reg := prometheus.NewRegistry()
	reg.MustRegister(vcs.Collectors()...)
	reg.MustRegister(store.Collector())
	repl := &REPL{doc: doc, store: store, out: out, reg: reg}
	doc.AddListener(&printer{out: out})
	return repl
}

// Load checks the head revision out, or starts a fresh project.
func (repl *REPL) Load() error {
	head, err := repl.store.Head()
	if err != nil {
		return err
	}
	if head == "" {
		return repl.doc.Add(tracks.NewProjectInfo("", "untitled"))
	}
	return repl.store.Checkout(head, repl.doc)
}

func (repl *REPL) Open() (err error) {
	repl.rl, err = readline.NewEx(&readline.Config{
		Prompt:          "♪ ",
		HistoryFile:     ".vcs_cmd_log.txt",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return
	}
	repl.rl.CaptureExitSignal()
	return
}

func (repl *REPL) Close() error {
	if repl.rl != nil {
		_ = repl.rl.Close()
		repl.rl = nil
	}
	return repl.store.Close()
}

func (repl *REPL) Run() error {
	for {
		line, err := repl.rl.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				return nil
			}
			continue
		} else if err == io.EOF {
			return nil
		} else if err != nil {
			return err
		}
		err = repl.Execute(line)
		if err == io.EOF {
			return nil
		} else if err != nil {
			_, _ = fmt.Fprintln(repl.out, err.Error())
		}
	}
}

// Execute runs one command line; io.EOF means the user is done.
func (repl *REPL) Execute(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "help":
		return repl.CommandHelp(args)
	case "exit", "quit":
		return io.EOF
	// ----- project editing -----
	case "ls", "list":
		return repl.CommandList(args)
	case "track":
		return repl.CommandTrack(args)
	case "drop":
		return repl.CommandDrop(args)
	case "note":
		return repl.CommandNote(args)
	case "event":
		return repl.CommandEvent(args)
	case "clip":
		return repl.CommandClip(args)
	case "rm":
		return repl.CommandRemove(args)
	case "path", "mute", "colour", "instrument":
		return repl.CommandProperty(cmd, args)
	case "info":
		return repl.CommandInfo(args)
	// ----- history -----
	case "commit":
		return repl.CommandCommit(args)
	case "log":
		return printLog(repl.out, repl.store, 0)
	case "show":
		return repl.CommandShow(args)
	case "diff":
		return repl.CommandDiff(args)
	case "checkout":
		return repl.CommandCheckout(args)
	case "merge":
		return repl.CommandMerge(args)
	// ----- debug -----
	case "metrics":
		return repl.CommandMetrics(args)
	case "dump":
		return repl.store.Dump(repl.out)
	}
	return fmt.Errorf("command unknown: %s", cmd)
}

var ErrNoSuchItem = errors.New("no such item")

// find takes an item id, its suffix or a track path.
func (repl *REPL) find(ref string) (tracks.Item, error) {
	var found []tracks.Item
	for _, item := range repl.doc.Items() {
		if item.ID() == tracks.ItemID(ref) {
			return item, nil
		}
		named, ok := item.(interface{ Path() string })
		if strings.HasSuffix(string(item.ID()), ref) || (ok && named.Path() == ref) {
			found = append(found, item)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNoSuchItem, ref)
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("ambiguous item reference %s", ref)
}

func (repl *REPL) projectInfo() (*tracks.ProjectInfo, error) {
	for _, item := range repl.doc.Items() {
		if info, ok := item.(*tracks.ProjectInfo); ok {
			return info, nil
		}
	}
	return nil, fmt.Errorf("%w: project info", ErrNoSuchItem)
}

func shortID(id tracks.ItemID) string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[len(id)-8:])
}

// printer echoes document notifications, the way a view would react.
type printer struct {
	out io.Writer
}

func (p *printer) say(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, "\t"+format+"\n", args...)
}

func (p *printer) OnChangeTrackProperties(track tracks.ItemID) {
	p.say("%s properties changed", shortID(track))
}

func (p *printer) OnAddEvent(track tracks.ItemID, ev tracks.Event) {
	p.say("%s +event %s @%g", shortID(track), ev.Identity(), ev.Position())
}

func (p *printer) OnChangeEvent(track tracks.ItemID, old, nu tracks.Event) {
	p.say("%s ~event %s @%g -> @%g", shortID(track), nu.Identity(), old.Position(), nu.Position())
}

func (p *printer) OnRemoveEvent(track tracks.ItemID, ev tracks.Event) {
	p.say("%s -event %s", shortID(track), ev.Identity())
}

func (p *printer) OnAddClip(track tracks.ItemID, clip tracks.Clip) {
	p.say("%s +clip %s @%g", shortID(track), clip.ID, clip.Beat)
}

func (p *printer) OnChangeClip(track tracks.ItemID, old, nu tracks.Clip) {
	p.say("%s ~clip %s @%g -> @%g", shortID(track), nu.ID, old.Beat, nu.Beat)
}

func (p *printer) OnRemoveClip(track tracks.ItemID, clip tracks.Clip) {
	p.say("%s -clip %s", shortID(track), clip.ID)
}

func (p *printer) OnChangeProjectInfo(info tracks.ItemID) {
	p.say("project info changed")
}

func (p *printer) OnReloadProjectContent() {
	p.say("project reloaded")
}
