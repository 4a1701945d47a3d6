// Package tui implements the interactive settings editor.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexisbeaulieu97/designctl/internal/infrastructure/logging"
	"github.com/alexisbeaulieu97/designctl/internal/livesync"
	"github.com/alexisbeaulieu97/designctl/internal/ports"
	"github.com/alexisbeaulieu97/designctl/internal/slots"
	"github.com/alexisbeaulieu97/designctl/internal/tui/modal"
	"github.com/alexisbeaulieu97/designctl/internal/tui/widget"
)

// Controller is the part of livesync.Controller the editor drives.
type Controller interface {
	Values() map[string]string
	Registry() *slots.Registry
	State() livesync.State
	SetValue(key, value string) error
	Reinitialize(ctx context.Context) error
	Subscribe(fn func(livesync.Change)) ports.Subscription
}

// Previewer renders the target the controller writes to.
type Previewer interface {
	Render() string
}

// Options configures NewModel. Nil fields get defaults.
type Options struct {
	Title   string
	Widgets *widget.Registry
	Modals  *modal.Coordinator
	Logs    *logging.EventBuffer
	Preview Previewer

	// Reload re-runs hydration on "r". Defaults to Controller.Reinitialize.
	Reload func(context.Context) error
}

// ChangeMsg carries a value store change into the program.
type ChangeMsg struct {
	Change livesync.Change
}

// Model is the Bubbletea state of the editor.
type Model struct {
	ctx     context.Context
	ctrl    Controller
	feed    *changeFeed
	title   string
	widgets *widget.Registry
	modals  *modal.Coordinator
	logs    *logging.EventBuffer
	preview Previewer
	reload  func(context.Context) error

	keys   []string
	values map[string]string
	state  livesync.State
	cursor int

	editing string
	input   textinput.Model
	spinner spinner.Model

	status   string
	errMsg   string
	quitting bool
}

// NewModel subscribes to ctrl and returns the editor model. Call Close when
// the program exits.
func NewModel(ctx context.Context, ctrl Controller, opts Options) Model {
	if opts.Widgets == nil {
		opts.Widgets = widget.NewRegistry()
	}
	if opts.Modals == nil {
		opts.Modals = modal.NewCoordinator()
	}
	if opts.Title == "" {
		opts.Title = "Settings"
	}
	if opts.Reload == nil {
		opts.Reload = ctrl.Reinitialize
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	feed := newChangeFeed()
	feed.sub = ctrl.Subscribe(feed.push)

	return Model{
		ctx:     ctx,
		ctrl:    ctrl,
		feed:    feed,
		title:   opts.Title,
		widgets: opts.Widgets,
		modals:  opts.Modals,
		logs:    opts.Logs,
		preview: opts.Preview,
		reload:  opts.Reload,
		keys:    ctrl.Registry().Keys(),
		values:  ctrl.Values(),
		state:   ctrl.State(),
		input:   textinput.New(),
		spinner: s,
	}
}

// Init starts the spinner and the change feed.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.feed.next())
}

// Close stops receiving controller changes.
func (m Model) Close() {
	m.feed.close()
}

// Editing returns the key of the slot being edited.
func (m Model) Editing() (string, bool) {
	return m.editing, m.editing != ""
}

// Selected returns the key under the cursor.
func (m Model) Selected() (string, bool) {
	if m.cursor < 0 || m.cursor >= len(m.keys) {
		return "", false
	}
	return m.keys[m.cursor], true
}

// Quitting reports whether the user asked to leave.
func (m Model) Quitting() bool {
	return m.quitting
}

// changeFeed hands controller changes to the program. Only the latest change
// is kept: each one carries a full snapshot of the value store.
type changeFeed struct {
	ch   chan livesync.Change
	done chan struct{}
	sub  ports.Subscription
}

func newChangeFeed() *changeFeed {
	return &changeFeed{
		ch:   make(chan livesync.Change, 1),
		done: make(chan struct{}),
	}
}

func (f *changeFeed) push(c livesync.Change) {
	for {
		select {
		case f.ch <- c:
			return
		case <-f.done:
			return
		default:
		}
		select {
		case <-f.ch:
		default:
		}
	}
}

func (f *changeFeed) next() tea.Cmd {
	return func() tea.Msg {
		select {
		case c := <-f.ch:
			return ChangeMsg{Change: c}
		case <-f.done:
			return nil
		}
	}
}

func (f *changeFeed) close() {
	select {
	case <-f.done:
		return
	default:
	}
	close(f.done)
	if f.sub != nil {
		f.sub.Unsubscribe()
	}
}
