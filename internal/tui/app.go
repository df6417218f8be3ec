// Package tui is the interactive Bubble Tea front end. It renders the state
// store and hands every user intent to the sync controller inside a tea.Cmd,
// so the event loop never blocks on the network.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/state"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeEdit
)

// storeChangedMsg is sent whenever the store changes, including when the
// error banner expires on its own.
type storeChangedMsg struct{}

// loadedMsg, createdMsg, renamedMsg and intentDoneMsg report a settled
// controller call. The store already reflects the outcome.
type (
	loadedMsg  struct{ err error }
	createdMsg struct{ err error }
	renamedMsg struct {
		id  int
		err error
	}
	intentDoneMsg struct{ err error }
)

// Model is the Bubble Tea model for the todo list.
type Model struct {
	ctx     context.Context
	ctrl    *controller.Controller
	store   *state.Store
	warning error
	logger  *log.Logger

	snap     state.Snapshot
	loading  bool
	creating bool

	mode   mode
	editID int
	input  textinput.Model // new item
	edit   textinput.Model // inline rename

	list     list.Model
	spin     spinner.Model
	spinning bool
	help     help.Model
	keys     keyMap

	width, height int
}

// New builds the model. When warning is non-nil (no owner configured) the
// model only renders the warning and ctrl may be nil.
func New(ctx context.Context, ctrl *controller.Controller, warning error, logger *log.Logger) *Model {
	if logger == nil {
		logger = logging.Discard()
	}
	m := &Model{
		ctx:     ctx,
		ctrl:    ctrl,
		warning: warning,
		logger:  logger,
		keys:    defaultKeys(),
		help:    help.New(),
		spin:    spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(pendingStyle)),
		width:   80,
		height:  24,
	}
	if ctrl != nil {
		m.store = ctrl.Store()
	}

	m.input = textinput.New()
	m.input.Prompt = "> "
	m.input.Placeholder = "What needs to be done?"
	m.input.CharLimit = 200

	m.edit = textinput.New()
	m.edit.Prompt = "✎ "
	m.edit.Placeholder = "Empty todo will be deleted"
	m.edit.CharLimit = 200

	l := list.New(nil, itemDelegate{}, 0, 0)
	l.SetShowTitle(false)
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowPagination(true)
	l.DisableQuitKeybindings()
	l.Styles.PaginationStyle = helpStyle
	m.list = l
	m.resize()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, ctrl *controller.Controller, warning error, logger *log.Logger) error {
	m := New(ctx, ctrl, warning, logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if m.store != nil {
		// Send blocks until the loop receives; changes made inside Update
		// would deadlock without the goroutine.
		m.store.Subscribe(func() { go p.Send(storeChangedMsg{}) })
	}
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	if m.warning != nil || m.ctrl == nil {
		return nil
	}
	m.loading = true
	m.spinning = true
	return tea.Batch(m.load(), m.spin.Tick)
}

// ---------------------------------------------------
// controller commands
// ---------------------------------------------------

func (m *Model) load() tea.Cmd {
	return func() tea.Msg { return loadedMsg{err: m.ctrl.Load(m.ctx)} }
}

func (m *Model) create(title string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.ctrl.Create(m.ctx, title)
		return createdMsg{err: err}
	}
}

func (m *Model) rename(id int, title string) tea.Cmd {
	return func() tea.Msg {
		_, err := m.ctrl.Rename(m.ctx, id, title)
		return renamedMsg{id: id, err: err}
	}
}

func (m *Model) intent(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg { return intentDoneMsg{err: fn(m.ctx)} }
}

// ---------------------------------------------------
// update
// ---------------------------------------------------

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case storeChangedMsg:
		return m, m.refresh()

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		m.refreshDelegate()
		return m, cmd

	case loadedMsg:
		m.loading = false
		m.logIntent("load", msg.err)
		return m, m.refresh()

	case createdMsg:
		m.creating = false
		m.logIntent("create", msg.err)
		if msg.err == nil {
			m.input.SetValue("")
		}
		var cmd tea.Cmd
		if m.mode == modeAdd {
			cmd = m.input.Focus()
		}
		return m, tea.Batch(m.refresh(), cmd)

	case renamedMsg:
		m.logIntent("rename", msg.err)
		// a failed rename keeps the field open so the user can retry or cancel
		if msg.err == nil && m.mode == modeEdit && m.editID == msg.id {
			m.leaveEdit()
		}
		return m, m.refresh()

	case intentDoneMsg:
		m.logIntent("intent", msg.err)
		return m, m.refresh()

	case tea.KeyMsg:
		if m.warning != nil {
			if key.Matches(msg, m.keys.Quit) || msg.String() == "esc" {
				return m, tea.Quit
			}
			return m, nil
		}
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeEdit:
			return m.updateEdit(msg)
		}
		return m.updateBrowse(msg)
	}

	var cmd tea.Cmd
	switch m.mode {
	case modeAdd:
		m.input, cmd = m.input.Update(msg)
	case modeEdit:
		m.edit, cmd = m.edit.Update(msg)
	}
	return m, cmd
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Dismiss):
		if m.snap.Error != "" {
			m.store.DismissError()
		}
		return m, m.refresh()

	case key.Matches(msg, m.keys.Add):
		m.mode = modeAdd
		return m, m.input.Focus()

	case key.Matches(msg, m.keys.Filter):
		m.store.SetFilter(m.snap.Filter.Next())
		return m, m.refresh()

	case msg.String() == "1", msg.String() == "2", msg.String() == "3":
		m.store.SetFilter(model.Filters[int(msg.Runes[0]-'1')])
		return m, m.refresh()

	case key.Matches(msg, m.keys.ToggleAll):
		if len(m.snap.Items) == 0 {
			return m, nil
		}
		return m, m.intent(m.ctrl.ToggleAll)

	case key.Matches(msg, m.keys.ClearCompleted):
		if m.snap.CompletedCount() == 0 {
			return m, nil
		}
		return m, m.intent(m.ctrl.ClearCompleted)

	case key.Matches(msg, m.keys.Toggle):
		if it, ok := m.selected(); ok {
			return m, m.intent(func(ctx context.Context) error {
				_, err := m.ctrl.Toggle(ctx, it.ID)
				return err
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.selected(); ok {
			return m, m.intent(func(ctx context.Context) error {
				return m.ctrl.Delete(ctx, it.ID)
			})
		}
		return m, nil

	case key.Matches(msg, m.keys.Edit):
		if it, ok := m.selected(); ok {
			m.mode = modeEdit
			m.editID = it.ID
			m.edit.SetValue(it.Title)
			m.edit.CursorEnd()
			return m, m.edit.Focus()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.creating {
			return m, nil
		}
		m.creating = true
		m.input.Blur()
		return m, m.create(m.input.Value())
	case "esc":
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	if m.creating {
		// input is disabled while a create is in flight
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if m.snap.InFlight[m.editID] {
			return m, nil
		}
		return m, m.rename(m.editID, m.edit.Value())
	case "esc":
		m.leaveEdit()
		return m, nil
	case "ctrl+c":
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.edit, cmd = m.edit.Update(msg)
	return m, cmd
}

func (m *Model) leaveEdit() {
	m.mode = modeBrowse
	m.editID = 0
	m.edit.SetValue("")
	m.edit.Blur()
}

func (m *Model) logIntent(name string, err error) {
	switch {
	case err == nil:
		m.logger.Debug("settled", "intent", name)
	case controller.UserMessage(err) != "":
		m.logger.Info("settled with error", "intent", name, "err", err)
	default:
		m.logger.Debug("ignored", "intent", name, "err", err)
	}
}

// selected returns the highlighted item, skipping the create placeholder.
func (m *Model) selected() (model.Item, bool) {
	li, ok := m.list.SelectedItem().(listItem)
	if !ok || li.Temporary() {
		return model.Item{}, false
	}
	return li.Item, true
}

func (m *Model) busy() bool {
	return m.loading || m.snap.Pending != nil || len(m.snap.InFlight) > 0
}

// refresh re-reads the store into the list and starts the spinner when
// something is outstanding.
func (m *Model) refresh() tea.Cmd {
	if m.store == nil {
		return nil
	}
	m.snap = m.store.Snapshot()

	visible := m.snap.Visible()
	items := make([]list.Item, 0, len(visible)+1)
	for _, it := range visible {
		items = append(items, listItem{it})
	}
	if m.snap.Pending != nil {
		items = append(items, listItem{*m.snap.Pending})
	}
	cmd := m.list.SetItems(items)
	m.refreshDelegate()

	if m.busy() && !m.spinning {
		m.spinning = true
		return tea.Batch(cmd, m.spin.Tick)
	}
	return cmd
}

func (m *Model) refreshDelegate() {
	m.list.SetDelegate(itemDelegate{inFlight: m.snap.InFlight, spin: m.spin.View()})
}

func (m *Model) resize() {
	// header, input box, footer, banner, help
	listHeight := m.height - 12
	if listHeight < 3 {
		listHeight = 3
	}
	m.list.SetSize(m.width-4, listHeight)
	m.input.Width = m.width - 10
	m.edit.Width = m.width - 10
	m.help.Width = m.width - 4
}

// ---------------------------------------------------
// view
// ---------------------------------------------------

func (m *Model) View() string {
	if m.warning != nil {
		return m.warningView()
	}

	var sections []string
	sections = append(sections, m.headerView())
	sections = append(sections, m.inputView())
	switch {
	case m.loading && len(m.snap.Items) == 0:
		sections = append(sections, m.spin.View()+" "+mutedStyle.Render("loading todos…"))
	case len(m.snap.Items) > 0 || m.snap.Pending != nil:
		sections = append(sections, m.list.View())
	}
	if len(m.snap.Items) > 0 {
		sections = append(sections, m.footerView())
	}
	if m.snap.Error != "" {
		sections = append(sections, bannerStyle.Render(
			errorStyle.Render("✖ "+m.snap.Error)+"  "+mutedStyle.Render("esc to dismiss")))
	}
	sections = append(sections, helpStyle.Render(m.help.View(m.keys)))
	return panelString(strings.Join(sections, "\n"))
}

func (m *Model) headerView() string {
	toggle := mutedStyle.Render("❯")
	if m.snap.AllCompleted() {
		toggle = successStyle.Render("❯")
	}
	if len(m.snap.Items) == 0 {
		toggle = " "
	}
	return fmt.Sprintf("%s %s", toggle, titleStyle.Render("todos"))
}

func (m *Model) inputView() string {
	if m.mode == modeEdit {
		return inputStyle.Render("Edit item\n" + m.edit.View())
	}
	if m.creating {
		return inputStyle.Render(m.spin.View() + " " + mutedStyle.Render("adding "+m.input.Value()+"…"))
	}
	if m.mode == modeAdd {
		return inputStyle.Render(m.input.View())
	}
	return inputStyle.Render(mutedStyle.Render("press a to add a todo"))
}

func (m *Model) footerView() string {
	left := fmt.Sprintf("%d items left", m.snap.ActiveCount())

	filters := make([]string, 0, len(model.Filters))
	for _, f := range model.Filters {
		label := f.Label()
		if f == m.snap.Filter {
			filters = append(filters, accentStyle.Underline(true).Render(label))
		} else {
			filters = append(filters, mutedStyle.Render(label))
		}
	}

	clearLabel := mutedStyle.Render("Clear completed")
	if m.snap.CompletedCount() > 0 {
		clearLabel = accentStyle.Render("Clear completed")
	}
	return lipgloss.JoinHorizontal(lipgloss.Top,
		left, "   ", strings.Join(filters, " "), "   ", clearLabel)
}

func (m *Model) warningView() string {
	body := titleStyle.Render("No owner configured") + "\n\n" +
		"Set owner_id in ~/.tada/config.toml, export TADA_OWNER_ID\n" +
		"or pass --owner to load your todos.\n\n" +
		mutedStyle.Render(m.warning.Error()) + "\n\n" +
		helpStyle.Render("q to quit")
	return warningStyle.Render(body)
}
