// Package tui renders a todolist.Board with Bubble Tea.
//
// The program loads the board once on start. Adding waits for the collection
// to assign an id in a background command; toggling and deleting change the
// board immediately and only watch the remote write to report failures.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	xansi "github.com/charmbracelet/x/ansi"

	"github.com/Makepad-fr/tadasync/internal/logging"
	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store"
	"github.com/Makepad-fr/tadasync/internal/todolist"
)

const (
	emptyState  = "No todos yet. Press a to add one."
	loadingText = "Loading todos…"
	retryText   = "Could not load todos. Press r to retry."
)

// listItem adapts model.Todo to bubbles/list.Item
type listItem struct {
	model.Todo
}

func (i listItem) TitleText() string {
	box := boxUnchecked
	if i.Completed {
		box = boxChecked
	}
	return fmt.Sprintf("%s %s", box, i.Text)
}

// Implement list.Item interface
func (i listItem) Title() string       { return i.TitleText() }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.Text }

// Custom delegate to control how items render (single line)
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}
	boxStyled := mutedStyle.Render(boxUnchecked)
	textStyled := it.Text
	if it.Completed {
		boxStyled = successStyle.Render(boxChecked)
		textStyled = doneStyle.Render(it.Text)
	}

	line := fmt.Sprintf("%s %s", boxStyled, textStyled)
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	out := prefix + line
	if width := m.Width(); width > 0 {
		out = xansi.Truncate(out, width, "…")
	}
	fmt.Fprint(w, out)
}

// Messages produced by background commands.
type (
	loadedMsg struct {
		docs []store.Document
		err  error
	}
	createdMsg struct {
		todo model.Todo
		err  error
	}
	writeDoneMsg struct {
		op, id string
		err    error
	}
)

var keys = struct {
	add, toggle, del key.Binding
}{
	add:    key.NewBinding(key.WithKeys("a", "i"), key.WithHelp("a", "add")),
	toggle: key.NewBinding(key.WithKeys(" ", "x"), key.WithHelp("space", "toggle")),
	del:    key.NewBinding(key.WithKeys("d", "delete"), key.WithHelp("d", "delete")),
}

// Model is the Bubble Tea model over one board.
type Model struct {
	ctx    context.Context
	board  *todolist.Board
	logger *log.Logger

	list list.Model
	ti   textinput.Model

	adding   bool // true when the input has focus
	creating int  // creates waiting for an id
	addErr   string
	errMsg   string

	width, height int
}

// Option configures a Model.
type Option func(*Model)

// WithLogger sets the logger used for UI events.
func WithLogger(l *log.Logger) Option { return func(m *Model) { m.logger = l } }

// WithContext bounds the program's remote calls.
func WithContext(ctx context.Context) Option { return func(m *Model) { m.ctx = ctx } }

// New builds the model. The board is loaded by the program's first command.
func New(board *todolist.Board, opts ...Option) Model {
	l := list.New(nil, itemDelegate{}, 0, 0)
	l.Title = "Todos"
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	extra := func() []key.Binding { return []key.Binding{keys.add, keys.toggle, keys.del} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Add new todo"
	ti.CharLimit = 500

	m := Model{
		ctx:    context.Background(),
		board:  board,
		logger: logging.Discard(),
		list:   l,
		ti:     ti,
		width:  80,
		height: 24,
	}
	for _, o := range opts {
		o(&m)
	}
	m.ti.SetValue(board.Input())
	m.resize()
	if board.Loaded() {
		m.syncList()
	}
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, board *todolist.Board, opts ...Option) error {
	opts = append(opts, WithContext(ctx))
	p := tea.NewProgram(New(board, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Update and View implement Bubble Tea's Model on Model
func (m Model) Init() tea.Cmd {
	if m.board.Loaded() {
		return nil
	}
	return m.loadCmd()
}

func (m Model) loadCmd() tea.Cmd {
	ctx, board := m.ctx, m.board
	return func() tea.Msg {
		docs, err := board.Fetch(ctx)
		return loadedMsg{docs: docs, err: err}
	}
}

func (m Model) createCmd(text string) tea.Cmd {
	ctx, board := m.ctx, m.board
	return func() tea.Msg {
		todo, err := board.Create(ctx, text)
		return createdMsg{todo: todo, err: err}
	}
}

func watch(w *todolist.Write) tea.Cmd {
	return func() tea.Msg {
		<-w.Done()
		return writeDoneMsg{op: w.Op(), id: w.ID(), err: w.Err()}
	}
}

func (m *Model) syncList() tea.Cmd {
	items := m.board.Items()
	li := make([]list.Item, 0, len(items))
	for _, it := range items {
		li = append(li, listItem{it})
	}
	idx := m.list.Index()
	cmd := m.list.SetItems(li)
	if idx >= len(li) {
		idx = len(li) - 1
	}
	if idx >= 0 {
		m.list.Select(idx)
	}
	m.list.Title = m.title()
	return cmd
}

func (m Model) title() string {
	dn, pn := m.board.Stats()
	return fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), dn,
		pendingStyle.Render("•"), pn,
		accentStyle.Render("Total"), m.board.Len(),
	)
}

func (m *Model) resize() {
	// Border + padding take 4 columns; input bar, error line and border take 6 rows.
	m.list.SetSize(max(m.width-4, 10), max(m.height-7, 3))
	m.ti.Width = max(m.width-10, 10)
}

func (m Model) selected() (model.Todo, bool) {
	it, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return model.Todo{}, false
	}
	return it.Todo, true
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		if m.board.Loaded() {
			// Load runs once; a late duplicate fetch is dropped.
			return m, nil
		}
		m.board.Replace(msg.docs)
		m.logger.Info("loaded todos", "count", len(msg.docs))
		m.errMsg = ""
		return m, m.syncList()

	case createdMsg:
		m.creating--
		if msg.err != nil {
			m.errMsg = msg.err.Error()
			return m, nil
		}
		m.board.SetInput(m.ti.Value())
		m.board.Append(msg.todo)
		m.ti.SetValue(m.board.Input())
		m.errMsg = ""
		cmd := m.syncList()
		// Under a filter the new row may not be visible; keep the cursor.
		if m.list.FilterState() == list.Unfiltered {
			m.list.Select(len(m.list.Items()) - 1)
		}
		return m, cmd

	case writeDoneMsg:
		if msg.err != nil {
			m.errMsg = fmt.Sprintf("%s %s failed: %v", msg.op, msg.id, msg.err)
		}
		return m, nil
	}

	// add mode
	if m.adding {
		var cmd, lcmd tea.Cmd
		x, isKey := msg.(tea.KeyMsg)
		if isKey {
			switch x.String() {
			case "enter":
				text := m.ti.Value()
				if strings.TrimSpace(text) == "" {
					m.addErr = "Todo cannot be empty"
					return m, nil
				}
				m.addErr = ""
				m.creating++
				return m, m.createCmd(text)
			case "esc":
				m.adding = false
				m.addErr = ""
				m.ti.Blur()
				return m, nil
			}
		}
		// Filter results and other list messages still belong to the list.
		if !isKey {
			m.list, lcmd = m.list.Update(msg)
		}
		m.ti, cmd = m.ti.Update(msg)
		m.board.SetInput(m.ti.Value())
		return m, tea.Batch(cmd, lcmd)
	}

	if k, ok := msg.(tea.KeyMsg); ok && !m.list.SettingFilter() {
		switch {
		case k.String() == "ctrl+c":
			return m, tea.Quit
		case k.String() == "q":
			return m, tea.Quit
		case k.String() == "r" && !m.board.Loaded():
			m.errMsg = ""
			return m, m.loadCmd()
		case !m.board.Loaded():
			// Nothing to act on until the first load lands.
			return m, nil
		case key.Matches(k, keys.add), k.String() == "enter":
			m.adding = true
			m.addErr = ""
			return m, m.ti.Focus()
		case key.Matches(k, keys.toggle):
			it, ok := m.selected()
			if !ok {
				return m, nil
			}
			w := m.board.Toggle(it.ID)
			return m, tea.Batch(m.syncList(), watch(w))
		case key.Matches(k, keys.del):
			it, ok := m.selected()
			if !ok {
				return m, nil
			}
			w := m.board.Delete(it.ID)
			return m, tea.Batch(m.syncList(), watch(w))
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var body string
	switch {
	case !m.board.Loaded() && m.errMsg != "":
		body = titleStyle.Render("Todos") + "\n" + emptyStyle.Render(retryText)
	case !m.board.Loaded():
		body = titleStyle.Render("Todos") + "\n" + emptyStyle.Render(loadingText)
	case m.board.Len() == 0:
		body = m.title() + "\n" + emptyStyle.Render(emptyState)
	default:
		body = m.list.View()
	}

	title := "Add new todo"
	if m.creating > 0 {
		title += mutedStyle.Render("  saving…")
	}
	if m.addErr != "" {
		title += " — " + errorStyle.Render(m.addErr)
	}
	bar := panelStyle.Render(title + "\n" + m.ti.View())

	content := body + "\n" + bar
	if m.errMsg != "" {
		content += "\n" + errorStyle.Render("✖ "+m.errMsg)
	}
	return panelStyle.Render(content)
}
