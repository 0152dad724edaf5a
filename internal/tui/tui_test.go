package tui

import (
	"context"
	"errors"
	"testing"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store/memstore"
	"github.com/Makepad-fr/tadasync/internal/todolist"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and every command it batches, returning the messages our
// model cares about. Cursor blinks and the like are dropped.
func drain(t *testing.T, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(2 * time.Second):
		// Blink ticks and similar never-ending commands are not ours.
		return nil
	}
	switch msg := msg.(type) {
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, drain(t, c)...)
		}
		return out
	case loadedMsg, createdMsg, writeDoneMsg, list.FilterMatchesMsg:
		return []tea.Msg{msg}
	}
	return nil
}

func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	out := next.(Model)
	for _, follow := range drain(t, cmd) {
		out = send(t, out, follow)
	}
	return out
}

func started(t *testing.T, coll *memstore.Store) (Model, *todolist.Board) {
	t.Helper()
	board := todolist.New(coll)
	m := New(board)
	for _, msg := range drain(t, m.Init()) {
		m = send(t, m, msg)
	}
	return m, board
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	m = send(t, m, keyMsg("a"))
	require.True(t, m.adding)
	return send(t, m, keyMsg(text))
}

func TestEmptyCollectionShowsEmptyState(t *testing.T) {
	m, board := started(t, memstore.New())
	assert.True(t, board.Loaded())
	assert.Contains(t, m.View(), emptyState)
}

func TestLoadRendersItems(t *testing.T) {
	m, board := started(t, memstore.New(
		model.Fields{Text: "Buy milk"},
		model.Fields{Text: "Walk dog", Completed: true},
	))
	assert.Equal(t, 2, board.Len())
	view := m.View()
	assert.Contains(t, view, "Buy milk")
	assert.Contains(t, view, "Walk dog")
	assert.NotContains(t, view, emptyState)
}

func TestAddToggleDeleteScenario(t *testing.T) {
	coll := memstore.New()
	m, board := started(t, coll)

	m = typeText(t, m, "Buy milk")
	assert.Equal(t, "Buy milk", board.Input())
	m = send(t, m, keyMsg("enter"))

	assert.Equal(t, []model.Todo{{ID: "generated-1", Text: "Buy milk"}}, board.Items())
	assert.Equal(t, "", m.ti.Value(), "input cleared after the id arrives")
	assert.Equal(t, "", board.Input())
	assert.Equal(t, 0, m.creating)

	m = send(t, m, keyMsg("esc"))
	require.False(t, m.adding)

	m = send(t, m, keyMsg(" "))
	todo, ok := board.Find("generated-1")
	require.True(t, ok)
	assert.True(t, todo.Completed)
	assert.Equal(t, 1, board.Len())
	f, _ := coll.Get("generated-1")
	assert.True(t, f.Completed, "remote write landed")

	m = send(t, m, keyMsg("d"))
	assert.Equal(t, 0, board.Len())
	assert.Equal(t, 0, coll.Len())
	assert.Contains(t, m.View(), emptyState)
}

func TestAddWhileFilteredKeepsMatches(t *testing.T) {
	var seed []model.Fields
	for i := 1; i <= 30; i++ {
		seed = append(seed, model.Fields{Text: fmt.Sprintf("item %d", i)})
	}
	seed = append(seed, model.Fields{Text: "zebra"})
	m, board := started(t, memstore.New(seed...))

	m.list.SetFilterText("zebra")
	require.Len(t, m.list.VisibleItems(), 1)

	m = typeText(t, m, "buy milk")
	m = send(t, m, keyMsg("enter"))
	require.Equal(t, 32, board.Len())
	m = send(t, m, keyMsg("esc"))

	assert.Equal(t, list.FilterApplied, m.list.FilterState())
	assert.Len(t, m.list.VisibleItems(), 1)
	assert.Equal(t, 0, m.list.Paginator.Page)
	view := m.View()
	assert.Contains(t, view, "zebra")
	assert.NotContains(t, view, "No todos")
}

func TestAddSelectsNewRowWhenUnfiltered(t *testing.T) {
	m, _ := started(t, memstore.New(model.Fields{Text: "a"}, model.Fields{Text: "b"}))
	m = typeText(t, m, "c")
	m = send(t, m, keyMsg("enter"))
	assert.Equal(t, 2, m.list.Index())
}

func TestBlankInputIsRejected(t *testing.T) {
	coll := memstore.New()
	m, board := started(t, coll)

	m = typeText(t, m, "   ")
	m = send(t, m, keyMsg("enter"))
	assert.Equal(t, 0, board.Len())
	assert.Empty(t, coll.CallsOf("create"))
	assert.Contains(t, m.View(), "Todo cannot be empty")
}

func TestTypingQDoesNotQuitWhileAdding(t *testing.T) {
	m, _ := started(t, memstore.New())
	m = send(t, m, keyMsg("a"))

	next, cmd := m.Update(keyMsg("q"))
	m = next.(Model)
	if cmd != nil {
		_, quit := cmd().(tea.QuitMsg)
		assert.False(t, quit)
	}
	assert.Equal(t, "q", m.ti.Value())
}

func TestCreateFailureIsShown(t *testing.T) {
	coll := memstore.New()
	m, board := started(t, coll)
	coll.Fail = func(op, id string) error {
		if op == "create" {
			return errors.New("permission denied")
		}
		return nil
	}

	m = typeText(t, m, "Buy milk")
	m = send(t, m, keyMsg("enter"))
	assert.Equal(t, 0, board.Len())
	assert.Equal(t, "Buy milk", m.ti.Value(), "input kept for another try")
	assert.Contains(t, m.View(), "permission denied")
}

func TestRemoteWriteFailureIsShownAndLocalStateKept(t *testing.T) {
	coll := memstore.New(model.Fields{Text: "Buy milk"})
	m, board := started(t, coll)
	coll.Fail = func(op, id string) error {
		if op == "update" {
			return errors.New("network down")
		}
		return nil
	}

	m = send(t, m, keyMsg(" "))
	todo, _ := board.Find("generated-1")
	assert.True(t, todo.Completed)
	assert.Contains(t, m.View(), "update generated-1 failed: network down")
}

func TestLoadFailureCanBeRetried(t *testing.T) {
	coll := memstore.New(model.Fields{Text: "Buy milk"})
	coll.Fail = func(op, id string) error { return errors.New("offline") }
	m, board := started(t, coll)
	assert.False(t, board.Loaded())
	assert.Contains(t, m.View(), retryText)

	// Keys other than retry do nothing before the first load.
	m = send(t, m, keyMsg("a"))
	assert.False(t, m.adding)

	coll.Fail = nil
	m = send(t, m, keyMsg("r"))
	assert.True(t, board.Loaded())
	assert.Contains(t, m.View(), "Buy milk")
}

func TestLateLoadIsDropped(t *testing.T) {
	m, board := started(t, memstore.New(model.Fields{Text: "a"}))
	m = send(t, m, loadedMsg{})
	assert.Equal(t, 1, board.Len())
}

func TestPreloadedBoardSkipsFetch(t *testing.T) {
	coll := memstore.New(model.Fields{Text: "a"})
	board := todolist.New(coll)
	require.NoError(t, board.Load(context.Background()))

	m := New(board)
	assert.Nil(t, m.Init())
	assert.Len(t, m.list.Items(), 1)
	assert.Len(t, coll.CallsOf("list"), 1)
}

func TestWindowResize(t *testing.T) {
	m, _ := started(t, memstore.New(model.Fields{Text: "a"}))
	m = send(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 116, m.list.Width())
	assert.Equal(t, 33, m.list.Height())
}
