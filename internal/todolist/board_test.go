package todolist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store/memstore"
)

func wait(t *testing.T, w *Write) error {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	select {
	case <-w.Done():
	case <-ctx.Done():
		t.Fatalf("%s %s did not finish", w.Op(), w.ID())
	}
	return w.Err()
}

func loadedBoard(t *testing.T, seed ...model.Fields) (*Board, *memstore.Store) {
	t.Helper()
	coll := memstore.New(seed...)
	b := New(coll)
	require.NoError(t, b.Load(context.Background()))
	return b, coll
}

func TestLoad_EmptyCollection(t *testing.T) {
	b, coll := loadedBoard(t)
	assert.True(t, b.Loaded())
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Items())
	assert.Len(t, coll.CallsOf("list"), 1)
}

func TestLoad_RoundTrip(t *testing.T) {
	for _, n := range []int{1, 3, 25} {
		t.Run(fmt.Sprintf("%d records", n), func(t *testing.T) {
			seed := make([]model.Fields, n)
			for i := range seed {
				seed[i] = model.Fields{Text: fmt.Sprintf("item %d", i), Completed: i%2 == 0}
			}
			b, _ := loadedBoard(t, seed...)

			items := b.Items()
			require.Len(t, items, n)
			for i, it := range items {
				assert.Equal(t, fmt.Sprintf("generated-%d", i+1), it.ID)
				assert.Equal(t, seed[i].Text, it.Text)
				assert.Equal(t, seed[i].Completed, it.Completed)
			}
		})
	}
}

func TestLoad_RunsOnce(t *testing.T) {
	b, coll := loadedBoard(t, model.Fields{Text: "a"})
	_, err := coll.Create(context.Background(), model.Fields{Text: "added elsewhere"})
	require.NoError(t, err)

	assert.ErrorIs(t, b.Load(context.Background()), ErrAlreadyLoaded)
	assert.Equal(t, 1, b.Len(), "later loads do not re-fetch")
	assert.Len(t, coll.CallsOf("list"), 1)
}

func TestLoad_FailureLeavesBoardUnloaded(t *testing.T) {
	coll := memstore.New(model.Fields{Text: "a"})
	boom := errors.New("offline")
	coll.Fail = func(op, id string) error { return boom }
	b := New(coll)

	err := b.Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, b.Loaded())

	coll.Fail = nil
	require.NoError(t, b.Load(context.Background()))
	assert.Equal(t, 1, b.Len())
}

func TestAdd_Scenario(t *testing.T) {
	b, coll := loadedBoard(t)
	b.SetInput("Buy milk")

	todo, ok, err := b.AddInput(context.Background())
	require.NoError(t, err)
	require.True(t, ok)

	want := model.Todo{ID: "generated-1", Text: "Buy milk", Completed: false}
	assert.Equal(t, want, todo)
	assert.Equal(t, []model.Todo{want}, b.Items())
	assert.Equal(t, "", b.Input())

	creates := coll.CallsOf("create")
	require.Len(t, creates, 1)
	assert.Equal(t, model.Fields{Text: "Buy milk", Completed: false}, creates[0].Fields)
}

func TestAdd_KeepsTextAsTyped(t *testing.T) {
	b, coll := loadedBoard(t, model.Fields{Text: "first"})

	todo, ok, err := b.Add(context.Background(), "  padded  ")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "  padded  ", todo.Text)
	assert.False(t, todo.Completed)
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, todo, b.Items()[1], "new records go last")
	assert.Equal(t, "  padded  ", coll.CallsOf("create")[0].Fields.Text)
}

func TestAdd_BlankIsNoop(t *testing.T) {
	for _, in := range []string{"", " ", "\t\n  "} {
		b, coll := loadedBoard(t, model.Fields{Text: "existing"})
		b.SetInput(in)
		before := b.Items()

		_, ok, err := b.AddInput(context.Background())
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, before, b.Items())
		assert.Equal(t, in, b.Input(), "input untouched")
		assert.Empty(t, coll.CallsOf("create"), "create must not be called for %q", in)
	}
}

func TestAdd_FailureChangesNothing(t *testing.T) {
	b, coll := loadedBoard(t)
	boom := errors.New("permission denied")
	coll.Fail = func(op, id string) error { return boom }
	b.SetInput("Buy milk")

	_, ok, err := b.AddInput(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, ok)
	assert.Equal(t, 0, b.Len())
	assert.Equal(t, "Buy milk", b.Input())
}

func TestCreateAndAppend_SplitPhases(t *testing.T) {
	b, coll := loadedBoard(t)

	todo, err := b.Create(context.Background(), "Walk dog")
	require.NoError(t, err)
	assert.Equal(t, 0, b.Len(), "create alone leaves the list")
	assert.Equal(t, 1, coll.Len())

	b.SetInput("Walk dog")
	b.Append(todo)
	assert.Equal(t, []model.Todo{todo}, b.Items())
	assert.Equal(t, "", b.Input())

	_, err = b.Create(context.Background(), "  ")
	assert.Error(t, err)
}

func TestToggle_FlipsOnlyTarget(t *testing.T) {
	b, coll := loadedBoard(t,
		model.Fields{Text: "a"},
		model.Fields{Text: "b", Completed: true},
		model.Fields{Text: "c"},
	)
	before := b.Items()

	w := b.Toggle("generated-2")
	after := b.Items()
	require.Len(t, after, 3)
	assert.Equal(t, before[0], after[0])
	assert.Equal(t, before[2], after[2])
	assert.False(t, after[1].Completed)

	require.NoError(t, wait(t, w))
	assert.Equal(t, "update", w.Op())
	updates := coll.CallsOf("update")
	require.Len(t, updates, 1)
	assert.Equal(t, "generated-2", updates[0].ID)
	require.NotNil(t, updates[0].Patch.Completed)
	assert.False(t, *updates[0].Patch.Completed)
	assert.Nil(t, updates[0].Patch.Text)
}

func TestToggle_Scenario(t *testing.T) {
	b, coll := loadedBoard(t)
	_, _, err := b.Add(context.Background(), "Buy milk")
	require.NoError(t, err)

	w := b.Toggle("generated-1")
	todo, ok := b.Find("generated-1")
	require.True(t, ok)
	assert.True(t, todo.Completed)
	assert.Equal(t, 1, b.Len())

	require.NoError(t, wait(t, w))
	f, _ := coll.Get("generated-1")
	assert.True(t, f.Completed)
}

func TestToggle_UnknownID(t *testing.T) {
	b, coll := loadedBoard(t, model.Fields{Text: "a"})
	before := b.Items()

	w := b.Toggle("missing")
	assert.NoError(t, wait(t, w))
	assert.Equal(t, before, b.Items())
	assert.Empty(t, coll.CallsOf("update"))
}

func TestToggle_RemoteFailureKeepsLocalState(t *testing.T) {
	var buf bytes.Buffer
	coll := memstore.New(model.Fields{Text: "a"})
	var mu sync.Mutex
	var failed []*Write
	b := New(coll,
		WithLogger(log.New(&buf)),
		OnWriteError(func(w *Write) {
			mu.Lock()
			failed = append(failed, w)
			mu.Unlock()
		}),
	)
	require.NoError(t, b.Load(context.Background()))
	boom := errors.New("network down")
	coll.Fail = func(op, id string) error { return boom }

	w := b.Toggle("generated-1")
	todo, _ := b.Find("generated-1")
	assert.True(t, todo.Completed, "optimistic update stands")

	assert.ErrorIs(t, wait(t, w), boom)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(failed) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Contains(t, buf.String(), "remote write failed")
}

func TestDelete_RemovesOnlyTargetKeepsOrder(t *testing.T) {
	b, coll := loadedBoard(t,
		model.Fields{Text: "a"},
		model.Fields{Text: "b"},
		model.Fields{Text: "c"},
		model.Fields{Text: "d"},
	)

	w := b.Delete("generated-2")
	items := b.Items()
	require.Len(t, items, 3)
	assert.Equal(t, []string{"generated-1", "generated-3", "generated-4"},
		[]string{items[0].ID, items[1].ID, items[2].ID})

	require.NoError(t, wait(t, w))
	deletes := coll.CallsOf("delete")
	require.Len(t, deletes, 1)
	assert.Equal(t, "generated-2", deletes[0].ID)
	assert.Equal(t, 3, coll.Len())
}

func TestDelete_Scenario(t *testing.T) {
	b, _ := loadedBoard(t)
	_, _, err := b.Add(context.Background(), "Buy milk")
	require.NoError(t, err)

	w := b.Delete("generated-1")
	assert.Equal(t, 0, b.Len())
	assert.Empty(t, b.Items())
	require.NoError(t, wait(t, w))
}

func TestDelete_UnknownIDStillSent(t *testing.T) {
	b, coll := loadedBoard(t, model.Fields{Text: "a"})

	w := b.Delete("missing")
	assert.Equal(t, 1, b.Len())
	require.NoError(t, wait(t, w))
	assert.Len(t, coll.CallsOf("delete"), 1)
}

func TestDelete_DoesNotBlockOnRemote(t *testing.T) {
	coll := memstore.New(model.Fields{Text: "a"})
	release := make(chan struct{})
	b := New(coll)
	require.NoError(t, b.Load(context.Background()))
	coll.Fail = func(op, id string) error {
		<-release
		return nil
	}

	w := b.Delete("generated-1")
	assert.Equal(t, 0, b.Len(), "local state changed before the remote answered")
	select {
	case <-w.Done():
		t.Fatal("write finished before the collection answered")
	default:
	}
	assert.NoError(t, w.Err(), "Err is nil while pending")
	close(release)
	assert.NoError(t, wait(t, w))
}

func TestWrite_WaitHonoursContext(t *testing.T) {
	w := newWrite("update", "x")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Wait(ctx), context.Canceled)
}

func TestWriteTimeout(t *testing.T) {
	coll := ctxBlocking{memstore.New(model.Fields{Text: "a"})}
	b := New(coll, WithWriteTimeout(20*time.Millisecond))
	require.NoError(t, b.Load(context.Background()))

	w := b.Toggle("generated-1")
	assert.ErrorIs(t, wait(t, w), context.DeadlineExceeded)
}

func TestFlushWaitsForBackgroundWrites(t *testing.T) {
	coll := ctxBlocking{memstore.New(model.Fields{Text: "a"})}
	b := New(coll, WithWriteTimeout(50*time.Millisecond))
	require.NoError(t, b.Load(context.Background()))

	w := b.Toggle("generated-1")
	short, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, b.Flush(short), context.DeadlineExceeded)

	require.NoError(t, b.Flush(context.Background()))
	select {
	case <-w.Done():
	default:
		t.Fatal("write still running after Flush")
	}
	assert.NoError(t, b.Flush(context.Background()), "nothing pending")
}

// ctxBlocking holds every update until its context ends.
type ctxBlocking struct{ *memstore.Store }

func (c ctxBlocking) Update(ctx context.Context, id string, p model.Patch) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestStats(t *testing.T) {
	b, _ := loadedBoard(t,
		model.Fields{Text: "a", Completed: true},
		model.Fields{Text: "b"},
		model.Fields{Text: "c"},
	)
	done, pending := b.Stats()
	assert.Equal(t, 1, done)
	assert.Equal(t, 2, pending)
}
