// Package todolist holds the list the UI renders and the operations on it.
//
// A Board owns an ordered in-memory list that is the source of truth for
// rendering once loaded. Every change is applied locally and mirrored to the
// injected store.Collection: Add waits for the collection to assign an id,
// Toggle and Delete update the list first and send the write in the
// background. Nothing is reconciled afterwards.
//
// A Board belongs to one goroutine (the UI loop or a CLI command). Only
// Create and the background writes touch the collection from elsewhere.
package todolist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tadasync/internal/logging"
	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store"
)

// ErrAlreadyLoaded is returned by a second Load on the same board.
var ErrAlreadyLoaded = errors.New("todo list already loaded")

// DefaultWriteTimeout bounds a background write.
const DefaultWriteTimeout = 10 * time.Second

// Board is the list plus the text being typed.
type Board struct {
	coll   store.Collection
	items  []model.Todo
	input  string
	loaded bool

	base         context.Context
	writeTimeout time.Duration
	logger       *log.Logger
	onWriteErr   func(*Write)
	pending      sync.WaitGroup
}

// Option configures a Board.
type Option func(*Board)

// WithLogger sets where the board reports loads and failed writes.
func WithLogger(l *log.Logger) Option {
	return func(b *Board) { b.logger = l }
}

// WithWriteTimeout bounds each background write. Zero keeps the default.
func WithWriteTimeout(d time.Duration) Option {
	return func(b *Board) {
		if d > 0 {
			b.writeTimeout = d
		}
	}
}

// WithContext is the parent of every background write's context.
func WithContext(ctx context.Context) Option {
	return func(b *Board) { b.base = ctx }
}

// OnWriteError is called, from the write's goroutine, for every failed
// background write.
func OnWriteError(fn func(*Write)) Option {
	return func(b *Board) { b.onWriteErr = fn }
}

// New returns an empty, unloaded board over coll.
func New(coll store.Collection, opts ...Option) *Board {
	b := &Board{
		coll:         coll,
		items:        []model.Todo{},
		base:         context.Background(),
		writeTimeout: DefaultWriteTimeout,
		logger:       logging.Discard(),
	}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Load fetches every document once and replaces the list with them.
// A failed fetch leaves the board unloaded so the caller may try again.
func (b *Board) Load(ctx context.Context) error {
	if b.loaded {
		return ErrAlreadyLoaded
	}
	docs, err := b.coll.List(ctx)
	if err != nil {
		b.logger.Error("load todos", "err", err)
		return fmt.Errorf("load todos: %w", err)
	}
	b.Replace(docs)
	b.logger.Info("loaded todos", "count", len(docs))
	return nil
}

// Replace installs docs as the list and marks the board loaded.
// Load uses it; event loops that fetch in the background call it with
// the fetched documents.
func (b *Board) Replace(docs []store.Document) {
	items := make([]model.Todo, 0, len(docs))
	for _, d := range docs {
		items = append(items, d.Todo())
	}
	b.items = items
	b.loaded = true
}

// Loaded reports whether the initial fetch happened.
func (b *Board) Loaded() bool { return b.loaded }

// Fetch is the collection half of Load, safe to run off the owning goroutine.
func (b *Board) Fetch(ctx context.Context) ([]store.Document, error) {
	docs, err := b.coll.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load todos: %w", err)
	}
	return docs, nil
}

// Add creates text remotely, then appends it and clears the input.
// Blank text is ignored: ok is false and the collection is not called.
// On failure nothing local changes.
func (b *Board) Add(ctx context.Context, text string) (todo model.Todo, ok bool, err error) {
	if strings.TrimSpace(text) == "" {
		return model.Todo{}, false, nil
	}
	todo, err = b.Create(ctx, text)
	if err != nil {
		return model.Todo{}, false, err
	}
	b.Append(todo)
	return todo, true, nil
}

// AddInput is Add with the current input text.
func (b *Board) AddInput(ctx context.Context) (model.Todo, bool, error) {
	return b.Add(ctx, b.input)
}

// Create is the collection half of Add: it stores text and returns the
// record with the id the collection assigned. It does not touch the list,
// so it may run off the owning goroutine. The text is stored as given.
func (b *Board) Create(ctx context.Context, text string) (model.Todo, error) {
	if strings.TrimSpace(text) == "" {
		return model.Todo{}, errors.New("create todo: empty text")
	}
	f := model.Fields{Text: text, Completed: false}
	id, err := b.coll.Create(ctx, f)
	if err != nil {
		b.logger.Error("create todo", "err", err)
		return model.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	b.logger.Debug("created todo", "id", id)
	return model.Todo{ID: id, Text: f.Text, Completed: f.Completed}, nil
}

// Append is the local half of Add.
func (b *Board) Append(todo model.Todo) {
	b.items = append(b.items, todo)
	b.input = ""
}

// Toggle flips the completed flag of id now and sends the new value in
// the background. Unknown ids change nothing and send nothing.
func (b *Board) Toggle(id string) *Write {
	idx := b.index(id)
	if idx < 0 {
		return resolved("update", id, nil)
	}
	next := !b.items[idx].Completed
	b.items[idx].Completed = next
	return b.send("update", id, func(ctx context.Context) error {
		return b.coll.Update(ctx, id, model.SetCompleted(next))
	})
}

// Delete sends the delete in the background and drops id from the list
// now, keeping the order of the rest.
func (b *Board) Delete(id string) *Write {
	w := b.send("delete", id, func(ctx context.Context) error {
		return b.coll.Delete(ctx, id)
	})
	out := b.items[:0]
	for _, it := range b.items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	// Clear the tail so the dropped record is not kept alive.
	for i := len(out); i < len(b.items); i++ {
		b.items[i] = model.Todo{}
	}
	b.items = out
	return w
}

func (b *Board) send(op, id string, fn func(context.Context) error) *Write {
	w := newWrite(op, id)
	logger, onErr := b.logger, b.onWriteErr
	ctx, cancel := context.WithTimeout(b.base, b.writeTimeout)
	b.pending.Add(1)
	go func() {
		defer b.pending.Done()
		defer cancel()
		err := fn(ctx)
		if err != nil {
			logger.Error("remote write failed", "op", op, "id", id, "err", err)
		} else {
			logger.Debug("remote write done", "op", op, "id", id)
		}
		w.finish(err)
		if err != nil && onErr != nil {
			onErr(w)
		}
	}()
	return w
}

// Flush waits until every background write sent so far has finished, or
// ctx ends. Call it before closing the collection.
func (b *Board) Flush(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		b.pending.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Board) index(id string) int {
	for i, it := range b.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

// Items returns a copy of the list in order.
func (b *Board) Items() []model.Todo {
	return append([]model.Todo{}, b.items...)
}

// Len is the number of records.
func (b *Board) Len() int { return len(b.items) }

// Find returns the record with id.
func (b *Board) Find(id string) (model.Todo, bool) {
	if i := b.index(id); i >= 0 {
		return b.items[i], true
	}
	return model.Todo{}, false
}

// Input is the text being typed.
func (b *Board) Input() string { return b.input }

// SetInput replaces the text being typed.
func (b *Board) SetInput(s string) { b.input = s }

// Stats counts done and pending records.
func (b *Board) Stats() (done, pending int) { return model.Count(b.items) }
