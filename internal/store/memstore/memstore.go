// Package memstore is an in-process Collection.
//
// Ids are "generated-1", "generated-2", ... in creation order. Every call is
// recorded so tests can assert what the list sent without a network.
package memstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store"
)

// Call is one recorded operation.
type Call struct {
	Op     string // "list" | "create" | "update" | "delete"
	ID     string
	Fields model.Fields
	Patch  model.Patch
}

// Store keeps documents in insertion order.
type Store struct {
	mu    sync.Mutex
	next  int
	order []string
	docs  map[string]model.Fields
	calls []Call

	// Fail, when set, is consulted before every operation; a non-nil
	// return is handed back to the caller and nothing is stored.
	Fail func(op, id string) error
}

var _ store.Collection = (*Store)(nil)

// New returns a store pre-filled with fields, ids assigned in order.
func New(seed ...model.Fields) *Store {
	s := &Store{docs: map[string]model.Fields{}}
	for _, f := range seed {
		s.insert(f)
	}
	return s
}

func (s *Store) insert(f model.Fields) string {
	s.next++
	id := fmt.Sprintf("generated-%d", s.next)
	s.order = append(s.order, id)
	s.docs[id] = f
	return id
}

func (s *Store) fail(op, id string) error {
	if s.Fail == nil {
		return nil
	}
	return s.Fail(op, id)
}

func (s *Store) List(ctx context.Context) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "list"})
	if err := s.fail("list", ""); err != nil {
		return nil, err
	}
	out := make([]store.Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, store.Document{ID: id, Fields: s.docs[id]})
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, f model.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "create", Fields: f})
	if err := s.fail("create", ""); err != nil {
		return "", err
	}
	return s.insert(f), nil
}

func (s *Store) Update(ctx context.Context, id string, p model.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "update", ID: id, Patch: p})
	if err := s.fail("update", id); err != nil {
		return err
	}
	f, ok := s.docs[id]
	if !ok {
		return store.ErrNotFound
	}
	s.docs[id] = p.Apply(f)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Op: "delete", ID: id})
	if err := s.fail("delete", id); err != nil {
		return err
	}
	if _, ok := s.docs[id]; !ok {
		return nil
	}
	delete(s.docs, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// Calls returns a copy of every recorded call.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsOf returns the recorded calls of one kind.
func (s *Store) CallsOf(op string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Get returns the stored fields for id.
func (s *Store) Get(id string) (model.Fields, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.docs[id]
	return f, ok
}

// Len is the number of stored documents.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}
