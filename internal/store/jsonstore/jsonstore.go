package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/schema"
	"github.com/Makepad-fr/tadasync/internal/store"
)

// JSON-backed collection. One file per collection, human-readable, portable.
// A mutex serialises writers inside one process; no cross-process locking.

const fileSuffix = ".json"

// Store is a Collection kept in <dir>/<collection>.json.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ store.Collection = (*Store)(nil)

// New returns a store for collection under dir. An empty dir means the
// working directory.
func New(dir, collection string) (*Store, error) {
	p, err := dataPath(dir, collection)
	if err != nil {
		return nil, err
	}
	return &Store{path: p}, nil
}

// Path is the backing file.
func (s *Store) Path() string { return s.path }

func dataPath(dir, collection string) (string, error) {
	if collection == "" {
		collection = store.DefaultCollection
	}
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		dir = wd
	}
	return filepath.Join(dir, collection+fileSuffix), nil
}

func load(p string) ([]store.Document, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []store.Document{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var docs []store.Document
	if err := json.Unmarshal(b, &docs); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return docs, nil
}

func save(p string, docs []store.Document) error {
	b, err := json.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	// Write then rename so a crash never leaves half a file behind.
	tmp := p + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, p); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]store.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return load(s.path)
}

func (s *Store) Create(ctx context.Context, f model.Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := schema.ValidateFields(f); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := load(s.path)
	if err != nil {
		return "", err
	}
	id := uuid.NewString()
	docs = append(docs, store.Document{ID: id, Fields: f})
	if err := save(s.path, docs); err != nil {
		return "", err
	}
	return id, nil
}

func (s *Store) Update(ctx context.Context, id string, p model.Patch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := schema.ValidatePatch(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := load(s.path)
	if err != nil {
		return err
	}
	for i := range docs {
		if docs[i].ID == id {
			docs[i].Fields = p.Apply(docs[i].Fields)
			return save(s.path, docs)
		}
	}
	return store.ErrNotFound
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, err := load(s.path)
	if err != nil {
		return err
	}
	out := docs[:0]
	for _, d := range docs {
		if d.ID != id {
			out = append(out, d)
		}
	}
	if len(out) == len(docs) {
		return nil
	}
	return save(s.path, out)
}
