// Package store defines the document collection the todo list persists to.
//
// A Collection is the only way the list talks to storage. Concrete backends
// live in the sub-packages: memstore (in-process, used by tests), jsonstore
// (single JSON file), sqlitestore (SQLite documents table) and httpstore
// (a collection served over HTTP).
package store

import (
	"context"
	"errors"

	"github.com/Makepad-fr/tadasync/internal/model"
)

// DefaultCollection is the collection name todos are kept under.
const DefaultCollection = "todos"

// ErrNotFound is returned by Update when no document has the given id.
var ErrNotFound = errors.New("document not found")

// Document is one stored record: the id the collection assigned plus its fields.
type Document struct {
	ID     string       `json:"id"`
	Fields model.Fields `json:"fields"`
}

// Todo maps a document to the list's record type.
func (d Document) Todo() model.Todo {
	return model.Todo{ID: d.ID, Text: d.Fields.Text, Completed: d.Fields.Completed}
}

// Collection is a remote group of todo documents.
// Implementations must be safe for concurrent use.
type Collection interface {
	// List returns every document, in whatever order the backend keeps them.
	List(ctx context.Context) ([]Document, error)
	// Create stores a new document and returns the id it was given.
	Create(ctx context.Context, f model.Fields) (string, error)
	// Update writes the non-nil fields of p. Missing ids yield ErrNotFound.
	Update(ctx context.Context, id string, p model.Patch) error
	// Delete removes the document. Deleting a missing id is not an error.
	Delete(ctx context.Context, id string) error
}

// Closer is implemented by collections holding OS resources.
type Closer interface {
	Close() error
}

// Close closes c if it holds resources.
func Close(c Collection) error {
	if cl, ok := c.(Closer); ok {
		return cl.Close()
	}
	return nil
}
