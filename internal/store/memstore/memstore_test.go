package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store"
)

func TestStore_CRUD(t *testing.T) {
	ctx := context.Background()
	s := New(model.Fields{Text: "seeded"})

	id, err := s.Create(ctx, model.Fields{Text: "Buy milk"})
	require.NoError(t, err)
	assert.Equal(t, "generated-2", id)

	require.NoError(t, s.Update(ctx, id, model.SetCompleted(true)))
	f, ok := s.Get(id)
	require.True(t, ok)
	assert.Equal(t, model.Fields{Text: "Buy milk", Completed: true}, f)

	assert.ErrorIs(t, s.Update(ctx, "nope", model.SetCompleted(true)), store.ErrNotFound)

	require.NoError(t, s.Delete(ctx, "generated-1"))
	require.NoError(t, s.Delete(ctx, "generated-1"), "second delete is a no-op")

	docs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Document{{ID: id, Fields: model.Fields{Text: "Buy milk", Completed: true}}}, docs)

	ops := make([]string, 0)
	for _, c := range s.Calls() {
		ops = append(ops, c.Op)
	}
	assert.Equal(t, []string{"create", "update", "update", "delete", "delete", "list"}, ops)
}

func TestStore_Fail(t *testing.T) {
	boom := errors.New("offline")
	s := New()
	s.Fail = func(op, id string) error {
		if op == "create" {
			return boom
		}
		return nil
	}
	_, err := s.Create(context.Background(), model.Fields{Text: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Len())
	assert.Len(t, s.CallsOf("create"), 1)
}
