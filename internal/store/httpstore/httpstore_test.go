package httpstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store"
	"github.com/Makepad-fr/tadasync/internal/store/memstore"
)

func quietLogger() *log.Logger { return log.New(io.Discard) }

func newPair(t *testing.T, backing *memstore.Store, serverToken string, opts ...ClientOption) *Client {
	t.Helper()
	srv := httptest.NewServer(NewServer("todos", backing, WithToken(serverToken), WithLogger(quietLogger())).Handler())
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL, "todos", opts...)
	require.NoError(t, err)
	return c
}

func TestClientServer_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backing := memstore.New(model.Fields{Text: "seeded"})
	c := newPair(t, backing, "")

	docs, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []store.Document{{ID: "generated-1", Fields: model.Fields{Text: "seeded"}}}, docs)

	id, err := c.Create(ctx, model.Fields{Text: " Buy milk "})
	require.NoError(t, err)
	assert.Equal(t, "generated-2", id)

	require.NoError(t, c.Update(ctx, id, model.SetCompleted(true)))
	f, ok := backing.Get(id)
	require.True(t, ok)
	assert.Equal(t, model.Fields{Text: " Buy milk ", Completed: true}, f)

	assert.ErrorIs(t, c.Update(ctx, "nope", model.SetCompleted(true)), store.ErrNotFound)

	require.NoError(t, c.Delete(ctx, id))
	require.NoError(t, c.Delete(ctx, id))
	assert.Equal(t, 1, backing.Len())
}

func TestServer_RejectsInvalidDocuments(t *testing.T) {
	backing := memstore.New()
	c := newPair(t, backing, "")

	_, err := c.Create(context.Background(), model.Fields{Text: "   "})
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
	assert.Empty(t, backing.CallsOf("create"), "invalid documents never reach the collection")

	err = c.Update(context.Background(), "generated-1", model.Patch{})
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnprocessableEntity, se.Code)
}

func TestServer_BearerToken(t *testing.T) {
	backing := memstore.New()

	_, err := newPair(t, backing, "s3cret").List(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)

	_, err = newPair(t, backing, "s3cret", WithBearer("wrong")).List(context.Background())
	require.ErrorAs(t, err, &se)

	docs, err := newPair(t, backing, "s3cret", WithBearer("s3cret")).List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestServer_UnknownCollectionAndHealth(t *testing.T) {
	h := NewServer("todos", memstore.New(), WithLogger(quietLogger())).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/collections/other/documents", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok\n", rec.Body.String())

	rec = httptest.NewRecorder()
	body := bytes.NewBufferString(`{"fields":{"text":"x","completed":false},"extra":true}`)
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/collections/todos/documents", body))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "invalid request body"))
}

func TestServer_BackendFailureIs500(t *testing.T) {
	backing := memstore.New()
	backing.Fail = func(op, id string) error { return errors.New("disk on fire") }
	c := newPair(t, backing, "")

	_, err := c.List(context.Background())
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.NotContains(t, se.Message, "disk on fire")
}

func TestNewClient_BadURL(t *testing.T) {
	_, err := NewClient("ftp://example.com", "todos")
	assert.Error(t, err)
}
