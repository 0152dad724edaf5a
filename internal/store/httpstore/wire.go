// Package httpstore serves a Collection over HTTP and talks to one.
//
// Routes (name is the collection):
//
//	GET    /v1/collections/{name}/documents       list
//	POST   /v1/collections/{name}/documents       create -> 201 {"id"}
//	PATCH  /v1/collections/{name}/documents/{id}  update -> 204, 404 if missing
//	DELETE /v1/collections/{name}/documents/{id}  delete -> 204
//	GET    /healthz
package httpstore

import (
	"encoding/json"
	"fmt"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/store"
)

const apiPrefix = "/v1/collections/"

type listResponse struct {
	Documents []store.Document `json:"documents"`
}

type createRequest struct {
	Fields model.Fields `json:"fields"`
}

type createResponse struct {
	ID string `json:"id"`
}

type patchRequest struct {
	Fields model.Patch `json:"fields"`
}

// Servers decode bodies raw so they validate exactly what was sent.
type rawRequest struct {
	Fields json.RawMessage `json:"fields"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// StatusError is a non-2xx answer from the server.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("http status %d", e.Code)
	}
	return fmt.Sprintf("http status %d: %s", e.Code, e.Message)
}
