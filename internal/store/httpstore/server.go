package httpstore

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tadasync/internal/model"
	"github.com/Makepad-fr/tadasync/internal/schema"
	"github.com/Makepad-fr/tadasync/internal/store"
)

const maxBody = 64 << 10

// Server exposes collections over HTTP.
type Server struct {
	collections map[string]store.Collection
	token       string
	logger      *log.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithToken requires "Authorization: Bearer <token>" on every API request.
func WithToken(token string) ServerOption {
	return func(s *Server) { s.token = strings.TrimSpace(token) }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) ServerOption {
	return func(s *Server) { s.logger = l }
}

// NewServer serves coll under the given collection name.
func NewServer(name string, coll store.Collection, opts ...ServerOption) *Server {
	if name == "" {
		name = store.DefaultCollection
	}
	s := &Server{
		collections: map[string]store.Collection{name: coll},
		logger:      log.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /v1/collections/{name}/documents", s.authed(s.handleList))
	mux.HandleFunc("POST /v1/collections/{name}/documents", s.authed(s.handleCreate))
	mux.HandleFunc("PATCH /v1/collections/{name}/documents/{id}", s.authed(s.handleUpdate))
	mux.HandleFunc("DELETE /v1/collections/{name}/documents/{id}", s.authed(s.handleDelete))
	return s.logged(mux)
}

func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.code, "took", time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" {
			got := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(got), "bearer ") ||
				subtle.ConstantTimeCompare([]byte(strings.TrimSpace(got[7:])), []byte(s.token)) != 1 {
				writeError(w, http.StatusUnauthorized, "missing or invalid bearer token")
				return
			}
		}
		next(w, r)
	}
}

func (s *Server) collection(w http.ResponseWriter, r *http.Request) (store.Collection, bool) {
	name := r.PathValue("name")
	c, ok := s.collections[name]
	if !ok {
		writeError(w, http.StatusNotFound, "unknown collection: "+name)
		return nil, false
	}
	return c, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	docs, err := c.List(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, listResponse{Documents: docs})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	var req rawRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := schema.ValidateRaw(req.Fields, false); err != nil {
		s.fail(w, r, err)
		return
	}
	var f model.Fields
	if err := json.Unmarshal(req.Fields, &f); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, err := c.Create(r.Context(), f)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{ID: id})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	var req rawRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := schema.ValidateRaw(req.Fields, true); err != nil {
		s.fail(w, r, err)
		return
	}
	var p model.Patch
	if err := json.Unmarshal(req.Fields, &p); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := c.Update(r.Context(), r.PathValue("id"), p); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := s.collection(w, r)
	if !ok {
		return
	}
	if err := c.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *schema.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &ve):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		s.logger.Error("collection operation failed", "method", r.Method, "path", r.URL.Path, "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.New("invalid request body: " + err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}
