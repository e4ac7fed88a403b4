package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/claude/workoutlog/internal/kvstore"
	"github.com/claude/workoutlog/internal/metrics"
	"github.com/go-chi/chi/v5"
)

// maxValueBytes bounds a PUT body.
const maxValueBytes = 8 << 20

type valueBody struct {
	Value json.RawMessage `json:"value"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	key, ok := storageKey(w, r)
	if !ok {
		return
	}

	value, err := s.store.Get(r.Context(), key)
	switch {
	case errors.Is(err, kvstore.ErrNotFound):
		s.storageOp("get", metrics.ResultNotFound)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Key not found"})
		return
	case err != nil:
		s.storageOp("get", metrics.ResultError)
		s.log.Error("storage read failed", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to read value"})
		return
	}
	s.storageOp("get", metrics.ResultOK)
	writeJSON(w, http.StatusOK, valueBody{Value: value})
}

func (s *Server) handlePut(w http.ResponseWriter, r *http.Request) {
	key, ok := storageKey(w, r)
	if !ok {
		return
	}

	var body valueBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxValueBytes)).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	// An explicit null is a value; only an absent member is rejected.
	if body.Value == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "value is required"})
		return
	}

	if err := s.store.Put(r.Context(), key, body.Value); err != nil {
		s.storageOp("put", metrics.ResultError)
		s.log.Error("storage write failed", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to save value"})
		return
	}
	s.storageOp("put", metrics.ResultOK)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	key, ok := storageKey(w, r)
	if !ok {
		return
	}

	if err := s.store.Delete(r.Context(), key); err != nil {
		s.storageOp("delete", metrics.ResultError)
		s.log.Error("storage delete failed", "key", key, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to delete value"})
		return
	}
	s.storageOp("delete", metrics.ResultOK)
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) storageOp(op, result string) {
	if s.metrics != nil {
		s.metrics.StorageOp(op, result)
	}
}

// storageKey returns the unescaped {key} of the route.
func storageKey(w http.ResponseWriter, r *http.Request) (string, bool) {
	key, err := url.PathUnescape(chi.URLParam(r, "key"))
	if err != nil || key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid key"})
		return "", false
	}
	return key, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, `{"error":"encoding response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}
