// Package api serves a read-only JSON browse interface over a loaded
// record store, plus a WebSocket channel notifying clients when the
// backing dataset is reloaded.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/core/record"
	"github.com/vedakosh/rigveda/core/sqlite"
	"github.com/vedakosh/rigveda/internal/store"
)

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
	Meta    *APIMeta    `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// VersionInfo is the payload of /api/version.
type VersionInfo struct {
	Version  string `json:"version"`
	Database string `json:"database"`
	Driver   string `json:"driver"`
}

const defaultListLimit = 100

// Handlers serves the browse endpoints over a swappable store.
type Handlers struct {
	mu      sync.RWMutex
	store   *store.Store
	hub     *Hub
	version string
}

// NewHandlers wires the browse endpoints to a store and reload hub.
func NewHandlers(s *store.Store, hub *Hub, version string) *Handlers {
	return &Handlers{store: s, hub: hub, version: version}
}

// Store returns the current backing store.
func (h *Handlers) Store() *store.Store {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.store
}

// handleRecords serves GET /api/records with optional mandala, sukta,
// deity, limit, and offset query parameters.
func (h *Handlers) handleRecords(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
		return
	}

	filter := store.Filter{Limit: defaultListLimit}
	q := r.URL.Query()
	var err error
	if filter.Mandala, err = intParam(q.Get("mandala")); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "mandala must be an integer")
		return
	}
	if filter.Sukta, err = intParam(q.Get("sukta")); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "sukta must be an integer")
		return
	}
	filter.Deity = q.Get("deity")
	if limit, err := intParam(q.Get("limit")); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "limit must be an integer")
		return
	} else if limit > 0 {
		filter.Limit = limit
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "offset must be an integer")
		return
	}

	records, err := h.Store().List(filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if records == nil {
		records = []*record.Record{}
	}
	respondWithTotal(w, http.StatusOK, records, len(records))
}

// handleRecord serves GET /api/records/{id}. The id may be the
// canonical form or the dotted display form.
func (h *Handlers) handleRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/records/")
	if id == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "record id required")
		return
	}
	if ref, err := record.ParseRef(id); err == nil {
		id = ref.ID()
	}

	rec, err := h.Store().Get(id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			respondError(w, http.StatusNotFound, "not_found", "no record "+id)
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	respond(w, http.StatusOK, rec)
}

// handleSearch serves GET /api/search?q=.
func (h *Handlers) handleSearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
		return
	}

	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		respondError(w, http.StatusBadRequest, "bad_request", "query parameter q required")
		return
	}
	limit, err := intParam(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "bad_request", "limit must be an integer")
		return
	}
	if limit <= 0 {
		limit = defaultListLimit
	}

	records, err := h.Store().Search(q, limit)
	if err != nil {
		if errors.Is(err, errors.ErrInvalidInput) {
			respondError(w, http.StatusBadRequest, "bad_request", err.Error())
			return
		}
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	if records == nil {
		records = []*record.Record{}
	}
	respondWithTotal(w, http.StatusOK, records, len(records))
}

// handleStats serves GET /api/stats.
func (h *Handlers) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "GET only")
		return
	}

	stats, err := h.Store().Stats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	respond(w, http.StatusOK, stats)
}

// handleVersion serves GET /api/version.
func (h *Handlers) handleVersion(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, VersionInfo{
		Version:  h.version,
		Database: h.Store().Path(),
		Driver:   sqlite.DriverType(),
	})
}

// handleReload serves POST /api/reload: reopen the database file and
// swap the backing store, then notify WebSocket clients. Intended for
// local admin use after `store load` rewrote the database.
func (h *Handlers) handleReload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "POST only")
		return
	}

	old := h.Store()
	fresh, err := store.OpenReadOnly(old.Path())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}
	stats, err := fresh.Stats()
	if err != nil {
		fresh.Close()
		respondError(w, http.StatusInternalServerError, "internal_error", err.Error())
		return
	}

	h.mu.Lock()
	h.store = fresh
	h.mu.Unlock()
	old.Close()

	if h.hub != nil {
		h.hub.Broadcast(EventMessage{
			Type:    "dataset_reloaded",
			Message: "record store reloaded",
			Data:    map[string]interface{}{"records": stats.Records},
		})
	}
	respond(w, http.StatusOK, map[string]interface{}{"records": stats.Records})
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}

func respond(w http.ResponseWriter, status int, data interface{}) {
	writeResponse(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func respondWithTotal(w http.ResponseWriter, status int, data interface{}, total int) {
	writeResponse(w, status, APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeResponse(w, status, APIResponse{
		Success: false,
		Error:   &APIError{Code: code, Message: message},
		Meta:    &APIMeta{Timestamp: time.Now().UTC().Format(time.RFC3339)},
	})
}

func writeResponse(w http.ResponseWriter, status int, resp APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}
