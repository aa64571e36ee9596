package api

import (
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/vedakosh/rigveda/core/errors"
	"github.com/vedakosh/rigveda/internal/logging"
	"github.com/vedakosh/rigveda/internal/store"
)

// Config holds the browse server settings.
type Config struct {
	Host    string
	Port    int
	DBPath  string
	Version string
}

// NewServer builds the HTTP server with all routes and middleware
// attached. The returned hub is already running.
func NewServer(cfg Config, s *store.Store) (*http.Server, *Handlers, *Hub) {
	hub := NewHub()
	go hub.Run()

	h := NewHandlers(s, hub, cfg.Version)
	mux := http.NewServeMux()
	mux.HandleFunc("/api/records", h.handleRecords)
	mux.HandleFunc("/api/records/", h.handleRecord)
	mux.HandleFunc("/api/search", h.handleSearch)
	mux.HandleFunc("/api/stats", h.handleStats)
	mux.HandleFunc("/api/version", h.handleVersion)
	mux.HandleFunc("/api/reload", h.handleReload)
	mux.HandleFunc("/api/ws", hub.handleWebSocket)

	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      withMiddleware(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}
	return srv, h, hub
}

// withMiddleware applies request-id and request logging. WebSocket
// upgrades skip the logging wrapper, whose response recorder does not
// implement http.Hijacker.
func withMiddleware(mux http.Handler) http.Handler {
	logged := logging.CombinedMiddleware(mux)
	plain := logging.RequestIDMiddleware(mux)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Upgrade") == "websocket" {
			plain.ServeHTTP(w, r)
			return
		}
		logged.ServeHTTP(w, r)
	})
}

// Start opens the record store read-only and serves until the listener
// fails.
func Start(cfg Config) error {
	s, err := store.OpenReadOnly(cfg.DBPath)
	if err != nil {
		return errors.Wrapf(err, "opening store %s", cfg.DBPath)
	}
	defer s.Close()

	srv, _, _ := NewServer(cfg, s)
	logging.ServerStartup("browse_api", "http", cfg.Port, "db", cfg.DBPath)
	return srv.ListenAndServe()
}
