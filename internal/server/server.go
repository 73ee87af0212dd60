package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/bindcfg/internal/broker"
	"github.com/conneroisu/bindcfg/internal/config"
	binderrors "github.com/conneroisu/bindcfg/internal/errors"
	"github.com/conneroisu/bindcfg/internal/logging"
	"github.com/conneroisu/bindcfg/internal/persist"
	"github.com/conneroisu/bindcfg/internal/registry"
	"github.com/conneroisu/bindcfg/internal/store"
)

// EntryMessage is the wire form of a published entry, both on the
// WebSocket feed and the HTTP edit endpoint. Kind defaults to "string" on
// input, matching what a text field publishes.
type EntryMessage struct {
	Type      string     `json:"type,omitempty"`
	Key       string     `json:"key"`
	Kind      store.Kind `json:"kind,omitempty"`
	Value     string     `json:"value"`
	Timestamp time.Time  `json:"timestamp,omitempty"`
}

// Server exposes the broker over HTTP and WebSocket.
type Server struct {
	cfg      *config.Config
	broker   *broker.Broker
	bridge   *persist.Bridge
	registry *registry.BindingRegistry
	logger   logging.Logger
	hub      *Hub

	nextClient atomic.Uint64

	httpServer *http.Server
}

// New creates a sync server. A nil logger disables logging.
func New(cfg *config.Config, b *broker.Broker, bridge *persist.Bridge, reg *registry.BindingRegistry, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger{}
	}

	s := &Server{
		cfg:      cfg,
		broker:   b,
		bridge:   bridge,
		registry: reg,
		logger:   logger.WithComponent("server"),
		hub:      NewHub(logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /entries", s.handleGetEntries)
	mux.HandleFunc("POST /entries", s.handlePublish)
	mux.HandleFunc("POST /save/{id}", s.handleSave)
	mux.HandleFunc("POST /load/{id}", s.handleLoad)
	mux.HandleFunc("GET /bindings", s.handleBindings)
	mux.HandleFunc("GET /ws", s.handleWebSocket)

	s.httpServer = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Start serves until ctx is cancelled, then shuts down gracefully. Every
// broker publish is forwarded to all connected WebSocket clients.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return binderrors.NewIOError("LISTEN_FAILED", "could not bind server address", err)
	}

	events := s.broker.Watch()
	go s.forwardEvents(events)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	s.logger.Info(ctx, "sync server listening", "addr", listener.Addr().String())

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.broker.Unwatch(events)
		s.hub.Shutdown()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		s.hub.Shutdown()
		return err
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Handler returns the HTTP handler, for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// forwardEvents turns broker events into WebSocket broadcasts. The loop
// ends when the watch channel closes (Unwatch or broker Close).
func (s *Server) forwardEvents(events <-chan broker.Event) {
	for event := range events {
		message := EntryMessage{
			Type:      "entry",
			Key:       event.Entry.Key,
			Kind:      event.Entry.Value.Kind(),
			Value:     event.Entry.Value.Text(),
			Timestamp: event.Timestamp,
		}

		data, err := json.Marshal(message)
		if err != nil {
			continue
		}
		s.hub.Broadcast(data)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"entries": s.broker.Store().Len(),
		"clients": s.hub.ClientCount(),
	})
}

func (s *Server) handleGetEntries(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.broker.Store().Export())
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	var message EntryMessage
	if err := json.NewDecoder(r.Body).Decode(&message); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	entry, err := entryFromMessage(message)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.broker.Publish(r.Context(), entry); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, entry)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.bridge.Save(r.Context(), id); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"saved":   id,
		"entries": s.broker.Store().Len(),
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.bridge.Load(r.Context(), id); err != nil {
		s.writeError(w, statusFor(err), err)
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"loaded":  id,
		"entries": s.broker.Store().Len(),
	})
}

func (s *Server) handleBindings(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.registry.GetAll())
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.cfg.Server.AllowedOrigins,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "websocket accept failed")
		return
	}

	// Each connected client is a live remote binding. It mirrors every
	// key, so its binding key is the wildcard.
	id := fmt.Sprintf("ws-%d", s.nextClient.Add(1))
	if err := s.registry.Register(&registry.BindingInfo{ID: id, Key: "*"}); err != nil {
		s.logger.Warn(r.Context(), err, "binding registration failed", "id", id)
	}

	s.hub.Register(conn)
	go s.readLoop(conn, id)
}

// readLoop publishes inbound client edits until the connection drops.
func (s *Server) readLoop(conn *websocket.Conn, bindingID string) {
	ctx := context.Background()
	defer s.registry.Remove(bindingID)
	defer s.hub.Unregister(conn)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			return
		}

		var message EntryMessage
		if err := json.Unmarshal(data, &message); err != nil {
			s.logger.Warn(ctx, err, "ignoring malformed client message")
			continue
		}

		entry, err := entryFromMessage(message)
		if err != nil {
			s.logger.Warn(ctx, err, "ignoring invalid client entry", "key", message.Key)
			continue
		}

		if err := s.broker.Publish(ctx, entry); err != nil {
			s.logger.Error(ctx, err, "client publish failed", "key", entry.Key)
		}
	}
}

func entryFromMessage(message EntryMessage) (store.Entry, error) {
	kind := message.Kind
	if kind == "" {
		kind = store.KindString
	}

	value, err := store.ParseValue(kind, message.Value)
	if err != nil {
		return store.Entry{}, err
	}

	return store.NewEntry(message.Key, value), nil
}

// statusFor maps a BindError to an HTTP status.
func statusFor(err error) int {
	var be *binderrors.BindError
	if errors.As(err, &be) {
		switch be.Type {
		case binderrors.ErrorTypeValidation:
			return http.StatusBadRequest
		case binderrors.ErrorTypeClosed:
			return http.StatusServiceUnavailable
		default:
			return http.StatusInternalServerError
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn(context.Background(), err, "response encode failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
