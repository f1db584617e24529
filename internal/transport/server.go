// Package transport carries the Client↔Hub connection: event batches go
// up as HTTP POSTs (the response is the delivery ack), snapshots stream
// down over a websocket.
package transport

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"sync"

	"github.com/gorilla/websocket"
	"golang.org/x/crypto/bcrypt"

	"hemlist/engine/internal/hub"
	"hemlist/engine/internal/list"
)

type frame struct {
	Type     string      `json:"type"` // "hello" | "snapshot"
	ClientID string      `json:"clientId,omitempty"`
	Items    []list.Item `json:"items,omitempty"`
}

// HashSyncToken prepares a token for Server construction.
func HashSyncToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

type Server struct {
	hub       *hub.Hub
	tokenHash []byte
	upgrader  websocket.Upgrader
}

func NewServer(h *hub.Hub, tokenHash string) *Server {
	return &Server{
		hub:       h,
		tokenHash: []byte(tokenHash),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.Handler {
	return http.HandlerFunc(s.handle)
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if !s.authorized(r) {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid sync token")
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/api/list":
		writeJSON(w, http.StatusOK, map[string]any{"items": s.hub.Items()})
	case r.Method == http.MethodPost && r.URL.Path == "/api/events":
		s.handlePushEvents(w, r)
	case r.Method == http.MethodGet && r.URL.Path == "/sync":
		s.handleSync(w, r)
	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "no such endpoint")
	}
}

func (s *Server) authorized(r *http.Request) bool {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(s.tokenHash, []byte(token)) == nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

// handlePushEvents applies a client batch. A 200 response is the ack that
// lets the client truncate its outbox; a malformed payload is rejected
// without touching the store.
func (s *Server) handlePushEvents(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	var body struct {
		Events json.RawMessage `json:"events"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", "malformed body")
		return
	}
	events, err := list.UnmarshalEvents(body.Events)
	if err != nil {
		writeError(w, http.StatusBadRequest, "BAD_EVENTS", err.Error())
		return
	}

	s.hub.PushEvents(r.Context(), events, r.Header.Get("X-Hemlist-Client"))
	writeJSON(w, http.StatusOK, map[string]any{"accepted": len(events)})
}

// handleSync upgrades to a websocket, registers the peer with the hub,
// and streams snapshots until the peer goes away.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("transport: upgrade failed: %v", err)
		return
	}

	handle := newWSHandle(conn)
	clientID := s.hub.ConnectClient(handle)
	if err := conn.WriteJSON(frame{Type: "hello", ClientID: clientID}); err != nil {
		s.hub.DisconnectClient(clientID)
		handle.close()
		return
	}
	go handle.writeLoop()

	// Reads only detect the peer leaving; events arrive over HTTP.
	go func() {
		defer func() {
			s.hub.DisconnectClient(clientID)
			handle.close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// wsHandle buffers at most one outgoing snapshot: a newer one replaces
// anything still waiting, so a slow reader never blocks the hub and only
// ever misses intermediate states.
type wsHandle struct {
	conn    *websocket.Conn
	pending chan []list.Item
	once    sync.Once
	done    chan struct{}
}

func newWSHandle(conn *websocket.Conn) *wsHandle {
	return &wsHandle{
		conn:    conn,
		pending: make(chan []list.Item, 1),
		done:    make(chan struct{}),
	}
}

func (h *wsHandle) SendSnapshot(items []list.Item) {
	for {
		select {
		case h.pending <- items:
			return
		case <-h.done:
			return
		default:
			select {
			case <-h.pending:
			default:
			}
		}
	}
}

func (h *wsHandle) writeLoop() {
	for {
		select {
		case items := <-h.pending:
			if err := h.conn.WriteJSON(frame{Type: "snapshot", Items: items}); err != nil {
				h.close()
				return
			}
		case <-h.done:
			return
		}
	}
}

func (h *wsHandle) close() {
	h.once.Do(func() {
		close(h.done)
		h.conn.Close()
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("transport: write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": message}})
}
