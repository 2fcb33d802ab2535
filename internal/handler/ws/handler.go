// Package ws realizes the bidirectional event channel the relay is built on:
// JSON frames over a WebSocket, one reader goroutine per connection, writes
// funneled through per-connection send queues.
package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"grouprelay/internal/config"
	"grouprelay/internal/session"
)

// Handler upgrades HTTP requests and pumps inbound events into the session
// coordinator.
type Handler struct {
	cfg      *config.Config
	hub      *Hub
	coord    *session.Coordinator
	upgrader websocket.Upgrader
}

func NewHandler(cfg *config.Config, hub *Hub, coord *session.Coordinator) *Handler {
	return &Handler{
		cfg:   cfg,
		hub:   hub,
		coord: coord,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  cfg.ReadBufferSize,
			WriteBufferSize: cfg.WriteBufferSize,
		},
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws", h.handleWS)
}

func (h *Handler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}

	connID := uuid.NewString()
	c := newClient(connID, conn, h.cfg.SendQueueSize)
	h.hub.register(c)
	h.coord.Connect(connID)

	// The disconnect path runs no matter how the read loop exits, so a
	// session always leaves exactly one group's member set.
	defer func() {
		h.coord.Disconnect(connID)
		h.hub.unregister(connID)
	}()

	go c.writePump(h.cfg.PingInterval, h.cfg.WriteTimeout)

	_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
	})

	for {
		var frame Frame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] read error conn=%s: %v", connID, err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.cfg.ReadTimeout))
		h.dispatch(connID, frame)
	}
}

// dispatch routes one inbound frame. Malformed create/join payloads earn an
// error event; everything else malformed or unknown is dropped.
func (h *Handler) dispatch(connID string, frame Frame) {
	switch frame.Event {
	case session.EventCreateGroup:
		var req session.CreateGroupRequest
		if !decode(frame.Data, &req) {
			h.hub.Emit(connID, session.EventError, "Malformed create-group payload")
			return
		}
		h.coord.CreateGroup(connID, req)
	case session.EventJoinGroup:
		var req session.JoinGroupRequest
		if !decode(frame.Data, &req) {
			h.hub.Emit(connID, session.EventError, "Malformed join-group payload")
			return
		}
		h.coord.JoinGroup(connID, req)
	case session.EventSendMessage:
		var req session.SendMessageRequest
		if decode(frame.Data, &req) {
			h.coord.SendMessage(connID, req)
		}
	case session.EventTyping:
		var req session.GroupRequest
		if decode(frame.Data, &req) {
			h.coord.Typing(connID, req)
		}
	case session.EventStopTyping:
		var req session.GroupRequest
		if decode(frame.Data, &req) {
			h.coord.StopTyping(connID, req)
		}
	case session.EventLeaveGroup:
		var req session.GroupRequest
		if decode(frame.Data, &req) {
			h.coord.LeaveGroup(connID, req)
		}
	case session.EventListPublicGroups:
		h.coord.ListPublicGroups(connID)
	default:
		log.Printf("[ws] unknown event %q from conn=%s", frame.Event, connID)
	}
}

// decode unmarshals an optional payload; a missing payload leaves the zero
// value so field validation decides what happens next.
func decode(data json.RawMessage, v any) bool {
	if len(data) == 0 {
		return true
	}
	return json.Unmarshal(data, v) == nil
}
