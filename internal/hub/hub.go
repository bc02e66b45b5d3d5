// Package hub owns the websocket side of the relay: it upgrades
// connections, runs one read and one write loop per client, and dispatches
// inbound events to the registry, the relay pipeline, and the call slot.
package hub

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/pairtalk/pairtalk/internal/call"
	"github.com/pairtalk/pairtalk/internal/proto"
	"github.com/pairtalk/pairtalk/internal/registry"
	"github.com/pairtalk/pairtalk/internal/relay"
	"github.com/pairtalk/pairtalk/internal/storage"
	"github.com/pairtalk/pairtalk/internal/translate"
	"github.com/pairtalk/pairtalk/internal/usage"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 65536,
	// Identity is handled by the session layer in front of us.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub tracks live websocket clients and fans events out to them. It is the
// Sink for the relay dispatcher and the Broadcaster for the call machine.
type Hub struct {
	reg   *registry.Registry
	gov   *usage.Governor
	prefs *storage.PrefStore // nil disables preference persistence

	relay *relay.Dispatcher
	calls *call.Machine

	mu      sync.RWMutex
	clients map[string]*client
}

func New(reg *registry.Registry, gw *translate.Gateway, gov *usage.Governor, prefs *storage.PrefStore) *Hub {
	h := &Hub{
		reg:     reg,
		gov:     gov,
		prefs:   prefs,
		clients: make(map[string]*client),
	}
	h.relay = relay.NewDispatcher(reg, gw, h)
	h.calls = call.New(reg, h)
	return h
}

// Calls exposes the call slot, mainly for tests and status endpoints.
func (h *Hub) Calls() *call.Machine { return h.calls }

// ServeWS upgrades an HTTP request to a websocket connection and registers
// it. The already-authenticated identity arrives as query parameters:
// email, name, lang.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	email := q.Get("email")
	name := q.Get("name")
	lang := q.Get("lang")
	if name == "" {
		name = email
	}

	// A stored preference beats the default; an explicit lang param beats
	// both.
	if lang == "" && h.prefs != nil {
		if stored, ok := h.prefs.Language(email); ok {
			lang = stored
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("HUB: upgrade failed: %v", err)
		return
	}

	id := h.reg.Register(email, name, lang)
	c := &client{
		id:    id,
		email: email,
		name:  name,
		hub:   h,
		conn:  conn,
		send:  make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.clients[id] = c
	h.mu.Unlock()

	log.Printf("HUB: %s connected (%s, lang=%s), %d online", id, name, h.reg.LanguageOf(id), h.reg.Len())
	h.Broadcast(id, proto.EventUserStatus, proto.UserStatus{UserName: name, Status: proto.StatusOnline})

	go c.writePump()
	c.readPump()
}

// Deliver sends one event to one client. Returns false when the recipient
// is gone. A full send buffer drops the frame rather than stalling the
// sender's event loop.
func (h *Hub) Deliver(connID, event string, data any) bool {
	b, err := encodeEnvelope(event, data)
	if err != nil {
		log.Printf("HUB: encode %q: %v", event, err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[connID]
	if !ok {
		return false
	}
	select {
	case c.send <- b:
	default:
		log.Printf("HUB: %s send buffer full, dropping %q", connID, event)
	}
	return true
}

// Broadcast delivers an event to every client except exceptID.
func (h *Hub) Broadcast(exceptID, event string, data any) {
	b, err := encodeEnvelope(event, data)
	if err != nil {
		log.Printf("HUB: encode %q: %v", event, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, c := range h.clients {
		if id == exceptID {
			continue
		}
		select {
		case c.send <- b:
		default:
			log.Printf("HUB: %s send buffer full, dropping %q", id, event)
		}
	}
}

// drop tears down a client: registry removal, call teardown, cooldown
// cleanup, offline broadcast. Disconnect wins any race with in-flight call
// events because HandleDisconnect serializes on the machine's lock.
func (h *Hub) drop(c *client) {
	h.mu.Lock()
	_, tracked := h.clients[c.id]
	if tracked {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
	if !tracked {
		return
	}

	h.reg.Unregister(c.id)
	h.calls.HandleDisconnect(c.id)
	h.gov.Forget(c.id)
	c.conn.Close()

	log.Printf("HUB: %s disconnected (%s), %d online", c.id, c.name, h.reg.Len())
	h.Broadcast(c.id, proto.EventUserStatus, proto.UserStatus{UserName: c.name, Status: proto.StatusOffline})
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.drop(c)
	}
}

func encodeEnvelope(event string, data any) ([]byte, error) {
	env := proto.Envelope{Event: event}
	if data != nil {
		b, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		env.Data = b
	}
	return json.Marshal(env)
}
