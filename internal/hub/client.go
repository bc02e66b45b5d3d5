package hub

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pairtalk/pairtalk/internal/proto"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Photos travel as base64 data URLs inside the JSON frame.
	maxMessageSize = 8 << 20

	sendBuffer = 64
)

// client is one live websocket connection. Its readPump handles the
// connection's events strictly in arrival order, which is what preserves
// per-sender delivery order downstream.
type client struct {
	id    string
	email string
	name  string

	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// readPump reads envelopes off the socket and dispatches them until the
// connection dies.
func (c *client) readPump() {
	defer c.hub.drop(c)

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("HUB: %s read error: %v", c.id, err)
			}
			return
		}

		var env proto.Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			log.Printf("HUB: %s sent malformed frame: %v", c.id, err)
			continue
		}
		c.handle(env)
	}
}

// handle dispatches one inbound event. A failure here never terminates the
// connection or disturbs other connections' state.
func (c *client) handle(env proto.Envelope) {
	switch env.Event {
	case proto.EventSetLanguage:
		var p proto.SetLanguage
		if err := json.Unmarshal(env.Data, &p); err != nil {
			log.Printf("HUB: %s bad set-language payload: %v", c.id, err)
			return
		}
		c.hub.reg.SetLanguage(c.id, p.Language)
		log.Printf("HUB: %s set language %s", c.id, c.hub.reg.LanguageOf(c.id))
		if c.hub.prefs != nil && c.email != "" {
			if err := c.hub.prefs.SetLanguage(c.email, p.Language); err != nil {
				log.Printf("HUB: persist preference for %s: %v", c.email, err)
			}
		}

	case proto.EventChatMessage:
		var msg proto.ChatMessage
		if err := json.Unmarshal(env.Data, &msg); err != nil {
			log.Printf("HUB: %s bad chat payload: %v", c.id, err)
			return
		}
		if msg.UserName == "" {
			msg.UserName = c.name
		}
		// Deliberately not tied to the connection's lifetime: recipients
		// still get the message if the sender disconnects mid-translation.
		c.hub.relay.RelayChat(context.Background(), c.id, msg)

	case proto.EventPhoto:
		c.hub.relay.RelayPhoto(c.id, env.Data)

	case proto.EventCallRequest:
		var p proto.CallRequest
		_ = json.Unmarshal(env.Data, &p)
		if p.Caller == "" {
			p.Caller = c.name
		}
		c.hub.calls.Request(c.id, p.Caller)

	case proto.EventCallAccepted:
		var p proto.CallAccepted
		_ = json.Unmarshal(env.Data, &p)
		if p.Accepter == "" {
			p.Accepter = c.name
		}
		c.hub.calls.Accept(c.id, p.Accepter)

	case proto.EventCallDeclined:
		var p proto.CallDeclined
		_ = json.Unmarshal(env.Data, &p)
		if p.Decliner == "" {
			p.Decliner = c.name
		}
		c.hub.calls.Decline(c.id, p.Decliner)

	case proto.EventEndCall:
		c.hub.calls.End(c.id)

	default:
		log.Printf("HUB: %s sent unknown event %q", c.id, env.Event)
	}
}

// writePump drains the send channel onto the socket and keeps the
// connection alive with pings. Exits when the channel is closed by drop.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
