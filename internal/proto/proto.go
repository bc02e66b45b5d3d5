
package proto

import (
	"encoding/json"
	"time"
)

// Event names — the wire contract between clients and the relay.
const (
	EventSetLanguage  = "set language"
	EventChatMessage  = "chat message"
	EventPhoto        = "photo"
	EventCallRequest  = "call request"
	EventCallAccepted = "call accepted"
	EventCallDeclined = "call declined"
	EventEndCall      = "end call"
	EventCallEnded    = "call ended"
	EventUserStatus   = "user status update"
)

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// DefaultLanguage is the language assigned to a connection until it
// declares a preference.
const DefaultLanguage = "EN"

// Envelope frames every message on the websocket: an event name plus an
// event-specific payload.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SetLanguage updates the sender's language preference.
type SetLanguage struct {
	Language string `json:"language"`
}

// ChatMessage is an inbound chat message from a client.
type ChatMessage struct {
	Message  string `json:"message"`
	UserName string `json:"userName"`
}

// ChatDelivery is the per-recipient outbound form of a chat message.
// Translation is present only when the message was translated; Error is set
// when translation was needed but failed — the original Message is always
// delivered regardless.
type ChatDelivery struct {
	Message        string `json:"message"`
	Translation    string `json:"translation,omitempty"`
	UserName       string `json:"userName"`
	SourceLanguage string `json:"sourceLanguage,omitempty"`
	TargetLanguage string `json:"targetLanguage,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CallRequest announces that Caller wants to start a call.
type CallRequest struct {
	Caller string `json:"caller"`
}

// CallAccepted announces that Accepter picked up.
type CallAccepted struct {
	Accepter string `json:"accepter"`
}

// CallDeclined announces that Decliner refused the call.
type CallDeclined struct {
	Decliner string `json:"decliner"`
}

// UserStatus announces a registry membership change.
type UserStatus struct {
	UserName string `json:"userName,omitempty"`
	Status   string `json:"status"`
}

func NowMillis() int64 { return time.Now().UnixMilli() }
