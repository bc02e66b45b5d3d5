// Package relay turns one inbound content event into N outbound deliveries,
// one per other connection, each individually transformed.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/pairtalk/pairtalk/internal/proto"
	"github.com/pairtalk/pairtalk/internal/registry"
	"github.com/pairtalk/pairtalk/internal/translate"
)

// Wire error markers attached to degraded deliveries. The original text is
// never withheld; only the translation is best-effort.
const (
	reasonDetection   = "language detection failed"
	reasonQuota       = "translation quota exceeded"
	reasonRateLimited = "translation rate limited"
	reasonUpstream    = "translation failed"
)

// Sink delivers one event to one connection. It returns false when the
// recipient vanished mid-relay, which the dispatcher silently skips.
type Sink interface {
	Deliver(connID, event string, data any) bool
}

// Dispatcher computes the outbound payload for every other registered
// connection, invoking the translation gateway per recipient as needed.
type Dispatcher struct {
	reg  *registry.Registry
	gw   *translate.Gateway
	sink Sink
}

func NewDispatcher(reg *registry.Registry, gw *translate.Gateway, sink Sink) *Dispatcher {
	return &Dispatcher{reg: reg, gw: gw, sink: sink}
}

// RelayChat broadcasts one chat message, translating per recipient. It runs
// in the sender's event loop, so a sender's messages reach each recipient
// in send order.
func (d *Dispatcher) RelayChat(ctx context.Context, senderID string, msg proto.ChatMessage) {
	recipients := d.reg.Others(senderID)
	if len(recipients) == 0 {
		return
	}

	src, err := d.gw.Detect(ctx, msg.Message)
	if err != nil {
		// Untranslatable: everyone gets the verbatim text with an error
		// marker and no translation attempt.
		for _, r := range recipients {
			d.sink.Deliver(r.ID, proto.EventChatMessage, proto.ChatDelivery{
				Message:  msg.Message,
				UserName: msg.UserName,
				Error:    reasonDetection,
			})
		}
		return
	}

	for _, r := range recipients {
		target := r.Language
		if target == src {
			d.sink.Deliver(r.ID, proto.EventChatMessage, proto.ChatDelivery{
				Message:        msg.Message,
				UserName:       msg.UserName,
				SourceLanguage: src,
			})
			continue
		}

		translated, err := d.gw.Translate(ctx, senderID, msg.Message, target)
		if err != nil {
			d.sink.Deliver(r.ID, proto.EventChatMessage, proto.ChatDelivery{
				Message:  msg.Message,
				UserName: msg.UserName,
				Error:    failureReason(err),
			})
			continue
		}

		d.sink.Deliver(r.ID, proto.EventChatMessage, proto.ChatDelivery{
			Message:        msg.Message,
			Translation:    translated,
			UserName:       msg.UserName,
			SourceLanguage: src,
			TargetLanguage: target,
		})
	}
}

// RelayPhoto delivers the opaque payload verbatim to every other
// connection. Transport errors are the transport's concern.
func (d *Dispatcher) RelayPhoto(senderID string, payload json.RawMessage) {
	sent := 0
	for _, r := range d.reg.Others(senderID) {
		if d.sink.Deliver(r.ID, proto.EventPhoto, payload) {
			sent++
		}
	}
	log.Printf("RELAY: photo from %s forwarded to %d peers", senderID, sent)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, translate.ErrQuotaExceeded):
		return reasonQuota
	case errors.Is(err, translate.ErrRateLimited):
		return reasonRateLimited
	default:
		return reasonUpstream
	}
}
