// Package call validates and applies call lifecycle transitions against the
// connection registry. There is exactly one shared call slot system-wide;
// concurrent call requests contend for it and the loser is absorbed as a
// stale event, mirroring the protocol's lack of a busy signal.
package call

import (
	"log"
	"sync"

	"github.com/pairtalk/pairtalk/internal/proto"
	"github.com/pairtalk/pairtalk/internal/registry"
)

// State of the shared call slot.
type State string

const (
	StateIdle    State = "idle"
	StateRinging State = "ringing"
	StateActive  State = "active"
)

// Broadcaster delivers a call event to every connection except exceptID.
type Broadcaster interface {
	Broadcast(exceptID, event string, data any)
}

// Machine owns the call slot. All transitions serialize on its mutex, so a
// disconnect racing an accept on the same connection resolves
// deterministically: whichever acquires the lock first wins, and the loser
// finds the slot reset and is dropped as stale.
type Machine struct {
	reg *registry.Registry
	bc  Broadcaster

	mu         sync.Mutex
	state      State
	callerID   string
	accepterID string
}

func New(reg *registry.Registry, bc Broadcaster) *Machine {
	return &Machine{
		reg:   reg,
		bc:    bc,
		state: StateIdle,
	}
}

// Request starts ringing on behalf of connID. A request while the slot is
// busy is ignored — no busy signal is sent.
func (m *Machine) Request(connID, callerName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateIdle {
		log.Printf("CALL: request from %s ignored, slot is %s", connID, m.state)
		return false
	}
	if _, ok := m.reg.Get(connID); !ok {
		return false
	}

	m.state = StateRinging
	m.callerID = connID
	m.reg.SetRole(connID, registry.RoleCaller)

	m.bc.Broadcast(connID, proto.EventCallRequest, proto.CallRequest{Caller: callerName})
	log.Printf("CALL: %s requested, ringing", connID)
	return true
}

// Accept answers a ringing call. The accepter must be live and must not be
// the caller. Stale accepts (slot not ringing) are absorbed silently.
func (m *Machine) Accept(connID, accepterName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRinging || connID == m.callerID {
		return false
	}
	if _, ok := m.reg.Get(connID); !ok {
		return false
	}

	m.state = StateActive
	m.accepterID = connID
	m.reg.SetRole(connID, registry.RoleCallee)

	m.bc.Broadcast(connID, proto.EventCallAccepted, proto.CallAccepted{Accepter: accepterName})
	log.Printf("CALL: %s accepted call from %s", connID, m.callerID)
	return true
}

// Decline refuses a ringing call and resets the slot.
func (m *Machine) Decline(connID, declinerName string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateRinging {
		return false
	}

	m.resetLocked()
	m.bc.Broadcast(connID, proto.EventCallDeclined, proto.CallDeclined{Decliner: declinerName})
	log.Printf("CALL: %s declined", connID)
	return true
}

// End terminates an active call. Only a participant may end it; anything
// else is a stale event.
func (m *Machine) End(connID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateActive || (connID != m.callerID && connID != m.accepterID) {
		return false
	}

	m.resetLocked()
	m.bc.Broadcast(connID, proto.EventCallEnded, nil)
	log.Printf("CALL: ended by %s", connID)
	return true
}

// HandleDisconnect force-terminates the call if connID held a call role.
// The "call ended" broadcast excludes the disconnected connection, which is
// gone anyway.
func (m *Machine) HandleDisconnect(connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == StateIdle || (connID != m.callerID && connID != m.accepterID) {
		return
	}

	m.resetLocked()
	m.bc.Broadcast(connID, proto.EventCallEnded, nil)
	log.Printf("CALL: ended, participant %s disconnected", connID)
}

// Status returns the current slot state and participants.
func (m *Machine) Status() (State, string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.callerID, m.accepterID
}

// resetLocked returns the slot to Idle and clears roles. Caller holds m.mu.
func (m *Machine) resetLocked() {
	if m.callerID != "" {
		m.reg.SetRole(m.callerID, registry.RoleNone)
	}
	if m.accepterID != "" {
		m.reg.SetRole(m.accepterID, registry.RoleNone)
	}
	m.state = StateIdle
	m.callerID = ""
	m.accepterID = ""
}
