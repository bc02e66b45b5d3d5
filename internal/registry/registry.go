
package registry

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pairtalk/pairtalk/internal/proto"
)

// Role is the part a connection plays in the shared call slot.
type Role string

const (
	RoleNone   Role = "none"
	RoleCaller Role = "caller"
	RoleCallee Role = "callee"
)

// Conn is one live client channel tracked by the registry.
type Conn struct {
	ID          string
	Email       string
	Name        string
	Language    string
	CallRole    Role
	ConnectedAt time.Time
}

// Registry is the single source of truth for who is online and who speaks
// what. All mutations are atomic per entry; reads never observe a
// half-updated connection.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
	order []string // connection IDs in registration order
}

func New() *Registry {
	return &Registry{
		conns: make(map[string]Conn),
	}
}

// Register adds a connection and returns its assigned ID. An empty language
// falls back to the default preference.
func (r *Registry) Register(email, name, language string) string {
	id := uuid.NewString()
	lang := normalizeLang(language)
	if lang == "" {
		lang = proto.DefaultLanguage
	}

	r.mu.Lock()
	r.conns[id] = Conn{
		ID:          id,
		Email:       email,
		Name:        name,
		Language:    lang,
		CallRole:    RoleNone,
		ConnectedAt: time.Now(),
	}
	r.order = append(r.order, id)
	r.mu.Unlock()
	return id
}

// SetLanguage updates a connection's language preference. It is a no-op if
// the connection is already gone.
func (r *Registry) SetLanguage(id, code string) {
	code = normalizeLang(code)
	if code == "" {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return
	}
	c.Language = code
	r.conns[id] = c
}

// SetRole updates a connection's call role. No-op for unknown connections.
func (r *Registry) SetRole(id string, role Role) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return
	}
	c.CallRole = role
	r.conns[id] = c
}

// Unregister removes a connection. It returns the removed entry so the
// caller can tear down anything that referenced it (call slot, status
// broadcasts).
func (r *Registry) Unregister(id string) (Conn, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.conns[id]
	if !ok {
		return Conn{}, false
	}
	delete(r.conns, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return c, true
}

// Others returns every live connection except excludingID, in registration
// order. This is the broadcast recipient set.
func (r *Registry) Others(excludingID string) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.order))
	for _, id := range r.order {
		if id == excludingID {
			continue
		}
		out = append(out, r.conns[id])
	}
	return out
}

// LanguageOf returns the current preference for id, or the default if the
// connection is unknown.
func (r *Registry) LanguageOf(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.conns[id]; ok {
		return c.Language
	}
	return proto.DefaultLanguage
}

// Get returns the connection entry for id.
func (r *Registry) Get(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[id]
	return c, ok
}

// Len returns the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

func normalizeLang(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
