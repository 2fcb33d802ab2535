package session

import (
	"log"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"grouprelay/internal/model/group"
	"grouprelay/internal/registry"
)

// Emitter is the transport primitive the coordinator drives: deliver a named
// event to one connection or to a set of connections. Delivery is best-effort.
type Emitter interface {
	Emit(connID, event string, payload any)
	EmitTo(connIDs []string, event string, payload any)
}

// Session is the live binding between a connection, its display name, and the
// group it currently occupies.
type Session struct {
	ConnID   string
	Username string
	GroupID  string
}

// Coordinator mediates every inbound event: it validates against the group
// registry, mutates shared state, and drives the resulting broadcasts.
//
// A single mutex serializes event handling, so per-group mutations and the
// broadcasts they trigger are observed by every member in one consistent
// order.
type Coordinator struct {
	mu       sync.Mutex
	reg      *registry.Registry
	emitter  Emitter
	sessions map[string]*Session
	validate *validator.Validate
}

// NewCoordinator wires a coordinator to its registry and transport.
func NewCoordinator(reg *registry.Registry, emitter Emitter) *Coordinator {
	return &Coordinator{
		reg:      reg,
		emitter:  emitter,
		sessions: make(map[string]*Session),
		validate: validator.New(),
	}
}

// Connect provisions an empty session for a freshly accepted connection.
func (c *Coordinator) Connect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sessions[connID] = &Session{ConnID: connID}
	log.Printf("[session] connected conn=%s total=%d", connID, len(c.sessions))
}

// Disconnect unwinds a session regardless of the state it reached: a session
// that never joined a group is simply discarded, a bound one leaves its group
// first so the remaining members hear about it.
func (c *Coordinator) Disconnect(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[connID]
	if !ok {
		return
	}
	if sess.GroupID != "" {
		c.leaveCurrentGroup(sess)
	}
	delete(c.sessions, connID)
	log.Printf("[session] disconnected conn=%s total=%d", connID, len(c.sessions))
}

// leaveCurrentGroup removes the session from its group and notifies the
// remaining members. Callers hold c.mu and guarantee sess.GroupID is set.
func (c *Coordinator) leaveCurrentGroup(sess *Session) {
	members, err := c.reg.RemoveMember(sess.GroupID, sess.ConnID)
	if err != nil {
		// Group vanished from under the session; nothing left to notify.
		sess.GroupID = ""
		return
	}

	remaining := connIDs(members)
	c.emitter.EmitTo(remaining, EventUserLeft, userPayload{Username: sess.Username})
	c.emitter.EmitTo(remaining, EventUpdateMembers, membersPayload{Members: usernames(members)})

	log.Printf("[session] conn=%s left group=%s members=%d", sess.ConnID, sess.GroupID, len(members))
	sess.GroupID = ""
}

func connIDs(members []group.Member) []string {
	return lo.Map(members, func(m group.Member, _ int) string { return m.ConnID })
}

func usernames(members []group.Member) []string {
	return lo.Map(members, func(m group.Member, _ int) string { return m.Username })
}
