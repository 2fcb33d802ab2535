package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"grouprelay/internal/model/group"
)

var (
	ErrGroupNotFound = errors.New("group not found")
	ErrWrongPassword = errors.New("incorrect password")
)

// Registry owns every group for the lifetime of the process. Groups are never
// evicted, not even when their last member leaves.
type Registry struct {
	mu     sync.RWMutex
	groups map[string]*groupState
}

type groupState struct {
	info     group.Group
	order    []string          // connection IDs in join order
	members  map[string]string // connection ID -> display name
	messages []group.Message
}

// New bootstraps an empty in-memory registry.
func New() *Registry {
	return &Registry{
		groups: make(map[string]*groupState),
	}
}

// CreateGroup stores a new group with no members and no history. The ID is a
// fresh UUID so collisions across unrelated groups are not a practical concern.
func (r *Registry) CreateGroup(name string, isPrivate bool, password string) group.Group {
	info := group.Group{
		ID:        uuid.NewString(),
		Name:      name,
		IsPrivate: isPrivate,
		Password:  password,
		CreatedAt: time.Now().UTC(),
	}

	r.mu.Lock()
	r.groups[info.ID] = &groupState{
		info:    info,
		members: make(map[string]string),
	}
	r.mu.Unlock()

	return info
}

// GetGroup retrieves a group's immutable attributes by identifier.
func (r *Registry) GetGroup(groupID string) (group.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.groups[groupID]
	if !ok {
		return group.Group{}, ErrGroupNotFound
	}
	return st.info, nil
}

// ValidateJoin checks that a group exists and, when private, that the supplied
// password matches verbatim.
func (r *Registry) ValidateJoin(groupID, password string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	if st.info.IsPrivate && st.info.Password != password {
		return ErrWrongPassword
	}
	return nil
}

// AddMember registers a connection under the given display name. Re-adding an
// existing connection updates its name in place instead of duplicating it.
// Returns the member list as of this mutation.
func (r *Registry) AddMember(groupID, connID, username string) ([]group.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}

	if _, exists := st.members[connID]; !exists {
		st.order = append(st.order, connID)
	}
	st.members[connID] = username

	return st.memberSnapshot(), nil
}

// RemoveMember drops a connection from the group. Removing a connection that
// was never a member is a no-op. Returns the member list as of this mutation.
func (r *Registry) RemoveMember(groupID, connID string) ([]group.Member, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}

	if _, exists := st.members[connID]; exists {
		delete(st.members, connID)
		st.order = lo.Without(st.order, connID)
	}

	return st.memberSnapshot(), nil
}

// AppendMessage adds a message to the group's history. The message arrives
// fully populated; the registry only owns the ordering.
func (r *Registry) AppendMessage(groupID string, msg group.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, ok := r.groups[groupID]
	if !ok {
		return ErrGroupNotFound
	}
	st.messages = append(st.messages, msg)
	return nil
}

// Members returns the current member list for a group.
func (r *Registry) Members(groupID string) ([]group.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}
	return st.memberSnapshot(), nil
}

// Messages returns a copy of the group's message history.
func (r *Registry) Messages(groupID string) ([]group.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	st, ok := r.groups[groupID]
	if !ok {
		return nil, ErrGroupNotFound
	}

	copied := make([]group.Message, len(st.messages))
	copy(copied, st.messages)
	return copied, nil
}

// ListPublicGroups snapshots every non-private group for the lobby view.
// Ordering is unspecified.
func (r *Registry) ListPublicGroups() []group.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return lo.FilterMap(lo.Values(r.groups), func(st *groupState, _ int) (group.Summary, bool) {
		if st.info.IsPrivate {
			return group.Summary{}, false
		}
		return group.Summary{
			ID:           st.info.ID,
			Name:         st.info.Name,
			MemberCount:  len(st.members),
			MessageCount: len(st.messages),
		}, true
	})
}

// memberSnapshot materializes the member list in join order. Callers hold r.mu.
func (st *groupState) memberSnapshot() []group.Member {
	return lo.Map(st.order, func(connID string, _ int) group.Member {
		return group.Member{ConnID: connID, Username: st.members[connID]}
	})
}
