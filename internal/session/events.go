package session

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"grouprelay/internal/model/group"
	"grouprelay/internal/registry"
)

// Inbound event names.
const (
	EventCreateGroup      = "create-group"
	EventJoinGroup        = "join-group"
	EventSendMessage      = "send-message"
	EventTyping           = "typing"
	EventStopTyping       = "stop-typing"
	EventLeaveGroup       = "leave-group"
	EventListPublicGroups = "list-public-groups"
)

// Outbound event names.
const (
	EventGroupCreated  = "group-created"
	EventGroupJoined   = "group-joined"
	EventUserJoined    = "user-joined"
	EventUserLeft      = "user-left"
	EventUpdateMembers = "update-members"
	EventNewMessage    = "new-message"
	EventPublicGroups  = "public-groups"
	EventError         = "error"
)

// Error reasons surfaced to the requesting connection.
const (
	reasonGroupNotFound     = "Group not found"
	reasonIncorrectPassword = "Incorrect password"
	reasonInvalidCreate     = "Group name and username are required"
	reasonInvalidJoin       = "Group id and username are required"
)

// CreateGroupRequest is the create-group payload.
type CreateGroupRequest struct {
	GroupName string `json:"groupName" validate:"required"`
	IsPrivate bool   `json:"isPrivate"`
	Password  string `json:"password" validate:"required_if=IsPrivate true"`
	Username  string `json:"username" validate:"required"`
}

// JoinGroupRequest is the join-group payload.
type JoinGroupRequest struct {
	GroupID  string `json:"groupId" validate:"required"`
	Password string `json:"password"`
	Username string `json:"username" validate:"required"`
}

// SendMessageRequest is the send-message payload.
type SendMessageRequest struct {
	GroupID string `json:"groupId"`
	Message string `json:"message"`
}

// GroupRequest carries events that only reference a group (typing, leave).
type GroupRequest struct {
	GroupID string `json:"groupId"`
}

type groupCreatedPayload struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
	IsPrivate bool   `json:"isPrivate"`
}

type groupJoinedPayload struct {
	GroupID   string          `json:"groupId"`
	GroupName string          `json:"groupName"`
	IsPrivate bool            `json:"isPrivate"`
	Members   []string        `json:"members"`
	Messages  []group.Message `json:"messages"`
}

type userPayload struct {
	Username string `json:"username"`
}

type membersPayload struct {
	Members []string `json:"members"`
}

// CreateGroup provisions a new group and binds the creator to it. Creation
// implies joining: the requester gets group-created followed by group-joined.
func (c *Coordinator) CreateGroup(connID string, req CreateGroupRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[connID]
	if !ok {
		return
	}
	if err := c.validate.Struct(req); err != nil {
		c.emitter.Emit(connID, EventError, reasonInvalidCreate)
		return
	}

	if sess.GroupID != "" {
		c.leaveCurrentGroup(sess)
	}

	info := c.reg.CreateGroup(req.GroupName, req.IsPrivate, req.Password)
	members, err := c.reg.AddMember(info.ID, connID, req.Username)
	if err != nil {
		c.emitter.Emit(connID, EventError, reasonGroupNotFound)
		return
	}
	sess.Username = req.Username
	sess.GroupID = info.ID

	c.emitter.Emit(connID, EventGroupCreated, groupCreatedPayload{
		GroupID:   info.ID,
		GroupName: info.Name,
		IsPrivate: info.IsPrivate,
	})
	c.emitter.Emit(connID, EventGroupJoined, groupJoinedPayload{
		GroupID:   info.ID,
		GroupName: info.Name,
		IsPrivate: info.IsPrivate,
		Members:   usernames(members),
		Messages:  []group.Message{},
	})
	c.emitter.EmitTo(connIDs(members), EventUpdateMembers, membersPayload{Members: usernames(members)})

	log.Printf("[session] group created name=%q id=%s by conn=%s", info.Name, info.ID, connID)
}

// JoinGroup admits a connection into an existing group after credential
// checks. A session already bound elsewhere leaves that group first, so a
// connection is a member of at most one group at a time.
func (c *Coordinator) JoinGroup(connID string, req JoinGroupRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.sessions[connID]
	if !ok {
		return
	}
	if err := c.validate.Struct(req); err != nil {
		c.emitter.Emit(connID, EventError, reasonInvalidJoin)
		return
	}

	if err := c.reg.ValidateJoin(req.GroupID, req.Password); err != nil {
		c.emitter.Emit(connID, EventError, joinFailureReason(err))
		return
	}

	if sess.GroupID != "" && sess.GroupID != req.GroupID {
		c.leaveCurrentGroup(sess)
	}

	info, err := c.reg.GetGroup(req.GroupID)
	if err != nil {
		c.emitter.Emit(connID, EventError, reasonGroupNotFound)
		return
	}
	members, err := c.reg.AddMember(req.GroupID, connID, req.Username)
	if err != nil {
		c.emitter.Emit(connID, EventError, reasonGroupNotFound)
		return
	}
	messages, err := c.reg.Messages(req.GroupID)
	if err != nil {
		messages = nil
	}
	sess.Username = req.Username
	sess.GroupID = req.GroupID

	names := usernames(members)
	all := connIDs(members)

	c.emitter.Emit(connID, EventGroupJoined, groupJoinedPayload{
		GroupID:   info.ID,
		GroupName: info.Name,
		IsPrivate: info.IsPrivate,
		Members:   names,
		Messages:  messages,
	})
	c.emitter.EmitTo(lo.Without(all, connID), EventUserJoined, userPayload{Username: req.Username})
	c.emitter.EmitTo(all, EventUpdateMembers, membersPayload{Members: names})

	log.Printf("[session] conn=%s joined group=%s as %q members=%d", connID, info.ID, req.Username, len(members))
}

// SendMessage appends a message to the bound group's history and fans it out
// to every member, sender included. Messages from unbound or stale sessions
// are dropped without an error.
func (c *Coordinator) SendMessage(connID string, req SendMessageRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.boundSession(connID, req.GroupID)
	if !ok {
		return
	}

	msg := group.Message{
		ID:        uuid.NewString(),
		Sender:    sess.Username,
		Text:      req.Message,
		Timestamp: time.Now().UTC(),
	}
	if err := c.reg.AppendMessage(sess.GroupID, msg); err != nil {
		return
	}

	members, err := c.reg.Members(sess.GroupID)
	if err != nil {
		return
	}
	c.emitter.EmitTo(connIDs(members), EventNewMessage, msg)
}

// Typing relays a typing indicator to the rest of the group. No state changes.
func (c *Coordinator) Typing(connID string, req GroupRequest) {
	c.relayToOthers(connID, req.GroupID, EventTyping, true)
}

// StopTyping relays the end of a typing indicator to the rest of the group.
func (c *Coordinator) StopTyping(connID string, req GroupRequest) {
	c.relayToOthers(connID, req.GroupID, EventStopTyping, false)
}

func (c *Coordinator) relayToOthers(connID, groupID, event string, withUsername bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.boundSession(connID, groupID)
	if !ok {
		return
	}
	members, err := c.reg.Members(sess.GroupID)
	if err != nil {
		return
	}

	var payload any = struct{}{}
	if withUsername {
		payload = userPayload{Username: sess.Username}
	}
	c.emitter.EmitTo(lo.Without(connIDs(members), connID), event, payload)
}

// LeaveGroup removes the connection from its current group and tells the
// remaining members.
func (c *Coordinator) LeaveGroup(connID string, req GroupRequest) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sess, ok := c.boundSession(connID, req.GroupID)
	if !ok {
		return
	}
	c.leaveCurrentGroup(sess)
}

// ListPublicGroups snapshots the lobby for the requester only.
func (c *Coordinator) ListPublicGroups(connID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.sessions[connID]; !ok {
		return
	}
	c.emitter.Emit(connID, EventPublicGroups, c.reg.ListPublicGroups())
}

// boundSession resolves a session that is bound to a group. When the event
// names a group, it must match the binding; anything else is treated as stale
// and dropped. Callers hold c.mu.
func (c *Coordinator) boundSession(connID, groupID string) (*Session, bool) {
	sess, ok := c.sessions[connID]
	if !ok || sess.GroupID == "" {
		return nil, false
	}
	if groupID != "" && groupID != sess.GroupID {
		log.Printf("[session] stale event for group=%s from conn=%s bound to group=%s", groupID, connID, sess.GroupID)
		return nil, false
	}
	return sess, true
}

func joinFailureReason(err error) string {
	if errors.Is(err, registry.ErrWrongPassword) {
		return reasonIncorrectPassword
	}
	return reasonGroupNotFound
}
