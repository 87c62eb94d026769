package models

import "encoding/json"

// EventType identifies a realtime event pushed to clients.
type EventType string

const (
	EventUserOnline     EventType = "user_online"
	EventUserOffline    EventType = "user_offline"
	EventOnlineSnapshot EventType = "online_snapshot"
	EventUserJoinedTask EventType = "user_joined_task"
	EventUserLeftTask   EventType = "user_left_task"
	EventActiveViewers  EventType = "active_viewers"
	EventTaskChanged    EventType = "task_changed"
	EventTaskAdded      EventType = "task_added"
	EventProjectChanged EventType = "project_changed"
	EventProjectDeleted EventType = "project_deleted"
	EventTaskAssigned   EventType = "task_assigned"
	EventError          EventType = "error"
)

// Event is the envelope every outbound message is wrapped in.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// NewEvent wraps a payload in an event envelope.
func NewEvent(t EventType, payload interface{}) Event {
	return Event{Type: t, Payload: payload}
}

// ClientMessage is the envelope for inbound messages from a connected
// client. The payload is decoded per message type.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Inbound client message types.
const (
	MessageJoinTaskRoom     = "joinTaskRoom"
	MessageLeaveTaskRoom    = "leaveTaskRoom"
	MessageGetActiveViewers = "getActiveViewers"
)

// TaskRoomPayload is the payload of joinTaskRoom and getActiveViewers.
type TaskRoomPayload struct {
	TaskID string `json:"task_id"`
}

// UserOfflinePayload is the payload of a user_offline event.
type UserOfflinePayload struct {
	UserID string `json:"user_id"`
}

// ActiveViewersPayload carries the current roster of a task room.
type ActiveViewersPayload struct {
	TaskID  string       `json:"task_id"`
	Viewers []TaskViewer `json:"viewers"`
}

// ErrorPayload is sent to a client when one of its messages cannot be
// processed. Delivery failures are never reported back; only protocol
// errors are.
type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// TaskEventRequest is what the CRUD layer posts after committing a task
// write. Task is opaque to this service and forwarded as-is.
type TaskEventRequest struct {
	ProjectID string          `json:"project_id" binding:"required"`
	ActorID   string          `json:"actor_id" binding:"required"`
	Action    string          `json:"action" binding:"required,oneof=changed added"`
	Task      json.RawMessage `json:"task" binding:"required"`
}

// ProjectEventRequest is what the CRUD layer posts after committing a
// project write. Deletes go to everyone; changes go to the project's
// online members, excluding the actor.
type ProjectEventRequest struct {
	ProjectID string          `json:"project_id" binding:"required"`
	ActorID   string          `json:"actor_id" binding:"required"`
	Action    string          `json:"action" binding:"required,oneof=changed deleted"`
	Project   json.RawMessage `json:"project" binding:"required"`
}

// AssignmentEventRequest targets a single assignee with a direct
// notification.
type AssignmentEventRequest struct {
	AssigneeID   string          `json:"assignee_id" binding:"required"`
	Notification json.RawMessage `json:"notification" binding:"required"`
}
