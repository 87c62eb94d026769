package services

import (
	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/utils"
)

// Broadcaster fans a typed event out to an audience. It holds no state
// of its own: audiences are resolved against the presence registry and
// the task rooms at send time. Delivery is best-effort and at-most-once
// per currently open connection; a failed or absent connection is
// skipped silently.
type Broadcaster struct {
	registry *PresenceRegistry
	rooms    *TaskRooms
	logger   *utils.Logger
}

func NewBroadcaster(registry *PresenceRegistry, rooms *TaskRooms, logger *utils.Logger) *Broadcaster {
	return &Broadcaster{
		registry: registry,
		rooms:    rooms,
		logger:   logger,
	}
}

// ToEveryone delivers the event to every connected client.
func (b *Broadcaster) ToEveryone(event models.Event) {
	for _, conn := range b.registry.AllConns() {
		b.deliver(conn, event)
	}
}

// ToEveryoneExcept delivers the event to every connected client except
// the one registered for userID.
func (b *Broadcaster) ToEveryoneExcept(userID string, event models.Event) {
	excluded, _ := b.registry.Conn(userID)
	for _, conn := range b.registry.AllConns() {
		if excluded != nil && conn.ID() == excluded.ID() {
			continue
		}
		b.deliver(conn, event)
	}
}

// ToUsers delivers the event to exactly the given users. Users with no
// open connection receive nothing.
func (b *Broadcaster) ToUsers(userIDs []string, event models.Event) int {
	delivered := 0
	for _, userID := range userIDs {
		if b.ToUser(userID, event) {
			delivered++
		}
	}
	return delivered
}

// ToUser delivers the event to a single user, reporting whether it was
// queued on an open connection.
func (b *Broadcaster) ToUser(userID string, event models.Event) bool {
	conn, ok := b.registry.Conn(userID)
	if !ok {
		return false
	}
	return b.deliver(conn, event)
}

// ToRoom delivers the event to everyone currently viewing taskID.
func (b *Broadcaster) ToRoom(taskID string, event models.Event) {
	b.ToUsers(b.rooms.ViewerUserIDs(taskID), event)
}

// ToRoomExcept delivers the event to everyone viewing taskID except the
// given user.
func (b *Broadcaster) ToRoomExcept(taskID, exceptUserID string, event models.Event) {
	for _, userID := range b.rooms.ViewerUserIDs(taskID) {
		if userID == exceptUserID {
			continue
		}
		b.ToUser(userID, event)
	}
}

func (b *Broadcaster) deliver(conn Sender, event models.Event) bool {
	if !conn.Send(event) {
		b.logger.Debug("dropped event for slow or closed connection", "event", event.Type, "connection_id", conn.ID())
		return false
	}
	return true
}
