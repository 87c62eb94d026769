package services

import (
	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
)

// Notifier keeps the "who should see this" policy for domain events in
// one place: scope to the project's online members and never re-notify
// the actor. An empty audience is a valid outcome, not an error.
type Notifier struct {
	registry    *PresenceRegistry
	broadcaster *Broadcaster
}

func NewNotifier(registry *PresenceRegistry, broadcaster *Broadcaster) *Notifier {
	return &Notifier{
		registry:    registry,
		broadcaster: broadcaster,
	}
}

// NotifyProjectExcept delivers the event to every online member of the
// project except the acting user, returning how many connections it was
// queued on.
func (n *Notifier) NotifyProjectExcept(projectID, actorUserID string, event models.Event) int {
	audience := n.registry.OnlineUsersExcluding(projectID, actorUserID)
	return n.broadcaster.ToUsers(audience, event)
}

// NotifyUserDirect delivers the event to a single user.
func (n *Notifier) NotifyUserDirect(userID string, event models.Event) bool {
	return n.broadcaster.ToUser(userID, event)
}

// NotifyEveryone delivers the event to every connected client,
// regardless of project membership.
func (n *Notifier) NotifyEveryone(event models.Event) {
	n.broadcaster.ToEveryone(event)
}
