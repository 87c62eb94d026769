package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/utils"
)

// Sender is the delivery side of a realtime connection. Send is
// best-effort: it returns false when the event could not be queued, and
// the caller does not retry.
type Sender interface {
	ID() string
	Send(event models.Event) bool
	Close()
}

type onlineRecord struct {
	entry models.OnlineEntry
	conn  Sender
}

// PresenceRegistry is the process-wide map of online users. One record
// per user: connecting again replaces the previous record and closes the
// displaced connection. Entry existence is the definition of "online".
type PresenceRegistry struct {
	members MembershipStore
	logger  *utils.Logger
	entries sync.Map // userID -> *onlineRecord
}

func NewPresenceRegistry(members MembershipStore, logger *utils.Logger) *PresenceRegistry {
	return &PresenceRegistry{
		members: members,
		logger:  logger,
	}
}

// Connect installs a presence entry for the identity. The membership
// snapshot is loaded first; if that lookup fails no entry is installed
// and the connection is treated as not registered. On success it returns
// the new entry and the full online snapshot, including the caller.
func (r *PresenceRegistry) Connect(ctx context.Context, identity models.ConnectionIdentity, conn Sender) (models.OnlineEntry, []models.OnlineEntry, error) {
	projectIDs, err := r.members.ListProjectIDsForUser(ctx, identity.UserID)
	if err != nil {
		return models.OnlineEntry{}, nil, fmt.Errorf("membership lookup failed: %w", err)
	}

	entry := models.OnlineEntry{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		ProjectIDs:  projectIDs,
		ConnectedAt: time.Now(),
	}

	previous, replaced := r.entries.Swap(identity.UserID, &onlineRecord{entry: entry, conn: conn})
	if replaced {
		if prev := previous.(*onlineRecord); prev.conn.ID() != conn.ID() {
			// Single slot per user: the older connection is displaced
			// and must stop receiving.
			prev.conn.Close()
			r.logger.Debug("displaced previous connection", "user_id", identity.UserID)
		}
	}

	return entry, r.Snapshot(), nil
}

// Disconnect removes the entry for the user, but only when it still
// belongs to the given connection. A displaced connection closing late
// must not evict the entry its replacement installed. Removal is
// idempotent; the second call reports removed=false.
func (r *PresenceRegistry) Disconnect(userID string, conn Sender) (models.OnlineEntry, bool) {
	value, ok := r.entries.Load(userID)
	if !ok {
		return models.OnlineEntry{}, false
	}
	record := value.(*onlineRecord)
	if record.conn.ID() != conn.ID() {
		return models.OnlineEntry{}, false
	}
	if !r.entries.CompareAndDelete(userID, value) {
		return models.OnlineEntry{}, false
	}
	return record.entry, true
}

// OnlineUsersExcluding returns the ids of every online user whose
// membership snapshot contains projectID, except excludedUserID. The
// read is a consistent point-in-time pass over the registry.
func (r *PresenceRegistry) OnlineUsersExcluding(projectID, excludedUserID string) []string {
	userIDs := make([]string, 0)
	r.entries.Range(func(_, value interface{}) bool {
		record := value.(*onlineRecord)
		if record.entry.UserID == excludedUserID {
			return true
		}
		if record.entry.InProject(projectID) {
			userIDs = append(userIDs, record.entry.UserID)
		}
		return true
	})
	return userIDs
}

// Snapshot returns every online entry.
func (r *PresenceRegistry) Snapshot() []models.OnlineEntry {
	entries := make([]models.OnlineEntry, 0)
	r.entries.Range(func(_, value interface{}) bool {
		entries = append(entries, value.(*onlineRecord).entry)
		return true
	})
	return entries
}

// Conn returns the connection currently registered for a user.
func (r *PresenceRegistry) Conn(userID string) (Sender, bool) {
	value, ok := r.entries.Load(userID)
	if !ok {
		return nil, false
	}
	return value.(*onlineRecord).conn, true
}

// AllConns returns every registered connection.
func (r *PresenceRegistry) AllConns() []Sender {
	conns := make([]Sender, 0)
	r.entries.Range(func(_, value interface{}) bool {
		conns = append(conns, value.(*onlineRecord).conn)
		return true
	})
	return conns
}

// CloseAll closes every registered connection. Used on shutdown; the
// per-connection cleanup path then deregisters each entry.
func (r *PresenceRegistry) CloseAll() {
	for _, conn := range r.AllConns() {
		conn.Close()
	}
}
