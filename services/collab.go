package services

import (
	"context"

	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/utils"
)

// CollabService drives the connection lifecycle: it mutates the two
// registries and fans the resulting presence events out. The transport
// layer calls into it and owns nothing but the socket.
type CollabService struct {
	registry    *PresenceRegistry
	rooms       *TaskRooms
	broadcaster *Broadcaster
	logger      *utils.Logger
}

func NewCollabService(registry *PresenceRegistry, rooms *TaskRooms, broadcaster *Broadcaster, logger *utils.Logger) *CollabService {
	return &CollabService{
		registry:    registry,
		rooms:       rooms,
		broadcaster: broadcaster,
		logger:      logger,
	}
}

// HandleConnect registers the connection, announces it to everyone else
// and hands the caller the full online snapshot. When the membership
// lookup fails nothing is installed and nothing is broadcast; the caller
// closes the connection and the client may retry. A reconnect starts
// roomless: any task room the displaced session was viewing is left
// here, because the displaced socket's own cleanup no-ops.
func (s *CollabService) HandleConnect(ctx context.Context, identity models.ConnectionIdentity, conn Sender) error {
	entry, snapshot, err := s.registry.Connect(ctx, identity, conn)
	if err != nil {
		return err
	}

	if viewer, left := s.rooms.Leave(identity.UserID); left {
		s.broadcaster.ToRoom(viewer.TaskID, models.NewEvent(models.EventUserLeftTask, viewer))
	}

	s.broadcaster.ToEveryoneExcept(identity.UserID, models.NewEvent(models.EventUserOnline, entry))
	conn.Send(models.NewEvent(models.EventOnlineSnapshot, snapshot))

	s.logger.Info("user online", "user_id", identity.UserID, "projects", len(entry.ProjectIDs))
	return nil
}

// HandleDisconnect runs the single cleanup path for a closing
// connection: leave the task room, then deregister presence. Both legs
// are idempotent, and a connection that was displaced by a reconnect
// cleans up nothing, since the registry entry belongs to its
// replacement.
func (s *CollabService) HandleDisconnect(identity models.ConnectionIdentity, conn Sender) {
	current, ok := s.registry.Conn(identity.UserID)
	if !ok || current.ID() != conn.ID() {
		return
	}

	if viewer, left := s.rooms.Leave(identity.UserID); left {
		s.broadcaster.ToRoom(viewer.TaskID, models.NewEvent(models.EventUserLeftTask, viewer))
	}

	if _, removed := s.registry.Disconnect(identity.UserID, conn); removed {
		s.broadcaster.ToEveryone(models.NewEvent(models.EventUserOffline, models.UserOfflinePayload{
			UserID: identity.UserID,
		}))
		s.logger.Info("user offline", "user_id", identity.UserID)
	}
}

// JoinTaskRoom records the user as viewing the task, tells the other
// viewers, and returns the full roster. Moving from another task is a
// silent replace: the old room's roster reflects it on the next read
// because rosters are always computed live.
func (s *CollabService) JoinTaskRoom(identity models.ConnectionIdentity, taskID string) []models.TaskViewer {
	viewer, _ := s.rooms.Join(identity, taskID)
	s.broadcaster.ToRoomExcept(taskID, identity.UserID, models.NewEvent(models.EventUserJoinedTask, viewer))
	return s.rooms.ActiveViewers(taskID)
}

// LeaveTaskRoom removes the user's viewer record and tells the room's
// remaining viewers. No-op when the user was not viewing anything.
func (s *CollabService) LeaveTaskRoom(identity models.ConnectionIdentity) {
	viewer, left := s.rooms.Leave(identity.UserID)
	if !left {
		return
	}
	s.broadcaster.ToRoom(viewer.TaskID, models.NewEvent(models.EventUserLeftTask, viewer))
}

// ActiveViewers returns the task's current roster without changing any
// state.
func (s *CollabService) ActiveViewers(taskID string) []models.TaskViewer {
	return s.rooms.ActiveViewers(taskID)
}

// OnlineUsers returns the full presence snapshot.
func (s *CollabService) OnlineUsers() []models.OnlineEntry {
	return s.registry.Snapshot()
}

// Shutdown closes every registered connection; each one then runs its
// own cleanup path.
func (s *CollabService) Shutdown() {
	s.registry.CloseAll()
}
