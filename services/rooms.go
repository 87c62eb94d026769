package services

import (
	"sync"

	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
)

// TaskRooms tracks which task each user is currently viewing. A user
// occupies a single slot: joining another task replaces the record.
// Rosters are always recomputed by filtering on task id, so there is no
// per-room index to keep consistent.
type TaskRooms struct {
	viewers sync.Map // userID -> models.TaskViewer
}

func NewTaskRooms() *TaskRooms {
	return &TaskRooms{}
}

// Join records the user as viewing taskID. If the user was viewing
// another task that record is replaced, and the previous viewer record
// is returned so the caller can tell a move from a fresh join.
func (t *TaskRooms) Join(identity models.ConnectionIdentity, taskID string) (models.TaskViewer, *models.TaskViewer) {
	viewer := models.TaskViewer{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
		TaskID:      taskID,
	}
	previous, replaced := t.viewers.Swap(identity.UserID, viewer)
	if !replaced {
		return viewer, nil
	}
	prev := previous.(models.TaskViewer)
	return viewer, &prev
}

// Leave removes the user's viewer record, if any. Idempotent: a second
// call reports false and the caller broadcasts nothing.
func (t *TaskRooms) Leave(userID string) (models.TaskViewer, bool) {
	previous, ok := t.viewers.LoadAndDelete(userID)
	if !ok {
		return models.TaskViewer{}, false
	}
	return previous.(models.TaskViewer), true
}

// ActiveViewers returns everyone currently viewing taskID.
func (t *TaskRooms) ActiveViewers(taskID string) []models.TaskViewer {
	viewers := make([]models.TaskViewer, 0)
	t.viewers.Range(func(_, value interface{}) bool {
		viewer := value.(models.TaskViewer)
		if viewer.TaskID == taskID {
			viewers = append(viewers, viewer)
		}
		return true
	})
	return viewers
}

// ViewerUserIDs returns the user ids of everyone viewing taskID.
func (t *TaskRooms) ViewerUserIDs(taskID string) []string {
	userIDs := make([]string, 0)
	t.viewers.Range(func(_, value interface{}) bool {
		viewer := value.(models.TaskViewer)
		if viewer.TaskID == taskID {
			userIDs = append(userIDs, viewer.UserID)
		}
		return true
	})
	return userIDs
}
