package models

import "time"

// ConnectionIdentity is the identity a realtime connection runs under.
// It is resolved once at handshake time and never changes for the life
// of the connection.
type ConnectionIdentity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}

// OnlineEntry is the presence record for a single online user. There is
// at most one entry per user: a reconnect under a new connection replaces
// the previous entry. ProjectIDs is a snapshot taken at connect time and
// is not refreshed while the connection stays open.
type OnlineEntry struct {
	UserID      string    `json:"user_id"`
	DisplayName string    `json:"display_name"`
	ProjectIDs  []string  `json:"project_ids"`
	ConnectedAt time.Time `json:"connected_at"`
}

// InProject reports whether the entry's membership snapshot contains the
// given project.
func (e OnlineEntry) InProject(projectID string) bool {
	for _, id := range e.ProjectIDs {
		if id == projectID {
			return true
		}
	}
	return false
}

// TaskViewer records that a user is currently viewing a task's detail
// view. Same single-slot rule as OnlineEntry: a user views at most one
// task at a time, joining another task replaces the record.
type TaskViewer struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	TaskID      string `json:"task_id"`
}

// ProjectMember maps a user to a project they belong to. The table is
// owned by the CRUD layer; this service only reads it.
type ProjectMember struct {
	ProjectID string `json:"project_id" gorm:"column:project_id;primaryKey"`
	UserID    string `json:"user_id" gorm:"column:user_id;primaryKey"`
}

func (ProjectMember) TableName() string {
	return "project_members"
}
