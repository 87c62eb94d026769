package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/services"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/utils"
)

// EventHandler receives domain events from the CRUD layer after its
// writes commit and pushes them to the right audience. An empty audience
// is a normal outcome: the response reports how many connections the
// event reached.
type EventHandler struct {
	notifier *services.Notifier
	collab   *services.CollabService
	logger   *utils.Logger
}

func NewEventHandler(notifier *services.Notifier, collab *services.CollabService, logger *utils.Logger) *EventHandler {
	return &EventHandler{
		notifier: notifier,
		collab:   collab,
		logger:   logger,
	}
}

// TaskEvent handles POST /api/v1/events/task
func (h *EventHandler) TaskEvent(c *gin.Context) {
	var req models.TaskEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	eventType := models.EventTaskChanged
	if req.Action == "added" {
		eventType = models.EventTaskAdded
	}

	delivered := h.notifier.NotifyProjectExcept(req.ProjectID, req.ActorID, models.NewEvent(eventType, req.Task))

	h.logger.Debug("task event dispatched", "project_id", req.ProjectID, "action", req.Action, "delivered", delivered)
	c.JSON(http.StatusAccepted, gin.H{
		"delivered": delivered,
	})
}

// ProjectEvent handles POST /api/v1/events/project
func (h *EventHandler) ProjectEvent(c *gin.Context) {
	var req models.ProjectEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	if req.Action == "deleted" {
		// Deletes matter to everyone holding a stale reference, member
		// or not.
		h.notifier.NotifyEveryone(models.NewEvent(models.EventProjectDeleted, req.Project))
		c.JSON(http.StatusAccepted, gin.H{
			"delivered": "all",
		})
		return
	}

	delivered := h.notifier.NotifyProjectExcept(req.ProjectID, req.ActorID, models.NewEvent(models.EventProjectChanged, req.Project))
	c.JSON(http.StatusAccepted, gin.H{
		"delivered": delivered,
	})
}

// AssignmentEvent handles POST /api/v1/events/assignment
func (h *EventHandler) AssignmentEvent(c *gin.Context) {
	var req models.AssignmentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	delivered := h.notifier.NotifyUserDirect(req.AssigneeID, models.NewEvent(models.EventTaskAssigned, req.Notification))

	c.JSON(http.StatusAccepted, gin.H{
		"delivered": delivered,
	})
}

// OnlineUsers handles GET /api/v1/presence/online
func (h *EventHandler) OnlineUsers(c *gin.Context) {
	users := h.collab.OnlineUsers()
	c.JSON(http.StatusOK, gin.H{
		"count": len(users),
		"users": users,
	})
}

// TaskViewers handles GET /api/v1/tasks/:id/viewers
func (h *EventHandler) TaskViewers(c *gin.Context) {
	taskID := c.Param("id")
	viewers := h.collab.ActiveViewers(taskID)
	c.JSON(http.StatusOK, gin.H{
		"task_id": taskID,
		"count":   len(viewers),
		"viewers": viewers,
	})
}
