package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/BanhTuanKiet/ProjectManagement-sub001/config"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/middleware"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/models"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/services"
	"github.com/BanhTuanKiet/ProjectManagement-sub001/utils"
)

// WSHandler upgrades authenticated requests to WebSocket connections and
// bridges them into the collaboration service.
type WSHandler struct {
	collab   *services.CollabService
	cfg      *config.Config
	logger   *utils.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(collab *services.CollabService, cfg *config.Config, logger *utils.Logger) *WSHandler {
	return &WSHandler{
		collab: collab,
		cfg:    cfg,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Cross-origin policy is handled by the CORS middleware.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handle serves GET /ws.
func (h *WSHandler) Handle(c *gin.Context) {
	userID := c.GetString(middleware.ContextUserID)
	displayName := c.GetString(middleware.ContextDisplayName)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "client_ip", c.ClientIP())
		return
	}

	client := newClient(conn, h.cfg.SendBufferSize, h.cfg.WriteTimeout, h.cfg.PongTimeout, h.logger)
	client.identity = services.ResolveIdentity(userID, displayName, client.ID())

	go client.writePump()

	if err := h.collab.HandleConnect(c.Request.Context(), client.identity, client); err != nil {
		h.logger.Error("presence registration failed", "user_id", client.identity.UserID, "error", err)
		client.sendError("connect_failed", "Could not register presence, reconnect to retry")
		client.Close()
		return
	}

	client.readPump(h.handleMessage, func() {
		h.collab.HandleDisconnect(client.identity, client)
	})
}

func (h *WSHandler) handleMessage(client *Client, msg models.ClientMessage) {
	switch msg.Type {
	case models.MessageJoinTaskRoom:
		taskID, ok := h.taskID(client, msg.Payload)
		if !ok {
			return
		}
		viewers := h.collab.JoinTaskRoom(client.identity, taskID)
		client.Send(models.NewEvent(models.EventActiveViewers, models.ActiveViewersPayload{
			TaskID:  taskID,
			Viewers: viewers,
		}))

	case models.MessageLeaveTaskRoom:
		h.collab.LeaveTaskRoom(client.identity)

	case models.MessageGetActiveViewers:
		taskID, ok := h.taskID(client, msg.Payload)
		if !ok {
			return
		}
		client.Send(models.NewEvent(models.EventActiveViewers, models.ActiveViewersPayload{
			TaskID:  taskID,
			Viewers: h.collab.ActiveViewers(taskID),
		}))

	default:
		client.sendError("unknown_message", "Unknown message type: "+msg.Type)
	}
}

func (h *WSHandler) taskID(client *Client, payload json.RawMessage) (string, bool) {
	var p models.TaskRoomPayload
	if err := json.Unmarshal(payload, &p); err != nil || p.TaskID == "" {
		client.sendError("invalid_payload", "task_id is required")
		return "", false
	}
	return p.TaskID, true
}
