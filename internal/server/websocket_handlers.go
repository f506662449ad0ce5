package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"tipa/internal/featureflags"
	"tipa/internal/middleware"
	"tipa/internal/models"
)

// WebsocketHandler handles GET /api/ws, the live update stream for forum,
// event and membership changes. The connection is receive-only.
// @Summary Live updates
// @Description Upgrade to a websocket carrying thread_created, comment_created, event_updated and member_approved events. Pass the bearer token as ?token= when headers cannot be set.
// @Tags realtime
// @Param token query string false "Bearer token"
// @Success 101
// @Failure 403 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		memberID, _ := conn.Locals(localMemberID).(uint)
		client, err := s.hub.Register(memberID, conn)
		if err != nil {
			middleware.Logger.Warn("Websocket registration refused", "member_id", memberID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}

		middleware.Logger.Info("Websocket connected", "member_id", memberID)
		go client.WritePump()
		client.ReadPump()
		middleware.Logger.Info("Websocket disconnected", "member_id", memberID)
	})

	return func(c *fiber.Ctx) error {
		if !s.featureFlags.Enabled(featureflags.LiveUpdates, memberIDOf(c)) {
			return models.RespondWithError(c, fiber.StatusNotFound, models.NewNotFoundError("Feature", featureflags.LiveUpdates))
		}
		if !websocket.IsWebSocketUpgrade(c) {
			return models.RespondWithError(c, fiber.StatusUpgradeRequired,
				models.NewValidationError("Websocket upgrade required"))
		}
		return upgrade(c)
	}
}
