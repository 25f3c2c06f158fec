package handlers

import (
	"github.com/gin-gonic/gin"

	"backend/internal/events"
)

// OrderEvents handles GET /api/ws/orders: upgrades the connection and streams
// lifecycle events to the dashboard. Auth runs in the route middleware.
func OrderEvents(hub *events.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		events.ServeWS(hub, c.Writer, c.Request)
	}
}
