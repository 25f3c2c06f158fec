package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/services"
)

type assignAgentRequest struct {
	AgentID string `json:"agentId" binding:"required"`
}

// AssignDeliveryAgent handles PUT /api/orders/:id/agent (admin only).
func AssignDeliveryAgent(svc *services.LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ASSIGN_AGENT")

		actor, ok := actorFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "ASSIGN_AGENT", "unauthorized")
			return
		}
		id, ok := orderIDParam(c)
		if !ok {
			return
		}

		var req assignAgentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "ASSIGN_AGENT", "invalid request body")
			return
		}
		agentID, err := primitive.ObjectIDFromHex(req.AgentID)
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "ASSIGN_AGENT", "invalid agent id")
			return
		}

		order, err := svc.AssignAgent(c.Request.Context(), actor, id, agentID)
		if err != nil {
			respondServiceError(c, "ASSIGN_AGENT", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

// UnassignDeliveryAgent handles DELETE /api/orders/:id/agent (admin only).
func UnassignDeliveryAgent(svc *services.LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "UNASSIGN_AGENT")

		actor, ok := actorFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "UNASSIGN_AGENT", "unauthorized")
			return
		}
		id, ok := orderIDParam(c)
		if !ok {
			return
		}

		order, err := svc.UnassignAgent(c.Request.Context(), actor, id)
		if err != nil {
			respondServiceError(c, "UNASSIGN_AGENT", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}
