package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/services"
)

func handlePanic(c *gin.Context, route string) {
	if r := recover(); r != nil {
		log.Printf("[%s] panic recovered: %v", route, r)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, status int, route string, message string) {
	log.Printf("[%s] returning error %d: %s", route, status, message)
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondServiceError maps the service error taxonomy onto HTTP statuses.
// Anything outside the taxonomy is an unexpected persistence failure: log the
// detail, return a generic message.
func respondServiceError(c *gin.Context, route string, err error) {
	var (
		valErr     *services.ValidationError
		nfErr      *services.NotFoundError
		authErr    *services.AuthorizationError
		stateErr   *services.StateError
		gatewayErr *services.GatewayError
	)
	switch {
	case errors.As(err, &valErr):
		respondWithError(c, http.StatusBadRequest, route, valErr.Msg)
	case errors.As(err, &nfErr):
		respondWithError(c, http.StatusNotFound, route, nfErr.Error())
	case errors.As(err, &authErr):
		respondWithError(c, http.StatusForbidden, route, authErr.Msg)
	case errors.As(err, &stateErr):
		respondWithError(c, http.StatusConflict, route, stateErr.Msg)
	case errors.As(err, &gatewayErr):
		respondWithError(c, http.StatusBadGateway, route, "upstream gateway failure")
	default:
		log.Printf("[%s] [ERROR] unexpected failure: %v", route, err)
		respondWithError(c, http.StatusInternalServerError, route, "db error")
	}
}

// actorFromContext rebuilds the authenticated actor injected by AuthGuard.
func actorFromContext(c *gin.Context) (services.Actor, bool) {
	userID, ok := c.Get("userId")
	if !ok {
		return services.Actor{}, false
	}
	id, ok := userID.(primitive.ObjectID)
	if !ok {
		return services.Actor{}, false
	}
	return services.Actor{
		ID:   id,
		Role: c.GetString("role"),
		Name: c.GetString("name"),
	}, true
}

func orderIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return primitive.NilObjectID, false
	}
	return id, true
}
