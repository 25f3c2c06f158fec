package services

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/events"
	"backend/internal/models"
)

// Actor is the authenticated caller of a service operation, extracted from
// the JWT by the auth middleware.
type Actor struct {
	ID   primitive.ObjectID
	Role string
	Name string
}

func (a Actor) IsAdmin() bool         { return a.Role == models.RoleAdmin }
func (a Actor) IsCustomer() bool      { return a.Role == models.RoleCustomer }
func (a Actor) IsDeliveryAgent() bool { return a.Role == models.RoleDeliveryAgent }

func (a Actor) eventActor() events.Actor {
	return events.Actor{ID: a.ID.Hex(), Role: a.Role}
}
