package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/events"
	"backend/internal/mocks"
	"backend/internal/models"
	"backend/internal/repository"
)

func testOrder(customerID primitive.ObjectID, status string) *models.Order {
	now := time.Now().Add(-time.Hour)
	return &models.Order{
		ID:           primitive.NewObjectID(),
		CustomerID:   customerID,
		CustomerName: "Asha",
		Items: []models.OrderItem{
			{Name: "Veg Thali", Quantity: 1, UnitBasePrice: 250, LineTotal: 250},
		},
		Status: status,
		StatusHistory: []models.StatusHistoryEntry{
			{Status: models.StatusPending, Timestamp: now, Note: "Order created"},
		},
		PaymentMethod: models.MethodCashOnDelivery,
		PaymentStatus: models.PaymentPending,
		Pricing:       models.Pricing{Subtotal: 250, Tax: 12.5, DeliveryFee: 40, Total: 302.5},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func withAgent(order *models.Order, agentID primitive.ObjectID) *models.Order {
	order.DeliveryAgentID = &agentID
	order.DeliveryAgentName = "Ravi"
	return order
}

func transitioned(order *models.Order, target, note string) *models.Order {
	updated := *order
	updated.Status = target
	updated.StatusHistory = append(append([]models.StatusHistoryEntry{}, order.StatusHistory...), models.StatusHistoryEntry{
		Status:    target,
		Timestamp: time.Now(),
		Note:      note,
	})
	return &updated
}

func newLifecycleService(orders *mocks.MockOrderRepository, users *mocks.MockUserRepository) *LifecycleService {
	return NewLifecycleService(orders, users, events.NewDispatcher())
}

func TestTransitionCustomerCancelsPreparingOrder(t *testing.T) {
	customerID := primitive.NewObjectID()
	order := testOrder(customerID, models.StatusPreparing)
	actor := Actor{ID: customerID, Role: models.RoleCustomer}

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mockOrders.On("UpdateStatusGuarded", mock.Anything, order.ID, models.StatusPreparing, mock.MatchedBy(func(u repository.StatusUpdate) bool {
		return u.Status == models.StatusCancelled && u.HistoryEntry.Status == models.StatusCancelled
	})).Return(transitioned(order, models.StatusCancelled, "Status updated to Cancelled by customer"), nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	updated, err := svc.Transition(context.Background(), actor, order.ID, models.StatusCancelled, "")

	assert.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, updated.Status)
	assert.Len(t, updated.StatusHistory, 2)
	mockOrders.AssertExpectations(t)
}

func TestTransitionSecondCancelFails(t *testing.T) {
	customerID := primitive.NewObjectID()
	order := testOrder(customerID, models.StatusCancelled)
	actor := Actor{ID: customerID, Role: models.RoleCustomer}

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	_, err := svc.Transition(context.Background(), actor, order.ID, models.StatusCancelled, "")

	var stateErr *StateError
	assert.ErrorAs(t, err, &stateErr)
	mockOrders.AssertNotCalled(t, "UpdateStatusGuarded", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransitionCustomerCannotSetOtherStatuses(t *testing.T) {
	customerID := primitive.NewObjectID()
	actor := Actor{ID: customerID, Role: models.RoleCustomer}

	for _, target := range []string{models.StatusPreparing, models.StatusOutForDelivery, models.StatusDelivered} {
		order := testOrder(customerID, models.StatusPending)
		mockOrders := new(mocks.MockOrderRepository)
		mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

		svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
		_, err := svc.Transition(context.Background(), actor, order.ID, target, "")

		var authErr *AuthorizationError
		assert.ErrorAs(t, err, &authErr, "target %s", target)
		mockOrders.AssertNotCalled(t, "UpdateStatusGuarded", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	}
}

func TestTransitionCustomerCannotCancelForeignOrder(t *testing.T) {
	order := testOrder(primitive.NewObjectID(), models.StatusPending)
	actor := Actor{ID: primitive.NewObjectID(), Role: models.RoleCustomer}

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	_, err := svc.Transition(context.Background(), actor, order.ID, models.StatusCancelled, "")

	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
}

func TestTransitionUnassignedAgentRejected(t *testing.T) {
	agentID := primitive.NewObjectID()
	order := withAgent(testOrder(primitive.NewObjectID(), models.StatusPreparing), primitive.NewObjectID())
	actor := Actor{ID: agentID, Role: models.RoleDeliveryAgent}

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	_, err := svc.Transition(context.Background(), actor, order.ID, models.StatusOutForDelivery, "")

	var authErr *AuthorizationError
	assert.ErrorAs(t, err, &authErr)
	mockOrders.AssertNotCalled(t, "UpdateStatusGuarded", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestTransitionAgentCannotDeliverUnpaidCOD(t *testing.T) {
	agentID := primitive.NewObjectID()
	order := withAgent(testOrder(primitive.NewObjectID(), models.StatusOutForDelivery), agentID)
	actor := Actor{ID: agentID, Role: models.RoleDeliveryAgent}

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	_, err := svc.Transition(context.Background(), actor, order.ID, models.StatusDelivered, "")

	var stateErr *StateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestTransitionAgentDeliversPaidCOD(t *testing.T) {
	agentID := primitive.NewObjectID()
	order := withAgent(testOrder(primitive.NewObjectID(), models.StatusOutForDelivery), agentID)
	order.PaymentStatus = models.PaymentCompleted
	actor := Actor{ID: agentID, Role: models.RoleDeliveryAgent}

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mockOrders.On("UpdateStatusGuarded", mock.Anything, order.ID, models.StatusOutForDelivery, mock.Anything).
		Return(transitioned(order, models.StatusDelivered, "Status updated to Delivered by delivery"), nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	updated, err := svc.Transition(context.Background(), actor, order.ID, models.StatusDelivered, "")

	assert.NoError(t, err)
	assert.Equal(t, models.StatusDelivered, updated.Status)
}

func TestTransitionOutForDeliverySetsETA(t *testing.T) {
	agentID := primitive.NewObjectID()
	order := withAgent(testOrder(primitive.NewObjectID(), models.StatusPreparing), agentID)
	actor := Actor{ID: agentID, Role: models.RoleDeliveryAgent}

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mockOrders.On("UpdateStatusGuarded", mock.Anything, order.ID, models.StatusPreparing, mock.MatchedBy(func(u repository.StatusUpdate) bool {
		return u.EstimatedDeliveryTime != nil && time.Until(*u.EstimatedDeliveryTime) > 25*time.Minute
	})).Return(transitioned(order, models.StatusOutForDelivery, ""), nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	_, err := svc.Transition(context.Background(), actor, order.ID, models.StatusOutForDelivery, "")

	assert.NoError(t, err)
	mockOrders.AssertExpectations(t)
}

func TestTransitionConcurrentUpdateLoses(t *testing.T) {
	customerID := primitive.NewObjectID()
	order := testOrder(customerID, models.StatusPending)
	actor := Actor{ID: customerID, Role: models.RoleCustomer}

	// Guard misses: another actor already moved the order to Preparing.
	raced := testOrder(customerID, models.StatusPreparing)
	raced.ID = order.ID

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil).Once()
	mockOrders.On("UpdateStatusGuarded", mock.Anything, order.ID, models.StatusPending, mock.Anything).Return(nil, nil)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(raced, nil).Once()

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	_, err := svc.Transition(context.Background(), actor, order.ID, models.StatusCancelled, "")

	var stateErr *StateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestTransitionUnknownOrder(t *testing.T) {
	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	_, err := svc.Transition(context.Background(), Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}, primitive.NewObjectID(), models.StatusPreparing, "")

	var nfErr *NotFoundError
	assert.ErrorAs(t, err, &nfErr)
}

func TestTransitionAdminOverride(t *testing.T) {
	order := testOrder(primitive.NewObjectID(), models.StatusPending)
	actor := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mockOrders.On("UpdateStatusGuarded", mock.Anything, order.ID, models.StatusPending, mock.Anything).
		Return(transitioned(order, models.StatusOutForDelivery, "rush"), nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	updated, err := svc.Transition(context.Background(), actor, order.ID, models.StatusOutForDelivery, "rush")

	assert.NoError(t, err)
	assert.Equal(t, models.StatusOutForDelivery, updated.Status)
}

func TestAssignAgentValidatesRole(t *testing.T) {
	order := testOrder(primitive.NewObjectID(), models.StatusPending)
	agentID := primitive.NewObjectID()
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mockUsers := new(mocks.MockUserRepository)
	mockUsers.On("FindByID", mock.Anything, agentID).Return(&models.User{ID: agentID, Name: "Asha", Role: models.RoleCustomer}, nil)

	svc := newLifecycleService(mockOrders, mockUsers)
	_, err := svc.AssignAgent(context.Background(), admin, order.ID, agentID)

	var valErr *ValidationError
	assert.ErrorAs(t, err, &valErr)
	mockOrders.AssertNotCalled(t, "UpdateAssignment", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssignAgentSuccess(t *testing.T) {
	order := testOrder(primitive.NewObjectID(), models.StatusPreparing)
	agentID := primitive.NewObjectID()
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	assigned := *order
	assigned.DeliveryAgentID = &agentID
	assigned.DeliveryAgentName = "Ravi"

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mockOrders.On("UpdateAssignment", mock.Anything, order.ID, mock.MatchedBy(func(u repository.AssignmentUpdate) bool {
		return u.AgentID != nil && *u.AgentID == agentID && u.AgentName == "Ravi"
	})).Return(&assigned, nil)
	mockUsers := new(mocks.MockUserRepository)
	mockUsers.On("FindByID", mock.Anything, agentID).Return(&models.User{ID: agentID, Name: "Ravi", Role: models.RoleDeliveryAgent}, nil)

	svc := newLifecycleService(mockOrders, mockUsers)
	updated, err := svc.AssignAgent(context.Background(), admin, order.ID, agentID)

	assert.NoError(t, err)
	assert.Equal(t, "Ravi", updated.DeliveryAgentName)
	mockOrders.AssertExpectations(t)
}

func TestAssignAgentTerminalOrderRejected(t *testing.T) {
	order := testOrder(primitive.NewObjectID(), models.StatusDelivered)
	admin := Actor{ID: primitive.NewObjectID(), Role: models.RoleAdmin}

	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	_, err := svc.AssignAgent(context.Background(), admin, order.ID, primitive.NewObjectID())

	var stateErr *StateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestRateOrder(t *testing.T) {
	customerID := primitive.NewObjectID()

	tests := []struct {
		name    string
		rating  int
		status  string
		rated   int
		actorID primitive.ObjectID
		wantErr any
	}{
		{"out of range", 6, models.StatusDelivered, 0, customerID, &ValidationError{}},
		{"not delivered", 4, models.StatusPreparing, 0, customerID, &StateError{}},
		{"already rated", 4, models.StatusDelivered, 5, customerID, &StateError{}},
		{"foreign order", 4, models.StatusDelivered, 0, primitive.NewObjectID(), &AuthorizationError{}},
		{"ok", 4, models.StatusDelivered, 0, customerID, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			order := testOrder(customerID, tt.status)
			order.Rating = tt.rated

			mockOrders := new(mocks.MockOrderRepository)
			mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil).Maybe()
			if tt.wantErr == nil {
				rated := *order
				rated.Rating = tt.rating
				mockOrders.On("UpdateRatingGuarded", mock.Anything, order.ID, tt.rating).Return(&rated, nil)
			}

			svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
			updated, err := svc.RateOrder(context.Background(), Actor{ID: tt.actorID, Role: models.RoleCustomer}, order.ID, tt.rating)

			switch want := tt.wantErr.(type) {
			case nil:
				assert.NoError(t, err)
				assert.Equal(t, tt.rating, updated.Rating)
			case *ValidationError:
				assert.ErrorAs(t, err, &want)
			case *StateError:
				assert.ErrorAs(t, err, &want)
			case *AuthorizationError:
				assert.ErrorAs(t, err, &want)
			}
		})
	}
}

func TestStatusHistoryTimestampsNonDecreasing(t *testing.T) {
	customerID := primitive.NewObjectID()
	order := testOrder(customerID, models.StatusPreparing)
	actor := Actor{ID: customerID, Role: models.RoleCustomer}

	var captured repository.StatusUpdate
	mockOrders := new(mocks.MockOrderRepository)
	mockOrders.On("FindByID", mock.Anything, order.ID).Return(order, nil)
	mockOrders.On("UpdateStatusGuarded", mock.Anything, order.ID, models.StatusPreparing, mock.Anything).
		Run(func(args mock.Arguments) {
			captured = args.Get(3).(repository.StatusUpdate)
		}).
		Return(transitioned(order, models.StatusCancelled, ""), nil)

	svc := newLifecycleService(mockOrders, new(mocks.MockUserRepository))
	_, err := svc.Transition(context.Background(), actor, order.ID, models.StatusCancelled, "changed my mind")

	assert.NoError(t, err)
	last := order.StatusHistory[len(order.StatusHistory)-1]
	assert.False(t, captured.HistoryEntry.Timestamp.Before(last.Timestamp))
	assert.Equal(t, "changed my mind", captured.HistoryEntry.Note)
}
