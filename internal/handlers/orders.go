package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/pricing"
	"backend/internal/services"
)

type orderItemRequest struct {
	Name      string                 `json:"name" binding:"required"`
	BasePrice float64                `json:"basePrice"`
	Quantity  int                    `json:"quantity" binding:"required"`
	Modifiers []orderModifierRequest `json:"modifiers"`
}

type orderModifierRequest struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type createOrderRequest struct {
	Items           []orderItemRequest `json:"items" binding:"required"`
	DeliveryAddress string             `json:"deliveryAddress" binding:"required"`
	PaymentMethod   string             `json:"paymentMethod" binding:"required"`
	CouponCode      string             `json:"couponCode"`
	CustomerName    string             `json:"customerName"`
	CustomerPhone   string             `json:"customerPhone"`
}

// CreateOrder handles POST /api/orders for authenticated customers.
func CreateOrder(svc *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "CREATE_ORDER")

		actor, ok := actorFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "CREATE_ORDER", "unauthorized")
			return
		}

		var req createOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "CREATE_ORDER", "invalid request body")
			return
		}

		items := make([]pricing.Item, 0, len(req.Items))
		for _, it := range req.Items {
			item := pricing.Item{
				Name:      it.Name,
				BasePrice: it.BasePrice,
				Quantity:  it.Quantity,
			}
			for _, m := range it.Modifiers {
				item.Modifiers = append(item.Modifiers, pricing.Modifier{Name: m.Name, Price: m.Price})
			}
			items = append(items, item)
		}

		name := req.CustomerName
		if name == "" {
			name = actor.Name
		}

		order, err := svc.CreateOrder(c.Request.Context(), actor, services.CreateOrderInput{
			Items:           items,
			DeliveryAddress: req.DeliveryAddress,
			PaymentMethod:   req.PaymentMethod,
			CouponCode:      req.CouponCode,
			CustomerName:    name,
			CustomerPhone:   req.CustomerPhone,
		})
		if err != nil {
			respondServiceError(c, "CREATE_ORDER", err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "order": order})
	}
}

// GetOrder handles GET /api/orders/:id. The service scopes visibility by role.
func GetOrder(svc *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "GET_ORDER")

		actor, ok := actorFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "GET_ORDER", "unauthorized")
			return
		}
		id, ok := orderIDParam(c)
		if !ok {
			return
		}

		order, err := svc.GetOrder(c.Request.Context(), actor, id)
		if err != nil {
			respondServiceError(c, "GET_ORDER", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

// ListOrders handles GET /api/orders with status/payment filters and
// pagination. Customers and agents only ever see their own slice.
func ListOrders(svc *services.OrderService) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "LIST_ORDERS")

		actor, ok := actorFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "LIST_ORDERS", "unauthorized")
			return
		}

		page, limit, err := parsePaginationParams(c.Query("page"), c.Query("limit"))
		if err != nil {
			respondWithError(c, http.StatusBadRequest, "LIST_ORDERS", err.Error())
			return
		}

		orders, total, err := svc.ListOrders(c.Request.Context(), actor, services.ListOrdersInput{
			Status:        c.Query("status"),
			PaymentStatus: c.Query("paymentStatus"),
			CustomerID:    c.Query("customerId"),
			AgentID:       c.Query("agentId"),
			Page:          page,
			Limit:         limit,
		})
		if err != nil {
			respondServiceError(c, "LIST_ORDERS", err)
			return
		}

		totalPages := total / limit
		if total%limit != 0 {
			totalPages++
		}
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"orders":  orders,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": totalPages,
			},
		})
	}
}

type updateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateOrderStatus handles PATCH /api/orders/:id/status for every role; the
// lifecycle service applies the per-role transition table.
func UpdateOrderStatus(svc *services.LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "UPDATE_ORDER_STATUS")

		actor, ok := actorFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "UPDATE_ORDER_STATUS", "unauthorized")
			return
		}
		id, ok := orderIDParam(c)
		if !ok {
			return
		}

		var req updateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "UPDATE_ORDER_STATUS", "invalid request body")
			return
		}

		order, err := svc.Transition(c.Request.Context(), actor, id, req.Status, req.Note)
		if err != nil {
			respondServiceError(c, "UPDATE_ORDER_STATUS", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}

type rateOrderRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// RateOrder handles POST /api/orders/:id/rating (customer only).
func RateOrder(svc *services.LifecycleService) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "RATE_ORDER")

		actor, ok := actorFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "RATE_ORDER", "unauthorized")
			return
		}
		id, ok := orderIDParam(c)
		if !ok {
			return
		}

		var req rateOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "RATE_ORDER", "invalid request body")
			return
		}

		order, err := svc.RateOrder(c.Request.Context(), actor, id, req.Rating)
		if err != nil {
			respondServiceError(c, "RATE_ORDER", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
	}
}
