package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"backend/internal/models"
	"backend/internal/services"
)

type reconcilePaymentRequest struct {
	PaymentStatus     string `json:"paymentStatus"`
	PaymentMethod     string `json:"paymentMethod"`
	Status            string `json:"status"`
	CreateTransaction bool   `json:"createTransaction"`
	UPITransactionID  string `json:"upiTransactionId"`
	GatewayPaymentID  string `json:"gatewayPaymentId"`
	GatewayOrderID    string `json:"gatewayOrderId"`
	GatewaySignature  string `json:"gatewaySignature"`
}

func (r reconcilePaymentRequest) details() *models.PaymentDetails {
	if r.UPITransactionID == "" && r.GatewayPaymentID == "" && r.GatewayOrderID == "" && r.GatewaySignature == "" {
		return nil
	}
	return &models.PaymentDetails{
		UPITransactionID: r.UPITransactionID,
		GatewayPaymentID: r.GatewayPaymentID,
		GatewayOrderID:   r.GatewayOrderID,
		GatewaySignature: r.GatewaySignature,
	}
}

// ReconcilePayment handles POST /api/orders/:id/payment. The transaction key
// is present in the response only when this call settled the order.
func ReconcilePayment(svc *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "RECONCILE_PAYMENT")

		actor, ok := actorFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "RECONCILE_PAYMENT", "unauthorized")
			return
		}
		id, ok := orderIDParam(c)
		if !ok {
			return
		}

		var req reconcilePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, http.StatusBadRequest, "RECONCILE_PAYMENT", "invalid request body")
			return
		}

		result, err := svc.Reconcile(c.Request.Context(), actor, id, services.ReconcileInput{
			PaymentStatus:     req.PaymentStatus,
			PaymentMethod:     req.PaymentMethod,
			Details:           req.details(),
			Status:            req.Status,
			CreateTransaction: req.CreateTransaction,
		})
		if err != nil {
			respondServiceError(c, "RECONCILE_PAYMENT", err)
			return
		}

		resp := gin.H{"success": true, "order": result.Order}
		if result.Transaction != nil {
			resp["transaction"] = result.Transaction
		}
		c.JSON(http.StatusOK, resp)
	}
}

// OrderTransactions handles GET /api/orders/:id/transactions, the settlement
// ledger for one order.
func OrderTransactions(svc *services.PaymentService) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer handlePanic(c, "ORDER_TRANSACTIONS")

		actor, ok := actorFromContext(c)
		if !ok {
			respondWithError(c, http.StatusUnauthorized, "ORDER_TRANSACTIONS", "unauthorized")
			return
		}
		id, ok := orderIDParam(c)
		if !ok {
			return
		}

		transactions, err := svc.LedgerForOrder(c.Request.Context(), actor, id)
		if err != nil {
			respondServiceError(c, "ORDER_TRANSACTIONS", err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "transactions": transactions})
	}
}
