package handlers

import (
	"Bookstore/middleware"
	"Bookstore/services"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// respondPaymentError keeps the payment response shape on failures.
func respondPaymentError(c *gin.Context, err error) {
	status := statusOf(err)
	var paymentErr *services.PaymentError
	switch {
	case errors.As(err, &paymentErr):
		c.JSON(status, PaymentResponseDTO{Status: paymentErr.Status, Message: paymentErr.Message})
	case status == http.StatusInternalServerError:
		_ = c.Error(err)
		c.JSON(status, PaymentResponseDTO{Message: "internal server error"})
	default:
		c.JSON(status, PaymentResponseDTO{Message: err.Error()})
	}
}

func PaymentConfigHandler(c *gin.Context, payments *services.PaymentService) {
	c.JSON(http.StatusOK, gin.H{"publishableKey": payments.PublishableKey()})
}

func CreatePaymentIntentHandler(c *gin.Context, payments *services.PaymentService) {
	var req struct {
		UserID           uint   `json:"userId"`
		OrderID          uint   `json:"orderId"`
		Amount           int64  `json:"amount"`
		Currency         string `json:"currency" binding:"max=10"`
		PaymentMethodID  string `json:"paymentMethodId"`
		Description      string `json:"description"`
		Address          string `json:"address" binding:"max=500"`
		OrderDescription string `json:"orderDescription" binding:"max=1000"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, PaymentResponseDTO{Message: err.Error()})
		return
	}

	identity, _ := middleware.CurrentIdentity(c)
	if req.UserID != 0 && req.UserID != identity.UserID {
		c.JSON(http.StatusForbidden, PaymentResponseDTO{Message: "access denied"})
		return
	}

	result, err := payments.CreatePaymentIntent(c.Request.Context(), identity.UserID, services.IntentInput{
		OrderID:          req.OrderID,
		Amount:           req.Amount,
		Currency:         req.Currency,
		Description:      req.Description,
		Address:          req.Address,
		OrderDescription: req.OrderDescription,
	})
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(result))
}

// ConfirmPaymentHandler reads paymentIntentId and orderId from the query string.
func ConfirmPaymentHandler(c *gin.Context, payments *services.PaymentService) {
	intentID := c.Query("paymentIntentId")
	orderID, err := strconv.ParseUint(c.Query("orderId"), 10, 64)
	if intentID == "" || err != nil {
		c.JSON(http.StatusBadRequest, PaymentResponseDTO{Message: "paymentIntentId and orderId are required"})
		return
	}

	identity, _ := middleware.CurrentIdentity(c)
	result, err := payments.ConfirmPayment(c.Request.Context(), identity.UserID, intentID, uint(orderID))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(result))
}

func PaymentStatusHandler(c *gin.Context, payments *services.PaymentService) {
	result, err := payments.PaymentStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondPaymentError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPaymentResponse(result))
}
