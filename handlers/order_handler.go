package handlers

import (
	"Bookstore/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlaceOrderHandler checks out the caller's cart.
func PlaceOrderHandler(c *gin.Context, carts *services.CartService) {
	var req struct {
		UserID           uint   `json:"userId" binding:"required"`
		Address          string `json:"address" binding:"required,min=10,max=500"`
		OrderDescription string `json:"orderDescription" binding:"max=1000"`
		Payment          string `json:"payment" binding:"required,max=50"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if !ownsUser(c, req.UserID) {
		return
	}

	order, err := carts.PlaceOrder(c.Request.Context(), req.UserID, services.PlaceOrderInput{
		Address:     req.Address,
		Payment:     req.Payment,
		Description: req.OrderDescription,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toOrderDTO(*order))
}

func ListOrdersHandler(c *gin.Context, carts *services.CartService) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	orders, err := carts.ListSubmittedOrders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTOs(orders))
}

func ListAllOrdersHandler(c *gin.Context, carts *services.CartService) {
	orders, err := carts.ListAllSubmittedOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTOs(orders))
}
