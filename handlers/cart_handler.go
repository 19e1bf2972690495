package handlers

import (
	"Bookstore/middleware"
	"Bookstore/models"
	"Bookstore/services"
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ownsUser writes a 403 unless userID is the caller.
func ownsUser(c *gin.Context, userID uint) bool {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok || identity.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
		return false
	}
	return true
}

// AddToCartHandler answers 201 when a new line was opened and 200 when an existing line grew.
func AddToCartHandler(c *gin.Context, carts *services.CartService) {
	var req struct {
		UserID uint `json:"userId" binding:"required"`
		BookID uint `json:"bookId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId and bookId are required"})
		return
	}
	if !ownsUser(c, req.UserID) {
		return
	}

	line, created, err := carts.AddBookToCart(c.Request.Context(), req.UserID, req.BookID)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, toCartDTO(*line))
}

func GetCartHandler(c *gin.Context, carts *services.CartService) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	order, err := carts.GetCart(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(*order))
}

func IncreaseQuantityHandler(c *gin.Context, carts *services.CartService) {
	changeQuantity(c, carts.IncrementLine)
}

func DecreaseQuantityHandler(c *gin.Context, carts *services.CartService) {
	changeQuantity(c, carts.DecrementLine)
}

func changeQuantity(c *gin.Context, change func(ctx context.Context, userID, bookID uint) (*models.Order, error)) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	order, err := change(c.Request.Context(), userID, bookID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderDTO(*order))
}

func RemoveFromCartHandler(c *gin.Context, carts *services.CartService) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	bookID, ok := pathID(c, "bookId")
	if !ok {
		return
	}

	if err := carts.RemoveLine(c.Request.Context(), userID, bookID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
