package handlers

import (
	"Bookstore/services"
	"net/http"

	"github.com/gin-gonic/gin"
)

type UserDTO struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	UserRole string `json:"userRole"`
}

// SignUpHandler registers a customer account.
func SignUpHandler(c *gin.Context, users *services.UserService) {
	var req struct {
		Name     string `json:"name" binding:"required,min=2,max=100"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required,min=6,max=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	user, err := users.SignUp(c.Request.Context(), services.SignUpInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, UserDTO{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		UserRole: string(user.Role),
	})
}

// AuthenticateHandler exchanges credentials for a token.
func AuthenticateHandler(c *gin.Context, users *services.UserService) {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.Username == "" {
		req.Username = req.Email
	}

	token, err := users.Authenticate(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jwtToken": token})
}
