package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"webforge/internal/auth"
	"webforge/internal/middleware"
	"webforge/pkg/models"
)

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *models.User `json:"user"`
}

// Register creates a new user account.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	if err := auth.ValidatePasswordStrength(req.Password); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: err.Error(), Code: "WEAK_PASSWORD"})
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Failed to process password", Code: "INTERNAL_ERROR"})
		return
	}

	user := &models.User{
		Username:     strings.TrimSpace(req.Username),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := h.DB.Create(user).Error; err != nil {
		c.JSON(http.StatusConflict, StandardResponse{Success: false, Error: "Username or email already taken", Code: "USER_EXISTS"})
		return
	}

	access, refresh, err := h.JWT.GenerateTokens(user.ID, user.Username, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Failed to issue tokens", Code: "TOKEN_ERROR"})
		return
	}

	c.JSON(http.StatusCreated, StandardResponse{
		Success: true,
		Data:    tokenResponse{AccessToken: access, RefreshToken: refresh, User: user},
	})
}

// Login authenticates a user and issues tokens.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	var user models.User
	err := h.DB.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusUnauthorized, StandardResponse{Success: false, Error: "Invalid credentials", Code: "INVALID_CREDENTIALS"})
			return
		}
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Login failed", Code: "DATABASE_ERROR"})
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok || !user.IsActive {
		c.JSON(http.StatusUnauthorized, StandardResponse{Success: false, Error: "Invalid credentials", Code: "INVALID_CREDENTIALS"})
		return
	}

	access, refresh, err := h.JWT.GenerateTokens(user.ID, user.Username, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, StandardResponse{Success: false, Error: "Failed to issue tokens", Code: "TOKEN_ERROR"})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{
		Success: true,
		Data:    tokenResponse{AccessToken: access, RefreshToken: refresh, User: &user},
	})
}

// RefreshToken exchanges a refresh token for a new access token.
func (h *Handler) RefreshToken(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, StandardResponse{Success: false, Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	access, err := h.JWT.RefreshAccessToken(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, StandardResponse{Success: false, Error: "Invalid refresh token", Code: "INVALID_TOKEN"})
		return
	}

	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: gin.H{"access_token": access}})
}

// Me returns the authenticated user's profile.
func (h *Handler) Me(c *gin.Context) {
	var user models.User
	if err := h.DB.First(&user, middleware.UserID(c)).Error; err != nil {
		c.JSON(http.StatusNotFound, StandardResponse{Success: false, Error: "User not found", Code: "NOT_FOUND"})
		return
	}
	c.JSON(http.StatusOK, StandardResponse{Success: true, Data: user})
}
