package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"boardgame-meetup/internal/app"
	"boardgame-meetup/internal/transport/http/middleware"
	"boardgame-meetup/internal/transport/http/response"
)

type AuthHandler struct {
	authService *app.AuthService
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email,max=128"`
	Username string `json:"username" binding:"required,min=3,max=64"`
	Password string `json:"password" binding:"required,min=8,max=72"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required,max=64"`
	Password string `json:"password" binding:"required,max=72"`
}

func NewAuthHandler(authService *app.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Bad request", "invalid request payload")
		return
	}

	user, err := h.authService.Register(c.Request.Context(), app.RegisterInput{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Bad request", err.Error())
		case errors.Is(err, app.ErrRegistrationFailed):
			response.Error(c, http.StatusConflict, response.CodeRegistrationConflict,
				"The user couldn't be created.", "There was a problem creating the user.")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal server error", "register failed")
		}
		return
	}

	response.Created(c, gin.H{
		"message": "The user has been created",
		"user": gin.H{
			"id":       user.ID,
			"username": user.Username,
			"email":    user.Email,
		},
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Bad request", "invalid request payload")
		return
	}

	result, err := h.authService.Login(c.Request.Context(), app.LoginInput{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Bad request", err.Error())
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusUnauthorized, response.CodeUserNotFound, "Wrong credentials", "user not found")
		case errors.Is(err, app.ErrWrongPassword):
			response.Error(c, http.StatusUnauthorized, response.CodeWrongPassword, "Wrong credentials", "wrong password")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal server error", "login failed")
		}
		return
	}

	response.OK(c, gin.H{"token": result.Token})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", "invalid token payload")
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUserNotFound):
			response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", "user not found")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal server error", "fetch current user failed")
		}
		return
	}

	response.OK(c, gin.H{
		"id":       user.ID,
		"username": user.Username,
		"email":    user.Email,
	})
}
