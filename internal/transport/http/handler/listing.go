package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"boardgame-meetup/internal/app"
	"boardgame-meetup/internal/transport/http/middleware"
	"boardgame-meetup/internal/transport/http/response"
)

type ListingHandler struct {
	listingService *app.ListingService
}

type CreateListingRequest struct {
	Game      string `json:"game" binding:"required,max=128"`
	Avatar    string `json:"avatar" binding:"required,max=512"`
	Date      string `json:"date" binding:"required"`
	Hour      string `json:"hour" binding:"required"`
	Bio       string `json:"bio" binding:"required,max=2000"`
	OpenSeats *int   `json:"open_seats" binding:"required,min=0"`
}

func NewListingHandler(listingService *app.ListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

func (h *ListingHandler) List(c *gin.Context) {
	listings, err := h.listingService.List(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Bad request", "Impossible to find games")
		return
	}

	response.OK(c, gin.H{"games": listings})
}

// Get renders every lookup failure as one 400; the service still tells them apart.
func (h *ListingHandler) Get(c *gin.Context) {
	listing, err := h.listingService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		code := response.CodeBadRequest
		if errors.Is(err, app.ErrListingNotFound) {
			code = response.CodeListingNotFound
		}
		response.Error(c, http.StatusBadRequest, code, "Bad request", "Impossible to find the detail of the game")
		return
	}

	response.OK(c, gin.H{"game": listing})
}

func (h *ListingHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", "invalid token payload")
		return
	}

	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidListing, "Bad request", "invalid request payload")
		return
	}

	listing, err := h.listingService.Create(c.Request.Context(), app.CreateListingInput{
		OwnerID:   userID,
		Game:      req.Game,
		Avatar:    req.Avatar,
		Date:      req.Date,
		Hour:      req.Hour,
		Bio:       req.Bio,
		OpenSeats: *req.OpenSeats,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrListingValidation):
			response.Error(c, http.StatusBadRequest, response.CodeInvalidListing, "Bad request", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer,
				"The game couldn't be created", "Impossible to create the game")
		}
		return
	}

	response.Created(c, listing)
}

// Delete answers 200 whether or not a listing was removed; "deleted" reports which.
func (h *ListingHandler) Delete(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", "invalid token payload")
		return
	}

	deleted, err := h.listingService.DeleteByID(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Bad request", "Impossible to delete the game")
		return
	}

	response.OK(c, gin.H{"message": "Game deleted", "deleted": deleted})
}

func (h *ListingHandler) Activity(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", "invalid token payload")
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "Bad request", "invalid limit")
			return
		}
		limit = parsed
	}

	activities, err := h.listingService.Activity(c.Request.Context(), userID, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal server error", "list activity failed")
		return
	}

	response.OK(c, gin.H{"activity": activities})
}
