package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"boardgame-meetup/internal/app"
	"boardgame-meetup/internal/transport/http/middleware"
	"boardgame-meetup/internal/transport/http/response"
)

type AvatarHandler struct {
	avatarService *app.AvatarService
}

func NewAvatarHandler(avatarService *app.AvatarService) *AvatarHandler {
	return &AvatarHandler{avatarService: avatarService}
}

func (h *AvatarHandler) Upload(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "Unauthorized", "invalid token payload")
		return
	}

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidAvatar, "Bad request", "avatar file is required")
		return
	}
	if fileHeader.Size > h.avatarService.MaxBytes() {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidAvatar, "Bad request", "avatar file is too large")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidAvatar, "Bad request", "avatar file is unreadable")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.avatarService.MaxBytes()+1))
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeInvalidAvatar, "Bad request", "avatar file is unreadable")
		return
	}

	key, err := h.avatarService.Upload(c.Request.Context(), userID, data)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrAvatarInvalid):
			response.Error(c, http.StatusBadRequest, response.CodeInvalidAvatar, "Bad request", err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal server error", "upload avatar failed")
		}
		return
	}

	response.Created(c, gin.H{"avatar": key})
}

func (h *AvatarHandler) Download(c *gin.Context) {
	obj, err := h.avatarService.Download(c.Request.Context(), c.Param("key"))
	if err != nil {
		switch {
		case errors.Is(err, app.ErrAvatarInvalid), errors.Is(err, app.ErrAvatarNotFound):
			response.Error(c, http.StatusBadRequest, response.CodeInvalidAvatar, "Bad request", "Impossible to find the avatar")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "Internal server error", "download avatar failed")
		}
		return
	}

	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
