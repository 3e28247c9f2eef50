package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	CodeOK                   = 0
	CodeBadRequest           = 40000
	CodeListingNotFound      = 40001
	CodeInvalidListing       = 40002
	CodeInvalidAvatar        = 40003
	CodeUnauthorized         = 40100
	CodeUserNotFound         = 40101
	CodeWrongPassword        = 40102
	CodeRegistrationConflict = 40900
	CodeInternalServer       = 50000
)

type APIResponse struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse never carries the underlying cause, only what the client may see.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"status"`
	Detail  string `json:"detail,omitempty"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, APIResponse{
		Code:    CodeOK,
		Message: "ok",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, APIResponse{
		Code:    CodeOK,
		Message: "created",
		Data:    data,
	})
}

func Error(c *gin.Context, httpStatus, code int, message, detail string) {
	c.JSON(httpStatus, ErrorResponse{
		Code:    code,
		Message: message,
		Status:  httpStatus,
		Detail:  detail,
	})
}
