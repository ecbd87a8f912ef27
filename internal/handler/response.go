package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/medidesk/clinic-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Error writes err as a JSON response with the status its code maps to.
func Error(c *gin.Context, err error) {
	c.JSON(statusFor(errors.CodeOf(err)), NewErrorResponse(err.Error()))
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrValidation:
		return http.StatusBadRequest
	case errors.ErrNotFound:
		return http.StatusNotFound
	case errors.ErrAlreadyRegistered, errors.ErrConflict:
		return http.StatusConflict
	case errors.ErrInvalidCredentials, errors.ErrUnauthorized:
		return http.StatusUnauthorized
	case errors.ErrNotVerified, errors.ErrForbidden:
		return http.StatusForbidden
	case errors.ErrUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
