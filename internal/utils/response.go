package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clinic-queue-server/internal/queue"
)

// ResponseData represents the structure of a standard API response.
type ResponseData struct {
	Status  int         `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Success sends a standard success response.
func Success(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, ResponseData{
		Status:  http.StatusOK,
		Message: message,
		Data:    data,
	})
}

// Created sends a standard resource created response.
func Created(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusCreated, ResponseData{
		Status:  http.StatusCreated,
		Message: message,
		Data:    data,
	})
}

// Error sends a standard error response.
func Error(c *gin.Context, statusCode int, errorMessage string) {
	c.JSON(statusCode, ResponseData{
		Status:  statusCode,
		Message: "An error occurred",
		Error:   errorMessage,
	})
}

// BadRequest sends a 400 Bad Request error response.
func BadRequest(c *gin.Context, errorMessage string) {
	Error(c, http.StatusBadRequest, errorMessage)
}

// Unauthorized sends a 401 Unauthorized error response.
func Unauthorized(c *gin.Context, errorMessage string) {
	Error(c, http.StatusUnauthorized, errorMessage)
}

// Forbidden sends a 403 Forbidden error response.
func Forbidden(c *gin.Context, errorMessage string) {
	Error(c, http.StatusForbidden, errorMessage)
}

// NotFound sends a 404 Not Found error response.
func NotFound(c *gin.Context, errorMessage string) {
	Error(c, http.StatusNotFound, errorMessage)
}

// Conflict sends a 409 Conflict error response.
func Conflict(c *gin.Context, errorMessage string) {
	Error(c, http.StatusConflict, errorMessage)
}

// InternalServerError sends a 500 Internal Server Error response.
func InternalServerError(c *gin.Context, errorMessage string) {
	Error(c, http.StatusInternalServerError, errorMessage)
}

// QueueError maps a queue-core error onto the matching HTTP response.
// Conflict-class errors stay distinct so clients can tell "slot full" from
// "already processed".
func QueueError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, queue.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, queue.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, queue.ErrUnauthorized):
		Forbidden(c, err.Error())
	case errors.Is(err, queue.ErrCapacityExceeded),
		errors.Is(err, queue.ErrSlotTaken),
		errors.Is(err, queue.ErrNotAllowed),
		errors.Is(err, queue.ErrSameDayCancel),
		errors.Is(err, queue.ErrDoctorUnavailable):
		Conflict(c, err.Error())
	default:
		InternalServerError(c, err.Error())
	}
}
