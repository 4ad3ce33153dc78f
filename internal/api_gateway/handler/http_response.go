package handler

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rice-supply-chain-api/internal/api_gateway/middleware"
)

// Response represents the standard API envelope
type Response struct {
	Success       bool        `json:"success"`
	Message       string      `json:"message"`
	Data          interface{} `json:"data,omitempty"`
	Timestamp     string      `json:"timestamp"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	Error         string      `json:"error,omitempty"`
	Stack         string      `json:"stack,omitempty"`
}

// NewResponse creates a success envelope. An empty message becomes "Success".
func NewResponse(message string, data interface{}) *Response {
	if message == "" {
		message = "Success"
	}
	return &Response{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC().Format(middleware.TimestampLayout),
	}
}

// NewErrorResponse creates an error envelope without internal detail
func NewErrorResponse(message string) *Response {
	return &Response{
		Success:   false,
		Message:   message,
		Timestamp: time.Now().UTC().Format(middleware.TimestampLayout),
	}
}

// RespondWithData sends a success envelope
func RespondWithData(c *gin.Context, statusCode int, message string, data interface{}) {
	response := NewResponse(message, data)
	response.CorrelationID = middleware.GetCorrelationID(c)
	c.JSON(statusCode, response)
}

// RespondWithError sends an error envelope. err is only included when the request
// allows error detail.
func RespondWithError(c *gin.Context, statusCode int, message string, err error) {
	response := NewErrorResponse(message)
	response.CorrelationID = middleware.GetCorrelationID(c)
	if err != nil && middleware.ExposeErrorDetail(c) {
		response.Error = err.Error()
		response.Stack = string(debug.Stack())
	}
	c.JSON(statusCode, response)
}

// RespondOK sends a 200 OK response with data
func RespondOK(c *gin.Context, message string, data interface{}) {
	RespondWithData(c, http.StatusOK, message, data)
}

// RespondCreated sends a 201 Created response with data
func RespondCreated(c *gin.Context, message string, data interface{}) {
	RespondWithData(c, http.StatusCreated, message, data)
}

// RespondBadRequest sends a 400 Bad Request response
func RespondBadRequest(c *gin.Context, message string) {
	RespondWithError(c, http.StatusBadRequest, message, nil)
}

// RespondNotFound sends a 404 Not Found response
func RespondNotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, message, nil)
}

// RespondConflict sends a 409 Conflict response
func RespondConflict(c *gin.Context, message string) {
	RespondWithError(c, http.StatusConflict, message, nil)
}

// RespondPayloadTooLarge sends a 413 response
func RespondPayloadTooLarge(c *gin.Context) {
	RespondWithError(c, http.StatusRequestEntityTooLarge, "Request body too large", nil)
}

// RespondInternalError sends a 500 Internal Server Error response
func RespondInternalError(c *gin.Context, message string, err error) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, message, err)
}

// RespondRouteNotFound is the fallback for unmatched routes. Its body is a bare
// {error, message} pair, not the envelope.
func RespondRouteNotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "Not Found",
		"message": "The requested resource was not found",
	})
}
