// Package response defines the JSON envelope every endpoint writes.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Envelope[T any] struct {
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      T         `json:"data,omitempty"`
	Meta      any       `json:"meta,omitempty"`
	Error     any       `json:"error,omitempty"`
}

// Success writes the envelope with the given payload.
func Success[T any](c *gin.Context, status int, data T, message string, meta any) {
	if status == 0 {
		status = http.StatusOK
	}
	c.JSON(status, Envelope[T]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
		Success:   true,
		Message:   message,
		Data:      data,
		Meta:      meta,
	})
}

// Error writes an error envelope. details carries field-level validation
// errors or other machine-readable context.
func Error(c *gin.Context, status int, message string, details any) {
	if status == 0 {
		status = http.StatusBadRequest
	}
	c.JSON(status, Envelope[any]{
		Status:    status,
		Timestamp: time.Now(),
		RequestID: c.GetString("request_id"),
		Success:   false,
		Message:   message,
		Error:     details,
	})
}

// Abort writes an error envelope and stops the handler chain. For use
// in middleware.
func Abort(c *gin.Context, status int, message string) {
	Error(c, status, message, nil)
	c.Abort()
}
