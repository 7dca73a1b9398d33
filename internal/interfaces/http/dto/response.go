package dto

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/tokenforge/pkg/errors"
)

// APIResponse is the envelope returned by every endpoint.
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *ErrorDTO   `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// ErrorDTO carries the error kind and message in the response envelope.
type ErrorDTO struct {
	Kind    string                 `json:"kind"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func requestID(c *gin.Context) string {
	if id := c.GetString("request_id"); id != "" {
		return id
	}
	return c.GetHeader("X-Request-ID")
}

// SendSuccess writes a success envelope with the given status code.
func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, &APIResponse{
		Success:   true,
		Data:      data,
		RequestID: requestID(c),
		Timestamp: time.Now().Unix(),
	})
}

// SendError maps the error to an HTTP status and writes an error envelope.
func SendError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	dto := &ErrorDTO{
		Kind:    string(errors.KindInternal),
		Message: "internal server error",
	}
	if ae, ok := errors.AsAuthError(err); ok {
		status = ae.HTTPStatus()
		dto.Kind = string(ae.Kind())
		dto.Message = ae.Error()
		dto.Details = ae.Metadata()
	}
	c.JSON(status, &APIResponse{
		Success:   false,
		Error:     dto,
		RequestID: requestID(c),
		Timestamp: time.Now().Unix(),
	})
}
