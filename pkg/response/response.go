package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the uniform failure envelope.
type ErrorBody struct {
	Message   string `json:"message"`
	Data      any    `json:"data,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// Success writes {message, ...fields}. Fields are merged at the top level so
// handlers can shape payloads like {message, projects, totalItems}.
func Success(ctx *gin.Context, status int, message string, fields gin.H) {
	if status == 0 {
		status = http.StatusOK
	}
	body := gin.H{"message": message}
	for k, v := range fields {
		body[k] = v
	}
	ctx.JSON(status, body)
}

// Error writes the failure envelope and returns it.
func Error(ctx *gin.Context, status int, message string, data any) ErrorBody {
	body := errorBody(ctx, message, data)
	ctx.JSON(normalize(status), body)
	return body
}

// Abort writes the failure envelope and stops the handler chain.
func Abort(ctx *gin.Context, status int, message string, data any) {
	ctx.AbortWithStatusJSON(normalize(status), errorBody(ctx, message, data))
}

func errorBody(ctx *gin.Context, message string, data any) ErrorBody {
	return ErrorBody{
		Message:   message,
		Data:      data,
		RequestID: ctx.GetString("request_id"),
	}
}

func normalize(status int) int {
	if status == 0 {
		return http.StatusBadRequest
	}
	return status
}
