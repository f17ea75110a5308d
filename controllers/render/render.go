// Package render writes JSON responses and maps domain errors to statuses.
package render

import (
	"net/http"
	"strconv"

	"github.com/alexcata03/Shop-Online/apperrors"
	"github.com/gin-gonic/gin"
)

// Error aborts the request with the status and message for err. Errors that
// map to 500 are attached to the context for the request logger and replaced
// by a fixed message in the body.
func Error(c *gin.Context, err error) {
	status := apperrors.Status(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": apperrors.Message(err)})
}

// BindError reports a request that failed gin binding or validation.
func BindError(c *gin.Context, err error) {
	Error(c, apperrors.Invalid("invalid input: %s", err.Error()))
}

// Message writes {"message": msg} with status.
func Message(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"message": msg})
}

// PathID parses the numeric path parameter name.
func PathID(c *gin.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, apperrors.Invalid("%s must be a positive integer, got %q", name, raw)
	}
	return uint(id), nil
}
