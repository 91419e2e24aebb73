package handler

import (
	"errors"
	"net/http"

	"traderefer/internal/domain"

	"github.com/gin-gonic/gin"
)

// writeError maps service errors onto HTTP statuses with a uniform JSON body.
func writeError(c *gin.Context, err error) {
	var pinErr *domain.InvalidPinError
	switch {
	case errors.As(err, &pinErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":              pinErr.Error(),
			"attempts_remaining": pinErr.Remaining,
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, domain.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "conflict"})
	case errors.Is(err, domain.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid input"})
	case errors.Is(err, domain.ErrRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPinExpired):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrPinLocked):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientBalance):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrServiceUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
