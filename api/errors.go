package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/Domenick1991/paintballpark/internal/domain"
	"github.com/gin-gonic/gin"
)

const dateLayout = "02/01/2006"

// writeError maps domain error kinds to HTTP statuses.
func writeError(c *gin.Context, err error) {
	var conflict *domain.ConflictError
	switch {
	case errors.As(err, &conflict):
		dates := make([]string, 0, len(conflict.Dates))
		for _, d := range conflict.Dates {
			dates = append(dates, d.Format(dateLayout))
		}
		c.JSON(http.StatusConflict, gin.H{
			"error":   conflict.Error(),
			"zone_id": conflict.ZoneID,
			"dates":   dates,
		})
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case domain.IsLifecycle(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		_ = c.Error(err)
	}
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// queryRange reads the RFC 3339 "from" and "to" query parameters.
func queryRange(c *gin.Context, fromKey, toKey string) (time.Time, time.Time, error) {
	from, err := time.Parse(time.RFC3339, c.Query(fromKey))
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError("%s must be an RFC 3339 timestamp", fromKey)
	}
	to, err := time.Parse(time.RFC3339, c.Query(toKey))
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError("%s must be an RFC 3339 timestamp", toKey)
	}
	return from, to, nil
}
