package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"huntmate/backend/internal/db"
	"huntmate/backend/internal/services"
)

// respondError maps service-layer errors onto HTTP responses. The envelope
// always carries success=false and a message; duplicate rejections also carry
// isDuplicate so the UI can show its specific call-to-action without parsing
// the message text.
func respondError(c *gin.Context, err error) {
	var ve *services.ValidationError
	var se *services.StateError

	switch {
	case errors.Is(err, db.ErrInvalidID):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid ID format"})
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Not found"})
	case errors.Is(err, services.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{
			"success":     false,
			"message":     err.Error(),
			"isDuplicate": true,
		})
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": ve.Error(),
			"fields":  ve.Fields,
		})
	case errors.As(err, &se):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": se.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	}
}

// splitIDsParam parses a comma-separated ids query parameter, dropping empty
// segments. Malformed IDs are left in; the bulk paths filter them silently.
func splitIDsParam(param string) []string {
	var ids []string
	for _, id := range strings.Split(param, ",") {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// parseIDParam reads and validates the :id path parameter, writing the error
// response itself on failure.
func parseIDParam(c *gin.Context) (primitive.ObjectID, bool) {
	parsed, err := db.ParseID(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return primitive.NilObjectID, false
	}
	return parsed, true
}
