package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"huntmate/backend/internal/config"
	"huntmate/backend/internal/storage"
)

// UploadHandler accepts request photos and stores them as blobs, handing the
// public URL back to the wizard. The URL later travels inside the booking
// payload; the handler itself knows nothing about bookings.
type UploadHandler struct {
	cfg          *config.Config
	photoStorage storage.IPhotoStorage
}

// NewUploadHandler creates a new UploadHandler.
func NewUploadHandler(cfg *config.Config, photoStorage storage.IPhotoStorage) *UploadHandler {
	return &UploadHandler{cfg: cfg, photoStorage: photoStorage}
}

var allowedPhotoTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// UploadPhoto handles POST /v1/booking/photos (multipart form, field
// "photo").
func (h *UploadHandler) UploadPhoto(c *gin.Context) {
	fileHeader, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "A 'photo' file field is required"})
		return
	}

	maxBytes := int64(h.cfg.PhotoMaxSizeMB) * 1024 * 1024
	if fileHeader.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"success": false,
			"message": fmt.Sprintf("Photo exceeds the %d MB limit", h.cfg.PhotoMaxSizeMB),
		})
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if !allowedPhotoTypes[strings.ToLower(contentType)] {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Unsupported photo type"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	url, err := h.photoStorage.Upload(c.Request.Context(), file, fileHeader.Filename, contentType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "url": url})
}
