package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"huntmate/backend/internal/services"
)

// CatalogHandler serves the public catalog reads backing the wizard's first
// step.
type CatalogHandler struct {
	catalogService services.ICatalogService
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(catalogService services.ICatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// ListTypes handles GET /v1/catalog/types: active assistance types in display
// order.
func (h *CatalogHandler) ListTypes(c *gin.Context) {
	types, err := h.catalogService.ListActiveTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "types": types})
}

// ListTemplates handles GET /v1/catalog/templates: active quick-start
// templates.
func (h *CatalogHandler) ListTemplates(c *gin.Context) {
	templates, err := h.catalogService.ListActiveTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "templates": templates})
}
