package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"huntmate/backend/internal/api/middleware"
	"huntmate/backend/internal/models"
	"huntmate/backend/internal/services"
	"huntmate/backend/internal/tasks"
)

// AdminHandler serves the staff console: request triage, bulk operations and
// catalog management.
type AdminHandler struct {
	bookingService services.IBookingService
	commentService services.ICommentService
	catalogService services.ICatalogService
	taskClient     *asynq.Client
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	bookingService services.IBookingService,
	commentService services.ICommentService,
	catalogService services.ICatalogService,
	taskClient *asynq.Client,
) *AdminHandler {
	return &AdminHandler{
		bookingService: bookingService,
		commentService: commentService,
		catalogService: catalogService,
		taskClient:     taskClient,
	}
}

// ListBookings handles GET /v1/admin/bookings?status=&character_id=&limit=.
func (h *AdminHandler) ListBookings(c *gin.Context) {
	filter := services.BookingFilter{
		Status:      models.BookingStatus(c.Query("status")),
		CharacterID: c.Query("character_id"),
	}
	if limit := c.Query("limit"); limit != "" {
		// Bad limits fall back to the configured maximum inside List.
		filter.Limit, _ = strconv.Atoi(limit)
	}

	bookings, err := h.bookingService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "bookings": bookings})
}

type statusRequest struct {
	Status models.BookingStatus `json:"status"`
}

// UpdateStatus handles POST /v1/admin/bookings/:id/status, the staff
// transition path. This is the only way a status ever changes.
func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	if err := h.bookingService.UpdateStatus(c.Request.Context(), id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Status updated"})
}

type bulkStatusRequest struct {
	IDs    []string             `json:"ids"`
	Status models.BookingStatus `json:"status"`
}

// BulkUpdateStatus handles POST /v1/admin/bookings/bulk/status. Malformed IDs
// and ineligible bookings are skipped; the response reports how many actually
// changed.
func (h *AdminHandler) BulkUpdateStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	modified, err := h.bookingService.BulkUpdateStatus(c.Request.Context(), req.IDs, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "modified": modified})
}

type bulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// BulkDelete handles POST /v1/admin/bookings/bulk/delete. Only cancelled
// bookings are removed.
func (h *AdminHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	deleted, err := h.bookingService.BulkDelete(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "deleted": deleted})
}

// DeleteBooking handles DELETE /v1/admin/bookings/:id with photo cleanup.
func (h *AdminHandler) DeleteBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	deleted, err := h.bookingService.Delete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	tasks.EnqueuePhotoCleanup(c.Request.Context(), h.taskClient, deleted.ID.Hex(), deleted.PhotoURLs)

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Request deleted"})
}

// --- Staff side of the comment thread ---

// AppendComment handles POST /v1/admin/bookings/:id/comments. The staff
// email from the JWT becomes the author name.
func (h *AdminHandler) AppendComment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req appendCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	comment, err := h.commentService.Append(c.Request.Context(), id, req.Content,
		c.GetString(middleware.ContextKeyEmail), true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

// ListComments handles GET /v1/admin/bookings/:id/comments, marking the
// requester's comments read for the staff viewer.
func (h *AdminHandler) ListComments(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListByRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.commentService.MarkRead(c.Request.Context(), id, true); err != nil {
		_ = c.Error(err)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "comments": comments})
}

// GetUnreadCounts handles GET /v1/admin/bookings/unread?ids=a,b,c for the
// staff triage list.
func (h *AdminHandler) GetUnreadCounts(c *gin.Context) {
	ids := splitIDsParam(c.Query("ids"))
	counts, err := h.commentService.UnreadCounts(c.Request.Context(), ids, true)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "counts": counts})
}

// --- Catalog management ---

// ListAllTypes handles GET /v1/admin/catalog/types, including inactive
// entries.
func (h *AdminHandler) ListAllTypes(c *gin.Context) {
	types, err := h.catalogService.ListTypes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "types": types})
}

type reorderRequest struct {
	ListOrder int `json:"list_order"`
}

// ReorderType handles POST /v1/admin/catalog/types/:id/reorder. Swapping two
// entries takes two calls; the order value is set verbatim.
func (h *AdminHandler) ReorderType(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	if err := h.catalogService.ReorderType(c.Request.Context(), id, req.ListOrder); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order updated"})
}

type toggleRequest struct {
	Field models.ToggleField `json:"field"`
}

// ToggleType handles POST /v1/admin/catalog/types/:id/toggle, flipping one of
// the boolean capability flags.
func (h *AdminHandler) ToggleType(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	if err := h.catalogService.ToggleType(c.Request.Context(), id, req.Field); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Flag toggled"})
}

// ListAllTemplates handles GET /v1/admin/catalog/templates.
func (h *AdminHandler) ListAllTemplates(c *gin.Context) {
	templates, err := h.catalogService.ListTemplates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "templates": templates})
}

// CreateTemplate handles POST /v1/admin/catalog/templates.
func (h *AdminHandler) CreateTemplate(c *gin.Context) {
	var tpl models.AssistanceTemplate
	if err := c.ShouldBindJSON(&tpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	created, err := h.catalogService.CreateTemplate(c.Request.Context(), &tpl)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "template": created})
}

// UpdateTemplate handles PUT /v1/admin/catalog/templates/:id.
func (h *AdminHandler) UpdateTemplate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	updated, err := h.catalogService.UpdateTemplate(c.Request.Context(), id, updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "template": updated})
}

// ReorderTemplate handles POST /v1/admin/catalog/templates/:id/reorder.
func (h *AdminHandler) ReorderTemplate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	if err := h.catalogService.ReorderTemplate(c.Request.Context(), id, req.ListOrder); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order updated"})
}

// DeleteTemplate handles DELETE /v1/admin/catalog/templates/:id.
func (h *AdminHandler) DeleteTemplate(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.catalogService.DeleteTemplate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Template deleted"})
}
