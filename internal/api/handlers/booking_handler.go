package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"huntmate/backend/internal/services"
	"huntmate/backend/internal/tasks"
)

// BookingHandler handles the public assistance-request routes. Requesters are
// anonymous: a booking is retrieved by ID or request number, never by account.
type BookingHandler struct {
	bookingService services.IBookingService
	commentService services.ICommentService
	taskClient     *asynq.Client
}

// NewBookingHandler creates a new BookingHandler. taskClient may be nil in
// tests; photo cleanup is then skipped.
func NewBookingHandler(bookingService services.IBookingService, commentService services.ICommentService, taskClient *asynq.Client) *BookingHandler {
	return &BookingHandler{
		bookingService: bookingService,
		commentService: commentService,
		taskClient:     taskClient,
	}
}

// CreateBooking handles POST /v1/booking.
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var input services.CreateBookingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	booking, err := h.bookingService.Create(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"booking":       booking,
		"requestNumber": booking.RequestNumber,
	})
}

// GetBooking handles GET /v1/booking/:id.
func (h *BookingHandler) GetBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	booking, err := h.bookingService.FindByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// GetBookingByNumber handles GET /v1/booking/number/:number.
func (h *BookingHandler) GetBookingByNumber(c *gin.Context) {
	number := c.Param("number")
	booking, err := h.bookingService.FindByRequestNumber(c.Request.Context(), number)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// UpdateBooking handles PUT /v1/booking/:id, the requester edit path. Only
// legal while the booking is pending; identity fields and status are not
// bindable here.
func (h *BookingHandler) UpdateBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var updates services.BookingUpdate
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	booking, err := h.bookingService.Update(c.Request.Context(), id, updates)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "booking": booking})
}

// CancelBooking handles POST /v1/booking/:id/cancel, the requester's
// self-service cancellation.
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	if err := h.bookingService.Cancel(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Request cancelled"})
}

// DeleteBooking handles DELETE /v1/booking/:id. Only cancelled bookings can
// be removed; photo blobs are cleaned up in the background afterwards.
func (h *BookingHandler) DeleteBooking(c *gin.Context) {
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

// --- Comment thread ---

type appendCommentRequest struct {
	Content string `json:"content"`
}

// AppendComment handles POST /v1/booking/:id/comments for the requester side
// of the thread. Requester comments carry no author name.
func (h *BookingHandler) AppendComment(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req appendCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request format"})
		return
	}

	comment, err := h.commentService.Append(c.Request.Context(), id, req.Content, "", false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "comment": comment})
}

// ListComments handles GET /v1/booking/:id/comments. Opening the thread also
// marks the staff side's comments read for the requester.
func (h *BookingHandler) ListComments(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListByRequest(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if _, err := h.commentService.MarkRead(c.Request.Context(), id, false); err != nil {
		// The thread was fetched; a failed read-marker is not worth a 500.
		_ = c.Error(err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "comments": comments})
}

// MarkCommentsRead handles POST /v1/booking/:id/comments/read, an explicit
// read-marker for clients that poll counts without opening the thread.
func (h *BookingHandler) MarkCommentsRead(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	marked, err := h.commentService.MarkRead(c.Request.Context(), id, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "marked": marked})
}

// GetUnreadCounts handles GET /v1/booking/unread?ids=a,b,c for the recent
// requests list: one aggregation instead of a count query per booking.
func (h *BookingHandler) GetUnreadCounts(c *gin.Context) {
	ids := splitIDsParam(c.Query("ids"))
	counts, err := h.commentService.UnreadCounts(c.Request.Context(), ids, false)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "counts": counts})
}
