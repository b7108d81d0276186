package booking

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/response"
	"hotelbooking/internal/pkg/validator"
	"hotelbooking/internal/repository"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the booking API. public needs no token, guest needs
// any authenticated user and staff is limited to front desk roles.
func (h *Handler) RegisterRoutes(public, guest, staff *gin.RouterGroup) {
	public.GET("/rooms/:id/availability", h.CheckAvailability)

	guest.POST("/bookings", h.CreateBooking)
	guest.GET("/bookings/:id", h.GetBooking)
	guest.POST("/bookings/:id/cancel", h.CancelBooking)
	guest.GET("/me/bookings", h.ListMyBookings)

	staff.GET("/bookings", h.SearchBookings)
	staff.PATCH("/bookings/:id/status", h.TransitionBooking)
	staff.POST("/bookings/:id/confirm", h.transition(domain.BookingConfirmed))
	staff.POST("/bookings/:id/check-in", h.transition(domain.BookingCheckedIn))
	staff.POST("/bookings/:id/check-out", h.transition(domain.BookingCheckedOut))
	staff.POST("/bookings/:id/no-show", h.transition(domain.BookingNoShow))
	staff.GET("/rooms/:id/bookings", h.ListRoomBookings)
	staff.GET("/rooms/:id/conflicts", h.FindConflicts)

	desk := staff.Group("/front-desk")
	{
		desk.GET("/check-ins", h.list(h.service.TodayCheckIns))
		desk.GET("/check-outs", h.list(h.service.TodayCheckOuts))
		desk.GET("/active", h.list(h.service.ActiveBookings))
		desk.GET("/overdue", h.list(h.service.Overdue))
		desk.GET("/stats", h.Stats)
	}
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.BindingErrors(err))
		return
	}

	in, err := req.toNewBooking(c.GetInt64("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), in)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) GetBooking(c *gin.Context) {
	b, ok := h.ownedBooking(c)
	if !ok {
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"booking":             b,
		"allowed_transitions": AllowedTransitions(b.Status),
	})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	var req CancelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Cancellation reason is required", validator.BindingErrors(err))
		return
	}

	b, ok := h.ownedBooking(c)
	if !ok {
		return
	}

	b, err := h.service.Cancel(c.Request.Context(), b.ID, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ListMyBookings(c *gin.Context) {
	limit, offset := paging(c)
	email := c.GetString("email")
	if email == "" {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Token carries no email")
		return
	}

	bookings, err := h.service.ListGuestBookings(c.Request.Context(), email, limit, offset)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings, "limit": limit, "offset": offset})
}

func (h *Handler) TransitionBooking(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.BindingErrors(err))
		return
	}

	b, err := h.service.TransitionBooking(c.Request.Context(), id, req.Status, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) transition(target domain.BookingStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			return
		}
		b, err := h.service.TransitionBooking(c.Request.Context(), id, target, "")
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"booking": b})
	}
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	roomID, ok := idParam(c)
	if !ok {
		return
	}
	in, out, ok := dateRange(c, "check_in", "check_out")
	if !ok {
		return
	}

	available, err := h.service.CheckAvailability(c.Request.Context(), roomID, in, out)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, AvailabilityResponse{
		RoomID:       roomID,
		CheckInDate:  in.Format(domain.DateLayout),
		CheckOutDate: out.Format(domain.DateLayout),
		Available:    available,
	})
}

func (h *Handler) FindConflicts(c *gin.Context) {
	roomID, ok := idParam(c)
	if !ok {
		return
	}
	in, out, ok := dateRange(c, "check_in", "check_out")
	if !ok {
		return
	}

	conflicts, err := h.service.FindConflicts(c.Request.Context(), roomID, in, out)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"conflicts": conflicts})
}

func (h *Handler) ListRoomBookings(c *gin.Context) {
	roomID, ok := idParam(c)
	if !ok {
		return
	}
	bookings, err := h.service.ListRoomBookings(c.Request.Context(), roomID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings})
}

// SearchBookings accepts status (comma separated), room_id, guest_email,
// from and to (check-in window) plus limit and offset.
func (h *Handler) SearchBookings(c *gin.Context) {
	var f repository.BookingFilter
	f.Limit, f.Offset = paging(c)
	f.GuestEmail = strings.ToLower(strings.TrimSpace(c.Query("guest_email")))

	if v := c.Query("room_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "room_id must be a positive integer")
			return
		}
		f.RoomID = id
	}
	if v := c.Query("status"); v != "" {
		for _, s := range strings.Split(v, ",") {
			st := domain.BookingStatus(strings.ToUpper(strings.TrimSpace(s)))
			if !st.Valid() {
				response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "unknown status "+s)
				return
			}
			f.Statuses = append(f.Statuses, st)
		}
	}
	for key, dst := range map[string]**time.Time{"from": &f.CheckInFrom, "to": &f.CheckInTo} {
		if v := c.Query(key); v != "" {
			d, err := domain.ParseDate(v)
			if err != nil {
				response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", key+" must be YYYY-MM-DD")
				return
			}
			*dst = &d
		}
	}

	bookings, err := h.service.Search(c.Request.Context(), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"bookings": bookings, "limit": f.Limit, "offset": f.Offset})
}

func (h *Handler) Stats(c *gin.Context) {
	from, to, ok := dateRange(c, "from", "to")
	if !ok {
		return
	}
	ctx := c.Request.Context()

	stats, err := h.service.Stats(ctx, from, to)
	if err != nil {
		response.FromError(c, err)
		return
	}
	revenue, err := h.service.Revenue(ctx, from, to)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, StatsResponse{
		From:    from.Format(domain.DateLayout),
		To:      to.Format(domain.DateLayout),
		Stats:   stats,
		Revenue: revenue,
	})
}

func (h *Handler) list(fn func(ctx context.Context) ([]domain.Booking, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := fn(c.Request.Context())
		if err != nil {
			response.FromError(c, err)
			return
		}
		response.Success(c, http.StatusOK, gin.H{"bookings": bookings, "count": len(bookings)})
	}
}

// ownedBooking loads :id and lets guests see only their own bookings.
func (h *Handler) ownedBooking(c *gin.Context) (*domain.Booking, bool) {
	id, ok := idParam(c)
	if !ok {
		return nil, false
	}
	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return nil, false
	}

	if b.AccessibleBy(middleware.CurrentPrincipal(c)) {
		return b, true
	}
	// hide existence from other guests
	response.Error(c, http.StatusNotFound, "NOT_FOUND", "booking not found")
	return nil, false
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return 0, false
	}
	return id, true
}

func dateRange(c *gin.Context, fromKey, toKey string) (time.Time, time.Time, bool) {
	from, err := domain.ParseDate(c.Query(fromKey))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", fromKey+" must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	to, err := domain.ParseDate(c.Query(toKey))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", toKey+" must be YYYY-MM-DD")
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

func paging(c *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
