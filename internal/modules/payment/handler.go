package payment

import (
	"net/http"
	"strconv"
	"time"

	"hotelbooking/internal/middleware"
	"hotelbooking/internal/pkg/response"
	"hotelbooking/internal/pkg/validator"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts guest payment routes on guest and the reconciliation
// routes on staff.
func (h *Handler) RegisterRoutes(guest, staff *gin.RouterGroup) {
	guest.POST("/payments", h.ProcessPayment)

	staff.GET("/payments/stats", h.Stats)
	staff.GET("/payments/stale", h.StalePayments)
	staff.GET("/payments/transactions/:txn", h.GetByTransactionID)
	staff.GET("/payments/:id", h.GetPayment)
	staff.POST("/payments/:id/refund", h.Refund)
	staff.POST("/payments/:id/partial-refund", h.PartialRefund)
	staff.POST("/payments/:id/cancel", h.Cancel)
	staff.POST("/payments/:id/retry", h.Retry)
	staff.PATCH("/payments/:id/status", h.UpdateStatus)
	staff.GET("/bookings/:id/payments", h.ListByBooking)
}

func (h *Handler) ProcessPayment(c *gin.Context) {
	var req ProcessPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.BindingErrors(err))
		return
	}

	p, err := h.service.ProcessPaymentAs(c.Request.Context(), middleware.CurrentPrincipal(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"payment": p})
}

func (h *Handler) GetPayment(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	p, err := h.service.GetPayment(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) GetByTransactionID(c *gin.Context) {
	p, err := h.service.GetByTransactionID(c.Request.Context(), c.Param("txn"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) ListByBooking(c *gin.Context) {
	bookingID, ok := idParam(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()

	payments, err := h.service.ListByBooking(ctx, bookingID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	total, err := h.service.TotalPaidForBooking(ctx, bookingID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, BookingPaymentsResponse{
		BookingID: bookingID,
		Payments:  payments,
		TotalPaid: total,
	})
}

func (h *Handler) Refund(c *gin.Context) {
	h.refund(c, h.service.RefundPayment)
}

func (h *Handler) PartialRefund(c *gin.Context) {
	h.refund(c, h.service.PartialRefund)
}

func (h *Handler) refund(c *gin.Context, fn refundFunc) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req RefundPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.BindingErrors(err))
		return
	}

	p, err := fn(c.Request.Context(), id, req.Amount, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) Cancel(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req CancelPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Cancellation reason is required", validator.BindingErrors(err))
		return
	}

	p, err := h.service.CancelPayment(c.Request.Context(), id, req.Reason)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) Retry(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	p, err := h.service.RetryPayment(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.BindingErrors(err))
		return
	}

	p, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status, req.GatewayResponse)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payment": p})
}

// StalePayments lists PENDING or PROCESSING payments older than ?older_than
// (a Go duration, default 30m).
func (h *Handler) StalePayments(c *gin.Context) {
	olderThan, err := time.ParseDuration(c.DefaultQuery("older_than", "30m"))
	if err != nil || olderThan <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "older_than must be a positive duration such as 30m")
		return
	}

	payments, err := h.service.StalePayments(c.Request.Context(), h.service.now().Add(-olderThan))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": payments, "count": len(payments)})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, stats)
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return 0, false
	}
	return id, true
}
