package roomservice

import (
	"net/http"
	"strconv"

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

// RegisterRoutes mounts the menu publicly, guest ordering and requests behind
// a token, and the kitchen and housekeeping boards behind staff roles.
func (h *Handler) RegisterRoutes(public, guest, staff *gin.RouterGroup) {
	public.GET("/menu", h.ListMenu)
	public.GET("/menu/categories", h.Categories)
	public.GET("/menu/:id", h.GetMenuItem)

	guest.POST("/food-orders", h.PlaceFoodOrder)
	guest.GET("/food-orders/:id", h.GetFoodOrder)
	guest.POST("/food-orders/:id/cancel", h.CancelFoodOrder)
	guest.GET("/bookings/:id/food-orders", h.ListBookingFoodOrders)
	guest.POST("/housekeeping", h.RequestHousekeeping)
	guest.GET("/housekeeping/:id", h.GetHousekeepingRequest)
	guest.POST("/housekeeping/:id/cancel", h.CancelHousekeeping)

	staff.POST("/menu", h.CreateMenuItem)
	staff.PATCH("/menu/:id", h.UpdateMenuItem)
	staff.GET("/food-orders", h.ListFoodOrders)
	staff.PATCH("/food-orders/:id/status", h.UpdateFoodOrderStatus)
	staff.GET("/housekeeping", h.ListHousekeeping)
	staff.PATCH("/housekeeping/:id/status", h.UpdateHousekeepingStatus)
	staff.PATCH("/housekeeping/:id/assign", h.AssignHousekeeping)
}

/* ---------- MENU ---------- */

func (h *Handler) ListMenu(c *gin.Context) {
	f := repository.MenuFilter{
		Category:      domain.MenuCategory(c.Query("category")),
		AvailableOnly: c.DefaultQuery("available", "true") == "true",
		Search:        c.Query("q"),
		Vegetarian:    c.Query("vegetarian") == "true",
		Vegan:         c.Query("vegan") == "true",
		GlutenFree:    c.Query("gluten_free") == "true",
	}
	items, err := h.service.ListMenu(c.Request.Context(), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"items": items})
}

func (h *Handler) Categories(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"categories": domain.MenuCategories})
}

func (h *Handler) GetMenuItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	item, err := h.service.GetMenuItem(c.Request.Context(), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"item": item})
}

func (h *Handler) CreateMenuItem(c *gin.Context) {
	var req CreateMenuItemRequest
	if !bind(c, &req) {
		return
	}
	item, err := h.service.CreateMenuItem(c.Request.Context(), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"item": item})
}

func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateMenuItemRequest
	if !bind(c, &req) {
		return
	}
	item, err := h.service.UpdateMenuItem(c.Request.Context(), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"item": item})
}

/* ---------- FOOD ORDERS ---------- */

func (h *Handler) PlaceFoodOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if !bind(c, &req) {
		return
	}
	o, err := h.service.PlaceFoodOrder(c.Request.Context(), middleware.CurrentPrincipal(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"order": o})
}

func (h *Handler) GetFoodOrder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	o, err := h.service.GetFoodOrder(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"order": o})
}

func (h *Handler) CancelFoodOrder(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req CancelRequest
	if c.Request.ContentLength != 0 && !bind(c, &req) {
		return
	}
	o, err := h.service.CancelFoodOrder(c.Request.Context(), middleware.CurrentPrincipal(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"order": o})
}

func (h *Handler) ListBookingFoodOrders(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	orders, err := h.service.ListBookingFoodOrders(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) ListFoodOrders(c *gin.Context) {
	f := repository.FoodOrderFilter{
		RoomNumber: c.Query("room_number"),
		Status:     domain.FoodOrderStatus(c.Query("status")),
	}
	orders, err := h.service.ListFoodOrders(c.Request.Context(), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"orders": orders})
}

func (h *Handler) UpdateFoodOrderStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if !bind(c, &req) {
		return
	}
	o, err := h.service.UpdateFoodOrderStatus(c.Request.Context(), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"order": o})
}

/* ---------- HOUSEKEEPING ---------- */

func (h *Handler) RequestHousekeeping(c *gin.Context) {
	var req CreateHousekeepingRequest
	if !bind(c, &req) {
		return
	}
	r, err := h.service.RequestHousekeeping(c.Request.Context(), middleware.CurrentPrincipal(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"request": r})
}

func (h *Handler) GetHousekeepingRequest(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	r, err := h.service.GetHousekeepingRequest(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"request": r})
}

func (h *Handler) CancelHousekeeping(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	r, err := h.service.CancelHousekeeping(c.Request.Context(), middleware.CurrentPrincipal(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"request": r})
}

func (h *Handler) ListHousekeeping(c *gin.Context) {
	f := repository.HousekeepingFilter{
		RoomNumber:  c.Query("room_number"),
		Status:      domain.HousekeepingStatus(c.Query("status")),
		RequestType: domain.HousekeepingType(c.Query("type")),
	}
	if v := c.Query("booking_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking_id")
			return
		}
		f.BookingID = id
	}
	list, err := h.service.ListHousekeeping(c.Request.Context(), f)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"requests": list})
}

func (h *Handler) AssignHousekeeping(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req AssignHousekeepingRequest
	if !bind(c, &req) {
		return
	}
	r, err := h.service.AssignHousekeeping(c.Request.Context(), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"request": r})
}

func (h *Handler) UpdateHousekeepingStatus(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	var req UpdateHousekeepingStatusRequest
	if !bind(c, &req) {
		return
	}
	r, err := h.service.UpdateHousekeepingStatus(c.Request.Context(), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"request": r})
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body", validator.BindingErrors(err))
		return false
	}
	return true
}

func idParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid id")
		return 0, false
	}
	return id, true
}
