package roomservice

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"hotelbooking/internal/domain"
	"hotelbooking/internal/notification"
	"hotelbooking/internal/pkg/validator"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus"
)

// Service runs in-stay extras: the room service menu, food orders delivered
// to a room and housekeeping requests. Orders and requests always hang off a
// booking the caller can access.
type Service struct {
	menu         MenuRepository
	orders       FoodOrderRepository
	housekeeping HousekeepingRepository
	bookings     BookingLookup
	rooms        RoomLookup
	notifs       NotificationSender
	log          logrus.FieldLogger
	now          func() time.Time
}

func NewService(
	menu MenuRepository,
	orders FoodOrderRepository,
	housekeeping HousekeepingRepository,
	bookings BookingLookup,
	rooms RoomLookup,
	notifs NotificationSender,
	log logrus.FieldLogger,
) *Service {
	return &Service{
		menu:         menu,
		orders:       orders,
		housekeeping: housekeeping,
		bookings:     bookings,
		rooms:        rooms,
		notifs:       notifs,
		log:          log,
		now:          time.Now,
	}
}

/* ---------- MENU ---------- */

func (s *Service) CreateMenuItem(ctx context.Context, req CreateMenuItemRequest) (*domain.MenuItem, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fieldError(errs)
	}
	if !req.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown menu category %q", ErrValidation, req.Category)
	}

	item := &domain.MenuItem{
		Name:               strings.TrimSpace(req.Name),
		Description:        req.Description,
		Category:           req.Category,
		Price:              req.Price,
		ImageURL:           req.ImageURL,
		Available:          req.Available == nil || *req.Available,
		PreparationMinutes: req.PreparationMinutes,
		Ingredients:        req.Ingredients,
		Allergens:          req.Allergens,
		Vegetarian:         req.Vegetarian || req.Vegan,
		Vegan:              req.Vegan,
		GlutenFree:         req.GlutenFree,
	}
	if err := s.menu.Create(ctx, item); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"menu_item_id": item.ID, "category": item.Category}).Info("menu item created")
	return item, nil
}

func (s *Service) UpdateMenuItem(ctx context.Context, id int64, req UpdateMenuItemRequest) (*domain.MenuItem, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fieldError(errs)
	}
	item, err := s.menu.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		item.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.Category != nil {
		if !req.Category.Valid() {
			return nil, fmt.Errorf("%w: unknown menu category %q", ErrValidation, *req.Category)
		}
		item.Category = *req.Category
	}
	if req.Price != nil {
		item.Price = *req.Price
	}
	if req.ImageURL != nil {
		item.ImageURL = *req.ImageURL
	}
	if req.Available != nil {
		item.Available = *req.Available
	}
	if req.PreparationMinutes != nil {
		item.PreparationMinutes = *req.PreparationMinutes
	}
	if req.Ingredients != nil {
		item.Ingredients = *req.Ingredients
	}
	if req.Allergens != nil {
		item.Allergens = *req.Allergens
	}
	if req.Vegetarian != nil {
		item.Vegetarian = *req.Vegetarian
	}
	if req.Vegan != nil {
		item.Vegan = *req.Vegan
	}
	if req.GlutenFree != nil {
		item.GlutenFree = *req.GlutenFree
	}
	// vegan implies vegetarian
	if item.Vegan {
		item.Vegetarian = true
	}

	if errs := validator.Validate(item); errs != nil {
		return nil, fieldError(errs)
	}
	if err := s.menu.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *Service) GetMenuItem(ctx context.Context, id int64) (*domain.MenuItem, error) {
	return s.menu.GetByID(ctx, id)
}

func (s *Service) ListMenu(ctx context.Context, f repository.MenuFilter) ([]domain.MenuItem, error) {
	if f.Category != "" && !f.Category.Valid() {
		return nil, fmt.Errorf("%w: unknown menu category %q", ErrValidation, f.Category)
	}
	return s.menu.List(ctx, f)
}

/* ---------- FOOD ORDERS ---------- */

var orderTransitions = map[domain.FoodOrderStatus][]domain.FoodOrderStatus{
	domain.FoodOrderPending:          {domain.FoodOrderConfirmed, domain.FoodOrderCancelled},
	domain.FoodOrderConfirmed:        {domain.FoodOrderPreparing, domain.FoodOrderCancelled},
	domain.FoodOrderPreparing:        {domain.FoodOrderReadyForDelivery},
	domain.FoodOrderReadyForDelivery: {domain.FoodOrderOutForDelivery},
	domain.FoodOrderOutForDelivery:   {domain.FoodOrderDelivered},
}

// CanTransitionOrder reports whether a food order may move from one status to
// another. Orders only move forward; the kitchen cannot cancel once cooking.
func CanTransitionOrder(from, to domain.FoodOrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PlaceFoodOrder prices the lines from the current menu and queues the order
// for the room of a checked-in booking.
func (s *Service) PlaceFoodOrder(ctx context.Context, caller domain.Principal, req PlaceOrderRequest) (*domain.FoodOrder, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fieldError(errs)
	}
	now := s.now().UTC()
	if req.RequestedDeliveryTime != nil && req.RequestedDeliveryTime.Before(now) {
		return nil, fmt.Errorf("%w: requested delivery time is in the past", ErrValidation)
	}

	b, err := s.accessibleBooking(ctx, caller, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingCheckedIn {
		return nil, fmt.Errorf("%w: booking %d is %s", ErrGuestNotInHouse, b.ID, b.Status)
	}
	room, err := s.rooms.GetByID(ctx, b.RoomID)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, 0, len(req.Items))
	for _, line := range req.Items {
		ids = append(ids, line.MenuItemID)
	}
	items, err := s.menu.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	order := &domain.FoodOrder{
		BookingID:             b.ID,
		RoomNumber:            room.RoomNumber,
		GuestName:             b.GuestName,
		GuestPhone:            firstNonEmpty(req.GuestPhone, b.GuestPhone),
		Status:                domain.FoodOrderPending,
		SpecialInstructions:   req.SpecialInstructions,
		RequestedDeliveryTime: req.RequestedDeliveryTime,
		Items:                 make([]domain.FoodOrderItem, 0, len(req.Items)),
	}
	for _, line := range req.Items {
		item, ok := items[line.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: menu item %d", domain.ErrNotFound, line.MenuItemID)
		}
		if !item.Available {
			return nil, fmt.Errorf("%w: %s", ErrItemUnavailable, item.Name)
		}
		order.Items = append(order.Items, domain.FoodOrderItem{
			MenuItemID:      item.ID,
			Name:            item.Name,
			Quantity:        line.Quantity,
			UnitPrice:       item.Price,
			SpecialRequests: line.SpecialRequests,
		})
	}
	order.Price()
	eta := now.Add(domain.RoomServiceLeadTime)
	if req.RequestedDeliveryTime != nil && req.RequestedDeliveryTime.After(eta) {
		eta = req.RequestedDeliveryTime.UTC()
	}
	order.EstimatedDeliveryTime = &eta

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"order_id":    order.ID,
		"booking_id":  order.BookingID,
		"room_number": order.RoomNumber,
		"lines":       len(order.Items),
		"total":       order.Total,
	}).Info("food order placed")
	s.notifyOrder(ctx, notification.TypeFoodOrderPlaced, order, b)
	return order, nil
}

func (s *Service) GetFoodOrder(ctx context.Context, caller domain.Principal, id int64) (*domain.FoodOrder, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.accessibleBooking(ctx, caller, o.BookingID); err != nil {
		return nil, hideForeign(err, "food order", id)
	}
	return o, nil
}

// ListBookingFoodOrders lists the orders of one stay, newest first.
func (s *Service) ListBookingFoodOrders(ctx context.Context, caller domain.Principal, bookingID int64) ([]domain.FoodOrder, error) {
	if _, err := s.accessibleBooking(ctx, caller, bookingID); err != nil {
		return nil, err
	}
	return s.orders.List(ctx, repository.FoodOrderFilter{BookingID: bookingID})
}

func (s *Service) ListFoodOrders(ctx context.Context, f repository.FoodOrderFilter) ([]domain.FoodOrder, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown food order status %q", ErrValidation, f.Status)
	}
	return s.orders.List(ctx, f)
}

// UpdateFoodOrderStatus moves an order along the kitchen workflow.
func (s *Service) UpdateFoodOrderStatus(ctx context.Context, id int64, req UpdateOrderStatusRequest) (*domain.FoodOrder, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fieldError(errs)
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown food order status %q", ErrValidation, req.Status)
	}
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.moveOrder(ctx, o, req.Status, strings.TrimSpace(req.DeliveryStaff), strings.TrimSpace(req.Reason))
}

// CancelFoodOrder lets the guest withdraw an order the kitchen has not
// started yet.
func (s *Service) CancelFoodOrder(ctx context.Context, caller domain.Principal, id int64, req CancelRequest) (*domain.FoodOrder, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fieldError(errs)
	}
	o, err := s.GetFoodOrder(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = "cancelled by guest"
	}
	return s.moveOrder(ctx, o, domain.FoodOrderCancelled, "", reason)
}

func (s *Service) moveOrder(ctx context.Context, o *domain.FoodOrder, to domain.FoodOrderStatus, staff, reason string) (*domain.FoodOrder, error) {
	if !CanTransitionOrder(o.Status, to) {
		return nil, fmt.Errorf("%w: food order %s -> %s", ErrInvalidTransition, o.Status, to)
	}
	from := o.Status
	o.Status = to
	switch to {
	case domain.FoodOrderOutForDelivery:
		if staff != "" {
			o.DeliveryStaff = staff
		}
	case domain.FoodOrderDelivered:
		at := s.now().UTC()
		o.ActualDeliveryTime = &at
		if staff != "" {
			o.DeliveryStaff = staff
		}
	case domain.FoodOrderCancelled:
		o.CancellationReason = reason
	}
	if err := s.orders.UpdateStatus(ctx, o); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"order_id": o.ID, "from": from, "to": to}).Info("food order status changed")
	s.notifyOrder(ctx, notification.TypeFoodOrderUpdated, o, nil)
	return o, nil
}

/* ---------- HOUSEKEEPING ---------- */

var housekeepingTransitions = map[domain.HousekeepingStatus][]domain.HousekeepingStatus{
	domain.HousekeepingPending:    {domain.HousekeepingInProgress, domain.HousekeepingCancelled},
	domain.HousekeepingInProgress: {domain.HousekeepingCompleted, domain.HousekeepingCancelled},
}

func CanTransitionHousekeeping(from, to domain.HousekeepingStatus) bool {
	for _, next := range housekeepingTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RequestHousekeeping files a request for the room of a confirmed or
// checked-in booking. Priority defaults to MEDIUM.
func (s *Service) RequestHousekeeping(ctx context.Context, caller domain.Principal, req CreateHousekeepingRequest) (*domain.HousekeepingRequest, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fieldError(errs)
	}
	if !req.RequestType.Valid() {
		return nil, fmt.Errorf("%w: unknown request type %q", ErrValidation, req.RequestType)
	}
	if req.Priority == "" {
		req.Priority = domain.PriorityMedium
	}
	if !req.Priority.Valid() {
		return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, req.Priority)
	}

	b, err := s.accessibleBooking(ctx, caller, req.BookingID)
	if err != nil {
		return nil, err
	}
	if b.Status != domain.BookingConfirmed && b.Status != domain.BookingCheckedIn {
		return nil, fmt.Errorf("%w: booking %d is %s", ErrStayNotActive, b.ID, b.Status)
	}
	room, err := s.rooms.GetByID(ctx, b.RoomID)
	if err != nil {
		return nil, err
	}

	h := &domain.HousekeepingRequest{
		BookingID:           b.ID,
		RoomNumber:          room.RoomNumber,
		GuestName:           b.GuestName,
		GuestPhone:          firstNonEmpty(req.GuestPhone, b.GuestPhone),
		RequestType:         req.RequestType,
		Priority:            req.Priority,
		Description:         strings.TrimSpace(req.Description),
		SpecialInstructions: req.SpecialInstructions,
		Status:              domain.HousekeepingPending,
		PreferredTime:       req.PreferredTime,
	}
	if err := s.housekeeping.Create(ctx, h); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{
		"request_id":  h.ID,
		"room_number": h.RoomNumber,
		"type":        h.RequestType,
		"priority":    h.Priority,
	}).Info("housekeeping requested")
	s.notifyHousekeeping(ctx, notification.TypeHousekeepingRequested, h, b)
	return h, nil
}

func (s *Service) GetHousekeepingRequest(ctx context.Context, caller domain.Principal, id int64) (*domain.HousekeepingRequest, error) {
	h, err := s.housekeeping.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.accessibleBooking(ctx, caller, h.BookingID); err != nil {
		return nil, hideForeign(err, "housekeeping request", id)
	}
	return h, nil
}

// ListHousekeeping returns matching requests, most urgent first and oldest
// first within a priority.
func (s *Service) ListHousekeeping(ctx context.Context, f repository.HousekeepingFilter) ([]domain.HousekeepingRequest, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown housekeeping status %q", ErrValidation, f.Status)
	}
	if f.RequestType != "" && !f.RequestType.Valid() {
		return nil, fmt.Errorf("%w: unknown request type %q", ErrValidation, f.RequestType)
	}
	list, err := s.housekeeping.List(ctx, f)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].Priority.Rank() > list[j].Priority.Rank() })
	return list, nil
}

// AssignHousekeeping hands a request to a staff member. A pending request
// starts at assignment; an in-progress one can be reassigned.
func (s *Service) AssignHousekeeping(ctx context.Context, id int64, req AssignHousekeepingRequest) (*domain.HousekeepingRequest, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fieldError(errs)
	}
	h, err := s.housekeeping.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch h.Status {
	case domain.HousekeepingPending:
		now := s.now().UTC()
		h.Status = domain.HousekeepingInProgress
		h.StartedAt = &now
	case domain.HousekeepingInProgress:
	default:
		return nil, fmt.Errorf("%w: housekeeping request %d is %s", ErrInvalidTransition, h.ID, h.Status)
	}
	h.AssignedStaff = strings.TrimSpace(req.Staff)
	if req.ScheduledTime != nil {
		at := req.ScheduledTime.UTC()
		h.ScheduledTime = &at
	}
	if err := s.housekeeping.Update(ctx, h); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"request_id": h.ID, "staff": h.AssignedStaff}).Info("housekeeping assigned")
	s.notifyHousekeeping(ctx, notification.TypeHousekeepingUpdated, h, nil)
	return h, nil
}

func (s *Service) UpdateHousekeepingStatus(ctx context.Context, id int64, req UpdateHousekeepingStatusRequest) (*domain.HousekeepingRequest, error) {
	if errs := validator.Validate(req); errs != nil {
		return nil, fieldError(errs)
	}
	if !req.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown housekeeping status %q", ErrValidation, req.Status)
	}
	h, err := s.housekeeping.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.moveHousekeeping(ctx, h, req.Status, strings.TrimSpace(req.CompletionNotes))
}

// CancelHousekeeping withdraws a request nobody has picked up yet.
func (s *Service) CancelHousekeeping(ctx context.Context, caller domain.Principal, id int64) (*domain.HousekeepingRequest, error) {
	h, err := s.GetHousekeepingRequest(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	if h.Status != domain.HousekeepingPending && !caller.IsStaff() {
		return nil, fmt.Errorf("%w: housekeeping request %d is already %s", ErrInvalidTransition, h.ID, h.Status)
	}
	return s.moveHousekeeping(ctx, h, domain.HousekeepingCancelled, "")
}

func (s *Service) moveHousekeeping(ctx context.Context, h *domain.HousekeepingRequest, to domain.HousekeepingStatus, notes string) (*domain.HousekeepingRequest, error) {
	if !CanTransitionHousekeeping(h.Status, to) {
		return nil, fmt.Errorf("%w: housekeeping %s -> %s", ErrInvalidTransition, h.Status, to)
	}
	from := h.Status
	now := s.now().UTC()
	h.Status = to
	switch to {
	case domain.HousekeepingInProgress:
		h.StartedAt = &now
	case domain.HousekeepingCompleted:
		h.CompletedAt = &now
		h.CompletionNotes = notes
	}
	if err := s.housekeeping.Update(ctx, h); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"request_id": h.ID, "from": from, "to": to}).Info("housekeeping status changed")
	s.notifyHousekeeping(ctx, notification.TypeHousekeepingUpdated, h, nil)
	return h, nil
}

/* ---------- HELPERS ---------- */

// accessibleBooking loads a booking the caller may act on. Other guests get
// ErrNotFound so existence does not leak.
func (s *Service) accessibleBooking(ctx context.Context, caller domain.Principal, id int64) (*domain.Booking, error) {
	b, err := s.bookings.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.AccessibleBy(caller) {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	return b, nil
}

// hideForeign reports a record on someone else's booking as missing.
func hideForeign(err error, entity string, id int64) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, entity, id)
	}
	return err
}

func (s *Service) notifyOrder(ctx context.Context, typ string, o *domain.FoodOrder, b *domain.Booking) {
	e := notification.Event{
		Type:       typ,
		BookingID:  o.BookingID,
		RequestID:  o.ID,
		RoomNumber: o.RoomNumber,
		Status:     string(o.Status),
		GuestName:  o.GuestName,
		Amount:     o.Total,
		Reason:     o.CancellationReason,
		OccurredAt: s.now().UTC(),
	}
	if b != nil {
		e.GuestEmail = b.GuestEmail
	}
	s.send(ctx, e)
}

func (s *Service) notifyHousekeeping(ctx context.Context, typ string, h *domain.HousekeepingRequest, b *domain.Booking) {
	e := notification.Event{
		Type:       typ,
		BookingID:  h.BookingID,
		RequestID:  h.ID,
		RoomNumber: h.RoomNumber,
		Status:     string(h.Status),
		GuestName:  h.GuestName,
		Reason:     string(h.RequestType),
		OccurredAt: s.now().UTC(),
	}
	if b != nil {
		e.GuestEmail = b.GuestEmail
	}
	s.send(ctx, e)
}

func (s *Service) send(ctx context.Context, e notification.Event) {
	if s.notifs == nil {
		return
	}
	if err := s.notifs.Notify(ctx, e); err != nil {
		s.log.WithError(err).WithField("event", e.Type).Warn("room service notification failed")
	}
}

func fieldError(errs map[string]string) error {
	fields := make([]string, 0, len(errs))
	for field, tag := range errs {
		fields = append(fields, field+" ("+tag+")")
	}
	sort.Strings(fields)
	return fmt.Errorf("%w: invalid %s", ErrValidation, strings.Join(fields, ", "))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
