package roomservice

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/notification"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification.Event
}

func (r *recordingNotifier) Notify(_ context.Context, e notification.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingNotifier) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

type stubBookings map[int64]*domain.Booking

func (s stubBookings) GetBooking(_ context.Context, id int64) (*domain.Booking, error) {
	b, ok := s[id]
	if !ok {
		return nil, fmt.Errorf("%w: booking %d", domain.ErrNotFound, id)
	}
	cp := *b
	return &cp, nil
}

var (
	grace = domain.Principal{UserID: 3, Email: "grace@example.com", Role: domain.RoleGuest}
	ada   = domain.Principal{UserID: 7, Email: "ada@example.com", Role: domain.RoleGuest}
	desk  = domain.Principal{UserID: 1, Email: "frontdesk@example.com", Role: domain.RoleStaff}
)

type fixture struct {
	svc      *Service
	menu     *repository.MenuRepository
	bookings stubBookings
	notifier *recordingNotifier
	now      time.Time
}

// newFixture seeds room 204 with a checked-in stay (booking 1) and a
// confirmed one (booking 2), both for grace.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:roomservice_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	rooms := repository.NewRoomRepository(db)
	room := &domain.Room{RoomNumber: "204", RoomType: domain.RoomDouble, PricePerNight: 10000, Status: domain.RoomOccupied, Capacity: 2, FloorNumber: 2}
	require.NoError(t, rooms.Create(context.Background(), room))

	f := &fixture{
		menu: repository.NewMenuRepository(db),
		bookings: stubBookings{
			1: {ID: 1, RoomID: room.ID, GuestID: 3, GuestName: "Grace Hopper", GuestEmail: "grace@example.com", GuestPhone: "+15550100", Status: domain.BookingCheckedIn},
			2: {ID: 2, RoomID: room.ID, GuestID: 3, GuestName: "Grace Hopper", GuestEmail: "grace@example.com", Status: domain.BookingConfirmed},
			3: {ID: 3, RoomID: room.ID, GuestName: "Grace Hopper", GuestEmail: "grace@example.com", Status: domain.BookingCheckedOut},
		},
		notifier: &recordingNotifier{},
		now:      time.Date(2024, 2, 15, 19, 0, 0, 0, time.UTC),
	}
	log, _ := test.NewNullLogger()
	f.svc = NewService(f.menu, repository.NewFoodOrderRepository(db), repository.NewHousekeepingRepository(db), f.bookings, rooms, f.notifier, log)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) item(t *testing.T, name string, price int64, available bool) *domain.MenuItem {
	t.Helper()
	item, err := f.svc.CreateMenuItem(context.Background(), CreateMenuItemRequest{
		Name: name, Category: domain.MenuMainCourse, Price: price, Available: &available,
	})
	require.NoError(t, err)
	return item
}

func (f *fixture) order(t *testing.T) *domain.FoodOrder {
	t.Helper()
	soup := f.item(t, "Tomato soup", 1200, true)
	o, err := f.svc.PlaceFoodOrder(context.Background(), grace, PlaceOrderRequest{
		BookingID: 1, Items: []OrderLine{{MenuItemID: soup.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	return o
}

func TestMenu_CreateUpdateAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateMenuItem(ctx, CreateMenuItemRequest{Name: "Mystery", Category: "TAPAS", Price: 100})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.CreateMenuItem(ctx, CreateMenuItemRequest{Name: "Free lunch", Category: domain.MenuLunch})
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	salad, err := f.svc.CreateMenuItem(ctx, CreateMenuItemRequest{Name: " Green salad ", Category: domain.MenuAppetizers, Price: 900, Vegan: true})
	require.NoError(t, err)
	assert.Equal(t, "Green salad", salad.Name)
	assert.True(t, salad.Available)
	assert.True(t, salad.Vegetarian)
	f.item(t, "Steak", 4500, true)

	off := false
	updated, err := f.svc.UpdateMenuItem(ctx, salad.ID, UpdateMenuItemRequest{Available: &off})
	require.NoError(t, err)
	assert.False(t, updated.Available)
	assert.Equal(t, int64(900), updated.Price)

	list, err := f.svc.ListMenu(ctx, repository.MenuFilter{AvailableOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Steak", list[0].Name)

	_, err = f.svc.ListMenu(ctx, repository.MenuFilter{Category: "TAPAS"})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.UpdateMenuItem(ctx, 999, UpdateMenuItemRequest{Available: &off})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestPlaceFoodOrder_PricesFromMenu(t *testing.T) {
	f := newFixture(t)
	soup := f.item(t, "Tomato soup", 1200, true)
	steak := f.item(t, "Steak", 4500, true)

	o, err := f.svc.PlaceFoodOrder(context.Background(), grace, PlaceOrderRequest{
		BookingID: 1,
		Items:     []OrderLine{{MenuItemID: soup.ID, Quantity: 2}, {MenuItemID: steak.ID, Quantity: 1, SpecialRequests: "medium rare"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "204", o.RoomNumber)
	assert.Equal(t, "+15550100", o.GuestPhone)
	assert.Equal(t, domain.FoodOrderPending, o.Status)
	require.Len(t, o.Items, 2)
	assert.Equal(t, int64(2400), o.Items[0].TotalPrice)
	assert.Equal(t, int64(6900), o.Subtotal)
	assert.Equal(t, int64(690), o.Tax)
	assert.Equal(t, int64(domain.RoomServiceDeliveryFee), o.DeliveryFee)
	assert.Equal(t, int64(6900+690+domain.RoomServiceDeliveryFee), o.Total)
	require.NotNil(t, o.EstimatedDeliveryTime)
	assert.True(t, o.EstimatedDeliveryTime.Equal(f.now.Add(domain.RoomServiceLeadTime)))

	assert.Equal(t, []string{notification.TypeFoodOrderPlaced}, f.notifier.types())
	assert.Equal(t, "grace@example.com", f.notifier.events[0].GuestEmail)
	assert.Equal(t, o.ID, f.notifier.events[0].RequestID)
}

func TestPlaceFoodOrder_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	soup := f.item(t, "Tomato soup", 1200, true)
	gone := f.item(t, "Lobster", 9000, false)
	line := []OrderLine{{MenuItemID: soup.ID, Quantity: 1}}
	past := f.now.Add(-time.Hour)

	cases := []struct {
		name   string
		caller domain.Principal
		req    PlaceOrderRequest
		want   error
	}{
		{"no lines", grace, PlaceOrderRequest{BookingID: 1}, ErrValidation},
		{"too many of one dish", grace, PlaceOrderRequest{BookingID: 1, Items: []OrderLine{{MenuItemID: soup.ID, Quantity: 21}}}, ErrValidation},
		{"delivery in the past", grace, PlaceOrderRequest{BookingID: 1, Items: line, RequestedDeliveryTime: &past}, ErrValidation},
		{"unknown booking", grace, PlaceOrderRequest{BookingID: 99, Items: line}, domain.ErrNotFound},
		{"someone else's stay", ada, PlaceOrderRequest{BookingID: 1, Items: line}, domain.ErrNotFound},
		{"not checked in", grace, PlaceOrderRequest{BookingID: 2, Items: line}, ErrGuestNotInHouse},
		{"unknown dish", grace, PlaceOrderRequest{BookingID: 1, Items: []OrderLine{{MenuItemID: 404, Quantity: 1}}}, domain.ErrNotFound},
		{"sold out", grace, PlaceOrderRequest{BookingID: 1, Items: []OrderLine{{MenuItemID: gone.ID, Quantity: 1}}}, ErrItemUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.PlaceFoodOrder(ctx, tc.caller, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
	assert.Empty(t, f.notifier.types())

	_, err := f.svc.PlaceFoodOrder(ctx, desk, PlaceOrderRequest{BookingID: 1, Items: line})
	assert.NoError(t, err)
}

func TestFoodOrder_KitchenWorkflow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t)

	steps := []domain.FoodOrderStatus{
		domain.FoodOrderConfirmed,
		domain.FoodOrderPreparing,
		domain.FoodOrderReadyForDelivery,
		domain.FoodOrderOutForDelivery,
	}
	for _, st := range steps {
		var err error
		o, err = f.svc.UpdateFoodOrderStatus(ctx, o.ID, UpdateOrderStatusRequest{Status: st, DeliveryStaff: "Sam"})
		require.NoError(t, err, st)
	}
	assert.Equal(t, "Sam", o.DeliveryStaff)
	assert.Nil(t, o.ActualDeliveryTime)

	f.now = f.now.Add(40 * time.Minute)
	o, err := f.svc.UpdateFoodOrderStatus(ctx, o.ID, UpdateOrderStatusRequest{Status: domain.FoodOrderDelivered})
	require.NoError(t, err)
	require.NotNil(t, o.ActualDeliveryTime)
	assert.True(t, o.ActualDeliveryTime.Equal(f.now))

	_, err = f.svc.UpdateFoodOrderStatus(ctx, o.ID, UpdateOrderStatusRequest{Status: domain.FoodOrderCancelled})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = f.svc.UpdateFoodOrderStatus(ctx, o.ID, UpdateOrderStatusRequest{Status: "EATEN"})
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := f.svc.GetFoodOrder(ctx, grace, o.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FoodOrderDelivered, stored.Status)
	assert.Len(t, f.notifier.types(), 6)
}

func TestFoodOrder_SkippingAStepIsRejected(t *testing.T) {
	f := newFixture(t)
	o := f.order(t)

	_, err := f.svc.UpdateFoodOrderStatus(context.Background(), o.ID, UpdateOrderStatusRequest{Status: domain.FoodOrderDelivered})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelFoodOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	o := f.order(t)

	_, err := f.svc.CancelFoodOrder(ctx, ada, o.ID, CancelRequest{})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cancelled, err := f.svc.CancelFoodOrder(ctx, grace, o.ID, CancelRequest{})
	require.NoError(t, err)
	assert.Equal(t, domain.FoodOrderCancelled, cancelled.Status)
	assert.Equal(t, "cancelled by guest", cancelled.CancellationReason)

	cooking := f.order(t)
	for _, st := range []domain.FoodOrderStatus{domain.FoodOrderConfirmed, domain.FoodOrderPreparing} {
		_, err = f.svc.UpdateFoodOrderStatus(ctx, cooking.ID, UpdateOrderStatusRequest{Status: st})
		require.NoError(t, err)
	}
	_, err = f.svc.CancelFoodOrder(ctx, grace, cooking.ID, CancelRequest{Reason: "changed my mind"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestListBookingFoodOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	first := f.order(t)
	second := f.order(t)

	orders, err := f.svc.ListBookingFoodOrders(ctx, grace, 1)
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.ElementsMatch(t, []int64{first.ID, second.ID}, []int64{orders[0].ID, orders[1].ID})

	_, err = f.svc.ListBookingFoodOrders(ctx, ada, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	all, err := f.svc.ListFoodOrders(ctx, repository.FoodOrderFilter{RoomNumber: "204", Status: domain.FoodOrderPending})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestHousekeeping_RequestAssignComplete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	h, err := f.svc.RequestHousekeeping(ctx, grace, CreateHousekeepingRequest{
		BookingID: 2, RequestType: domain.HousekeepingAmenities, Description: "Two extra pillows",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, h.Priority)
	assert.Equal(t, domain.HousekeepingPending, h.Status)
	assert.Equal(t, "204", h.RoomNumber)

	scheduled := f.now.Add(30 * time.Minute)
	h, err = f.svc.AssignHousekeeping(ctx, h.ID, AssignHousekeepingRequest{Staff: "Rosa", ScheduledTime: &scheduled})
	require.NoError(t, err)
	assert.Equal(t, domain.HousekeepingInProgress, h.Status)
	assert.Equal(t, "Rosa", h.AssignedStaff)
	require.NotNil(t, h.StartedAt)

	_, err = f.svc.CancelHousekeeping(ctx, grace, h.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	h, err = f.svc.UpdateHousekeepingStatus(ctx, h.ID, UpdateHousekeepingStatusRequest{Status: domain.HousekeepingCompleted, CompletionNotes: "delivered"})
	require.NoError(t, err)
	require.NotNil(t, h.CompletedAt)
	assert.Equal(t, "delivered", h.CompletionNotes)

	_, err = f.svc.AssignHousekeeping(ctx, h.ID, AssignHousekeepingRequest{Staff: "Rosa"})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	assert.Equal(t, []string{
		notification.TypeHousekeepingRequested,
		notification.TypeHousekeepingUpdated,
		notification.TypeHousekeepingUpdated,
	}, f.notifier.types())
}

func TestHousekeeping_Rejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	valid := CreateHousekeepingRequest{BookingID: 1, RequestType: domain.HousekeepingCleaning, Description: "Turn down"}

	bad := valid
	bad.RequestType = "PAINTING"
	_, err := f.svc.RequestHousekeeping(ctx, grace, bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = valid
	bad.Priority = "WHENEVER"
	_, err = f.svc.RequestHousekeeping(ctx, grace, bad)
	assert.ErrorIs(t, err, ErrValidation)

	bad = valid
	bad.BookingID = 3
	_, err = f.svc.RequestHousekeeping(ctx, grace, bad)
	assert.ErrorIs(t, err, ErrStayNotActive)

	_, err = f.svc.RequestHousekeeping(ctx, ada, valid)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	h, err := f.svc.RequestHousekeeping(ctx, grace, valid)
	require.NoError(t, err)
	_, err = f.svc.GetHousekeepingRequest(ctx, ada, h.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cancelled, err := f.svc.CancelHousekeeping(ctx, grace, h.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.HousekeepingCancelled, cancelled.Status)
}

func TestListHousekeeping_UrgentFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, p := range []domain.Priority{domain.PriorityLow, domain.PriorityUrgent, domain.PriorityMedium, domain.PriorityUrgent} {
		_, err := f.svc.RequestHousekeeping(ctx, grace, CreateHousekeepingRequest{
			BookingID: 1, RequestType: domain.HousekeepingMaintenance, Priority: p, Description: string(p),
		})
		require.NoError(t, err)
	}

	list, err := f.svc.ListHousekeeping(ctx, repository.HousekeepingFilter{Status: domain.HousekeepingPending})
	require.NoError(t, err)
	require.Len(t, list, 4)
	got := make([]domain.Priority, 0, len(list))
	for _, h := range list {
		got = append(got, h.Priority)
	}
	assert.Equal(t, []domain.Priority{domain.PriorityUrgent, domain.PriorityUrgent, domain.PriorityMedium, domain.PriorityLow}, got)
	assert.Less(t, list[0].ID, list[1].ID)

	_, err = f.svc.ListHousekeeping(ctx, repository.HousekeepingFilter{Status: "DONE"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCanTransitionOrder(t *testing.T) {
	assert.True(t, CanTransitionOrder(domain.FoodOrderPending, domain.FoodOrderCancelled))
	assert.True(t, CanTransitionOrder(domain.FoodOrderConfirmed, domain.FoodOrderCancelled))
	assert.False(t, CanTransitionOrder(domain.FoodOrderPreparing, domain.FoodOrderCancelled))
	assert.False(t, CanTransitionOrder(domain.FoodOrderDelivered, domain.FoodOrderPending))
	assert.False(t, CanTransitionOrder(domain.FoodOrderCancelled, domain.FoodOrderConfirmed))
}
