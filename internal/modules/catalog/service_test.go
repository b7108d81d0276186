package catalog

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/repository"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      *Service
	rooms    *repository.RoomRepository
	bookings *repository.BookingRepository
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:catalog_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	log, _ := test.NewNullLogger()
	f := &fixture{
		rooms:    repository.NewRoomRepository(db),
		bookings: repository.NewBookingRepository(db),
	}
	f.svc = NewService(f.rooms, log)
	today := time.Date(2024, 2, 15, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return today }
	return f
}

func mustDate(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func roomReq(number string, price int64, capacity int) CreateRoomRequest {
	return CreateRoomRequest{
		RoomNumber:    number,
		RoomType:      domain.RoomDouble,
		PricePerNight: price,
		Capacity:      capacity,
		FloorNumber:   1,
	}
}

func TestCreateRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	room, err := f.svc.CreateRoom(ctx, roomReq(" 101 ", 10000, 2))
	require.NoError(t, err)
	assert.Equal(t, "101", room.RoomNumber)
	assert.Equal(t, domain.RoomAvailable, room.Status)

	_, err = f.svc.CreateRoom(ctx, roomReq("101", 12000, 2))
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = f.svc.CreateRoom(ctx, roomReq("102", 0, 2))
	assert.ErrorIs(t, err, ErrValidation)

	bad := roomReq("103", 100, 2)
	bad.RoomType = "CASTLE"
	_, err = f.svc.CreateRoom(ctx, bad)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	got, err := f.svc.GetRoomByNumber(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)
}

func TestUpdateRoom(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room, err := f.svc.CreateRoom(ctx, roomReq("101", 10000, 2))
	require.NoError(t, err)

	price := int64(12500)
	view := "Sea"
	updated, err := f.svc.UpdateRoom(ctx, room.ID, UpdateRoomRequest{PricePerNight: &price, View: &view})
	require.NoError(t, err)
	assert.Equal(t, int64(12500), updated.PricePerNight)
	assert.Equal(t, "Sea", updated.View)
	assert.Equal(t, 2, updated.Capacity)
	assert.Equal(t, int64(1), updated.Version)

	stale := int64(0)
	_, err = f.svc.UpdateRoom(ctx, room.ID, UpdateRoomRequest{PricePerNight: &price, Version: &stale})
	assert.ErrorIs(t, err, domain.ErrConflict)

	zero := 0
	_, err = f.svc.UpdateRoom(ctx, room.ID, UpdateRoomRequest{Capacity: &zero})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.UpdateRoom(ctx, 999, UpdateRoomRequest{PricePerNight: &price})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSetRoomStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	room, err := f.svc.CreateRoom(ctx, roomReq("101", 10000, 2))
	require.NoError(t, err)

	room, err = f.svc.SetRoomStatus(ctx, room.ID, UpdateRoomStatusRequest{Status: domain.RoomMaintenance})
	require.NoError(t, err)
	assert.Equal(t, domain.RoomMaintenance, room.Status)

	_, err = f.svc.SetRoomStatus(ctx, room.ID, UpdateRoomStatusRequest{Status: "HAUNTED"})
	assert.ErrorIs(t, err, ErrValidation)

	rooms, err := f.svc.ListRooms(ctx, repository.RoomFilter{Status: domain.RoomMaintenance})
	require.NoError(t, err)
	assert.Len(t, rooms, 1)

	_, err = f.svc.ListRooms(ctx, repository.RoomFilter{Status: "HAUNTED"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestAvailableRooms(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cheap, err := f.svc.CreateRoom(ctx, roomReq("101", 8000, 2))
	require.NoError(t, err)
	suite, err := f.svc.CreateRoom(ctx, roomReq("201", 25000, 4))
	require.NoError(t, err)
	taken, err := f.svc.CreateRoom(ctx, roomReq("102", 9000, 2))
	require.NoError(t, err)
	broken, err := f.svc.CreateRoom(ctx, roomReq("103", 7000, 2))
	require.NoError(t, err)

	_, err = f.svc.SetRoomStatus(ctx, broken.ID, UpdateRoomStatusRequest{Status: domain.RoomOutOfOrder})
	require.NoError(t, err)

	require.NoError(t, f.bookings.Create(ctx, &domain.Booking{
		RoomID: taken.ID, GuestName: "A", GuestEmail: "a@example.com",
		CheckInDate: mustDate("2024-03-02"), CheckOutDate: mustDate("2024-03-05"),
		NumberOfNights: 3, NumberOfGuests: 1, TotalAmount: 27000, Status: domain.BookingConfirmed,
	}))
	// pending stays never hide a room
	require.NoError(t, f.bookings.Create(ctx, &domain.Booking{
		RoomID: cheap.ID, GuestName: "B", GuestEmail: "b@example.com",
		CheckInDate: mustDate("2024-03-01"), CheckOutDate: mustDate("2024-03-03"),
		NumberOfNights: 2, NumberOfGuests: 1, TotalAmount: 16000, Status: domain.BookingPending,
	}))

	resp, err := f.svc.AvailableRooms(ctx, mustDate("2024-03-01"), mustDate("2024-03-03"), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Nights)
	require.Len(t, resp.Rooms, 2)
	assert.Equal(t, cheap.ID, resp.Rooms[0].ID)
	assert.Equal(t, int64(16000), resp.Rooms[0].StayTotal)
	assert.Equal(t, suite.ID, resp.Rooms[1].ID)

	resp, err = f.svc.AvailableRooms(ctx, mustDate("2024-03-05"), mustDate("2024-03-06"), 3)
	require.NoError(t, err)
	require.Len(t, resp.Rooms, 1)
	assert.Equal(t, suite.ID, resp.Rooms[0].ID)

	_, err = f.svc.AvailableRooms(ctx, mustDate("2024-03-05"), mustDate("2024-03-05"), 1)
	assert.ErrorIs(t, err, ErrValidation)
	_, err = f.svc.AvailableRooms(ctx, mustDate("2024-01-05"), mustDate("2024-01-06"), 1)
	assert.ErrorIs(t, err, ErrValidation)
}
