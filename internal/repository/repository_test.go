package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:repo_test_%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	return db
}

func date(s string) time.Time {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func seedRoom(t *testing.T, repo *RoomRepository, number string) *domain.Room {
	t.Helper()
	room := &domain.Room{
		RoomNumber:    number,
		RoomType:      domain.RoomDeluxe,
		PricePerNight: 10000,
		Status:        domain.RoomAvailable,
		Capacity:      2,
		FloorNumber:   1,
	}
	require.NoError(t, repo.Create(context.Background(), room))
	return room
}

func seedBooking(t *testing.T, repo *BookingRepository, roomID int64, in, out string, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	b := &domain.Booking{
		RoomID:         roomID,
		GuestName:      "Ada Guest",
		GuestEmail:     "ada@example.com",
		CheckInDate:    date(in),
		CheckOutDate:   date(out),
		NumberOfNights: domain.Nights(date(in), date(out)),
		NumberOfGuests: 1,
		TotalAmount:    int64(domain.Nights(date(in), date(out))) * 10000,
		Status:         status,
	}
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestRoomRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := seedRoom(t, repo, "101")
	assert.NotZero(t, room.ID)
	assert.Equal(t, int64(0), room.Version)

	got, err := repo.GetByNumber(ctx, "101")
	require.NoError(t, err)
	assert.Equal(t, room.ID, got.ID)
	assert.Equal(t, domain.RoomDeluxe, got.RoomType)

	_, err = repo.GetByID(ctx, 9999)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRoomRepository_DuplicateNumberIsConflict(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)

	seedRoom(t, repo, "101")
	err := repo.Create(context.Background(), &domain.Room{
		RoomNumber: "101", RoomType: domain.RoomSuite, PricePerNight: 1, Status: domain.RoomAvailable, Capacity: 1,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestRoomRepository_UpdateStatusRejectsStaleVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRoomRepository(db)
	ctx := context.Background()

	room := seedRoom(t, repo, "101")
	stale := *room

	require.NoError(t, repo.UpdateStatus(ctx, room, domain.RoomReserved))
	assert.Equal(t, int64(1), room.Version)
	assert.Equal(t, domain.RoomReserved, room.Status)

	err := repo.UpdateStatus(ctx, &stale, domain.RoomMaintenance)
	assert.ErrorIs(t, err, domain.ErrConflict)

	got, err := repo.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomReserved, got.Status)
	assert.Equal(t, int64(1), got.Version)

	missing := &domain.Room{ID: 4242}
	assert.ErrorIs(t, repo.UpdateStatus(ctx, missing, domain.RoomAvailable), domain.ErrNotFound)
}

func TestRoomRepository_ListAndListAvailable(t *testing.T) {
	db := setupTestDB(t)
	rooms := NewRoomRepository(db)
	bookings := NewBookingRepository(db)
	ctx := context.Background()

	r101 := seedRoom(t, rooms, "101")
	r102 := seedRoom(t, rooms, "102")
	r103 := seedRoom(t, rooms, "103")
	require.NoError(t, rooms.UpdateStatus(ctx, r103, domain.RoomMaintenance))

	seedBooking(t, bookings, r101.ID, "2030-03-01", "2030-03-04", domain.BookingConfirmed)
	seedBooking(t, bookings, r102.ID, "2030-03-01", "2030-03-04", domain.BookingPending)

	all, err := rooms.List(ctx, RoomFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	maint, err := rooms.List(ctx, RoomFilter{Status: domain.RoomMaintenance})
	require.NoError(t, err)
	require.Len(t, maint, 1)
	assert.Equal(t, "103", maint[0].RoomNumber)

	free, err := rooms.ListAvailable(ctx, date("2030-03-02"), date("2030-03-03"), 1)
	require.NoError(t, err)
	require.Len(t, free, 1)
	assert.Equal(t, r102.ID, free[0].ID)

	free, err = rooms.ListAvailable(ctx, date("2030-03-04"), date("2030-03-06"), 1)
	require.NoError(t, err)
	assert.Len(t, free, 2)
}

func TestBookingRepository_FindConflicts(t *testing.T) {
	db := setupTestDB(t)
	rooms := NewRoomRepository(db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	room := seedRoom(t, rooms, "101")
	other := seedRoom(t, rooms, "102")
	confirmed := seedBooking(t, repo, room.ID, "2030-03-01", "2030-03-04", domain.BookingConfirmed)
	seedBooking(t, repo, room.ID, "2030-03-02", "2030-03-03", domain.BookingPending)
	seedBooking(t, repo, room.ID, "2030-03-02", "2030-03-03", domain.BookingCancelled)
	seedBooking(t, repo, other.ID, "2030-03-02", "2030-03-03", domain.BookingCheckedIn)

	conflicts, err := repo.FindConflicts(ctx, room.ID, date("2030-03-02"), date("2030-03-03"), 0)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, confirmed.ID, conflicts[0].ID)

	conflicts, err = repo.FindConflicts(ctx, room.ID, date("2030-03-04"), date("2030-03-06"), 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts, "back-to-back stay must not conflict")

	conflicts, err = repo.FindConflicts(ctx, room.ID, date("2030-02-27"), date("2030-03-01"), 0)
	require.NoError(t, err)
	assert.Empty(t, conflicts)

	conflicts, err = repo.FindConflicts(ctx, room.ID, date("2030-03-01"), date("2030-03-04"), confirmed.ID)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestBookingRepository_UpdateOptimisticLock(t *testing.T) {
	db := setupTestDB(t)
	rooms := NewRoomRepository(db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	room := seedRoom(t, rooms, "101")
	b := seedBooking(t, repo, room.ID, "2030-03-01", "2030-03-04", domain.BookingPending)
	stale := *b

	b.Status = domain.BookingConfirmed
	b.PaidAmount = b.TotalAmount
	require.NoError(t, repo.Update(ctx, b))
	assert.Equal(t, int64(1), b.Version)

	stale.Status = domain.BookingCancelled
	stale.CancellationReason = "late writer"
	assert.ErrorIs(t, repo.Update(ctx, &stale), domain.ErrConflict)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingConfirmed, got.Status)
	assert.Equal(t, int64(30000), got.PaidAmount)
	assert.Empty(t, got.CancellationReason)
	assert.True(t, got.CheckInDate.Equal(date("2030-03-01")))
}

func TestBookingRepository_SearchAndAggregates(t *testing.T) {
	db := setupTestDB(t)
	rooms := NewRoomRepository(db)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	room := seedRoom(t, rooms, "101")
	seedBooking(t, repo, room.ID, "2030-03-01", "2030-03-04", domain.BookingConfirmed)
	seedBooking(t, repo, room.ID, "2030-03-05", "2030-03-06", domain.BookingCheckedIn)
	seedBooking(t, repo, room.ID, "2030-03-10", "2030-03-12", domain.BookingCancelled)
	seedBooking(t, repo, room.ID, "2030-04-10", "2030-04-12", domain.BookingPending)

	from, to := date("2030-03-01"), date("2030-04-01")
	march, err := repo.Search(ctx, BookingFilter{CheckInFrom: &from, CheckInTo: &to})
	require.NoError(t, err)
	assert.Len(t, march, 3)

	active, err := repo.Search(ctx, BookingFilter{Statuses: domain.BlockingStatuses})
	require.NoError(t, err)
	assert.Len(t, active, 2)

	out := date("2030-03-06")
	leaving, err := repo.Search(ctx, BookingFilter{Statuses: []domain.BookingStatus{domain.BookingCheckedIn}, CheckOutOn: &out})
	require.NoError(t, err)
	assert.Len(t, leaving, 1)

	byGuest, err := repo.Search(ctx, BookingFilter{GuestEmail: "ada@example.com", Limit: 2})
	require.NoError(t, err)
	assert.Len(t, byGuest, 2)

	counts, err := repo.CountByStatus(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts[domain.BookingConfirmed])
	assert.Equal(t, int64(1), counts[domain.BookingCancelled])
	assert.Zero(t, counts[domain.BookingPending])

	rev, err := repo.Revenue(ctx, from, to)
	require.NoError(t, err)
	assert.Equal(t, int64(2), rev.Bookings)
	assert.Equal(t, int64(40000), rev.TotalAmount)

	claims, err := repo.CountClaims(ctx, room.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(3), claims)
}

func TestPaymentRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	p := &domain.Payment{BookingID: 7, Amount: 30000, PaymentMethod: domain.MethodCreditCard, Status: domain.PaymentCompleted, TransactionID: "TXN-AAAA0001"}
	require.NoError(t, repo.Create(ctx, p))

	dup := &domain.Payment{BookingID: 8, Amount: 1, PaymentMethod: domain.MethodCash, Status: domain.PaymentPending, TransactionID: "TXN-AAAA0001"}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrConflict)

	got, err := repo.GetByTransactionID(ctx, "TXN-AAAA0001")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	stale := *got
	got.Status = domain.PaymentPartiallyRefunded
	got.RefundAmount = 10000
	require.NoError(t, repo.Update(ctx, got))
	assert.ErrorIs(t, repo.Update(ctx, &stale), domain.ErrConflict)

	pending := &domain.Payment{BookingID: 7, Amount: 5000, PaymentMethod: domain.MethodPayPal, Status: domain.PaymentPending, TransactionID: "TXN-AAAA0002"}
	require.NoError(t, repo.Create(ctx, pending))

	paid, err := repo.TotalPaidForBooking(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(20000), paid)

	list, err := repo.ListByBooking(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.Total)
	assert.Equal(t, int64(20000), stats.RevenueByMethod[domain.MethodCreditCard])
	assert.Equal(t, int64(10000), stats.Refunded)

	stalePayments, err := repo.ListStale(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, stalePayments, 1)
	assert.Equal(t, pending.ID, stalePayments[0].ID)

	stalePayments, err = repo.ListStale(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Empty(t, stalePayments)

	// a new charge attempt restarts the clock even though the row is old
	attempt := time.Now().UTC().Add(2 * time.Minute)
	pending.Status = domain.PaymentProcessing
	pending.PaymentDate = &attempt
	require.NoError(t, repo.Update(ctx, pending))

	stalePayments, err = repo.ListStale(ctx, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Empty(t, stalePayments)

	stalePayments, err = repo.ListStale(ctx, attempt.Add(time.Second))
	require.NoError(t, err)
	require.Len(t, stalePayments, 1)
	assert.Equal(t, pending.ID, stalePayments[0].ID)
}

func TestTransactor_RollsBackEveryWrite(t *testing.T) {
	db := setupTestDB(t)
	tr := NewTransactor(db)
	rooms := NewRoomRepository(db)
	bookings := NewBookingRepository(db)
	ctx := context.Background()

	room := seedRoom(t, rooms, "101")
	boom := errors.New("boom")

	err := tr.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := rooms.UpdateStatus(ctx, room, domain.RoomReserved); err != nil {
			return err
		}
		b := &domain.Booking{
			RoomID: room.ID, GuestName: "Ada", GuestEmail: "ada@example.com",
			CheckInDate: date("2030-03-01"), CheckOutDate: date("2030-03-02"),
			NumberOfNights: 1, NumberOfGuests: 1, TotalAmount: 10000, Status: domain.BookingPending,
		}
		if err := bookings.Create(ctx, b); err != nil {
			return err
		}
		return tr.WithinTransaction(ctx, func(ctx context.Context) error { return boom })
	})
	assert.ErrorIs(t, err, boom)

	got, err := rooms.GetByID(ctx, room.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomAvailable, got.Status)
	assert.Equal(t, int64(0), got.Version)

	all, err := bookings.Search(ctx, BookingFilter{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUserRepository_EmailIsCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{Email: " Front.Desk@Example.com ", PasswordHash: "x", Role: domain.RoleStaff, Name: "Desk"}
	require.NoError(t, repo.Create(ctx, u))
	assert.Equal(t, "front.desk@example.com", u.Email)

	got, err := repo.GetByEmail(ctx, "FRONT.DESK@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	err = repo.Create(ctx, &domain.User{Email: "front.desk@example.com", PasswordHash: "y", Role: domain.RoleGuest})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	db := setupTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	u := &domain.User{Email: "ada@example.com", PasswordHash: "old", Role: domain.RoleGuest, Name: "Ada"}
	require.NoError(t, repo.Create(ctx, u))

	require.NoError(t, repo.UpdatePassword(ctx, u.ID, "new"))
	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, 9999, "x"), domain.ErrNotFound)
}

func TestRefreshTokenRepository_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	first := &domain.RefreshToken{UserID: 1, TokenHash: strings.Repeat("a", 64), FamilyID: "fam-1", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, first))
	assert.NotZero(t, first.ID)

	dup := &domain.RefreshToken{UserID: 1, TokenHash: first.TokenHash, FamilyID: "fam-2", ExpiresAt: now.Add(time.Hour)}
	assert.ErrorIs(t, repo.Create(ctx, dup), domain.ErrConflict)

	got, err := repo.GetByHash(ctx, first.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, "fam-1", got.FamilyID)
	_, err = repo.GetByHash(ctx, strings.Repeat("z", 64))
	assert.ErrorIs(t, err, domain.ErrNotFound)

	ok, err := repo.Consume(ctx, first.ID, now)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.Consume(ctx, first.ID, now)
	require.NoError(t, err)
	assert.False(t, ok, "a token is consumed once")

	second := &domain.RefreshToken{UserID: 1, TokenHash: strings.Repeat("b", 64), FamilyID: "fam-1", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, second))
	require.NoError(t, repo.SetReplacedBy(ctx, first.ID, second.ID))
	got, err = repo.GetByHash(ctx, first.TokenHash)
	require.NoError(t, err)
	require.NotNil(t, got.ReplacedByID)
	assert.Equal(t, second.ID, *got.ReplacedByID)
	assert.True(t, got.IsRevoked())

	other := &domain.RefreshToken{UserID: 1, TokenHash: strings.Repeat("c", 64), FamilyID: "fam-2", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Create(ctx, other))

	n, err := repo.RevokeFamily(ctx, "fam-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	got, err = repo.GetByHash(ctx, other.TokenHash)
	require.NoError(t, err)
	assert.False(t, got.IsRevoked())

	n, err = repo.RevokeByUser(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	expired := &domain.RefreshToken{UserID: 1, TokenHash: strings.Repeat("1", 64), FamilyID: "f", ExpiresAt: now.Add(-time.Minute)}
	live := &domain.RefreshToken{UserID: 1, TokenHash: strings.Repeat("2", 64), FamilyID: "f", ExpiresAt: now.Add(time.Hour)}
	revoked := &domain.RefreshToken{UserID: 1, TokenHash: strings.Repeat("3", 64), FamilyID: "f", ExpiresAt: now.Add(time.Hour)}
	for _, tok := range []*domain.RefreshToken{expired, live, revoked} {
		require.NoError(t, repo.Create(ctx, tok))
	}
	require.NoError(t, repo.Revoke(ctx, revoked.ID))

	// recently revoked rows survive
	n, err := repo.DeleteExpired(ctx, now, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	n, err = repo.DeleteExpired(ctx, now, now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.GetByHash(ctx, live.TokenHash)
	assert.NoError(t, err)
}
