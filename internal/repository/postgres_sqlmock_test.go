package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"hotelbooking/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupMockPostgres(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestPostgres_UniqueViolationMapsToConflict(t *testing.T) {
	db, mock := setupMockPostgres(t)
	repo := NewRoomRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "rooms"`).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_rooms_room_number"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &domain.Room{
		RoomNumber: "101", RoomType: domain.RoomSuite, PricePerNight: 100, Status: domain.RoomAvailable, Capacity: 2,
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_MissingRowMapsToNotFound(t *testing.T) {
	db, mock := setupMockPostgres(t)
	repo := NewBookingRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "bookings"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DriverErrorsPassThrough(t *testing.T) {
	db, mock := setupMockPostgres(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(`SELECT \* FROM "payments"`).WillReturnError(sql.ErrConnDone)

	_, err := repo.GetByTransactionID(context.Background(), "TXN-1")
	assert.True(t, errors.Is(err, sql.ErrConnDone))
	assert.False(t, errors.Is(err, domain.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_StaleBookingVersionIsConflict(t *testing.T) {
	db, mock := setupMockPostgres(t)
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "bookings" SET .*"version"=version \+ 1.* WHERE \(?id = \$\d+ AND version = \$\d+`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	b := &domain.Booking{ID: 5, Version: 3, Status: domain.BookingConfirmed}
	err := repo.Update(context.Background(), b)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Equal(t, int64(3), b.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsUniqueConstraintError(t *testing.T) {
	assert.True(t, isUniqueConstraintError(gorm.ErrDuplicatedKey))
	assert.True(t, isUniqueConstraintError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isUniqueConstraintError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, isUniqueConstraintError(errors.New("constraint failed: UNIQUE constraint failed: rooms.room_number (2067)")))
	assert.False(t, isUniqueConstraintError(errors.New("disk I/O error")))
}
