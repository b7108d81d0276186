package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/domain"
	"hotelbooking/internal/modules/auth"
	"hotelbooking/internal/modules/payment"
	jwtsvc "hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSuite struct {
	app        *app
	adminToken string
	staffToken string
}

type testResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setupTestSuite(t *testing.T) *testSuite {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Connect(fmt.Sprintf("file:e2e_%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	cfg := &config.Config{
		JWTSecret:         "test_secret_key_32_characters_min",
		JWTAccessTTL:      time.Hour,
		GatewayTimeout:    time.Second,
		StalePaymentAfter: 30 * time.Minute,
		InternalToken:     "internal-test-token",
		JWTRefreshTTL:     24 * time.Hour,
		SMTPTimeout:       time.Second,
		NotifyQueueSize:   64,
	}
	log, _ := test.NewNullLogger()
	a := newApp(cfg, db, log, appDeps{
		gateway: payment.NewSimulatedGateway(0, rand.NewSource(1)),
	})

	// staff accounts are created by an admin, so the first admin is seeded directly
	seed := auth.NewService(
		repository.NewUserRepository(db),
		repository.NewRefreshTokenRepository(db),
		repository.NewTransactor(db),
		jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL),
		auth.SessionConfig{},
		log,
	)
	for _, acc := range []auth.CreateStaffRequest{
		{RegisterRequest: auth.RegisterRequest{Email: "admin@test.com", Password: "admin-password", Name: "Admin"}, Role: domain.RoleAdmin},
		{RegisterRequest: auth.RegisterRequest{Email: "desk@test.com", Password: "desk-password", Name: "Desk"}, Role: domain.RoleStaff},
	} {
		_, err := seed.CreateStaff(context.Background(), acc)
		require.NoError(t, err)
	}

	t.Cleanup(func() { _ = a.dispatcher.Close(context.Background()) })

	s := &testSuite{app: a}
	s.adminToken = s.login(t, "admin@test.com", "admin-password")
	s.staffToken = s.login(t, "desk@test.com", "desk-password")
	return s
}

func (s *testSuite) makeRequest(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.app.router.ServeHTTP(w, req)
	return w
}

// call performs the request, asserts the status and decodes data[key] into out.
func (s *testSuite) call(t *testing.T, method, path string, body any, token string, wantStatus int, key string, out any) *testResponse {
	t.Helper()
	w := s.makeRequest(method, path, body, token)
	require.Equal(t, wantStatus, w.Code, w.Body.String())

	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	if out != nil {
		var data map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		require.Contains(t, data, key)
		require.NoError(t, json.Unmarshal(data[key], out))
	}
	return &resp
}

func (s *testSuite) login(t *testing.T, email, password string) string {
	t.Helper()
	var token string
	s.call(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"email": email, "password": password}, "", http.StatusOK, "access_token", &token)
	return token
}

func day(offset int) string {
	return domain.Date(time.Now()).AddDate(0, 0, offset).Format(domain.DateLayout)
}

func TestFlow_GuestStayAndPayment(t *testing.T) {
	s := setupTestSuite(t)

	var room domain.Room
	s.call(t, http.MethodPost, "/api/v1/rooms", map[string]any{
		"room_number": "301", "room_type": "DELUXE", "price_per_night": 18500, "capacity": 2, "floor_number": 3,
	}, s.adminToken, http.StatusCreated, "room", &room)

	s.call(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "guest@test.com", "password": "guest-password", "name": "Grace Hopper",
	}, "", http.StatusCreated, "", nil)
	guestToken := s.login(t, "guest@test.com", "guest-password")

	var b domain.Booking
	s.call(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"room_id": room.ID, "guest_name": "Grace Hopper", "guest_email": "guest@test.com",
		"check_in_date": day(2), "check_out_date": day(5), "number_of_guests": 2,
	}, guestToken, http.StatusCreated, "booking", &b)
	assert.Equal(t, domain.BookingPending, b.Status)
	assert.Equal(t, int64(3*18500), b.TotalAmount)

	var p domain.Payment
	s.call(t, http.MethodPost, "/api/v1/payments", map[string]any{
		"booking_id": b.ID, "amount": b.TotalAmount, "payment_method": "CREDIT_CARD",
	}, guestToken, http.StatusCreated, "payment", &p)
	assert.Equal(t, domain.PaymentCompleted, p.Status)
	assert.True(t, strings.HasPrefix(p.TransactionID, "TXN-"))

	// guests cannot drive the front desk workflow
	s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/confirm", b.ID), nil, guestToken, http.StatusForbidden, "", nil)

	s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/confirm", b.ID), nil, s.staffToken, http.StatusOK, "booking", &b)
	assert.Equal(t, domain.BookingConfirmed, b.Status)
	assert.Equal(t, b.TotalAmount, b.PaidAmount)

	var available bool
	s.call(t, http.MethodGet, fmt.Sprintf("/api/v1/rooms/%d/availability?check_in=%s&check_out=%s", room.ID, day(4), day(6)), nil, "", http.StatusOK, "available", &available)
	assert.False(t, available)
	s.call(t, http.MethodGet, fmt.Sprintf("/api/v1/rooms/%d/availability?check_in=%s&check_out=%s", room.ID, day(5), day(7)), nil, "", http.StatusOK, "available", &available)
	assert.True(t, available, "back-to-back stay must be free")

	var refunded domain.Payment
	s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/payments/%d/partial-refund", p.ID), map[string]any{"amount": 18500, "reason": "late arrival"}, s.staffToken, http.StatusOK, "payment", &refunded)
	assert.Equal(t, domain.PaymentPartiallyRefunded, refunded.Status)

	resp := s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/check-out", b.ID), nil, s.staffToken, http.StatusUnprocessableEntity, "", nil)
	assert.Equal(t, "INVALID_STATE", resp.Error.Code)
}

func TestFlow_OverlappingBookingRejected(t *testing.T) {
	s := setupTestSuite(t)

	var room domain.Room
	s.call(t, http.MethodPost, "/api/v1/rooms", map[string]any{
		"room_number": "101", "room_type": "SINGLE", "price_per_night": 6500, "capacity": 1,
	}, s.adminToken, http.StatusCreated, "room", &room)

	book := func(in, out int) *httptest.ResponseRecorder {
		return s.makeRequest(http.MethodPost, "/api/v1/bookings", map[string]any{
			"room_id": room.ID, "guest_name": "Desk Walk-in", "guest_email": "walkin@test.com",
			"check_in_date": day(in), "check_out_date": day(out), "number_of_guests": 1,
		}, s.staffToken)
	}

	w := book(1, 4)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var first domain.Booking
	var data map[string]json.RawMessage
	var resp testResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, &data))
	require.NoError(t, json.Unmarshal(data["booking"], &first))

	s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/confirm", first.ID), nil, s.staffToken, http.StatusOK, "", nil)

	w = book(3, 6)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "UNAVAILABLE")

	w = book(0, 0)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFlow_AccessControl(t *testing.T) {
	s := setupTestSuite(t)

	w := s.makeRequest(http.MethodGet, "/api/v1/bookings", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.makeRequest(http.MethodPost, "/api/v1/rooms", map[string]any{"room_number": "1"}, s.staffToken)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.makeRequest(http.MethodPost, "/api/v1/users/staff", map[string]any{
		"email": "new@test.com", "password": "password-123", "name": "New", "role": "STAFF",
	}, s.adminToken)
	assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.makeRequest(http.MethodGet, "/api/v1/users/me", nil, s.staffToken)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "desk@test.com")
}

func TestFlow_RoomServiceDuringStay(t *testing.T) {
	s := setupTestSuite(t)

	var room domain.Room
	s.call(t, http.MethodPost, "/api/v1/rooms", map[string]any{
		"room_number": "512", "room_type": "SUITE", "price_per_night": 42000, "capacity": 2, "floor_number": 5,
	}, s.adminToken, http.StatusCreated, "room", &room)

	s.call(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "ada@test.com", "password": "guest-password", "name": "Ada Lovelace",
	}, "", http.StatusCreated, "", nil)
	guestToken := s.login(t, "ada@test.com", "guest-password")

	var b domain.Booking
	s.call(t, http.MethodPost, "/api/v1/bookings", map[string]any{
		"room_id": room.ID, "guest_name": "Ada Lovelace", "guest_email": "ada@test.com",
		"check_in_date": day(0), "check_out_date": day(2), "number_of_guests": 1,
	}, guestToken, http.StatusCreated, "booking", &b)

	var item domain.MenuItem
	s.call(t, http.MethodPost, "/api/v1/menu", map[string]any{"name": "Club sandwich", "category": "LUNCH", "price": 1800}, guestToken, http.StatusForbidden, "", nil)
	s.call(t, http.MethodPost, "/api/v1/menu", map[string]any{"name": "Club sandwich", "category": "LUNCH", "price": 1800}, s.staffToken, http.StatusCreated, "item", &item)

	order := map[string]any{"booking_id": b.ID, "items": []map[string]any{{"menu_item_id": item.ID, "quantity": 2}}}
	resp := s.call(t, http.MethodPost, "/api/v1/food-orders", order, guestToken, http.StatusUnprocessableEntity, "", nil)
	assert.Equal(t, "INVALID_STATE", resp.Error.Code)

	s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/confirm", b.ID), nil, s.staffToken, http.StatusOK, "", nil)
	s.call(t, http.MethodPost, fmt.Sprintf("/api/v1/bookings/%d/check-in", b.ID), nil, s.staffToken, http.StatusOK, "", nil)

	var o domain.FoodOrder
	s.call(t, http.MethodPost, "/api/v1/food-orders", order, guestToken, http.StatusCreated, "order", &o)
	assert.Equal(t, "512", o.RoomNumber)
	assert.Equal(t, int64(3600+360+domain.RoomServiceDeliveryFee), o.Total)

	s.call(t, http.MethodPatch, fmt.Sprintf("/api/v1/food-orders/%d/status", o.ID), map[string]any{"status": "CONFIRMED"}, guestToken, http.StatusForbidden, "", nil)
	s.call(t, http.MethodPatch, fmt.Sprintf("/api/v1/food-orders/%d/status", o.ID), map[string]any{"status": "CONFIRMED"}, s.staffToken, http.StatusOK, "order", &o)
	assert.Equal(t, domain.FoodOrderConfirmed, o.Status)

	var h domain.HousekeepingRequest
	s.call(t, http.MethodPost, "/api/v1/housekeeping", map[string]any{
		"booking_id": b.ID, "request_type": "CLEANING", "description": "Fresh towels",
	}, guestToken, http.StatusCreated, "request", &h)
	assert.Equal(t, domain.PriorityMedium, h.Priority)

	w := s.makeRequest(http.MethodGet, "/api/v1/housekeeping", nil, guestToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	var queue []domain.HousekeepingRequest
	s.call(t, http.MethodGet, "/api/v1/housekeeping?status=PENDING", nil, s.staffToken, http.StatusOK, "requests", &queue)
	assert.Len(t, queue, 1)
}

func TestFlow_InternalSweeps(t *testing.T) {
	s := setupTestSuite(t)

	w := s.makeRequest(http.MethodPost, "/internal/sweeps/run", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.makeRequest(http.MethodPost, "/internal/sweeps/run", nil, "internal-test-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":{"no_shows":0,"stale_payments":0}}`, w.Body.String())
}
