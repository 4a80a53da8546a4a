package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"rentals/internal/auth"
	"rentals/internal/db"
	"rentals/internal/entities"
	"rentals/internal/repository"
	"rentals/internal/service"
	"rentals/internal/validator"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testJWTSecret = "router-test-secret"

var bookingColumns = []string{
	"id", "user_id", "vehicle_id", "start_date", "end_date", "total_days", "total_amount", "currency",
	"pickup_location", "dropoff_location", "special_requests",
	"customer_name", "customer_email", "customer_phone",
	"status", "payment_status", "checkout_session_id", "payment_intent_id",
	"created_at", "updated_at",
	"make", "model", "year", "plate",
}

type noopNotifier struct{}

func (noopNotifier) BookingConfirmed(_ context.Context, _ db.Booking) {}
func (noopNotifier) BookingCancelled(_ context.Context, _ db.Booking) {}

func newTestRouter(t *testing.T) (http.Handler, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	bookingRepo := repository.NewBookingRepository(conn)
	fleetRepo := repository.NewFleetRepository(conn)
	gateway := service.NewStripeService("sk_test_unused", "whsec_test")

	bookings := service.NewBookingService(bookingRepo, fleetRepo, gateway, noopNotifier{}, v, log)
	checkout := service.NewCheckoutService(bookingRepo, gateway, noopNotifier{}, log, "http://localhost:3000")

	h := Handlers{
		Bookings:       NewUserBookingHandler(bookings, checkout, log),
		Webhook:        NewStripeWebhookHandler(checkout, log),
		PaymentMethods: NewPaymentMethodHandler(service.NewPaymentMethodService(repository.NewPaymentMethodRepository(conn), gateway, v, log), log),
		Fleet:          NewFleetHandler(service.NewFleetService(fleetRepo, v, "usd", log), log),
		Admin:          NewAdminHandler(service.NewAdminService(bookings, v, log), log),
		AdminAuth:      NewAdminAuthHandler(service.NewAdminAuthService(repository.NewAdminAuthRepository(conn), testJWTSecret, log), log),
	}
	router := NewRouter(h, RouterConfig{
		Auth:           auth.NewMiddleware(testJWTSecret),
		AllowedOrigins: []string{"http://localhost:3000"},
		Logger:         log,
	})
	return router, mock
}

func bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, err := auth.IssueToken([]byte(testJWTSecret), userID, "", role, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(router http.Handler, method, path, authz, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	if authz != "" {
		r.Header.Set("Authorization", authz)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/healthz", "", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestBookingRoutesRequireToken(t *testing.T) {
	router, _ := newTestRouter(t)

	for _, route := range []struct{ method, path string }{
		{http.MethodGet, "/api/bookings"},
		{http.MethodPost, "/api/bookings"},
		{http.MethodPut, "/api/bookings/b-1/cancel"},
		{http.MethodGet, "/api/bookings/payment-status/cs_1"},
		{http.MethodGet, "/api/payment-methods"},
	} {
		w := do(router, route.method, route.path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, route.path)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/admin/bookings", bearer(t, "user-1", ""), "")

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateBookingValidationErrors(t *testing.T) {
	router, mock := newTestRouter(t)
	body := `{"vehicleId":"not-a-uuid","startDate":"2024-01-01","endDate":"2024-01-03",
		"pickupLocation":"Airport","dropoffLocation":"Downtown",
		"customerDetails":{"name":"Ada","email":"ada@example.com"}}`

	w := do(router, http.MethodPost, "/api/bookings", bearer(t, "user-1", ""), body)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "validation", resp.Kind)
	assert.Contains(t, resp.Details, "vehicleId")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateRejectsFieldsOutsideAllowList(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodPut, "/api/bookings/b-1/update", bearer(t, "user-1", ""), `{"status":"confirmed"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "validation", decodeError(t, w).Kind)
}

func TestCancelCompletedBookingConflicts(t *testing.T) {
	router, mock := newTestRouter(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.id = $1")).WithArgs("b-1").WillReturnRows(
		sqlmock.NewRows(bookingColumns).AddRow(
			"b-1", "user-1", "v-1", start, start.AddDate(0, 0, 2), 2, int64(9000), "usd",
			"Airport", "Downtown", "", "Ada", "ada@example.com", "",
			db.BookingStatusCompleted, db.PaymentStatusPaid, "cs_1", "pi_1", start, start,
			"Toyota", "Corolla", 2022, "ABC-123",
		))

	w := do(router, http.MethodPut, "/api/bookings/b-1/cancel", bearer(t, "user-1", ""), "")

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "conflict", decodeError(t, w).Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	router, mock := newTestRouter(t)
	badUUID := &pq.Error{Code: "22P02", Message: `invalid input syntax for type uuid: "abc"`}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.id = $1")).WithArgs("abc").WillReturnError(badUUID)
	mock.ExpectQuery(regexp.QuoteMeta("FROM vehicles WHERE id = $1")).WithArgs("abc").WillReturnError(badUUID)

	w := do(router, http.MethodGet, "/api/bookings/abc", bearer(t, "user-1", ""), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Kind)

	w = do(router, http.MethodGet, "/api/vehicles/abc", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not_found", decodeError(t, w).Kind)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBookingsAppliesDashboardQuery(t *testing.T) {
	router, mock := newTestRouter(t)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(bookingColumns)
	for i, row := range []struct {
		id, status string
		amount     int64
	}{
		{"b-1", db.BookingStatusConfirmed, 5000},
		{"b-2", db.BookingStatusPending, 7000},
		{"b-3", db.BookingStatusConfirmed, 9000},
	} {
		rows.AddRow(
			row.id, "user-1", "v-1", start.AddDate(0, 0, i), start.AddDate(0, 0, i+2), 2, row.amount, "usd",
			"Airport", "Downtown", "", "Ada", "ada@example.com", "",
			row.status, db.PaymentStatusPending, "", "", start, start,
			"Toyota", "Corolla", 2022, "ABC-123",
		)
	}
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.user_id = $1")).WithArgs("user-1").WillReturnRows(rows)

	w := do(router, http.MethodGet, "/api/bookings?status=confirmed&sort=totalAmount&order=desc", bearer(t, "user-1", ""), "")
	require.Equal(t, http.StatusOK, w.Code)

	var list entities.BookingsList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Equal(t, 2, list.Total)
	assert.Equal(t, "b-3", list.Bookings[0].ID)
	assert.Equal(t, "b-1", list.Bookings[1].ID)
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	router, _ := newTestRouter(t)

	r := httptest.NewRequest(http.MethodPost, "/api/stripe/webhook", strings.NewReader(`{"id":"evt_1"}`))
	r.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInternalErrorsHideCause(t *testing.T) {
	router, mock := newTestRouter(t)
	mock.ExpectQuery(regexp.QuoteMeta("FROM branches")).WillReturnError(errors.New("connection reset"))

	w := do(router, http.MethodGet, "/api/branches", "", "")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	resp := decodeError(t, w)
	assert.Equal(t, "internal", resp.Kind)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestUnknownRoute(t *testing.T) {
	router, _ := newTestRouter(t)

	w := do(router, http.MethodGet, "/api/nope", "", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
