package ginserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heavenly/internal/app/commands"
	availabilityapp "heavenly/internal/app/handlers/availability"
	bookingapp "heavenly/internal/app/handlers/booking"
	paymentsapp "heavenly/internal/app/handlers/payments"
	"heavenly/internal/app/middleware"
	"heavenly/internal/app/queries"
	domainproperty "heavenly/internal/domain/property"
	"heavenly/internal/infra/config"
	"heavenly/internal/infra/obs"
	"heavenly/internal/infra/security"
	"heavenly/internal/infra/storage/memory"
)

const (
	guestToken = "guest-token"
	hostToken  = "host-token"
)

func testClock() time.Time {
	return time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
}

func newTestServer(t *testing.T) (http.Handler, *memory.Factory) {
	t.Helper()

	f := memory.NewFactory()
	require.NoError(t, f.PropertiesRepo.Save(context.Background(), &domainproperty.Property{
		Region:           2,
		OwnerID:          9,
		NightlyRateCents: 10000,
		MaxAdults:        2,
		Active:           true,
	}))
	box := memory.NewOutbox()

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{Outbox: box, Now: testClock})
	commands.RegisterHandler(commandBus, bookingapp.UpdateStatusCommand{}.Key(), &bookingapp.UpdateStatusHandler{Outbox: box, Now: testClock})
	commands.RegisterHandler(commandBus, availabilityapp.CreateIntervalCommand{}.Key(), &availabilityapp.CreateIntervalHandler{})
	commands.RegisterHandler(commandBus, availabilityapp.CreateBatchCommand{}.Key(), &availabilityapp.CreateBatchHandler{})
	commands.RegisterHandler(commandBus, availabilityapp.UpdateIntervalCommand{}.Key(), &availabilityapp.UpdateIntervalHandler{})
	commands.RegisterHandler(commandBus, availabilityapp.DeleteIntervalCommand{}.Key(), &availabilityapp.DeleteIntervalHandler{})
	commands.RegisterHandler(commandBus, paymentsapp.ProcessPaymentCommand{}.Key(), &paymentsapp.ProcessPaymentHandler{Outbox: box, Now: testClock})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, bookingapp.ListMyBookingsQuery{}.Key(), &bookingapp.ListMyBookingsHandler{UoWFactory: f})
	queries.RegisterHandler(queryBus, bookingapp.GetBookingQuery{}.Key(), &bookingapp.GetBookingHandler{UoWFactory: f})
	queries.RegisterHandler(queryBus, bookingapp.ListPropertyBookingsQuery{}.Key(), &bookingapp.ListPropertyBookingsHandler{UoWFactory: f})
	queries.RegisterHandler(queryBus, bookingapp.CheckAvailabilityQuery{}.Key(), &bookingapp.CheckAvailabilityHandler{UoWFactory: f, Now: testClock})
	queries.RegisterHandler(queryBus, bookingapp.AvailabilityGridQuery{}.Key(), &bookingapp.AvailabilityGridHandler{UoWFactory: f})
	queries.RegisterHandler(queryBus, bookingapp.ValidateBookingQuery{}.Key(), &bookingapp.ValidateBookingHandler{UoWFactory: f, Now: testClock})
	queries.RegisterHandler(queryBus, availabilityapp.GetPropertyCalendarQuery{}.Key(), &availabilityapp.GetPropertyCalendarHandler{UoWFactory: f})
	queries.RegisterHandler(queryBus, paymentsapp.ListBookingPaymentsQuery{}.Key(), &paymentsapp.ListBookingPaymentsHandler{UoWFactory: f})

	commandBusMW := middleware.ChainCommands(commandBus, middleware.Transaction(f, nil), middleware.OutboxFlush(box))
	queryBusMW := middleware.ChainQueries(queryBus)

	auth := AuthMiddleware{Resolver: security.NewStaticResolver(map[string]int64{
		guestToken: 42,
		hostToken:  9,
	})}

	cfg := config.Config{
		Env:         "test",
		HTTPAddr:    ":0",
		StorageMode: "memory",
		CORSOrigins: []string{"*"},
	}
	srv := NewServer(cfg, obs.Middleware{}, obs.HealthHandlers{}, Handlers{
		Booking:        BookingHandler{Commands: commandBusMW, Queries: queryBusMW},
		Availability:   AvailabilityHandler{Commands: commandBusMW, Queries: queryBusMW},
		Payment:        PaymentHandler{Commands: commandBusMW, Queries: queryBusMW},
		AuthMiddleware: auth.Handle,
	})
	return srv.Handler, f
}

func doJSON(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	h, _ := newTestServer(t)
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/livez", "", nil).Code)
	assert.Equal(t, http.StatusOK, doJSON(t, h, http.MethodGet, "/readyz", "", nil).Code)
}

func TestCreateBookingRequiresAuth(t *testing.T) {
	h, _ := newTestServer(t)
	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", "", map[string]any{
		"property_id": 1,
		"check_in":    "2024-06-10",
		"check_out":   "2024-06-13",
		"adults":      1,
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBookingFlowOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", guestToken, map[string]any{
		"property_id": 1,
		"check_in":    "2024-06-10",
		"check_out":   "2024-06-13",
		"adults":      2,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	assert.Equal(t, "PENDING", created["status"])
	assert.Equal(t, float64(30000), created["total_cents"])
	bookingID := int64(created["id"].(float64))

	// Same dates again for the same user is a duplicate.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/bookings", guestToken, map[string]any{
		"property_id": 1,
		"check_in":    "2024-06-10",
		"check_out":   "2024-06-13",
		"adults":      1,
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/availability?property_id=1&check_in=2024-06-10&check_out=2024-06-13", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decodeBody(t, rec)["available"])

	rec = doJSON(t, h, http.MethodPost, "/api/v1/payments/booking/"+itoa(bookingID)+"/pay", guestToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	paid := decodeBody(t, rec)
	assert.Equal(t, "SUCCESSFUL", paid["status"])

	rec = doJSON(t, h, http.MethodPost, "/api/v1/payments/booking/"+itoa(bookingID)+"/pay", guestToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/bookings/"+itoa(bookingID), guestToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "CONFIRMED", decodeBody(t, rec)["status"])
}

func TestCancelBookingOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings", guestToken, map[string]any{
		"property_id": 1,
		"check_in":    "2024-06-10",
		"check_out":   "2024-06-13",
		"adults":      1,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	bookingID := int64(decodeBody(t, rec)["id"].(float64))

	rec = doJSON(t, h, http.MethodPatch, "/api/v1/bookings/"+itoa(bookingID)+"/cancel", guestToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "CANCELED", decodeBody(t, rec)["status"])

	// Another user cannot see it at all.
	rec = doJSON(t, h, http.MethodGet, "/api/v1/bookings/"+itoa(bookingID), hostToken, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestValidateEndpointReportsReason(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/bookings/validate", guestToken, map[string]any{
		"property_id": 1,
		"check_in":    "2024-06-10",
		"check_out":   "2024-06-13",
		"adults":      5,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["valid"])
	assert.NotEmpty(t, body["reason"])
}

func TestHostAvailabilityOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/host/availability", hostToken, map[string]any{
		"property_id":  1,
		"region_id":    2,
		"start_date":   "2024-06-01",
		"end_date":     "2024-06-30",
		"is_available": true,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody(t, rec)
	intervalID := int64(created["id"].(float64))

	// The guest does not own the property.
	rec = doJSON(t, h, http.MethodPost, "/api/v1/host/availability", guestToken, map[string]any{
		"property_id":  1,
		"region_id":    2,
		"start_date":   "2024-07-01",
		"end_date":     "2024-07-10",
		"is_available": true,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/host/availability/property/1/2", hostToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/host/availability/"+itoa(intervalID)+"/2", hostToken, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAvailabilityGridOverHTTP(t *testing.T) {
	h, _ := newTestServer(t)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/availability/grid?property_id=1&from=2024-06-10&to=2024-06-12", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	days, ok := body["days"].([]any)
	require.True(t, ok)
	assert.Len(t, days, 3, "both window edges are grid days")
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
