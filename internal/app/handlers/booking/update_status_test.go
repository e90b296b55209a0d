package booking

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heavenly/internal/app/dto"
	domainbooking "heavenly/internal/domain/booking"
	"heavenly/internal/infra/storage/memory"
)

func createTestBooking(t *testing.T, f *memory.Factory, userID int64, in, out time.Time) dto.BookingView {
	t.Helper()
	prop, err := f.PropertiesRepo.ByID(context.Background(), 1)
	require.NoError(t, err)
	view, err := newCreateHandler(f).Handle(context.Background(), CreateBookingCommand{
		PropertyID: prop.ID,
		UserID:     userID,
		CheckIn:    in,
		CheckOut:   out,
		Adults:     1,
	})
	require.NoError(t, err)
	return view
}

func TestCancelFutureBooking(t *testing.T) {
	f := memory.NewFactory()
	seedProperty(t, f)
	view := createTestBooking(t, f, 42, date(2024, time.June, 10), date(2024, time.June, 13))

	box := memory.NewOutbox()
	h := &UpdateStatusHandler{UoWFactory: f, Outbox: box, Now: fixedNow}

	updated, err := h.Handle(context.Background(), UpdateStatusCommand{
		BookingID: view.ID,
		UserID:    42,
		Status:    "CANCELED",
	})
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", updated.Status)

	stored, err := f.BookingsRepo.ByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusCanceled, stored.Status)

	require.NoError(t, box.Flush(context.Background()))
	flushed := box.Flushed()
	require.Len(t, flushed, 1)
	assert.Equal(t, "booking.cancelled", flushed[0].Name)
}

func TestCancelStartedBookingRejected(t *testing.T) {
	f := memory.NewFactory()
	seedProperty(t, f)
	view := createTestBooking(t, f, 42, date(2024, time.June, 10), date(2024, time.June, 13))

	midStay := func() time.Time { return time.Date(2024, time.June, 11, 9, 0, 0, 0, time.UTC) }
	h := &UpdateStatusHandler{UoWFactory: f, Outbox: memory.NewOutbox(), Now: midStay}

	_, err := h.Handle(context.Background(), UpdateStatusCommand{
		BookingID: view.ID,
		UserID:    42,
		Status:    "CANCELED",
	})
	assert.ErrorIs(t, err, domainbooking.ErrAlreadyStarted)

	stored, err := f.BookingsRepo.ByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)
}

func TestUpdateStatusScopedToOwner(t *testing.T) {
	f := memory.NewFactory()
	seedProperty(t, f)
	view := createTestBooking(t, f, 42, date(2024, time.June, 10), date(2024, time.June, 13))

	h := &UpdateStatusHandler{UoWFactory: f, Outbox: memory.NewOutbox(), Now: fixedNow}

	_, err := h.Handle(context.Background(), UpdateStatusCommand{
		BookingID: view.ID,
		UserID:    7,
		Status:    "CANCELED",
	})
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}

func TestUpdateStatusRejectsUnknownAndInvalid(t *testing.T) {
	f := memory.NewFactory()
	seedProperty(t, f)
	view := createTestBooking(t, f, 42, date(2024, time.June, 10), date(2024, time.June, 13))

	h := &UpdateStatusHandler{UoWFactory: f, Outbox: memory.NewOutbox(), Now: fixedNow}

	_, err := h.Handle(context.Background(), UpdateStatusCommand{BookingID: view.ID, UserID: 42, Status: "ARCHIVED"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)

	// PENDING cannot skip straight to COMPLETED.
	_, err = h.Handle(context.Background(), UpdateStatusCommand{BookingID: view.ID, UserID: 42, Status: "COMPLETED"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidTransition)
}

func TestInternalCallerSkipsOwnershipScope(t *testing.T) {
	f := memory.NewFactory()
	seedProperty(t, f)
	view := createTestBooking(t, f, 42, date(2024, time.June, 10), date(2024, time.June, 13))

	h := &UpdateStatusHandler{UoWFactory: f, Outbox: memory.NewOutbox(), Now: fixedNow}

	updated, err := h.Handle(context.Background(), UpdateStatusCommand{
		BookingID: view.ID,
		Status:    "CONFIRMED",
	})
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", updated.Status)
}
