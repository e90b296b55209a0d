package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "heavenly/internal/domain/booking"
	domainpayment "heavenly/internal/domain/payment"
	domainproperty "heavenly/internal/domain/property"
	"heavenly/internal/domain/shared/daterange"
	"heavenly/internal/infra/storage/memory"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var testNow = time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func seedProperty(t *testing.T, f *memory.Factory) *domainproperty.Property {
	t.Helper()
	p := &domainproperty.Property{
		Region:           2,
		OwnerID:          9,
		NightlyRateCents: 10000,
		MaxAdults:        2,
		MaxChildren:      1,
		MaxInfants:       1,
		MaxPets:          0,
		Active:           true,
	}
	require.NoError(t, f.PropertiesRepo.Save(context.Background(), p))
	return p
}

func newCreateHandler(f *memory.Factory) *CreateBookingHandler {
	return &CreateBookingHandler{
		UoWFactory: f,
		Outbox:     memory.NewOutbox(),
		Now:        fixedNow,
	}
}

func TestCreateBookingHappyPath(t *testing.T) {
	f := memory.NewFactory()
	prop := seedProperty(t, f)
	h := newCreateHandler(f)

	view, err := h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: prop.ID,
		UserID:     42,
		CheckIn:    date(2024, time.June, 10),
		CheckOut:   date(2024, time.June, 13),
		Adults:     2,
		Children:   1,
	})
	require.NoError(t, err)

	assert.Equal(t, prop.ID, view.PropertyID)
	assert.Equal(t, int64(42), view.UserID)
	assert.Equal(t, prop.Region, view.Region)
	assert.Equal(t, 3, view.Nights)
	assert.Equal(t, int64(30000), view.TotalCents)
	assert.Equal(t, "PENDING", view.Status)

	payments, err := f.PaymentsRepo.ListByBooking(context.Background(), view.ID)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, domainpayment.StatusPending, payments[0].Status)
	assert.Equal(t, int64(30000), payments[0].TotalCents)
	assert.Equal(t, prop.Region, payments[0].Region)
}

func TestCreateBookingRejectsPastCheckIn(t *testing.T) {
	f := memory.NewFactory()
	prop := seedProperty(t, f)
	h := newCreateHandler(f)

	_, err := h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: prop.ID,
		UserID:     42,
		CheckIn:    date(2024, time.April, 20),
		CheckOut:   date(2024, time.April, 25),
		Adults:     1,
	})
	assert.ErrorIs(t, err, domainbooking.ErrPastDate)
}

func TestCreateBookingCapacityExceededPersistsNothing(t *testing.T) {
	f := memory.NewFactory()
	prop := seedProperty(t, f)
	h := newCreateHandler(f)

	_, err := h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: prop.ID,
		UserID:     42,
		CheckIn:    date(2024, time.June, 10),
		CheckOut:   date(2024, time.June, 13),
		Adults:     3,
	})
	require.ErrorIs(t, err, domainbooking.ErrCapacityExceeded)

	bookings, err := f.BookingsRepo.ListByUser(context.Background(), 42, domainbooking.ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, bookings)

	payments, err := f.PaymentsRepo.ListByBooking(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, payments)
}

func TestCreateBookingUnavailableWhenDatesTaken(t *testing.T) {
	f := memory.NewFactory()
	prop := seedProperty(t, f)
	h := newCreateHandler(f)

	_, err := h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: prop.ID,
		UserID:     42,
		CheckIn:    date(2024, time.June, 10),
		CheckOut:   date(2024, time.June, 15),
		Adults:     1,
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: prop.ID,
		UserID:     43,
		CheckIn:    date(2024, time.June, 12),
		CheckOut:   date(2024, time.June, 18),
		Adults:     1,
	})
	assert.ErrorIs(t, err, domainbooking.ErrUnavailable)
}

func TestCreateBookingBackToBackIsAllowed(t *testing.T) {
	f := memory.NewFactory()
	prop := seedProperty(t, f)
	h := newCreateHandler(f)

	_, err := h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: prop.ID,
		UserID:     42,
		CheckIn:    date(2024, time.June, 10),
		CheckOut:   date(2024, time.June, 15),
		Adults:     1,
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: prop.ID,
		UserID:     43,
		CheckIn:    date(2024, time.June, 15),
		CheckOut:   date(2024, time.June, 20),
		Adults:     1,
	})
	assert.NoError(t, err, "checkout day hands over to the next guest")
}

func TestCreateBookingDuplicateWinsOverUnavailable(t *testing.T) {
	f := memory.NewFactory()
	prop := seedProperty(t, f)
	h := newCreateHandler(f)

	_, err := h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: prop.ID,
		UserID:     42,
		CheckIn:    date(2024, time.June, 10),
		CheckOut:   date(2024, time.June, 15),
		Adults:     1,
	})
	require.NoError(t, err)

	_, err = h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: prop.ID,
		UserID:     42,
		CheckIn:    date(2024, time.June, 12),
		CheckOut:   date(2024, time.June, 18),
		Adults:     1,
	})
	assert.ErrorIs(t, err, domainbooking.ErrDuplicateBooking)
}

func TestCreateBookingInactivePropertyIsUnavailable(t *testing.T) {
	f := memory.NewFactory()
	p := &domainproperty.Property{Region: 2, OwnerID: 9, NightlyRateCents: 10000, MaxAdults: 2, Active: false}
	require.NoError(t, f.PropertiesRepo.Save(context.Background(), p))
	h := newCreateHandler(f)

	_, err := h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: p.ID,
		UserID:     42,
		CheckIn:    date(2024, time.June, 10),
		CheckOut:   date(2024, time.June, 13),
		Adults:     1,
	})
	assert.ErrorIs(t, err, domainbooking.ErrUnavailable)
}

func TestCreateBookingUnknownProperty(t *testing.T) {
	f := memory.NewFactory()
	h := newCreateHandler(f)

	_, err := h.Handle(context.Background(), CreateBookingCommand{
		PropertyID: 999,
		UserID:     42,
		CheckIn:    date(2024, time.June, 10),
		CheckOut:   date(2024, time.June, 13),
		Adults:     1,
	})
	assert.ErrorIs(t, err, domainproperty.ErrNotFound)
}

func TestConcurrentCreatesExactlyOneWins(t *testing.T) {
	f := memory.NewFactory()
	prop := seedProperty(t, f)
	h := newCreateHandler(f)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Handle(context.Background(), CreateBookingCommand{
				PropertyID: prop.ID,
				UserID:     int64(100 + i),
				CheckIn:    date(2024, time.June, 10),
				CheckOut:   date(2024, time.June, 15),
				Adults:     1,
			})
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		if err == nil {
			won++
		} else {
			assert.ErrorIs(t, err, domainbooking.ErrUnavailable)
			lost++
		}
	}
	assert.Equal(t, 1, won)
	assert.Equal(t, 1, lost)

	stay, err := daterange.New(date(2024, time.June, 10), date(2024, time.June, 15))
	require.NoError(t, err)
	taken, err := f.BookingsRepo.AnyOverlapping(context.Background(), prop.ID, stay, 0)
	require.NoError(t, err)
	assert.True(t, taken)
}
