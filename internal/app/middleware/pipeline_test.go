package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heavenly/internal/app/commands"
	"heavenly/internal/app/dto"
	bookingapp "heavenly/internal/app/handlers/booking"
	domainbooking "heavenly/internal/domain/booking"
	domainproperty "heavenly/internal/domain/property"
	"heavenly/internal/infra/storage/memory"
)

func fixedNow() time.Time {
	return time.Date(2024, time.May, 1, 12, 0, 0, 0, time.UTC)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPipeline(t *testing.T) (commands.Bus, *memory.Factory, *memory.Outbox) {
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

	base := commands.NewInMemoryBus()
	commands.RegisterHandler(base, bookingapp.CreateBookingCommand{}.Key(), &bookingapp.CreateBookingHandler{
		Outbox: box,
		Now:    fixedNow,
	})

	bus := ChainCommands(base, Transaction(f, nil), OutboxFlush(box))
	return bus, f, box
}

func TestPipelineCommitsAndFlushes(t *testing.T) {
	bus, f, box := newPipeline(t)

	view, err := commands.Dispatch[bookingapp.CreateBookingCommand, dto.BookingView](context.Background(), bus, bookingapp.CreateBookingCommand{
		PropertyID: 1,
		UserID:     42,
		CheckIn:    date(2024, time.June, 10),
		CheckOut:   date(2024, time.June, 13),
		Adults:     1,
	})
	require.NoError(t, err)
	assert.Equal(t, "PENDING", view.Status)

	stored, err := f.BookingsRepo.ByID(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, domainbooking.StatusPending, stored.Status)

	flushed := box.Flushed()
	require.Len(t, flushed, 1)
	assert.Equal(t, "booking.requested", flushed[0].Name)
}

func TestPipelineSkipsFlushOnFailure(t *testing.T) {
	bus, _, box := newPipeline(t)

	_, err := commands.Dispatch[bookingapp.CreateBookingCommand, dto.BookingView](context.Background(), bus, bookingapp.CreateBookingCommand{
		PropertyID: 1,
		UserID:     42,
		CheckIn:    date(2024, time.June, 10),
		CheckOut:   date(2024, time.June, 13),
		Adults:     5,
	})
	require.ErrorIs(t, err, domainbooking.ErrCapacityExceeded)
	assert.Empty(t, box.Flushed())
}

func TestPipelineLocksAreReleasedBetweenDispatches(t *testing.T) {
	bus, _, _ := newPipeline(t)

	for i := 0; i < 3; i++ {
		done := make(chan error, 1)
		go func(i int) {
			_, err := commands.Dispatch[bookingapp.CreateBookingCommand, dto.BookingView](context.Background(), bus, bookingapp.CreateBookingCommand{
				PropertyID: 1,
				UserID:     int64(50 + i),
				CheckIn:    date(2024, time.July, 1+10*i),
				CheckOut:   date(2024, time.July, 5+10*i),
				Adults:     1,
			})
			done <- err
		}(i)
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("dispatch blocked, property lock not released")
		}
	}
}
