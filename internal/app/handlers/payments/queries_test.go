package payments

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainbooking "heavenly/internal/domain/booking"
	"heavenly/internal/infra/storage/memory"
)

func TestListBookingPayments(t *testing.T) {
	f, view := seedFixture(t)

	pay := &ProcessPaymentHandler{UoWFactory: f, Outbox: memory.NewOutbox(), Now: fixedNow}
	_, err := pay.Handle(context.Background(), ProcessPaymentCommand{BookingID: view.ID, UserID: 42})
	require.NoError(t, err)

	h := &ListBookingPaymentsHandler{UoWFactory: f}

	items, err := h.Handle(context.Background(), ListBookingPaymentsQuery{BookingID: view.ID, UserID: 42})
	require.NoError(t, err)
	require.Len(t, items, 2, "the PENDING row from creation plus the settlement row")
	assert.Equal(t, "PENDING", items[0].Status)
	assert.Equal(t, "SUCCESSFUL", items[1].Status)
}

func TestListBookingPaymentsScopedToOwner(t *testing.T) {
	f, view := seedFixture(t)
	h := &ListBookingPaymentsHandler{UoWFactory: f}

	_, err := h.Handle(context.Background(), ListBookingPaymentsQuery{BookingID: view.ID, UserID: 7})
	assert.ErrorIs(t, err, domainbooking.ErrNotFound)
}
