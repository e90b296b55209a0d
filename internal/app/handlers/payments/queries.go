package payments

import (
	"context"

	"heavenly/internal/app/dto"
	handlersupport "heavenly/internal/app/handlers/support"
	"heavenly/internal/app/queries"
	"heavenly/internal/app/uow"
)

const listBookingPaymentsKey = "payment.list_booking"

type ListBookingPaymentsQuery struct {
	BookingID int64
	UserID    int64
}

func (q ListBookingPaymentsQuery) Key() string { return listBookingPaymentsKey }

type ListBookingPaymentsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListBookingPaymentsHandler) Handle(ctx context.Context, q ListBookingPaymentsQuery) ([]dto.PaymentView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	// Ownership gate: the listing is only reachable through the caller's
	// own booking.
	b, err := unit.Bookings().ByIDForUser(execCtx, q.BookingID, q.UserID)
	if err != nil {
		return nil, err
	}

	items, err := unit.Payments().ListByBooking(execCtx, b.ID)
	if err != nil {
		return nil, err
	}
	views := make([]dto.PaymentView, 0, len(items))
	for _, p := range items {
		views = append(views, dto.NewPaymentView(p))
	}
	return views, nil
}

var _ queries.Handler[ListBookingPaymentsQuery, []dto.PaymentView] = (*ListBookingPaymentsHandler)(nil)
