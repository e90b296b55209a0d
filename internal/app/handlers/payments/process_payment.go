package payments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"heavenly/internal/app/commands"
	"heavenly/internal/app/dto"
	"heavenly/internal/app/handlers/availability"
	"heavenly/internal/app/outbox"
	"heavenly/internal/app/uow"
	domainbooking "heavenly/internal/domain/booking"
	domainpayment "heavenly/internal/domain/payment"
)

const processPaymentKey = "payment.process"

var ErrUnitOfWorkRequired = errors.New("payments: unit of work required")

type ProcessPaymentCommand struct {
	BookingID int64
	UserID    int64
}

func (c ProcessPaymentCommand) Key() string { return processPaymentKey }

type ProcessPaymentHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle settles a booking. Settlement is simulated: no gateway is called,
// the payment row simply flips to SUCCESSFUL. In the same transaction the
// booking is confirmed and its stay is carved out of the host calendar.
func (h *ProcessPaymentHandler) Handle(ctx context.Context, cmd ProcessPaymentCommand) (dto.PaymentView, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.PaymentView{}, ErrUnitOfWorkRequired
		}
		var err error
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.PaymentView{}, err
		}
		ctx = uow.ContextWithUnitOfWork(ctx, unit)
		managed = true
	}
	if managed {
		defer func() {
			if !committed {
				_ = unit.Rollback(ctx)
			}
		}()
	}

	b, err := unit.Bookings().ByIDForUser(ctx, cmd.BookingID, cmd.UserID)
	if err != nil {
		return dto.PaymentView{}, err
	}
	if err := unit.LockProperty(ctx, b.PropertyID, b.Region); err != nil {
		return dto.PaymentView{}, err
	}

	settled, err := unit.Payments().HasSuccessful(ctx, b.ID)
	if err != nil {
		return dto.PaymentView{}, err
	}
	if settled {
		return dto.PaymentView{}, domainpayment.ErrAlreadyPaid
	}

	now := h.now()
	pay := &domainpayment.Payment{
		BookingID:      b.ID,
		Region:         b.Region,
		TotalCents:     b.TotalCents,
		Status:         domainpayment.StatusSuccessful,
		TransactionRef: fmt.Sprintf("txn_%d_%d_%s", b.ID, b.UserID, uuid.NewString()),
		CreatedAt:      now,
	}
	if err := unit.Payments().Create(ctx, pay); err != nil {
		return dto.PaymentView{}, err
	}

	if err := b.TransitionTo(domainbooking.StatusConfirmed, now, now); err != nil {
		return dto.PaymentView{}, err
	}
	if err := unit.Bookings().Update(ctx, b); err != nil {
		return dto.PaymentView{}, err
	}

	calendarEvents, err := availability.BlockForBooking(ctx, unit, b, now)
	if err != nil {
		return dto.PaymentView{}, err
	}

	evs := b.PendingEvents()
	b.ClearEvents()
	evs = append(evs, calendarEvents...)
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), evs); err != nil {
		return dto.PaymentView{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.PaymentView{}, err
		}
		committed = true
	}
	return dto.NewPaymentView(pay), nil
}

func (h *ProcessPaymentHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *ProcessPaymentHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[ProcessPaymentCommand, dto.PaymentView] = (*ProcessPaymentHandler)(nil)
