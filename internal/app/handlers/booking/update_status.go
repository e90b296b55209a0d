package booking

import (
	"context"
	"time"

	"heavenly/internal/app/commands"
	"heavenly/internal/app/dto"
	"heavenly/internal/app/outbox"
	"heavenly/internal/app/uow"
	domainbooking "heavenly/internal/domain/booking"
)

const updateStatusKey = "booking.update_status"

type UpdateStatusCommand struct {
	BookingID int64
	// UserID scopes the lookup to the booking owner; zero means an
	// internal caller and skips ownership scoping.
	UserID int64
	Status string
}

func (c UpdateStatusCommand) Key() string { return updateStatusKey }

type UpdateStatusHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

func (h *UpdateStatusHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (dto.BookingView, error) {
	next, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return dto.BookingView{}, err
	}

	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.BookingView{}, ErrUnitOfWorkRequired
		}
		unit, err = h.UoWFactory.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return dto.BookingView{}, err
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

	var b *domainbooking.Booking
	if cmd.UserID != 0 {
		b, err = unit.Bookings().ByIDForUser(ctx, cmd.BookingID, cmd.UserID)
	} else {
		b, err = unit.Bookings().ByID(ctx, cmd.BookingID)
	}
	if err != nil {
		return dto.BookingView{}, err
	}

	now := h.now()
	if err := b.TransitionTo(next, now, now); err != nil {
		return dto.BookingView{}, err
	}
	if err := unit.Bookings().Update(ctx, b); err != nil {
		return dto.BookingView{}, err
	}

	evs := b.PendingEvents()
	b.ClearEvents()
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.encoder(), evs); err != nil {
		return dto.BookingView{}, err
	}

	if managed {
		if err := unit.Commit(ctx); err != nil {
			return dto.BookingView{}, err
		}
		committed = true
	}

	return dto.NewBookingView(b), nil
}

func (h *UpdateStatusHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *UpdateStatusHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[UpdateStatusCommand, dto.BookingView] = (*UpdateStatusHandler)(nil)
