package booking

import (
	"context"
	"errors"
	"time"

	"heavenly/internal/app/commands"
	"heavenly/internal/app/dto"
	"heavenly/internal/app/outbox"
	"heavenly/internal/app/uow"
	domainbooking "heavenly/internal/domain/booking"
	domainpayment "heavenly/internal/domain/payment"
	domainrange "heavenly/internal/domain/shared/daterange"
)

const createBookingKey = "booking.create"

var ErrUnitOfWorkRequired = errors.New("booking: unit of work required")

type CreateBookingCommand struct {
	PropertyID int64
	UserID     int64
	CheckIn    time.Time
	CheckOut   time.Time
	Adults     int
	Children   int
	Infants    int
	Pets       int
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

type CreateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Now        func() time.Time
}

// Handle runs the full reservation sequence under a per-property lock:
// duplicate check, availability check, capacity check, price quote, then
// the booking row and its companion PENDING payment in one write group.
func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (dto.BookingView, error) {
	unit, ok := uow.FromContext(ctx)
	managed := false
	committed := false
	if !ok {
		if h.UoWFactory == nil {
			return dto.BookingView{}, ErrUnitOfWorkRequired
		}
		var err error
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

	dr, err := domainrange.New(cmd.CheckIn, cmd.CheckOut)
	if err != nil {
		return dto.BookingView{}, err
	}
	now := h.now()
	if err := domainbooking.ValidateNotPast(dr, now); err != nil {
		return dto.BookingView{}, err
	}

	prop, err := unit.Properties().ByID(ctx, cmd.PropertyID)
	if err != nil {
		return dto.BookingView{}, err
	}
	if !prop.Active {
		return dto.BookingView{}, domainbooking.ErrUnavailable
	}

	if err := unit.LockProperty(ctx, prop.ID, prop.Region); err != nil {
		return dto.BookingView{}, err
	}

	dupe, err := unit.Bookings().AnyOverlappingForUser(ctx, cmd.UserID, prop.ID, dr, 0)
	if err != nil {
		return dto.BookingView{}, err
	}
	if dupe {
		return dto.BookingView{}, domainbooking.ErrDuplicateBooking
	}

	taken, err := unit.Bookings().AnyOverlapping(ctx, prop.ID, dr, 0)
	if err != nil {
		return dto.BookingView{}, err
	}
	if taken {
		return dto.BookingView{}, domainbooking.ErrUnavailable
	}

	if !prop.Allows(cmd.Adults, cmd.Children, cmd.Infants, cmd.Pets) {
		return dto.BookingView{}, domainbooking.ErrCapacityExceeded
	}

	total, err := prop.Quote(dr.Nights())
	if err != nil {
		return dto.BookingView{}, err
	}

	b, err := domainbooking.New(domainbooking.CreateParams{
		PropertyID: prop.ID,
		UserID:     cmd.UserID,
		Region:     prop.Region,
		Range:      dr,
		Guests: domainbooking.Guests{
			Adults:   cmd.Adults,
			Children: cmd.Children,
			Infants:  cmd.Infants,
			Pets:     cmd.Pets,
		},
		TotalCents: total,
		Now:        now,
	})
	if err != nil {
		return dto.BookingView{}, err
	}

	if err := unit.Bookings().Create(ctx, b); err != nil {
		return dto.BookingView{}, err
	}
	b.RecordRequested(now)

	if err := unit.Payments().Create(ctx, &domainpayment.Payment{
		BookingID:  b.ID,
		Region:     b.Region,
		TotalCents: total,
		Status:     domainpayment.StatusPending,
		CreatedAt:  now,
	}); err != nil {
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

func (h *CreateBookingHandler) encoder() outbox.EventEncoder {
	if h.Encoder != nil {
		return h.Encoder
	}
	return outbox.JSONEventEncoder{}
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CreateBookingCommand, dto.BookingView] = (*CreateBookingHandler)(nil)
