package booking

import (
	"context"
	"errors"
	"time"

	"heavenly/internal/app/dto"
	handlersupport "heavenly/internal/app/handlers/support"
	"heavenly/internal/app/queries"
	"heavenly/internal/app/uow"
	domainbooking "heavenly/internal/domain/booking"
	domainproperty "heavenly/internal/domain/property"
	domainrange "heavenly/internal/domain/shared/daterange"
)

const (
	listMyBookingsKey      = "booking.list_mine"
	getBookingKey          = "booking.get"
	listPropertyKey        = "booking.list_property"
	checkAvailabilityKey   = "booking.check_availability"
	availabilityGridKey    = "booking.availability_grid"
	validateBookingKey     = "booking.validate"
	defaultBookingPageSize = 50
)

type ListMyBookingsQuery struct {
	UserID int64
	Status string
	Limit  int
	Offset int
}

func (q ListMyBookingsQuery) Key() string { return listMyBookingsKey }

type ListMyBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListMyBookingsHandler) Handle(ctx context.Context, q ListMyBookingsQuery) ([]dto.BookingView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	filter := domainbooking.ListFilter{Limit: q.Limit, Offset: q.Offset}
	if filter.Limit <= 0 {
		filter.Limit = defaultBookingPageSize
	}
	if q.Status != "" {
		status, err := domainbooking.ParseStatus(q.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}

	items, err := unit.Bookings().ListByUser(execCtx, q.UserID, filter)
	if err != nil {
		return nil, err
	}
	return dto.NewBookingViews(items), nil
}

type GetBookingQuery struct {
	BookingID int64
	UserID    int64
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.BookingView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingView{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	b, err := unit.Bookings().ByIDForUser(execCtx, q.BookingID, q.UserID)
	if err != nil {
		return dto.BookingView{}, err
	}
	return dto.NewBookingView(b), nil
}

type ListPropertyBookingsQuery struct {
	PropertyID int64
	From       time.Time
	To         time.Time
}

func (q ListPropertyBookingsQuery) Key() string { return listPropertyKey }

type ListPropertyBookingsHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListPropertyBookingsHandler) Handle(ctx context.Context, q ListPropertyBookingsQuery) ([]dto.BookingView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Bookings().ListActiveByProperty(execCtx, q.PropertyID, q.From, q.To)
	if err != nil {
		return nil, err
	}
	return dto.NewBookingViews(items), nil
}

type CheckAvailabilityQuery struct {
	PropertyID       int64
	CheckIn          time.Time
	CheckOut         time.Time
	ExcludeBookingID int64
}

func (q CheckAvailabilityQuery) Key() string { return checkAvailabilityKey }

type CheckAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

// Handle answers whether the stay can be booked right now. Availability is
// decided by the booking ledger alone; host calendar intervals describe
// intent and are not consulted here.
func (h *CheckAvailabilityHandler) Handle(ctx context.Context, q CheckAvailabilityQuery) (bool, error) {
	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return false, err
	}
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}
	if err := domainbooking.ValidateNotPast(dr, now); err != nil {
		return false, err
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return false, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, q.PropertyID)
	if err != nil {
		if errors.Is(err, domainproperty.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if !prop.Active {
		return false, nil
	}

	taken, err := unit.Bookings().AnyOverlapping(execCtx, q.PropertyID, dr, q.ExcludeBookingID)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

type AvailabilityGridQuery struct {
	PropertyID int64
	From       time.Time
	To         time.Time
}

func (q AvailabilityGridQuery) Key() string { return availabilityGridKey }

type AvailabilityGridHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle builds the per-day availability grid over [From, To], end date
// included, from active bookings.
func (h *AvailabilityGridHandler) Handle(ctx context.Context, q AvailabilityGridQuery) ([]dto.DayAvailability, error) {
	from := domainrange.Day(q.From)
	to := domainrange.Day(q.To)
	if to.Before(from) {
		return nil, domainrange.ErrInvalidRange
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := unit.Bookings().ListActiveByProperty(execCtx, q.PropertyID, from, domainrange.AddDays(to, 1))
	if err != nil {
		return nil, err
	}

	grid := make([]dto.DayAvailability, 0, int(to.Sub(from).Hours()/24)+1)
	for day := from; !day.After(to); day = domainrange.AddDays(day, 1) {
		occupied := false
		for _, b := range items {
			if b.Range.ContainsDay(day) {
				occupied = true
				break
			}
		}
		grid = append(grid, dto.DayAvailability{Date: day, Available: !occupied})
	}
	return grid, nil
}

type ValidateBookingQuery struct {
	PropertyID int64
	UserID     int64
	CheckIn    time.Time
	CheckOut   time.Time
	Adults     int
	Children   int
	Infants    int
	Pets       int
}

func (q ValidateBookingQuery) Key() string { return validateBookingKey }

type ValidateBookingHandler struct {
	UoWFactory uow.UoWFactory
	Now        func() time.Time
}

// Handle dry-runs the reservation checks without persisting anything.
// Business rejections come back as an invalid result with a reason;
// infrastructure failures stay errors.
func (h *ValidateBookingHandler) Handle(ctx context.Context, q ValidateBookingQuery) (dto.ValidationResult, error) {
	now := time.Now().UTC()
	if h.Now != nil {
		now = h.Now()
	}

	dr, err := domainrange.New(q.CheckIn, q.CheckOut)
	if err != nil {
		return invalid(err), nil
	}
	if err := domainbooking.ValidateNotPast(dr, now); err != nil {
		return invalid(err), nil
	}
	if err := (domainbooking.Guests{Adults: q.Adults, Children: q.Children, Infants: q.Infants, Pets: q.Pets}).Validate(); err != nil {
		return invalid(err), nil
	}

	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.ValidationResult{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	prop, err := unit.Properties().ByID(execCtx, q.PropertyID)
	if err != nil {
		if errors.Is(err, domainproperty.ErrNotFound) {
			return invalid(err), nil
		}
		return dto.ValidationResult{}, err
	}
	if !prop.Active {
		return invalid(domainbooking.ErrUnavailable), nil
	}

	if q.UserID != 0 {
		dupe, err := unit.Bookings().AnyOverlappingForUser(execCtx, q.UserID, prop.ID, dr, 0)
		if err != nil {
			return dto.ValidationResult{}, err
		}
		if dupe {
			return invalid(domainbooking.ErrDuplicateBooking), nil
		}
	}

	taken, err := unit.Bookings().AnyOverlapping(execCtx, prop.ID, dr, 0)
	if err != nil {
		return dto.ValidationResult{}, err
	}
	if taken {
		return invalid(domainbooking.ErrUnavailable), nil
	}

	if !prop.Allows(q.Adults, q.Children, q.Infants, q.Pets) {
		return invalid(domainbooking.ErrCapacityExceeded), nil
	}

	total, err := prop.Quote(dr.Nights())
	if err != nil {
		return invalid(err), nil
	}

	return dto.ValidationResult{Valid: true, Nights: dr.Nights(), TotalCents: total}, nil
}

func invalid(err error) dto.ValidationResult {
	return dto.ValidationResult{Valid: false, Reason: err.Error()}
}

var _ queries.Handler[ListMyBookingsQuery, []dto.BookingView] = (*ListMyBookingsHandler)(nil)
var _ queries.Handler[GetBookingQuery, dto.BookingView] = (*GetBookingHandler)(nil)
var _ queries.Handler[ListPropertyBookingsQuery, []dto.BookingView] = (*ListPropertyBookingsHandler)(nil)
var _ queries.Handler[CheckAvailabilityQuery, bool] = (*CheckAvailabilityHandler)(nil)
var _ queries.Handler[AvailabilityGridQuery, []dto.DayAvailability] = (*AvailabilityGridHandler)(nil)
var _ queries.Handler[ValidateBookingQuery, dto.ValidationResult] = (*ValidateBookingHandler)(nil)
