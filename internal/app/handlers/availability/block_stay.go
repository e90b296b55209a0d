package availability

import (
	"context"
	"time"

	"heavenly/internal/app/uow"
	domainbooking "heavenly/internal/domain/booking"
	domaincalendar "heavenly/internal/domain/calendar"
	"heavenly/internal/domain/shared/daterange"
	"heavenly/internal/domain/shared/events"
)

// BlockForBooking carves a confirmed stay out of the property calendar
// inside the caller's transaction. The booking occupies nights
// [CheckIn, CheckOut); on the inclusive calendar that is the closed day
// range [CheckIn, CheckOut-1]. Every available interval touching the range
// is split or shrunk so the blocked span ends up as its own unavailable
// row. All-or-nothing: any split failure aborts the whole confirmation.
func BlockForBooking(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, now time.Time) ([]events.DomainEvent, error) {
	start := daterange.Day(b.Range.CheckIn)
	end := daterange.AddDays(daterange.Day(b.Range.CheckOut), -1)

	cal := unit.Calendar()
	overlapping, err := cal.OverlappingAvailable(ctx, b.PropertyID, b.Region, start, end)
	if err != nil {
		return nil, err
	}

	for _, iv := range overlapping {
		outcome, err := iv.BlockStay(start, end)
		if err != nil {
			return nil, err
		}
		switch {
		case outcome.Removed:
			if err := cal.Delete(ctx, iv.ID, iv.Region); err != nil {
				return nil, err
			}
			for _, created := range outcome.Created {
				if err := cal.Create(ctx, created); err != nil {
					return nil, err
				}
			}
		case outcome.Updated != nil:
			if err := cal.Update(ctx, outcome.Updated); err != nil {
				return nil, err
			}
		}
	}

	if len(overlapping) == 0 {
		return nil, nil
	}
	return []events.DomainEvent{domaincalendar.StayBlocked{
		PropertyID: b.PropertyID,
		BookingID:  b.ID,
		Start:      start,
		End:        end,
		At:         now.UTC(),
	}}, nil
}
