package booking

import (
	"strconv"
	"time"

	"heavenly/internal/domain/shared/daterange"
)

type BookingRequested struct {
	BookingID  int64
	PropertyID int64
	UserID     int64
	Range      daterange.DateRange
	Guests     Guests
	TotalCents int64
	At         time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return strconv.FormatInt(e.BookingID, 10) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

type BookingConfirmed struct {
	BookingID  int64
	PropertyID int64
	Range      daterange.DateRange
	TotalCents int64
	At         time.Time
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return strconv.FormatInt(e.BookingID, 10) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID  int64
	PropertyID int64
	At         time.Time
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return strconv.FormatInt(e.BookingID, 10) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }
