package calendar

import (
	"strconv"
	"time"
)

// StayBlocked is emitted when a confirmed booking is carved out of the
// property calendar.
type StayBlocked struct {
	PropertyID int64
	BookingID  int64
	Start      time.Time
	End        time.Time
	At         time.Time
}

func (e StayBlocked) EventName() string     { return "calendar.stay_blocked" }
func (e StayBlocked) AggregateID() string   { return strconv.FormatInt(e.PropertyID, 10) }
func (e StayBlocked) OccurredAt() time.Time { return e.At }
