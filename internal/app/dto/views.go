package dto

import (
	"time"

	"heavenly/internal/domain/booking"
	"heavenly/internal/domain/calendar"
	"heavenly/internal/domain/payment"
)

// BookingView is the outward representation of a booking.
type BookingView struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	UserID     int64     `json:"user_id"`
	Region     int32     `json:"region_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	Adults     int       `json:"adults"`
	Children   int       `json:"children"`
	Infants    int       `json:"infants"`
	Pets       int       `json:"pets"`
	Nights     int       `json:"nights"`
	TotalCents int64     `json:"total_cents"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewBookingView(b *booking.Booking) BookingView {
	return BookingView{
		ID:         b.ID,
		PropertyID: b.PropertyID,
		UserID:     b.UserID,
		Region:     b.Region,
		CheckIn:    b.Range.CheckIn,
		CheckOut:   b.Range.CheckOut,
		Adults:     b.Guests.Adults,
		Children:   b.Guests.Children,
		Infants:    b.Guests.Infants,
		Pets:       b.Guests.Pets,
		Nights:     b.Nights,
		TotalCents: b.TotalCents,
		Status:     string(b.Status),
		CreatedAt:  b.CreatedAt,
		UpdatedAt:  b.UpdatedAt,
	}
}

func NewBookingViews(bs []*booking.Booking) []BookingView {
	views := make([]BookingView, 0, len(bs))
	for _, b := range bs {
		views = append(views, NewBookingView(b))
	}
	return views
}

type PaymentView struct {
	ID             int64     `json:"id"`
	BookingID      int64     `json:"booking_id"`
	Region         int32     `json:"region_id"`
	TotalCents     int64     `json:"total_cents"`
	Status         string    `json:"status"`
	TransactionRef string    `json:"transaction_ref"`
	CreatedAt      time.Time `json:"created_at"`
}

func NewPaymentView(p *payment.Payment) PaymentView {
	return PaymentView{
		ID:             p.ID,
		BookingID:      p.BookingID,
		Region:         p.Region,
		TotalCents:     p.TotalCents,
		Status:         string(p.Status),
		TransactionRef: p.TransactionRef,
		CreatedAt:      p.CreatedAt,
	}
}

type IntervalView struct {
	ID         int64     `json:"id"`
	PropertyID int64     `json:"property_id"`
	Region     int32     `json:"region_id"`
	Start      time.Time `json:"start_date"`
	End        time.Time `json:"end_date"`
	Available  bool      `json:"is_available"`
}

func NewIntervalView(iv *calendar.Interval) IntervalView {
	return IntervalView{
		ID:         iv.ID,
		PropertyID: iv.PropertyID,
		Region:     iv.Region,
		Start:      iv.Start,
		End:        iv.End,
		Available:  iv.Available,
	}
}

func NewIntervalViews(ivs []*calendar.Interval) []IntervalView {
	views := make([]IntervalView, 0, len(ivs))
	for _, iv := range ivs {
		views = append(views, NewIntervalView(iv))
	}
	return views
}

// DayAvailability is one cell of the per-day availability grid.
type DayAvailability struct {
	Date      time.Time `json:"date"`
	Available bool      `json:"available"`
}

// ValidationResult reports the outcome of a dry-run booking check.
type ValidationResult struct {
	Valid      bool   `json:"valid"`
	Reason     string `json:"reason,omitempty"`
	Nights     int    `json:"nights"`
	TotalCents int64  `json:"total_cents"`
}
