package payment

import (
	"context"
	"errors"
	"time"
)

var ErrAlreadyPaid = errors.New("payment: booking already has a successful payment")

// Status is the closed payment lifecycle enum.
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusSuccessful Status = "SUCCESSFUL"
	StatusFailed     Status = "FAILED"
)

// Payment is the companion record of a booking. This core only simulates
// settlement: the PENDING row is written alongside the booking and a
// SUCCESSFUL row is written when the external gateway reports completion.
type Payment struct {
	ID             int64
	BookingID      int64
	Region         int32
	TotalCents     int64
	Status         Status
	TransactionRef string
	CreatedAt      time.Time
}

type Repository interface {
	Create(ctx context.Context, p *Payment) error
	// HasSuccessful reports whether the booking already settled.
	HasSuccessful(ctx context.Context, bookingID int64) (bool, error)
	ListByBooking(ctx context.Context, bookingID int64) ([]*Payment, error)
}
