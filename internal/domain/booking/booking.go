package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"heavenly/internal/domain/shared/daterange"
	"heavenly/internal/domain/shared/events"
)

var (
	ErrNotFound          = errors.New("booking: not found")
	ErrPastDate          = errors.New("booking: check-in date is in the past")
	ErrUnavailable       = errors.New("booking: property not available for the requested dates")
	ErrDuplicateBooking  = errors.New("booking: overlapping booking already held for this property")
	ErrCapacityExceeded  = errors.New("booking: guest counts exceed property capacity")
	ErrAlreadyStarted    = errors.New("booking: cannot cancel a stay that has already started")
	ErrInvalidTransition = errors.New("booking: invalid status transition")
	ErrInvalidGuests     = errors.New("booking: guest counts must not be negative")
)

// Status is the closed booking lifecycle enum. Transition sites switch over
// it exhaustively; adding a member means visiting every switch.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCanceled  Status = "CANCELED"
	StatusCompleted Status = "COMPLETED"
	StatusReviewed  Status = "REVIEWED"
)

// ParseStatus validates a wire-format status value.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPending, StatusConfirmed, StatusCanceled, StatusCompleted, StatusReviewed:
		return Status(raw), nil
	}
	return "", fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, raw)
}

// Active reports whether the booking still occupies its dates. Only PENDING
// and CONFIRMED bookings count against availability.
func (s Status) Active() bool {
	switch s {
	case StatusPending, StatusConfirmed:
		return true
	case StatusCanceled, StatusCompleted, StatusReviewed:
		return false
	}
	return false
}

// Guests carries the party composition validated against property maximums.
type Guests struct {
	Adults   int
	Children int
	Infants  int
	Pets     int
}

func (g Guests) Validate() error {
	if g.Adults < 0 || g.Children < 0 || g.Infants < 0 || g.Pets < 0 {
		return ErrInvalidGuests
	}
	return nil
}

type Booking struct {
	ID         int64
	PropertyID int64
	UserID     int64
	Region     int32
	Range      daterange.DateRange
	Guests     Guests
	Nights     int
	TotalCents int64
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
	events.EventRecorder
}

type CreateParams struct {
	PropertyID int64
	UserID     int64
	Region     int32
	Range      daterange.DateRange
	Guests     Guests
	TotalCents int64
	Now        time.Time
}

// New constructs a PENDING booking. The region always comes from the parent
// property, never from client input, so booking and property land on the
// same partition.
func New(params CreateParams) (*Booking, error) {
	if err := params.Range.Validate(); err != nil {
		return nil, err
	}
	if err := params.Guests.Validate(); err != nil {
		return nil, err
	}
	if params.UserID == 0 {
		return nil, errors.New("booking: user id required")
	}
	now := params.Now.UTC()
	return &Booking{
		PropertyID: params.PropertyID,
		UserID:     params.UserID,
		Region:     params.Region,
		Range:      params.Range,
		Guests:     params.Guests,
		Nights:     params.Range.Nights(),
		TotalCents: params.TotalCents,
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// RecordRequested emits the creation event. Called once the ledger has
// assigned the booking id.
func (b *Booking) RecordRequested(now time.Time) {
	b.Record(BookingRequested{
		BookingID:  b.ID,
		PropertyID: b.PropertyID,
		UserID:     b.UserID,
		Range:      b.Range,
		Guests:     b.Guests,
		TotalCents: b.TotalCents,
		At:         now.UTC(),
	})
}

// TransitionTo applies the lifecycle state machine:
//
//	PENDING -> CONFIRMED -> COMPLETED -> REVIEWED
//	PENDING|CONFIRMED -> CANCELED (check-in strictly in the future)
//
// CANCELED and REVIEWED are terminal. today is the caller's notion of the
// current UTC day, used only by the cancellation guard.
func (b *Booking) TransitionTo(next Status, today time.Time, now time.Time) error {
	switch next {
	case StatusPending:
		return ErrInvalidTransition
	case StatusConfirmed:
		if b.Status != StatusPending {
			return ErrInvalidTransition
		}
		b.Record(BookingConfirmed{BookingID: b.ID, PropertyID: b.PropertyID, Range: b.Range, TotalCents: b.TotalCents, At: now.UTC()})
	case StatusCanceled:
		switch b.Status {
		case StatusPending, StatusConfirmed:
		case StatusCanceled, StatusCompleted, StatusReviewed:
			return ErrInvalidTransition
		}
		if !b.Range.CheckIn.After(daterange.Day(today)) {
			return ErrAlreadyStarted
		}
		b.Record(BookingCancelled{BookingID: b.ID, PropertyID: b.PropertyID, At: now.UTC()})
	case StatusCompleted:
		if b.Status != StatusConfirmed {
			return ErrInvalidTransition
		}
	case StatusReviewed:
		if b.Status != StatusCompleted {
			return ErrInvalidTransition
		}
	}
	b.Status = next
	b.UpdatedAt = now.UTC()
	return nil
}

// ListFilter narrows a per-user booking listing.
type ListFilter struct {
	Status *Status
	Limit  int
	Offset int
}

type Repository interface {
	// ByID looks a booking up without ownership scoping (internal callers).
	ByID(ctx context.Context, id int64) (*Booking, error)
	// ByIDForUser scopes the lookup to the owning user; a booking that
	// exists but belongs to someone else surfaces as ErrNotFound.
	ByIDForUser(ctx context.Context, id, userID int64) (*Booking, error)
	Create(ctx context.Context, b *Booking) error
	Update(ctx context.Context, b *Booking) error
	// AnyOverlapping reports whether an active (PENDING or CONFIRMED)
	// booking overlaps the half-open stay on the property. excludeID
	// skips one booking, for update-time re-checks.
	AnyOverlapping(ctx context.Context, propertyID int64, stay daterange.DateRange, excludeID int64) (bool, error)
	// AnyOverlappingForUser is the same predicate additionally scoped to
	// one user, backing the double-booking check.
	AnyOverlappingForUser(ctx context.Context, userID, propertyID int64, stay daterange.DateRange, excludeID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64, filter ListFilter) ([]*Booking, error)
	// ListActiveByProperty returns active bookings touching the window,
	// ordered by check-in. Zero window bounds mean unbounded.
	ListActiveByProperty(ctx context.Context, propertyID int64, from, to time.Time) ([]*Booking, error)
}

// ValidateNotPast rejects stays whose check-in day precedes today.
func ValidateNotPast(dr daterange.DateRange, now time.Time) error {
	if dr.CheckIn.Before(daterange.Day(now)) {
		return ErrPastDate
	}
	return nil
}
