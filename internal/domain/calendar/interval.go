package calendar

import (
	"context"
	"errors"
	"time"

	"heavenly/internal/domain/shared/daterange"
)

var (
	ErrConflict       = errors.New("calendar: date range conflicts with an existing interval")
	ErrNotFound       = errors.New("calendar: interval not found")
	ErrSplitInvariant = errors.New("calendar: interval does not overlap the stay being blocked")
	ErrInvalidBounds  = errors.New("calendar: end date must not precede start date")
)

// Interval is a host-declared availability record. Unlike booking stays,
// interval bounds are inclusive on both ends: [Start, End] covers every day
// between them. Within one property no two intervals may overlap, whatever
// their flag — creation rejects overlaps outright and splits always produce
// disjoint output.
type Interval struct {
	ID         int64
	PropertyID int64
	Region     int32
	Start      time.Time
	End        time.Time
	Available  bool
}

// New normalizes bounds to UTC midnight and validates them. Single-day
// intervals (Start == End) are legal.
func New(propertyID int64, region int32, start, end time.Time, available bool) (*Interval, error) {
	iv := &Interval{
		PropertyID: propertyID,
		Region:     region,
		Start:      daterange.Day(start),
		End:        daterange.Day(end),
		Available:  available,
	}
	if err := iv.Validate(); err != nil {
		return nil, err
	}
	return iv, nil
}

func (iv *Interval) Validate() error {
	if iv.Start.IsZero() || iv.End.IsZero() || iv.End.Before(iv.Start) {
		return ErrInvalidBounds
	}
	return nil
}

// OverlapsClosed tests the interval against a closed day range [start, end].
func (iv *Interval) OverlapsClosed(start, end time.Time) bool {
	return !iv.Start.After(end) && !iv.End.Before(start)
}

// Days counts the inclusive span length.
func (iv *Interval) Days() int {
	return int(iv.End.Sub(iv.Start).Hours()/24) + 1
}

// SplitOutcome describes how one interval reacts to a stay being carved out
// of it. Exactly one of Updated / (Removed+Created) forms is produced:
// partial overlaps shrink the original row in place, full containment
// replaces it with up to three new rows.
type SplitOutcome struct {
	Updated *Interval
	Created []*Interval
	Removed bool
}

// BlockStay carves the closed day range [start, end] out of an available
// interval. The four cases are checked in order of specificity:
//
//  1. stay contained in the interval: replace with left remainder
//     (available), the blocked span, and right remainder (available) —
//     remainders only where the interval actually extends past the stay;
//  2. stay overlaps the interval's tail: shrink End to start-1;
//  3. stay overlaps the interval's head: shrink Start to end+1;
//  4. anything else violates the overlap precondition.
func (iv *Interval) BlockStay(start, end time.Time) (SplitOutcome, error) {
	start = daterange.Day(start)
	end = daterange.Day(end)
	if end.Before(start) {
		return SplitOutcome{}, ErrInvalidBounds
	}

	switch {
	case !iv.Start.After(start) && !iv.End.Before(end):
		out := SplitOutcome{Removed: true}
		if iv.Start.Before(start) {
			out.Created = append(out.Created, &Interval{
				PropertyID: iv.PropertyID,
				Region:     iv.Region,
				Start:      iv.Start,
				End:        daterange.AddDays(start, -1),
				Available:  true,
			})
		}
		out.Created = append(out.Created, &Interval{
			PropertyID: iv.PropertyID,
			Region:     iv.Region,
			Start:      start,
			End:        end,
			Available:  false,
		})
		if iv.End.After(end) {
			out.Created = append(out.Created, &Interval{
				PropertyID: iv.PropertyID,
				Region:     iv.Region,
				Start:      daterange.AddDays(end, 1),
				End:        iv.End,
				Available:  true,
			})
		}
		return out, nil

	case iv.Start.Before(start) && !iv.End.Before(start):
		shrunk := *iv
		shrunk.End = daterange.AddDays(start, -1)
		return SplitOutcome{Updated: &shrunk}, nil

	case !iv.Start.After(end) && iv.End.After(end):
		shrunk := *iv
		shrunk.Start = daterange.AddDays(end, 1)
		return SplitOutcome{Updated: &shrunk}, nil
	}

	return SplitOutcome{}, ErrSplitInvariant
}

// ListFilter narrows a property calendar listing. Zero time bounds and a nil
// flag mean unfiltered.
type ListFilter struct {
	From      time.Time
	To        time.Time
	Available *bool
}

type Repository interface {
	// ByIDForOwner loads an interval scoped through its parent property's
	// owner; missing rows and foreign rows both surface as ErrNotFound.
	ByIDForOwner(ctx context.Context, id int64, region int32, ownerID int64) (*Interval, error)
	Create(ctx context.Context, iv *Interval) error
	Update(ctx context.Context, iv *Interval) error
	Delete(ctx context.Context, id int64, region int32) error
	// AnyOverlapping tests the closed range [start, end] against every
	// interval of the property regardless of availability flag.
	// excludeID skips one interval, for update-time re-checks.
	AnyOverlapping(ctx context.Context, propertyID int64, region int32, start, end time.Time, excludeID int64) (bool, error)
	// OverlappingAvailable returns the available intervals touching the
	// closed range [start, end], ordered by start date.
	OverlappingAvailable(ctx context.Context, propertyID int64, region int32, start, end time.Time) ([]*Interval, error)
	ListByProperty(ctx context.Context, propertyID int64, region int32, filter ListFilter) ([]*Interval, error)
}
