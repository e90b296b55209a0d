package uow

import (
	"context"

	domainbooking "heavenly/internal/domain/booking"
	domaincalendar "heavenly/internal/domain/calendar"
	domainpayment "heavenly/internal/domain/payment"
	domainproperty "heavenly/internal/domain/property"
)

// UnitOfWork coordinates repositories inside one transaction boundary.
// Every engine operation is a sequence of reads and one final write group
// executed through a single unit; any exit that is not a Commit rolls the
// whole group back.
type UnitOfWork interface {
	Properties() domainproperty.Repository
	Bookings() domainbooking.Repository
	Calendar() domaincalendar.Repository
	Payments() domainpayment.Repository

	// LockProperty serializes writers on one property for the remainder
	// of the unit. The availability check and the booking insert are not
	// atomic on their own; every path that re-checks and then writes must
	// take this lock first.
	LockProperty(ctx context.Context, id int64, region int32) error

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
