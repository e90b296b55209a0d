package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"heavenly/internal/app/uow"
	domainbooking "heavenly/internal/domain/booking"
	domaincalendar "heavenly/internal/domain/calendar"
	domainpayment "heavenly/internal/domain/payment"
	domainproperty "heavenly/internal/domain/property"
)

// Factory opens database transactions as unit-of-work boundaries.
type Factory struct {
	DB *gorm.DB
}

var ErrFactoryMisconfigured = errors.New("mysql: unit of work factory misconfigured")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrFactoryMisconfigured
	}
	tx := f.DB.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	return &Unit{tx: tx}, nil
}

// Unit wraps one database transaction. All repositories share the
// transaction; row locks taken through LockProperty live until Commit or
// Rollback.
type Unit struct {
	tx       *gorm.DB
	finished bool
}

func (u *Unit) Properties() domainproperty.Repository { return propertyRepository{tx: u.tx} }
func (u *Unit) Bookings() domainbooking.Repository    { return bookingRepository{tx: u.tx} }
func (u *Unit) Calendar() domaincalendar.Repository   { return calendarRepository{tx: u.tx} }
func (u *Unit) Payments() domainpayment.Repository    { return paymentRepository{tx: u.tx} }

func (u *Unit) LockProperty(ctx context.Context, id int64, region int32) error {
	var m PropertyModel
	err := u.tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ? AND region_id = ?", id, region).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domainproperty.ErrNotFound
		}
		return err
	}
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	return u.tx.Commit().Error
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	return u.tx.Rollback().Error
}

var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.UoWFactory = (Factory{})
