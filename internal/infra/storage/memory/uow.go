package memory

import (
	"context"
	"errors"
	"sync"

	"heavenly/internal/app/uow"
	domainbooking "heavenly/internal/domain/booking"
	domaincalendar "heavenly/internal/domain/calendar"
	domainpayment "heavenly/internal/domain/payment"
	domainproperty "heavenly/internal/domain/property"
)

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

type lockKey struct {
	id     int64
	region int32
}

// lockTable hands out one mutex per property so check-then-insert sequences
// serialize the same way FOR UPDATE row locks do on the relational store.
type lockTable struct {
	mu    sync.Mutex
	locks map[lockKey]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[lockKey]*sync.Mutex)}
}

func (t *lockTable) get(key lockKey) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.locks[key]
	if !ok {
		m = &sync.Mutex{}
		t.locks[key] = m
	}
	return m
}

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	PropertiesRepo *PropertyRepository
	BookingsRepo   *BookingRepository
	CalendarRepo   *CalendarRepository
	PaymentsRepo   *PaymentRepository

	locksOnce sync.Once
	locks     *lockTable
}

// NewFactory builds a factory over one fresh shared store.
func NewFactory() *Factory {
	props := NewPropertyRepository()
	return &Factory{
		PropertiesRepo: props,
		BookingsRepo:   NewBookingRepository(),
		CalendarRepo:   NewCalendarRepository(props),
		PaymentsRepo:   NewPaymentRepository(),
	}
}

// Begin starts a lightweight transaction boundary. No snapshot isolation is
// provided but property locks behave like their relational counterparts:
// held from LockProperty until Commit or Rollback.
func (f *Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.PropertiesRepo == nil || f.BookingsRepo == nil || f.CalendarRepo == nil || f.PaymentsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	f.locksOnce.Do(func() { f.locks = newLockTable() })
	return &Unit{
		properties: f.PropertiesRepo,
		bookings:   f.BookingsRepo,
		calendar:   f.CalendarRepo,
		payments:   f.PaymentsRepo,
		locks:      f.locks,
		held:       make(map[lockKey]*sync.Mutex),
	}, nil
}

// Unit is a lightweight uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	properties *PropertyRepository
	bookings   *BookingRepository
	calendar   *CalendarRepository
	payments   *PaymentRepository

	locks    *lockTable
	held     map[lockKey]*sync.Mutex
	finished bool
}

func (u *Unit) Properties() domainproperty.Repository { return u.properties }
func (u *Unit) Bookings() domainbooking.Repository    { return u.bookings }
func (u *Unit) Calendar() domaincalendar.Repository   { return u.calendar }
func (u *Unit) Payments() domainpayment.Repository    { return u.payments }

func (u *Unit) LockProperty(ctx context.Context, id int64, region int32) error {
	key := lockKey{id: id, region: region}
	if _, ok := u.held[key]; ok {
		return nil
	}
	m := u.locks.get(key)
	m.Lock()
	u.held[key] = m
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	u.release()
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.release()
	return nil
}

func (u *Unit) release() {
	if u.finished {
		return
	}
	u.finished = true
	for _, m := range u.held {
		m.Unlock()
	}
	u.held = nil
}

var _ uow.UnitOfWork = (*Unit)(nil)
var _ uow.UoWFactory = (*Factory)(nil)
