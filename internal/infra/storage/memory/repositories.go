package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	domainbooking "heavenly/internal/domain/booking"
	domaincalendar "heavenly/internal/domain/calendar"
	domainpayment "heavenly/internal/domain/payment"
	domainproperty "heavenly/internal/domain/property"
	"heavenly/internal/domain/shared/daterange"
)

// PropertyRepository is an in-memory implementation for tests and demos.
type PropertyRepository struct {
	mu     sync.RWMutex
	items  map[int64]*domainproperty.Property
	nextID int64
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[int64]*domainproperty.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id int64) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *PropertyRepository) OwnedBy(ctx context.Context, id int64, region int32, ownerID int64) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok || p.Region != region || p.OwnerID != ownerID || !p.Active {
		return nil, domainproperty.ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *PropertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p.ID == 0 {
		r.nextID++
		p.ID = r.nextID
	} else if p.ID > r.nextID {
		r.nextID = p.ID
	}
	copied := *p
	r.items[p.ID] = &copied
	return nil
}

// BookingRepository keeps the booking ledger in process memory.
type BookingRepository struct {
	mu     sync.RWMutex
	items  map[int64]*domainbooking.Booking
	nextID int64
}

func NewBookingRepository() *BookingRepository {
	return &BookingRepository{items: make(map[int64]*domainbooking.Booking)}
}

func (r *BookingRepository) ByID(ctx context.Context, id int64) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) ByIDForUser(ctx context.Context, id, userID int64) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok || b.UserID != userID {
		return nil, domainbooking.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *BookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	b.ID = r.nextID
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) Update(ctx context.Context, b *domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[b.ID]; !ok {
		return domainbooking.ErrNotFound
	}
	r.items[b.ID] = cloneBooking(b)
	return nil
}

func (r *BookingRepository) AnyOverlapping(ctx context.Context, propertyID int64, stay daterange.DateRange, excludeID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.PropertyID != propertyID || b.ID == excludeID || !b.Status.Active() {
			continue
		}
		if b.Range.Overlaps(stay) {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepository) AnyOverlappingForUser(ctx context.Context, userID, propertyID int64, stay daterange.DateRange, excludeID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.items {
		if b.UserID != userID || b.PropertyID != propertyID || b.ID == excludeID || !b.Status.Active() {
			continue
		}
		if b.Range.Overlaps(stay) {
			return true, nil
		}
	}
	return false, nil
}

func (r *BookingRepository) ListByUser(ctx context.Context, userID int64, filter domainbooking.ListFilter) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.UserID != userID {
			continue
		}
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		matches = append(matches, cloneBooking(b))
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return paginate(matches, filter.Offset, filter.Limit), nil
}

func (r *BookingRepository) ListActiveByProperty(ctx context.Context, propertyID int64, from, to time.Time) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainbooking.Booking, 0)
	for _, b := range r.items {
		if b.PropertyID != propertyID || !b.Status.Active() {
			continue
		}
		if !from.IsZero() && !b.Range.CheckOut.After(from) {
			continue
		}
		if !to.IsZero() && !b.Range.CheckIn.Before(to) {
			continue
		}
		matches = append(matches, cloneBooking(b))
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Range.CheckIn.Before(matches[j].Range.CheckIn)
	})
	return matches, nil
}

// CalendarRepository stores host availability intervals. Ownership lookups
// go through the property table.
type CalendarRepository struct {
	mu     sync.RWMutex
	items  map[int64]*domaincalendar.Interval
	nextID int64
	props  *PropertyRepository
}

func NewCalendarRepository(props *PropertyRepository) *CalendarRepository {
	return &CalendarRepository{items: make(map[int64]*domaincalendar.Interval), props: props}
}

func (r *CalendarRepository) ByIDForOwner(ctx context.Context, id int64, region int32, ownerID int64) (*domaincalendar.Interval, error) {
	r.mu.RLock()
	iv, ok := r.items[id]
	if !ok || iv.Region != region {
		r.mu.RUnlock()
		return nil, domaincalendar.ErrNotFound
	}
	copied := *iv
	r.mu.RUnlock()

	if _, err := r.props.OwnedBy(ctx, copied.PropertyID, region, ownerID); err != nil {
		return nil, domaincalendar.ErrNotFound
	}
	return &copied, nil
}

func (r *CalendarRepository) Create(ctx context.Context, iv *domaincalendar.Interval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	iv.ID = r.nextID
	copied := *iv
	r.items[iv.ID] = &copied
	return nil
}

func (r *CalendarRepository) Update(ctx context.Context, iv *domaincalendar.Interval) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[iv.ID]
	if !ok || existing.Region != iv.Region {
		return domaincalendar.ErrNotFound
	}
	copied := *iv
	r.items[iv.ID] = &copied
	return nil
}

func (r *CalendarRepository) Delete(ctx context.Context, id int64, region int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.items[id]
	if !ok || existing.Region != region {
		return domaincalendar.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *CalendarRepository) AnyOverlapping(ctx context.Context, propertyID int64, region int32, start, end time.Time, excludeID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, iv := range r.items {
		if iv.PropertyID != propertyID || iv.Region != region || iv.ID == excludeID {
			continue
		}
		if iv.OverlapsClosed(start, end) {
			return true, nil
		}
	}
	return false, nil
}

func (r *CalendarRepository) OverlappingAvailable(ctx context.Context, propertyID int64, region int32, start, end time.Time) ([]*domaincalendar.Interval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domaincalendar.Interval, 0)
	for _, iv := range r.items {
		if iv.PropertyID != propertyID || iv.Region != region || !iv.Available {
			continue
		}
		if iv.OverlapsClosed(start, end) {
			copied := *iv
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Start.Before(matches[j].Start)
	})
	return matches, nil
}

func (r *CalendarRepository) ListByProperty(ctx context.Context, propertyID int64, region int32, filter domaincalendar.ListFilter) ([]*domaincalendar.Interval, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domaincalendar.Interval, 0)
	for _, iv := range r.items {
		if iv.PropertyID != propertyID || iv.Region != region {
			continue
		}
		if filter.Available != nil && iv.Available != *filter.Available {
			continue
		}
		if !filter.From.IsZero() && iv.End.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && iv.Start.After(filter.To) {
			continue
		}
		copied := *iv
		matches = append(matches, &copied)
	}
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Start.Before(matches[j].Start)
	})
	return matches, nil
}

// PaymentRepository keeps payment rows in memory.
type PaymentRepository struct {
	mu     sync.RWMutex
	items  map[int64]*domainpayment.Payment
	nextID int64
}

func NewPaymentRepository() *PaymentRepository {
	return &PaymentRepository{items: make(map[int64]*domainpayment.Payment)}
}

func (r *PaymentRepository) Create(ctx context.Context, p *domainpayment.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	copied := *p
	r.items[p.ID] = &copied
	return nil
}

func (r *PaymentRepository) HasSuccessful(ctx context.Context, bookingID int64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.items {
		if p.BookingID == bookingID && p.Status == domainpayment.StatusSuccessful {
			return true, nil
		}
	}
	return false, nil
}

func (r *PaymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*domainpayment.Payment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matches := make([]*domainpayment.Payment, 0)
	for _, p := range r.items {
		if p.BookingID == bookingID {
			copied := *p
			matches = append(matches, &copied)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID < matches[j].ID
		}
		return matches[i].CreatedAt.Before(matches[j].CreatedAt)
	})
	return matches, nil
}

func cloneBooking(b *domainbooking.Booking) *domainbooking.Booking {
	copied := *b
	copied.ClearEvents()
	return &copied
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
