package mysql

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	domainbooking "heavenly/internal/domain/booking"
	domaincalendar "heavenly/internal/domain/calendar"
	domainpayment "heavenly/internal/domain/payment"
	domainproperty "heavenly/internal/domain/property"
	"heavenly/internal/domain/shared/daterange"
)

var activeStatuses = []string{
	string(domainbooking.StatusPending),
	string(domainbooking.StatusConfirmed),
}

type propertyRepository struct {
	tx *gorm.DB
}

func (r propertyRepository) ByID(ctx context.Context, id int64) (*domainproperty.Property, error) {
	var m PropertyModel
	err := r.tx.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainproperty.ErrNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r propertyRepository) OwnedBy(ctx context.Context, id int64, region int32, ownerID int64) (*domainproperty.Property, error) {
	var m PropertyModel
	err := r.tx.WithContext(ctx).
		Where("id = ? AND region_id = ? AND owner_id = ? AND active = ?", id, region, ownerID, true).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainproperty.ErrNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r propertyRepository) Save(ctx context.Context, p *domainproperty.Property) error {
	m := toPropertyModel(p)
	if err := r.tx.WithContext(ctx).Save(&m).Error; err != nil {
		return err
	}
	p.ID = m.ID
	return nil
}

type bookingRepository struct {
	tx *gorm.DB
}

func (r bookingRepository) ByID(ctx context.Context, id int64) (*domainbooking.Booking, error) {
	var m BookingModel
	err := r.tx.WithContext(ctx).Where("id = ?", id).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r bookingRepository) ByIDForUser(ctx context.Context, id, userID int64) (*domainbooking.Booking, error) {
	var m BookingModel
	err := r.tx.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r bookingRepository) Create(ctx context.Context, b *domainbooking.Booking) error {
	m := toBookingModel(b)
	if err := r.tx.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	b.ID = m.ID
	return nil
}

func (r bookingRepository) Update(ctx context.Context, b *domainbooking.Booking) error {
	m := toBookingModel(b)
	res := r.tx.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND region_id = ?", m.ID, m.RegionID).
		Updates(map[string]any{
			"status":     m.Status,
			"check_in":   m.CheckIn,
			"check_out":  m.CheckOut,
			"nights":     m.Nights,
			"updated_at": m.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domainbooking.ErrNotFound
	}
	return nil
}

// Half-open overlap: [a, b) and [c, d) collide iff a < d and c < b.
func (r bookingRepository) AnyOverlapping(ctx context.Context, propertyID int64, stay daterange.DateRange, excludeID int64) (bool, error) {
	q := r.tx.WithContext(ctx).
		Model(&BookingModel{}).
		Where("property_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
			propertyID, activeStatuses, stay.CheckOut, stay.CheckIn)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r bookingRepository) AnyOverlappingForUser(ctx context.Context, userID, propertyID int64, stay daterange.DateRange, excludeID int64) (bool, error) {
	q := r.tx.WithContext(ctx).
		Model(&BookingModel{}).
		Where("user_id = ? AND property_id = ? AND status IN ? AND check_in < ? AND check_out > ?",
			userID, propertyID, activeStatuses, stay.CheckOut, stay.CheckIn)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r bookingRepository) ListByUser(ctx context.Context, userID int64, filter domainbooking.ListFilter) ([]*domainbooking.Booking, error) {
	q := r.tx.WithContext(ctx).Model(&BookingModel{}).Where("user_id = ?", userID)
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}
	var models []BookingModel
	if err := q.Order("created_at DESC, id DESC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r bookingRepository) ListActiveByProperty(ctx context.Context, propertyID int64, from, to time.Time) ([]*domainbooking.Booking, error) {
	q := r.tx.WithContext(ctx).
		Model(&BookingModel{}).
		Where("property_id = ? AND status IN ?", propertyID, activeStatuses)
	if !from.IsZero() {
		q = q.Where("check_out > ?", from)
	}
	if !to.IsZero() {
		q = q.Where("check_in < ?", to)
	}
	var models []BookingModel
	if err := q.Order("check_in ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domainbooking.Booking, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

type calendarRepository struct {
	tx *gorm.DB
}

func (r calendarRepository) ByIDForOwner(ctx context.Context, id int64, region int32, ownerID int64) (*domaincalendar.Interval, error) {
	var m AvailableDateModel
	err := r.tx.WithContext(ctx).
		Model(&AvailableDateModel{}).
		Joins("JOIN property ON property.id = available_date.property_id AND property.region_id = available_date.region_id").
		Where("available_date.id = ? AND available_date.region_id = ? AND property.owner_id = ? AND property.active = ?",
			id, region, ownerID, true).
		Take(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domaincalendar.ErrNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

func (r calendarRepository) Create(ctx context.Context, iv *domaincalendar.Interval) error {
	m := toIntervalModel(iv)
	if err := r.tx.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	iv.ID = m.ID
	return nil
}

func (r calendarRepository) Update(ctx context.Context, iv *domaincalendar.Interval) error {
	res := r.tx.WithContext(ctx).
		Model(&AvailableDateModel{}).
		Where("id = ? AND region_id = ?", iv.ID, iv.Region).
		Updates(map[string]any{
			"start_date":   iv.Start,
			"end_date":     iv.End,
			"is_available": iv.Available,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domaincalendar.ErrNotFound
	}
	return nil
}

func (r calendarRepository) Delete(ctx context.Context, id int64, region int32) error {
	res := r.tx.WithContext(ctx).
		Where("id = ? AND region_id = ?", id, region).
		Delete(&AvailableDateModel{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domaincalendar.ErrNotFound
	}
	return nil
}

// Closed-interval overlap: [s1, e1] and [s2, e2] collide iff s1 <= e2 and e1 >= s2.
func (r calendarRepository) AnyOverlapping(ctx context.Context, propertyID int64, region int32, start, end time.Time, excludeID int64) (bool, error) {
	q := r.tx.WithContext(ctx).
		Model(&AvailableDateModel{}).
		Where("property_id = ? AND region_id = ? AND start_date <= ? AND end_date >= ?",
			propertyID, region, end, start)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r calendarRepository) OverlappingAvailable(ctx context.Context, propertyID int64, region int32, start, end time.Time) ([]*domaincalendar.Interval, error) {
	var models []AvailableDateModel
	err := r.tx.WithContext(ctx).
		Where("property_id = ? AND region_id = ? AND is_available = ? AND start_date <= ? AND end_date >= ?",
			propertyID, region, true, end, start).
		Order("start_date ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domaincalendar.Interval, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (r calendarRepository) ListByProperty(ctx context.Context, propertyID int64, region int32, filter domaincalendar.ListFilter) ([]*domaincalendar.Interval, error) {
	q := r.tx.WithContext(ctx).
		Model(&AvailableDateModel{}).
		Where("property_id = ? AND region_id = ?", propertyID, region)
	if !filter.From.IsZero() {
		q = q.Where("end_date >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("start_date <= ?", filter.To)
	}
	if filter.Available != nil {
		q = q.Where("is_available = ?", *filter.Available)
	}
	var models []AvailableDateModel
	if err := q.Order("start_date ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]*domaincalendar.Interval, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

type paymentRepository struct {
	tx *gorm.DB
}

func (r paymentRepository) Create(ctx context.Context, p *domainpayment.Payment) error {
	m := toPaymentModel(p)
	if err := r.tx.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	p.ID = m.ID
	return nil
}

func (r paymentRepository) HasSuccessful(ctx context.Context, bookingID int64) (bool, error) {
	var count int64
	err := r.tx.WithContext(ctx).
		Model(&PaymentModel{}).
		Where("booking_id = ? AND status = ?", bookingID, string(domainpayment.StatusSuccessful)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r paymentRepository) ListByBooking(ctx context.Context, bookingID int64) ([]*domainpayment.Payment, error) {
	var models []PaymentModel
	err := r.tx.WithContext(ctx).
		Where("booking_id = ?", bookingID).
		Order("created_at ASC, id ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]*domainpayment.Payment, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}
