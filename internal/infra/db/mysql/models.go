package mysql

import (
	"time"

	domainbooking "heavenly/internal/domain/booking"
	domaincalendar "heavenly/internal/domain/calendar"
	domainpayment "heavenly/internal/domain/payment"
	domainproperty "heavenly/internal/domain/property"
	"heavenly/internal/domain/shared/daterange"
)

// Every row carries region_id as part of its primary key; the schema is laid
// out for hash partitioning on that column, so region-scoped queries stay on
// one shard.

type PropertyModel struct {
	ID               int64 `gorm:"primaryKey;autoIncrement"`
	RegionID         int32 `gorm:"primaryKey;autoIncrement:false"`
	OwnerID          int64 `gorm:"index"`
	NightlyRateCents int64
	MaxAdults        int
	MaxChildren      int
	MaxInfants       int
	MaxPets          int
	Active           bool
}

func (PropertyModel) TableName() string { return "property" }

type AvailableDateModel struct {
	ID          int64 `gorm:"primaryKey;autoIncrement"`
	RegionID    int32 `gorm:"primaryKey;autoIncrement:false"`
	PropertyID  int64 `gorm:"index"`
	StartDate   time.Time
	EndDate     time.Time
	IsAvailable bool
}

func (AvailableDateModel) TableName() string { return "available_date" }

type BookingModel struct {
	ID         int64 `gorm:"primaryKey;autoIncrement"`
	RegionID   int32 `gorm:"primaryKey;autoIncrement:false"`
	PropertyID int64 `gorm:"index"`
	UserID     int64 `gorm:"index"`
	CheckIn    time.Time
	CheckOut   time.Time
	Adults     int
	Children   int
	Infants    int
	Pets       int
	Nights     int
	TotalCents int64
	Status     string `gorm:"size:16;index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (BookingModel) TableName() string { return "booking" }

type PaymentModel struct {
	ID             int64 `gorm:"primaryKey;autoIncrement"`
	RegionID       int32 `gorm:"primaryKey;autoIncrement:false"`
	BookingID      int64 `gorm:"index"`
	TotalCents     int64
	Status         string `gorm:"size:16"`
	TransactionRef string `gorm:"size:128"`
	CreatedAt      time.Time
}

func (PaymentModel) TableName() string { return "payment" }

type OutboxModel struct {
	ID            string `gorm:"primaryKey;size:64"`
	Name          string `gorm:"size:128"`
	Payload       []byte `gorm:"type:blob"`
	OccurredAt    time.Time
	Aggregate     string `gorm:"size:64"`
	Headers       []byte `gorm:"type:blob"`
	State         string    `gorm:"size:16;index:idx_outbox_state"`
	Attempts      int
	NextAttemptAt time.Time `gorm:"index:idx_outbox_state"`
	ClaimedBy     string    `gorm:"size:64"`
	ClaimedAt     *time.Time
	SentAt        *time.Time
	LastError     string `gorm:"size:512"`
	CreatedAt     time.Time
}

func (OutboxModel) TableName() string { return "app_outbox" }

func toPropertyModel(p *domainproperty.Property) PropertyModel {
	return PropertyModel{
		ID:               p.ID,
		RegionID:         p.Region,
		OwnerID:          p.OwnerID,
		NightlyRateCents: p.NightlyRateCents,
		MaxAdults:        p.MaxAdults,
		MaxChildren:      p.MaxChildren,
		MaxInfants:       p.MaxInfants,
		MaxPets:          p.MaxPets,
		Active:           p.Active,
	}
}

func (m PropertyModel) toDomain() *domainproperty.Property {
	return &domainproperty.Property{
		ID:               m.ID,
		Region:           m.RegionID,
		OwnerID:          m.OwnerID,
		NightlyRateCents: m.NightlyRateCents,
		MaxAdults:        m.MaxAdults,
		MaxChildren:      m.MaxChildren,
		MaxInfants:       m.MaxInfants,
		MaxPets:          m.MaxPets,
		Active:           m.Active,
	}
}

func toBookingModel(b *domainbooking.Booking) BookingModel {
	return BookingModel{
		ID:         b.ID,
		RegionID:   b.Region,
		PropertyID: b.PropertyID,
		UserID:     b.UserID,
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

func (m BookingModel) toDomain() *domainbooking.Booking {
	return &domainbooking.Booking{
		ID:         m.ID,
		PropertyID: m.PropertyID,
		UserID:     m.UserID,
		Region:     m.RegionID,
		Range:      daterange.DateRange{CheckIn: daterange.Day(m.CheckIn), CheckOut: daterange.Day(m.CheckOut)},
		Guests: domainbooking.Guests{
			Adults:   m.Adults,
			Children: m.Children,
			Infants:  m.Infants,
			Pets:     m.Pets,
		},
		Nights:     m.Nights,
		TotalCents: m.TotalCents,
		Status:     domainbooking.Status(m.Status),
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func toIntervalModel(iv *domaincalendar.Interval) AvailableDateModel {
	return AvailableDateModel{
		ID:          iv.ID,
		RegionID:    iv.Region,
		PropertyID:  iv.PropertyID,
		StartDate:   iv.Start,
		EndDate:     iv.End,
		IsAvailable: iv.Available,
	}
}

func (m AvailableDateModel) toDomain() *domaincalendar.Interval {
	return &domaincalendar.Interval{
		ID:         m.ID,
		PropertyID: m.PropertyID,
		Region:     m.RegionID,
		Start:      daterange.Day(m.StartDate),
		End:        daterange.Day(m.EndDate),
		Available:  m.IsAvailable,
	}
}

func toPaymentModel(p *domainpayment.Payment) PaymentModel {
	return PaymentModel{
		ID:             p.ID,
		RegionID:       p.Region,
		BookingID:      p.BookingID,
		TotalCents:     p.TotalCents,
		Status:         string(p.Status),
		TransactionRef: p.TransactionRef,
		CreatedAt:      p.CreatedAt,
	}
}

func (m PaymentModel) toDomain() *domainpayment.Payment {
	return &domainpayment.Payment{
		ID:             m.ID,
		BookingID:      m.BookingID,
		Region:         m.RegionID,
		TotalCents:     m.TotalCents,
		Status:         domainpayment.Status(m.Status),
		TransactionRef: m.TransactionRef,
		CreatedAt:      m.CreatedAt,
	}
}
