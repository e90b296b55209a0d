package property

import (
	"context"
	"errors"

	"heavenly/internal/domain/shared/daterange"
)

var ErrNotFound = errors.New("property: not found")

// Property is the read model the booking core consumes. Listings management
// itself lives outside this service; only the attributes that feed capacity
// and price validation are carried here.
//
// Region is the physical partition key (Citus region_id). It rides along on
// every persisted row and must be supplied back to the storage adapter on
// region-scoped lookups, but no business rule ever branches on it.
type Property struct {
	ID               int64
	Region           int32
	OwnerID          int64
	NightlyRateCents int64
	MaxAdults        int
	MaxChildren      int
	MaxInfants       int
	MaxPets          int
	Active           bool
}

// Allows reports whether the requested guest counts fit within the
// property's declared maximums.
func (p *Property) Allows(adults, children, infants, pets int) bool {
	if adults > p.MaxAdults {
		return false
	}
	if children > p.MaxChildren {
		return false
	}
	if infants > p.MaxInfants {
		return false
	}
	if pets > p.MaxPets {
		return false
	}
	return true
}

// Quote prices a stay as a flat nightly-rate multiplication. There is no
// dynamic pricing, fee or tax model in this core.
func (p *Property) Quote(nights int) (int64, error) {
	if nights <= 0 {
		return 0, daterange.ErrInvalidRange
	}
	return p.NightlyRateCents * int64(nights), nil
}

type Repository interface {
	// ByID locates a property by id alone. In the region-partitioned
	// deployment this is a partition scan; callers on hot paths that
	// already know the region should prefer region-scoped lookups.
	ByID(ctx context.Context, id int64) (*Property, error)
	// OwnedBy locates an active property scoped to its owner, conflating
	// "absent" and "not yours" into ErrNotFound.
	OwnedBy(ctx context.Context, id int64, region int32, ownerID int64) (*Property, error)
	Save(ctx context.Context, p *Property) error
}
