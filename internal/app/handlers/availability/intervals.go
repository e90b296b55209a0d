package availability

import (
	"context"
	"errors"
	"time"

	"heavenly/internal/app/commands"
	"heavenly/internal/app/dto"
	"heavenly/internal/app/uow"
	domaincalendar "heavenly/internal/domain/calendar"
	domainrange "heavenly/internal/domain/shared/daterange"
)

const (
	createIntervalKey = "availability.create"
	createBatchKey    = "availability.create_batch"
	updateIntervalKey = "availability.update"
	deleteIntervalKey = "availability.delete"
)

var ErrUnitOfWorkRequired = errors.New("availability: unit of work required")

type CreateIntervalCommand struct {
	PropertyID int64
	Region     int32
	OwnerID    int64
	Start      time.Time
	End        time.Time
	Available  bool
}

func (c CreateIntervalCommand) Key() string { return createIntervalKey }

type CreateIntervalHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle creates one calendar interval for a property the caller owns.
// A range that touches any existing interval or any active booking is
// rejected outright.
func (h *CreateIntervalHandler) Handle(ctx context.Context, cmd CreateIntervalCommand) (dto.IntervalView, error) {
	unit, ctx, done, err := beginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.IntervalView{}, err
	}
	var committed bool
	if done != nil {
		defer func() { done(committed) }()
	}

	prop, err := unit.Properties().OwnedBy(ctx, cmd.PropertyID, cmd.Region, cmd.OwnerID)
	if err != nil {
		return dto.IntervalView{}, err
	}
	if err := unit.LockProperty(ctx, prop.ID, prop.Region); err != nil {
		return dto.IntervalView{}, err
	}

	iv, err := domaincalendar.New(prop.ID, prop.Region, cmd.Start, cmd.End, cmd.Available)
	if err != nil {
		return dto.IntervalView{}, err
	}
	if err := checkConflicts(ctx, unit, iv, 0); err != nil {
		return dto.IntervalView{}, err
	}
	if err := unit.Calendar().Create(ctx, iv); err != nil {
		return dto.IntervalView{}, err
	}

	if done != nil {
		if err := unit.Commit(ctx); err != nil {
			return dto.IntervalView{}, err
		}
		committed = true
	}
	return dto.NewIntervalView(iv), nil
}

type BatchRange struct {
	Start     time.Time
	End       time.Time
	Available bool
}

type CreateBatchCommand struct {
	PropertyID int64
	Region     int32
	OwnerID    int64
	Ranges     []BatchRange
}

func (c CreateBatchCommand) Key() string { return createBatchKey }

type CreateBatchHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle creates several intervals in one pass. Conflicting ranges are
// skipped silently and the created subset is returned, so a partially
// applied batch is a normal outcome. Malformed bounds still fail the whole
// call.
func (h *CreateBatchHandler) Handle(ctx context.Context, cmd CreateBatchCommand) ([]dto.IntervalView, error) {
	unit, ctx, done, err := beginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	var committed bool
	if done != nil {
		defer func() { done(committed) }()
	}

	prop, err := unit.Properties().OwnedBy(ctx, cmd.PropertyID, cmd.Region, cmd.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := unit.LockProperty(ctx, prop.ID, prop.Region); err != nil {
		return nil, err
	}

	created := make([]dto.IntervalView, 0, len(cmd.Ranges))
	for _, r := range cmd.Ranges {
		iv, err := domaincalendar.New(prop.ID, prop.Region, r.Start, r.End, r.Available)
		if err != nil {
			return nil, err
		}
		if err := checkConflicts(ctx, unit, iv, 0); err != nil {
			if errors.Is(err, domaincalendar.ErrConflict) {
				continue
			}
			return nil, err
		}
		if err := unit.Calendar().Create(ctx, iv); err != nil {
			return nil, err
		}
		created = append(created, dto.NewIntervalView(iv))
	}

	if done != nil {
		if err := unit.Commit(ctx); err != nil {
			return nil, err
		}
		committed = true
	}
	return created, nil
}

type UpdateIntervalCommand struct {
	IntervalID int64
	Region     int32
	OwnerID    int64
	Start      time.Time
	End        time.Time
	Available  bool
}

func (c UpdateIntervalCommand) Key() string { return updateIntervalKey }

type UpdateIntervalHandler struct {
	UoWFactory uow.UoWFactory
}

// Handle rewrites an interval's bounds and flag. Conflict checking runs
// against the calendar only, excluding the interval itself; booking
// overlap is not re-checked because blocked intervals legitimately sit on
// top of confirmed stays.
func (h *UpdateIntervalHandler) Handle(ctx context.Context, cmd UpdateIntervalCommand) (dto.IntervalView, error) {
	unit, ctx, done, err := beginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.IntervalView{}, err
	}
	var committed bool
	if done != nil {
		defer func() { done(committed) }()
	}

	iv, err := unit.Calendar().ByIDForOwner(ctx, cmd.IntervalID, cmd.Region, cmd.OwnerID)
	if err != nil {
		return dto.IntervalView{}, err
	}
	if err := unit.LockProperty(ctx, iv.PropertyID, iv.Region); err != nil {
		return dto.IntervalView{}, err
	}

	iv.Start = domainrange.Day(cmd.Start)
	iv.End = domainrange.Day(cmd.End)
	iv.Available = cmd.Available
	if err := iv.Validate(); err != nil {
		return dto.IntervalView{}, err
	}

	conflict, err := unit.Calendar().AnyOverlapping(ctx, iv.PropertyID, iv.Region, iv.Start, iv.End, iv.ID)
	if err != nil {
		return dto.IntervalView{}, err
	}
	if conflict {
		return dto.IntervalView{}, domaincalendar.ErrConflict
	}
	if err := unit.Calendar().Update(ctx, iv); err != nil {
		return dto.IntervalView{}, err
	}

	if done != nil {
		if err := unit.Commit(ctx); err != nil {
			return dto.IntervalView{}, err
		}
		committed = true
	}
	return dto.NewIntervalView(iv), nil
}

type DeleteIntervalCommand struct {
	IntervalID int64
	Region     int32
	OwnerID    int64
}

func (c DeleteIntervalCommand) Key() string { return deleteIntervalKey }

type DeleteIntervalHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *DeleteIntervalHandler) Handle(ctx context.Context, cmd DeleteIntervalCommand) (struct{}, error) {
	unit, ctx, done, err := beginWriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return struct{}{}, err
	}
	var committed bool
	if done != nil {
		defer func() { done(committed) }()
	}

	iv, err := unit.Calendar().ByIDForOwner(ctx, cmd.IntervalID, cmd.Region, cmd.OwnerID)
	if err != nil {
		return struct{}{}, err
	}
	if err := unit.Calendar().Delete(ctx, iv.ID, iv.Region); err != nil {
		return struct{}{}, err
	}

	if done != nil {
		if err := unit.Commit(ctx); err != nil {
			return struct{}{}, err
		}
		committed = true
	}
	return struct{}{}, nil
}

// checkConflicts rejects an interval that overlaps any existing interval of
// the property or any active booking. Booking conflicts are inclusive on
// both ends: check_in <= End && check_out >= Start, so an interval starting
// on a stay's checkout day still conflicts. [Start-1, End+1) is that
// comparison in half-open form.
func checkConflicts(ctx context.Context, unit uow.UnitOfWork, iv *domaincalendar.Interval, excludeID int64) error {
	conflict, err := unit.Calendar().AnyOverlapping(ctx, iv.PropertyID, iv.Region, iv.Start, iv.End, excludeID)
	if err != nil {
		return err
	}
	if conflict {
		return domaincalendar.ErrConflict
	}

	stay, err := domainrange.New(domainrange.AddDays(iv.Start, -1), domainrange.AddDays(iv.End, 1))
	if err != nil {
		return err
	}
	booked, err := unit.Bookings().AnyOverlapping(ctx, iv.PropertyID, stay, 0)
	if err != nil {
		return err
	}
	if booked {
		return domaincalendar.ErrConflict
	}
	return nil
}

// beginWriteUnit reuses the ambient unit or opens a managed one. The
// returned done func, when non-nil, rolls back unless the handler reported
// a commit.
func beginWriteUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(committed bool), error) {
	unit, ok := uow.FromContext(ctx)
	if ok {
		return unit, ctx, nil, nil
	}
	if factory == nil {
		return nil, ctx, nil, ErrUnitOfWorkRequired
	}
	newUnit, err := factory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, err
	}
	execCtx := uow.ContextWithUnitOfWork(ctx, newUnit)
	done := func(committed bool) {
		if !committed {
			_ = newUnit.Rollback(execCtx)
		}
	}
	return newUnit, execCtx, done, nil
}

var _ commands.Handler[CreateIntervalCommand, dto.IntervalView] = (*CreateIntervalHandler)(nil)
var _ commands.Handler[CreateBatchCommand, []dto.IntervalView] = (*CreateBatchHandler)(nil)
var _ commands.Handler[UpdateIntervalCommand, dto.IntervalView] = (*UpdateIntervalHandler)(nil)
var _ commands.Handler[DeleteIntervalCommand, struct{}] = (*DeleteIntervalHandler)(nil)
