package availability

import (
	"context"
	"time"

	"heavenly/internal/app/dto"
	handlersupport "heavenly/internal/app/handlers/support"
	"heavenly/internal/app/queries"
	"heavenly/internal/app/uow"
	domaincalendar "heavenly/internal/domain/calendar"
)

const getCalendarKey = "availability.get_calendar"

type GetPropertyCalendarQuery struct {
	PropertyID int64
	Region     int32
	OwnerID    int64
	From       time.Time
	To         time.Time
	Available  *bool
}

func (q GetPropertyCalendarQuery) Key() string { return getCalendarKey }

type GetPropertyCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetPropertyCalendarHandler) Handle(ctx context.Context, q GetPropertyCalendarQuery) ([]dto.IntervalView, error) {
	unit, execCtx, cleanup, err := handlersupport.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if _, err := unit.Properties().OwnedBy(execCtx, q.PropertyID, q.Region, q.OwnerID); err != nil {
		return nil, err
	}

	items, err := unit.Calendar().ListByProperty(execCtx, q.PropertyID, q.Region, domaincalendar.ListFilter{
		From:      q.From,
		To:        q.To,
		Available: q.Available,
	})
	if err != nil {
		return nil, err
	}
	return dto.NewIntervalViews(items), nil
}

var _ queries.Handler[GetPropertyCalendarQuery, []dto.IntervalView] = (*GetPropertyCalendarHandler)(nil)
