package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

// unitKey is the context key an ambient unit of work travels under.
type unitKey struct{}

// ContextWithUnitOfWork returns a context carrying the unit, so handlers
// reached through the transaction middleware join the same transaction.
func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, unitKey{}, unit)
}

// FromContext reports the ambient unit of work, if one was installed.
func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(unitKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}
