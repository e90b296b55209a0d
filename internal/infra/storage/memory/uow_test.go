package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"heavenly/internal/app/uow"
)

func TestLockPropertyBlocksUntilCommit(t *testing.T) {
	f := NewFactory()
	ctx := context.Background()

	first, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, first.LockProperty(ctx, 1, 2))

	acquired := make(chan struct{})
	go func() {
		second, err := f.Begin(ctx, uow.TxOptions{})
		if err != nil {
			return
		}
		_ = second.LockProperty(ctx, 1, 2)
		close(acquired)
		_ = second.Commit(ctx)
	}()

	select {
	case <-acquired:
		t.Fatal("second unit acquired a held lock")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Commit(ctx))

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("lock not released on commit")
	}
}

func TestLockPropertyIsReentrantWithinUnit(t *testing.T) {
	f := NewFactory()
	ctx := context.Background()

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.LockProperty(ctx, 1, 2))
	require.NoError(t, unit.LockProperty(ctx, 1, 2))
	require.NoError(t, unit.Commit(ctx))
}

func TestDistinctPropertiesDoNotContend(t *testing.T) {
	f := NewFactory()
	ctx := context.Background()

	first, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, first.LockProperty(ctx, 1, 2))

	second, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, second.LockProperty(ctx, 2, 2))
	// Same id on another region is a different row.
	require.NoError(t, second.LockProperty(ctx, 1, 3))

	require.NoError(t, first.Rollback(ctx))
	require.NoError(t, second.Rollback(ctx))
}

func TestCommitAndRollbackAreIdempotent(t *testing.T) {
	f := NewFactory()
	ctx := context.Background()

	unit, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.LockProperty(ctx, 1, 2))
	require.NoError(t, unit.Commit(ctx))
	require.NoError(t, unit.Commit(ctx))
	require.NoError(t, unit.Rollback(ctx))

	// The lock must be free again.
	next, err := f.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, next.LockProperty(ctx, 1, 2))
	require.NoError(t, next.Rollback(ctx))
}

func TestFactoryRejectsMissingRepositories(t *testing.T) {
	f := &Factory{}
	_, err := f.Begin(context.Background(), uow.TxOptions{})
	assert.ErrorIs(t, err, ErrFactoryMisconfigured)
}
