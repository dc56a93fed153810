package uow

import (
	"context"
	"errors"
)

var ErrFactoryMissing = errors.New("uow: factory required")

// Within runs fn inside a unit of work. It commits when fn succeeds and rolls
// back otherwise. A unit already present in ctx is joined instead of nested.
func Within(ctx context.Context, factory UoWFactory, opts TxOptions, fn func(ctx context.Context, unit UnitOfWork) error) error {
	if unit, ok := UnitFrom(ctx); ok {
		return fn(ctx, unit)
	}
	if factory == nil {
		return ErrFactoryMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return err
	}
	execCtx := ctx
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		execCtx = injector.InjectContext(ctx)
	}
	execCtx = WithUnit(execCtx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()

	if err := fn(execCtx, unit); err != nil {
		return err
	}
	if opts.ReadOnly {
		return nil
	}
	if err := unit.Commit(execCtx); err != nil {
		return err
	}
	committed = true
	return nil
}
