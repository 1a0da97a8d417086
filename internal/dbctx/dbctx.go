package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context travels through every repository call. A nil Tx means the
// repository runs against its own handle and owns the transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

func New(ctx context.Context) Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return Context{Ctx: ctx}
}

func (c Context) WithTx(tx *gorm.DB) Context {
	return Context{Ctx: c.Ctx, Tx: tx}
}

// DB returns the handle to run against: the caller's transaction when set,
// otherwise fallback, always bound to Ctx.
func (c Context) DB(fallback *gorm.DB) *gorm.DB {
	db := c.Tx
	if db == nil {
		db = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return db.WithContext(ctx)
}

// Transaction runs fn inside the caller's transaction when one is open,
// otherwise inside a new one on fallback.
func (c Context) Transaction(fallback *gorm.DB, fn func(tx *gorm.DB) error) error {
	if c.Tx != nil {
		return fn(c.DB(fallback))
	}
	return c.DB(fallback).Transaction(fn)
}
