package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/lifecycle"
)

const uniqueViolation = "23505"

// Store is a lifecycle.Store backed by postgres.
type Store struct {
	db *sqlx.DB
}

var _ lifecycle.Store = (*Store)(nil) // interface compliance check

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func newRepos(exec sqlx.ExtContext) lifecycle.Repositories {
	return lifecycle.Repositories{
		Students:    &studentRepository{exec: exec},
		Allocations: &allocationRepository{exec: exec},
		Bookings:    &bookingRepository{exec: exec},
		Settings:    &settingRepository{exec: exec},
	}
}

func (s *Store) Repos() lifecycle.Repositories {
	return newRepos(s.db)
}

// Atomic runs fn inside a single transaction, committed only if fn returns nil.
func (s *Store) Atomic(ctx context.Context, fn func(repos lifecycle.Repositories) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.NewTransportError("begin transaction", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err = fn(newRepos(tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && rbErr != sql.ErrTxDone {
			return errors.Wrapf(err, "rolling back: %v", rbErr)
		}
		return err
	}
	if err = tx.Commit(); err != nil {
		return core.NewTransportError("commit transaction", err)
	}
	return nil
}

// transportErr wraps driver failures so callers can tell them apart from domain errors.
func transportErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return core.NewTransportError(op, err)
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation && pqErr.Constraint == constraint
	}
	return false
}
