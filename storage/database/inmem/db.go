package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/auth"
	"github.com/trezcool/libwork/core/lifecycle"
	"github.com/trezcool/libwork/core/seat"
	"github.com/trezcool/libwork/core/student"
)

type studentRow struct {
	student.Student
	seq int64 // insertion order, breaks created_at ties
}

type bookingRow struct {
	seat.Booking
	seq int64
}

type tables struct {
	students    map[string]studentRow      // by ID
	allocations map[string]seat.Allocation // by mobile
	bookings    map[string]bookingRow      // by ID
	settings    map[string]auth.Setting    // by key
}

func newTables() tables {
	return tables{
		students:    make(map[string]studentRow),
		allocations: make(map[string]seat.Allocation),
		bookings:    make(map[string]bookingRow),
		settings:    make(map[string]auth.Setting),
	}
}

func (t tables) clone() tables {
	c := newTables()
	for k, v := range t.students {
		c.students[k] = v
	}
	for k, v := range t.allocations {
		c.allocations[k] = v
	}
	for k, v := range t.bookings {
		c.bookings[k] = v
	}
	for k, v := range t.settings {
		c.settings[k] = v
	}
	return c
}

// DB is an in-memory lifecycle.Store. A single lock guards every table.
type DB struct {
	mutex sync.RWMutex
	seq   int64
	data  tables
}

var _ lifecycle.Store = (*DB)(nil) // interface compliance check

func NewDB() *DB {
	return &DB{data: newTables()}
}

func (db *DB) nextSeq() int64 {
	db.seq++
	return db.seq
}

// conn is what repositories use to reach the tables. Outside a unit of work every call
// takes the lock itself; inside one the lock is already held by Atomic.
type conn struct {
	db     *DB
	locked bool
}

func (c conn) read() func() {
	if c.locked {
		return func() {}
	}
	c.db.mutex.RLock()
	return c.db.mutex.RUnlock
}

func (c conn) write() func() {
	if c.locked {
		return func() {}
	}
	c.db.mutex.Lock()
	return c.db.mutex.Unlock
}

func (db *DB) repos(locked bool) lifecycle.Repositories {
	c := conn{db: db, locked: locked}
	return lifecycle.Repositories{
		Students:    &studentRepository{conn: c},
		Allocations: &allocationRepository{conn: c},
		Bookings:    &bookingRepository{conn: c},
		Settings:    &settingRepository{conn: c},
	}
}

func (db *DB) Repos() lifecycle.Repositories {
	return db.repos(false)
}

// ctxErr reports a cancelled or expired ctx as a failed store call.
func ctxErr(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return core.NewTransportError(op, err)
	}
	return nil
}

// Atomic holds the write lock while fn runs and restores the previous tables if fn fails.
func (db *DB) Atomic(ctx context.Context, fn func(repos lifecycle.Repositories) error) error {
	if err := ctxErr(ctx, "begin unit of work"); err != nil {
		return err
	}
	db.mutex.Lock()
	defer db.mutex.Unlock()

	snapshot, seq := db.data.clone(), db.seq
	if err := fn(db.repos(true)); err != nil {
		db.data, db.seq = snapshot, seq
		return err
	}
	return nil
}

// Reset drops every record.
func (db *DB) Reset() {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.data = newTables()
	db.seq = 0
}
