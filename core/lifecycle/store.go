package lifecycle

import (
	"context"

	"github.com/trezcool/libwork/core/auth"
	"github.com/trezcool/libwork/core/seat"
	"github.com/trezcool/libwork/core/student"
)

// Repositories groups the record stores a unit of work writes to.
type Repositories struct {
	Students    student.Repository
	Allocations seat.AllocationRepository
	Bookings    seat.BookingRepository
	Settings    auth.SettingRepository
}

// Store gives access to the record stores.
type Store interface {
	// Repos returns repositories for single, independent reads and writes.
	Repos() Repositories
	// Atomic runs fn as one unit of work. Every write made through the repositories
	// handed to fn is kept only if fn returns nil.
	Atomic(ctx context.Context, fn func(repos Repositories) error) error
}
