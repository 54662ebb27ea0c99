package inmemdb

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/seat"
)

var errAllocationExists = core.NewValidationError(errors.New("seat allocation already exists"))

type allocationRepository struct {
	conn
}

var _ seat.AllocationRepository = (*allocationRepository)(nil) // interface compliance check

func (repo *allocationRepository) GetAllocation(ctx context.Context, mobile string) (seat.Allocation, error) {
	if err := ctxErr(ctx, "select seat record"); err != nil {
		return seat.Allocation{}, err
	}
	defer repo.read()()

	if a, ok := repo.db.data.allocations[mobile]; ok {
		return a, nil
	}
	return seat.Allocation{}, seat.ErrAllocationNotFound
}

func (repo *allocationRepository) CreateAllocation(ctx context.Context, a seat.Allocation) (seat.Allocation, error) {
	if err := ctxErr(ctx, "insert seat record"); err != nil {
		return seat.Allocation{}, err
	}
	defer repo.write()()

	if _, ok := repo.db.data.allocations[a.Mobile]; ok {
		return seat.Allocation{}, errAllocationExists
	}
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	repo.db.data.allocations[a.Mobile] = a
	return a, nil
}

func (repo *allocationRepository) ResetAllocation(ctx context.Context, mobile string, now time.Time) (seat.Allocation, error) {
	if err := ctxErr(ctx, "update seat record"); err != nil {
		return seat.Allocation{}, err
	}
	defer repo.write()()

	a, ok := repo.db.data.allocations[mobile]
	if !ok {
		return seat.Allocation{}, seat.ErrAllocationNotFound
	}
	a.Reset(now)
	repo.db.data.allocations[mobile] = a
	return a, nil
}

func (repo *allocationRepository) QueryAllocations(ctx context.Context) ([]seat.Allocation, error) {
	if err := ctxErr(ctx, "select seat records"); err != nil {
		return nil, err
	}
	defer repo.read()()

	allocs := make([]seat.Allocation, 0, len(repo.db.data.allocations))
	for _, a := range repo.db.data.allocations {
		allocs = append(allocs, a)
	}
	sort.Slice(allocs, func(i, j int) bool { return allocs[i].Mobile < allocs[j].Mobile })
	return allocs, nil
}

func (repo *allocationRepository) AssignSeat(ctx context.Context, mobile string, as seat.Assignment, now time.Time) (seat.Allocation, error) {
	if err := ctxErr(ctx, "update seat record"); err != nil {
		return seat.Allocation{}, err
	}
	defer repo.write()()

	a, ok := repo.db.data.allocations[mobile]
	if !ok {
		return seat.Allocation{}, seat.ErrAllocationNotFound
	}
	a.Assign(as, now)
	repo.db.data.allocations[mobile] = a
	return a, nil
}

type bookingRepository struct {
	conn
}

var _ seat.BookingRepository = (*bookingRepository)(nil) // interface compliance check

func (repo *bookingRepository) CreateBooking(ctx context.Context, b seat.Booking) (seat.Booking, error) {
	if err := ctxErr(ctx, "insert booking"); err != nil {
		return seat.Booking{}, err
	}
	defer repo.write()()

	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	repo.db.data.bookings[b.ID] = bookingRow{Booking: b, seq: repo.db.nextSeq()}
	return b, nil
}

func (repo *bookingRepository) QueryBookings(ctx context.Context, mobile string) ([]seat.Booking, error) {
	if err := ctxErr(ctx, "select bookings"); err != nil {
		return nil, err
	}
	defer repo.read()()

	rows := make([]bookingRow, 0)
	for _, row := range repo.db.data.bookings {
		if mobile == "" || row.Mobile == mobile {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].seq < rows[j].seq })

	bkgs := make([]seat.Booking, 0, len(rows))
	for _, row := range rows {
		bkgs = append(bkgs, row.Booking)
	}
	return bkgs, nil
}

func (repo *bookingRepository) DeleteBookings(ctx context.Context, mobile string) (int, error) {
	if err := ctxErr(ctx, "delete bookings"); err != nil {
		return 0, err
	}
	defer repo.write()()

	var n int
	for id, row := range repo.db.data.bookings {
		if row.Mobile == mobile {
			delete(repo.db.data.bookings, id)
			n++
		}
	}
	return n, nil
}
