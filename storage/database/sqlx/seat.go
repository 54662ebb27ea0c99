package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/seat"
)

const (
	allocationColumns = `id, mobile_number, seat_no, batch_string, shifts, payment, custom_rate,
		fixed_total_payment, created_at, updated_at`
	bookingColumns = `id, seat, shift, mobile_number, student_name, student_address, created_at, updated_at`
)

var errAllocationExists = core.NewValidationError(errors.New("seat allocation already exists"))

type allocationRow struct {
	ID                string    `db:"id"`
	Mobile            string    `db:"mobile_number"`
	SeatNo            string    `db:"seat_no"`
	BatchLabel        string    `db:"batch_string"`
	Shifts            int       `db:"shifts"`
	Payment           float64   `db:"payment"`
	CustomRate        float64   `db:"custom_rate"`
	FixedTotalPayment float64   `db:"fixed_total_payment"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

func (row allocationRow) toAllocation() seat.Allocation {
	return seat.Allocation{
		ID:                row.ID,
		Mobile:            row.Mobile,
		SeatNo:            row.SeatNo,
		BatchLabel:        row.BatchLabel,
		Shifts:            row.Shifts,
		Payment:           row.Payment,
		CustomRate:        row.CustomRate,
		FixedTotalPayment: row.FixedTotalPayment,
		CreatedAt:         row.CreatedAt.UTC(),
		UpdatedAt:         row.UpdatedAt.UTC(),
	}
}

type allocationRepository struct {
	exec sqlx.ExtContext
}

var _ seat.AllocationRepository = (*allocationRepository)(nil) // interface compliance check

func (repo allocationRepository) get(ctx context.Context, q string, args ...interface{}) (seat.Allocation, error) {
	var row allocationRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, args...); err != nil {
		if err == sql.ErrNoRows {
			return seat.Allocation{}, seat.ErrAllocationNotFound
		}
		return seat.Allocation{}, transportErr("select seat record", err)
	}
	return row.toAllocation(), nil
}

func (repo allocationRepository) GetAllocation(ctx context.Context, mobile string) (seat.Allocation, error) {
	return repo.get(ctx, `SELECT `+allocationColumns+` FROM wow_seat_records WHERE mobile_number = $1`, mobile)
}

func (repo allocationRepository) CreateAllocation(ctx context.Context, a seat.Allocation) (seat.Allocation, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	row := allocationRow{
		ID:                a.ID,
		Mobile:            a.Mobile,
		SeatNo:            a.SeatNo,
		BatchLabel:        a.BatchLabel,
		Shifts:            a.Shifts,
		Payment:           a.Payment,
		CustomRate:        a.CustomRate,
		FixedTotalPayment: a.FixedTotalPayment,
		CreatedAt:         a.CreatedAt.UTC(),
		UpdatedAt:         a.UpdatedAt.UTC(),
	}
	q := `INSERT INTO wow_seat_records (` + allocationColumns + `)
		VALUES (:id, :mobile_number, :seat_no, :batch_string, :shifts, :payment, :custom_rate,
			:fixed_total_payment, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		if isUniqueViolation(err, "wow_seat_records_mobile_number_key") {
			return seat.Allocation{}, errAllocationExists
		}
		return seat.Allocation{}, transportErr("insert seat record", err)
	}
	return row.toAllocation(), nil
}

func (repo allocationRepository) ResetAllocation(ctx context.Context, mobile string, now time.Time) (seat.Allocation, error) {
	q := `UPDATE wow_seat_records
		SET seat_no = '', batch_string = $2, shifts = 0, payment = 0, updated_at = $3
		WHERE mobile_number = $1
		RETURNING ` + allocationColumns
	return repo.get(ctx, q, mobile, seat.DefaultBatchLabel, now.UTC())
}

func (repo allocationRepository) QueryAllocations(ctx context.Context) ([]seat.Allocation, error) {
	var rows []allocationRow
	q := `SELECT ` + allocationColumns + ` FROM wow_seat_records ORDER BY mobile_number`
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q); err != nil {
		return nil, transportErr("select seat records", err)
	}
	allocs := make([]seat.Allocation, 0, len(rows))
	for _, row := range rows {
		allocs = append(allocs, row.toAllocation())
	}
	return allocs, nil
}

func (repo allocationRepository) AssignSeat(ctx context.Context, mobile string, as seat.Assignment, now time.Time) (seat.Allocation, error) {
	q := `UPDATE wow_seat_records
		SET seat_no = $2, batch_string = $3, shifts = $4, payment = $5, updated_at = $6
		WHERE mobile_number = $1
		RETURNING ` + allocationColumns
	return repo.get(ctx, q, mobile, as.SeatNo, as.BatchLabel, as.Shifts, as.Payment, now.UTC())
}

type bookingRow struct {
	ID             string      `db:"id"`
	Seat           int         `db:"seat"`
	Shift          int         `db:"shift"`
	Mobile         string      `db:"mobile_number"`
	StudentName    null.String `db:"student_name"`
	StudentAddress null.String `db:"student_address"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

func (row bookingRow) toBooking() seat.Booking {
	return seat.Booking{
		ID:             row.ID,
		Seat:           row.Seat,
		Shift:          row.Shift,
		Mobile:         row.Mobile,
		StudentName:    row.StudentName.String,
		StudentAddress: row.StudentAddress.String,
		CreatedAt:      row.CreatedAt.UTC(),
		UpdatedAt:      row.UpdatedAt.UTC(),
	}
}

type bookingRepository struct {
	exec sqlx.ExtContext
}

var _ seat.BookingRepository = (*bookingRepository)(nil) // interface compliance check

func (repo bookingRepository) CreateBooking(ctx context.Context, b seat.Booking) (seat.Booking, error) {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	row := bookingRow{
		ID:             b.ID,
		Seat:           b.Seat,
		Shift:          b.Shift,
		Mobile:         b.Mobile,
		StudentName:    nullString(b.StudentName),
		StudentAddress: nullString(b.StudentAddress),
		CreatedAt:      b.CreatedAt.UTC(),
		UpdatedAt:      b.UpdatedAt.UTC(),
	}
	q := `INSERT INTO bookings (` + bookingColumns + `)
		VALUES (:id, :seat, :shift, :mobile_number, :student_name, :student_address, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		return seat.Booking{}, transportErr("insert booking", err)
	}
	return row.toBooking(), nil
}

func (repo bookingRepository) QueryBookings(ctx context.Context, mobile string) ([]seat.Booking, error) {
	var (
		rows []bookingRow
		err  error
	)
	q := `SELECT ` + bookingColumns + ` FROM bookings`
	if mobile != "" {
		err = sqlx.SelectContext(ctx, repo.exec, &rows, q+` WHERE mobile_number = $1 ORDER BY seq`, mobile)
	} else {
		err = sqlx.SelectContext(ctx, repo.exec, &rows, q+` ORDER BY seq`)
	}
	if err != nil {
		return nil, transportErr("select bookings", err)
	}
	bkgs := make([]seat.Booking, 0, len(rows))
	for _, row := range rows {
		bkgs = append(bkgs, row.toBooking())
	}
	return bkgs, nil
}

func (repo bookingRepository) DeleteBookings(ctx context.Context, mobile string) (int, error) {
	res, err := repo.exec.ExecContext(ctx, `DELETE FROM bookings WHERE mobile_number = $1`, mobile)
	if err != nil {
		return 0, transportErr("delete bookings", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, transportErr("delete bookings", err)
	}
	return int(n), nil
}
