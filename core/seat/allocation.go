package seat

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/libwork/core"
)

const (
	DefaultBatchLabel = "N/A"

	unallottedBadge = "Seat: Not Allotted | Shift: N/A"
)

var ErrAllocationNotFound = core.NewNotFoundError("seat allocation")

// Allocation is the seat/shift record of a mobile number (table wow_seat_records).
type Allocation struct {
	ID                string    `json:"id"`
	Mobile            string    `json:"mobile_number"`
	SeatNo            string    `json:"seat_no"` // empty when unallocated
	BatchLabel        string    `json:"batch_label"`
	Shifts            int       `json:"shifts"`
	Payment           float64   `json:"payment"`
	CustomRate        float64   `json:"custom_rate"`
	FixedTotalPayment float64   `json:"fixed_total_payment"`
	CreatedAt         time.Time `json:"created_at"` // UTC
	UpdatedAt         time.Time `json:"updated_at"` // UTC
}

// DefaultAllocation returns the unallocated record created alongside every student.
func DefaultAllocation(mobile string, now time.Time) Allocation {
	return Allocation{
		Mobile:     mobile,
		BatchLabel: DefaultBatchLabel,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func (a Allocation) IsAllotted() bool {
	return a.SeatNo != "" && a.Shifts > 0
}

// Badge renders the seat summary shown on the student dashboard.
func (a Allocation) Badge() string {
	if !a.IsAllotted() {
		return unallottedBadge
	}
	return fmt.Sprintf("Seat No: %s | Shift: %s", a.SeatNo, a.BatchLabel)
}

// Reset puts the seat fields back to their defaults. Rate fields are kept.
func (a *Allocation) Reset(now time.Time) {
	a.SeatNo = ""
	a.BatchLabel = DefaultBatchLabel
	a.Shifts = 0
	a.Payment = 0
	a.UpdatedAt = now
}

func (a *Allocation) Assign(as Assignment, now time.Time) {
	a.SeatNo = as.SeatNo
	a.BatchLabel = as.BatchLabel
	a.Shifts = as.Shifts
	a.Payment = as.Payment
	a.UpdatedAt = now
}

// Assignment holds the owner-editable seat fields of an Allocation.
type Assignment struct {
	SeatNo     string  `json:"seat_no"`
	BatchLabel string  `json:"batch_label"`
	Shifts     int     `json:"shifts" validate:"min=0"`
	Payment    float64 `json:"payment" validate:"min=0"`
}

func (as *Assignment) Validate(validate *validator.Validate) error {
	as.SeatNo = core.CleanString(as.SeatNo)
	as.BatchLabel = core.CleanString(as.BatchLabel)
	if as.BatchLabel == "" {
		as.BatchLabel = DefaultBatchLabel
	}
	return validate.Struct(as)
}

type AllocationRepository interface {
	GetAllocation(ctx context.Context, mobile string) (Allocation, error)
	CreateAllocation(ctx context.Context, a Allocation) (Allocation, error)
	// ResetAllocation returns ErrAllocationNotFound when mobile has no record.
	ResetAllocation(ctx context.Context, mobile string, now time.Time) (Allocation, error)
	QueryAllocations(ctx context.Context) ([]Allocation, error)
	AssignSeat(ctx context.Context, mobile string, as Assignment, now time.Time) (Allocation, error)
}
