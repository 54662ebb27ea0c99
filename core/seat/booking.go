package seat

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/libwork/core"
)

// Booking reserves a seat for one shift on behalf of a mobile number.
type Booking struct {
	ID             string    `json:"id"`
	Seat           int       `json:"seat"`
	Shift          int       `json:"shift"`
	Mobile         string    `json:"mobile_number"`
	StudentName    string    `json:"student_name"`
	StudentAddress string    `json:"student_address"`
	CreatedAt      time.Time `json:"created_at"` // UTC
	UpdatedAt      time.Time `json:"updated_at"` // UTC
}

// NewBooking contains information needed to book a seat.
type NewBooking struct {
	Seat   int    `json:"seat" validate:"min=1"`
	Shift  int    `json:"shift" validate:"min=1"`
	Mobile string `json:"mobile_number" validate:"required,mobile"`
}

func (nb *NewBooking) Validate(validate *validator.Validate) error {
	nb.Mobile = core.CleanString(nb.Mobile)
	return validate.Struct(nb)
}

type BookingRepository interface {
	CreateBooking(ctx context.Context, b Booking) (Booking, error)
	// QueryBookings lists the bookings of mobile, or all bookings when mobile is empty.
	QueryBookings(ctx context.Context, mobile string) ([]Booking, error)
	// DeleteBookings removes every booking of mobile and returns how many were deleted.
	DeleteBookings(ctx context.Context, mobile string) (int, error)
}
