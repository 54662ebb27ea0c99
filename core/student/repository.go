package student

import (
	"context"
	"errors"

	"github.com/trezcool/libwork/core"
)

var (
	ErrNotFound        = core.NewNotFoundError("student")
	ErrDuplicateMobile = core.NewValidationError(errors.New("Already registered!"), core.FieldError{Field: "mobile_number", Error: "Already registered!"})
)

type (
	// GetFilter selects a single Student. The first non-empty key wins: ID, Mobile, then
	// Username + Password (active students only).
	GetFilter struct {
		ID       string
		Mobile   string
		Username string
		Password string
	}

	Repository interface {
		// CreateStudent inserts s. A duplicate mobile number is reported as ErrDuplicateMobile.
		CreateStudent(ctx context.Context, s Student) (Student, error)
		// QueryStudents returns every student, removed ones included, ordered by creation.
		QueryStudents(ctx context.Context) ([]Student, error)
		GetStudent(ctx context.Context, filter GetFilter) (Student, error)
		// GetStudentForUpdate is GetStudent by ID, locking the record until the unit of work ends.
		GetStudentForUpdate(ctx context.Context, id string) (Student, error)
		// UpdateStudent writes the mutable columns only.
		UpdateStudent(ctx context.Context, s Student) (Student, error)
	}
)

func (f GetFilter) IsEmpty() bool {
	return f.ID == "" && f.Mobile == "" && (f.Username == "" || f.Password == "")
}
