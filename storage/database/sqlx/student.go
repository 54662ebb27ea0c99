package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/libwork/core/student"
)

const (
	studentColumns = `id, full_name, father_name, address, mobile_number, admission_date,
		user_name, password, is_removed, created_at, updated_at`
	studentOrdering = "created_at ASC, seq ASC"

	admissionDateLayout = "2006-01-02"
)

type studentRow struct {
	ID            string      `db:"id"`
	FullName      null.String `db:"full_name"`
	FatherName    null.String `db:"father_name"`
	Address       null.String `db:"address"`
	Mobile        string      `db:"mobile_number"`
	AdmissionDate time.Time   `db:"admission_date"`
	Username      null.String `db:"user_name"`
	Password      null.String `db:"password"`
	IsRemoved     bool        `db:"is_removed"`
	CreatedAt     time.Time   `db:"created_at"`
	UpdatedAt     time.Time   `db:"updated_at"`
}

func nullString(s string) null.String {
	return null.NewString(s, s != "")
}

func toStudentRow(s student.Student) (studentRow, error) {
	admission, err := time.Parse(admissionDateLayout, s.AdmissionDate)
	if err != nil {
		return studentRow{}, err
	}
	return studentRow{
		ID:            s.ID,
		FullName:      nullString(s.FullName),
		FatherName:    nullString(s.FatherName),
		Address:       nullString(s.Address),
		Mobile:        s.Mobile,
		AdmissionDate: admission,
		Username:      nullString(s.Username),
		Password:      nullString(s.Password),
		IsRemoved:     s.IsRemoved,
		CreatedAt:     s.CreatedAt.UTC(),
		UpdatedAt:     s.UpdatedAt.UTC(),
	}, nil
}

func (row studentRow) toStudent() student.Student {
	return student.Student{
		ID:            row.ID,
		FullName:      row.FullName.String,
		FatherName:    row.FatherName.String,
		Address:       row.Address.String,
		Mobile:        row.Mobile,
		AdmissionDate: row.AdmissionDate.Format(admissionDateLayout),
		Username:      row.Username.String,
		Password:      row.Password.String,
		IsRemoved:     row.IsRemoved,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
	}
}

type studentRepository struct {
	exec sqlx.ExtContext
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

// trapNoRowsErr maps psql "no rows" err to student.ErrNotFound
func (repo studentRepository) trapNoRowsErr(err error, op string) error {
	if err == sql.ErrNoRows {
		return student.ErrNotFound
	}
	return transportErr(op, err)
}

func (repo studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	row, err := toStudentRow(s)
	if err != nil {
		return student.Student{}, err
	}

	q := `INSERT INTO students (` + studentColumns + `)
		VALUES (:id, :full_name, :father_name, :address, :mobile_number, :admission_date,
			:user_name, :password, :is_removed, :created_at, :updated_at)`
	if _, err = sqlx.NamedExecContext(ctx, repo.exec, q, row); err != nil {
		if isUniqueViolation(err, "students_mobile_number_key") {
			return student.Student{}, student.ErrDuplicateMobile
		}
		return student.Student{}, transportErr("insert student", err)
	}
	return row.toStudent(), nil
}

func (repo studentRepository) QueryStudents(ctx context.Context) ([]student.Student, error) {
	var rows []studentRow
	q := `SELECT ` + studentColumns + ` FROM students ORDER BY ` + studentOrdering
	if err := sqlx.SelectContext(ctx, repo.exec, &rows, q); err != nil {
		return nil, transportErr("select students", err)
	}
	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.toStudent())
	}
	return students, nil
}

func (repo studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	if filter.IsEmpty() {
		return student.Student{}, student.ErrNotFound
	}

	var (
		where string
		args  []interface{}
	)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return student.Student{}, student.ErrNotFound
		}
		where, args = "id = $1", []interface{}{filter.ID}
	case filter.Mobile != "":
		where, args = "mobile_number = $1", []interface{}{filter.Mobile}
	default:
		where, args = "user_name = $1 AND password = $2 AND is_removed = FALSE", []interface{}{filter.Username, filter.Password}
	}
	return repo.get(ctx, `SELECT `+studentColumns+` FROM students WHERE `+where, args...)
}

func (repo studentRepository) GetStudentForUpdate(ctx context.Context, id string) (student.Student, error) {
	if _, err := uuid.Parse(id); err != nil {
		return student.Student{}, student.ErrNotFound
	}
	return repo.get(ctx, `SELECT `+studentColumns+` FROM students WHERE id = $1 FOR UPDATE`, id)
}

func (repo studentRepository) get(ctx context.Context, q string, args ...interface{}) (student.Student, error) {
	var row studentRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, args...); err != nil {
		return student.Student{}, repo.trapNoRowsErr(err, "select student")
	}
	return row.toStudent(), nil
}

// UpdateStudent never writes id, mobile_number, admission_date or created_at.
func (repo studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	row, err := toStudentRow(s)
	if err != nil {
		return student.Student{}, err
	}

	q := `UPDATE students SET
			full_name = :full_name,
			father_name = :father_name,
			address = :address,
			user_name = :user_name,
			password = :password,
			is_removed = :is_removed,
			updated_at = :updated_at
		WHERE id = :id
		RETURNING ` + studentColumns
	q, args, err := sqlx.Named(q, row)
	if err != nil {
		return student.Student{}, err
	}
	return repo.get(ctx, repo.exec.Rebind(q), args...)
}
