package inmemdb

import (
	"context"
	"sort"

	"github.com/trezcool/libwork/core/student"
)

type studentRepository struct {
	conn
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func (repo *studentRepository) CreateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if err := ctxErr(ctx, "insert student"); err != nil {
		return student.Student{}, err
	}
	defer repo.write()()

	for _, row := range repo.db.data.students {
		if row.Mobile == s.Mobile {
			return student.Student{}, student.ErrDuplicateMobile
		}
	}
	repo.db.data.students[s.ID] = studentRow{Student: s, seq: repo.db.nextSeq()}
	return s, nil
}

func (repo *studentRepository) QueryStudents(ctx context.Context) ([]student.Student, error) {
	if err := ctxErr(ctx, "select students"); err != nil {
		return nil, err
	}
	defer repo.read()()

	rows := make([]studentRow, 0, len(repo.db.data.students))
	for _, row := range repo.db.data.students {
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].CreatedAt.Equal(rows[j].CreatedAt) {
			return rows[i].seq < rows[j].seq
		}
		return rows[i].CreatedAt.Before(rows[j].CreatedAt)
	})

	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.Student)
	}
	return students, nil
}

func (repo *studentRepository) GetStudent(ctx context.Context, filter student.GetFilter) (student.Student, error) {
	if err := ctxErr(ctx, "select student"); err != nil {
		return student.Student{}, err
	}
	if filter.IsEmpty() {
		return student.Student{}, student.ErrNotFound
	}
	defer repo.read()()

	if filter.ID != "" {
		if row, ok := repo.db.data.students[filter.ID]; ok {
			return row.Student, nil
		}
		return student.Student{}, student.ErrNotFound
	}
	for _, row := range repo.db.data.students {
		switch {
		case filter.Mobile != "":
			if row.Mobile == filter.Mobile {
				return row.Student, nil
			}
		case row.IsActive() && row.Username == filter.Username && row.Password == filter.Password:
			return row.Student, nil
		}
	}
	return student.Student{}, student.ErrNotFound
}

// GetStudentForUpdate relies on the lock held by the unit of work.
func (repo *studentRepository) GetStudentForUpdate(ctx context.Context, id string) (student.Student, error) {
	return repo.GetStudent(ctx, student.GetFilter{ID: id})
}

func (repo *studentRepository) UpdateStudent(ctx context.Context, s student.Student) (student.Student, error) {
	if err := ctxErr(ctx, "update student"); err != nil {
		return student.Student{}, err
	}
	defer repo.write()()

	row, ok := repo.db.data.students[s.ID]
	if !ok {
		return student.Student{}, student.ErrNotFound
	}
	row.FullName = s.FullName
	row.FatherName = s.FatherName
	row.Address = s.Address
	row.Username = s.Username
	row.Password = s.Password
	row.IsRemoved = s.IsRemoved
	row.UpdatedAt = s.UpdatedAt
	repo.db.data.students[s.ID] = row
	return row.Student, nil
}
