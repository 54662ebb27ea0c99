package lifecycle_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/auth"
	"github.com/trezcool/libwork/core/lifecycle"
	"github.com/trezcool/libwork/core/seat"
	"github.com/trezcool/libwork/core/student"
	inmemdb "github.com/trezcool/libwork/storage/database/inmem"
	testutil "github.com/trezcool/libwork/tests"
)

var (
	owner   = auth.OwnerSession("6201530654")
	errConn = core.NewTransportError("delete bookings", errors.New("connection reset"))
)

// failingStore makes the chosen repositories fail inside units of work.
type failingStore struct {
	lifecycle.Store
	failBookings bool
	failReset    bool
	failCreate   bool
}

type failingBookings struct {
	seat.BookingRepository
}

func (failingBookings) DeleteBookings(context.Context, string) (int, error) {
	return 0, errConn
}

type failingAllocations struct {
	seat.AllocationRepository
	reset, create bool
}

func (repo failingAllocations) ResetAllocation(ctx context.Context, mobile string, now time.Time) (seat.Allocation, error) {
	if !repo.reset {
		return repo.AllocationRepository.ResetAllocation(ctx, mobile, now)
	}
	return seat.Allocation{}, core.NewTransportError("update seat record", errors.New("connection reset"))
}

func (repo failingAllocations) CreateAllocation(ctx context.Context, a seat.Allocation) (seat.Allocation, error) {
	if !repo.create {
		return repo.AllocationRepository.CreateAllocation(ctx, a)
	}
	return seat.Allocation{}, core.NewTransportError("insert seat record", errors.New("connection reset"))
}

func (s failingStore) Atomic(ctx context.Context, fn func(repos lifecycle.Repositories) error) error {
	return s.Store.Atomic(ctx, func(repos lifecycle.Repositories) error {
		if s.failBookings {
			repos.Bookings = failingBookings{repos.Bookings}
		}
		if s.failReset || s.failCreate {
			repos.Allocations = failingAllocations{repos.Allocations, s.failReset, s.failCreate}
		}
		return fn(repos)
	})
}

func setup(t *testing.T) (*lifecycle.Service, *inmemdb.DB) {
	db := inmemdb.NewDB()
	return testutil.NewService(t, db), db
}

func newStudent(name, mobile string) student.NewStudent {
	return student.NewStudent{
		Details:       student.Details{FullName: name, FatherName: "Suresh", Address: "Patna"},
		Mobile:        mobile,
		AdmissionDate: "2024-01-15",
	}
}

func remove() lifecycle.TransitionRequest {
	return lifecycle.TransitionRequest{Action: lifecycle.ActionRemove, Confirmed: true, AdminSecret: testutil.Secret}
}

func reactivate(name string) lifecycle.TransitionRequest {
	return lifecycle.TransitionRequest{
		Action:      lifecycle.ActionReactivate,
		Confirmed:   true,
		FullName:    name,
		FatherName:  "Suresh",
		Address:     "Patna",
		AdminSecret: testutil.Secret,
	}
}

func TestService_Enroll(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)

	out, err := svc.Enroll(ctx, owner, newStudent("Ravi Kumar", "9998887770"))
	require.NoError(t, err)
	assert.Equal(t, "Student added! Password: RAVI7770", out.Message)
	assert.Equal(t, "9998887770", out.Student.Username)
	assert.NotEmpty(t, out.Student.ID)

	alloc, err := db.Repos().Allocations.GetAllocation(ctx, "9998887770")
	require.NoError(t, err)
	assert.Equal(t, "", alloc.SeatNo)
	assert.Equal(t, seat.DefaultBatchLabel, alloc.BatchLabel)
	assert.Equal(t, 0, alloc.Shifts)

	tests := []struct {
		name    string
		sess    auth.Session
		ns      student.NewStudent
		wantMsg string
	}{
		{name: "duplicate mobile", sess: owner, ns: newStudent("Other", "9998887770"), wantMsg: "Already registered!"},
		{name: "short mobile", sess: owner, ns: newStudent("Other", "99988877"), wantMsg: "Invalid Mobile Number"},
		{name: "padded mobile", sess: owner, ns: newStudent("Other", " 9998887771 "), wantMsg: "Invalid Mobile Number"},
		{name: "non numeric mobile", sess: owner, ns: newStudent("Other", "99988877ab"), wantMsg: "Invalid Mobile Number"},
		{name: "blank name", sess: owner, ns: newStudent("  ", "9998887771"), wantMsg: "this field is required"},
		{name: "student session", sess: auth.StudentSession("9998887770", "Ravi"), ns: newStudent("Other", "9998887771"), wantMsg: "owner session required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Enroll(ctx, tt.sess, tt.ns)
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, core.OperatorMessage(err))
		})
	}

	students, err := svc.List(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestService_EnrollRollsBackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		store   func(db *inmemdb.DB) lifecycle.Store
		ctx     func() context.Context
		wantMsg string
	}{
		{
			name:    "allocation insert fails",
			store:   func(db *inmemdb.DB) lifecycle.Store { return failingStore{Store: db, failCreate: true} },
			ctx:     context.Background,
			wantMsg: "Failed to add student",
		},
		{
			name:  "context cancelled",
			store: func(db *inmemdb.DB) lifecycle.Store { return db },
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			},
			wantMsg: "Failed to add student",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := inmemdb.NewDB()
			svc := testutil.NewService(t, tt.store(db))

			_, err := svc.Enroll(tt.ctx(), owner, newStudent("Ravi Kumar", "9998887770"))
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, core.OperatorMessage(err))

			ctx := context.Background()
			_, err = db.Repos().Students.GetStudent(ctx, student.GetFilter{Mobile: "9998887770"})
			assert.Equal(t, student.ErrNotFound, err)
			_, err = db.Repos().Allocations.GetAllocation(ctx, "9998887770")
			assert.Equal(t, seat.ErrAllocationNotFound, err)
		})
	}
}

func TestService_EnrollRejectsRemovedMobile(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	ravi := testutil.CreateStudent(t, db, "Ravi Kumar", "9998887770")

	_, err := svc.Apply(ctx, owner, ravi.ID, remove())
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, owner, newStudent("Someone Else", "9998887770"))
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "Already registered!", vErr.Error())
}

func TestService_RemoveReactivateScenario(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	repos := db.Repos()

	out, err := svc.Enroll(ctx, owner, newStudent("Ravi Kumar", "9998887770"))
	require.NoError(t, err)
	ravi := out.Student
	assert.Equal(t, "RAVI7770", ravi.Password)

	_, err = svc.AssignSeat(ctx, owner, "9998887770", seat.Assignment{SeatNo: "12", BatchLabel: "Morning", Shifts: 2, Payment: 900})
	require.NoError(t, err)
	_, err = svc.Book(ctx, owner, seat.NewBooking{Seat: 12, Shift: 1, Mobile: "9998887770"})
	require.NoError(t, err)
	_, err = svc.Book(ctx, owner, seat.NewBooking{Seat: 12, Shift: 2, Mobile: "9998887770"})
	require.NoError(t, err)

	out, err = svc.Apply(ctx, owner, ravi.ID, remove())
	require.NoError(t, err)
	assert.True(t, out.Changed)
	assert.Equal(t, "Student removed (index kept)", out.Message)

	removed, err := repos.Students.GetStudent(ctx, student.GetFilter{ID: ravi.ID})
	require.NoError(t, err)
	assert.True(t, removed.IsRemoved)
	assert.Empty(t, removed.FullName)
	assert.Empty(t, removed.FatherName)
	assert.Empty(t, removed.Address)
	assert.Empty(t, removed.Username)
	assert.Empty(t, removed.Password)

	bkgs, err := svc.Bookings(ctx, owner, "9998887770")
	require.NoError(t, err)
	assert.Empty(t, bkgs)

	alloc, err := repos.Allocations.GetAllocation(ctx, "9998887770")
	require.NoError(t, err)
	assert.Equal(t, "", alloc.SeatNo)
	assert.Equal(t, 0, alloc.Shifts)
	assert.Equal(t, float64(0), alloc.Payment)
	assert.Equal(t, seat.DefaultBatchLabel, alloc.BatchLabel)

	out, err = svc.Apply(ctx, owner, ravi.ID, reactivate("Ravi K"))
	require.NoError(t, err)
	assert.Equal(t, "Student re-added! New password: RAVI7770", out.Message)
	assert.False(t, out.Student.IsRemoved)
	assert.Equal(t, "9998887770", out.Student.Username)
	assert.Equal(t, "Ravi K", out.Student.FullName)

	// remove then reactivate again: identity never moves
	_, err = svc.Apply(ctx, owner, ravi.ID, remove())
	require.NoError(t, err)
	out, err = svc.Apply(ctx, owner, ravi.ID, reactivate("Ravi Kumar"))
	require.NoError(t, err)
	assert.Equal(t, ravi.ID, out.Student.ID)
	assert.Equal(t, ravi.Mobile, out.Student.Mobile)
	assert.Equal(t, ravi.CreatedAt, out.Student.CreatedAt)
	assert.Equal(t, ravi.AdmissionDate, out.Student.AdmissionDate)
}

func TestService_Edit(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	ravi := testutil.CreateStudent(t, db, "Ravi Kumar", "9998887770")

	out, err := svc.Apply(ctx, owner, ravi.ID, lifecycle.TransitionRequest{
		Action:      lifecycle.ActionEdit,
		FullName:    " jane doe ",
		FatherName:  "John",
		Address:     "Gaya",
		AdminSecret: testutil.Secret,
	})
	require.NoError(t, err)
	assert.Equal(t, "Student updated! New password: JANE7770", out.Message)
	assert.Equal(t, "jane doe", out.Student.FullName)
	assert.Equal(t, ravi.Mobile, out.Student.Mobile)
	assert.Equal(t, ravi.Username, out.Student.Username)
	assert.False(t, out.Student.IsRemoved)
}

func TestService_ApplyGuards(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	active := testutil.CreateStudent(t, db, "Ravi Kumar", "9998887770")
	gone := testutil.CreateStudent(t, db, "Anil", "9998887771")
	_, err := svc.Apply(ctx, owner, gone.ID, remove())
	require.NoError(t, err)

	edit := func(name, secret string) lifecycle.TransitionRequest {
		return lifecycle.TransitionRequest{
			Action: lifecycle.ActionEdit, FullName: name, FatherName: "F", Address: "A", AdminSecret: secret,
		}
	}
	unconfirmed := remove()
	unconfirmed.Confirmed = false

	tests := []struct {
		name    string
		sess    auth.Session
		id      string
		req     lifecycle.TransitionRequest
		wantErr error
		wantMsg string
	}{
		{name: "wrong secret", sess: owner, id: active.ID, req: edit("New", "nope"), wantErr: lifecycle.ErrIncorrectSecret},
		{name: "no secret", sess: owner, id: active.ID, req: lifecycle.TransitionRequest{Action: lifecycle.ActionRemove, Confirmed: true}, wantErr: lifecycle.ErrIncorrectSecret},
		{name: "not confirmed", sess: owner, id: active.ID, req: unconfirmed, wantErr: lifecycle.ErrNotConfirmed},
		{name: "unknown action", sess: owner, id: active.ID, req: lifecycle.TransitionRequest{Action: "delete", AdminSecret: testutil.Secret}, wantErr: lifecycle.ErrUnknownAction},
		{name: "empty name", sess: owner, id: active.ID, req: edit("", testutil.Secret), wantMsg: "this field is required"},
		{name: "blank name", sess: owner, id: active.ID, req: edit("   ", testutil.Secret), wantMsg: "this field is required"},
		{name: "edit removed", sess: owner, id: gone.ID, req: edit("New", testutil.Secret), wantErr: lifecycle.ErrStudentRemoved},
		{name: "reactivate active", sess: owner, id: active.ID, req: reactivate("New"), wantErr: lifecycle.ErrStudentActive},
		{name: "unknown student", sess: owner, id: "missing", req: remove(), wantMsg: "student not found"},
		{name: "no session", sess: auth.Session{}, id: active.ID, req: remove(), wantErr: lifecycle.ErrOwnerOnly},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Apply(ctx, tt.sess, tt.id, tt.req)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, core.OperatorMessage(err))
			}
		})
	}

	// nothing changed
	got, err := db.Repos().Students.GetStudent(ctx, student.GetFilter{ID: active.ID})
	require.NoError(t, err)
	assert.Equal(t, active, got)
}

func TestService_RemoveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	ravi := testutil.CreateStudent(t, db, "Ravi Kumar", "9998887770")

	first, err := svc.Apply(ctx, owner, ravi.ID, remove())
	require.NoError(t, err)
	assert.True(t, first.Changed)

	second, err := svc.Apply(ctx, owner, ravi.ID, remove())
	require.NoError(t, err)
	assert.False(t, second.Changed)
	assert.Equal(t, first.Student, second.Student)
}

func TestService_ConcurrentRemovals(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	ravi := testutil.CreateStudent(t, db, "Ravi Kumar", "9998887770")

	outs := make(chan lifecycle.Outcome, 2)
	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := svc.Apply(ctx, owner, ravi.ID, remove())
			if err != nil {
				errs <- err
				return
			}
			outs <- out
		}()
	}
	wg.Wait()
	close(outs)
	close(errs)

	for err := range errs {
		t.Errorf("Apply() unexpected error = %v", err)
	}
	var changed int
	var msgs []string
	for out := range outs {
		if out.Changed {
			changed++
		}
		msgs = append(msgs, out.Message)
	}
	assert.Equal(t, 1, changed)
	assert.ElementsMatch(t, []string{"Student removed (index kept)", "Student already removed"}, msgs)
}

func TestService_RemoveRollsBackOnFailure(t *testing.T) {
	tests := []struct {
		name    string
		store   func(db *inmemdb.DB) lifecycle.Store
		wantMsg string
	}{
		{
			name:    "bookings delete fails",
			store:   func(db *inmemdb.DB) lifecycle.Store { return failingStore{Store: db, failBookings: true} },
			wantMsg: "Failed to remove student",
		},
		{
			name:    "allocation reset fails",
			store:   func(db *inmemdb.DB) lifecycle.Store { return failingStore{Store: db, failReset: true} },
			wantMsg: "Failed to remove student",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			db := inmemdb.NewDB()
			svc := testutil.NewService(t, tt.store(db))

			ravi := testutil.CreateStudent(t, db, "Ravi Kumar", "9998887770")
			_, err := svc.AssignSeat(ctx, owner, ravi.Mobile, seat.Assignment{SeatNo: "3", BatchLabel: "Evening", Shifts: 1})
			require.NoError(t, err)
			_, err = svc.Book(ctx, owner, seat.NewBooking{Seat: 3, Shift: 1, Mobile: ravi.Mobile})
			require.NoError(t, err)

			_, err = svc.Apply(ctx, owner, ravi.ID, remove())
			require.Error(t, err)
			assert.Equal(t, tt.wantMsg, core.OperatorMessage(err))

			repos := db.Repos()
			got, err := repos.Students.GetStudent(ctx, student.GetFilter{ID: ravi.ID})
			require.NoError(t, err)
			assert.False(t, got.IsRemoved)
			assert.Equal(t, "Ravi Kumar", got.FullName)

			bkgs, err := repos.Bookings.QueryBookings(ctx, ravi.Mobile)
			require.NoError(t, err)
			assert.Len(t, bkgs, 1)

			alloc, err := repos.Allocations.GetAllocation(ctx, ravi.Mobile)
			require.NoError(t, err)
			assert.Equal(t, "3", alloc.SeatNo)
		})
	}
}

func TestService_RemoveRecreatesMissingAllocation(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)

	now := time.Now().UTC()
	ns := newStudent("Ravi Kumar", "9998887770")
	ravi, err := db.Repos().Students.CreateStudent(ctx, ns.Build("ravi", now))
	require.NoError(t, err)

	_, err = svc.Apply(ctx, owner, ravi.ID, remove())
	require.NoError(t, err)

	alloc, err := db.Repos().Allocations.GetAllocation(ctx, ravi.Mobile)
	require.NoError(t, err)
	assert.Equal(t, seat.DefaultBatchLabel, alloc.BatchLabel)
}

func TestService_Overview(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	ravi := testutil.CreateStudent(t, db, "Ravi Kumar", "9998887770")
	sess := auth.StudentSession(ravi.Mobile, ravi.FullName)

	ov, err := svc.Overview(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Kumar", ov.Name)
	assert.Equal(t, "Seat: Not Allotted | Shift: N/A", ov.SeatBadge)

	_, err = svc.AssignSeat(ctx, owner, ravi.Mobile, seat.Assignment{SeatNo: "12", BatchLabel: "Morning", Shifts: 1})
	require.NoError(t, err)
	ov, err = svc.Overview(ctx, sess)
	require.NoError(t, err)
	assert.Equal(t, "Seat No: 12 | Shift: Morning", ov.SeatBadge)

	_, err = svc.Overview(ctx, owner)
	assert.Equal(t, lifecycle.ErrStudentOnly, err)

	_, err = svc.Apply(ctx, owner, ravi.ID, remove())
	require.NoError(t, err)
	_, err = svc.Overview(ctx, sess)
	assert.Equal(t, auth.ErrInvalidCredentials, err)
}

func TestService_SeatSheet(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	ravi := testutil.CreateStudent(t, db, "Ravi Kumar", "9998887770", t0)
	testutil.CreateStudent(t, db, "Anil", "9998887771", t0.Add(time.Minute))

	_, err := svc.AssignSeat(ctx, owner, "9998887771", seat.Assignment{SeatNo: "5", BatchLabel: "Night", Shifts: 1})
	require.NoError(t, err)
	_, err = svc.Apply(ctx, owner, ravi.ID, remove())
	require.NoError(t, err)

	rows, err := svc.SeatSheet(ctx, owner)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, student.RemovedName, rows[0].Name)
	assert.Equal(t, student.RemovedText, rows[0].Address)
	assert.True(t, rows[0].IsRemoved)
	assert.Equal(t, "", rows[0].Allocation.SeatNo)

	assert.Equal(t, "Anil", rows[1].Name)
	assert.Equal(t, "5", rows[1].Allocation.SeatNo)
	assert.Equal(t, "Seat No: 5 | Shift: Night", rows[1].Allocation.Badge())
}

func TestService_SeatsRequireActiveStudent(t *testing.T) {
	ctx := context.Background()
	svc, db := setup(t)
	ravi := testutil.CreateStudent(t, db, "Ravi Kumar", "9998887770")
	_, err := svc.Apply(ctx, owner, ravi.ID, remove())
	require.NoError(t, err)

	_, err = svc.AssignSeat(ctx, owner, ravi.Mobile, seat.Assignment{SeatNo: "1", Shifts: 1})
	assert.Equal(t, lifecycle.ErrStudentRemoved, err)

	_, err = svc.Book(ctx, owner, seat.NewBooking{Seat: 1, Shift: 1, Mobile: ravi.Mobile})
	assert.Equal(t, lifecycle.ErrStudentRemoved, err)

	_, err = svc.Book(ctx, owner, seat.NewBooking{Seat: 1, Shift: 1, Mobile: "1112223334"})
	assert.Equal(t, "student not found", core.OperatorMessage(err))

	_, err = svc.AssignSeat(ctx, owner, ravi.Mobile, seat.Assignment{SeatNo: "1", Shifts: -1})
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))
}
