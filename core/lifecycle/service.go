package lifecycle

import (
	"context"
	"fmt"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/auth"
	"github.com/trezcool/libwork/core/seat"
	"github.com/trezcool/libwork/core/student"
)

var (
	ErrOwnerOnly      = core.NewAuthorizationError("owner session required")
	ErrStudentOnly    = core.NewAuthorizationError("student session required")
	ErrNotConfirmed   = core.NewValidationError(errors.New("confirmation required"))
	ErrUnknownAction  = core.NewValidationError(errors.New("unknown action"), core.FieldError{Field: "action", Error: "unknown action"})
	ErrStudentRemoved = core.NewValidationError(errors.New("student is removed"))
	ErrStudentActive  = core.NewValidationError(errors.New("student is not removed"))

	nowFunc = time.Now
)

type Service struct {
	store      Store
	secret     AdminSecret
	validate   *validator.Validate
	translator ut.Translator
	log        core.Logger
}

func NewService(store Store, secret AdminSecret, validate *validator.Validate, translator ut.Translator, logger core.Logger) *Service {
	return &Service{
		store:      store,
		secret:     secret,
		validate:   validate,
		translator: translator,
		log:        logger,
	}
}

func requireOwner(sess auth.Session) error {
	if !sess.IsOwner() {
		return ErrOwnerOnly
	}
	return nil
}

// failed tags store failures with the operation the operator attempted.
func failed(op string, err error) error {
	var tErr *core.TransportError
	if errors.As(err, &tErr) {
		return core.NewTransportError(op, err)
	}
	return err
}

func (svc *Service) invalid(err error) error {
	return core.TranslateValidationErrors(err, svc.translator)
}

// Enroll creates a new active student along with its default seat allocation.
// A mobile number already held by any record, removed ones included, is rejected.
func (svc *Service) Enroll(ctx context.Context, sess auth.Session, ns student.NewStudent) (Outcome, error) {
	if err := requireOwner(sess); err != nil {
		return Outcome{}, err
	}
	if err := ns.Validate(svc.validate); err != nil {
		return Outcome{}, svc.invalid(err)
	}

	now := nowFunc().UTC()
	stdt := ns.Build(uuid.New().String(), now)
	err := svc.store.Atomic(ctx, func(repos Repositories) error {
		_, err := repos.Students.GetStudent(ctx, student.GetFilter{Mobile: stdt.Mobile})
		switch {
		case err == nil:
			return student.ErrDuplicateMobile
		case !errors.Is(err, student.ErrNotFound):
			return errors.Wrap(err, "checking mobile uniqueness")
		}

		if stdt, err = repos.Students.CreateStudent(ctx, stdt); err != nil {
			return errors.Wrap(err, "creating student")
		}
		if _, err = repos.Allocations.CreateAllocation(ctx, seat.DefaultAllocation(stdt.Mobile, now)); err != nil {
			return errors.Wrap(err, "creating seat allocation")
		}
		return nil
	})
	if err != nil {
		return Outcome{}, failed("add student", err)
	}

	svc.log.Info("student enrolled", map[string]interface{}{"student_id": stdt.ID, "mobile": stdt.Mobile}, sess)
	return Outcome{
		Student: stdt,
		Message: "Student added! Password: " + stdt.Password,
		Changed: true,
	}, nil
}

// List returns every student, removed ones included, in creation order.
func (svc *Service) List(ctx context.Context, sess auth.Session) ([]student.Student, error) {
	if err := requireOwner(sess); err != nil {
		return nil, err
	}
	students, err := svc.store.Repos().Students.QueryStudents(ctx)
	if err != nil {
		return nil, failed("fetch students data", err)
	}
	return students, nil
}

func (svc *Service) checkRequest(req *TransitionRequest) error {
	if !req.Action.IsValid() {
		return ErrUnknownAction
	}
	if req.Action != ActionEdit && !req.Confirmed {
		return ErrNotConfirmed
	}
	if req.Action == ActionRemove {
		return nil
	}
	d := req.details()
	if err := d.Validate(svc.validate); err != nil {
		return svc.invalid(err)
	}
	req.FullName, req.FatherName, req.Address = d.FullName, d.FatherName, d.Address
	return nil
}

// Apply runs one lifecycle transition on the student identified by id.
// Input is validated first, then the admin secret is checked, then the transition runs
// as a single unit of work against the locked record.
func (svc *Service) Apply(ctx context.Context, sess auth.Session, id string, req TransitionRequest) (Outcome, error) {
	if err := requireOwner(sess); err != nil {
		return Outcome{}, err
	}
	if err := svc.checkRequest(&req); err != nil {
		return Outcome{}, err
	}
	if err := svc.secret.Check(req.AdminSecret); err != nil {
		return Outcome{}, err
	}

	var out Outcome
	err := svc.store.Atomic(ctx, func(repos Repositories) error {
		stdt, err := repos.Students.GetStudentForUpdate(ctx, id)
		if err != nil {
			return errors.Wrap(err, "locking student")
		}

		now := nowFunc().UTC()
		switch req.Action {
		case ActionEdit:
			out, err = svc.edit(ctx, repos, stdt, req.details(), now)
		case ActionRemove:
			out, err = svc.remove(ctx, repos, stdt, now)
		case ActionReactivate:
			out, err = svc.reactivate(ctx, repos, stdt, req.details(), now)
		}
		return err
	})
	if err != nil {
		return Outcome{}, failed(req.Action.op(), err)
	}

	if out.Changed {
		svc.log.Info(fmt.Sprintf("student %s", req.Action), map[string]interface{}{"student_id": id}, sess)
	}
	return out, nil
}

func (svc *Service) edit(ctx context.Context, repos Repositories, stdt student.Student, d student.Details, now time.Time) (Outcome, error) {
	if stdt.IsRemoved {
		return Outcome{}, ErrStudentRemoved
	}
	stdt.Edit(d, now)
	stdt, err := repos.Students.UpdateStudent(ctx, stdt)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "updating student")
	}
	return Outcome{Student: stdt, Message: "Student updated! New password: " + stdt.Password, Changed: true}, nil
}

func (svc *Service) remove(ctx context.Context, repos Repositories, stdt student.Student, now time.Time) (Outcome, error) {
	if stdt.IsRemoved {
		return Outcome{Student: stdt, Message: "Student already removed"}, nil
	}
	mobile := stdt.Mobile

	stdt.Remove(now)
	stdt, err := repos.Students.UpdateStudent(ctx, stdt)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "updating student")
	}

	if _, err = repos.Bookings.DeleteBookings(ctx, mobile); err != nil {
		return Outcome{}, errors.Wrap(err, "deleting bookings")
	}

	if _, err = repos.Allocations.ResetAllocation(ctx, mobile, now); err != nil {
		if !errors.Is(err, seat.ErrAllocationNotFound) {
			return Outcome{}, errors.Wrap(err, "resetting seat allocation")
		}
		svc.log.Warn("seat allocation missing, recreating it", map[string]interface{}{"mobile": mobile})
		if _, err = repos.Allocations.CreateAllocation(ctx, seat.DefaultAllocation(mobile, now)); err != nil {
			return Outcome{}, errors.Wrap(err, "creating seat allocation")
		}
	}
	return Outcome{Student: stdt, Message: "Student removed (index kept)", Changed: true}, nil
}

func (svc *Service) reactivate(ctx context.Context, repos Repositories, stdt student.Student, d student.Details, now time.Time) (Outcome, error) {
	if !stdt.IsRemoved {
		return Outcome{}, ErrStudentActive
	}
	stdt.Reactivate(d, now)
	stdt, err := repos.Students.UpdateStudent(ctx, stdt)
	if err != nil {
		return Outcome{}, errors.Wrap(err, "updating student")
	}
	return Outcome{Student: stdt, Message: "Student re-added! New password: " + stdt.Password, Changed: true}, nil
}

// Overview returns the dashboard of the logged in student.
func (svc *Service) Overview(ctx context.Context, sess auth.Session) (Overview, error) {
	if !sess.IsStudent() {
		return Overview{}, ErrStudentOnly
	}
	repos := svc.store.Repos()

	stdt, err := repos.Students.GetStudent(ctx, student.GetFilter{Mobile: sess.Mobile})
	if err != nil {
		return Overview{}, failed("load dashboard", err)
	}
	if stdt.IsRemoved {
		return Overview{}, auth.ErrInvalidCredentials
	}

	alloc, err := repos.Allocations.GetAllocation(ctx, stdt.Mobile)
	if err != nil {
		if !errors.Is(err, seat.ErrAllocationNotFound) {
			return Overview{}, failed("load dashboard", err)
		}
		alloc = seat.DefaultAllocation(stdt.Mobile, stdt.CreatedAt)
	}

	name := stdt.FullName
	if name == "" {
		name = "Student"
	}
	return Overview{Name: name, Mobile: stdt.Mobile, SeatBadge: alloc.Badge(), Allocation: alloc}, nil
}

// SeatSheet joins every student, in list order, with its seat allocation.
func (svc *Service) SeatSheet(ctx context.Context, sess auth.Session) ([]SeatRow, error) {
	if err := requireOwner(sess); err != nil {
		return nil, err
	}
	repos := svc.store.Repos()

	students, err := repos.Students.QueryStudents(ctx)
	if err != nil {
		return nil, failed("fetch students data", err)
	}
	allocs, err := repos.Allocations.QueryAllocations(ctx)
	if err != nil {
		return nil, failed("fetch seat records", err)
	}
	byMobile := make(map[string]seat.Allocation, len(allocs))
	for _, a := range allocs {
		byMobile[a.Mobile] = a
	}

	rows := make([]SeatRow, 0, len(students))
	for _, s := range students {
		alloc, ok := byMobile[s.Mobile]
		if !ok {
			alloc = seat.DefaultAllocation(s.Mobile, s.CreatedAt)
		}
		rows = append(rows, SeatRow{
			StudentID:  s.ID,
			Name:       s.DisplayName(),
			FatherName: s.DisplayFatherName(),
			Address:    s.DisplayAddress(),
			Mobile:     s.Mobile,
			IsRemoved:  s.IsRemoved,
			Allocation: alloc,
		})
	}
	return rows, nil
}

// AssignSeat edits the seat fields of an active student's allocation.
func (svc *Service) AssignSeat(ctx context.Context, sess auth.Session, mobile string, as seat.Assignment) (seat.Allocation, error) {
	if err := requireOwner(sess); err != nil {
		return seat.Allocation{}, err
	}
	if err := as.Validate(svc.validate); err != nil {
		return seat.Allocation{}, svc.invalid(err)
	}

	var alloc seat.Allocation
	err := svc.store.Atomic(ctx, func(repos Repositories) error {
		if _, err := activeStudent(ctx, repos, mobile); err != nil {
			return err
		}
		var err error
		alloc, err = repos.Allocations.AssignSeat(ctx, mobile, as, nowFunc().UTC())
		return errors.Wrap(err, "assigning seat")
	})
	if err != nil {
		return seat.Allocation{}, failed("update seat", err)
	}
	return alloc, nil
}

// Book reserves a seat for an active student.
func (svc *Service) Book(ctx context.Context, sess auth.Session, nb seat.NewBooking) (seat.Booking, error) {
	if err := requireOwner(sess); err != nil {
		return seat.Booking{}, err
	}
	if err := nb.Validate(svc.validate); err != nil {
		return seat.Booking{}, svc.invalid(err)
	}

	var bkg seat.Booking
	err := svc.store.Atomic(ctx, func(repos Repositories) error {
		stdt, err := activeStudent(ctx, repos, nb.Mobile)
		if err != nil {
			return err
		}
		now := nowFunc().UTC()
		bkg, err = repos.Bookings.CreateBooking(ctx, seat.Booking{
			ID:             uuid.New().String(),
			Seat:           nb.Seat,
			Shift:          nb.Shift,
			Mobile:         stdt.Mobile,
			StudentName:    stdt.FullName,
			StudentAddress: stdt.Address,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		return errors.Wrap(err, "creating booking")
	})
	if err != nil {
		return seat.Booking{}, failed("book seat", err)
	}
	return bkg, nil
}

// Bookings lists the bookings of mobile, or all bookings when mobile is empty.
func (svc *Service) Bookings(ctx context.Context, sess auth.Session, mobile string) ([]seat.Booking, error) {
	if err := requireOwner(sess); err != nil {
		return nil, err
	}
	bkgs, err := svc.store.Repos().Bookings.QueryBookings(ctx, core.CleanString(mobile))
	if err != nil {
		return nil, failed("fetch bookings", err)
	}
	return bkgs, nil
}

func activeStudent(ctx context.Context, repos Repositories, mobile string) (student.Student, error) {
	stdt, err := repos.Students.GetStudent(ctx, student.GetFilter{Mobile: mobile})
	if err != nil {
		return student.Student{}, err
	}
	if stdt.IsRemoved {
		return student.Student{}, ErrStudentRemoved
	}
	return stdt, nil
}
