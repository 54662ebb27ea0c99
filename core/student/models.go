package student

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/libwork/core"
)

const (
	// placeholders shown for a removed student
	RemovedName = "--- REMOVED ---"
	RemovedText = "---"
)

type Student struct {
	ID            string    `json:"id"`
	FullName      string    `json:"full_name"`
	FatherName    string    `json:"father_name"`
	Address       string    `json:"address"`
	Mobile        string    `json:"mobile_number"`
	AdmissionDate string    `json:"admission_date"` // YYYY-MM-DD
	Username      string    `json:"user_name"`
	Password      string    `json:"password"`
	IsRemoved     bool      `json:"is_removed"`
	CreatedAt     time.Time `json:"created_at"` // UTC
	UpdatedAt     time.Time `json:"updated_at"` // UTC
}

func (s Student) IsActive() bool {
	return !s.IsRemoved
}

// DisplayName returns the name shown in listings.
func (s Student) DisplayName() string {
	if s.IsRemoved {
		return RemovedName
	}
	return s.FullName
}

func (s Student) DisplayFatherName() string {
	if s.IsRemoved {
		return RemovedText
	}
	return s.FatherName
}

func (s Student) DisplayAddress() string {
	if s.IsRemoved {
		return RemovedText
	}
	return s.Address
}

// clear unsets every field a removed record must not hold.
func (s *Student) clear() {
	s.FullName = ""
	s.FatherName = ""
	s.Address = ""
	s.Username = ""
	s.Password = ""
	s.IsRemoved = true
}

// Remove soft-deletes the record in place.
func (s *Student) Remove(now time.Time) {
	s.clear()
	s.UpdatedAt = now
}

// Edit applies new details and recomputes the password. Username is untouched.
func (s *Student) Edit(d Details, now time.Time) {
	s.FullName = d.FullName
	s.FatherName = d.FatherName
	s.Address = d.Address
	s.Password = DerivePassword(d.FullName, s.Mobile)
	s.UpdatedAt = now
}

// Reactivate restores a removed record with new details and fresh credentials.
func (s *Student) Reactivate(d Details, now time.Time) {
	s.Edit(d, now)
	s.Username = LoginName(s.Mobile)
	s.IsRemoved = false
}

// Details holds the operator-editable fields of a Student.
type Details struct {
	FullName   string `json:"full_name" validate:"required,notblank"`
	FatherName string `json:"father_name" validate:"required,notblank"`
	Address    string `json:"address" validate:"required,notblank"`
}

func (d *Details) Clean() {
	d.FullName = core.CleanString(d.FullName)
	d.FatherName = core.CleanString(d.FatherName)
	d.Address = core.CleanString(d.Address)
}

func (d *Details) Validate(validate *validator.Validate) error {
	d.Clean()
	return validate.Struct(d)
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	Details
	Mobile        string `json:"mobile_number" validate:"required,mobile"`
	AdmissionDate string `json:"admission_date" validate:"required,datetime=2006-01-02"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Details.Clean()
	ns.AdmissionDate = core.CleanString(ns.AdmissionDate)
	return validate.Struct(ns)
}

// Build returns the Student record described by ns, with derived credentials.
func (ns NewStudent) Build(id string, now time.Time) Student {
	return Student{
		ID:            id,
		FullName:      ns.FullName,
		FatherName:    ns.FatherName,
		Address:       ns.Address,
		Mobile:        ns.Mobile,
		AdmissionDate: ns.AdmissionDate,
		Username:      LoginName(ns.Mobile),
		Password:      DerivePassword(ns.FullName, ns.Mobile),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
