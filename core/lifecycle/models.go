package lifecycle

import (
	"github.com/trezcool/libwork/core/seat"
	"github.com/trezcool/libwork/core/student"
)

// Action is a lifecycle transition requested by the operator.
type Action string

const (
	ActionEdit       Action = "edit"
	ActionRemove     Action = "remove"
	ActionReactivate Action = "reactivate"
)

func (a Action) IsValid() bool {
	switch a {
	case ActionEdit, ActionRemove, ActionReactivate:
		return true
	}
	return false
}

// op names the action in failure messages, e.g. "Failed to remove student".
func (a Action) op() string {
	switch a {
	case ActionRemove:
		return "remove student"
	default:
		return "update student"
	}
}

// TransitionRequest carries the operator input of one transition.
type TransitionRequest struct {
	Action      Action `json:"action"`
	Confirmed   bool   `json:"confirmed"`
	FullName    string `json:"full_name"`
	FatherName  string `json:"father_name"`
	Address     string `json:"address"`
	AdminSecret string `json:"admin_secret"`
}

func (req TransitionRequest) details() student.Details {
	return student.Details{FullName: req.FullName, FatherName: req.FatherName, Address: req.Address}
}

// Outcome is the result of an enrollment or a transition.
type Outcome struct {
	Student student.Student `json:"student"`
	Message string          `json:"message"`
	Changed bool            `json:"changed"`
}

// Overview is what a student sees on their dashboard.
type Overview struct {
	Name       string          `json:"name"`
	Mobile     string          `json:"mobile_number"`
	SeatBadge  string          `json:"seat_badge"`
	Allocation seat.Allocation `json:"allocation"`
}

// SeatRow is one line of the seat sheet: a student joined with its allocation.
type SeatRow struct {
	StudentID  string          `json:"student_id"`
	Name       string          `json:"name"`
	FatherName string          `json:"father_name"`
	Address    string          `json:"address"`
	Mobile     string          `json:"mobile_number"`
	IsRemoved  bool            `json:"is_removed"`
	Allocation seat.Allocation `json:"allocation"`
}
