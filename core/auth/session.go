package auth

const (
	RoleOwner   = "owner"
	RoleStudent = "student"
)

// Session identifies who is calling. It is built at login and passed into every
// service call.
type Session struct {
	Role   string `json:"role"`
	Mobile string `json:"mobile"`
	Name   string `json:"name,omitempty"`
}

func OwnerSession(mobile string) Session {
	return Session{Role: RoleOwner, Mobile: mobile, Name: "Owner"}
}

func StudentSession(mobile, name string) Session {
	return Session{Role: RoleStudent, Mobile: mobile, Name: name}
}

func (s Session) IsOwner() bool {
	return s.Role == RoleOwner && s.Mobile != ""
}

func (s Session) IsStudent() bool {
	return s.Role == RoleStudent && s.Mobile != ""
}
