package auth

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/libwork/core"
	"github.com/trezcool/libwork/core/student"
)

var (
	ErrInvalidCredentials = core.NewAuthorizationError("LOGIN FAILED! Invalid credentials.")

	nowFunc = time.Now
)

// Credentials is the login form.
type Credentials struct {
	Type     string `json:"type" validate:"required,oneof=owner student"`
	Mobile   string `json:"mobile" validate:"required,notblank"`
	Password string `json:"password" validate:"required"`
}

func (c *Credentials) Validate(validate *validator.Validate) error {
	c.Type = core.CleanString(c.Type, true /* lower */)
	c.Mobile = core.CleanString(c.Mobile)
	return validate.Struct(c)
}

type Service struct {
	settings     SettingRepository
	students     student.Repository
	validate     *validator.Validate
	ownerDefault Credentials
}

func NewService(settings SettingRepository, students student.Repository, validate *validator.Validate, conf *core.Config) *Service {
	return &Service{
		settings: settings,
		students: students,
		validate: validate,
		ownerDefault: Credentials{
			Type:     RoleOwner,
			Mobile:   conf.OwnerMobile,
			Password: conf.OwnerPassword,
		},
	}
}

// Login checks creds and returns the matching Session.
func (svc *Service) Login(ctx context.Context, creds Credentials) (Session, error) {
	if err := creds.Validate(svc.validate); err != nil {
		return Session{}, err
	}
	switch creds.Type {
	case RoleOwner:
		return svc.loginOwner(ctx, creds)
	default:
		return svc.loginStudent(ctx, creds)
	}
}

func (svc *Service) loginOwner(ctx context.Context, creds Credentials) (Session, error) {
	owner, err := svc.OwnerCredentials(ctx)
	if err != nil {
		return Session{}, err
	}
	if creds.Mobile != owner.Mobile || creds.Password != owner.Password {
		return Session{}, ErrInvalidCredentials
	}
	return OwnerSession(owner.Mobile), nil
}

func (svc *Service) loginStudent(ctx context.Context, creds Credentials) (Session, error) {
	stdt, err := svc.students.GetStudent(ctx, student.GetFilter{Username: creds.Mobile, Password: creds.Password})
	if err != nil {
		if errors.Is(err, student.ErrNotFound) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, errors.Wrap(err, "looking up student")
	}
	return StudentSession(stdt.Mobile, stdt.FullName), nil
}

// OwnerCredentials reads the owner login from the settings store, falling back to the
// configured defaults for any missing key.
func (svc *Service) OwnerCredentials(ctx context.Context) (Credentials, error) {
	owner := svc.ownerDefault
	for key, dst := range map[string]*string{
		SettingOwnerMobile:   &owner.Mobile,
		SettingOwnerPassword: &owner.Password,
	} {
		s, err := svc.settings.GetSetting(ctx, key)
		switch {
		case err == nil:
			if s.Value != "" {
				*dst = s.Value
			}
		case errors.Is(err, ErrSettingNotFound):
		default:
			return Credentials{}, errors.Wrap(err, "reading owner settings")
		}
	}
	return owner, nil
}

// SetOwner overwrites the owner login.
func (svc *Service) SetOwner(ctx context.Context, mobile, password string) error {
	creds := Credentials{Type: RoleOwner, Mobile: mobile, Password: password}
	if err := creds.Validate(svc.validate); err != nil {
		return err
	}
	now := nowFunc().UTC()
	if _, err := svc.settings.SetSetting(ctx, Setting{Key: SettingOwnerMobile, Value: creds.Mobile, UpdatedAt: now}); err != nil {
		return errors.Wrap(err, "saving owner mobile")
	}
	if _, err := svc.settings.SetSetting(ctx, Setting{Key: SettingOwnerPassword, Value: creds.Password, UpdatedAt: now}); err != nil {
		return errors.Wrap(err, "saving owner password")
	}
	return nil
}
