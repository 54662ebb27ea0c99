package auth

import (
	"context"
	"time"

	"github.com/trezcool/libwork/core"
)

const (
	SettingOwnerMobile   = "owner_mobile"
	SettingOwnerPassword = "owner_password"
)

var ErrSettingNotFound = core.NewNotFoundError("setting")

type Setting struct {
	Key       string    `json:"key"`
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type SettingRepository interface {
	GetSetting(ctx context.Context, key string) (Setting, error)
	// SetSetting inserts or overwrites the value of key.
	SetSetting(ctx context.Context, s Setting) (Setting, error)
}
