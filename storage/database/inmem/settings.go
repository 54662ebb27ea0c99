package inmemdb

import (
	"context"

	"github.com/trezcool/libwork/core/auth"
)

type settingRepository struct {
	conn
}

var _ auth.SettingRepository = (*settingRepository)(nil) // interface compliance check

func (repo *settingRepository) GetSetting(ctx context.Context, key string) (auth.Setting, error) {
	if err := ctxErr(ctx, "select setting"); err != nil {
		return auth.Setting{}, err
	}
	defer repo.read()()

	if s, ok := repo.db.data.settings[key]; ok {
		return s, nil
	}
	return auth.Setting{}, auth.ErrSettingNotFound
}

func (repo *settingRepository) SetSetting(ctx context.Context, s auth.Setting) (auth.Setting, error) {
	if err := ctxErr(ctx, "save setting"); err != nil {
		return auth.Setting{}, err
	}
	defer repo.write()()

	repo.db.data.settings[s.Key] = s
	return s, nil
}
