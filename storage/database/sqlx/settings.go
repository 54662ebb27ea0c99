package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/libwork/core/auth"
)

type settingRow struct {
	Key       string    `db:"key"`
	Value     string    `db:"value"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row settingRow) toSetting() auth.Setting {
	return auth.Setting{Key: row.Key, Value: row.Value, UpdatedAt: row.UpdatedAt.UTC()}
}

type settingRepository struct {
	exec sqlx.ExtContext
}

var _ auth.SettingRepository = (*settingRepository)(nil) // interface compliance check

func (repo settingRepository) GetSetting(ctx context.Context, key string) (auth.Setting, error) {
	var row settingRow
	if err := sqlx.GetContext(ctx, repo.exec, &row, `SELECT key, value, updated_at FROM settings WHERE key = $1`, key); err != nil {
		if err == sql.ErrNoRows {
			return auth.Setting{}, auth.ErrSettingNotFound
		}
		return auth.Setting{}, transportErr("select setting", err)
	}
	return row.toSetting(), nil
}

func (repo settingRepository) SetSetting(ctx context.Context, s auth.Setting) (auth.Setting, error) {
	var row settingRow
	q := `INSERT INTO settings (key, value, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
		RETURNING key, value, updated_at`
	if err := sqlx.GetContext(ctx, repo.exec, &row, q, s.Key, s.Value, s.UpdatedAt.UTC()); err != nil {
		return auth.Setting{}, transportErr("save setting", err)
	}
	return row.toSetting(), nil
}
