package store

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// settingsRepo implements SettingsRepo.
type settingsRepo struct {
	s *Store
}

func (r *settingsRepo) Settings(ctx context.Context) (map[string]string, error) {
	b := r.s.builder()
	query, args := b.Select("key", "value").From(b.Table(settingsTable.Name)).Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		out[k] = v
	}
	return out, rows.Err()
}

func (r *settingsRepo) PutSetting(ctx context.Context, key, value string) error {
	ins := r.s.builder().Insert(settingsTable.Name).
		Columns("key", "value", "updated_at").
		Values(key, value, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("key"), entsql.ResolveWithNewValues())
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

func (r *settingsRepo) DeleteSetting(ctx context.Context, key string) error {
	del := r.s.builder().Delete(settingsTable.Name).Where(entsql.EQ("key", key))
	if err := r.s.exec(ctx, del); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}
