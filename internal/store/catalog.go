package store

import (
	"context"
	"database/sql"
	"fmt"
	"slices"

	entsql "entgo.io/ent/dialect/sql"
)

// catalogRepo implements CatalogRepo.
type catalogRepo struct {
	s *Store
}

var moduleColumns = []string{"id", "title", "strand", "grade_levels", "standard_codes", "lesson_ids", "sort_order"}

func (r *catalogRepo) CanonicalSequence(ctx context.Context, gradeBand string) ([]ModuleRecord, error) {
	b := r.s.builder()
	sel := b.Select("module_id").
		From(b.Table(canonicalSequencesTable.Name)).
		Where(entsql.EQ("grade_band", gradeBand)).
		OrderBy("position")
	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query canonical sequence: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan canonical sequence: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate canonical sequence: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	mods, err := r.queryModules(ctx, b.Select(moduleColumns...).
		From(b.Table(modulesTable.Name)).
		Where(entsql.In("id", stringsToAny(ids)...)))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]ModuleRecord, len(mods))
	for _, m := range mods {
		byID[m.ID] = m
	}
	out := make([]ModuleRecord, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			out = append(out, m)
		}
	}
	return out, nil
}

// ModulesForGrades filters in Go because grade_levels is a JSON array and
// the containment operators differ between SQLite and Postgres.
func (r *catalogRepo) ModulesForGrades(ctx context.Context, grades []int) ([]ModuleRecord, error) {
	if len(grades) == 0 {
		return nil, nil
	}
	all, err := r.ListModules(ctx, 0)
	if err != nil {
		return nil, err
	}
	var out []ModuleRecord
	for _, m := range all {
		for _, g := range m.GradeLevels {
			if slices.Contains(grades, g) {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func (r *catalogRepo) ListModules(ctx context.Context, limit int) ([]ModuleRecord, error) {
	b := r.s.builder()
	sel := b.Select(moduleColumns...).
		From(b.Table(modulesTable.Name)).
		OrderBy("sort_order", "id")
	if limit > 0 {
		sel.Limit(limit)
	}
	return r.queryModules(ctx, sel)
}

func (r *catalogRepo) queryModules(ctx context.Context, sel *entsql.Selector) ([]ModuleRecord, error) {
	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query modules: %w", err)
	}
	defer rows.Close()

	var mods []ModuleRecord
	for rows.Next() {
		m, err := scanModule(rows)
		if err != nil {
			return nil, err
		}
		mods = append(mods, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate modules: %w", err)
	}
	return mods, nil
}

func scanModule(rows *sql.Rows) (ModuleRecord, error) {
	var (
		m                         ModuleRecord
		grades, standards, lesson []byte
	)
	if err := rows.Scan(&m.ID, &m.Title, &m.Strand, &grades, &standards, &lesson, &m.SortOrder); err != nil {
		return m, fmt.Errorf("scan module: %w", err)
	}
	if err := unmarshalJSON(grades, &m.GradeLevels); err != nil {
		return m, fmt.Errorf("decode grade levels of module %s: %w", m.ID, err)
	}
	if err := unmarshalJSON(standards, &m.StandardCodes); err != nil {
		return m, fmt.Errorf("decode standards of module %s: %w", m.ID, err)
	}
	if err := unmarshalJSON(lesson, &m.LessonIDs); err != nil {
		return m, fmt.Errorf("decode lessons of module %s: %w", m.ID, err)
	}
	return m, nil
}

func (r *catalogRepo) UpsertModule(ctx context.Context, m ModuleRecord) error {
	grades, err := marshalJSON(m.GradeLevels)
	if err != nil {
		return err
	}
	standards, err := marshalJSON(m.StandardCodes)
	if err != nil {
		return err
	}
	lessons, err := marshalJSON(m.LessonIDs)
	if err != nil {
		return err
	}
	ins := r.s.builder().Insert(modulesTable.Name).
		Columns(moduleColumns...).
		Values(m.ID, m.Title, m.Strand, grades, standards, lessons, m.SortOrder).
		OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("upsert module %s: %w", m.ID, err)
	}
	return nil
}

func (r *catalogRepo) ReplaceCanonicalSequence(ctx context.Context, gradeBand string, moduleIDs []string) error {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	del, delArgs := r.s.builder().Delete(canonicalSequencesTable.Name).
		Where(entsql.EQ("grade_band", gradeBand)).
		Query()
	if _, err := tx.ExecContext(ctx, del, delArgs...); err != nil {
		return fmt.Errorf("clear canonical sequence: %w", err)
	}

	if len(moduleIDs) > 0 {
		ins := r.s.builder().Insert(canonicalSequencesTable.Name).
			Columns("grade_band", "position", "module_id")
		for i, id := range moduleIDs {
			ins.Values(gradeBand, i, id)
		}
		query, args := ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("insert canonical sequence: %w", err)
		}
	}
	return tx.Commit()
}
