package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// pathRepo implements PathRepo.
type pathRepo struct {
	s *Store
}

var pathColumns = []string{"id", "student_id", "status", "metadata", "created_at", "updated_at"}

func (r *pathRepo) ActivePath(ctx context.Context, studentID string) (*PathRecord, error) {
	b := r.s.builder()
	sel := b.Select(pathColumns...).
		From(b.Table(pathsTable.Name)).
		Where(entsql.And(entsql.EQ("student_id", studentID), entsql.EQ("status", PathActive))).
		OrderBy(entsql.Desc("created_at")).
		Limit(1)
	return r.queryOne(ctx, sel)
}

func (r *pathRepo) GetPath(ctx context.Context, pathID string) (*PathRecord, error) {
	b := r.s.builder()
	sel := b.Select(pathColumns...).
		From(b.Table(pathsTable.Name)).
		Where(entsql.EQ("id", pathID))
	return r.queryOne(ctx, sel)
}

func (r *pathRepo) queryOne(ctx context.Context, sel *entsql.Selector) (*PathRecord, error) {
	query, args := sel.Query()
	var (
		p    PathRecord
		meta []byte
	)
	err := r.s.db.QueryRowContext(ctx, query, args...).
		Scan(&p.ID, &p.StudentID, &p.Status, &meta, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query path: %w", err)
	}
	p.Metadata = json.RawMessage(meta)
	return &p, nil
}

func (r *pathRepo) CreatePath(ctx context.Context, p *PathRecord) error {
	if err := r.s.exec(ctx, r.pathInsert(p)); err != nil {
		return fmt.Errorf("create path: %w", err)
	}
	return nil
}

func (r *pathRepo) pathInsert(p *PathRecord) *entsql.InsertBuilder {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = PathActive
	}
	return r.s.builder().Insert(pathsTable.Name).
		Columns(pathColumns...).
		Values(p.ID, p.StudentID, p.Status, jsonOrEmptyObject(p.Metadata), p.CreatedAt.UTC(), p.UpdatedAt)
}

func (r *pathRepo) PauseActivePaths(ctx context.Context, studentID string) (int, error) {
	return r.pause(ctx, r.s.db, studentID)
}

func (r *pathRepo) pause(ctx context.Context, db execer, studentID string) (int, error) {
	query, args := r.s.builder().Update(pathsTable.Name).
		Set("status", PathPaused).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.And(entsql.EQ("student_id", studentID), entsql.EQ("status", PathActive))).
		Query()
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("pause active paths: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return int(n), nil
}

func (r *pathRepo) ReplaceActivePath(ctx context.Context, p *PathRecord, entries []PathEntryRecord) (int, error) {
	tx, err := r.s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	paused, err := r.pause(ctx, tx, p.StudentID)
	if err != nil {
		return 0, err
	}
	query, args := r.pathInsert(p).Query()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("create path: %w", err)
	}
	if len(entries) > 0 {
		ins, err := r.entryInsert(entries)
		if err != nil {
			return 0, err
		}
		query, args := ins.Query()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return 0, fmt.Errorf("insert path entries: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit path: %w", err)
	}
	return paused, nil
}

func (r *pathRepo) UpdatePathMetadata(ctx context.Context, pathID string, metadata json.RawMessage) error {
	upd := r.s.builder().Update(pathsTable.Name).
		Set("metadata", jsonOrEmptyObject(metadata)).
		Set("updated_at", time.Now().UTC()).
		Where(entsql.EQ("id", pathID))
	if err := r.s.exec(ctx, upd); err != nil {
		return fmt.Errorf("update path metadata: %w", err)
	}
	return nil
}

var entryColumns = []string{
	"id", "path_id", "position", "entry_type", "status", "module_id", "lesson_id",
	"assessment_id", "target_standard_codes", "metadata", "created_at", "updated_at",
}

func (r *pathRepo) ListEntries(ctx context.Context, pathID string) ([]PathEntryRecord, error) {
	b := r.s.builder()
	sel := b.Select(entryColumns...).
		From(b.Table(pathEntriesTable.Name)).
		Where(entsql.EQ("path_id", pathID)).
		OrderBy("position", "created_at")
	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query path entries: %w", err)
	}
	defer rows.Close()

	var entries []PathEntryRecord
	for rows.Next() {
		var (
			e         PathEntryRecord
			standards []byte
			meta      []byte
		)
		if err := rows.Scan(&e.ID, &e.PathID, &e.Position, &e.EntryType, &e.Status,
			&e.ModuleID, &e.LessonID, &e.AssessmentID, &standards, &meta,
			&e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan path entry: %w", err)
		}
		if err := unmarshalJSON(standards, &e.TargetStandardCodes); err != nil {
			return nil, fmt.Errorf("decode standards of entry %s: %w", e.ID, err)
		}
		e.Metadata = json.RawMessage(meta)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate path entries: %w", err)
	}
	return entries, nil
}

func (r *pathRepo) UpsertEntry(ctx context.Context, e *PathEntryRecord) error {
	ins, err := r.entryInsert([]PathEntryRecord{*e})
	if err != nil {
		return err
	}
	ins.OnConflict(entsql.ConflictColumns("id"), entsql.ResolveWithNewValues())
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("upsert path entry: %w", err)
	}
	return nil
}

func (r *pathRepo) InsertEntries(ctx context.Context, entries []PathEntryRecord) error {
	if len(entries) == 0 {
		return nil
	}
	ins, err := r.entryInsert(entries)
	if err != nil {
		return err
	}
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("insert path entries: %w", err)
	}
	return nil
}

func (r *pathRepo) entryInsert(entries []PathEntryRecord) (*entsql.InsertBuilder, error) {
	now := time.Now().UTC()
	ins := r.s.builder().Insert(pathEntriesTable.Name).Columns(entryColumns...)
	for _, e := range entries {
		standards, err := marshalJSON(e.TargetStandardCodes)
		if err != nil {
			return nil, fmt.Errorf("encode standards of entry %s: %w", e.ID, err)
		}
		created := e.CreatedAt
		if created.IsZero() {
			created = now
		}
		ins.Values(e.ID, e.PathID, e.Position, e.EntryType, e.Status, e.ModuleID, e.LessonID,
			e.AssessmentID, standards, jsonOrEmptyObject(e.Metadata), created.UTC(), now)
	}
	return ins, nil
}
