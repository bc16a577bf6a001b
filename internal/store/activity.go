package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// eventRepo implements EventRepo.
type eventRepo struct {
	s *Store
}

func (r *eventRepo) RecentEvents(ctx context.Context, studentID string, eventTypes []string, limit int) ([]ActivityEvent, error) {
	b := r.s.builder()
	preds := []*entsql.Predicate{entsql.EQ("student_id", studentID)}
	if len(eventTypes) > 0 {
		preds = append(preds, entsql.In("event_type", stringsToAny(eventTypes)...))
	}
	sel := b.Select("id", "sequence", "student_id", "event_type", "payload", "created_at").
		From(b.Table(activityEventsTable.Name)).
		Where(entsql.And(preds...)).
		OrderBy(entsql.Desc("sequence"))
	if limit > 0 {
		sel.Limit(limit)
	}

	query, args := sel.Query()
	rows, err := r.s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity events: %w", err)
	}
	defer rows.Close()

	var events []ActivityEvent
	for rows.Next() {
		var (
			e       ActivityEvent
			payload []byte
		)
		if err := rows.Scan(&e.ID, &e.Sequence, &e.StudentID, &e.EventType, &payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity event: %w", err)
		}
		e.Payload = json.RawMessage(payload)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity events: %w", err)
	}
	return events, nil
}

func (r *eventRepo) InsertEvents(ctx context.Context, events []ActivityEvent) error {
	if len(events) == 0 {
		return nil
	}
	ins := r.s.builder().Insert(activityEventsTable.Name).
		Columns("sequence", "student_id", "event_type", "payload", "created_at")
	for i := range events {
		seq, err := r.s.seq.Next(ctx)
		if err != nil {
			return err
		}
		e := &events[i]
		e.Sequence = seq
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		e.CreatedAt = e.CreatedAt.UTC()
		ins.Values(e.Sequence, e.StudentID, e.EventType, jsonOrEmptyObject(e.Payload), e.CreatedAt)
	}
	if err := r.s.exec(ctx, ins); err != nil {
		return fmt.Errorf("insert activity events: %w", err)
	}
	return nil
}

func stringsToAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func jsonOrEmptyObject(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

// marshalJSON encodes v for a JSON column. nil slices encode as [].
func marshalJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	if string(b) == "null" {
		return "[]", nil
	}
	return string(b), nil
}

// unmarshalJSON decodes a JSON column, tolerating empty values.
func unmarshalJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}
