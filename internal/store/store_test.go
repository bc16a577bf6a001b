package store

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so journal_mode is not checked here.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestAutoMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	for _, table := range []string{"activity_events", "paths", "path_entries", "modules", "canonical_sequences", "placement_questions", "placement_attempts", "settings", "global_sequence"} {
		var name string
		err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s: %v", table, err)
		}
	}
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := s.seq.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestRecentEventsOrderAndFilter(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	events := []ActivityEvent{
		{StudentID: "s1", EventType: EventPracticeAnswered, Payload: json.RawMessage(`{"n":1}`)},
		{StudentID: "s1", EventType: EventLessonStarted, Payload: json.RawMessage(`{"n":2}`)},
		{StudentID: "s2", EventType: EventPracticeAnswered, Payload: json.RawMessage(`{"n":3}`)},
		{StudentID: "s1", EventType: EventQuizSubmitted, Payload: json.RawMessage(`{"n":4}`)},
		{StudentID: "s1", EventType: EventPracticeAnswered},
	}
	if err := repo.InsertEvents(ctx, events); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := repo.RecentEvents(ctx, "s1", []string{EventPracticeAnswered, EventQuizSubmitted}, 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Sequence <= got[1].Sequence || got[1].Sequence <= got[2].Sequence {
		t.Errorf("events not most recent first: %d, %d, %d", got[0].Sequence, got[1].Sequence, got[2].Sequence)
	}
	if got[1].EventType != EventQuizSubmitted {
		t.Errorf("got[1].EventType = %q, want %q", got[1].EventType, EventQuizSubmitted)
	}
	if string(got[0].Payload) != "{}" {
		t.Errorf("empty payload stored as %q, want {}", got[0].Payload)
	}

	limited, err := repo.RecentEvents(ctx, "s1", nil, 2)
	if err != nil {
		t.Fatalf("recent limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("limited len = %d, want 2", len(limited))
	}
}

func TestPathLifecycle(t *testing.T) {
	s := openTestStore(t)
	repo := s.PathRepo()
	ctx := context.Background()

	p, err := repo.ActivePath(ctx, "s1")
	if err != nil {
		t.Fatalf("active (empty): %v", err)
	}
	if p != nil {
		t.Fatal("expected nil path when none exist")
	}

	if err := repo.CreatePath(ctx, &PathRecord{ID: "p1", StudentID: "s1", Metadata: json.RawMessage(`{"version":1}`)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	p, err = repo.ActivePath(ctx, "s1")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if p == nil || p.ID != "p1" {
		t.Fatalf("active path = %+v, want p1", p)
	}

	n, err := repo.PauseActivePaths(ctx, "s1")
	if err != nil {
		t.Fatalf("pause: %v", err)
	}
	if n != 1 {
		t.Errorf("paused = %d, want 1", n)
	}
	p, err = repo.ActivePath(ctx, "s1")
	if err != nil {
		t.Fatalf("active after pause: %v", err)
	}
	if p != nil {
		t.Error("expected no active path after pause")
	}

	if err := repo.UpdatePathMetadata(ctx, "p1", json.RawMessage(`{"version":1,"current_difficulty":4}`)); err != nil {
		t.Fatalf("update metadata: %v", err)
	}
	got, err := repo.GetPath(ctx, "p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	var meta map[string]int
	if err := json.Unmarshal(got.Metadata, &meta); err != nil {
		t.Fatalf("decode metadata: %v", err)
	}
	if meta["current_difficulty"] != 4 {
		t.Errorf("current_difficulty = %d, want 4", meta["current_difficulty"])
	}
}

func TestPathEntries(t *testing.T) {
	s := openTestStore(t)
	repo := s.PathRepo()
	ctx := context.Background()

	if err := repo.CreatePath(ctx, &PathRecord{ID: "p1", StudentID: "s1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	entries := []PathEntryRecord{
		{ID: "e2", PathID: "p1", Position: 2, EntryType: "lesson", Status: "not_started", LessonID: "l2"},
		{ID: "e1", PathID: "p1", Position: 1, EntryType: "lesson", Status: "not_started", LessonID: "l1", TargetStandardCodes: []string{"4.NF.1"}},
	}
	if err := repo.InsertEntries(ctx, entries); err != nil {
		t.Fatalf("insert entries: %v", err)
	}

	got, err := repo.ListEntries(ctx, "p1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].ID != "e1" || got[1].ID != "e2" {
		t.Fatalf("entries not ordered by position: %+v", got)
	}
	if len(got[0].TargetStandardCodes) != 1 || got[0].TargetStandardCodes[0] != "4.NF.1" {
		t.Errorf("standards = %v, want [4.NF.1]", got[0].TargetStandardCodes)
	}

	upd := got[0]
	upd.Status = "completed"
	upd.Metadata = json.RawMessage(`{"score":90}`)
	if err := repo.UpsertEntry(ctx, &upd); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err = repo.ListEntries(ctx, "p1")
	if err != nil {
		t.Fatalf("list after upsert: %v", err)
	}
	if got[0].Status != "completed" {
		t.Errorf("status = %q, want completed", got[0].Status)
	}
	if len(got) != 2 {
		t.Errorf("upsert changed entry count to %d", len(got))
	}
}

func TestReplaceActivePath(t *testing.T) {
	s := openTestStore(t)
	repo := s.PathRepo()
	ctx := context.Background()

	paused, err := repo.ReplaceActivePath(ctx, &PathRecord{ID: "old", StudentID: "s1"}, []PathEntryRecord{
		{ID: "e1", PathID: "old", Position: 1, EntryType: "lesson", Status: "not_started"},
	})
	if err != nil {
		t.Fatalf("replace (first): %v", err)
	}
	if paused != 0 {
		t.Errorf("paused = %d, want 0", paused)
	}

	_, err = repo.ReplaceActivePath(ctx, &PathRecord{ID: "new", StudentID: "s1"}, []PathEntryRecord{
		{ID: "dup", PathID: "new", Position: 1, EntryType: "lesson", Status: "not_started"},
		{ID: "dup", PathID: "new", Position: 2, EntryType: "lesson", Status: "not_started"},
	})
	if err == nil {
		t.Fatal("expected duplicate entry ids to fail")
	}
	active, err := repo.ActivePath(ctx, "s1")
	if err != nil {
		t.Fatalf("active: %v", err)
	}
	if active == nil || active.ID != "old" {
		t.Fatalf("active path = %+v, want old", active)
	}
	if p, _ := repo.GetPath(ctx, "new"); p != nil {
		t.Errorf("rolled back path was stored: %+v", p)
	}

	paused, err = repo.ReplaceActivePath(ctx, &PathRecord{ID: "new", StudentID: "s1"}, []PathEntryRecord{
		{ID: "e2", PathID: "new", Position: 1, EntryType: "lesson", Status: "not_started"},
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}
	if paused != 1 {
		t.Errorf("paused = %d, want 1", paused)
	}
	entries, err := repo.ListEntries(ctx, "new")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1", len(entries))
	}
}

func TestCatalog(t *testing.T) {
	s := openTestStore(t)
	repo := s.CatalogRepo()
	ctx := context.Background()

	mods := []ModuleRecord{
		{ID: "m-frac", Title: "Fractions", GradeLevels: []int{4, 5}, LessonIDs: []string{"l1"}, SortOrder: 2},
		{ID: "m-add", Title: "Addition", GradeLevels: []int{2}, SortOrder: 1},
		{ID: "m-geo", Title: "Geometry", GradeLevels: []int{5}, SortOrder: 3},
	}
	for _, m := range mods {
		if err := repo.UpsertModule(ctx, m); err != nil {
			t.Fatalf("upsert %s: %v", m.ID, err)
		}
	}

	all, err := repo.ListModules(ctx, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 || all[0].ID != "m-add" {
		t.Fatalf("list order = %+v", all)
	}

	byGrade, err := repo.ModulesForGrades(ctx, []int{5})
	if err != nil {
		t.Fatalf("for grades: %v", err)
	}
	if len(byGrade) != 2 {
		t.Errorf("modules for grade 5 = %d, want 2", len(byGrade))
	}

	if err := repo.ReplaceCanonicalSequence(ctx, "3-5", []string{"m-geo", "missing", "m-frac"}); err != nil {
		t.Fatalf("replace sequence: %v", err)
	}
	seq, err := repo.CanonicalSequence(ctx, "3-5")
	if err != nil {
		t.Fatalf("sequence: %v", err)
	}
	if len(seq) != 2 || seq[0].ID != "m-geo" || seq[1].ID != "m-frac" {
		t.Errorf("sequence = %+v, want [m-geo m-frac]", seq)
	}

	empty, err := repo.CanonicalSequence(ctx, "K-2")
	if err != nil {
		t.Fatalf("empty sequence: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty sequence, got %d", len(empty))
	}
}

func TestPlacementQuestions(t *testing.T) {
	s := openTestStore(t)
	repo := s.PlacementRepo()
	ctx := context.Background()

	q := PlacementQuestionRecord{
		ID: "q1", AssessmentID: "a1", BankQuestionID: "b1", Prompt: "1/2 + 1/4?",
		Options: []OptionRecord{{ID: "o1", Correct: true}, {ID: "o2"}},
		Weight:  2, Difficulty: 3, Strand: "fractions", TargetStandards: []string{"4.NF.3"},
	}
	if err := repo.UpsertPlacementQuestion(ctx, q); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	got, err := repo.PlacementQuestions(ctx, "a1")
	if err != nil {
		t.Fatalf("questions: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Weight != 2 || !got[0].Options[0].Correct || got[0].Strand != "fractions" {
		t.Errorf("question = %+v", got[0])
	}

	err = repo.SavePlacementAttempt(ctx, &PlacementAttemptRecord{
		ID: "att1", AssessmentID: "a1", StudentID: "s1", MasteryPct: 50,
	})
	if err != nil {
		t.Fatalf("save attempt: %v", err)
	}
}

func TestSettings(t *testing.T) {
	s := openTestStore(t)
	repo := s.SettingsRepo()
	ctx := context.Background()

	if err := repo.PutSetting(ctx, "target_accuracy_min", "0.6"); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.PutSetting(ctx, "target_accuracy_min", "0.7"); err != nil {
		t.Fatalf("put again: %v", err)
	}
	got, err := repo.Settings(ctx)
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if got["target_accuracy_min"] != "0.7" {
		t.Errorf("value = %q, want 0.7", got["target_accuracy_min"])
	}

	if err := repo.DeleteSetting(ctx, "target_accuracy_min"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.DeleteSetting(ctx, "absent"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
	got, err = repo.Settings(ctx)
	if err != nil {
		t.Fatalf("settings after delete: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("settings = %v, want empty", got)
	}
}
