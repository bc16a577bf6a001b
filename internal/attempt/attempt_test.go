package attempt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathwise/internal/store"
)

func ptr[T any](v T) *T { return &v }

func TestDecode(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		eventType string
		payload   string
		check     func(t *testing.T, e Event)
	}{
		{
			name:      "practice",
			eventType: store.EventPracticeAnswered,
			payload:   `{"entry_id":"e1","correct":true,"difficulty":3,"standards":["4.NF.1"]}`,
			check: func(t *testing.T, e Event) {
				p, ok := e.(PracticeAnswered)
				require.True(t, ok)
				assert.True(t, p.Correct)
				assert.Equal(t, 3, *p.Difficulty)
				assert.Equal(t, "e1", p.EntryID)
				assert.Equal(t, at, p.At)
			},
		},
		{
			name:      "difficulty out of range dropped",
			eventType: store.EventPracticeAnswered,
			payload:   `{"correct":false,"difficulty":9}`,
			check: func(t *testing.T, e Event) {
				assert.Nil(t, e.(PracticeAnswered).Difficulty)
			},
		},
		{
			name:      "quiz",
			eventType: store.EventQuizSubmitted,
			payload:   `{"assessment_id":"a1","score":72.5,"breakdown":{"5.NBT.1":80}}`,
			check: func(t *testing.T, e Event) {
				q := e.(QuizSubmitted)
				assert.Equal(t, 72.5, *q.Score)
				assert.Equal(t, "a1", q.Ref().AssessmentID)
			},
		},
		{
			name:      "lesson started",
			eventType: store.EventLessonStarted,
			payload:   `{"lesson_id":"l1"}`,
			check: func(t *testing.T, e Event) {
				assert.Equal(t, "l1", e.(LessonStarted).LessonID)
			},
		},
		{
			name:      "unknown type",
			eventType: "video_watched",
			payload:   `{}`,
			check: func(t *testing.T, e Event) {
				ig, ok := e.(Ignored)
				require.True(t, ok)
				assert.Equal(t, "video_watched", ig.Type())
			},
		},
		{
			name:      "malformed",
			eventType: store.EventQuizSubmitted,
			payload:   `{"score":"high"}`,
			check: func(t *testing.T, e Event) {
				ig, ok := e.(Ignored)
				require.True(t, ok)
				assert.Contains(t, ig.Reason, "malformed")
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Decode(tt.eventType, json.RawMessage(tt.payload), at))
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	ev := PracticeAnswered{Target: Target{LessonID: "l1"}, Correct: true, Standards: []string{"3.OA.1"}}
	typ, payload, err := Encode(ev)
	require.NoError(t, err)
	assert.Equal(t, store.EventPracticeAnswered, typ)

	back := Decode(typ, payload, time.Time{}).(PracticeAnswered)
	assert.Equal(t, ev.Standards, back.Standards)
	assert.Equal(t, "l1", back.LessonID)

	_, _, err = Encode(Ignored{EventType: "x"})
	assert.Error(t, err)
}

func TestFromEventPractice(t *testing.T) {
	a, ok := FromEvent(PracticeAnswered{
		Correct:   false,
		Standards: []string{" a ", "b", "a", "", "c", "d", "e"},
	}, 0.65)
	require.True(t, ok)
	assert.False(t, a.Correct)
	assert.Equal(t, 0.0, *a.Accuracy)
	assert.Equal(t, []string{"a", "b", "c", "d"}, a.Standards)
	assert.Equal(t, SourcePractice, a.Source)
}

func TestFromEventQuiz(t *testing.T) {
	tests := []struct {
		name        string
		ev          QuizSubmitted
		wantCorrect bool
		wantAcc     *float64
		wantStd     []string
	}{
		{"passing", QuizSubmitted{Score: ptr(70.0), Standards: []string{"x"}}, true, ptr(0.7), []string{"x"}},
		{"failing", QuizSubmitted{Score: ptr(50.0)}, false, ptr(0.5), nil},
		{"clamped", QuizSubmitted{Score: ptr(130.0)}, true, ptr(1.0), nil},
		{"no score", QuizSubmitted{Standards: []string{"x"}}, false, nil, []string{"x"}},
		{"breakdown wins", QuizSubmitted{Score: ptr(90.0), Breakdown: map[string]float64{"b": 1, "a": 2}, Standards: []string{"z"}}, true, ptr(0.9), []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := FromEvent(tt.ev, 0.65)
			require.True(t, ok)
			assert.Equal(t, tt.wantCorrect, a.Correct)
			if tt.wantAcc == nil {
				assert.Nil(t, a.Accuracy)
			} else {
				require.NotNil(t, a.Accuracy)
				assert.InDelta(t, *tt.wantAcc, *a.Accuracy, 1e-9)
			}
			assert.Equal(t, tt.wantStd, a.Standards)
		})
	}
}

func TestFromEventLessonAndNonAttempts(t *testing.T) {
	a, ok := FromEvent(LessonCompleted{}, 0.65)
	require.True(t, ok)
	assert.True(t, a.Correct)
	assert.Equal(t, 1.0, *a.Accuracy)
	assert.Equal(t, []string{GeneralStandard}, a.StandardKeys())

	_, ok = FromEvent(LessonStarted{}, 0.65)
	assert.False(t, ok)
	_, ok = FromEvent(Ignored{}, 0.65)
	assert.False(t, ok)
}

type mockEventRepo struct {
	events []store.ActivityEvent
	err    error
	types  []string
	limit  int
}

func (m *mockEventRepo) RecentEvents(_ context.Context, _ string, types []string, limit int) ([]store.ActivityEvent, error) {
	m.types, m.limit = types, limit
	return m.events, m.err
}

func (m *mockEventRepo) InsertEvents(context.Context, []store.ActivityEvent) error { return nil }

func TestReaderFetchRecent(t *testing.T) {
	repo := &mockEventRepo{events: []store.ActivityEvent{
		{EventType: store.EventPracticeAnswered, Payload: json.RawMessage(`{"correct":true}`)},
		{EventType: store.EventQuizSubmitted, Payload: json.RawMessage(`not json`)},
		{EventType: store.EventLessonCompleted, Payload: json.RawMessage(`{}`)},
	}}
	got := NewReader(repo, nil).FetchRecent(context.Background(), "s1", 24, 0.65)

	require.Len(t, got, 2)
	assert.Equal(t, SourcePractice, got[0].Source)
	assert.Equal(t, SourceLesson, got[1].Source)
	assert.Equal(t, EventTypes, repo.types)
	assert.Equal(t, 24, repo.limit)
}

func TestReaderFetchRecentStoreFailure(t *testing.T) {
	repo := &mockEventRepo{err: errors.New("db down")}
	got := NewReader(repo, nil).FetchRecent(context.Background(), "s1", 24, 0.65)
	assert.Empty(t, got)
}
