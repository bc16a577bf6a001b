package insights

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathwise/internal/apperr"
	"github.com/abhisek/pathwise/internal/config"
	"github.com/abhisek/pathwise/internal/mastery"
	"github.com/abhisek/pathwise/internal/store"
)

func TestWeekly(t *testing.T) {
	st, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	defer st.Close()
	ctx := context.Background()
	now := time.Date(2026, 6, 10, 18, 0, 0, 0, time.UTC)

	ev := func(typ, payload string, ago time.Duration) store.ActivityEvent {
		return store.ActivityEvent{StudentID: "s1", EventType: typ, Payload: json.RawMessage(payload), CreatedAt: now.Add(-ago)}
	}
	require.NoError(t, st.EventRepo().InsertEvents(ctx, []store.ActivityEvent{
		ev(store.EventPracticeAnswered, `{"correct":true,"standards":["A"]}`, 10*24*time.Hour),
		ev(store.EventLessonStarted, `{"lesson_id":"l1"}`, 3*24*time.Hour),
		ev(store.EventLessonCompleted, `{"lesson_id":"l1","time_spent_s":300}`, 3*24*time.Hour-time.Hour),
		ev(store.EventPracticeAnswered, `{"correct":false,"standards":["B"],"time_spent_s":20}`, 2*time.Hour),
		ev(store.EventPracticeAnswered, `{"correct":false,"standards":["B"],"time_spent_s":25}`, time.Hour),
		ev(store.EventQuizSubmitted, `{"score":50,"standards":["B"]}`, 30*time.Minute),
		ev(store.EventPlacementCompleted, `{"mastery_pct":40}`, 20*time.Minute),
	}))

	svc := NewService(st.EventRepo(), config.NewLoader(nil), nil)
	sum, err := svc.Weekly(ctx, "s1", now)
	require.NoError(t, err)

	assert.Equal(t, 2, sum.PracticeAnswered)
	assert.Equal(t, 0, sum.PracticeCorrect)
	assert.Equal(t, 1, sum.QuizzesSubmitted)
	assert.Equal(t, 1, sum.LessonsStarted)
	assert.Equal(t, 1, sum.LessonsCompleted)
	assert.Equal(t, 2, sum.ActiveDays)
	assert.Equal(t, 345.0, sum.TimeSpentSeconds)
	require.NotNil(t, sum.RollingAccuracy)
	// lesson 1.0, quiz 0.5, two misses
	assert.InDelta(t, 0.375, *sum.RollingAccuracy, 1e-9)
	assert.Equal(t, mastery.BandBelow, sum.Band)
	assert.Equal(t, []string{"B"}, sum.Misconceptions)
	assert.True(t, sum.Struggle)
	assert.False(t, sum.Degraded)

	empty, err := svc.Weekly(ctx, "nobody", now)
	require.NoError(t, err)
	assert.Nil(t, empty.RollingAccuracy)
	assert.Equal(t, mastery.BandUnknown, empty.Band)
	assert.Empty(t, empty.Misconceptions)
}

type brokenLog struct{ store.EventRepo }

func (brokenLog) RecentEvents(context.Context, string, []string, int) ([]store.ActivityEvent, error) {
	return nil, errors.New("connection reset")
}

func TestWeeklyDegrades(t *testing.T) {
	svc := NewService(brokenLog{}, nil, nil)

	sum, err := svc.Weekly(context.Background(), "s1", time.Now())
	require.NoError(t, err)
	assert.True(t, sum.Degraded)
	assert.Zero(t, sum.PracticeAnswered)

	_, err = svc.Weekly(context.Background(), " ", time.Now())
	assert.True(t, apperr.Is(err, apperr.ReasonMissingStudent))
}
