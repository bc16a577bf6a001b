package learningpath

import (
	"encoding/json"
	"maps"
	"time"

	"github.com/abhisek/pathwise/internal/difficulty"
)

// MetadataVersion is the schema version written into every metadata blob.
// Older records without a version decode as version 0 with defaults.
const MetadataVersion = 1

// AdaptiveState is the adaptive bookkeeping carried on a path.
type AdaptiveState struct {
	difficulty.State
	TargetAccuracyMin float64    `json:"target_accuracy_min"`
	TargetAccuracyMax float64    `json:"target_accuracy_max"`
	Misconceptions    []string   `json:"misconceptions"`
	RollingAccuracy   *float64   `json:"rolling_accuracy,omitempty"`
	UpdatedAt         *time.Time `json:"updated_at,omitempty"`
}

// PathMetadata is the typed form of a path's metadata blob. Keys it does
// not know are kept in Extra and written back untouched.
type PathMetadata struct {
	Version    int           `json:"version"`
	Source     string        `json:"source,omitempty"`
	GradeBand  string        `json:"grade_band,omitempty"`
	GoalFocus  string        `json:"goal_focus,omitempty"`
	SeedSource string        `json:"seed_source,omitempty"`
	MasteryPct *int          `json:"mastery_pct,omitempty"`
	Adaptive   AdaptiveState `json:"adaptive_state"`

	Extra map[string]json.RawMessage `json:"-"`
}

// EntryMetadata is the typed form of an entry's metadata blob.
type EntryMetadata struct {
	Reason           Reason     `json:"reason,omitempty"`
	Title            string     `json:"title,omitempty"`
	Attempts         int        `json:"attempts,omitempty"`
	CorrectAttempts  int        `json:"correct_attempts,omitempty"`
	LastScore        *float64   `json:"last_score,omitempty"`
	TimeSpentSeconds float64    `json:"time_spent_s,omitempty"`
	FirstStartedAt   *time.Time `json:"first_started_at,omitempty"`
	LastStartedAt    *time.Time `json:"last_started_at,omitempty"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`

	Extra map[string]json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes field by field. A field with the wrong shape keeps
// its zero value instead of failing the whole blob.
func (m *AdaptiveState) UnmarshalJSON(b []byte) error {
	*m = AdaptiveState{}
	decodeFields(b, map[string]any{
		"current_difficulty":  &m.CurrentDifficulty,
		"difficulty_streak":   &m.DifficultyStreak,
		"target_accuracy_min": &m.TargetAccuracyMin,
		"target_accuracy_max": &m.TargetAccuracyMax,
		"misconceptions":      &m.Misconceptions,
		"rolling_accuracy":    &m.RollingAccuracy,
		"updated_at":          &m.UpdatedAt,
	})
	m.State = m.State.Normalize()
	return nil
}

func (m *PathMetadata) UnmarshalJSON(b []byte) error {
	*m = PathMetadata{}
	m.Adaptive.State = difficulty.Initial()
	m.Extra = decodeFields(b, map[string]any{
		"version":        &m.Version,
		"source":         &m.Source,
		"grade_band":     &m.GradeBand,
		"goal_focus":     &m.GoalFocus,
		"seed_source":    &m.SeedSource,
		"mastery_pct":    &m.MasteryPct,
		"adaptive_state": &m.Adaptive,
	})
	return nil
}

func (m PathMetadata) MarshalJSON() ([]byte, error) {
	type wire PathMetadata
	w := wire(m)
	w.Version = MetadataVersion
	return mergeExtra(w, m.Extra)
}

func (m *EntryMetadata) UnmarshalJSON(b []byte) error {
	*m = EntryMetadata{}
	m.Extra = decodeFields(b, map[string]any{
		"reason":           &m.Reason,
		"title":            &m.Title,
		"attempts":         &m.Attempts,
		"correct_attempts": &m.CorrectAttempts,
		"last_score":       &m.LastScore,
		"time_spent_s":     &m.TimeSpentSeconds,
		"first_started_at": &m.FirstStartedAt,
		"last_started_at":  &m.LastStartedAt,
		"completed_at":     &m.CompletedAt,
	})
	return nil
}

func (m EntryMetadata) MarshalJSON() ([]byte, error) {
	type wire EntryMetadata
	return mergeExtra(wire(m), m.Extra)
}

// DecodePathMetadata decodes a stored blob, defaulting on anything unreadable.
func DecodePathMetadata(raw []byte) PathMetadata {
	var m PathMetadata
	_ = m.UnmarshalJSON(raw)
	return m
}

// DecodeEntryMetadata decodes a stored blob, defaulting on anything unreadable.
func DecodeEntryMetadata(raw []byte) EntryMetadata {
	var m EntryMetadata
	_ = m.UnmarshalJSON(raw)
	return m
}

// decodeFields unmarshals each known key into its target and returns the
// remaining keys. A blob that is not a JSON object yields no fields.
func decodeFields(b []byte, fields map[string]any) map[string]json.RawMessage {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}
	for key, target := range fields {
		v, ok := raw[key]
		if !ok {
			continue
		}
		delete(raw, key)
		_ = json.Unmarshal(v, target)
	}
	if len(raw) == 0 {
		return nil
	}
	return raw
}

// mergeExtra encodes v and adds extra keys that v does not define.
func mergeExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	b, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return b, err
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(b, &known); err != nil {
		return nil, err
	}
	out := maps.Clone(extra)
	maps.Copy(out, known)
	return json.Marshal(out)
}
