package config

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/abhisek/pathwise/internal/apperr"
)

// Adaptive holds the runtime-tunable thresholds of the adaptive engine.
// It is a plain value: callers receive a fresh copy per orchestration call
// and pass it down explicitly.
type Adaptive struct {
	// TargetAccuracyMin and TargetAccuracyMax bound the rolling-accuracy
	// window the difficulty controller steers toward.
	TargetAccuracyMin float64 `json:"target_accuracy_min"`
	TargetAccuracyMax float64 `json:"target_accuracy_max"`

	// MaxRemediationPending caps pending review entries per path.
	MaxRemediationPending int `json:"max_remediation_pending"`
	// MaxPracticePending caps pending practice entries per path.
	MaxPracticePending int `json:"max_practice_pending"`

	// StruggleConsecutiveMisses is the run of misses that flags a struggle.
	StruggleConsecutiveMisses int `json:"struggle_consecutive_misses"`
	// StruggleAccuracy is the accuracy floor below which a student struggles.
	StruggleAccuracy float64 `json:"struggle_accuracy"`

	// BandSlack widens the target band before band correction applies.
	BandSlack float64 `json:"band_slack"`
	// BandMinAttempts is the minimum attempt history for band correction.
	BandMinAttempts int `json:"band_min_attempts"`

	AdaptationWindow   int `json:"adaptation_window"`
	InsightWindow      int `json:"insight_window"`
	MisconceptionCap   int `json:"misconception_cap"`
	PlacementPathLimit int `json:"placement_path_limit"`
}

// DefaultAdaptive returns the built-in thresholds.
func DefaultAdaptive() Adaptive {
	return Adaptive{
		TargetAccuracyMin:         0.65,
		TargetAccuracyMax:         0.80,
		MaxRemediationPending:     2,
		MaxPracticePending:        3,
		StruggleConsecutiveMisses: 3,
		StruggleAccuracy:          0.60,
		BandSlack:                 0.05,
		BandMinAttempts:           4,
		AdaptationWindow:          24,
		InsightWindow:             200,
		MisconceptionCap:          4,
		PlacementPathLimit:        12,
	}
}

// Validate reports the first inconsistency in the thresholds.
func (a Adaptive) Validate() error {
	unit := func(name string, v float64) error {
		if v < 0 || v > 1 {
			return apperr.New(apperr.ReasonInvalidConfig, "%s must be within [0,1], got %v", name, v)
		}
		return nil
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{KeyTargetAccuracyMin, a.TargetAccuracyMin},
		{KeyTargetAccuracyMax, a.TargetAccuracyMax},
		{KeyStruggleAccuracy, a.StruggleAccuracy},
		{KeyBandSlack, a.BandSlack},
	} {
		if err := unit(f.name, f.v); err != nil {
			return err
		}
	}
	if a.TargetAccuracyMin >= a.TargetAccuracyMax {
		return apperr.New(apperr.ReasonInvalidConfig, "target accuracy band is empty: min %v >= max %v",
			a.TargetAccuracyMin, a.TargetAccuracyMax)
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{KeyMaxRemediationPending, a.MaxRemediationPending},
		{KeyMaxPracticePending, a.MaxPracticePending},
		{KeyStruggleConsecutiveMisses, a.StruggleConsecutiveMisses},
		{KeyAdaptationWindow, a.AdaptationWindow},
		{KeyInsightWindow, a.InsightWindow},
		{KeyMisconceptionCap, a.MisconceptionCap},
		{KeyPlacementPathLimit, a.PlacementPathLimit},
	} {
		if f.v <= 0 {
			return apperr.New(apperr.ReasonInvalidConfig, "%s must be positive, got %d", f.name, f.v)
		}
	}
	if a.BandMinAttempts < 0 {
		return apperr.New(apperr.ReasonInvalidConfig, "%s must not be negative, got %d", KeyBandMinAttempts, a.BandMinAttempts)
	}
	return nil
}

// Setting keys shared by every configuration source.
const (
	KeyTargetAccuracyMin         = "target_accuracy_min"
	KeyTargetAccuracyMax         = "target_accuracy_max"
	KeyMaxRemediationPending     = "max_remediation_pending"
	KeyMaxPracticePending        = "max_practice_pending"
	KeyStruggleConsecutiveMisses = "struggle_consecutive_misses"
	KeyStruggleAccuracy          = "struggle_accuracy"
	KeyBandSlack                 = "band_slack"
	KeyBandMinAttempts           = "band_min_attempts"
	KeyAdaptationWindow          = "adaptation_window"
	KeyInsightWindow             = "insight_window"
	KeyMisconceptionCap          = "misconception_cap"
	KeyPlacementPathLimit        = "placement_path_limit"
)

// Keys lists every recognised setting key in display order.
func Keys() []string {
	return []string{
		KeyTargetAccuracyMin, KeyTargetAccuracyMax,
		KeyMaxRemediationPending, KeyMaxPracticePending,
		KeyStruggleConsecutiveMisses, KeyStruggleAccuracy,
		KeyBandSlack, KeyBandMinAttempts,
		KeyAdaptationWindow, KeyInsightWindow,
		KeyMisconceptionCap, KeyPlacementPathLimit,
	}
}

func (a *Adaptive) floatField(key string) *float64 {
	switch key {
	case KeyTargetAccuracyMin:
		return &a.TargetAccuracyMin
	case KeyTargetAccuracyMax:
		return &a.TargetAccuracyMax
	case KeyStruggleAccuracy:
		return &a.StruggleAccuracy
	case KeyBandSlack:
		return &a.BandSlack
	}
	return nil
}

func (a *Adaptive) intField(key string) *int {
	switch key {
	case KeyMaxRemediationPending:
		return &a.MaxRemediationPending
	case KeyMaxPracticePending:
		return &a.MaxPracticePending
	case KeyStruggleConsecutiveMisses:
		return &a.StruggleConsecutiveMisses
	case KeyBandMinAttempts:
		return &a.BandMinAttempts
	case KeyAdaptationWindow:
		return &a.AdaptationWindow
	case KeyInsightWindow:
		return &a.InsightWindow
	case KeyMisconceptionCap:
		return &a.MisconceptionCap
	case KeyPlacementPathLimit:
		return &a.PlacementPathLimit
	}
	return nil
}

// Set parses value into the field named by key.
func (a *Adaptive) Set(key, value string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	value = strings.TrimSpace(value)
	if f := a.floatField(key); f != nil {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return apperr.New(apperr.ReasonInvalidConfig, "%s: %v", key, err)
		}
		*f = v
		return nil
	}
	if f := a.intField(key); f != nil {
		v, err := strconv.Atoi(value)
		if err != nil {
			return apperr.New(apperr.ReasonInvalidConfig, "%s: %v", key, err)
		}
		*f = v
		return nil
	}
	return apperr.New(apperr.ReasonInvalidConfig, "unknown setting %q", key)
}

// Get formats the field named by key.
func (a Adaptive) Get(key string) (string, error) {
	key = strings.ToLower(strings.TrimSpace(key))
	if f := a.floatField(key); f != nil {
		return strconv.FormatFloat(*f, 'f', -1, 64), nil
	}
	if f := a.intField(key); f != nil {
		return strconv.Itoa(*f), nil
	}
	return "", apperr.New(apperr.ReasonInvalidConfig, "unknown setting %q", key)
}

// Apply overlays values onto a copy of a. Unknown keys and unparsable values
// are collected into the returned error; valid keys are still applied.
func (a Adaptive) Apply(values map[string]string) (Adaptive, error) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var bad []string
	for _, k := range keys {
		if err := a.Set(k, values[k]); err != nil {
			bad = append(bad, err.Error())
		}
	}
	if len(bad) > 0 {
		return a, fmt.Errorf("apply settings: %s", strings.Join(bad, "; "))
	}
	return a, nil
}
