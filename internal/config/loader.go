package config

import (
	"context"
	"os"
	"strings"

	"github.com/abhisek/pathwise/internal/logger"
	"github.com/abhisek/pathwise/internal/store"
)

// Source yields setting overrides keyed by the Key* constants.
type Source interface {
	Name() string
	Values(ctx context.Context) (map[string]string, error)
}

// Loader merges Adaptive values from its sources, later sources winning.
type Loader struct {
	sources []Source
	log     *logger.Logger
}

// NewLoader returns a loader over the given sources.
func NewLoader(log *logger.Logger, sources ...Source) *Loader {
	return &Loader{sources: sources, log: logger.OrNop(log)}
}

// Load starts from DefaultAdaptive and overlays each source in order.
// A failing source, or one carrying bad values, is logged and skipped. When
// the merged result does not validate, the defaults are returned instead.
func (l *Loader) Load(ctx context.Context) Adaptive {
	cfg := DefaultAdaptive()
	if l == nil {
		return cfg
	}
	for _, src := range l.sources {
		values, err := src.Values(ctx)
		if err != nil {
			l.log.Warn("adaptive config source failed", "source", src.Name(), "error", err)
			continue
		}
		if len(values) == 0 {
			continue
		}
		next, err := cfg.Apply(values)
		if err != nil {
			l.log.Warn("adaptive config source has bad values", "source", src.Name(), "error", err)
		}
		cfg = next
	}
	if err := cfg.Validate(); err != nil {
		l.log.Warn("adaptive config invalid, using defaults", "error", err)
		return DefaultAdaptive()
	}
	return cfg
}

// EnvSource reads PATHWISE_<KEY> variables, e.g. PATHWISE_TARGET_ACCURACY_MIN.
type EnvSource struct {
	// Lookup defaults to os.LookupEnv.
	Lookup func(string) (string, bool)
}

func (EnvSource) Name() string { return "env" }

func (e EnvSource) Values(context.Context) (map[string]string, error) {
	lookup := e.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}
	out := make(map[string]string)
	for _, k := range Keys() {
		if v, ok := lookup("PATHWISE_" + strings.ToUpper(k)); ok && v != "" {
			out[k] = v
		}
	}
	return out, nil
}

// StoreSource reads the settings table.
type StoreSource struct {
	Repo store.SettingsRepo
}

func (StoreSource) Name() string { return "store" }

func (s StoreSource) Values(ctx context.Context) (map[string]string, error) {
	return s.Repo.Settings(ctx)
}

// StaticSource is a fixed set of overrides.
type StaticSource map[string]string

func (StaticSource) Name() string { return "static" }

func (s StaticSource) Values(context.Context) (map[string]string, error) {
	return s, nil
}
