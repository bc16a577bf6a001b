package config

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/pathwise/internal/store"
)

type failingSource struct{}

func (failingSource) Name() string { return "failing" }

func (failingSource) Values(context.Context) (map[string]string, error) {
	return nil, errors.New("unavailable")
}

func TestLoaderLayering(t *testing.T) {
	l := NewLoader(nil,
		StaticSource{KeyTargetAccuracyMin: "0.5", KeyMaxPracticePending: "4"},
		failingSource{},
		StaticSource{KeyTargetAccuracyMin: "0.55"},
	)
	cfg := l.Load(context.Background())
	assert.Equal(t, 0.55, cfg.TargetAccuracyMin)
	assert.Equal(t, 4, cfg.MaxPracticePending)
	assert.Equal(t, 0.80, cfg.TargetAccuracyMax)
}

func TestLoaderFallsBackOnInvalidMerge(t *testing.T) {
	l := NewLoader(nil, StaticSource{KeyTargetAccuracyMin: "0.9", KeyTargetAccuracyMax: "0.7"})
	assert.Equal(t, DefaultAdaptive(), l.Load(context.Background()))
}

func TestNilLoaderReturnsDefaults(t *testing.T) {
	var l *Loader
	assert.Equal(t, DefaultAdaptive(), l.Load(context.Background()))
}

func TestEnvSource(t *testing.T) {
	env := map[string]string{
		"PATHWISE_TARGET_ACCURACY_MAX":     "0.85",
		"PATHWISE_MAX_REMEDIATION_PENDING": "",
	}
	src := EnvSource{Lookup: func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}}
	values, err := src.Values(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{KeyTargetAccuracyMax: "0.85"}, values)
}

func TestStoreSource(t *testing.T) {
	s, err := store.Open("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	ctx := context.Background()
	require.NoError(t, s.SettingsRepo().PutSetting(ctx, KeyStruggleConsecutiveMisses, "5"))

	cfg := NewLoader(nil, StoreSource{Repo: s.SettingsRepo()}).Load(ctx)
	assert.Equal(t, 5, cfg.StruggleConsecutiveMisses)
}

func TestRedisSourceUnreachableIsSkipped(t *testing.T) {
	src := NewRedisSource("127.0.0.1:1", "pathwise:test")
	t.Cleanup(func() { src.Close() })

	_, err := src.Values(context.Background())
	require.Error(t, err)

	cfg := NewLoader(nil, StaticSource{KeyMisconceptionCap: "3"}, src).Load(context.Background())
	assert.Equal(t, 3, cfg.MisconceptionCap)
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("PATHWISE_DB", "/tmp/p.db")
	t.Setenv("PATHWISE_DB_DRIVER", "postgres")
	t.Setenv("PATHWISE_TRACE", "true")
	t.Setenv("PATHWISE_REDIS_ADDR", "localhost:6379")

	cfg := ConfigFromEnv()
	assert.Equal(t, "/tmp/p.db", cfg.DBPath)
	assert.Equal(t, "postgres", cfg.Driver)
	assert.True(t, cfg.Trace)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, "pathwise:adaptive", cfg.RedisKey)
}
