package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/config"
	"github.com/abhisek/pathwise/internal/logger"
	"github.com/abhisek/pathwise/internal/observability"
	"github.com/abhisek/pathwise/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "pathwise",
	Short:        "Adaptive learning-path engine",
	Long:         "Pathwise places students, seeds their learning paths and adapts them to every practice answer, quiz and lesson.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("db", "", "SQLite file or Postgres DSN (overrides PATHWISE_DB)")
	flags.String("driver", "", "Store driver: sqlite or postgres (overrides PATHWISE_DB_DRIVER)")
	flags.String("log-mode", "", "Log format: dev or prod (overrides PATHWISE_LOG_MODE)")
	flags.Bool("trace", false, "Print OpenTelemetry spans to stderr")
	flags.String("redis-addr", "", "Redis address for shared adaptive settings (overrides PATHWISE_REDIS_ADDR)")

	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(placeCmd)
	rootCmd.AddCommand(eventCmd)
	rootCmd.AddCommand(pathCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(simCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(versionCmd)
}

// resolveConfig layers command-line flags over the environment.
func resolveConfig(cmd *cobra.Command) config.Config {
	cfg := config.ConfigFromEnv()
	if v, _ := cmd.Flags().GetString("db"); v != "" {
		cfg.DBPath = v
	}
	if v, _ := cmd.Flags().GetString("driver"); v != "" {
		cfg.Driver = v
	}
	if v, _ := cmd.Flags().GetString("log-mode"); v != "" {
		cfg.LogMode = v
	}
	if v, _ := cmd.Flags().GetBool("trace"); v {
		cfg.Trace = true
	}
	if v, _ := cmd.Flags().GetString("redis-addr"); v != "" {
		cfg.RedisAddr = v
	}
	return cfg
}

// env holds everything a command needs. Close releases it.
type env struct {
	cfg    config.Config
	log    *logger.Logger
	store  *store.Store
	loader *config.Loader
	redis  *config.RedisSource

	shutdownTracing func(context.Context) error
}

// initTracing is swapped in tests.
var initTracing = observability.InitTracing

// openEnv builds the logger, tracing, store and adaptive config loader.
// Whatever was set up is released again when a later step fails.
func openEnv(cmd *cobra.Command) (_ *env, err error) {
	cfg := resolveConfig(cmd)
	e := &env{cfg: cfg}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, err
	}
	e.log = log
	defer func() {
		if err != nil {
			e.Close()
		}
	}()

	if cfg.Trace {
		shutdown, err := initTracing(os.Stderr)
		if err != nil {
			return nil, err
		}
		e.shutdownTracing = shutdown
	}

	dsn := cfg.DBPath
	if !strings.EqualFold(cfg.Driver, store.DriverPostgres) {
		if dsn == "" {
			if dsn, err = store.DefaultDBPath(); err != nil {
				return nil, fmt.Errorf("resolve DB path: %w", err)
			}
		} else if err := store.EnsureDir(dsn); err != nil {
			return nil, fmt.Errorf("resolve DB path: %w", err)
		}
	}
	st, err := store.OpenDriver(cmd.Context(), cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	e.store = st

	sources := []config.Source{config.EnvSource{}, config.StoreSource{Repo: st.SettingsRepo()}}
	if cfg.RedisAddr != "" {
		e.redis = config.NewRedisSource(cfg.RedisAddr, cfg.RedisKey)
		sources = append(sources, e.redis)
	}
	e.loader = config.NewLoader(log, sources...)
	return e, nil
}

func (e *env) Close() {
	if e.redis != nil {
		e.redis.Close()
	}
	if e.store != nil {
		e.store.Close()
	}
	if e.shutdownTracing != nil {
		e.shutdownTracing(context.Background())
	}
	e.log.Sync()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func requireStudent(cmd *cobra.Command) (string, error) {
	id, _ := cmd.Flags().GetString("student")
	if strings.TrimSpace(id) == "" {
		return "", fmt.Errorf("--student is required")
	}
	return id, nil
}
