package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and tune adaptive settings",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show every effective adaptive setting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		stored, err := e.store.SettingsRepo().Settings(cmd.Context())
		if err != nil {
			return fmt.Errorf("read settings: %w", err)
		}
		eff := e.loader.Load(cmd.Context())
		def := config.DefaultAdaptive()

		fmt.Printf("%-30s  %-8s  %-8s  %s\n", "Key", "Value", "Default", "Stored")
		fmt.Println(strings.Repeat("─", 60))
		for _, k := range config.Keys() {
			v, _ := eff.Get(k)
			d, _ := def.Get(k)
			fmt.Printf("%-30s  %-8s  %-8s  %s\n", k, v, d, stored[k])
		}
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print one effective adaptive setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		v, err := e.loader.Load(cmd.Context()).Get(args[0])
		if err != nil {
			return err
		}
		fmt.Println(v)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Persist an adaptive setting",
	Long:  "Persist an adaptive setting in the store, or in the shared Redis hash with --redis. The value is validated against the rest of the effective settings first.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(strings.TrimSpace(args[0]))
		value := strings.TrimSpace(args[1])
		toRedis, _ := cmd.Flags().GetBool("redis")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		next := e.loader.Load(cmd.Context())
		if err := next.Set(key, value); err != nil {
			return err
		}
		if err := next.Validate(); err != nil {
			return err
		}

		if toRedis {
			if e.redis == nil {
				return fmt.Errorf("--redis needs --redis-addr or PATHWISE_REDIS_ADDR")
			}
			if err := e.redis.Put(cmd.Context(), key, value); err != nil {
				return err
			}
		} else if err := e.store.SettingsRepo().PutSetting(cmd.Context(), key, value); err != nil {
			return fmt.Errorf("save setting: %w", err)
		}
		e.log.Info("setting updated", "key", key, "value", value, "redis", toRedis)
		fmt.Printf("%s = %s\n", key, value)
		return nil
	},
}

var configUnsetCmd = &cobra.Command{
	Use:   "unset <key>",
	Short: "Remove a stored adaptive setting",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		key := strings.ToLower(strings.TrimSpace(args[0]))
		if _, err := config.DefaultAdaptive().Get(key); err != nil {
			return err
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		if err := e.store.SettingsRepo().DeleteSetting(cmd.Context(), key); err != nil {
			return fmt.Errorf("delete setting: %w", err)
		}
		v, _ := e.loader.Load(cmd.Context()).Get(key)
		fmt.Printf("%s = %s\n", key, v)
		return nil
	},
}

func init() {
	configSetCmd.Flags().Bool("redis", false, "Write to the shared Redis hash instead of the store")

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configUnsetCmd)
}
