package cmd

import (
	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/adaptive"
	"github.com/abhisek/pathwise/internal/app"
	"github.com/abhisek/pathwise/internal/screens/simulator"
)

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Drive a student's adaptive path interactively",
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, err := requireStudent(cmd)
		if err != nil {
			return err
		}

		// Console logs tear the TUI; default to JSON at info level.
		if !cmd.Flags().Changed("log-mode") {
			cmd.Flags().Set("log-mode", "prod")
		}
		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		engine := adaptive.NewEngine(e.store.PathRepo(), e.store.EventRepo(), e.loader, e.log)
		return app.Run(cmd.Context(), simulator.New(engine, studentID))
	},
}

func init() {
	simCmd.Flags().String("student", "", "Student id")
}
