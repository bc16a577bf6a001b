package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Pause the student's active path so the next placement starts fresh",
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, err := requireStudent(cmd)
		if err != nil {
			return err
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := e.store.PathRepo().PauseActivePaths(cmd.Context(), studentID)
		if err != nil {
			return fmt.Errorf("pause paths: %w", err)
		}
		if n == 0 {
			fmt.Printf("No active path for %s.\n", studentID)
			return nil
		}
		fmt.Printf("Paused %d path(s) for %s.\n", n, studentID)
		return nil
	},
}

func init() {
	resetCmd.Flags().String("student", "", "Student id")
}
