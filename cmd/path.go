package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/adaptive"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the student's active path and adaptive state",
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, err := requireStudent(cmd)
		if err != nil {
			return err
		}
		asJSON, _ := cmd.Flags().GetBool("json")

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		engine := adaptive.NewEngine(e.store.PathRepo(), e.store.EventRepo(), e.loader, e.log)
		view, err := engine.Current(cmd.Context(), studentID)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(view)
		}

		p := view.Path.Path
		fmt.Printf("Path %s (%s, source %s, band %s)\n\n", p.ID, p.Status, p.Metadata.Source, p.Metadata.GradeBand)
		fmt.Printf("%-3s  %-3s  %-10s  %-11s  %-20s  %-30s  %s\n", "", "Pos", "Type", "Status", "Reason", "Title", "Standards")
		fmt.Println(strings.Repeat("─", 100))
		for _, en := range view.Path.Entries {
			marker := ""
			if view.Next != nil && view.Next.ID == en.ID {
				marker = "->"
			}
			title := en.Title()
			if len(title) > 30 {
				title = title[:30]
			}
			fmt.Printf("%-3s  %-3d  %-10s  %-11s  %-20s  %-30s  %s\n",
				marker, en.Position, en.Type, en.Status, en.Metadata.Reason, title,
				strings.Join(en.TargetStandardCodes, ","))
		}
		fmt.Println()
		printAdaptive(view)
		return nil
	},
}

func init() {
	pathCmd.Flags().String("student", "", "Student id")
	pathCmd.Flags().Bool("json", false, "Print the view as JSON")
}
