package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/adaptive"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Record a learning event and adapt the student's path",
	Example: `  pathwise event --student s1 --type practice_answered --payload '{"correct":false,"standards":["4.NF.1"]}'
  pathwise event --student s1 --type quiz_submitted --payload '{"assessment_id":"q1","score":88}'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, err := requireStudent(cmd)
		if err != nil {
			return err
		}
		typ, _ := cmd.Flags().GetString("type")
		payload, _ := cmd.Flags().GetString("payload")
		asJSON, _ := cmd.Flags().GetBool("json")
		if !json.Valid([]byte(payload)) {
			return fmt.Errorf("--payload is not valid JSON")
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		engine := adaptive.NewEngine(e.store.PathRepo(), e.store.EventRepo(), e.loader, e.log)
		view, err := engine.HandleEvent(cmd.Context(), adaptive.Event{
			StudentID:  studentID,
			Type:       typ,
			Payload:    json.RawMessage(payload),
			OccurredAt: time.Now(),
		})
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(view)
		}
		printAdaptive(view)
		for _, r := range view.Adaptive.Inserted {
			fmt.Printf("Insert:         %s %v -> %s\n", r.Reason, r.Standards, r.Outcome)
		}
		return nil
	},
}

func init() {
	f := eventCmd.Flags()
	f.String("student", "", "Student id")
	f.String("type", "practice_answered", "Event type")
	f.String("payload", "{}", "Event payload as JSON")
	f.Bool("json", false, "Print the refreshed view as JSON")
}

func printAdaptive(v *adaptive.View) {
	a := v.Adaptive
	acc := "n/a"
	if a.RollingAccuracy != nil {
		acc = fmt.Sprintf("%.0f%%", *a.RollingAccuracy*100)
	}
	fmt.Printf("Difficulty:     L%d (streak %d)\n", a.TargetDifficulty, a.DifficultyStreak)
	if a.Change != nil {
		fmt.Printf("Change:         L%d -> L%d (%s)\n", a.Change.From, a.Change.To, a.Change.Reason)
	}
	fmt.Printf("Accuracy:       %s, %s\n", acc, a.Band.Label())
	fmt.Printf("Misconceptions: %v\n", a.Misconceptions)
	if a.Struggle {
		fmt.Println("Struggling:     yes")
	}
	if v.Next != nil {
		fmt.Printf("Next:           %s (%s, #%d)\n", v.Next.Title(), v.Next.Type, v.Next.Position)
	} else {
		fmt.Println("Next:           nothing pending")
	}
}
