package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/insights"
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Show a student's activity over the last seven days",
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

		sum, err := insights.NewService(e.store.EventRepo(), e.loader, e.log).Weekly(cmd.Context(), studentID, time.Now())
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(sum)
		}

		if sum.Degraded {
			fmt.Println("Activity log unavailable; showing an empty week.")
		}
		acc := "n/a"
		if sum.RollingAccuracy != nil {
			acc = fmt.Sprintf("%.0f%%", *sum.RollingAccuracy*100)
		}
		fmt.Printf("Week:           %s to %s\n", sum.From.Local().Format(time.DateOnly), sum.To.Local().Format(time.DateOnly))
		fmt.Printf("Active days:    %d\n", sum.ActiveDays)
		fmt.Printf("Practice:       %d answered, %d correct\n", sum.PracticeAnswered, sum.PracticeCorrect)
		fmt.Printf("Quizzes:        %d\n", sum.QuizzesSubmitted)
		fmt.Printf("Lessons:        %d started, %d completed\n", sum.LessonsStarted, sum.LessonsCompleted)
		fmt.Printf("Time spent:     %s\n", (time.Duration(sum.TimeSpentSeconds) * time.Second).String())
		fmt.Printf("Accuracy:       %s, %s\n", acc, sum.Band.Label())
		fmt.Printf("Misconceptions: %v\n", sum.Misconceptions)
		if sum.Struggle {
			fmt.Println("Struggling:     yes")
		}
		return nil
	},
}

func init() {
	insightsCmd.Flags().String("student", "", "Student id")
	insightsCmd.Flags().Bool("json", false, "Print the summary as JSON")
}
