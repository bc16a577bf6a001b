package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/pathwise/internal/learningpath"
	"github.com/abhisek/pathwise/internal/placement"
)

var placeCmd = &cobra.Command{
	Use:   "place",
	Short: "Score a placement assessment and seed the student's path",
	Example: `  pathwise place --student s1 --band 3-5 --answers q1=b,q2=b,q3=a
  pathwise place --student s1 --band 3-5 --grade 4 --responses answers.json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		studentID, err := requireStudent(cmd)
		if err != nil {
			return err
		}
		assessment, _ := cmd.Flags().GetString("assessment")
		band, _ := cmd.Flags().GetString("band")
		goal, _ := cmd.Flags().GetString("goal")
		asJSON, _ := cmd.Flags().GetBool("json")

		responses, err := readResponses(cmd)
		if err != nil {
			return err
		}
		req := placement.SubmitRequest{
			StudentID:    studentID,
			AssessmentID: assessment,
			Responses:    responses,
			GradeBand:    band,
			GoalFocus:    goal,
		}
		if g, _ := cmd.Flags().GetString("grade"); g != "" {
			grade, err := placement.ParseGrade(g)
			if err != nil {
				return err
			}
			req.Grade = &grade
		}

		e, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer e.Close()

		paths := learningpath.NewService(e.store.PathRepo(), e.log)
		builder := placement.NewBuilder(e.store.CatalogRepo(), paths, e.log)
		svc := placement.NewService(e.store.PlacementRepo(), e.store.EventRepo(), builder, e.loader, e.log)

		res, err := svc.Submit(cmd.Context(), req)
		if err != nil {
			return err
		}
		if asJSON {
			return printJSON(res)
		}

		fmt.Printf("Mastery:    %d%% (%.1f of %.1f weight, %d answered)\n",
			res.Result.MasteryPct, res.Result.EarnedWeight, res.Result.TotalWeight, res.Result.Answered)
		for _, s := range res.Result.StrandEstimates {
			fmt.Printf("  %-30s %3d%%  (%d/%d)\n", s.Strand, s.AccuracyPct, s.Correct, s.Total)
		}
		meta := res.Path.Path.Metadata
		fmt.Printf("Path:       %s seeded from %s tier, %d entries\n", res.Path.Path.ID, res.Seed, len(res.Path.Entries))
		fmt.Printf("Difficulty: L%d\n", meta.Adaptive.CurrentDifficulty)
		if res.Next != nil {
			fmt.Printf("Next:       %s\n", res.Next.Title())
		}
		return nil
	},
}

func init() {
	f := placeCmd.Flags()
	f.String("student", "", "Student id")
	f.String("assessment", "placement-3-5", "Placement assessment id")
	f.String("band", "3-5", "Grade band, e.g. 3-5 or K-2")
	f.String("grade", "", "Exact grade within the band")
	f.String("goal", "", "Goal focus recorded on the path")
	f.String("answers", "", "Comma-separated question=option pairs")
	f.String("responses", "", "JSON file with [{\"question_id\":..,\"option_id\":..}]")
	f.Bool("json", false, "Print the full result as JSON")
}

func readResponses(cmd *cobra.Command) ([]placement.Response, error) {
	if file, _ := cmd.Flags().GetString("responses"); file != "" {
		raw, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read responses: %w", err)
		}
		var out []placement.Response
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("decode responses: %w", err)
		}
		return out, nil
	}

	answers, _ := cmd.Flags().GetString("answers")
	var out []placement.Response
	for _, pair := range strings.Split(answers, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		q, o, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid answer %q, want question=option", pair)
		}
		out = append(out, placement.Response{QuestionID: strings.TrimSpace(q), OptionID: strings.TrimSpace(o)})
	}
	return out, nil
}
