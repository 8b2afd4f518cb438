package main

import (
	"fmt"
	"strconv"
	"strings"

	"meal-prep-companion/internal/cooking"

	"github.com/spf13/cobra"
)

var (
	progressStep    int
	progressDone    string
	progressElapsed int
	progressAll     bool
)

// progressCmd manages cooking-mode progress
var progressCmd = &cobra.Command{
	Use:   "progress",
	Short: "Save, show and clear cooking-mode progress",
}

var progressSaveCmd = &cobra.Command{
	Use:     "save <plan>",
	Short:   "Save the current step, completed steps and elapsed time of a plan",
	Example: `  mealprep progress save week1-meals --step 2 --done 1,1,0,0,0 --elapsed 754`,
	Args:    cobra.ExactArgs(1),
	RunE:    runProgressSave,
}

var progressShowCmd = &cobra.Command{
	Use:   "show <plan>",
	Short: "Show the saved progress of a plan",
	Args:  cobra.ExactArgs(1),
	RunE:  runProgressShow,
}

var progressClearCmd = &cobra.Command{
	Use:   "clear [plan]",
	Short: "Clear the progress of one plan, or of every plan with --all",
	Args:  progressClearArgs,
	RunE:  runProgressClear,
}

func progressClearArgs(cmd *cobra.Command, args []string) error {
	if progressAll {
		return cobra.NoArgs(cmd, args)
	}
	return cobra.ExactArgs(1)(cmd, args)
}

func init() {
	progressSaveCmd.Flags().IntVar(&progressStep, "step", 0, "current step index")
	progressSaveCmd.Flags().StringVar(&progressDone, "done", "", "comma-separated step completions, e.g. 1,0,1")
	progressSaveCmd.Flags().IntVar(&progressElapsed, "elapsed", 0, "elapsed cooking time in seconds")
	progressClearCmd.Flags().BoolVar(&progressAll, "all", false, "clear every plan")

	progressCmd.AddCommand(progressSaveCmd)
	progressCmd.AddCommand(progressShowCmd)
	progressCmd.AddCommand(progressClearCmd)
}

func runProgressSave(cmd *cobra.Command, args []string) error {
	completions, err := parseCompletions(progressDone)
	if err != nil {
		return err
	}
	in := cooking.ProgressInput{
		CurrentStep:     progressStep,
		StepCompletions: completions,
		ElapsedSeconds:  progressElapsed,
	}
	if err := application.Progress.Save(cmd.Context(), args[0], in); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved progress for %s: step %d, %d%% complete\n",
		args[0], in.CurrentStep, cooking.ProgressPercentage(completions))
	return nil
}

func runProgressShow(cmd *cobra.Command, args []string) error {
	planID := args[0]
	p := application.Progress.Load(cmd.Context(), planID, application.Catalog.TotalSteps(planID))

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Plan:      %s\n", planID)
	fmt.Fprintf(out, "Step:      %d\n", p.CurrentStep)
	fmt.Fprintf(out, "Complete:  %d%%\n", cooking.ProgressPercentage(p.StepCompletions))
	fmt.Fprintf(out, "Elapsed:   %s\n", cooking.FormatElapsed(p.ElapsedSeconds))
	if !p.LastUpdated.IsZero() {
		fmt.Fprintf(out, "Updated:   %s\n", p.LastUpdated.Local().Format("2006-01-02 15:04"))
	}

	plan, _ := application.Catalog.ByID(planID)
	for i, done := range p.StepCompletions {
		mark := "☐"
		if done {
			mark = "☑"
		}
		title := fmt.Sprintf("Step %d", i+1)
		if i < len(plan.CookingSteps) && plan.CookingSteps[i].Title != "" {
			title = plan.CookingSteps[i].Title
		}
		fmt.Fprintf(out, "  %s %s\n", mark, title)
	}
	return nil
}

func runProgressClear(cmd *cobra.Command, args []string) error {
	if progressAll {
		if err := application.Progress.ClearAll(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Cleared all cooking progress")
		return nil
	}
	if err := application.Progress.Clear(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Cleared cooking progress for %s\n", args[0])
	return nil
}

// parseCompletions reads "1,0,true,false" style step completions.
func parseCompletions(s string) ([]bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []bool{}, nil
	}
	parts := strings.Split(s, ",")
	out := make([]bool, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseBool(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid step completion %q: use 1/0 or true/false", part)
		}
		out = append(out, v)
	}
	return out, nil
}
