package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"meal-prep-companion/internal/analytics"
	"meal-prep-companion/internal/cooking"

	"github.com/spf13/cobra"
)

var (
	statsJSON  bool
	statsLimit int
	statsDays  int
)

// statsCmd reports statistics derived from the event log
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show cooking statistics",
}

var statsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show the dashboard summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := application.Tracker.Summary()
		if statsJSON {
			return writeJSON(cmd.OutOrStdout(), s)
		}
		printSummary(cmd.OutOrStdout(), s)
		return nil
	},
}

var statsStreakCmd = &cobra.Command{
	Use:   "streak",
	Short: "Show the current cooking streak in days",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), application.Tracker.CookingStreak())
		return nil
	},
}

var statsHistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List completed cooking sessions, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		history := application.Tracker.History(statsLimit)
		if statsJSON {
			return writeJSON(cmd.OutOrStdout(), history)
		}
		printHistory(cmd.OutOrStdout(), history)
		return nil
	},
}

var statsNutritionCmd = &cobra.Command{
	Use:   "nutrition",
	Short: "Show daily nutrition totals of cooked meals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		log := application.Tracker.NutritionLog(statsDays)
		if statsJSON {
			return writeJSON(cmd.OutOrStdout(), log)
		}
		printNutrition(cmd.OutOrStdout(), log)
		return nil
	},
}

func init() {
	statsCmd.PersistentFlags().BoolVar(&statsJSON, "json", false, "print JSON")
	statsHistoryCmd.Flags().IntVar(&statsLimit, "limit", analytics.DefaultHistoryLimit, "maximum number of sessions")
	statsNutritionCmd.Flags().IntVar(&statsDays, "days", analytics.DefaultNutritionDays, "number of days to include")

	statsCmd.AddCommand(statsSummaryCmd)
	statsCmd.AddCommand(statsStreakCmd)
	statsCmd.AddCommand(statsHistoryCmd)
	statsCmd.AddCommand(statsNutritionCmd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSummary(w io.Writer, s analytics.Summary) {
	fmt.Fprintf(w, "Current streak:      %d days\n", s.CurrentStreak)
	fmt.Fprintf(w, "Meals this week:     %d\n", s.MealsThisWeek)
	fmt.Fprintf(w, "Cooking sessions:    %d (%d completed)\n", s.TotalCookingSessions, s.CompletedCookingSessions)
	fmt.Fprintf(w, "Average rating:      %.1f\n", s.AverageRating)
	fmt.Fprintf(w, "Plan views:          %d\n", s.TotalViews)
	fmt.Fprintf(w, "Shopping list checks: %d\n", s.ShoppingListsChecked)
}

func printHistory(w io.Writer, history []analytics.HistoryEntry) {
	if len(history) == 0 {
		fmt.Fprintln(w, "No completed cooking sessions yet.")
		return
	}
	for _, h := range history {
		rating := "-"
		if h.Rating != nil {
			rating = strings.Repeat("★", *h.Rating)
		}
		fmt.Fprintf(w, "%s  %-30s %8s  %s\n", h.Date, h.PlanName, cooking.FormatElapsed(h.ElapsedSeconds), rating)
	}
}

func printNutrition(w io.Writer, log []analytics.NutritionDay) {
	if len(log) == 0 {
		fmt.Fprintln(w, "No meals cooked in this period.")
		return
	}
	for _, d := range log {
		fmt.Fprintf(w, "%s  %4.0f kcal  P %3.0fg  C %3.0fg  F %3.0fg  %s\n",
			d.Date, d.Calories, d.Protein, d.Carbs, d.Fats, strings.Join(d.Meals, ", "))
	}
}
