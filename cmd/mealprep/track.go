package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	trackElapsed    int
	trackIncomplete bool
)

// trackCmd records analytics events
var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Record plan views, cooking sessions, ratings and shopping activity",
}

var trackViewCmd = &cobra.Command{
	Use:   "view <plan>",
	Short: "Record a plan view",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application.Tracker.RecordView(cmd.Context(), args[0])
		return nil
	},
}

var trackStartCmd = &cobra.Command{
	Use:   "start <plan>",
	Short: "Start a cooking session and print its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := application.Tracker.StartCookingSession(cmd.Context(), args[0])
		fmt.Fprintln(cmd.OutOrStdout(), id)
		return nil
	},
}

var trackCompleteCmd = &cobra.Command{
	Use:   "complete <session-id>",
	Short: "Finish a cooking session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application.Tracker.CompleteCookingSession(cmd.Context(), args[0], trackElapsed, !trackIncomplete)
		return nil
	},
}

var trackRateCmd = &cobra.Command{
	Use:   "rate <plan> <1-5>",
	Short: "Rate a cooked plan",
	Args:  cobra.ExactArgs(2),
	RunE:  runTrackRate,
}

var trackShoppingCmd = &cobra.Command{
	Use:   "shopping <plan> <checked> <total>",
	Short: "Record how much of a shopping list is checked",
	Args:  cobra.ExactArgs(3),
	RunE:  runTrackShopping,
}

func init() {
	trackCompleteCmd.Flags().IntVar(&trackElapsed, "elapsed", 0, "cooking time in seconds")
	trackCompleteCmd.Flags().BoolVar(&trackIncomplete, "incomplete", false, "mark the session as abandoned")

	trackCmd.AddCommand(trackViewCmd)
	trackCmd.AddCommand(trackStartCmd)
	trackCmd.AddCommand(trackCompleteCmd)
	trackCmd.AddCommand(trackRateCmd)
	trackCmd.AddCommand(trackShoppingCmd)
}

func runTrackRate(cmd *cobra.Command, args []string) error {
	rating, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid rating %q: %w", args[1], err)
	}
	return application.Tracker.RecordRating(cmd.Context(), args[0], rating)
}

func runTrackShopping(cmd *cobra.Command, args []string) error {
	checked, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("invalid checked count %q: %w", args[1], err)
	}
	total, err := strconv.Atoi(args[2])
	if err != nil {
		return fmt.Errorf("invalid total count %q: %w", args[2], err)
	}
	application.Tracker.RecordShoppingActivity(cmd.Context(), args[0], checked, total)
	return nil
}
