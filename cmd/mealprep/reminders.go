package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"meal-prep-companion/internal/reminder"

	"github.com/spf13/cobra"
)

var (
	remindersEnabled      bool
	remindersPrep         bool
	remindersTimers       bool
	remindersDay          string
	remindersTime         string
	remindersQuiet        bool
	remindersQuietStart   string
	remindersQuietEnd     string
	remindersLead         int
	remindersDailyDay     string
	remindersDailyHour    int
	remindersDailyMinute  int
	remindersDailyDisable bool
)

// remindersCmd configures and triggers reminders
var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "Configure, test and trigger meal prep reminders",
}

var remindersShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show reminder settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine := application.Reminders
		printSettings(cmd.OutOrStdout(), engine.Settings())
		if r, ok := engine.DailyReminder(cmd.Context()); ok {
			fmt.Fprintf(cmd.OutOrStdout(), "Daily reminder:      %s from %02d:%02d (enabled: %t)\n",
				time.Weekday(r.DayOfWeek), r.Hour, r.Minute, r.Enabled)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Permission:          %s\n", engine.Permission(cmd.Context()))
		return nil
	},
}

var remindersSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change reminder settings; unset flags keep their current value",
	Example: `  mealprep reminders set --day saturday --time 09:30
  mealprep reminders set --quiet --quiet-start 21:00 --quiet-end 07:30`,
	Args: cobra.NoArgs,
	RunE: runRemindersSet,
}

var remindersTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Send a test notification",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sent, err := application.Reminders.TestNotification(cmd.Context())
		if err != nil {
			return err
		}
		printSent(cmd.OutOrStdout(), sent)
		return nil
	},
}

var remindersDailyCmd = &cobra.Command{
	Use:   "schedule-daily",
	Short: "Schedule the daily meal prep reminder",
	Args:  cobra.NoArgs,
	RunE:  runRemindersDaily,
}

var remindersTimerCmd = &cobra.Command{
	Use:   "timer <meal> <minutes>",
	Short: "Send a cooking timer notification",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		minutes, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid minutes %q: %w", args[1], err)
		}
		sent, err := application.Reminders.SendCookingTimer(cmd.Context(), args[0], minutes)
		if err != nil {
			return err
		}
		printSent(cmd.OutOrStdout(), sent)
		return nil
	},
}

var remindersCookingCmd = &cobra.Command{
	Use:   "cooking-reminder <meal> <HH:MM>",
	Short: "Send the cooking reminder if a meal planned at HH:MM today is within the lead time",
	Args:  cobra.ExactArgs(2),
	RunE:  runRemindersCooking,
}

var remindersCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Run the scheduled reminder checks once",
	Args:  cobra.NoArgs,
	RunE:  runRemindersCheck,
}

func init() {
	f := remindersSetCmd.Flags()
	f.BoolVar(&remindersEnabled, "enabled", true, "enable notifications")
	f.BoolVar(&remindersPrep, "prep-reminders", true, "enable the weekly meal prep reminder")
	f.BoolVar(&remindersTimers, "timers", true, "enable cooking timers")
	f.StringVar(&remindersDay, "day", "", "weekly prep day (sunday..saturday or 0-6)")
	f.StringVar(&remindersTime, "time", "", "weekly prep time, HH:MM")
	f.BoolVar(&remindersQuiet, "quiet", false, "enable quiet hours")
	f.StringVar(&remindersQuietStart, "quiet-start", "", "quiet hours start, HH:MM")
	f.StringVar(&remindersQuietEnd, "quiet-end", "", "quiet hours end, HH:MM")
	f.IntVar(&remindersLead, "lead", 0, "cooking reminder lead time in minutes")

	remindersDailyCmd.Flags().StringVar(&remindersDailyDay, "day", "sunday", "day of week (sunday..saturday or 0-6)")
	remindersDailyCmd.Flags().IntVar(&remindersDailyHour, "hour", 10, "hour of day, 0-23")
	remindersDailyCmd.Flags().IntVar(&remindersDailyMinute, "minute", 0, "minute, 0-59")
	remindersDailyCmd.Flags().BoolVar(&remindersDailyDisable, "disable", false, "turn the daily reminder off")

	remindersCmd.AddCommand(remindersShowCmd)
	remindersCmd.AddCommand(remindersSetCmd)
	remindersCmd.AddCommand(remindersTestCmd)
	remindersCmd.AddCommand(remindersDailyCmd)
	remindersCmd.AddCommand(remindersTimerCmd)
	remindersCmd.AddCommand(remindersCookingCmd)
	remindersCmd.AddCommand(remindersCheckCmd)
}

func runRemindersSet(cmd *cobra.Command, args []string) error {
	s := application.Reminders.Settings()
	flags := cmd.Flags()

	if flags.Changed("enabled") {
		s.Enabled = remindersEnabled
	}
	if flags.Changed("prep-reminders") {
		s.MealPrepReminders = remindersPrep
	}
	if flags.Changed("timers") {
		s.CookingTimers = remindersTimers
	}
	if flags.Changed("day") {
		day, err := parseWeekday(remindersDay)
		if err != nil {
			return err
		}
		s.WeeklyPrepDay = day
	}
	if flags.Changed("time") {
		s.WeeklyPrepTime = remindersTime
	}
	if flags.Changed("quiet") {
		s.QuietHoursEnabled = remindersQuiet
	}
	if flags.Changed("quiet-start") {
		s.QuietHoursStart = remindersQuietStart
	}
	if flags.Changed("quiet-end") {
		s.QuietHoursEnd = remindersQuietEnd
	}
	if flags.Changed("lead") {
		s.ReminderLeadTime = remindersLead
	}

	if err := application.Reminders.SaveSettings(cmd.Context(), s); err != nil {
		return err
	}
	printSettings(cmd.OutOrStdout(), s)
	return nil
}

func runRemindersDaily(cmd *cobra.Command, args []string) error {
	day, err := parseWeekday(remindersDailyDay)
	if err != nil {
		return err
	}
	if remindersDailyDisable {
		if err := application.Reminders.DisableDailyReminder(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Daily reminder disabled")
		return nil
	}
	if err := application.Reminders.ScheduleDailyReminder(cmd.Context(), day, remindersDailyHour, remindersDailyMinute); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Daily reminder scheduled for %s from %02d:%02d\n",
		time.Weekday(day), remindersDailyHour, remindersDailyMinute)
	return nil
}

func runRemindersCooking(cmd *cobra.Command, args []string) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	at, err := time.ParseInLocation("15:04", args[1], loc)
	if err != nil {
		return fmt.Errorf("invalid cooking time %q: use HH:MM", args[1])
	}
	now := time.Now().In(loc)
	cookingTime := time.Date(now.Year(), now.Month(), now.Day(), at.Hour(), at.Minute(), 0, 0, loc)

	sent, err := application.Reminders.SendCookingReminder(cmd.Context(), args[0], cookingTime)
	if err != nil {
		return err
	}
	printSent(cmd.OutOrStdout(), sent)
	return nil
}

func runRemindersCheck(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	engine := application.Reminders
	now := time.Now()

	weekly, err := engine.CheckWeeklyReminder(ctx, now)
	if err != nil {
		return err
	}
	daily, err := engine.CheckDailyReminder(ctx, now)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Weekly reminder sent: %t\nDaily reminder sent:  %t\n", weekly, daily)
	return nil
}

// parseWeekday accepts a weekday name (full or three-letter) or its number, 0 being Sunday.
func parseWeekday(s string) (int, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("day of week must be 0-6, got %d", n)
		}
		return n, nil
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := strings.ToLower(d.String())
		if s == name || s == name[:3] {
			return int(d), nil
		}
	}
	return 0, fmt.Errorf("unknown day of week %q", s)
}

func printSettings(w io.Writer, s reminder.Settings) {
	fmt.Fprintf(w, "Enabled:             %t\n", s.Enabled)
	fmt.Fprintf(w, "Meal prep reminders: %t\n", s.MealPrepReminders)
	fmt.Fprintf(w, "Cooking timers:      %t\n", s.CookingTimers)
	fmt.Fprintf(w, "Weekly prep:         %s %s\n", time.Weekday(s.WeeklyPrepDay), s.WeeklyPrepTime)
	fmt.Fprintf(w, "Quiet hours:         %t (%s-%s)\n", s.QuietHoursEnabled, s.QuietHoursStart, s.QuietHoursEnd)
	fmt.Fprintf(w, "Reminder lead time:  %d minutes\n", s.ReminderLeadTime)
}

func printSent(w io.Writer, sent bool) {
	if sent {
		fmt.Fprintln(w, "Notification sent")
		return
	}
	fmt.Fprintln(w, "Notification suppressed (disabled, quiet hours or no permission)")
}
