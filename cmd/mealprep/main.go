package main

import (
	"context"
	"fmt"
	"os"

	"meal-prep-companion/internal/app"
	"meal-prep-companion/internal/config"
	"meal-prep-companion/internal/logging"
	"meal-prep-companion/internal/notify"
	"meal-prep-companion/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	configFile string
	verbose    bool

	cfg         *config.Config
	logger      *zap.Logger
	application *app.App
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "mealprep",
	Short: "Meal prep companion: cooking progress, stats, shopping lists and reminders",
	Long: `mealprep keeps the state behind the weekly meal plans: where you are in
cooking mode, what you cooked and how you rated it, which shopping items are
checked, and when to remind you to prep.

Configuration is read from mealprep.yaml (see --config) and MEALPREP_* variables.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		logCfg := logging.Config(cfg.Logger)
		if verbose {
			logCfg.Level = "debug"
		}
		logger, err = logging.New(logCfg)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		application, err = app.New(cmd.Context(), cfg, logger, newPlatform(cfg, logger))
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if application != nil {
			if err := application.Close(); err != nil {
				logger.Warn("Failed to close database", zap.Error(err))
			}
			application = nil
		}
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

// newPlatform delivers through Telegram when a bot token is configured, and to the log otherwise.
func newPlatform(cfg *config.Config, logger *zap.Logger) notify.Platform {
	if cfg.Telegram.BotToken == "" {
		return notify.NewLogPlatform(logger)
	}
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn("Telegram unavailable, notifications will be logged", zap.Error(err))
		return notify.NewLogPlatform(logger)
	}
	return telegram.NewPlatform(api, cfg.Telegram.ChatID, cfg.Telegram.RatePerSecond, logger)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default: mealprep.yaml in ./config, . or $HOME/.mealprep)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(progressCmd)
	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(shoppingCmd)
	rootCmd.AddCommand(remindersCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(pwaCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
