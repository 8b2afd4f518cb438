package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"sync"
	"syscall"

	"meal-prep-companion/internal/app"
	"meal-prep-companion/internal/config"
	"meal-prep-companion/internal/logging"
	"meal-prep-companion/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

func main() {
	configFile := flag.String("config", "", "config file (default: mealprep.yaml in ./config, . or $HOME/.mealprep)")
	flag.Parse()

	// 1. Load Configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == 0 {
		log.Fatal("telegram.bot_token and telegram.chat_id must be set")
	}

	logger, err := logging.New(logging.Config(cfg.Logger))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Telegram
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Fatal("Failed to connect to Telegram", zap.Error(err))
	}
	logger.Info("Authorized on account", zap.String("username", api.Self.UserName))

	// 3. Initialize the application on the Telegram platform
	platform := telegram.NewPlatform(api, cfg.Telegram.ChatID, cfg.Telegram.RatePerSecond, logger)
	application, err := app.New(ctx, cfg, logger, platform)
	if err != nil {
		logger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	// 4. Start the update loop and the reminder engine
	bot := telegram.NewBot(api, cfg.Telegram.ChatID, application.Tracker, application.Health, logger)
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		bot.Run(ctx, updates)
	}()
	go func() {
		defer wg.Done()
		if err := application.Reminders.Run(ctx); err != nil {
			logger.Error("Reminder engine failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down reminder bot...")
	api.StopReceivingUpdates()
	wg.Wait()
	logger.Info("Reminder bot exiting")
}
