package main

import (
	"context"
	"time"

	"redscraper/pkg/config"
	"redscraper/pkg/creds"
	"redscraper/pkg/database"
	"redscraper/pkg/logger"
	"redscraper/pkg/notify"
	"redscraper/pkg/scraper"
	"redscraper/pkg/ui"
)

func runScrape(ctx context.Context, cfg *config.Config, target string) error {
	parsedMode, err := scraper.ParseMode(mode)
	if err != nil {
		return err
	}
	if limit == 0 {
		limit = cfg.Scraper.DefaultLimit
	}

	applyStoredCreds(cfg)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	notifiers := buildNotifiers(cfg)

	s := scraper.New(cfg, db, notifiers, logger.GetLogger())
	opts := scraper.Options{
		Target:        target,
		IsUser:        isUser,
		Mode:          parsedMode,
		Limit:         limit,
		NoMedia:       noMedia,
		NoComments:    noComments,
		Resume:        resume,
		ForceRestart:  forceRestart,
		AlertNewPosts: parsedMode == scraper.ModeMonitor,
	}

	ui.PrintInfo("Scraping %s (mode: %s, limit: %d)", target, parsedMode, limit)

	res, err := s.Run(ctx, opts)
	if err != nil {
		return err
	}

	ui.PrintHeader("Done")
	ui.PrintKeyValue("New posts", res.NewPosts)
	ui.PrintKeyValue("New comments", res.NewComments)
	ui.PrintKeyValue("Media files", res.MediaFiles)
	ui.PrintKeyValue("Duration", res.Duration.Round(time.Second))
	if res.PartialErr != nil {
		ui.PrintWarning("Pagination ended early: %v", res.PartialErr)
	}
	return nil
}

// applyStoredCreds fills in notification credentials from the secure
// store when the flags and environment left them empty.
func applyStoredCreds(cfg *config.Config) {
	if credsProfile == "" || cfg.Notifications.Enabled() {
		return
	}
	manager, err := creds.NewManager()
	if err != nil {
		logger.GetLogger().WithError(err).Debug("Credential store unavailable")
		return
	}
	secrets, err := manager.Load(credsProfile)
	if err != nil {
		logger.GetLogger().WithError(err).WithField("profile", credsProfile).
			Warn("No stored credentials for profile")
		return
	}
	if cfg.Notifications.DiscordWebhookURL == "" {
		cfg.Notifications.DiscordWebhookURL = secrets.DiscordWebhookURL
	}
	if cfg.Notifications.TelegramBotToken == "" {
		cfg.Notifications.TelegramBotToken = secrets.TelegramBotToken
	}
	if cfg.Notifications.TelegramChatID == "" {
		cfg.Notifications.TelegramChatID = secrets.TelegramChatID
	}
}

func openDatabase(cfg *config.Config) (*database.DB, error) {
	if !cfg.Output.DatabaseEnabled {
		return nil, nil
	}
	db, err := database.New(cfg.Output.DatabasePath)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func buildNotifiers(cfg *config.Config) notify.Notifier {
	var channels notify.Multi
	if cfg.Notifications.DiscordWebhookURL != "" {
		channels = append(channels, notify.NewDiscord(cfg.Notifications.DiscordWebhookURL))
	}
	if cfg.Notifications.TelegramBotToken != "" && cfg.Notifications.TelegramChatID != "" {
		channels = append(channels, notify.NewTelegram(cfg.Notifications.TelegramBotToken, cfg.Notifications.TelegramChatID))
	}
	if len(channels) == 0 {
		return nil
	}
	return channels
}
