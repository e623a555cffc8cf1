package main

import (
	"context"
	"fmt"
	"time"

	"redscraper/pkg/config"
	"redscraper/pkg/logger"
	"redscraper/pkg/schedule"
	"redscraper/pkg/scraper"
	"redscraper/pkg/ui"
)

func runSchedule(ctx context.Context, cfg *config.Config) error {
	if scheduleEvery <= 0 {
		return fmt.Errorf("--every must be a positive number of minutes, got %d", scheduleEvery)
	}
	if err := scraper.ValidateTarget(scheduleTarget); err != nil {
		return err
	}

	applyStoredCreds(cfg)

	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	s := scraper.New(cfg, db, buildNotifiers(cfg), logger.GetLogger())
	opts := scraper.Options{
		Target:     scheduleTarget,
		IsUser:     isUser,
		Mode:       scraper.ModeFull,
		Limit:      limit,
		NoMedia:    noMedia,
		NoComments: noComments,
	}

	sched := schedule.New(logger.GetLogger())
	sched.Add(&schedule.Job{
		Name:     "scrape_" + scheduleTarget,
		Interval: time.Duration(scheduleEvery) * time.Minute,
		Run: func(ctx context.Context) error {
			_, err := s.Run(ctx, opts)
			return err
		},
	})

	ui.PrintInfo("Scraping %s every %d minutes; press Ctrl-C to stop", scheduleTarget, scheduleEvery)
	sched.Start(ctx)
	return nil
}
