package main

import (
	"context"

	"redscraper/pkg/config"
	"redscraper/pkg/dashboard"
	"redscraper/pkg/database"
	"redscraper/pkg/logger"
	"redscraper/pkg/ui"
)

func runDashboard(ctx context.Context, cfg *config.Config) error {
	db, err := database.New(cfg.Output.DatabasePath)
	if err != nil {
		return err
	}
	defer db.Close()

	srv := dashboard.New(db, logger.GetLogger())
	ui.PrintInfo("Dashboard on http://localhost%s (Ctrl-C to stop)", cfg.Dashboard.Addr)
	return srv.ListenAndServe(ctx, cfg.Dashboard.Addr)
}
