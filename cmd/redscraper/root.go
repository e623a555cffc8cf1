package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"redscraper/pkg/config"
	"redscraper/pkg/logger"
	"redscraper/pkg/ui"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"
)

// Flag values, merged into the config at startup.
var (
	configFile string
	logLevel   string
	noColor    bool
	dataDir    string
	rateLimit  int
	noDatabase bool

	mode         string
	isUser       bool
	limit        int
	noMedia      bool
	noComments   bool
	resume       bool
	forceRestart bool

	discordWebhook string
	telegramToken  string
	telegramChat   string
	credsProfile   string

	dashboardFlag bool
	dashboardAddr string

	searchQuery    string
	searchMinScore int
	searchAuthor   string
	searchSub      string
	searchType     string

	analyzeTarget    string
	analyzeSentiment bool
	analyzeKeywords  bool

	scheduleTarget string
	scheduleEvery  int
)

var rootCmd = &cobra.Command{
	Use:   "redscraper [flags] <target>",
	Short: "Scrape posts, comments, and media from reddit mirrors",
	Long: `redscraper fetches posts, comments, and media for a subreddit or user,
stores them as CSV tables and media files under a per-target directory,
and mirrors the rows into SQLite for search and analytics.

Fetches go through old.reddit.com first and fall back to redlib mirrors
when it is unreachable. Re-running against the same target only appends
rows it has not seen before.

Modes:
  full      posts, comments, and media (default)
  history   post metadata only
  monitor   poll for new posts until interrupted`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	Args:    cobra.MaximumNArgs(1),
	RunE:    run,
}

// Execute runs the CLI with the given base context.
func Execute(ctx context.Context) {
	rootCmd.SetContext(ctx)
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("%v", err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.Flags()

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is $HOME/.redscraper.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "output directory (default data)")
	rootCmd.PersistentFlags().IntVar(&rateLimit, "rate-limit", 0, "page requests per minute")
	rootCmd.PersistentFlags().BoolVar(&noDatabase, "no-database", false, "skip the SQLite mirror")

	flags.StringVar(&mode, "mode", "full", "scrape mode: full, history, or monitor")
	flags.BoolVar(&isUser, "user", false, "treat the target as a username instead of a subreddit")
	flags.IntVar(&limit, "limit", 0, "maximum number of posts to fetch (0 = config default)")
	flags.BoolVar(&noMedia, "no-media", false, "skip media downloads")
	flags.BoolVar(&noComments, "no-comments", false, "skip comment scraping")
	flags.BoolVar(&resume, "resume", false, "resume from the last checkpoint")
	flags.BoolVar(&forceRestart, "force-restart", false, "discard any checkpoint and start over")

	flags.StringVar(&discordWebhook, "discord-webhook", "", "Discord webhook URL for notifications")
	flags.StringVar(&telegramToken, "telegram-token", "", "Telegram bot token for notifications")
	flags.StringVar(&telegramChat, "telegram-chat", "", "Telegram chat id for notifications")
	flags.StringVar(&credsProfile, "creds-profile", "", "load notification credentials from a stored profile")

	flags.BoolVar(&dashboardFlag, "dashboard", false, "serve the stats dashboard instead of scraping")
	flags.StringVar(&dashboardAddr, "dashboard-addr", "", "dashboard listen address (default :8501)")

	flags.StringVar(&searchQuery, "search", "", "search stored posts instead of scraping")
	flags.IntVar(&searchMinScore, "min-score", 0, "minimum score filter for --search")
	flags.StringVar(&searchAuthor, "author", "", "author filter for --search")
	flags.StringVar(&searchSub, "subreddit", "", "subreddit filter for --search")
	flags.StringVar(&searchType, "type", "", "post type filter for --search")

	flags.StringVar(&analyzeTarget, "analyze", "", "analyze a stored target instead of scraping")
	flags.BoolVar(&analyzeSentiment, "sentiment", false, "run sentiment analysis with --analyze")
	flags.BoolVar(&analyzeKeywords, "keywords", false, "extract keywords with --analyze")

	flags.StringVar(&scheduleTarget, "schedule", "", "run repeated scrapes of a target")
	flags.IntVar(&scheduleEvery, "every", 60, "minutes between scheduled runs")

	rootCmd.AddCommand(credsCmd)
	rootCmd.SetVersionTemplate(`redscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func run(cmd *cobra.Command, args []string) error {
	ui.SetNoColor(noColor)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}

	ctx := cmd.Context()

	switch {
	case dashboardFlag:
		return runDashboard(ctx, cfg)
	case searchQuery != "":
		return runSearch(cfg)
	case analyzeTarget != "":
		return runAnalyze(cfg)
	case scheduleTarget != "":
		return runSchedule(ctx, cfg)
	}

	if len(args) != 1 {
		return fmt.Errorf("a target is required unless --dashboard, --search, --analyze, or --schedule is given")
	}
	return runScrape(ctx, cfg, args[0])
}

func loadConfig() (*config.Config, error) {
	flags := make(map[string]interface{})
	if discordWebhook != "" {
		flags["discord-webhook"] = discordWebhook
	}
	if telegramToken != "" {
		flags["telegram-token"] = telegramToken
	}
	if telegramChat != "" {
		flags["telegram-chat"] = telegramChat
	}
	if dataDir != "" {
		flags["data-dir"] = dataDir
	}
	if rateLimit > 0 {
		flags["requests-per-minute"] = rateLimit
	}
	if logLevel != "" {
		flags["log-level"] = logLevel
	}
	if noDatabase {
		flags["no-database"] = true
	}

	cfg, err := config.Load(configFile, flags)
	if err != nil {
		return nil, err
	}
	if dashboardAddr != "" {
		cfg.Dashboard.Addr = dashboardAddr
	}
	return cfg, nil
}
