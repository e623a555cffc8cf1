// Package scraper sequences the fetch pipeline: target resolution,
// paginated retrieval with mirror failover, normalization, media
// download, comment traversal, and deduplicated persistence.
package scraper

import (
	"context"
	"strings"
	"time"

	"redscraper/internal/downloader"
	"redscraper/pkg/checkpoint"
	"redscraper/pkg/config"
	"redscraper/pkg/database"
	errs "redscraper/pkg/errors"
	"redscraper/pkg/logger"
	"redscraper/pkg/models"
	"redscraper/pkg/notify"
	"redscraper/pkg/ratelimit"
	"redscraper/pkg/reddit"
	"redscraper/pkg/storage"
)

// Mode selects how a run sequences the pipeline.
type Mode string

const (
	// ModeFull scrapes metadata, comments, and media.
	ModeFull Mode = "full"
	// ModeHistory scrapes metadata only.
	ModeHistory Mode = "history"
	// ModeMonitor polls for new posts on a fixed interval.
	ModeMonitor Mode = "monitor"
)

// ParseMode validates a mode string from the CLI.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeFull, ModeHistory, ModeMonitor:
		return Mode(s), nil
	}
	return "", errs.Newf(errs.ErrorTypeConfig, "unknown mode %q (want full, history, or monitor)", s)
}

// Options configures one run.
type Options struct {
	Target string
	IsUser bool
	Mode   Mode

	// Limit caps how many posts the run fetches. Zero falls back to
	// the configured default limit.
	Limit        int
	NoMedia      bool
	NoComments   bool
	Resume       bool
	ForceRestart bool

	// AlertNewPosts sends a notification per new post. Monitor mode
	// sets it; one-shot scrapes only notify on completion.
	AlertNewPosts bool
}

// Result summarizes what a run produced.
type Result struct {
	NewPosts    int
	NewComments int
	MediaFiles  int
	Pages       int
	Duration    time.Duration

	// PartialErr is set when pagination ended early on a fetch
	// failure; the counts above still reflect what was persisted.
	PartialErr error
}

// Scraper drives the pipeline for one target at a time.
type Scraper struct {
	cfg       *config.Config
	client    *reddit.Client
	limiter   ratelimit.Limiter
	logger    logger.Logger
	db        *database.DB
	notifiers notify.Notifier
}

// New builds a scraper from configuration. The database handle and
// notifier may be nil.
func New(cfg *config.Config, db *database.DB, notifiers notify.Notifier, log logger.Logger) *Scraper {
	rpm := cfg.RateLimit.RequestsPerMinute
	if rpm <= 0 {
		rpm = 20
	}
	client := reddit.NewClient(&cfg.Scraper, log)
	client.SetRetry(cfg.RateLimit.MaxRetries, cfg.RateLimit.RetryWait)
	client.SetMediaTimeout(cfg.Media.DownloadTimeout)
	return &Scraper{
		cfg:       cfg,
		client:    client,
		limiter:   ratelimit.NewTokenBucket(rpm, time.Minute),
		logger:    log,
		db:        db,
		notifiers: notifiers,
	}
}

// ValidateTarget rejects names that cannot be a subreddit or username.
func ValidateTarget(target string) error {
	if target == "" {
		return errs.New(errs.ErrorTypeConfig, "target is required")
	}
	for _, r := range target {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' || r == '-' {
			continue
		}
		return errs.Newf(errs.ErrorTypeConfig, "invalid target %q", target)
	}
	return nil
}

// Run executes one run per the options. In monitor mode it loops until
// the context is cancelled and returns the accumulated counts.
func (s *Scraper) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := ValidateTarget(opts.Target); err != nil {
		return nil, err
	}
	if opts.Limit < 0 {
		return nil, errs.Newf(errs.ErrorTypeConfig, "limit must be non-negative, got %d", opts.Limit)
	}
	if opts.Limit == 0 {
		opts.Limit = s.cfg.Scraper.DefaultLimit
	}

	store, err := storage.NewManager(s.cfg.Output.DataDir, opts.Target, opts.IsUser)
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeConfig, "prepare output directory: %v", err)
	}

	if opts.Mode == ModeMonitor {
		return s.monitor(ctx, opts, store)
	}
	return s.scrapeOnce(ctx, opts, store, true)
}

func (s *Scraper) scrapeOnce(ctx context.Context, opts Options, store *storage.Manager, notifyDone bool) (*Result, error) {
	start := time.Now()
	res := &Result{}

	cpManager := checkpoint.NewManager(store.BaseDir())
	after := ""
	if opts.ForceRestart {
		if err := cpManager.Clear(); err != nil {
			s.logger.WithError(err).Warn("Failed to clear checkpoint")
		}
	} else if opts.Resume {
		cp, err := cpManager.Load()
		if err != nil {
			s.logger.WithError(err).Warn("Failed to load checkpoint, starting fresh")
		} else if cp != nil && cp.Target == opts.Target {
			after = cp.After
			s.logger.InfoWithFields("Resuming from checkpoint", map[string]interface{}{
				"target": opts.Target,
				"after":  after,
			})
		}
	}

	dl := downloader.New(s.client, store, &s.cfg.Media, s.logger)

	s.logger.InfoWithFields("Starting scrape", map[string]interface{}{
		"target": opts.Target,
		"mode":   string(opts.Mode),
		"limit":  opts.Limit,
	})

	paginator := NewPaginator(s.client, s.limiter, s.logger, opts.Target, opts.IsUser, s.cfg.Scraper.PageSize, opts.Limit)
	paginator.SetCooldown(s.cfg.RateLimit.Cooldown)
	if after != "" {
		paginator.after = after
	}

	for {
		if err := ctx.Err(); err != nil {
			break
		}
		things := paginator.Next(ctx)
		if len(things) == 0 {
			break
		}
		res.Pages++

		posts := s.processPage(ctx, opts, store, dl, things, res)

		written, err := store.AppendPosts(posts)
		if err != nil {
			return res, errs.Newf(errs.ErrorTypeConfig, "write posts: %v", err)
		}
		res.NewPosts += written

		if s.db != nil {
			if err := s.db.InsertPosts(storage.TargetDir(opts.Target, opts.IsUser), posts); err != nil {
				s.logger.WithError(err).Warn("Failed to mirror posts into database")
			}
		}

		cp := &checkpoint.Checkpoint{
			Target:    opts.Target,
			IsUser:    opts.IsUser,
			Mode:      string(opts.Mode),
			After:     paginator.after,
			PostsSeen: paginator.Fetched(),
		}
		if len(posts) > 0 {
			cp.LastPostID = posts[len(posts)-1].ID
		}
		if err := cpManager.Save(cp); err != nil {
			s.logger.WithError(err).Warn("Failed to save checkpoint")
		}
	}
	res.PartialErr = paginator.Err()

	if res.PartialErr == nil {
		if err := cpManager.Clear(); err != nil {
			s.logger.WithError(err).Warn("Failed to clear checkpoint")
		}
	}

	res.Duration = time.Since(start)
	s.logger.InfoWithFields("Scrape finished", map[string]interface{}{
		"target":       opts.Target,
		"new_posts":    res.NewPosts,
		"new_comments": res.NewComments,
		"media_files":  res.MediaFiles,
		"pages":        res.Pages,
		"duration":     res.Duration.Round(time.Millisecond).String(),
	})

	if notifyDone && s.cfg.Notifications.OnComplete {
		s.notifyComplete(ctx, opts, res)
	}
	return res, nil
}

// processPage normalizes a page's things and runs the media and
// comment stages for posts not seen in earlier runs.
func (s *Scraper) processPage(ctx context.Context, opts Options, store *storage.Manager, dl *downloader.Downloader, things []reddit.Thing, res *Result) []models.Post {
	withMedia := opts.Mode == ModeFull && !opts.NoMedia
	withComments := opts.Mode == ModeFull && !opts.NoComments

	posts := make([]models.Post, 0, len(things))
	for _, thing := range things {
		if thing.Kind != reddit.KindPost {
			continue
		}
		raw, err := thing.Post()
		if err != nil {
			s.logger.WithError(err).Warn("Skipping unparseable listing item")
			continue
		}
		post := reddit.NormalizePost(raw)
		isNew := !store.SeenPost(post.ID)

		if withMedia && isNew && post.HasMedia {
			dlRes := dl.DownloadPostMedia(ctx, raw)
			res.MediaFiles += dlRes.Downloaded
			post.MediaDownloaded = dlRes.NewAssets() || dlRes.Skipped > 0 && dlRes.Failed == 0
		}

		if withComments && isNew && post.NumComments > 0 {
			written := s.scrapeComments(ctx, store, post.Permalink)
			res.NewComments += written
		}

		if isNew && s.notifiers != nil && opts.AlertNewPosts {
			if err := s.notifiers.NotifyNewPost(ctx, opts.Target, &post); err != nil {
				s.logger.WithError(err).Warn("New post notification failed")
			}
		}

		posts = append(posts, post)
	}
	return posts
}

// scrapeComments fetches and flattens one post's comment tree and
// appends the new rows. A failed fetch is logged and skipped.
func (s *Scraper) scrapeComments(ctx context.Context, store *storage.Manager, permalink string) int {
	s.limiter.Wait()

	things, err := s.client.FetchCommentTree(ctx, permalink, s.cfg.Comments.PerPostLimit)
	if err != nil {
		s.logger.WithError(err).WithField("permalink", permalink).
			Warn("Comment fetch failed, skipping post's comments")
		return 0
	}

	comments := reddit.FlattenComments(things, permalink, s.cfg.Comments.MaxDepth)
	written, err := store.AppendComments(comments)
	if err != nil {
		s.logger.WithError(err).Warn("Failed to write comments")
		return 0
	}

	if s.db != nil {
		if err := s.db.InsertComments(comments); err != nil {
			s.logger.WithError(err).Warn("Failed to mirror comments into database")
		}
	}
	return written
}

func (s *Scraper) notifyComplete(ctx context.Context, opts Options, res *Result) {
	if s.notifiers == nil {
		return
	}
	summary := notify.Summary{
		Target:      opts.Target,
		Mode:        string(opts.Mode),
		NewPosts:    res.NewPosts,
		NewComments: res.NewComments,
		MediaFiles:  res.MediaFiles,
		Duration:    res.Duration.Round(time.Second).String(),
	}
	if err := s.notifiers.NotifyComplete(ctx, summary); err != nil {
		s.logger.WithError(err).Warn("Completion notification failed")
	}
}

// monitorPageLimit bounds each monitor cycle's fallback listing fetch.
const monitorPageLimit = 25

// monitor polls the target until the context is cancelled. Each cycle
// prefers the lightweight RSS feed and falls back to a metadata-only
// listing scrape when the feed is unavailable.
func (s *Scraper) monitor(ctx context.Context, opts Options, store *storage.Manager) (*Result, error) {
	interval := s.cfg.Scraper.MonitorInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	total := &Result{}
	start := time.Now()

	s.logger.InfoWithFields("Monitoring target", map[string]interface{}{
		"target":   opts.Target,
		"interval": interval.String(),
	})

	for {
		cycle, err := s.monitorCycle(ctx, opts, store)
		if err != nil {
			s.logger.WithError(err).Warn("Monitor cycle failed")
		} else {
			total.NewPosts += cycle.NewPosts
			total.NewComments += cycle.NewComments
			total.MediaFiles += cycle.MediaFiles
			total.Pages += cycle.Pages
		}

		select {
		case <-ctx.Done():
			total.Duration = time.Since(start)
			s.logger.Info("Monitor stopped")
			return total, nil
		case <-time.After(interval):
		}
	}
}

// monitorCycle runs one poll of the target.
func (s *Scraper) monitorCycle(ctx context.Context, opts Options, store *storage.Manager) (*Result, error) {
	posts, err := s.fetchFeed(ctx, opts.Target, opts.IsUser)
	if err != nil {
		s.logger.WithError(err).Debug("Feed fetch failed, falling back to listing")
		fallback := opts
		fallback.Mode = ModeHistory
		fallback.Limit = monitorPageLimit
		fallback.AlertNewPosts = true
		return s.scrapeOnce(ctx, fallback, store, false)
	}

	res := &Result{Pages: 1}
	fresh := make([]models.Post, 0, len(posts))
	for i := range posts {
		if store.SeenPost(posts[i].ID) {
			continue
		}
		fresh = append(fresh, posts[i])
	}

	written, err := store.AppendPosts(fresh)
	if err != nil {
		return res, errs.Newf(errs.ErrorTypeConfig, "write posts: %v", err)
	}
	res.NewPosts = written

	if s.db != nil && len(fresh) > 0 {
		if err := s.db.InsertPosts(storage.TargetDir(opts.Target, opts.IsUser), fresh); err != nil {
			s.logger.WithError(err).Warn("Failed to mirror posts into database")
		}
	}

	if s.notifiers != nil {
		for i := range fresh {
			if err := s.notifiers.NotifyNewPost(ctx, opts.Target, &fresh[i]); err != nil {
				s.logger.WithError(err).Warn("New post notification failed")
			}
		}
	}

	if written > 0 {
		s.logger.InfoWithFields("Monitor cycle found new posts", map[string]interface{}{
			"target": opts.Target,
			"count":  written,
		})
	}
	return res, nil
}

// stripFullnamePrefix turns "t3_abc123" into "abc123".
func stripFullnamePrefix(id string) string {
	if i := strings.Index(id, "_"); i >= 0 {
		return id[i+1:]
	}
	return id
}
