package scraper

import (
	"context"
	"time"

	"redscraper/pkg/logger"
	"redscraper/pkg/ratelimit"
	"redscraper/pkg/reddit"
)

// listingFetcher is the slice of the client the paginator needs.
type listingFetcher interface {
	FetchListingPage(ctx context.Context, target string, isUser bool, pageSize int, after string) (*reddit.Listing, error)
}

// Paginator walks a target's listing page by page, lazily, until the
// item limit or end of data is reached. It is single-use.
type Paginator struct {
	client   listingFetcher
	limiter  ratelimit.Limiter
	logger   logger.Logger
	target   string
	isUser   bool
	pageSize int
	limit    int

	after     string
	fetched   int
	done      bool
	lastErr   error
	requests  int
	cooldown  time.Duration
	lastFetch time.Time
}

// NewPaginator returns a paginator for one target. A limit of zero
// yields no pages at all.
func NewPaginator(client listingFetcher, limiter ratelimit.Limiter, log logger.Logger, target string, isUser bool, pageSize, limit int) *Paginator {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Paginator{
		client:   client,
		limiter:  limiter,
		logger:   log,
		target:   target,
		isUser:   isUser,
		pageSize: pageSize,
		limit:    limit,
		done:     limit <= 0,
	}
}

// SetCooldown enforces a minimum pause between page fetches, on top of
// the limiter's pacing. Zero disables it.
func (p *Paginator) SetCooldown(d time.Duration) {
	p.cooldown = d
}

// Next fetches the next page and returns its post things, trimmed to
// whatever remains of the limit. It returns nil once the walk is over.
// A fetch failure ends the walk and preserves everything yielded so
// far; the error is available via Err.
func (p *Paginator) Next(ctx context.Context) []reddit.Thing {
	if p.done {
		return nil
	}
	if err := ctx.Err(); err != nil {
		p.done = true
		p.lastErr = err
		return nil
	}

	if p.limiter != nil && p.requests > 0 {
		p.limiter.Wait()
	}
	if p.cooldown > 0 && p.requests > 0 {
		if wait := p.cooldown - time.Since(p.lastFetch); wait > 0 {
			select {
			case <-ctx.Done():
				p.done = true
				p.lastErr = ctx.Err()
				return nil
			case <-time.After(wait):
			}
		}
	}

	remaining := p.limit - p.fetched
	request := p.pageSize
	if remaining < request {
		request = remaining
	}

	listing, err := p.client.FetchListingPage(ctx, p.target, p.isUser, request, p.after)
	p.requests++
	p.lastFetch = time.Now()
	if err != nil {
		p.done = true
		p.lastErr = err
		p.logger.WithError(err).WithField("target", p.target).
			Warn("Page fetch failed, returning partial results")
		return nil
	}

	children := listing.Data.Children
	if len(children) > remaining {
		children = children[:remaining]
	}
	p.fetched += len(children)

	// A short page means end of data; so does a missing cursor.
	p.after = listing.Data.After
	if p.after == "" {
		p.after = lastItemName(children)
	}
	if len(listing.Data.Children) < request || p.after == "" || p.fetched >= p.limit {
		p.done = true
	}

	if len(children) == 0 {
		return nil
	}
	logger.LogScrapeProgress(p.target, p.fetched, p.limit)
	return children
}

// Err returns the fetch error that ended the walk early, if any.
func (p *Paginator) Err() error {
	return p.lastErr
}

// Fetched returns how many items the walk has yielded.
func (p *Paginator) Fetched() int {
	return p.fetched
}

// Requests returns how many page requests were issued.
func (p *Paginator) Requests() int {
	return p.requests
}

// lastItemName derives a cursor from the fullname of a page's last
// item when the envelope carries no explicit cursor.
func lastItemName(children []reddit.Thing) string {
	for i := len(children) - 1; i >= 0; i-- {
		if children[i].Kind != reddit.KindPost {
			continue
		}
		post, err := children[i].Post()
		if err != nil {
			continue
		}
		return post.Name
	}
	return ""
}
