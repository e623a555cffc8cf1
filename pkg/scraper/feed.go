package scraper

import (
	"context"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	errs "redscraper/pkg/errors"
	"redscraper/pkg/models"
	"redscraper/pkg/reddit"
)

// fetchFeed pulls the target's RSS feed and maps its entries to
// metadata-only post rows. The feed carries no score or body, so rows
// get the unknown post type and zeroed counters.
func (s *Scraper) fetchFeed(ctx context.Context, target string, isUser bool) ([]models.Post, error) {
	raw, err := s.client.FetchBytes(ctx, reddit.RSSURL(target, isUser))
	if err != nil {
		return nil, err
	}

	feed, err := gofeed.NewParser().ParseString(string(raw))
	if err != nil {
		return nil, errs.Newf(errs.ErrorTypeParsing, "parse feed for %s: %v", target, err)
	}

	posts := make([]models.Post, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := item.GUID
		if id == "" {
			id = item.Link
		}
		if id == "" {
			continue
		}

		created := time.Now().UTC()
		if item.PublishedParsed != nil {
			created = item.PublishedParsed.UTC()
		} else if item.UpdatedParsed != nil {
			created = item.UpdatedParsed.UTC()
		}

		author := ""
		if item.Author != nil {
			author = item.Author.Name
		}

		posts = append(posts, models.Post{
			ID:         stripFullnamePrefix(id),
			Title:      item.Title,
			Author:     author,
			CreatedUTC: created,
			Permalink:  permalinkFromLink(item.Link),
			URL:        item.Link,
			PostType:   models.PostTypeUnknown,
		})
	}
	return posts, nil
}

// permalinkFromLink strips the scheme and host from a feed entry link,
// leaving the site-relative permalink.
func permalinkFromLink(link string) string {
	if i := strings.Index(link, "reddit.com"); i >= 0 {
		return link[i+len("reddit.com"):]
	}
	return link
}
