// Package notify delivers scrape summaries and new-post alerts over
// Discord webhooks and the Telegram bot API. Delivery failures are
// logged by callers and never affect the scrape outcome.
package notify

import (
	"context"

	"redscraper/pkg/models"
)

// Summary describes one completed scrape cycle.
type Summary struct {
	Target      string
	Mode        string
	NewPosts    int
	NewComments int
	MediaFiles  int
	Duration    string
}

// Notifier delivers scrape events to one channel.
type Notifier interface {
	NotifyComplete(ctx context.Context, s Summary) error
	NotifyNewPost(ctx context.Context, target string, post *models.Post) error
}

// Multi fans one event out to every configured channel and returns the
// first delivery error, after attempting all of them.
type Multi []Notifier

func (m Multi) NotifyComplete(ctx context.Context, s Summary) error {
	var firstErr error
	for _, n := range m {
		if err := n.NotifyComplete(ctx, s); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m Multi) NotifyNewPost(ctx context.Context, target string, post *models.Post) error {
	var firstErr error
	for _, n := range m {
		if err := n.NotifyNewPost(ctx, target, post); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
