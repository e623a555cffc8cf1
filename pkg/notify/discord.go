package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "redscraper/pkg/errors"
	"redscraper/pkg/models"
)

const (
	colorSummary = 3447003  // blue
	colorNewPost = 15105570 // orange
)

// Discord posts embeds to a webhook URL.
type Discord struct {
	webhookURL string
	client     *http.Client
}

// NewDiscord creates a Discord webhook notifier.
func NewDiscord(webhookURL string) *Discord {
	return &Discord{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

type discordPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title,omitempty"`
	Description string              `json:"description,omitempty"`
	URL         string              `json:"url,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
	Color       int                 `json:"color,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Footer      discordEmbedFooter  `json:"footer,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type discordEmbedFooter struct {
	Text string `json:"text,omitempty"`
}

// NotifyComplete sends a scrape summary embed.
func (d *Discord) NotifyComplete(ctx context.Context, s Summary) error {
	embed := discordEmbed{
		Title:     fmt.Sprintf("Scrape complete: %s", s.Target),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Color:     colorSummary,
		Fields: []discordEmbedField{
			{Name: "Mode", Value: s.Mode, Inline: true},
			{Name: "New posts", Value: fmt.Sprintf("%d", s.NewPosts), Inline: true},
			{Name: "New comments", Value: fmt.Sprintf("%d", s.NewComments), Inline: true},
			{Name: "Media files", Value: fmt.Sprintf("%d", s.MediaFiles), Inline: true},
			{Name: "Duration", Value: s.Duration, Inline: true},
		},
		Footer: discordEmbedFooter{Text: "redscraper"},
	}
	return d.send(ctx, embed)
}

// NotifyNewPost sends an embed for one newly observed post.
func (d *Discord) NotifyNewPost(ctx context.Context, target string, post *models.Post) error {
	embed := discordEmbed{
		Title:     post.Title,
		URL:       "https://old.reddit.com" + post.Permalink,
		Timestamp: post.CreatedUTC.UTC().Format(time.RFC3339),
		Color:     colorNewPost,
		Fields: []discordEmbedField{
			{Name: "Author", Value: post.Author, Inline: true},
			{Name: "Score", Value: fmt.Sprintf("%d", post.Score), Inline: true},
			{Name: "Type", Value: string(post.PostType), Inline: true},
		},
		Footer: discordEmbedFooter{Text: target},
	}
	return d.send(ctx, embed)
}

func (d *Discord) send(ctx context.Context, embed discordEmbed) error {
	payload := discordPayload{Embeds: []discordEmbed{embed}}
	body, err := json.Marshal(payload)
	if err != nil {
		return errs.Newf(errs.ErrorTypeNotification, "marshal discord payload: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return errs.Newf(errs.ErrorTypeNotification, "build discord request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return errs.Newf(errs.ErrorTypeNotification, "deliver discord webhook: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.Newf(errs.ErrorTypeNotification, "discord webhook returned %s: %s", resp.Status, string(respBody))
	}
	return nil
}
