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

const telegramAPIBase = "https://api.telegram.org"

// Telegram sends messages through the bot API's sendMessage method.
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// NewTelegram creates a Telegram bot notifier.
func NewTelegram(botToken, chatID string) *Telegram {
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  telegramAPIBase,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type telegramMessage struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode,omitempty"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview,omitempty"`
}

// NotifyComplete sends a plain-text scrape summary.
func (t *Telegram) NotifyComplete(ctx context.Context, s Summary) error {
	text := fmt.Sprintf(
		"Scrape complete: %s\nMode: %s\nNew posts: %d\nNew comments: %d\nMedia files: %d\nDuration: %s",
		s.Target, s.Mode, s.NewPosts, s.NewComments, s.MediaFiles, s.Duration,
	)
	return t.send(ctx, text)
}

// NotifyNewPost sends a one-line alert linking to the post.
func (t *Telegram) NotifyNewPost(ctx context.Context, target string, post *models.Post) error {
	text := fmt.Sprintf(
		"New post in %s by %s (score %d):\n%s\nhttps://old.reddit.com%s",
		target, post.Author, post.Score, post.Title, post.Permalink,
	)
	return t.send(ctx, text)
}

func (t *Telegram) send(ctx context.Context, text string) error {
	msg := telegramMessage{
		ChatID:                t.chatID,
		Text:                  text,
		DisableWebPagePreview: true,
	}
	body, err := json.Marshal(msg)
	if err != nil {
		return errs.Newf(errs.ErrorTypeNotification, "marshal telegram payload: %v", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return errs.Newf(errs.ErrorTypeNotification, "build telegram request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return errs.Newf(errs.ErrorTypeNotification, "deliver telegram message: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errs.Newf(errs.ErrorTypeNotification, "telegram api returned %s: %s", resp.Status, string(respBody))
	}
	return nil
}
