package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "redscraper/pkg/errors"
	"redscraper/pkg/models"
)

func captureWebhook(t *testing.T, status int) (*httptest.Server, *[]discordPayload) {
	t.Helper()
	var payloads []discordPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var p discordPayload
		require.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		payloads = append(payloads, p)
		w.WriteHeader(status)
	}))
	t.Cleanup(server.Close)
	return server, &payloads
}

func TestDiscordNotifyComplete(t *testing.T) {
	server, payloads := captureWebhook(t, http.StatusNoContent)
	d := NewDiscord(server.URL)

	err := d.NotifyComplete(context.Background(), Summary{
		Target:      "testsub",
		Mode:        "full",
		NewPosts:    12,
		NewComments: 34,
		MediaFiles:  5,
		Duration:    "1m30s",
	})
	require.NoError(t, err)

	require.Len(t, *payloads, 1)
	embeds := (*payloads)[0].Embeds
	require.Len(t, embeds, 1)
	assert.Equal(t, "Scrape complete: testsub", embeds[0].Title)
	assert.Equal(t, colorSummary, embeds[0].Color)
	assert.Equal(t, "redscraper", embeds[0].Footer.Text)

	values := map[string]string{}
	for _, f := range embeds[0].Fields {
		values[f.Name] = f.Value
	}
	assert.Equal(t, "12", values["New posts"])
	assert.Equal(t, "34", values["New comments"])
	assert.Equal(t, "1m30s", values["Duration"])
}

func TestDiscordNotifyNewPost(t *testing.T) {
	server, payloads := captureWebhook(t, http.StatusOK)
	d := NewDiscord(server.URL)

	post := &models.Post{
		ID:         "p1",
		Title:      "A photo",
		Author:     "alice",
		Permalink:  "/r/testsub/comments/p1/a_photo/",
		Score:      42,
		PostType:   models.PostTypeImage,
		CreatedUTC: time.Unix(1700000000, 0).UTC(),
	}
	require.NoError(t, d.NotifyNewPost(context.Background(), "testsub", post))

	require.Len(t, *payloads, 1)
	embed := (*payloads)[0].Embeds[0]
	assert.Equal(t, "A photo", embed.Title)
	assert.Equal(t, "https://old.reddit.com/r/testsub/comments/p1/a_photo/", embed.URL)
	assert.Equal(t, colorNewPost, embed.Color)
	assert.Equal(t, "testsub", embed.Footer.Text)
}

func TestDiscordNon2xxIsNotificationError(t *testing.T) {
	server, _ := captureWebhook(t, http.StatusTooManyRequests)
	d := NewDiscord(server.URL)

	err := d.NotifyComplete(context.Background(), Summary{Target: "testsub"})
	require.Error(t, err)
	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeNotification, typed.Type)
}

func TestTelegramNotifyComplete(t *testing.T) {
	var gotPath string
	var msg telegramMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		fmt.Fprint(w, `{"ok": true}`)
	}))
	t.Cleanup(server.Close)

	tg := NewTelegram("123:token", "-100200")
	tg.apiBase = server.URL

	err := tg.NotifyComplete(context.Background(), Summary{
		Target: "testsub", Mode: "history", NewPosts: 3, Duration: "10s",
	})
	require.NoError(t, err)

	assert.Equal(t, "/bot123:token/sendMessage", gotPath)
	assert.Equal(t, "-100200", msg.ChatID)
	assert.Contains(t, msg.Text, "Scrape complete: testsub")
	assert.Contains(t, msg.Text, "New posts: 3")
	assert.True(t, msg.DisableWebPagePreview)
}

func TestTelegramNewPostLinksOldReddit(t *testing.T) {
	var msg telegramMessage
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		fmt.Fprint(w, `{"ok": true}`)
	}))
	t.Cleanup(server.Close)

	tg := NewTelegram("123:token", "42")
	tg.apiBase = server.URL

	post := &models.Post{Title: "A photo", Author: "alice", Score: 7, Permalink: "/r/testsub/comments/p1/a_photo/"}
	require.NoError(t, tg.NotifyNewPost(context.Background(), "testsub", post))
	assert.Contains(t, msg.Text, "https://old.reddit.com/r/testsub/comments/p1/a_photo/")
	assert.Contains(t, msg.Text, "by alice")
}

func TestTelegramAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"ok": false, "description": "Bad Request: chat not found"}`, http.StatusBadRequest)
	}))
	t.Cleanup(server.Close)

	tg := NewTelegram("123:token", "bogus")
	tg.apiBase = server.URL

	err := tg.NotifyComplete(context.Background(), Summary{Target: "testsub"})
	require.Error(t, err)
	var typed *errs.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, errs.ErrorTypeNotification, typed.Type)
	assert.Contains(t, err.Error(), "chat not found")
}

// flakyNotifier fails on demand so Multi's error handling can be observed.
type flakyNotifier struct {
	fail      bool
	completes int
	posts     int
}

func (f *flakyNotifier) NotifyComplete(ctx context.Context, s Summary) error {
	f.completes++
	if f.fail {
		return errs.New(errs.ErrorTypeNotification, "boom")
	}
	return nil
}

func (f *flakyNotifier) NotifyNewPost(ctx context.Context, target string, p *models.Post) error {
	f.posts++
	if f.fail {
		return errs.New(errs.ErrorTypeNotification, "boom")
	}
	return nil
}

func TestMultiFansOutToAllChannels(t *testing.T) {
	a := &flakyNotifier{fail: true}
	b := &flakyNotifier{}
	m := Multi{a, b}

	err := m.NotifyComplete(context.Background(), Summary{Target: "testsub"})
	assert.Error(t, err)
	assert.Equal(t, 1, a.completes)
	assert.Equal(t, 1, b.completes)

	err = m.NotifyNewPost(context.Background(), "testsub", &models.Post{ID: "p1"})
	assert.Error(t, err)
	assert.Equal(t, 1, a.posts)
	assert.Equal(t, 1, b.posts)
}

func TestMultiNilSafe(t *testing.T) {
	var m Multi
	assert.NoError(t, m.NotifyComplete(context.Background(), Summary{}))
	assert.NoError(t, m.NotifyNewPost(context.Background(), "testsub", &models.Post{}))
}
