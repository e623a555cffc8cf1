// Package downloader fetches post media and writes it under the
// target's media directory.
package downloader

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"redscraper/pkg/config"
	errs "redscraper/pkg/errors"
	"redscraper/pkg/logger"
	"redscraper/pkg/reddit"
	"redscraper/pkg/storage"
)

// fetcher is the slice of the http client the downloader needs.
type fetcher interface {
	FetchBytes(ctx context.Context, absoluteURL string) ([]byte, error)
}

// Downloader fetches media assets for posts one at a time.
type Downloader struct {
	client fetcher
	store  *storage.Manager
	cfg    *config.MediaConfig
	logger logger.Logger
}

// New creates a Downloader writing into the given storage manager.
func New(client fetcher, store *storage.Manager, cfg *config.MediaConfig, log logger.Logger) *Downloader {
	return &Downloader{
		client: client,
		store:  store,
		cfg:    cfg,
		logger: log,
	}
}

// Result summarizes one post's media downloads.
type Result struct {
	Downloaded int
	Skipped    int
	Failed     int

	// Errors carries one typed media error per failed asset.
	Errors []error
}

// NewAssets reports whether anything was actually fetched.
func (r Result) NewAssets() bool {
	return r.Downloaded > 0
}

// DownloadPostMedia fetches every downloadable asset of a post, up to
// the configured per-post caps. Assets whose file already exists on
// disk are skipped without any network call. A failed asset is logged
// and skipped; it never fails the post.
func (d *Downloader) DownloadPostMedia(ctx context.Context, p *reddit.PostData) Result {
	var res Result
	urls := reddit.ExtractMediaURLs(p)
	if urls.IsEmpty() {
		return res
	}

	images := urls.Images
	if len(images) > d.cfg.MaxImagesPerPost {
		images = images[:d.cfg.MaxImagesPerPost]
	}
	for i, u := range images {
		filename := fmt.Sprintf("%s_%d%s", p.ID, i, imageExt(u))
		d.fetchOne(ctx, storage.MediaImages, p.ID, "image", u, filename, &res)
	}

	gallery := urls.Galleries
	if len(gallery) > d.cfg.MaxGalleryImages {
		gallery = gallery[:d.cfg.MaxGalleryImages]
	}
	for i, u := range gallery {
		filename := fmt.Sprintf("%s_gallery_%d%s", p.ID, i, imageExt(u))
		d.fetchOne(ctx, storage.MediaImages, p.ID, "gallery", u, filename, &res)
	}

	videos := 0
	for _, u := range urls.Videos {
		if videos >= d.cfg.MaxVideosPerPost {
			break
		}
		// External video hosts are recorded but never fetched.
		if !isRedditVideo(u) {
			res.Skipped++
			continue
		}
		filename := fmt.Sprintf("%s_%d.mp4", p.ID, videos)
		d.fetchOne(ctx, storage.MediaVideos, p.ID, "video", u, filename, &res)
		videos++
	}

	return res
}

func (d *Downloader) fetchOne(ctx context.Context, kind storage.MediaKind, postID, mediaType, url, filename string, res *Result) {
	if d.store.MediaExists(kind, filename) {
		res.Skipped++
		d.logger.DebugWithFields("Media already downloaded, skipping", map[string]interface{}{
			"post_id":  postID,
			"filename": filename,
		})
		return
	}

	if err := ctx.Err(); err != nil {
		res.Failed++
		res.Errors = append(res.Errors, errs.Newf(errs.ErrorTypeMedia, "fetch %s: %v", url, err))
		return
	}

	data, err := d.client.FetchBytes(ctx, url)
	if err != nil {
		merr := errs.Newf(errs.ErrorTypeMedia, "fetch %s: %v", url, err)
		res.Failed++
		res.Errors = append(res.Errors, merr)
		logger.LogMediaDownload(d.store.BaseDir(), postID, mediaType, false, merr)
		return
	}

	if err := d.store.SaveMedia(kind, filename, bytes.NewReader(data)); err != nil {
		merr := errs.Newf(errs.ErrorTypeMedia, "save %s: %v", filename, err)
		res.Failed++
		res.Errors = append(res.Errors, merr)
		logger.LogMediaDownload(d.store.BaseDir(), postID, mediaType, false, merr)
		return
	}

	res.Downloaded++
	logger.LogMediaDownload(d.store.BaseDir(), postID, mediaType, true, nil)
}

// imageExt returns the image extension of a URL, defaulting to .jpg
// when the path carries none.
func imageExt(rawURL string) string {
	trimmed := rawURL
	if idx := strings.IndexAny(trimmed, "?#"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	ext := strings.ToLower(path.Ext(trimmed))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".gif", ".webp":
		return ext
	}
	return ".jpg"
}

func isRedditVideo(u string) bool {
	return strings.Contains(u, "v.redd.it")
}
