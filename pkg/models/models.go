// Package models defines the rows produced by the fetch pipeline.
package models

import (
	"strconv"
	"time"
)

// PostType classifies a post by the shape of its payload
type PostType string

const (
	PostTypeText    PostType = "text"
	PostTypeImage   PostType = "image"
	PostTypeVideo   PostType = "video"
	PostTypeGallery PostType = "gallery"
	PostTypeLink    PostType = "link"
	// PostTypeUnknown marks rows built from RSS entries, which carry no payload
	PostTypeUnknown PostType = "unknown"
)

// Post is one listing item, snapshotted at fetch time. Written once;
// re-scrapes of the same target are collapsed by the store's dedup.
type Post struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	CreatedUTC      time.Time `json:"created_utc"`
	Permalink       string    `json:"permalink"`
	URL             string    `json:"url"`
	Score           int       `json:"score"`
	UpvoteRatio     float64   `json:"upvote_ratio"`
	NumComments     int       `json:"num_comments"`
	Selftext        string    `json:"selftext"`
	PostType        PostType  `json:"post_type"`
	Flair           string    `json:"flair"`
	IsNSFW          bool      `json:"is_nsfw"`
	HasMedia        bool      `json:"has_media"`
	MediaDownloaded bool      `json:"media_downloaded"`
}

// Comment is one flattened node of a post's comment tree. Depth is 0
// for top-level comments and parent depth + 1 below that.
type Comment struct {
	ID            string    `json:"comment_id"`
	PostPermalink string    `json:"post_permalink"`
	ParentID      string    `json:"parent_id"`
	Author        string    `json:"author"`
	Body          string    `json:"body"`
	Score         int       `json:"score"`
	CreatedUTC    time.Time `json:"created_utc"`
	Depth         int       `json:"depth"`
	IsSubmitter   bool      `json:"is_submitter"`
}

// PostCSVHeader is the column order of posts.csv
var PostCSVHeader = []string{
	"id", "title", "author", "created_utc", "permalink", "url",
	"score", "upvote_ratio", "num_comments", "selftext", "post_type",
	"flair", "is_nsfw", "has_media", "media_downloaded",
}

// CommentCSVHeader is the column order of comments.csv
var CommentCSVHeader = []string{
	"comment_id", "post_permalink", "parent_id", "author", "body",
	"score", "created_utc", "depth", "is_submitter",
}

// CSVRecord returns the post as a posts.csv row
func (p *Post) CSVRecord() []string {
	return []string{
		p.ID,
		p.Title,
		p.Author,
		p.CreatedUTC.UTC().Format(time.RFC3339),
		p.Permalink,
		p.URL,
		strconv.Itoa(p.Score),
		strconv.FormatFloat(p.UpvoteRatio, 'f', -1, 64),
		strconv.Itoa(p.NumComments),
		p.Selftext,
		string(p.PostType),
		p.Flair,
		strconv.FormatBool(p.IsNSFW),
		strconv.FormatBool(p.HasMedia),
		strconv.FormatBool(p.MediaDownloaded),
	}
}

// CSVRecord returns the comment as a comments.csv row
func (c *Comment) CSVRecord() []string {
	return []string{
		c.ID,
		c.PostPermalink,
		c.ParentID,
		c.Author,
		c.Body,
		strconv.Itoa(c.Score),
		c.CreatedUTC.UTC().Format(time.RFC3339),
		strconv.Itoa(c.Depth),
		strconv.FormatBool(c.IsSubmitter),
	}
}
