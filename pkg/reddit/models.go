// Package reddit talks to old.reddit.com and its redlib mirrors and
// maps the listing JSON into the pipeline's row types.
package reddit

import (
	"bytes"
	"encoding/json"
)

// Thing kinds used by the listing API
const (
	KindComment = "t1"
	KindPost    = "t3"
	KindMore    = "more"
)

// Listing is the envelope around a page of things
type Listing struct {
	Kind string      `json:"kind"`
	Data ListingData `json:"data"`
}

// ListingData holds a page's children and the cursor to the next page
type ListingData struct {
	After    string  `json:"after"`
	Children []Thing `json:"children"`
}

// Thing is one kind-tagged item. Data stays raw until the kind is known.
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Post decodes the thing's data as a post payload
func (t Thing) Post() (*PostData, error) {
	var p PostData
	if err := json.Unmarshal(t.Data, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Comment decodes the thing's data as a comment payload
func (t Thing) Comment() (*CommentData, error) {
	var c CommentData
	if err := json.Unmarshal(t.Data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// PostData is the raw post payload from a listing page
type PostData struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	CreatedUTC    float64 `json:"created_utc"`
	Permalink     string  `json:"permalink"`
	URL           string  `json:"url"`
	URLOverridden string  `json:"url_overridden_by_dest"`
	Score         int     `json:"score"`
	UpvoteRatio   float64 `json:"upvote_ratio"`
	NumComments   int     `json:"num_comments"`
	Selftext      string  `json:"selftext"`
	Over18        bool    `json:"over_18"`
	LinkFlairText string  `json:"link_flair_text"`
	IsSelf        bool    `json:"is_self"`
	IsVideo       bool    `json:"is_video"`
	IsGallery     bool    `json:"is_gallery"`

	Media         *Media                   `json:"media"`
	Preview       *Preview                 `json:"preview"`
	GalleryData   *GalleryData             `json:"gallery_data"`
	MediaMetadata map[string]MediaMetadata `json:"media_metadata"`
}

// LinkURL returns the external URL, preferring url_overridden_by_dest
func (p *PostData) LinkURL() string {
	if p.URLOverridden != "" {
		return p.URLOverridden
	}
	return p.URL
}

// Media wraps the reddit-hosted video reference
type Media struct {
	RedditVideo *RedditVideo `json:"reddit_video"`
}

// RedditVideo holds the direct playback URL for a hosted video
type RedditVideo struct {
	FallbackURL string `json:"fallback_url"`
	Height      int    `json:"height"`
	Width       int    `json:"width"`
	Duration    int    `json:"duration"`
	IsGif       bool   `json:"is_gif"`
}

// Preview holds the preview image set for a post
type Preview struct {
	Images []PreviewImage `json:"images"`
}

// PreviewImage is one preview entry with its full-size source
type PreviewImage struct {
	Source PreviewSource `json:"source"`
}

// PreviewSource is a single image variant
type PreviewSource struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// GalleryData lists the ordered media ids of a gallery post
type GalleryData struct {
	Items []GalleryItem `json:"items"`
}

// GalleryItem references one gallery entry by media id
type GalleryItem struct {
	MediaID string `json:"media_id"`
}

// MediaMetadata maps a gallery media id to its source variant
type MediaMetadata struct {
	Source MediaSource `json:"s"`
}

// MediaSource is the full-size variant of a gallery item
type MediaSource struct {
	URL string `json:"u"`
}

// CommentData is the raw comment payload from a comment tree
type CommentData struct {
	ID          string  `json:"id"`
	ParentID    string  `json:"parent_id"`
	Author      string  `json:"author"`
	Body        string  `json:"body"`
	Score       int     `json:"score"`
	CreatedUTC  float64 `json:"created_utc"`
	IsSubmitter bool    `json:"is_submitter"`
	Replies     Replies `json:"replies"`
}

// Replies is either a nested Listing or the empty string when a
// comment has no replies. The custom unmarshaller absorbs both shapes.
type Replies struct {
	Listing *Listing
}

// UnmarshalJSON accepts "", null, or a listing object
func (r *Replies) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte(`""`)) || bytes.Equal(trimmed, []byte("null")) {
		r.Listing = nil
		return nil
	}
	var listing Listing
	if err := json.Unmarshal(trimmed, &listing); err != nil {
		return err
	}
	r.Listing = &listing
	return nil
}

// Children returns the reply things, or nil when there are none
func (r Replies) Children() []Thing {
	if r.Listing == nil {
		return nil
	}
	return r.Listing.Data.Children
}
