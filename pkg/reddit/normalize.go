package reddit

import (
	"strings"
	"time"

	"redscraper/pkg/models"
)

// imageExtensions are the URL suffixes that classify a post as an image
var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// ClassifyPost resolves a payload to exactly one post type. The
// priority order is fixed: gallery, then hosted video, then image
// extension, then self post, then link. A payload qualifying for
// several categories always resolves to the highest one.
func ClassifyPost(p *PostData) models.PostType {
	if p.IsGallery || p.GalleryData != nil {
		return models.PostTypeGallery
	}
	if p.IsVideo || (p.Media != nil && p.Media.RedditVideo != nil) {
		return models.PostTypeVideo
	}

	link := strings.ToLower(p.LinkURL())
	for _, ext := range imageExtensions {
		if strings.Contains(link, ext) {
			return models.PostTypeImage
		}
	}
	if strings.Contains(link, "i.redd.it") {
		return models.PostTypeImage
	}

	if p.IsSelf || strings.Contains(link, strings.ToLower(p.Permalink)) {
		return models.PostTypeText
	}

	return models.PostTypeLink
}

// HasMedia reports whether the payload carries downloadable media
func HasMedia(p *PostData) bool {
	return p.IsVideo || p.IsGallery ||
		strings.Contains(p.LinkURL(), "i.redd.it") ||
		ClassifyPost(p) == models.PostTypeImage
}

// NormalizePost maps a raw listing payload into a Post row
func NormalizePost(p *PostData) models.Post {
	return models.Post{
		ID:          p.ID,
		Title:       p.Title,
		Author:      p.Author,
		CreatedUTC:  time.Unix(int64(p.CreatedUTC), 0).UTC(),
		Permalink:   p.Permalink,
		URL:         p.LinkURL(),
		Score:       p.Score,
		UpvoteRatio: p.UpvoteRatio,
		NumComments: p.NumComments,
		Selftext:    p.Selftext,
		PostType:    ClassifyPost(p),
		Flair:       p.LinkFlairText,
		IsNSFW:      p.Over18,
		HasMedia:    HasMedia(p),
	}
}

// commentFrame is one pending node of the iterative tree walk
type commentFrame struct {
	thing Thing
	depth int
}

// FlattenComments walks a comment tree iteratively and returns the
// comments in document order: each parent before its children,
// siblings in their original order. Depth is the recursion level a
// recursive walk would have assigned; nodes below maxDepth are
// dropped without being descended into. Things that are not comments
// ("more" stubs) are skipped. The walk uses an explicit stack, so
// arbitrarily deep threads from untrusted input cannot overflow the
// call stack.
func FlattenComments(children []Thing, postPermalink string, maxDepth int) []models.Comment {
	var out []models.Comment

	// Seed the stack with the top-level comments in reverse, so the
	// first sibling is popped first.
	stack := make([]commentFrame, 0, len(children))
	for i := len(children) - 1; i >= 0; i-- {
		stack = append(stack, commentFrame{thing: children[i], depth: 0})
	}

	for len(stack) > 0 {
		frame := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if frame.thing.Kind != KindComment {
			continue
		}
		if maxDepth >= 0 && frame.depth > maxDepth {
			continue
		}

		c, err := frame.thing.Comment()
		if err != nil {
			continue
		}

		out = append(out, models.Comment{
			ID:            c.ID,
			PostPermalink: postPermalink,
			ParentID:      c.ParentID,
			Author:        c.Author,
			Body:          c.Body,
			Score:         c.Score,
			CreatedUTC:    time.Unix(int64(c.CreatedUTC), 0).UTC(),
			Depth:         frame.depth,
			IsSubmitter:   c.IsSubmitter,
		})

		replies := c.Replies.Children()
		for i := len(replies) - 1; i >= 0; i-- {
			stack = append(stack, commentFrame{thing: replies[i], depth: frame.depth + 1})
		}
	}

	return out
}
