package reddit

import "strings"

// MediaURLs groups a post's downloadable asset URLs by kind. Gallery
// items keep their own bucket because they use a distinct filename
// scheme on disk.
type MediaURLs struct {
	Images    []string
	Galleries []string
	Videos    []string
}

// IsEmpty reports whether the post has no resolvable media
func (m MediaURLs) IsEmpty() bool {
	return len(m.Images) == 0 && len(m.Galleries) == 0 && len(m.Videos) == 0
}

// ExtractMediaURLs resolves every media URL a payload references: the
// external link when it is an image, the hosted video fallback URL,
// full-size preview sources, and gallery items in order. YouTube links
// are included in Videos; the downloader never fetches them.
func ExtractMediaURLs(p *PostData) MediaURLs {
	var m MediaURLs

	link := p.LinkURL()
	lower := strings.ToLower(link)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			m.Images = append(m.Images, link)
			break
		}
	}
	if len(m.Images) == 0 && strings.Contains(link, "i.redd.it") {
		m.Images = append(m.Images, link)
	}

	if p.IsVideo && p.Media != nil && p.Media.RedditVideo != nil {
		if fallback := p.Media.RedditVideo.FallbackURL; fallback != "" {
			// Strip DASH query parameters
			m.Videos = append(m.Videos, strings.SplitN(fallback, "?", 2)[0])
		}
	}

	if p.Preview != nil {
		for _, img := range p.Preview.Images {
			if src := img.Source.URL; src != "" {
				m.Images = append(m.Images, strings.ReplaceAll(src, "&amp;", "&"))
			}
		}
	}

	if p.IsGallery && p.GalleryData != nil && p.MediaMetadata != nil {
		for _, item := range p.GalleryData.Items {
			meta, ok := p.MediaMetadata[item.MediaID]
			if !ok || meta.Source.URL == "" {
				continue
			}
			m.Galleries = append(m.Galleries, strings.ReplaceAll(meta.Source.URL, "&amp;", "&"))
		}
	}

	if strings.Contains(link, "youtube.com") || strings.Contains(link, "youtu.be") {
		m.Videos = append(m.Videos, link)
	}

	return m
}
