package reddit

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ListingPath returns the mirror-relative path of a target's newest
// submissions, "/r/{name}/new.json" for subreddits and
// "/user/{name}/submitted.json" for users.
func ListingPath(target string, isUser bool) string {
	if isUser {
		return fmt.Sprintf("/user/%s/submitted.json", url.PathEscape(target))
	}
	return fmt.Sprintf("/r/%s/new.json", url.PathEscape(target))
}

// ListingQuery builds the query parameters for a listing page. The
// after cursor is omitted on the first page.
func ListingQuery(pageSize int, after string) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("raw_json", "1")
	if after != "" {
		q.Set("after", after)
	}
	return q
}

// CommentsPath returns the mirror-relative path of a post's comment tree
func CommentsPath(permalink string) string {
	return strings.TrimSuffix(permalink, "/") + ".json"
}

// CommentsQuery builds the query parameters for a comment tree fetch
func CommentsQuery(limit int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("raw_json", "1")
	return q
}

// RSSURL returns the absolute feed URL used by monitor mode. RSS is
// served by www.reddit.com directly, not the mirrors.
func RSSURL(target string, isUser bool) string {
	if isUser {
		return fmt.Sprintf("https://www.reddit.com/user/%s/submitted.rss?limit=100", url.PathEscape(target))
	}
	return fmt.Sprintf("https://www.reddit.com/r/%s/new.rss?limit=100", url.PathEscape(target))
}
