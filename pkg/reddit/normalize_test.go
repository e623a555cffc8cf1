package reddit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redscraper/pkg/models"
)

func TestClassifyPostPriority(t *testing.T) {
	tests := []struct {
		name string
		post PostData
		want models.PostType
	}{
		{
			name: "gallery beats everything",
			post: PostData{
				IsGallery:   true,
				IsVideo:     true,
				URL:         "https://i.redd.it/pic.jpg",
				GalleryData: &GalleryData{},
			},
			want: models.PostTypeGallery,
		},
		{
			name: "gallery data without flag still wins",
			post: PostData{
				GalleryData: &GalleryData{Items: []GalleryItem{{MediaID: "m1"}}},
				IsVideo:     true,
			},
			want: models.PostTypeGallery,
		},
		{
			name: "video beats image extension",
			post: PostData{IsVideo: true, URL: "https://example.com/clip.jpg"},
			want: models.PostTypeVideo,
		},
		{
			name: "hosted video reference counts as video",
			post: PostData{
				Media: &Media{RedditVideo: &RedditVideo{FallbackURL: "https://v.redd.it/x/DASH_720.mp4"}},
			},
			want: models.PostTypeVideo,
		},
		{
			name: "image by extension",
			post: PostData{URL: "https://example.com/photo.PNG"},
			want: models.PostTypeImage,
		},
		{
			name: "image host without extension",
			post: PostData{URL: "https://i.redd.it/abcdef"},
			want: models.PostTypeImage,
		},
		{
			name: "self post",
			post: PostData{IsSelf: true, URL: "https://old.reddit.com/r/testsub/comments/abc/t/", Permalink: "/r/testsub/comments/abc/t/"},
			want: models.PostTypeText,
		},
		{
			name: "url pointing back at permalink",
			post: PostData{URL: "https://old.reddit.com/r/testsub/comments/abc/t/", Permalink: "/r/testsub/comments/abc/t/"},
			want: models.PostTypeText,
		},
		{
			name: "plain link",
			post: PostData{URL: "https://example.com/article", Permalink: "/r/testsub/comments/abc/t/"},
			want: models.PostTypeLink,
		},
		{
			name: "url_overridden_by_dest wins over url",
			post: PostData{URL: "https://example.com/article", URLOverridden: "https://example.com/pic.webp"},
			want: models.PostTypeImage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyPost(&tt.post))
		})
	}
}

func TestNormalizePost(t *testing.T) {
	p := PostData{
		ID:            "abc123",
		Title:         "A title",
		Author:        "someone",
		CreatedUTC:    1700000000,
		Permalink:     "/r/testsub/comments/abc123/a_title/",
		URL:           "https://i.redd.it/pic.jpg",
		Score:         42,
		UpvoteRatio:   0.93,
		NumComments:   7,
		Over18:        true,
		LinkFlairText: "News",
	}

	post := NormalizePost(&p)

	assert.Equal(t, "abc123", post.ID)
	assert.Equal(t, "A title", post.Title)
	assert.Equal(t, int64(1700000000), post.CreatedUTC.Unix())
	assert.Equal(t, models.PostTypeImage, post.PostType)
	assert.Equal(t, "News", post.Flair)
	assert.True(t, post.IsNSFW)
	assert.True(t, post.HasMedia)
	assert.False(t, post.MediaDownloaded)
}

// buildTree builds a comment thing with nested replies.
func buildTree(t *testing.T, id string, replies ...Thing) Thing {
	t.Helper()

	data := map[string]interface{}{
		"id":   id,
		"body": "body of " + id,
	}
	if len(replies) > 0 {
		data["replies"] = Listing{
			Kind: "Listing",
			Data: ListingData{Children: replies},
		}
	} else {
		data["replies"] = ""
	}

	raw, err := json.Marshal(data)
	require.NoError(t, err)
	return Thing{Kind: KindComment, Data: raw}
}

func TestFlattenCommentsDocumentOrderAndDepth(t *testing.T) {
	// a
	//   a1
	//     a1x
	//   a2
	// b
	tree := []Thing{
		buildTree(t, "a",
			buildTree(t, "a1", buildTree(t, "a1x")),
			buildTree(t, "a2"),
		),
		buildTree(t, "b"),
	}

	comments := FlattenComments(tree, "/r/testsub/comments/p1/x/", -1)
	require.Len(t, comments, 5)

	ids := make([]string, len(comments))
	depths := make([]int, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
		depths[i] = c.Depth
	}

	assert.Equal(t, []string{"a", "a1", "a1x", "a2", "b"}, ids)
	assert.Equal(t, []int{0, 1, 2, 1, 0}, depths)

	for _, c := range comments {
		assert.Equal(t, "/r/testsub/comments/p1/x/", c.PostPermalink)
	}
}

func TestFlattenCommentsDepthCap(t *testing.T) {
	tree := []Thing{
		buildTree(t, "a",
			buildTree(t, "a1",
				buildTree(t, "a1x",
					buildTree(t, "a1x9")),
			),
		),
	}

	comments := FlattenComments(tree, "/p", 1)
	require.Len(t, comments, 2)
	assert.Equal(t, "a", comments[0].ID)
	assert.Equal(t, "a1", comments[1].ID)
}

func TestFlattenCommentsSkipsNonComments(t *testing.T) {
	tree := []Thing{
		{Kind: KindMore, Data: json.RawMessage(`{"count": 12}`)},
		buildTree(t, "a"),
	}

	comments := FlattenComments(tree, "/p", -1)
	require.Len(t, comments, 1)
	assert.Equal(t, "a", comments[0].ID)
}

func TestFlattenCommentsDeepThread(t *testing.T) {
	leaf := buildTree(t, "leaf")
	for i := 0; i < 2000; i++ {
		leaf = buildTree(t, "n", leaf)
	}

	comments := FlattenComments([]Thing{leaf}, "/p", -1)
	assert.Len(t, comments, 2001)
	assert.Equal(t, 2000, comments[len(comments)-1].Depth)
}

func TestRepliesUnmarshal(t *testing.T) {
	var c CommentData
	require.NoError(t, json.Unmarshal([]byte(`{"id": "x", "replies": ""}`), &c))
	assert.Nil(t, c.Replies.Listing)

	require.NoError(t, json.Unmarshal([]byte(`{"id": "x", "replies": null}`), &c))
	assert.Nil(t, c.Replies.Listing)

	require.NoError(t, json.Unmarshal([]byte(`{"id": "x", "replies": {"kind": "Listing", "data": {"children": [{"kind": "t1", "data": {"id": "y"}}]}}}`), &c))
	require.NotNil(t, c.Replies.Listing)
	assert.Len(t, c.Replies.Children(), 1)
}
