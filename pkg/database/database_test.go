package database

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redscraper/pkg/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func dbPost(id string, score int, postType models.PostType, created time.Time) models.Post {
	return models.Post{
		ID:          id,
		Title:       "title " + id,
		Author:      "alice",
		CreatedUTC:  created,
		Permalink:   "/r/testsub/comments/" + id + "/x/",
		URL:         "https://example.com/" + id,
		Score:       score,
		UpvoteRatio: 0.9,
		Selftext:    "body " + id,
		PostType:    postType,
	}
}

func TestInsertPostsIgnoresDuplicates(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	posts := []models.Post{
		dbPost("p1", 10, models.PostTypeText, now),
		dbPost("p2", 20, models.PostTypeImage, now.Add(time.Minute)),
	}
	require.NoError(t, db.InsertPosts("r_testsub", posts))
	require.NoError(t, db.InsertPosts("r_testsub", posts))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalPosts)
	assert.Equal(t, map[string]int{"text": 1, "image": 1}, stats.PostsByType)
}

func TestInsertComments(t *testing.T) {
	db := testDB(t)
	comments := []models.Comment{
		{ID: "c1", PostPermalink: "/r/testsub/comments/p1/x/", Author: "bob", Body: "hi", CreatedUTC: time.Now().UTC()},
		{ID: "c2", PostPermalink: "/r/testsub/comments/p1/x/", ParentID: "t1_c1", Author: "carol", Body: "hello", Depth: 1, CreatedUTC: time.Now().UTC()},
	}
	require.NoError(t, db.InsertComments(comments))
	require.NoError(t, db.InsertComments(comments))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalComments)
}

func TestSearchPostsFilters(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, db.InsertPosts("r_golang", []models.Post{
		dbPost("p1", 100, models.PostTypeText, now.Add(-2*time.Hour)),
		dbPost("p2", 5, models.PostTypeImage, now.Add(-time.Hour)),
	}))
	other := dbPost("p3", 50, models.PostTypeText, now)
	other.Author = "dave"
	other.Title = "Something Completely Different"
	require.NoError(t, db.InsertPosts("r_rust", []models.Post{other}))

	// Case-insensitive text match on the title.
	rows, err := db.SearchPosts(SearchFilter{Query: "completely different"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p3", rows[0].ID)
	assert.Equal(t, "r_rust", rows[0].Target)

	rows, err = db.SearchPosts(SearchFilter{Target: "r_golang"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = db.SearchPosts(SearchFilter{MinScore: 50})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = db.SearchPosts(SearchFilter{Author: "dave"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p3", rows[0].ID)

	rows, err = db.SearchPosts(SearchFilter{PostType: "image"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p2", rows[0].ID)

	// Newest first.
	rows, err = db.SearchPosts(SearchFilter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "p3", rows[0].ID)
	assert.Equal(t, "p1", rows[2].ID)
}

func TestSearchPostsLimit(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC().Truncate(time.Second)
	var posts []models.Post
	for i := 0; i < 5; i++ {
		posts = append(posts, dbPost(string(rune('a'+i)), i, models.PostTypeText, now.Add(time.Duration(i)*time.Minute)))
	}
	require.NoError(t, db.InsertPosts("r_testsub", posts))

	rows, err := db.SearchPosts(SearchFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestPostsForTarget(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.InsertPosts("r_golang", []models.Post{dbPost("p1", 1, models.PostTypeText, now)}))
	require.NoError(t, db.InsertPosts("r_rust", []models.Post{dbPost("p2", 1, models.PostTypeText, now)}))

	rows, err := db.PostsForTarget("r_golang")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "p1", rows[0].ID)
}

func TestStats(t *testing.T) {
	db := testDB(t)
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, db.InsertPosts("r_golang", []models.Post{
		dbPost("p1", 100, models.PostTypeText, now),
		dbPost("p2", 300, models.PostTypeVideo, now),
	}))
	require.NoError(t, db.InsertPosts("r_rust", []models.Post{
		dbPost("p3", 200, models.PostTypeText, now),
	}))
	require.NoError(t, db.InsertComments([]models.Comment{
		{ID: "c1", PostPermalink: "/r/golang/comments/p1/x/", Author: "bob", Body: "hi", CreatedUTC: now},
	}))

	stats, err := db.Stats()
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalPosts)
	assert.Equal(t, 1, stats.TotalComments)
	assert.Equal(t, 2, stats.PostsByType["text"])

	require.Len(t, stats.Targets, 2)
	byName := map[string]TargetStats{}
	for _, ts := range stats.Targets {
		byName[ts.Name] = ts
	}
	assert.Equal(t, 2, byName["r_golang"].TotalPosts)
	assert.Equal(t, 1, byName["r_rust"].TotalPosts)

	// Top posts ordered by score.
	require.NotEmpty(t, stats.TopPosts)
	assert.Equal(t, "p2", stats.TopPosts[0].ID)
	assert.Equal(t, 300, stats.TopPosts[0].Score)
}
