package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"redscraper/pkg/models"
)

func samplePost(id, title string) models.Post {
	return models.Post{
		ID:         id,
		Title:      title,
		Author:     "alice",
		CreatedUTC: time.Unix(1700000000, 0).UTC(),
		Permalink:  "/r/testsub/comments/" + id + "/x/",
		URL:        "https://example.com/" + id,
		Score:      10,
		PostType:   models.PostTypeText,
	}
}

func sampleComment(id string) models.Comment {
	return models.Comment{
		ID:            id,
		PostPermalink: "/r/testsub/comments/p1/x/",
		ParentID:      "t3_p1",
		Author:        "bob",
		Body:          "body of " + id,
		CreatedUTC:    time.Unix(1700000100, 0).UTC(),
	}
}

func TestTargetDir(t *testing.T) {
	assert.Equal(t, "r_golang", TargetDir("golang", false))
	assert.Equal(t, "u_spez", TargetDir("spez", true))
	assert.Equal(t, "r_a_b", TargetDir("a/b", false))
}

func TestNewManagerCreatesTree(t *testing.T) {
	dataDir := t.TempDir()
	m, err := NewManager(dataDir, "testsub", false)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dataDir, "r_testsub"), m.BaseDir())
	assert.DirExists(t, filepath.Join(m.BaseDir(), "media", "images"))
	assert.DirExists(t, filepath.Join(m.BaseDir(), "media", "videos"))
	assert.Equal(t, 0, m.PostCount())
}

func TestAppendPostsDeduplicates(t *testing.T) {
	m, err := NewManager(t.TempDir(), "testsub", false)
	require.NoError(t, err)

	written, err := m.AppendPosts([]models.Post{samplePost("p1", "first"), samplePost("p2", "second")})
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.True(t, m.SeenPost("p1"))

	// Same batch again plus one new row.
	written, err = m.AppendPosts([]models.Post{samplePost("p1", "first"), samplePost("p3", "third")})
	require.NoError(t, err)
	assert.Equal(t, 1, written)
	assert.Equal(t, 3, m.PostCount())
}

func TestAppendPostsSkipsEmptyID(t *testing.T) {
	m, err := NewManager(t.TempDir(), "testsub", false)
	require.NoError(t, err)

	written, err := m.AppendPosts([]models.Post{samplePost("", "no id")})
	require.NoError(t, err)
	assert.Equal(t, 0, written)
	assert.NoFileExists(t, m.PostsPath())
}

func TestSeenIDsSurviveRestart(t *testing.T) {
	dataDir := t.TempDir()

	m1, err := NewManager(dataDir, "testsub", false)
	require.NoError(t, err)
	_, err = m1.AppendPosts([]models.Post{samplePost("p1", "first")})
	require.NoError(t, err)
	_, err = m1.AppendComments([]models.Comment{sampleComment("c1")})
	require.NoError(t, err)

	// A fresh manager over the same directory reloads the history.
	m2, err := NewManager(dataDir, "testsub", false)
	require.NoError(t, err)
	assert.True(t, m2.SeenPost("p1"))

	written, err := m2.AppendPosts([]models.Post{samplePost("p1", "first"), samplePost("p2", "second")})
	require.NoError(t, err)
	assert.Equal(t, 1, written)

	written, err = m2.AppendComments([]models.Comment{sampleComment("c1"), sampleComment("c2")})
	require.NoError(t, err)
	assert.Equal(t, 1, written)
}

func TestHeaderWrittenOnce(t *testing.T) {
	dataDir := t.TempDir()
	m, err := NewManager(dataDir, "testsub", false)
	require.NoError(t, err)

	_, err = m.AppendPosts([]models.Post{samplePost("p1", "first")})
	require.NoError(t, err)
	_, err = m.AppendPosts([]models.Post{samplePost("p2", "second")})
	require.NoError(t, err)

	file, err := os.Open(m.PostsPath())
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, models.PostCSVHeader, records[0])
	assert.Equal(t, "p1", records[1][0])
	assert.Equal(t, "p2", records[2][0])
}

func TestCSVEscapesFields(t *testing.T) {
	m, err := NewManager(t.TempDir(), "testsub", false)
	require.NoError(t, err)

	post := samplePost("p1", `has "quotes", commas`+"\nand a newline")
	_, err = m.AppendPosts([]models.Post{post})
	require.NoError(t, err)

	file, err := os.Open(m.PostsPath())
	require.NoError(t, err)
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, post.Title, records[1][1])
}

func TestSaveMediaAndExists(t *testing.T) {
	m, err := NewManager(t.TempDir(), "testsub", false)
	require.NoError(t, err)

	assert.False(t, m.MediaExists(MediaImages, "p1_0.jpg"))

	err = m.SaveMedia(MediaImages, "p1_0.jpg", strings.NewReader("imagedata"))
	require.NoError(t, err)
	assert.True(t, m.MediaExists(MediaImages, "p1_0.jpg"))

	data, err := os.ReadFile(m.MediaPath(MediaImages, "p1_0.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "imagedata", string(data))

	// No temp file left behind.
	assert.NoFileExists(t, m.MediaPath(MediaImages, "p1_0.jpg.tmp"))
}
