// Package storage persists normalized rows and media assets under a
// per-target directory tree:
//
//	data/r_{target}/posts.csv
//	data/r_{target}/comments.csv
//	data/r_{target}/media/images/
//	data/r_{target}/media/videos/
package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"redscraper/pkg/models"
)

// MediaKind selects the media subdirectory
type MediaKind string

const (
	MediaImages MediaKind = "images"
	MediaVideos MediaKind = "videos"
)

// Manager owns one target's files. It loads the identifiers already
// present in the CSV tables once at construction, so repeated appends
// across runs never write the same identifier twice.
type Manager struct {
	baseDir      string
	postsPath    string
	commentsPath string
	mediaDirs    map[MediaKind]string

	seenPosts    map[string]bool
	seenComments map[string]bool
	mu           sync.RWMutex
}

// TargetDir returns the directory name for a target: "r_{name}" for
// subreddits, "u_{name}" for users. Path separators are sanitized.
func TargetDir(target string, isUser bool) string {
	prefix := "r"
	if isUser {
		prefix = "u"
	}
	return fmt.Sprintf("%s_%s", prefix, strings.ReplaceAll(target, "/", "_"))
}

// NewManager creates the target's directory tree and loads the seen
// identifier sets from any existing tables.
func NewManager(dataDir, target string, isUser bool) (*Manager, error) {
	baseDir := filepath.Join(dataDir, TargetDir(target, isUser))

	m := &Manager{
		baseDir:      baseDir,
		postsPath:    filepath.Join(baseDir, "posts.csv"),
		commentsPath: filepath.Join(baseDir, "comments.csv"),
		mediaDirs: map[MediaKind]string{
			MediaImages: filepath.Join(baseDir, "media", "images"),
			MediaVideos: filepath.Join(baseDir, "media", "videos"),
		},
		seenPosts:    make(map[string]bool),
		seenComments: make(map[string]bool),
	}

	dirs := []string{baseDir, m.mediaDirs[MediaImages], m.mediaDirs[MediaVideos]}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := loadSeenIDs(m.postsPath, m.seenPosts); err != nil {
		return nil, fmt.Errorf("failed to load posts history: %w", err)
	}
	if err := loadSeenIDs(m.commentsPath, m.seenComments); err != nil {
		return nil, fmt.Errorf("failed to load comments history: %w", err)
	}

	return m, nil
}

// loadSeenIDs reads the identifier column of an existing table. A
// missing file just means no history yet.
func loadSeenIDs(path string, seen map[string]bool) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	first := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if first {
			first = false
			continue // header row
		}
		if len(record) > 0 && record[0] != "" {
			seen[record[0]] = true
		}
	}
}

// BaseDir returns the target's base directory
func (m *Manager) BaseDir() string {
	return m.baseDir
}

// PostsPath returns the posts table path
func (m *Manager) PostsPath() string {
	return m.postsPath
}

// CommentsPath returns the comments table path
func (m *Manager) CommentsPath() string {
	return m.commentsPath
}

// SeenPost reports whether a post identifier is already stored
func (m *Manager) SeenPost(id string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.seenPosts[id]
}

// PostCount returns the number of stored post identifiers
func (m *Manager) PostCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seenPosts)
}

// AppendPosts appends the rows whose identifiers are not yet stored
// and returns how many were written.
func (m *Manager) AppendPosts(posts []models.Post) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var fresh [][]string
	var ids []string
	for i := range posts {
		if posts[i].ID == "" || m.seenPosts[posts[i].ID] {
			continue
		}
		fresh = append(fresh, posts[i].CSVRecord())
		ids = append(ids, posts[i].ID)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := appendRows(m.postsPath, models.PostCSVHeader, fresh); err != nil {
		return 0, err
	}
	for _, id := range ids {
		m.seenPosts[id] = true
	}
	return len(fresh), nil
}

// AppendComments appends the rows whose identifiers are not yet
// stored and returns how many were written.
func (m *Manager) AppendComments(comments []models.Comment) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var fresh [][]string
	var ids []string
	for i := range comments {
		if comments[i].ID == "" || m.seenComments[comments[i].ID] {
			continue
		}
		fresh = append(fresh, comments[i].CSVRecord())
		ids = append(ids, comments[i].ID)
	}
	if len(fresh) == 0 {
		return 0, nil
	}

	if err := appendRows(m.commentsPath, models.CommentCSVHeader, fresh); err != nil {
		return 0, err
	}
	for _, id := range ids {
		m.seenComments[id] = true
	}
	return len(fresh), nil
}

// appendRows opens the table for append, writing the header first when
// the file is new. No rollback on partial writes; a later run re-reads
// the identifier column and fills in what is missing.
func appendRows(path string, header []string, rows [][]string) error {
	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open table: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if isNew {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// MediaPath returns the on-disk path for a media filename
func (m *Manager) MediaPath(kind MediaKind, filename string) string {
	return filepath.Join(m.mediaDirs[kind], filename)
}

// MediaExists reports whether an asset file is already on disk.
// Existence is the asset's own downloaded marker.
func (m *Manager) MediaExists(kind MediaKind, filename string) bool {
	_, err := os.Stat(m.MediaPath(kind, filename))
	return err == nil
}

// SaveMedia writes an asset atomically: data goes to a temp file which
// is renamed into place, so a crash never leaves a half-written asset
// masquerading as downloaded.
func (m *Manager) SaveMedia(kind MediaKind, filename string, r io.Reader) error {
	finalPath := m.MediaPath(kind, filename)
	tempPath := finalPath + ".tmp"

	out, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, copyErr := io.Copy(out, r)
	closeErr := out.Close()

	if copyErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to write media data: %w", copyErr)
	}
	if closeErr != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempPath, finalPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}

	return nil
}
