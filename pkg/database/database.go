// Package database mirrors scraped rows into SQLite so that search
// and analytics can query across every target without re-reading the
// CSV tables.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"redscraper/pkg/models"
)

// DB wraps the SQLite connection.
type DB struct {
	conn *sql.DB
}

// New opens or creates an SQLite database at the given path.
func New(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// Enable WAL mode for better concurrency.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set wal mode: %w", err)
	}
	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		target TEXT NOT NULL,
		title TEXT,
		author TEXT,
		created_utc TEXT,
		permalink TEXT,
		url TEXT,
		score INTEGER DEFAULT 0,
		upvote_ratio REAL DEFAULT 0,
		num_comments INTEGER DEFAULT 0,
		selftext TEXT,
		post_type TEXT,
		flair TEXT,
		is_nsfw INTEGER DEFAULT 0,
		has_media INTEGER DEFAULT 0,
		media_downloaded INTEGER DEFAULT 0,
		scraped_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS comments (
		comment_id TEXT PRIMARY KEY,
		post_permalink TEXT,
		parent_id TEXT,
		author TEXT,
		body TEXT,
		score INTEGER DEFAULT 0,
		created_utc TEXT,
		depth INTEGER DEFAULT 0,
		is_submitter INTEGER DEFAULT 0,
		scraped_at TEXT DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS targets (
		name TEXT PRIMARY KEY,
		last_scraped TEXT,
		total_posts INTEGER DEFAULT 0,
		total_comments INTEGER DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_posts_target ON posts(target);
	CREATE INDEX IF NOT EXISTS idx_posts_author ON posts(author);
	CREATE INDEX IF NOT EXISTS idx_comments_permalink ON comments(post_permalink);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// InsertPosts mirrors post rows for a target. Rows whose identifier is
// already present are ignored, matching the CSV store's dedup.
func (db *DB) InsertPosts(target string, posts []models.Post) error {
	if len(posts) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO posts
		(id, target, title, author, created_utc, permalink, url, score,
		 upvote_ratio, num_comments, selftext, post_type, flair,
		 is_nsfw, has_media, media_downloaded)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range posts {
		p := &posts[i]
		_, err := stmt.Exec(
			p.ID, target, p.Title, p.Author,
			p.CreatedUTC.UTC().Format(time.RFC3339),
			p.Permalink, p.URL, p.Score, p.UpvoteRatio, p.NumComments,
			p.Selftext, string(p.PostType), p.Flair,
			p.IsNSFW, p.HasMedia, p.MediaDownloaded,
		)
		if err != nil {
			return err
		}
	}

	if _, err := tx.Exec(`INSERT INTO targets (name, last_scraped, total_posts)
		VALUES (?, ?, (SELECT COUNT(*) FROM posts WHERE target = ?))
		ON CONFLICT(name) DO UPDATE SET
			last_scraped = excluded.last_scraped,
			total_posts = excluded.total_posts`,
		target, time.Now().UTC().Format(time.RFC3339), target); err != nil {
		return err
	}

	return tx.Commit()
}

// InsertComments mirrors comment rows, ignoring known identifiers.
func (db *DB) InsertComments(comments []models.Comment) error {
	if len(comments) == 0 {
		return nil
	}

	tx, err := db.conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO comments
		(comment_id, post_permalink, parent_id, author, body, score,
		 created_utc, depth, is_submitter)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range comments {
		c := &comments[i]
		_, err := stmt.Exec(
			c.ID, c.PostPermalink, c.ParentID, c.Author, c.Body,
			c.Score, c.CreatedUTC.UTC().Format(time.RFC3339),
			c.Depth, c.IsSubmitter,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// PostRow is a mirrored post together with its target.
type PostRow struct {
	models.Post
	Target string
}

// SearchFilter narrows a post search. Zero values mean "no filter".
type SearchFilter struct {
	Query    string
	Target   string
	Author   string
	MinScore int
	PostType string
	Limit    int
}

// SearchPosts returns the posts matching the filter, newest first.
// The text query matches title and selftext, case-insensitively.
func (db *DB) SearchPosts(f SearchFilter) ([]PostRow, error) {
	query := `SELECT id, target, title, author, created_utc, permalink, url,
		score, upvote_ratio, num_comments, selftext, post_type, flair,
		is_nsfw, has_media, media_downloaded
		FROM posts WHERE 1=1`
	var args []interface{}

	if f.Query != "" {
		query += " AND (title LIKE ? COLLATE NOCASE OR selftext LIKE ? COLLATE NOCASE)"
		pattern := "%" + f.Query + "%"
		args = append(args, pattern, pattern)
	}
	if f.Target != "" {
		query += " AND target = ?"
		args = append(args, f.Target)
	}
	if f.Author != "" {
		query += " AND author = ?"
		args = append(args, f.Author)
	}
	if f.MinScore > 0 {
		query += " AND score >= ?"
		args = append(args, f.MinScore)
	}
	if f.PostType != "" {
		query += " AND post_type = ?"
		args = append(args, f.PostType)
	}

	query += " ORDER BY created_utc DESC"
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []PostRow
	for rows.Next() {
		var r PostRow
		var created, postType string
		if err := rows.Scan(
			&r.ID, &r.Target, &r.Title, &r.Author, &created,
			&r.Permalink, &r.URL, &r.Score, &r.UpvoteRatio,
			&r.NumComments, &r.Selftext, &postType, &r.Flair,
			&r.IsNSFW, &r.HasMedia, &r.MediaDownloaded,
		); err != nil {
			return nil, err
		}
		r.CreatedUTC, _ = time.Parse(time.RFC3339, created)
		r.PostType = models.PostType(postType)
		results = append(results, r)
	}
	return results, rows.Err()
}

// PostsForTarget returns every mirrored post for one target. Used by
// the analytics commands.
func (db *DB) PostsForTarget(target string) ([]PostRow, error) {
	return db.SearchPosts(SearchFilter{Target: target, Limit: 100000})
}

// TargetStats is the per-target summary shown by the stats endpoint.
type TargetStats struct {
	Name        string `json:"name"`
	LastScraped string `json:"last_scraped"`
	TotalPosts  int    `json:"total_posts"`
}

// Stats is the aggregate summary across all targets.
type Stats struct {
	TotalPosts    int            `json:"total_posts"`
	TotalComments int            `json:"total_comments"`
	PostsByType   map[string]int `json:"posts_by_type"`
	Targets       []TargetStats  `json:"targets"`
	TopPosts      []PostRow      `json:"top_posts"`
}

// Stats aggregates row counts, type distribution, and top posts.
func (db *DB) Stats() (*Stats, error) {
	s := &Stats{PostsByType: make(map[string]int)}

	if err := db.conn.QueryRow("SELECT COUNT(*) FROM posts").Scan(&s.TotalPosts); err != nil {
		return nil, err
	}
	if err := db.conn.QueryRow("SELECT COUNT(*) FROM comments").Scan(&s.TotalComments); err != nil {
		return nil, err
	}

	rows, err := db.conn.Query("SELECT post_type, COUNT(*) FROM posts GROUP BY post_type")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var postType string
		var count int
		if err := rows.Scan(&postType, &count); err != nil {
			return nil, err
		}
		s.PostsByType[postType] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	targetRows, err := db.conn.Query("SELECT name, COALESCE(last_scraped, ''), total_posts FROM targets ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer targetRows.Close()
	for targetRows.Next() {
		var t TargetStats
		if err := targetRows.Scan(&t.Name, &t.LastScraped, &t.TotalPosts); err != nil {
			return nil, err
		}
		s.Targets = append(s.Targets, t)
	}
	if err := targetRows.Err(); err != nil {
		return nil, err
	}

	top, err := db.topPosts(10)
	if err != nil {
		return nil, err
	}
	s.TopPosts = top

	return s, nil
}

func (db *DB) topPosts(limit int) ([]PostRow, error) {
	rows, err := db.conn.Query(`SELECT id, target, title, author, created_utc,
		permalink, url, score, upvote_ratio, num_comments, selftext,
		post_type, flair, is_nsfw, has_media, media_downloaded
		FROM posts ORDER BY score DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []PostRow
	for rows.Next() {
		var r PostRow
		var created, postType string
		if err := rows.Scan(
			&r.ID, &r.Target, &r.Title, &r.Author, &created,
			&r.Permalink, &r.URL, &r.Score, &r.UpvoteRatio,
			&r.NumComments, &r.Selftext, &postType, &r.Flair,
			&r.IsNSFW, &r.HasMedia, &r.MediaDownloaded,
		); err != nil {
			return nil, err
		}
		r.CreatedUTC, _ = time.Parse(time.RFC3339, created)
		r.PostType = models.PostType(postType)
		results = append(results, r)
	}
	return results, rows.Err()
}
