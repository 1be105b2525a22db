package database

import (
	"database/sql"
	"fmt"
)

// PostRepositoryImpl handles database operations for posts
type PostRepositoryImpl struct {
	db *DB
}

var _ PostRepository = (*PostRepositoryImpl)(nil)

func NewPostRepository(db *DB) *PostRepositoryImpl {
	return &PostRepositoryImpl{db: db}
}

// GetExternalGUIDs returns the set of dedup keys already recorded for a show.
func (r *PostRepositoryImpl) GetExternalGUIDs(showTagID string) (map[string]struct{}, error) {
	rows, err := r.db.Query(`
		SELECT external_guid
		FROM posts
		WHERE show_tag_id = $1
		  AND external_guid IS NOT NULL
	`, showTagID)
	if err != nil {
		return nil, fmt.Errorf("failed to get external guids: %w", err)
	}
	defer rows.Close()

	guids := make(map[string]struct{})
	for rows.Next() {
		var guid string
		if err := rows.Scan(&guid); err != nil {
			return nil, fmt.Errorf("failed to scan guid row: %w", err)
		}
		guids[guid] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating guid rows: %w", err)
	}

	return guids, nil
}

// InsertIngested inserts feed entries in their original order and returns the
// number of rows actually written. Rows hitting the (show_tag_id,
// external_guid) uniqueness constraint are skipped silently: a concurrent
// worker already ingested them.
func (r *PostRepositoryImpl) InsertIngested(posts []Post) (int, error) {
	inserted := 0
	for _, p := range posts {
		res, err := r.db.Exec(`
			INSERT INTO posts (show_tag_id, user_id, content, author_name,
			                   external_guid, external_url, image_url, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (show_tag_id, external_guid) WHERE external_guid IS NOT NULL
			DO NOTHING
		`, p.ShowTagID, p.UserID, p.Content, p.AuthorName,
			p.ExternalGUID, p.ExternalURL, p.ImageURL, p.CreatedAt)
		if err != nil {
			return inserted, fmt.Errorf("failed to insert ingested post: %w", err)
		}

		affected, err := res.RowsAffected()
		if err != nil {
			return inserted, fmt.Errorf("failed to check insert result: %w", err)
		}
		inserted += int(affected)
	}

	return inserted, nil
}

// InsertAuthored creates a user-authored post (no external guid).
func (r *PostRepositoryImpl) InsertAuthored(post Post) (*Post, error) {
	var p Post
	err := r.db.QueryRow(`
		INSERT INTO posts (show_tag_id, user_id, content, author_name, image_url)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, show_tag_id, user_id, content, author_name,
		          external_guid, COALESCE(external_url, ''), COALESCE(image_url, ''), created_at
	`, post.ShowTagID, post.UserID, post.Content, post.AuthorName, post.ImageURL).Scan(
		&p.ID, &p.ShowTagID, &p.UserID, &p.Content, &p.AuthorName,
		&p.ExternalGUID, &p.ExternalURL, &p.ImageURL, &p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert post: %w", err)
	}

	return &p, nil
}

func (r *PostRepositoryImpl) GetByID(id string) (*Post, error) {
	var p Post
	err := r.db.QueryRow(`
		SELECT id, show_tag_id, user_id, content, author_name,
		       external_guid, COALESCE(external_url, ''), COALESCE(image_url, ''), created_at
		FROM posts
		WHERE id = $1
	`, id).Scan(
		&p.ID, &p.ShowTagID, &p.UserID, &p.Content, &p.AuthorName,
		&p.ExternalGUID, &p.ExternalURL, &p.ImageURL, &p.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}

	return &p, nil
}

func (r *PostRepositoryImpl) GetRecentByShowTag(showTagID string, limit int) ([]Post, error) {
	rows, err := r.db.Query(`
		SELECT id, show_tag_id, user_id, content, author_name,
		       external_guid, COALESCE(external_url, ''), COALESCE(image_url, ''), created_at
		FROM posts
		WHERE show_tag_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, showTagID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get posts: %w", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		err := rows.Scan(
			&p.ID, &p.ShowTagID, &p.UserID, &p.Content, &p.AuthorName,
			&p.ExternalGUID, &p.ExternalURL, &p.ImageURL, &p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post row: %w", err)
		}
		posts = append(posts, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating post rows: %w", err)
	}

	return posts, nil
}

func (r *PostRepositoryImpl) GetPostCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM posts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get post count: %w", err)
	}
	return count, nil
}
