package database

import (
	"database/sql"
	"fmt"
	"time"
)

// SubscriptionRepositoryImpl handles database operations for feed subscriptions
type SubscriptionRepositoryImpl struct {
	db *DB
}

var _ SubscriptionRepository = (*SubscriptionRepositoryImpl)(nil)

func NewSubscriptionRepository(db *DB) *SubscriptionRepositoryImpl {
	return &SubscriptionRepositoryImpl{db: db}
}

// Insert registers a feed URL for a user. Returns ErrDuplicate when the
// user already tracks that URL.
func (r *SubscriptionRepositoryImpl) Insert(userID, url, title string) (*FeedSubscription, error) {
	var s FeedSubscription
	err := r.db.QueryRow(`
		INSERT INTO feed_subscriptions (user_id, rss_url, title)
		VALUES ($1, $2, $3)
		RETURNING id, user_id, rss_url, title, last_fetched_at, created_at
	`, userID, url, title).Scan(
		&s.ID, &s.UserID, &s.URL, &s.Title, &s.LastFetchedAt, &s.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to insert subscription: %w", err)
	}

	return &s, nil
}

func (r *SubscriptionRepositoryImpl) GetFirstForURL(url string) (*FeedSubscription, error) {
	var s FeedSubscription
	err := r.db.QueryRow(`
		SELECT id, user_id, rss_url, title, last_fetched_at, created_at
		FROM feed_subscriptions
		WHERE rss_url = $1
		ORDER BY created_at
		LIMIT 1
	`, url).Scan(
		&s.ID, &s.UserID, &s.URL, &s.Title, &s.LastFetchedAt, &s.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get subscription by URL: %w", err)
	}

	return &s, nil
}

// ListDistinctURLs returns one polling unit per distinct feed URL across all
// users, attributed to the earliest registrant.
func (r *SubscriptionRepositoryImpl) ListDistinctURLs() ([]SubscriptionRef, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT ON (rss_url) rss_url, user_id, title, last_fetched_at
		FROM feed_subscriptions
		ORDER BY rss_url, created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list feed URLs: %w", err)
	}
	defer rows.Close()

	var refs []SubscriptionRef
	for rows.Next() {
		var ref SubscriptionRef
		if err := rows.Scan(&ref.URL, &ref.UserID, &ref.Title, &ref.LastFetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription row: %w", err)
		}
		refs = append(refs, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subscription rows: %w", err)
	}

	return refs, nil
}

// TouchLastFetched records a poll attempt on every registration of the URL,
// success and failure alike.
func (r *SubscriptionRepositoryImpl) TouchLastFetched(url string, at time.Time) error {
	_, err := r.db.Exec(`
		UPDATE feed_subscriptions
		SET last_fetched_at = $2
		WHERE rss_url = $1
	`, url, at)
	if err != nil {
		return fmt.Errorf("failed to update last fetched: %w", err)
	}

	return nil
}

func (r *SubscriptionRepositoryImpl) UpdateTitle(url, title string) error {
	_, err := r.db.Exec(`
		UPDATE feed_subscriptions
		SET title = $2
		WHERE rss_url = $1
	`, url, title)
	if err != nil {
		return fmt.Errorf("failed to update subscription title: %w", err)
	}

	return nil
}

func (r *SubscriptionRepositoryImpl) GetSubscriptionCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM feed_subscriptions").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get subscription count: %w", err)
	}
	return count, nil
}
