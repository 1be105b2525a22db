package database

import (
	"database/sql"
	"fmt"
	"time"
)

// FederationRepositoryImpl handles database operations for federated posts
type FederationRepositoryImpl struct {
	db *DB
}

var _ FederationRepository = (*FederationRepositoryImpl)(nil)

func NewFederationRepository(db *DB) *FederationRepositoryImpl {
	return &FederationRepositoryImpl{db: db}
}

func (r *FederationRepositoryImpl) CreatePending(rows []FederatedPost) ([]FederatedPost, error) {
	created := make([]FederatedPost, 0, len(rows))
	for _, row := range rows {
		var fp FederatedPost
		err := r.db.QueryRow(`
			INSERT INTO federated_posts (id, local_post_id, connected_account_id, status)
			VALUES ($1, $2, $3, 'pending')
			RETURNING id, local_post_id, connected_account_id, status,
			          external_post_id, external_url, error_message, published_at,
			          created_at, updated_at
		`, row.ID, row.LocalPostID, row.ConnectedAccountID).Scan(
			&fp.ID, &fp.LocalPostID, &fp.ConnectedAccountID, &fp.Status,
			&fp.ExternalPostID, &fp.ExternalURL, &fp.ErrorMessage, &fp.PublishedAt,
			&fp.CreatedAt, &fp.UpdatedAt,
		)
		if err != nil {
			return created, fmt.Errorf("failed to create federated post: %w", err)
		}
		created = append(created, fp)
	}

	return created, nil
}

func (r *FederationRepositoryImpl) GetByID(id string) (*FederatedPost, error) {
	var fp FederatedPost
	err := r.db.QueryRow(`
		SELECT id, local_post_id, connected_account_id, status,
		       external_post_id, external_url, error_message, published_at,
		       created_at, updated_at
		FROM federated_posts
		WHERE id = $1
	`, id).Scan(
		&fp.ID, &fp.LocalPostID, &fp.ConnectedAccountID, &fp.Status,
		&fp.ExternalPostID, &fp.ExternalURL, &fp.ErrorMessage, &fp.PublishedAt,
		&fp.CreatedAt, &fp.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get federated post: %w", err)
	}

	return &fp, nil
}

func (r *FederationRepositoryImpl) ListByPost(localPostID string) ([]FederatedPost, error) {
	rows, err := r.db.Query(`
		SELECT id, local_post_id, connected_account_id, status,
		       external_post_id, external_url, error_message, published_at,
		       created_at, updated_at
		FROM federated_posts
		WHERE local_post_id = $1
		ORDER BY created_at
	`, localPostID)
	if err != nil {
		return nil, fmt.Errorf("failed to list federated posts: %w", err)
	}
	defer rows.Close()

	var fps []FederatedPost
	for rows.Next() {
		var fp FederatedPost
		err := rows.Scan(
			&fp.ID, &fp.LocalPostID, &fp.ConnectedAccountID, &fp.Status,
			&fp.ExternalPostID, &fp.ExternalURL, &fp.ErrorMessage, &fp.PublishedAt,
			&fp.CreatedAt, &fp.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan federated post row: %w", err)
		}
		fps = append(fps, fp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating federated post rows: %w", err)
	}

	return fps, nil
}

// MarkPublished transitions a pending row to published. The status guard in
// the WHERE clause is what makes the transition monotonic under racing
// resolution calls: the second caller matches zero rows.
func (r *FederationRepositoryImpl) MarkPublished(id, externalPostID, externalURL string, publishedAt time.Time) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE federated_posts
		SET status = 'published', external_post_id = $2, external_url = $3,
		    published_at = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, externalPostID, externalURL, publishedAt)
	if err != nil {
		return false, fmt.Errorf("failed to mark federated post published: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check publish update: %w", err)
	}

	return affected > 0, nil
}

func (r *FederationRepositoryImpl) MarkFailed(id, errorMessage string) (bool, error) {
	res, err := r.db.Exec(`
		UPDATE federated_posts
		SET status = 'failed', error_message = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, id, errorMessage)
	if err != nil {
		return false, fmt.Errorf("failed to mark federated post failed: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check failure update: %w", err)
	}

	return affected > 0, nil
}
