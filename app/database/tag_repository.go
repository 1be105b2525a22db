package database

import (
	"database/sql"
	"fmt"
)

// ShowTagRepositoryImpl handles database operations for show tags
type ShowTagRepositoryImpl struct {
	db *DB
}

var _ ShowTagRepository = (*ShowTagRepositoryImpl)(nil)

func NewShowTagRepository(db *DB) *ShowTagRepositoryImpl {
	return &ShowTagRepositoryImpl{db: db}
}

// UpsertByTag inserts a show tag keyed by its slug, returning the existing
// row unchanged except for the name refresh the ON CONFLICT clause applies.
// The parent pointer is never touched here; aliasing is an administrative
// operation (SetParent).
func (r *ShowTagRepositoryImpl) UpsertByTag(tag, name, category string) (*ShowTag, error) {
	var t ShowTag
	err := r.db.QueryRow(`
		INSERT INTO show_tags (tag, name, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (tag) DO UPDATE SET name = EXCLUDED.name
		RETURNING id, tag, name, COALESCE(category, ''), parent_tag_id, created_at
	`, tag, name, category).Scan(
		&t.ID, &t.Tag, &t.Name, &t.Category, &t.ParentTagID, &t.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert show tag: %w", err)
	}

	return &t, nil
}

func (r *ShowTagRepositoryImpl) GetByTag(tag string) (*ShowTag, error) {
	return r.get("tag", tag)
}

func (r *ShowTagRepositoryImpl) GetByID(id string) (*ShowTag, error) {
	return r.get("id", id)
}

func (r *ShowTagRepositoryImpl) get(column, value string) (*ShowTag, error) {
	var t ShowTag
	err := r.db.QueryRow(fmt.Sprintf(`
		SELECT id, tag, name, COALESCE(category, ''), parent_tag_id, created_at
		FROM show_tags
		WHERE %s = $1
	`, column), value).Scan(
		&t.ID, &t.Tag, &t.Name, &t.Category, &t.ParentTagID, &t.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get show tag by %s: %w", column, err)
	}

	return &t, nil
}

// SetParent makes the tag an alias of parentID. The update is guarded so an
// alias chain can never form: the target must itself be canonical, and a tag
// that already has aliases pointing at it cannot become an alias.
func (r *ShowTagRepositoryImpl) SetParent(id, parentID string) error {
	res, err := r.db.Exec(`
		UPDATE show_tags
		SET parent_tag_id = $2
		WHERE id = $1
		  AND NOT EXISTS (SELECT 1 FROM show_tags p WHERE p.id = $2 AND p.parent_tag_id IS NOT NULL)
		  AND NOT EXISTS (SELECT 1 FROM show_tags c WHERE c.parent_tag_id = $1)
	`, id, parentID)
	if err != nil {
		return fmt.Errorf("failed to set parent tag: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check parent tag update: %w", err)
	}
	if affected == 0 {
		return ErrAliasChain
	}

	return nil
}

func (r *ShowTagRepositoryImpl) ClearParent(id string) error {
	_, err := r.db.Exec(`
		UPDATE show_tags
		SET parent_tag_id = NULL
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to clear parent tag: %w", err)
	}

	return nil
}

func (r *ShowTagRepositoryImpl) GetTagCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM show_tags").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get tag count: %w", err)
	}
	return count, nil
}
