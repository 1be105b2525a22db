package database

import (
	"errors"
	"time"
)

// ErrDuplicate is returned by inserts that hit a uniqueness constraint
// where the caller is expected to treat the conflict as "already present".
var ErrDuplicate = errors.New("record already exists")

// ErrAliasChain is returned by SetParent when the requested pointer would
// create an alias chain deeper than one hop.
var ErrAliasChain = errors.New("alias chains are not allowed")

type ShowTagRepository interface {
	UpsertByTag(tag, name, category string) (*ShowTag, error)
	GetByTag(tag string) (*ShowTag, error)
	GetByID(id string) (*ShowTag, error)
	SetParent(id, parentID string) error
	ClearParent(id string) error
	GetTagCount() (int, error)
}

type PostRepository interface {
	GetExternalGUIDs(showTagID string) (map[string]struct{}, error)
	InsertIngested(posts []Post) (int, error)
	InsertAuthored(post Post) (*Post, error)
	GetByID(id string) (*Post, error)
	GetRecentByShowTag(showTagID string, limit int) ([]Post, error)
	GetPostCount() (int, error)
}

type SubscriptionRepository interface {
	Insert(userID, url, title string) (*FeedSubscription, error)
	GetFirstForURL(url string) (*FeedSubscription, error)
	ListDistinctURLs() ([]SubscriptionRef, error)
	TouchLastFetched(url string, at time.Time) error
	UpdateTitle(url, title string) error
	GetSubscriptionCount() (int, error)
}

type FederationRepository interface {
	CreatePending(rows []FederatedPost) ([]FederatedPost, error)
	GetByID(id string) (*FederatedPost, error)
	ListByPost(localPostID string) ([]FederatedPost, error)
	// MarkPublished and MarkFailed apply the single allowed transition out
	// of pending. They report false when the row was already terminal.
	MarkPublished(id, externalPostID, externalURL string, publishedAt time.Time) (bool, error)
	MarkFailed(id, errorMessage string) (bool, error)
}
