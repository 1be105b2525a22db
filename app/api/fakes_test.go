package api

import (
	"fmt"
	"sync"
	"time"

	"github.com/castfeed/castfeed/app/database"
)

// In-memory repositories mirroring the uniqueness and guarded-transition
// behavior of the real tables.

type fakeTagRepo struct {
	mu     sync.Mutex
	bySlug map[string]*database.ShowTag
	byID   map[string]*database.ShowTag
	nextID int
}

func newFakeTagRepo() *fakeTagRepo {
	return &fakeTagRepo{
		bySlug: make(map[string]*database.ShowTag),
		byID:   make(map[string]*database.ShowTag),
	}
}

func (f *fakeTagRepo) UpsertByTag(tag, name, category string) (*database.ShowTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.bySlug[tag]; ok {
		existing.Name = name
		copied := *existing
		return &copied, nil
	}

	f.nextID++
	t := &database.ShowTag{
		ID:        fmt.Sprintf("tag-%d", f.nextID),
		Tag:       tag,
		Name:      name,
		Category:  category,
		CreatedAt: time.Now(),
	}
	f.bySlug[tag] = t
	f.byID[t.ID] = t

	copied := *t
	return &copied, nil
}

func (f *fakeTagRepo) GetByTag(tag string) (*database.ShowTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, ok := f.bySlug[tag]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeTagRepo) GetByID(id string) (*database.ShowTag, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, ok := f.byID[id]; ok {
		copied := *t
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeTagRepo) SetParent(id, parentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	parent, ok := f.byID[parentID]
	if !ok || parent.ParentTagID != nil {
		return database.ErrAliasChain
	}
	for _, t := range f.byID {
		if t.ParentTagID != nil && *t.ParentTagID == id {
			return database.ErrAliasChain
		}
	}

	f.byID[id].ParentTagID = &parentID
	return nil
}

func (f *fakeTagRepo) ClearParent(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if t, ok := f.byID[id]; ok {
		t.ParentTagID = nil
	}
	return nil
}

func (f *fakeTagRepo) GetTagCount() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bySlug), nil
}

type fakePostRepo struct {
	mu     sync.Mutex
	posts  []database.Post
	guids  map[string]map[string]struct{}
	nextID int
}

func newFakePostRepo() *fakePostRepo {
	return &fakePostRepo{guids: make(map[string]map[string]struct{})}
}

func (f *fakePostRepo) GetExternalGUIDs(showTagID string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[string]struct{})
	for guid := range f.guids[showTagID] {
		out[guid] = struct{}{}
	}
	return out, nil
}

func (f *fakePostRepo) InsertIngested(posts []database.Post) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	inserted := 0
	for _, p := range posts {
		set, ok := f.guids[p.ShowTagID]
		if !ok {
			set = make(map[string]struct{})
			f.guids[p.ShowTagID] = set
		}
		if p.ExternalGUID != nil {
			if _, dup := set[*p.ExternalGUID]; dup {
				continue
			}
			set[*p.ExternalGUID] = struct{}{}
		}

		f.nextID++
		p.ID = fmt.Sprintf("post-%d", f.nextID)
		f.posts = append(f.posts, p)
		inserted++
	}

	return inserted, nil
}

func (f *fakePostRepo) InsertAuthored(post database.Post) (*database.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	post.ID = fmt.Sprintf("post-%d", f.nextID)
	post.CreatedAt = time.Now()
	f.posts = append(f.posts, post)

	copied := post
	return &copied, nil
}

func (f *fakePostRepo) GetByID(id string) (*database.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range f.posts {
		if p.ID == id {
			copied := p
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakePostRepo) GetRecentByShowTag(showTagID string, limit int) ([]database.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []database.Post
	for i := len(f.posts) - 1; i >= 0 && len(out) < limit; i-- {
		if f.posts[i].ShowTagID == showTagID {
			out = append(out, f.posts[i])
		}
	}
	return out, nil
}

func (f *fakePostRepo) GetPostCount() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.posts), nil
}

type fakeSubRepo struct {
	mu     sync.Mutex
	subs   []*database.FeedSubscription
	nextID int
}

func newFakeSubRepo() *fakeSubRepo {
	return &fakeSubRepo{}
}

func (f *fakeSubRepo) Insert(userID, url, title string) (*database.FeedSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.subs {
		if s.UserID == userID && s.URL == url {
			return nil, database.ErrDuplicate
		}
	}

	f.nextID++
	s := &database.FeedSubscription{
		ID:        fmt.Sprintf("sub-%d", f.nextID),
		UserID:    userID,
		URL:       url,
		Title:     title,
		CreatedAt: time.Now(),
	}
	f.subs = append(f.subs, s)

	copied := *s
	return &copied, nil
}

func (f *fakeSubRepo) GetFirstForURL(url string) (*database.FeedSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.subs {
		if s.URL == url {
			copied := *s
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeSubRepo) ListDistinctURLs() ([]database.SubscriptionRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	seen := make(map[string]struct{})
	var refs []database.SubscriptionRef
	for _, s := range f.subs {
		if _, ok := seen[s.URL]; ok {
			continue
		}
		seen[s.URL] = struct{}{}
		refs = append(refs, database.SubscriptionRef{
			URL:           s.URL,
			UserID:        s.UserID,
			Title:         s.Title,
			LastFetchedAt: s.LastFetchedAt,
		})
	}
	return refs, nil
}

func (f *fakeSubRepo) TouchLastFetched(url string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.subs {
		if s.URL == url {
			t := at
			s.LastFetchedAt = &t
		}
	}
	return nil
}

func (f *fakeSubRepo) UpdateTitle(url, title string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, s := range f.subs {
		if s.URL == url {
			s.Title = title
		}
	}
	return nil
}

func (f *fakeSubRepo) GetSubscriptionCount() (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs), nil
}

type fakeFederationRepo struct {
	mu   sync.Mutex
	rows map[string]*database.FederatedPost
}

func newFakeFederationRepo() *fakeFederationRepo {
	return &fakeFederationRepo{rows: make(map[string]*database.FederatedPost)}
}

func (f *fakeFederationRepo) CreatePending(rows []database.FederatedPost) ([]database.FederatedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]database.FederatedPost, 0, len(rows))
	for _, row := range rows {
		row.Status = database.FederationPending
		row.CreatedAt = time.Now()
		row.UpdatedAt = row.CreatedAt

		copied := row
		f.rows[row.ID] = &copied
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeFederationRepo) GetByID(id string) (*database.FederatedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if row, ok := f.rows[id]; ok {
		copied := *row
		return &copied, nil
	}
	return nil, nil
}

func (f *fakeFederationRepo) ListByPost(localPostID string) ([]database.FederatedPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []database.FederatedPost
	for _, row := range f.rows {
		if row.LocalPostID == localPostID {
			out = append(out, *row)
		}
	}
	return out, nil
}

func (f *fakeFederationRepo) MarkPublished(id, externalPostID, externalURL string, publishedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok || row.Status != database.FederationPending {
		return false, nil
	}

	row.Status = database.FederationPublished
	row.ExternalPostID = &externalPostID
	row.ExternalURL = &externalURL
	row.PublishedAt = &publishedAt
	row.UpdatedAt = time.Now()
	return true, nil
}

func (f *fakeFederationRepo) MarkFailed(id, message string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	row, ok := f.rows[id]
	if !ok || row.Status != database.FederationPending {
		return false, nil
	}

	row.Status = database.FederationFailed
	row.ErrorMessage = &message
	row.UpdatedAt = time.Now()
	return true, nil
}

// fakeUserAuth resolves fixed tokens to user ids
type fakeUserAuth struct {
	tokens map[string]string
}

func (f *fakeUserAuth) UserID(token string) (string, error) {
	userID, ok := f.tokens[token]
	if !ok {
		return "", fmt.Errorf("unknown token")
	}
	return userID, nil
}
