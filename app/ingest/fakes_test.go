package ingest

import (
	"fmt"
	"sync"
	"time"

	"github.com/castfeed/castfeed/app/database"
)

// fakeTagRepo implements database.ShowTagRepository in memory
type fakeTagRepo struct {
	mu         sync.Mutex
	bySlug     map[string]*database.ShowTag
	byID       map[string]*database.ShowTag
	nextID     int
	upsertErrs int // fail this many upserts before succeeding
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

	if f.upsertErrs > 0 {
		f.upsertErrs--
		return nil, fmt.Errorf("simulated write conflict")
	}

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

// fakePostRepo implements database.PostRepository in memory, honoring the
// per-show guid uniqueness constraint the way the database does.
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

func (f *fakePostRepo) postsForShow(showTagID string) []database.Post {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []database.Post
	for _, p := range f.posts {
		if p.ShowTagID == showTagID {
			out = append(out, p)
		}
	}
	return out
}

// fakeSubRepo implements database.SubscriptionRepository in memory
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
