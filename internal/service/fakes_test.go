package service

import (
	"context"
	"sync"

	"github.com/shawty-app/shawty/internal/geo"
	"github.com/shawty-app/shawty/internal/model"
	"github.com/shawty-app/shawty/internal/notifier"
	"github.com/shawty-app/shawty/internal/repository"
)

// fakeLinkStore implements LinkStore in memory, keyed by short code
type fakeLinkStore struct {
	mu        sync.Mutex
	links     map[string]*model.Link
	createErr error

	lastListLimit  int
	lastListOffset int
}

func newFakeLinkStore() *fakeLinkStore {
	return &fakeLinkStore{links: make(map[string]*model.Link)}
}

func (f *fakeLinkStore) CreateLink(_ context.Context, link *model.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if _, ok := f.links[link.ShortCode]; ok {
		return repository.ErrSlugTaken
	}
	link.ID = "link-" + link.ShortCode
	cp := *link
	f.links[link.ShortCode] = &cp
	return nil
}

func (f *fakeLinkStore) GetLinkByID(_ context.Context, id, userID string) (*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, l := range f.links {
		if l.ID == id && l.UserID == userID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, repository.ErrLinkNotFound
}

func (f *fakeLinkStore) ShortCodeExists(_ context.Context, shortCode string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.links[shortCode]
	return ok, nil
}

func (f *fakeLinkStore) ListLinksByUser(_ context.Context, userID string, limit, offset int) ([]model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastListLimit = limit
	f.lastListOffset = offset
	var out []model.Link
	for _, l := range f.links {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLinkStore) CountLinksByUser(_ context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, l := range f.links {
		if l.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (f *fakeLinkStore) UpdateLink(_ context.Context, link *model.Link) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.links[link.ShortCode]
	if !ok || existing.UserID != link.UserID {
		return repository.ErrLinkNotFound
	}
	cp := *link
	f.links[link.ShortCode] = &cp
	return nil
}

func (f *fakeLinkStore) DeleteLink(_ context.Context, id, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for code, l := range f.links {
		if l.ID == id && l.UserID == userID {
			delete(f.links, code)
			return nil
		}
	}
	return repository.ErrLinkNotFound
}

func (f *fakeLinkStore) Leaderboard(_ context.Context, limit int) ([]model.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.LeaderboardEntry
	for _, l := range f.links {
		if l.OnLeaderboard && len(out) < limit {
			out = append(out, model.LeaderboardEntry{
				ID: l.ID, ShortCode: l.ShortCode, LongURL: l.LongURL, Clicks: l.Clicks,
			})
		}
	}
	return out, nil
}

// fakeAlerter records self-reference alerts on a channel so tests can wait
// for the detached dispatch
type fakeAlerter struct {
	alerts chan string
}

func newFakeAlerter() *fakeAlerter {
	return &fakeAlerter{alerts: make(chan string, 4)}
}

func (f *fakeAlerter) SelfReferenceAlert(_ model.User, attemptedURL string, _ notifier.Action) {
	f.alerts <- attemptedURL
}

// fakeRedirectStore serves a fixed set of links and counts lookups
type fakeRedirectStore struct {
	mu      sync.Mutex
	links   map[string]*model.Link
	err     error
	lookups int
}

func newFakeRedirectStore() *fakeRedirectStore {
	return &fakeRedirectStore{links: make(map[string]*model.Link)}
}

func (f *fakeRedirectStore) GetLinkByShortCode(_ context.Context, shortCode string) (*model.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	link, ok := f.links[shortCode]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	cp := *link
	return &cp, nil
}

func (f *fakeRedirectStore) lookupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lookups
}

// trackCall is one recorded Track invocation
type trackCall struct {
	linkID      string
	priorClicks int64
	shortCode   string
	visit       Visit
}

// fakeTracker records Track calls on a channel since the resolver fires
// them from a goroutine
type fakeTracker struct {
	calls chan trackCall
}

func newFakeTracker() *fakeTracker {
	return &fakeTracker{calls: make(chan trackCall, 4)}
}

func (f *fakeTracker) Track(linkID string, priorClicks int64, shortCode string, visit Visit) {
	f.calls <- trackCall{linkID: linkID, priorClicks: priorClicks, shortCode: shortCode, visit: visit}
}

// fakeClickStore records the tracker's two writes
type fakeClickStore struct {
	mu         sync.Mutex
	clicks     []model.ClickEvent
	counters   map[string]int64
	insertErr  error
	counterErr error
}

func newFakeClickStore() *fakeClickStore {
	return &fakeClickStore{counters: make(map[string]int64)}
}

func (f *fakeClickStore) InsertClick(_ context.Context, click *model.ClickEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return f.insertErr
	}
	f.clicks = append(f.clicks, *click)
	return nil
}

func (f *fakeClickStore) SetLinkClicks(_ context.Context, shortCode string, clicks int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counterErr != nil {
		return f.counterErr
	}
	f.counters[shortCode] = clicks
	return nil
}

// fakeGeo returns a canned location without any network
type fakeGeo struct {
	location geo.Location
}

func (f *fakeGeo) Lookup(_ context.Context, _ string) geo.Location {
	return f.location
}
