package service

import (
	"context"
	"errors"
	"log"

	"github.com/shawty-app/shawty/internal/cache"
	"github.com/shawty-app/shawty/internal/model"
	"github.com/shawty-app/shawty/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// Outcome is the terminal state of a redirect resolution
type Outcome int

const (
	// OutcomeNotFound means the code is unknown, or the store failed;
	// the hot path never distinguishes the two for the caller.
	OutcomeNotFound Outcome = iota
	// OutcomeChallenge sends the visitor to the password prompt
	OutcomeChallenge
	// OutcomeRedirect sends the visitor to the destination
	OutcomeRedirect
)

// Visit carries the request metadata the tracker records
type Visit struct {
	UserAgent string
	Referrer  string
	IP        string
}

// RedirectStore is the single lookup the hot path performs against the store
type RedirectStore interface {
	GetLinkByShortCode(ctx context.Context, shortCode string) (*model.Link, error)
}

// Tracker records a click without blocking the caller
type Tracker interface {
	Track(linkID string, priorClicks int64, shortCode string, visit Visit)
}

// RedirectResolver resolves short codes to destinations through the link
// cache, enforces the password gate, and fires click tracking as a detached
// side effect.
type RedirectResolver struct {
	store   RedirectStore
	cache   *cache.LinkCache
	tracker Tracker
}

func NewRedirectResolver(store RedirectStore, linkCache *cache.LinkCache, tracker Tracker) *RedirectResolver {
	return &RedirectResolver{
		store:   store,
		cache:   linkCache,
		tracker: tracker,
	}
}

// Resolve walks LOOKUP -> PASSWORD_CHECK -> REDIRECT for one request.
// verified is whether the visitor carries a valid verification cookie for
// this code. The returned destination is only meaningful for OutcomeRedirect.
func (r *RedirectResolver) Resolve(ctx context.Context, shortCode string, verified bool, visit Visit) (Outcome, string) {
	link, ok := r.cache.Get(shortCode)
	if !ok {
		fromStore, err := r.store.GetLinkByShortCode(ctx, shortCode)
		if err != nil {
			// Store failures degrade to not-found; the redirect path
			// never leaks a 500.
			if !errors.Is(err, repository.ErrLinkNotFound) {
				log.Printf("redirect lookup failed: code=%s err=%v", shortCode, err)
			}
			return OutcomeNotFound, ""
		}
		link = *fromStore
		r.cache.Put(shortCode, link)
	}

	if link.HasPassword() && !verified {
		return OutcomeChallenge, ""
	}

	// Tracking is detached: the response never waits on it, and it owns
	// its own failures.
	go r.tracker.Track(link.ID, link.Clicks, shortCode, visit)

	return OutcomeRedirect, link.LongURL
}

// HasPassword reports whether the code exists and is password gated.
// The verify page uses it to bounce visitors off unprotected codes.
func (r *RedirectResolver) HasPassword(ctx context.Context, shortCode string) (bool, error) {
	link, err := r.store.GetLinkByShortCode(ctx, shortCode)
	if err != nil {
		return false, err
	}
	return link.HasPassword(), nil
}

// VerifyPassword checks a submitted password against the link's stored hash
func (r *RedirectResolver) VerifyPassword(ctx context.Context, shortCode, password string) (bool, error) {
	link, err := r.store.GetLinkByShortCode(ctx, shortCode)
	if err != nil {
		return false, err
	}
	if !link.HasPassword() {
		return false, nil
	}

	err = bcrypt.CompareHashAndPassword([]byte(*link.PasswordHash), []byte(password))
	return err == nil, nil
}
