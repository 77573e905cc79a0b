package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/shawty-app/shawty/internal/model"
	"github.com/shawty-app/shawty/internal/notifier"
	"github.com/shawty-app/shawty/internal/repository"
	"github.com/shawty-app/shawty/internal/urlutil"
	"golang.org/x/crypto/bcrypt"
)

// ErrSelfReference rejects links that point back at our own domain
var ErrSelfReference = errors.New("cannot create shortlinks that point to this domain")

// ValidationError is a user-correctable input problem; its message is safe to
// return to the client.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// LinkStore is the subset of the repository the link CRUD paths use
type LinkStore interface {
	CreateLink(ctx context.Context, link *model.Link) error
	GetLinkByID(ctx context.Context, id, userID string) (*model.Link, error)
	ShortCodeExists(ctx context.Context, shortCode string) (bool, error)
	ListLinksByUser(ctx context.Context, userID string, limit, offset int) ([]model.Link, error)
	CountLinksByUser(ctx context.Context, userID string) (int64, error)
	UpdateLink(ctx context.Context, link *model.Link) error
	DeleteLink(ctx context.Context, id, userID string) error
	Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error)
}

// LoopAlerter receives best-effort alerts about blocked self-referencing links
type LoopAlerter interface {
	SelfReferenceAlert(user model.User, attemptedURL string, action notifier.Action)
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
	leaderboardSize  = 50
)

type LinkService struct {
	store            LinkStore
	alerter          LoopAlerter
	blockedHostnames []string
	codeLength       int
}

func NewLinkService(store LinkStore, alerter LoopAlerter, blockedHostnames []string, codeLength int) *LinkService {
	return &LinkService{
		store:            store,
		alerter:          alerter,
		blockedHostnames: blockedHostnames,
		codeLength:       codeLength,
	}
}

// CreateLink validates, normalizes and stores a new short link for the user
func (s *LinkService) CreateLink(ctx context.Context, user *model.User, req *model.CreateLinkRequest) (*model.CreateLinkResponse, error) {
	longURL, err := urlutil.Normalize(req.URL)
	if err != nil {
		return nil, &ValidationError{Reason: err.Error()}
	}

	if urlutil.IsSelfReferencing(longURL, s.blockedHostnames) {
		// Alert dispatch is detached; the rejection does not depend on it.
		go s.alerter.SelfReferenceAlert(*user, longURL, notifier.ActionCreate)
		return nil, ErrSelfReference
	}

	shortCode, isCustom, err := s.resolveShortCode(ctx, req.CustomSlug)
	if err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	link := &model.Link{
		ShortCode:    shortCode,
		LongURL:      longURL,
		CustomSlug:   isCustom,
		PasswordHash: passwordHash,
		UserID:       user.ID,
	}

	// The unique constraint is authoritative; the pre-check above is only
	// advisory and a concurrent insert can still win the slug.
	if err := s.store.CreateLink(ctx, link); err != nil {
		return nil, err
	}

	return &model.CreateLinkResponse{ShortCode: link.ShortCode}, nil
}

func (s *LinkService) resolveShortCode(ctx context.Context, customSlug string) (code string, isCustom bool, err error) {
	if customSlug == "" {
		code, err = urlutil.GenerateShortCode(s.codeLength)
		if err != nil {
			return "", false, fmt.Errorf("failed to generate short code: %w", err)
		}
		return code, false, nil
	}

	code, err = urlutil.ValidateCustomSlug(customSlug)
	if err != nil {
		return "", false, &ValidationError{Reason: err.Error()}
	}

	taken, err := s.store.ShortCodeExists(ctx, code)
	if err != nil {
		return "", false, fmt.Errorf("failed to check slug availability: %w", err)
	}
	if taken {
		return "", false, repository.ErrSlugTaken
	}

	return code, true, nil
}

// ListLinks returns one page of the user's links, newest first
func (s *LinkService) ListLinks(ctx context.Context, userID string, page, limit int) (*model.ListLinksResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}
	offset := (page - 1) * limit

	links, err := s.store.ListLinksByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}

	total, err := s.store.CountLinksByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &model.ListLinksResponse{
		Links: links,
		Page:  page,
		Limit: limit,
		Total: total,
	}, nil
}

// UpdateLink applies a partial update to a link the user owns. A destination
// change goes through the same normalization and loop protection as create.
func (s *LinkService) UpdateLink(ctx context.Context, user *model.User, linkID string, req *model.UpdateLinkRequest) (*model.Link, error) {
	link, err := s.store.GetLinkByID(ctx, linkID, user.ID)
	if err != nil {
		return nil, err
	}

	if req.URL != nil {
		longURL, err := urlutil.Normalize(*req.URL)
		if err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
		if urlutil.IsSelfReferencing(longURL, s.blockedHostnames) {
			go s.alerter.SelfReferenceAlert(*user, longURL, notifier.ActionUpdate)
			return nil, ErrSelfReference
		}
		link.LongURL = longURL
	}

	if req.Password != nil {
		hash, err := hashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		link.PasswordHash = hash
	}

	if req.OnLeaderboard != nil {
		link.OnLeaderboard = *req.OnLeaderboard
	}

	if err := s.store.UpdateLink(ctx, link); err != nil {
		return nil, err
	}

	return link, nil
}

// DeleteLink removes a link the user owns
func (s *LinkService) DeleteLink(ctx context.Context, userID, linkID string) error {
	return s.store.DeleteLink(ctx, linkID, userID)
}

// Leaderboard returns the public top list of opted-in links
func (s *LinkService) Leaderboard(ctx context.Context) ([]model.LeaderboardEntry, error) {
	entries, err := s.store.Leaderboard(ctx, leaderboardSize)
	if err != nil {
		log.Printf("leaderboard query failed: err=%v", err)
		return nil, err
	}
	return entries, nil
}

// hashPassword bcrypt-hashes a link password, or returns nil for none
func hashPassword(password string) (*string, error) {
	if password == "" {
		return nil, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	s := string(hash)
	return &s, nil
}
