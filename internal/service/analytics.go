package service

import (
	"context"

	"github.com/shawty-app/shawty/internal/model"
)

// AnalyticsStore aggregates a link's click events
type AnalyticsStore interface {
	GetLinkByID(ctx context.Context, id, userID string) (*model.Link, error)
	CountClicksByLink(ctx context.Context, linkID string) (int64, error)
	ClicksByCountry(ctx context.Context, linkID string) (map[string]int64, error)
	ClicksByDevice(ctx context.Context, linkID string) (map[string]int64, error)
	ClicksByOS(ctx context.Context, linkID string) (map[string]int64, error)
	ClicksByBrowser(ctx context.Context, linkID string) (map[string]int64, error)
	ClicksByDate(ctx context.Context, linkID string) (map[string]int64, error)
	RecentClicks(ctx context.Context, linkID string, limit int) ([]model.ClickEvent, error)
}

const recentClicksLimit = 10

type AnalyticsService struct {
	store AnalyticsStore
}

func NewAnalyticsService(store AnalyticsStore) *AnalyticsService {
	return &AnalyticsService{store: store}
}

// GetLinkAnalytics returns the click breakdown for a link the user owns.
// Ownership is enforced by the scoped link lookup.
func (s *AnalyticsService) GetLinkAnalytics(ctx context.Context, userID, linkID string) (*model.Link, *model.LinkAnalytics, error) {
	link, err := s.store.GetLinkByID(ctx, linkID, userID)
	if err != nil {
		return nil, nil, err
	}

	total, err := s.store.CountClicksByLink(ctx, link.ID)
	if err != nil {
		return nil, nil, err
	}

	byCountry, err := s.store.ClicksByCountry(ctx, link.ID)
	if err != nil {
		return nil, nil, err
	}

	byDevice, err := s.store.ClicksByDevice(ctx, link.ID)
	if err != nil {
		return nil, nil, err
	}

	byOS, err := s.store.ClicksByOS(ctx, link.ID)
	if err != nil {
		return nil, nil, err
	}

	byBrowser, err := s.store.ClicksByBrowser(ctx, link.ID)
	if err != nil {
		return nil, nil, err
	}

	byDate, err := s.store.ClicksByDate(ctx, link.ID)
	if err != nil {
		return nil, nil, err
	}

	recent, err := s.store.RecentClicks(ctx, link.ID, recentClicksLimit)
	if err != nil {
		return nil, nil, err
	}

	analytics := &model.LinkAnalytics{
		TotalClicks:  total,
		ByCountry:    byCountry,
		ByDevice:     byDevice,
		ByOS:         byOS,
		ByBrowser:    byBrowser,
		ByDate:       byDate,
		RecentClicks: recent,
	}

	return link, analytics, nil
}
