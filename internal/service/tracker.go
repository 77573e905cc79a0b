package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/mileusna/useragent"
	"github.com/shawty-app/shawty/internal/geo"
	"github.com/shawty-app/shawty/internal/model"
)

// ClickStore holds the two writes a tracked click produces
type ClickStore interface {
	InsertClick(ctx context.Context, click *model.ClickEvent) error
	SetLinkClicks(ctx context.Context, shortCode string, clicks int64) error
}

// GeoResolver maps an IP to an approximate location within a bounded time
type GeoResolver interface {
	Lookup(ctx context.Context, ip string) geo.Location
}

// ClickTracker persists click events and bumps link counters. It always runs
// detached from the redirect response: every failure is logged and swallowed,
// and the two store writes race each other, so either may land alone.
type ClickTracker struct {
	store ClickStore
	geo   GeoResolver
}

func NewClickTracker(store ClickStore, geoResolver GeoResolver) *ClickTracker {
	return &ClickTracker{store: store, geo: geoResolver}
}

// trackTimeout bounds the whole detached operation, geo lookup included
const trackTimeout = 10 * time.Second

// Track records one click. Safe to call in a bare goroutine; nothing
// downstream observes its outcome.
func (t *ClickTracker) Track(linkID string, priorClicks int64, shortCode string, visit Visit) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("click tracking panic: code=%s err=%v", shortCode, rec)
		}
	}()

	// Detached from the request: the caller's context is gone by now.
	ctx, cancel := context.WithTimeout(context.Background(), trackTimeout)
	defer cancel()

	device, osName, browser := parseUserAgent(visit.UserAgent)
	location := t.geo.Lookup(ctx, visit.IP)

	click := &model.ClickEvent{
		LinkID:    linkID,
		IPAddress: visit.IP,
		Country:   location.Country,
		City:      location.City,
		Device:    device,
		OS:        osName,
		Browser:   browser,
		UserAgent: visit.UserAgent,
	}
	if visit.Referrer != "" {
		click.Referrer = &visit.Referrer
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := t.store.InsertClick(ctx, click); err != nil {
			log.Printf("click insert failed: code=%s err=%v", shortCode, err)
		}
	}()

	go func() {
		defer wg.Done()
		if err := t.store.SetLinkClicks(ctx, shortCode, priorClicks+1); err != nil {
			log.Printf("click counter update failed: code=%s err=%v", shortCode, err)
		}
	}()

	wg.Wait()
}

// parseUserAgent derives device/OS/browser, defaulting to desktop/Unknown
// when the string gives nothing away
func parseUserAgent(raw string) (device, osName, browser string) {
	device, osName, browser = "desktop", "Unknown", "Unknown"
	if raw == "" {
		return
	}

	ua := useragent.Parse(raw)
	switch {
	case ua.Mobile:
		device = "mobile"
	case ua.Tablet:
		device = "tablet"
	case ua.Bot:
		device = "bot"
	}
	if ua.OS != "" {
		osName = ua.OS
	}
	if ua.Name != "" {
		browser = ua.Name
	}
	return
}
