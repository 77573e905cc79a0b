package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"
)

// Location is the approximate origin of an IP. Both fields are nil when the
// lookup failed or timed out.
type Location struct {
	Country *string
	City    *string
}

// Client resolves IPs to locations via the ipapi.co JSON API
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		// The HTTP client gets a little headroom past the race deadline so
		// a lost lookup can still finish and be garbage collected.
		httpClient: &http.Client{Timeout: timeout + 2*time.Second},
	}
}

// Lookup races the remote lookup against the configured deadline. Whichever
// resolves first wins; the deadline yields an empty Location, never an error.
func (c *Client) Lookup(ctx context.Context, ip string) Location {
	return FirstOf(func() Location {
		loc, err := c.fetch(ctx, ip)
		if err != nil {
			log.Printf("geo lookup failed: ip=%s err=%v", ip, err)
			return Location{}
		}
		return loc
	}, c.timeout, Location{})
}

func (c *Client) fetch(ctx context.Context, ip string) (Location, error) {
	url := fmt.Sprintf("%s/%s/json/", c.baseURL, ip)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Location{}, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Location{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body struct {
		CountryName string `json:"country_name"`
		City        string `json:"city"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Location{}, err
	}

	var loc Location
	if body.CountryName != "" {
		loc.Country = &body.CountryName
	}
	if body.City != "" {
		loc.City = &body.City
	}
	return loc, nil
}

// FirstOf runs fn concurrently and returns its result unless the deadline
// elapses first, in which case fallback is returned. The losing fn keeps
// running to completion in the background; its result is discarded.
func FirstOf[T any](fn func() T, deadline time.Duration, fallback T) T {
	ch := make(chan T, 1)
	go func() { ch <- fn() }()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case v := <-ch:
		return v
	case <-timer.C:
		return fallback
	}
}
