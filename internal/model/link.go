package model

import (
	"time"
)

// Link represents a short code to long URL mapping
type Link struct {
	ID            string    `json:"id"`
	ShortCode     string    `json:"short_code"`
	LongURL       string    `json:"long_url"`
	Clicks        int64     `json:"clicks"`
	CustomSlug    bool      `json:"custom_slug"`
	OnLeaderboard bool      `json:"on_leaderboard"`
	PasswordHash  *string   `json:"-"` // bcrypt hash, nil when the link is open
	UserID        string    `json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// HasPassword reports whether access to the link is password gated
func (l *Link) HasPassword() bool {
	return l.PasswordHash != nil && *l.PasswordHash != ""
}

// ClickEvent is one recorded visit to a link. Rows are append-only.
type ClickEvent struct {
	ID        int64     `json:"id"`
	LinkID    string    `json:"link_id"`
	IPAddress string    `json:"ip_address"`
	Country   *string   `json:"country,omitempty"`
	City      *string   `json:"city,omitempty"`
	Device    string    `json:"device"`
	OS        string    `json:"os"`
	Browser   string    `json:"browser"`
	UserAgent string    `json:"user_agent"`
	Referrer  *string   `json:"referrer,omitempty"`
	ClickedAt time.Time `json:"clicked_at"`
}

// User is owned by the auth flow; the link paths only read it
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	SlackID   *string   `json:"slack_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DisplayName prefers the full name, falling back to handle then email
func (u *User) DisplayName() string {
	if u.FirstName != nil && u.LastName != nil {
		return *u.FirstName + " " + *u.LastName
	}
	if u.Name != "" {
		return u.Name
	}
	return u.Email
}

// CreateLinkRequest represents the body of POST /api/links
type CreateLinkRequest struct {
	URL        string `json:"url"`
	CustomSlug string `json:"customSlug,omitempty"`
	Password   string `json:"password,omitempty"`
}

// CreateLinkResponse represents the response after creating a link
type CreateLinkResponse struct {
	ShortCode string `json:"shortCode"`
}

// UpdateLinkRequest represents the body of PATCH /api/links/:id.
// Nil fields are left untouched.
type UpdateLinkRequest struct {
	URL           *string `json:"url,omitempty"`
	Password      *string `json:"password,omitempty"`
	OnLeaderboard *bool   `json:"onLeaderboard,omitempty"`
}

// ListLinksResponse represents a page of the caller's links
type ListLinksResponse struct {
	Links []Link `json:"links"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Total int64  `json:"total"`
}

// LeaderboardEntry is the public view of a link opted onto the leaderboard
type LeaderboardEntry struct {
	ID        string `json:"id"`
	ShortCode string `json:"short_code"`
	LongURL   string `json:"long_url"`
	Clicks    int64  `json:"clicks"`
}

// LinkAnalytics aggregates the click events of a single link
type LinkAnalytics struct {
	TotalClicks  int64            `json:"total_clicks"`
	ByCountry    map[string]int64 `json:"by_country"`
	ByDevice     map[string]int64 `json:"by_device"`
	ByOS         map[string]int64 `json:"by_os"`
	ByBrowser    map[string]int64 `json:"by_browser"`
	ByDate       map[string]int64 `json:"by_date"` // YYYY-MM-DD
	RecentClicks []ClickEvent     `json:"recent_clicks"`
}
