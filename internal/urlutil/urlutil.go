package urlutil

import (
	"crypto/rand"
	"errors"
	"math/big"
	"net/url"
	"regexp"
	"strings"
)

var (
	ErrEmptyURL   = errors.New("url cannot be empty")
	ErrInvalidURL = errors.New("invalid url format")
)

var (
	schemeRe = regexp.MustCompile(`(?i)^https?://`)
	// Any other scheme prefix (ftp://, javascript:, ...) is rejected
	// outright instead of being buried under a prepended https://.
	otherSchemeRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9+.-]*://`)
	// Hostname() strips the port, so the remaining host must be plain
	// letters, digits, dots and hyphens.
	hostRe = regexp.MustCompile(`^[A-Za-z0-9]([A-Za-z0-9.-]*[A-Za-z0-9])?$`)
)

// Normalize trims the input, prepends https:// when no scheme is given and
// verifies the result parses as an absolute URL with a sane host.
func Normalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}

	if !schemeRe.MatchString(raw) {
		if otherSchemeRe.MatchString(raw) {
			return "", ErrInvalidURL
		}
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || !hostRe.MatchString(parsed.Hostname()) {
		return "", ErrInvalidURL
	}

	return raw, nil
}

// Hostname extracts the lowercased hostname, or "" if the URL does not parse
func Hostname(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(parsed.Hostname())
}

// IsSelfReferencing reports whether the URL points at one of the blocked
// hostnames or any subdomain of one. Unparseable URLs count as
// self-referencing so they never slip past the guard.
func IsSelfReferencing(rawURL string, blockedHostnames []string) bool {
	hostname := Hostname(rawURL)
	if hostname == "" {
		return true
	}

	for _, blocked := range blockedHostnames {
		if blocked == "" {
			continue
		}
		if hostname == blocked || strings.HasSuffix(hostname, "."+blocked) {
			return true
		}
	}

	return false
}

// BlockedHostnames builds the loop-protection list from the configured public
// origin plus the fixed aliases. Duplicates are dropped.
func BlockedHostnames(publicURL string, aliases []string) []string {
	seen := make(map[string]bool)
	var out []string

	add := func(h string) {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" || seen[h] {
			return
		}
		seen[h] = true
		out = append(out, h)
	}

	add(Hostname(publicURL))
	for _, alias := range aliases {
		add(alias)
	}

	return out
}

var slugRe = regexp.MustCompile(`^[A-Za-z0-9-]{3,20}$`)

// ValidateCustomSlug checks a user-chosen short code against the slug
// pattern. The returned reason is user-facing.
func ValidateCustomSlug(input string) (string, error) {
	slug := strings.TrimSpace(input)
	if !slugRe.MatchString(slug) {
		return "", errors.New("custom slug must be 3-20 characters (letters, numbers, hyphens only)")
	}
	return slug, nil
}

const codeCharset = "abcdefghijklmnopqrstuvwxyz0123456789"

// GenerateShortCode produces a random lowercase alphanumeric code. There is
// no uniqueness pre-check; the insert relies on the store's unique constraint.
func GenerateShortCode(length int) (string, error) {
	b := make([]byte, length)
	for i := range b {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		b[i] = codeCharset[num.Int64()]
	}
	return string(b), nil
}
