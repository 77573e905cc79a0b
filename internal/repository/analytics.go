package repository

import (
	"context"
	"fmt"

	"github.com/shawty-app/shawty/internal/model"
)

// CountClicksByLink returns the total number of click events for a link
func (r *PostgresRepository) CountClicksByLink(ctx context.Context, linkID string) (int64, error) {
	query := `SELECT COUNT(*) FROM link_clicks WHERE link_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, linkID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count clicks: %w", err)
	}

	return count, nil
}

// groupClicks aggregates click events by a fixed grouping expression.
// expr is always one of the constants below, never caller input.
func (r *PostgresRepository) groupClicks(ctx context.Context, linkID, expr string) (map[string]int64, error) {
	query := fmt.Sprintf(`
		SELECT COALESCE(%s, 'Unknown') AS bucket, COUNT(*) AS count
		FROM link_clicks
		WHERE link_id = $1
		GROUP BY bucket
		ORDER BY count DESC
	`, expr)

	rows, err := r.pool.Query(ctx, query, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to group clicks by %s: %w", expr, err)
	}
	defer rows.Close()

	result := make(map[string]int64)
	for rows.Next() {
		var bucket string
		var count int64
		if err := rows.Scan(&bucket, &count); err != nil {
			return nil, fmt.Errorf("failed to scan click group: %w", err)
		}
		result[bucket] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate click groups: %w", err)
	}

	return result, nil
}

func (r *PostgresRepository) ClicksByCountry(ctx context.Context, linkID string) (map[string]int64, error) {
	return r.groupClicks(ctx, linkID, "country")
}

func (r *PostgresRepository) ClicksByDevice(ctx context.Context, linkID string) (map[string]int64, error) {
	return r.groupClicks(ctx, linkID, "device")
}

func (r *PostgresRepository) ClicksByOS(ctx context.Context, linkID string) (map[string]int64, error) {
	return r.groupClicks(ctx, linkID, "os")
}

func (r *PostgresRepository) ClicksByBrowser(ctx context.Context, linkID string) (map[string]int64, error) {
	return r.groupClicks(ctx, linkID, "browser")
}

func (r *PostgresRepository) ClicksByDate(ctx context.Context, linkID string) (map[string]int64, error) {
	return r.groupClicks(ctx, linkID, "TO_CHAR(clicked_at, 'YYYY-MM-DD')")
}

// RecentClicks returns the newest click events for a link
func (r *PostgresRepository) RecentClicks(ctx context.Context, linkID string, limit int) ([]model.ClickEvent, error) {
	query := `
		SELECT id, link_id, ip_address, country, city, device, os, browser, user_agent, referrer, clicked_at
		FROM link_clicks
		WHERE link_id = $1
		ORDER BY clicked_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, linkID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent clicks: %w", err)
	}
	defer rows.Close()

	clicks := []model.ClickEvent{}
	for rows.Next() {
		var c model.ClickEvent
		if err := rows.Scan(
			&c.ID,
			&c.LinkID,
			&c.IPAddress,
			&c.Country,
			&c.City,
			&c.Device,
			&c.OS,
			&c.Browser,
			&c.UserAgent,
			&c.Referrer,
			&c.ClickedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clicks: %w", err)
	}

	return clicks, nil
}

// ClickDrift is a link whose counter disagrees with its event rows
type ClickDrift struct {
	LinkID     string
	ShortCode  string
	Counter    int64
	EventCount int64
}

// ListClickDrift finds links where the best-effort tracker left the counter
// out of sync with the number of recorded events
func (r *PostgresRepository) ListClickDrift(ctx context.Context) ([]ClickDrift, error) {
	query := `
		SELECT l.id, l.short_code, l.clicks, COUNT(c.id) AS event_count
		FROM links l
		LEFT JOIN link_clicks c ON c.link_id = l.id
		GROUP BY l.id, l.short_code, l.clicks
		HAVING l.clicks <> COUNT(c.id)
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list click drift: %w", err)
	}
	defer rows.Close()

	var drifts []ClickDrift
	for rows.Next() {
		var d ClickDrift
		if err := rows.Scan(&d.LinkID, &d.ShortCode, &d.Counter, &d.EventCount); err != nil {
			return nil, fmt.Errorf("failed to scan click drift: %w", err)
		}
		drifts = append(drifts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate click drift: %w", err)
	}

	return drifts, nil
}
