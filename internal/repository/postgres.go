package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shawty-app/shawty/internal/config"
	"github.com/shawty-app/shawty/internal/model"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrUserNotFound = errors.New("user not found")
	ErrSlugTaken    = errors.New("slug already taken")
)

// uniqueViolation is the Postgres error code for a unique constraint breach.
// The insert path treats it as the authoritative "slug taken" signal.
const uniqueViolation = "23505"

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(cfg *config.PostgresConfig) (*PostgresRepository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConns)
	poolConfig.MinConns = int32(cfg.MinConns)
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &PostgresRepository{pool: pool}, nil
}

func (r *PostgresRepository) Close() {
	r.pool.Close()
}

// CreateLink inserts a new link. A unique-constraint breach on short_code is
// surfaced as ErrSlugTaken so callers can report it as a user error.
func (r *PostgresRepository) CreateLink(ctx context.Context, link *model.Link) error {
	query := `
		INSERT INTO links (short_code, long_url, clicks, custom_slug, on_leaderboard, password, user_id)
		VALUES ($1, $2, 0, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		link.ShortCode,
		link.LongURL,
		link.CustomSlug,
		link.OnLeaderboard,
		link.PasswordHash,
		link.UserID,
	).Scan(&link.ID, &link.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlugTaken
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

// GetLinkByShortCode retrieves the fields the redirect path needs
func (r *PostgresRepository) GetLinkByShortCode(ctx context.Context, shortCode string) (*model.Link, error) {
	query := `
		SELECT id, short_code, long_url, clicks, custom_slug, on_leaderboard, password, user_id, created_at
		FROM links
		WHERE short_code = $1
	`

	var link model.Link
	err := r.pool.QueryRow(ctx, query, shortCode).Scan(
		&link.ID,
		&link.ShortCode,
		&link.LongURL,
		&link.Clicks,
		&link.CustomSlug,
		&link.OnLeaderboard,
		&link.PasswordHash,
		&link.UserID,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return &link, nil
}

// GetLinkByID retrieves a link scoped to its owner. A row owned by someone
// else is indistinguishable from a missing one.
func (r *PostgresRepository) GetLinkByID(ctx context.Context, id, userID string) (*model.Link, error) {
	query := `
		SELECT id, short_code, long_url, clicks, custom_slug, on_leaderboard, password, user_id, created_at
		FROM links
		WHERE id = $1 AND user_id = $2
	`

	var link model.Link
	err := r.pool.QueryRow(ctx, query, id, userID).Scan(
		&link.ID,
		&link.ShortCode,
		&link.LongURL,
		&link.Clicks,
		&link.CustomSlug,
		&link.OnLeaderboard,
		&link.PasswordHash,
		&link.UserID,
		&link.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link by id: %w", err)
	}

	return &link, nil
}

// ShortCodeExists is the advisory pre-check for custom slugs. The insert's
// unique constraint remains the source of truth for races past this check.
func (r *PostgresRepository) ShortCodeExists(ctx context.Context, shortCode string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM links WHERE short_code = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, shortCode).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check short code: %w", err)
	}

	return exists, nil
}

// ListLinksByUser returns one page of the user's links, newest first
func (r *PostgresRepository) ListLinksByUser(ctx context.Context, userID string, limit, offset int) ([]model.Link, error) {
	query := `
		SELECT id, short_code, long_url, clicks, custom_slug, on_leaderboard, password, user_id, created_at
		FROM links
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := []model.Link{}
	for rows.Next() {
		var link model.Link
		if err := rows.Scan(
			&link.ID,
			&link.ShortCode,
			&link.LongURL,
			&link.Clicks,
			&link.CustomSlug,
			&link.OnLeaderboard,
			&link.PasswordHash,
			&link.UserID,
			&link.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate links: %w", err)
	}

	return links, nil
}

// CountLinksByUser returns the user's total link count for pagination
func (r *PostgresRepository) CountLinksByUser(ctx context.Context, userID string) (int64, error) {
	query := `SELECT COUNT(*) FROM links WHERE user_id = $1`

	var count int64
	if err := r.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count links: %w", err)
	}

	return count, nil
}

// UpdateLink persists long_url, password, and leaderboard changes, scoped to
// the owner
func (r *PostgresRepository) UpdateLink(ctx context.Context, link *model.Link) error {
	query := `
		UPDATE links
		SET long_url = $1, password = $2, on_leaderboard = $3
		WHERE id = $4 AND user_id = $5
	`

	result, err := r.pool.Exec(ctx, query, link.LongURL, link.PasswordHash, link.OnLeaderboard, link.ID, link.UserID)
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

// DeleteLink removes a link and cascades to its click events, scoped to the
// owner
func (r *PostgresRepository) DeleteLink(ctx context.Context, id, userID string) error {
	query := `DELETE FROM links WHERE id = $1 AND user_id = $2`

	result, err := r.pool.Exec(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

// SetLinkClicks overwrites the counter. The tracker writes priorClicks+1
// here; lost increments under concurrency are accepted.
func (r *PostgresRepository) SetLinkClicks(ctx context.Context, shortCode string, clicks int64) error {
	query := `UPDATE links SET clicks = $1 WHERE short_code = $2`

	result, err := r.pool.Exec(ctx, query, clicks, shortCode)
	if err != nil {
		return fmt.Errorf("failed to set link clicks: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrLinkNotFound
	}

	return nil
}

// InsertClick appends one click event row
func (r *PostgresRepository) InsertClick(ctx context.Context, click *model.ClickEvent) error {
	query := `
		INSERT INTO link_clicks (link_id, ip_address, country, city, device, os, browser, user_agent, referrer)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.pool.Exec(ctx, query,
		click.LinkID,
		click.IPAddress,
		click.Country,
		click.City,
		click.Device,
		click.OS,
		click.Browser,
		click.UserAgent,
		click.Referrer,
	)
	if err != nil {
		return fmt.Errorf("failed to insert click: %w", err)
	}

	return nil
}

// Leaderboard returns the most-clicked links that opted into public listing
func (r *PostgresRepository) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	query := `
		SELECT id, short_code, long_url, clicks
		FROM links
		WHERE on_leaderboard = TRUE
		ORDER BY clicks DESC
		LIMIT $1
	`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}
	defer rows.Close()

	entries := []model.LeaderboardEntry{}
	for rows.Next() {
		var e model.LeaderboardEntry
		if err := rows.Scan(&e.ID, &e.ShortCode, &e.LongURL, &e.Clicks); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}

	return entries, nil
}

// Health checks the database connection
func (r *PostgresRepository) Health(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
