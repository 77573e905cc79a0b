package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shawty-app/shawty/internal/model"
)

const userColumns = `id, email, name, first_name, last_name, slack_id, created_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var user model.User
	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Name,
		&user.FirstName,
		&user.LastName,
		&user.SlackID,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &user, nil
}

// GetUserByID loads the session user
func (r *PostgresRepository) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetUserBySlackID matches returning HackClub OAuth identities
func (r *PostgresRepository) GetUserBySlackID(ctx context.Context, slackID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE slack_id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, slackID))
}

// GetUserByEmail matches returning GitHub OAuth identities
func (r *PostgresRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// CreateUser inserts a user created by an OAuth callback
func (r *PostgresRepository) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (email, name, first_name, last_name, slack_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.pool.QueryRow(ctx, query,
		user.Email,
		user.Name,
		user.FirstName,
		user.LastName,
		user.SlackID,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// UpdateUserProfile refreshes the display fields on a returning login
func (r *PostgresRepository) UpdateUserProfile(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users
		SET name = $1, first_name = $2, last_name = $3
		WHERE id = $4
	`

	_, err := r.pool.Exec(ctx, query, user.Name, user.FirstName, user.LastName, user.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}
