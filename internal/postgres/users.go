package postgres

import (
	"context"
	"fmt"

	"eventphoto-backend/internal/models"
)

func (c *Client) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	err := c.db.QueryRowContext(ctx, `
		INSERT INTO users (fullname, email, login, password, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, fullname, email, login, password, is_admin, created_at
	`, user.Fullname, user.Email, user.Login, user.Password, user.IsAdmin).Scan(
		&user.ID, &user.Fullname, &user.Email, &user.Login, &user.Password, &user.IsAdmin, &user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

func (c *Client) GetUserByLogin(ctx context.Context, login string) (*models.User, error) {
	var user models.User
	err := c.db.QueryRowContext(ctx, `
		SELECT id, fullname, email, login, password, is_admin, created_at
		FROM users
		WHERE login = $1
	`, login).Scan(
		&user.ID, &user.Fullname, &user.Email, &user.Login, &user.Password, &user.IsAdmin, &user.CreatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "failed to get user")
	}

	return &user, nil
}

func (c *Client) GetUser(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := c.db.QueryRowContext(ctx, `
		SELECT id, fullname, email, login, password, is_admin, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(
		&user.ID, &user.Fullname, &user.Email, &user.Login, &user.Password, &user.IsAdmin, &user.CreatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "failed to get user")
	}

	return &user, nil
}

// SaveRefreshToken replaces the stored refresh token for a user. One active
// refresh token per user.
func (c *Client) SaveRefreshToken(ctx context.Context, userID int, token string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO tokens (user_id, token)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET token = EXCLUDED.token
	`, userID, token)
	if err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

func (c *Client) GetUserByRefreshToken(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := c.db.QueryRowContext(ctx, `
		SELECT u.id, u.fullname, u.email, u.login, u.password, u.is_admin, u.created_at
		FROM users u
		JOIN tokens t ON t.user_id = u.id
		WHERE t.token = $1
	`, token).Scan(
		&user.ID, &user.Fullname, &user.Email, &user.Login, &user.Password, &user.IsAdmin, &user.CreatedAt,
	)
	if err != nil {
		return nil, notFoundOr(err, "failed to get user by refresh token")
	}

	return &user, nil
}
