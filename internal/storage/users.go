package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
)

func (q *Queries) GetUser(ctx context.Context, id int64) (core.User, error) {
	const query = `SELECT id, first_name, last_name, username, language_code, photo_url, is_premium, created_at, updated_at
FROM users WHERE id = ?`

	var (
		u                    core.User
		createdAt, updatedAt int64
	)
	err := q.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.LanguageCode, &u.PhotoURL, &u.IsPremium,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return core.User{}, fmt.Errorf("user %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	u.CreatedAt = time.Unix(0, createdAt)
	u.UpdatedAt = time.Unix(0, updatedAt)
	return u, nil
}

func (q *Queries) InsertUser(ctx context.Context, u core.User) error {
	const query = `INSERT INTO users (id, first_name, last_name, username, language_code, photo_url, is_premium, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := q.db.ExecContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Username, u.LanguageCode, u.PhotoURL, u.IsPremium,
		u.CreatedAt.UnixNano(), u.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (q *Queries) UpdateUser(ctx context.Context, u core.User) error {
	const query = `UPDATE users
SET first_name = ?, last_name = ?, username = ?, language_code = ?, photo_url = ?, is_premium = ?, updated_at = ?
WHERE id = ?`

	_, err := q.db.ExecContext(ctx, query,
		u.FirstName, u.LastName, u.Username, u.LanguageCode, u.PhotoURL, u.IsPremium,
		u.UpdatedAt.UnixNano(), u.ID,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (q *Queries) GetChat(ctx context.Context, id int64) (core.Chat, error) {
	const query = `SELECT id, type, title, created_at, updated_at FROM chats WHERE id = ?`

	var (
		c                    core.Chat
		createdAt, updatedAt int64
	)
	err := q.db.QueryRowContext(ctx, query, id).Scan(&c.ID, &c.Type, &c.Title, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Chat{}, fmt.Errorf("chat %d: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Chat{}, fmt.Errorf("get chat: %w", err)
	}
	c.CreatedAt = time.Unix(0, createdAt)
	c.UpdatedAt = time.Unix(0, updatedAt)
	return c, nil
}

func (q *Queries) InsertChat(ctx context.Context, c core.Chat) error {
	const query = `INSERT INTO chats (id, type, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`

	_, err := q.db.ExecContext(ctx, query, c.ID, c.Type, c.Title, c.CreatedAt.UnixNano(), c.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

func (q *Queries) UpdateChat(ctx context.Context, c core.Chat) error {
	const query = `UPDATE chats SET type = ?, title = ?, updated_at = ? WHERE id = ?`

	_, err := q.db.ExecContext(ctx, query, c.Type, c.Title, c.UpdatedAt.UnixNano(), c.ID)
	if err != nil {
		return fmt.Errorf("update chat: %w", err)
	}
	return nil
}
