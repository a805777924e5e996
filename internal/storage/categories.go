package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
)

// transaction_count is derived at read time; the other figures are the
// stored cache maintained by recompute.
const categoryColumns = `c.id, c.name, c.limit_amount_cents, c.budget_id,
c.spent_cents, c.income_cents, c.balance_cents,
(SELECT COUNT(*) FROM transactions t WHERE t.category_id = c.id) AS transaction_count,
c.created_at, c.updated_at`

func scanCategory(row interface{ Scan(...any) error }) (core.Category, error) {
	var (
		c                    core.Category
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&c.ID, &c.Name, &c.LimitAmount.Cents, &c.BudgetID,
		&c.Spent.Cents, &c.Income.Cents, &c.Balance.Cents, &c.TransactionCount,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return core.Category{}, err
	}
	c.CreatedAt = time.Unix(0, createdAt)
	c.UpdatedAt = time.Unix(0, updatedAt)
	return c, nil
}

func (q *Queries) InsertCategory(ctx context.Context, c core.Category) error {
	const query = `INSERT INTO categories (id, name, limit_amount_cents, budget_id, spent_cents, income_cents, balance_cents, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := q.db.ExecContext(ctx, query,
		c.ID, c.Name, c.LimitAmount.Cents, c.BudgetID,
		c.Spent.Cents, c.Income.Cents, c.Balance.Cents,
		c.CreatedAt.UnixNano(), c.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (q *Queries) GetCategory(ctx context.Context, id uuid.UUID) (core.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories c WHERE c.id = ?`

	c, err := scanCategory(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

func (q *Queries) ListCategoriesByBudget(ctx context.Context, budgetID uuid.UUID, limit, offset int) ([]core.Category, error) {
	const query = `SELECT ` + categoryColumns + ` FROM categories c WHERE c.budget_id = ? ORDER BY c.name LIMIT ? OFFSET ?`

	rows, err := q.db.QueryContext(ctx, query, budgetID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

// UpdateCategoryAttrs changes the caller-editable category fields.
// budget_id is immutable and deliberately absent here.
func (q *Queries) UpdateCategoryAttrs(ctx context.Context, id uuid.UUID, name string, limitAmount core.Money, updatedAt time.Time) error {
	const query = `UPDATE categories SET name = ?, limit_amount_cents = ?, updated_at = ? WHERE id = ?`

	_, err := q.db.ExecContext(ctx, query, name, limitAmount.Cents, updatedAt.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

func (q *Queries) UpdateCategoryFigures(ctx context.Context, id uuid.UUID, spent, income, balance core.Money) error {
	const query = `UPDATE categories SET spent_cents = ?, income_cents = ?, balance_cents = ? WHERE id = ?`

	_, err := q.db.ExecContext(ctx, query, spent.Cents, income.Cents, balance.Cents, id)
	if err != nil {
		return fmt.Errorf("update category figures: %w", err)
	}
	return nil
}

// GetCategoryLimit reads the stored limit; a missing category counts as
// limit zero so the recompute stays total even if the row vanished.
func (q *Queries) GetCategoryLimit(ctx context.Context, id uuid.UUID) (core.Money, error) {
	const query = `SELECT limit_amount_cents FROM categories WHERE id = ?`

	var m core.Money
	err := q.db.QueryRowContext(ctx, query, id).Scan(&m.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("get category limit: %w", err)
	}
	return m, nil
}

func (q *Queries) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM categories WHERE id = ?`

	if _, err := q.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

func (q *Queries) DeleteTransactionsByCategory(ctx context.Context, categoryID uuid.UUID) error {
	const query = `DELETE FROM transactions WHERE category_id = ?`

	if _, err := q.db.ExecContext(ctx, query, categoryID); err != nil {
		return fmt.Errorf("delete category transactions: %w", err)
	}
	return nil
}
