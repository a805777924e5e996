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

const budgetColumns = `id, name, total_amount_cents, owner_user_id, owner_chat_id,
total_expense_cents, total_income_cents, balance_cents, created_at, updated_at`

func scanBudget(row interface{ Scan(...any) error }) (core.Budget, error) {
	var (
		b                    core.Budget
		ownerUser, ownerChat sql.NullInt64
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&b.ID, &b.Name, &b.TotalAmount.Cents, &ownerUser, &ownerChat,
		&b.TotalExpense.Cents, &b.TotalIncome.Cents, &b.Balance.Cents,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return core.Budget{}, err
	}
	if ownerUser.Valid {
		b.Owner = core.OwnerUser(ownerUser.Int64)
	} else if ownerChat.Valid {
		b.Owner = core.OwnerChat(ownerChat.Int64)
	}
	b.CreatedAt = time.Unix(0, createdAt)
	b.UpdatedAt = time.Unix(0, updatedAt)
	return b, nil
}

func ownerColumns(o core.Owner) (ownerUser, ownerChat sql.NullInt64) {
	if o.IsUser() {
		ownerUser = sql.NullInt64{Int64: o.UserID, Valid: true}
	}
	if o.IsChat() {
		ownerChat = sql.NullInt64{Int64: o.ChatID, Valid: true}
	}
	return ownerUser, ownerChat
}

func (q *Queries) InsertBudget(ctx context.Context, b core.Budget) error {
	const query = `INSERT INTO budgets (` + budgetColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	ownerUser, ownerChat := ownerColumns(b.Owner)
	_, err := q.db.ExecContext(ctx, query,
		b.ID, b.Name, b.TotalAmount.Cents, ownerUser, ownerChat,
		b.TotalExpense.Cents, b.TotalIncome.Cents, b.Balance.Cents,
		b.CreatedAt.UnixNano(), b.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (q *Queries) GetBudget(ctx context.Context, id uuid.UUID) (core.Budget, error) {
	const query = `SELECT ` + budgetColumns + ` FROM budgets WHERE id = ?`

	b, err := scanBudget(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, fmt.Errorf("budget %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (q *Queries) ListBudgetsByOwner(ctx context.Context, owner core.Owner, limit, offset int) ([]core.Budget, error) {
	query := `SELECT ` + budgetColumns + ` FROM budgets WHERE owner_user_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
	arg := owner.UserID
	if owner.IsChat() {
		query = `SELECT ` + budgetColumns + ` FROM budgets WHERE owner_chat_id = ? ORDER BY created_at DESC LIMIT ? OFFSET ?`
		arg = owner.ChatID
	}

	rows, err := q.db.QueryContext(ctx, query, arg, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return budgets, nil
}

// UpdateBudgetAttrs changes the caller-editable budget fields. Derived
// figures are maintained separately by UpdateBudgetFigures.
func (q *Queries) UpdateBudgetAttrs(ctx context.Context, id uuid.UUID, name string, totalAmount core.Money, updatedAt time.Time) error {
	const query = `UPDATE budgets SET name = ?, total_amount_cents = ?, updated_at = ? WHERE id = ?`

	_, err := q.db.ExecContext(ctx, query, name, totalAmount.Cents, updatedAt.UnixNano(), id)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return nil
}

func (q *Queries) UpdateBudgetFigures(ctx context.Context, id uuid.UUID, expense, income, balance core.Money) error {
	const query = `UPDATE budgets SET total_expense_cents = ?, total_income_cents = ?, balance_cents = ? WHERE id = ?`

	_, err := q.db.ExecContext(ctx, query, expense.Cents, income.Cents, balance.Cents, id)
	if err != nil {
		return fmt.Errorf("update budget figures: %w", err)
	}
	return nil
}

// GetBudgetTotalAmount reads the stored total; a missing budget sums
// as zero so a recompute racing a cascade delete cannot fail.
func (q *Queries) GetBudgetTotalAmount(ctx context.Context, id uuid.UUID) (core.Money, error) {
	const query = `SELECT total_amount_cents FROM budgets WHERE id = ?`

	var m core.Money
	err := q.db.QueryRowContext(ctx, query, id).Scan(&m.Cents)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Money{}, nil
	}
	if err != nil {
		return core.Money{}, fmt.Errorf("get budget total: %w", err)
	}
	return m, nil
}

func (q *Queries) DeleteBudget(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM budgets WHERE id = ?`

	if _, err := q.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}

func (q *Queries) DeleteCategoriesByBudget(ctx context.Context, budgetID uuid.UUID) error {
	const query = `DELETE FROM categories WHERE budget_id = ?`

	if _, err := q.db.ExecContext(ctx, query, budgetID); err != nil {
		return fmt.Errorf("delete budget categories: %w", err)
	}
	return nil
}

func (q *Queries) DeleteTransactionsByBudget(ctx context.Context, budgetID uuid.UUID) error {
	const query = `DELETE FROM transactions WHERE budget_id = ?`

	if _, err := q.db.ExecContext(ctx, query, budgetID); err != nil {
		return fmt.Errorf("delete budget transactions: %w", err)
	}
	return nil
}
