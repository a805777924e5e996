package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
)

const transactionColumns = `id, type, amount_cents, name, comment, transaction_date,
budget_id, category_id, author_user_id, created_at, updated_at`

// TransactionFilter narrows ListTransactions and its count. Nil fields
// are ignored.
type TransactionFilter struct {
	CategoryID   *uuid.UUID
	AuthorUserID *int64
	Type         *core.TransactionType
	From         *time.Time
	To           *time.Time
}

// TypeSums holds the per-type aggregate over a transaction set.
// Missing rows sum to zero, never null.
type TypeSums struct {
	Expense core.Money
	Income  core.Money
}

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		t                            core.Transaction
		txDate, createdAt, updatedAt int64
	)
	err := row.Scan(
		&t.ID, &t.Type, &t.Amount.Cents, &t.Name, &t.Comment, &txDate,
		&t.BudgetID, &t.CategoryID, &t.AuthorUserID, &createdAt, &updatedAt,
	)
	if err != nil {
		return core.Transaction{}, err
	}
	t.TransactionDate = time.Unix(0, txDate)
	t.CreatedAt = time.Unix(0, createdAt)
	t.UpdatedAt = time.Unix(0, updatedAt)
	return t, nil
}

func (q *Queries) InsertTransaction(ctx context.Context, t core.Transaction) error {
	const query = `INSERT INTO transactions (` + transactionColumns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := q.db.ExecContext(ctx, query,
		t.ID, string(t.Type), t.Amount.Cents, t.Name, t.Comment, t.TransactionDate.UnixNano(),
		t.BudgetID, t.CategoryID, t.AuthorUserID,
		t.CreatedAt.UnixNano(), t.UpdatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	return nil
}

func (q *Queries) GetTransaction(ctx context.Context, id uuid.UUID) (core.Transaction, error) {
	const query = `SELECT ` + transactionColumns + ` FROM transactions WHERE id = ?`

	t, err := scanTransaction(q.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, fmt.Errorf("transaction %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

// UpdateTransaction persists every caller-editable field; budget_id and
// author stay fixed for the row's lifetime.
func (q *Queries) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	const query = `UPDATE transactions
SET type = ?, amount_cents = ?, name = ?, comment = ?, transaction_date = ?, category_id = ?, updated_at = ?
WHERE id = ?`

	_, err := q.db.ExecContext(ctx, query,
		string(t.Type), t.Amount.Cents, t.Name, t.Comment, t.TransactionDate.UnixNano(),
		t.CategoryID, t.UpdatedAt.UnixNano(), t.ID,
	)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return nil
}

func (q *Queries) DeleteTransaction(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM transactions WHERE id = ?`

	if _, err := q.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// SumTransactionsByCategory rescans the category's full transaction set.
func (q *Queries) SumTransactionsByCategory(ctx context.Context, categoryID uuid.UUID) (TypeSums, error) {
	const query = `SELECT
COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0),
COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0)
FROM transactions WHERE category_id = ?`

	var s TypeSums
	if err := q.db.QueryRowContext(ctx, query, categoryID).Scan(&s.Expense.Cents, &s.Income.Cents); err != nil {
		return TypeSums{}, fmt.Errorf("sum category transactions: %w", err)
	}
	return s, nil
}

// SumTransactionsByBudget rescans the budget's full transaction set.
func (q *Queries) SumTransactionsByBudget(ctx context.Context, budgetID uuid.UUID) (TypeSums, error) {
	const query = `SELECT
COALESCE(SUM(CASE WHEN type = 'expense' THEN amount_cents ELSE 0 END), 0),
COALESCE(SUM(CASE WHEN type = 'income' THEN amount_cents ELSE 0 END), 0)
FROM transactions WHERE budget_id = ?`

	var s TypeSums
	if err := q.db.QueryRowContext(ctx, query, budgetID).Scan(&s.Expense.Cents, &s.Income.Cents); err != nil {
		return TypeSums{}, fmt.Errorf("sum budget transactions: %w", err)
	}
	return s, nil
}

func buildFilterClauses(budgetID uuid.UUID, f TransactionFilter) (string, []any) {
	clauses := []string{"budget_id = ?"}
	args := []any{budgetID}

	if f.CategoryID != nil {
		clauses = append(clauses, "category_id = ?")
		args = append(args, *f.CategoryID)
	}
	if f.AuthorUserID != nil {
		clauses = append(clauses, "author_user_id = ?")
		args = append(args, *f.AuthorUserID)
	}
	if f.Type != nil {
		clauses = append(clauses, "type = ?")
		args = append(args, string(*f.Type))
	}
	if f.From != nil {
		clauses = append(clauses, "transaction_date >= ?")
		args = append(args, f.From.UnixNano())
	}
	if f.To != nil {
		clauses = append(clauses, "transaction_date <= ?")
		args = append(args, f.To.UnixNano())
	}

	return strings.Join(clauses, " AND "), args
}

// ListTransactions pages through a budget's transactions newest-first
// and returns the total count under the same filter.
func (q *Queries) ListTransactions(ctx context.Context, budgetID uuid.UUID, f TransactionFilter, limit, offset int) ([]core.Transaction, int64, error) {
	where, args := buildFilterClauses(budgetID, f)

	var total int64
	countQuery := `SELECT COUNT(*) FROM transactions WHERE ` + where
	if err := q.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count transactions: %w", err)
	}

	listQuery := `SELECT ` + transactionColumns + ` FROM transactions WHERE ` + where +
		` ORDER BY transaction_date DESC LIMIT ? OFFSET ?`
	rows, err := q.db.QueryContext(ctx, listQuery, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan transaction: %w", err)
		}
		transactions = append(transactions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate transactions: %w", err)
	}
	return transactions, total, nil
}

// SumTransactionsByDate groups a budget's transaction amounts by
// calendar day (UTC) within [from, to].
func (q *Queries) SumTransactionsByDate(ctx context.Context, budgetID uuid.UUID, from, to time.Time, txType *core.TransactionType) (map[string]core.Money, error) {
	query := `SELECT strftime('%Y-%m-%d', transaction_date / 1000000000, 'unixepoch') AS day, SUM(amount_cents)
FROM transactions WHERE budget_id = ? AND transaction_date >= ? AND transaction_date <= ?`
	args := []any{budgetID, from.UnixNano(), to.UnixNano()}
	if txType != nil {
		query += ` AND type = ?`
		args = append(args, string(*txType))
	}
	query += ` GROUP BY day`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sum transactions by date: %w", err)
	}
	defer rows.Close()

	sums := map[string]core.Money{}
	for rows.Next() {
		var (
			day   string
			cents int64
		)
		if err := rows.Scan(&day, &cents); err != nil {
			return nil, fmt.Errorf("scan date sum: %w", err)
		}
		sums[day] = core.Money{Cents: cents}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate date sums: %w", err)
	}
	return sums, nil
}
