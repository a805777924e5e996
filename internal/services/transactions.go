package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/amqp"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/log"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/storage"
)

type (
	// TransactionInput is the caller-supplied field set for a new
	// transaction.
	TransactionInput struct {
		Type            core.TransactionType
		Amount          core.Money
		Name            string
		Comment         string
		TransactionDate time.Time
		CategoryID      uuid.UUID
	}

	// TransactionUpdate carries partial edits; nil means unchanged.
	TransactionUpdate struct {
		Type            *core.TransactionType
		Amount          *core.Money
		Name            *string
		Comment         *string
		TransactionDate *time.Time
		CategoryID      *uuid.UUID
	}
)

// checkCategoryBelongs enforces the category/budget coupling: a
// transaction may only reference a category of its own budget.
func checkCategoryBelongs(ctx context.Context, q *storage.Queries, categoryID, budgetID uuid.UUID) error {
	category, err := q.GetCategory(ctx, categoryID)
	if errors.Is(err, core.ErrNotFound) {
		return core.ErrCategoryMismatch
	}
	if err != nil {
		return err
	}
	if category.BudgetID != budgetID {
		return core.ErrCategoryMismatch
	}
	return nil
}

// CreateTransaction appends a ledger entry and recomputes the owning
// category's and budget's figures in the same transaction. The author
// is always the acting user, even under a group context.
func (l *Ledger) CreateTransaction(ctx context.Context, q *storage.Queries, owner core.Owner, authorUserID int64, budgetID uuid.UUID, in TransactionInput) (core.Transaction, error) {
	if _, err := l.authorizeBudget(ctx, q, budgetID, owner); err != nil {
		return core.Transaction{}, err
	}
	if err := checkCategoryBelongs(ctx, q, in.CategoryID, budgetID); err != nil {
		return core.Transaction{}, err
	}

	now := time.Now()
	t := core.Transaction{
		ID:              uuid.New(),
		Type:            in.Type,
		Amount:          in.Amount,
		Name:            in.Name,
		Comment:         in.Comment,
		TransactionDate: in.TransactionDate,
		BudgetID:        budgetID,
		CategoryID:      in.CategoryID,
		AuthorUserID:    authorUserID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := q.InsertTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}
	if err := l.recompute(ctx, q, budgetID, in.CategoryID); err != nil {
		return core.Transaction{}, err
	}

	l.logger.InfoContext(ctx, "Transaction created",
		log.FieldTxID, t.ID.String(),
		log.FieldBudgetID, budgetID.String(),
		log.FieldTxType, string(t.Type),
		log.FieldAmountCents, t.Amount.Cents)
	l.publishEvent(ctx, amqp.EventTransactionCreated, t)
	return t, nil
}

func (l *Ledger) GetTransaction(ctx context.Context, q *storage.Queries, owner core.Owner, transactionID uuid.UUID) (core.Transaction, error) {
	t, err := q.GetTransaction(ctx, transactionID)
	if err != nil {
		return core.Transaction{}, err
	}
	if _, err := l.authorizeBudget(ctx, q, t.BudgetID, owner); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// UpdateTransaction applies partial edits. Figures are recomputed for
// the old category and, on a category switch, the new one too; edits
// touching none of amount/type/category skip recomputation entirely.
func (l *Ledger) UpdateTransaction(ctx context.Context, q *storage.Queries, owner core.Owner, transactionID uuid.UUID, upd TransactionUpdate) (core.Transaction, error) {
	t, err := l.GetTransaction(ctx, q, owner, transactionID)
	if err != nil {
		return core.Transaction{}, err
	}

	oldCategoryID := t.CategoryID
	needsRecompute := false

	if upd.Type != nil && *upd.Type != t.Type {
		t.Type = *upd.Type
		needsRecompute = true
	}
	if upd.Amount != nil && upd.Amount.Cents != t.Amount.Cents {
		t.Amount = *upd.Amount
		needsRecompute = true
	}
	if upd.Name != nil {
		t.Name = *upd.Name
	}
	if upd.Comment != nil {
		t.Comment = *upd.Comment
	}
	if upd.TransactionDate != nil {
		t.TransactionDate = *upd.TransactionDate
	}
	categoryChanged := false
	if upd.CategoryID != nil && *upd.CategoryID != oldCategoryID {
		// The new category must live in the same budget; budget
		// reassignment is not supported.
		if err := checkCategoryBelongs(ctx, q, *upd.CategoryID, t.BudgetID); err != nil {
			return core.Transaction{}, err
		}
		t.CategoryID = *upd.CategoryID
		categoryChanged = true
		needsRecompute = true
	}

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}

	t.UpdatedAt = time.Now()
	if err := q.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, err
	}

	if needsRecompute {
		if err := l.recomputeCategory(ctx, q, oldCategoryID); err != nil {
			return core.Transaction{}, err
		}
		if categoryChanged {
			if err := l.recomputeCategory(ctx, q, t.CategoryID); err != nil {
				return core.Transaction{}, err
			}
		}
		if err := l.recomputeBudget(ctx, q, t.BudgetID); err != nil {
			return core.Transaction{}, err
		}
	}

	l.logger.InfoContext(ctx, "Transaction updated",
		log.FieldTxID, t.ID.String(), "recomputed", needsRecompute)
	l.publishEvent(ctx, amqp.EventTransactionUpdated, t)
	return t, nil
}

// DeleteTransaction removes a ledger entry and recomputes the pair it
// belonged to.
func (l *Ledger) DeleteTransaction(ctx context.Context, q *storage.Queries, owner core.Owner, transactionID uuid.UUID) error {
	t, err := l.GetTransaction(ctx, q, owner, transactionID)
	if err != nil {
		return err
	}

	if err := q.DeleteTransaction(ctx, transactionID); err != nil {
		return err
	}
	if err := l.recompute(ctx, q, t.BudgetID, t.CategoryID); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldTxID, transactionID.String(), log.FieldBudgetID, t.BudgetID.String())
	l.publishEvent(ctx, amqp.EventTransactionDeleted, t)
	return nil
}

// TransactionPage is a filtered slice plus the total count under the
// same filter.
type TransactionPage struct {
	Items []core.Transaction
	Total int64
}

func (l *Ledger) ListTransactions(ctx context.Context, q *storage.Queries, owner core.Owner, budgetID uuid.UUID, f storage.TransactionFilter, limit, offset int) (TransactionPage, error) {
	if _, err := l.authorizeBudget(ctx, q, budgetID, owner); err != nil {
		return TransactionPage{}, err
	}
	items, total, err := q.ListTransactions(ctx, budgetID, f, limit, offset)
	if err != nil {
		return TransactionPage{}, err
	}
	return TransactionPage{Items: items, Total: total}, nil
}

// SummarizeTransactionsByDate returns per-day sums for dashboards.
func (l *Ledger) SummarizeTransactionsByDate(ctx context.Context, q *storage.Queries, owner core.Owner, budgetID uuid.UUID, from, to time.Time, txType *core.TransactionType) (map[string]core.Money, error) {
	if _, err := l.authorizeBudget(ctx, q, budgetID, owner); err != nil {
		return nil, err
	}
	return q.SumTransactionsByDate(ctx, budgetID, from, to, txType)
}
