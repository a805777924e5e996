package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/log"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/storage"
)

// BudgetUpdate carries the caller-editable budget fields; nil means
// leave unchanged.
type BudgetUpdate struct {
	Name        *string
	TotalAmount *core.Money
}

// CreateBudget makes a new budget owned by exactly the resolved
// principal's owning key.
func (l *Ledger) CreateBudget(ctx context.Context, q *storage.Queries, owner core.Owner, name string, totalAmount core.Money) (core.Budget, error) {
	now := time.Now()
	budget := core.Budget{
		ID:          uuid.New(),
		Name:        name,
		TotalAmount: totalAmount,
		Owner:       owner,
		Balance:     totalAmount, // no transactions yet
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := budget.Validate(); err != nil {
		return core.Budget{}, err
	}
	if err := q.InsertBudget(ctx, budget); err != nil {
		return core.Budget{}, err
	}

	l.logger.InfoContext(ctx, "Budget created",
		log.FieldBudgetID, budget.ID.String(), log.FieldAmountCents, totalAmount.Cents)
	return budget, nil
}

func (l *Ledger) GetBudget(ctx context.Context, q *storage.Queries, owner core.Owner, budgetID uuid.UUID) (core.Budget, error) {
	return l.authorizeBudget(ctx, q, budgetID, owner)
}

func (l *Ledger) ListBudgets(ctx context.Context, q *storage.Queries, owner core.Owner, limit, offset int) ([]core.Budget, error) {
	if err := owner.Validate(); err != nil {
		return nil, err
	}
	return q.ListBudgetsByOwner(ctx, owner, limit, offset)
}

// UpdateBudget edits name/total and keeps the stored balance in line
// with the new total.
func (l *Ledger) UpdateBudget(ctx context.Context, q *storage.Queries, owner core.Owner, budgetID uuid.UUID, upd BudgetUpdate) (core.Budget, error) {
	budget, err := l.authorizeBudget(ctx, q, budgetID, owner)
	if err != nil {
		return core.Budget{}, err
	}

	if upd.Name != nil {
		budget.Name = *upd.Name
	}
	totalChanged := false
	if upd.TotalAmount != nil && upd.TotalAmount.Cents != budget.TotalAmount.Cents {
		budget.TotalAmount = *upd.TotalAmount
		totalChanged = true
	}
	if err := budget.Validate(); err != nil {
		return core.Budget{}, err
	}

	if err := q.UpdateBudgetAttrs(ctx, budgetID, budget.Name, budget.TotalAmount, time.Now()); err != nil {
		return core.Budget{}, err
	}
	if totalChanged {
		if err := l.recomputeBudget(ctx, q, budgetID); err != nil {
			return core.Budget{}, err
		}
	}

	return q.GetBudget(ctx, budgetID)
}

// DeleteBudget removes the budget and cascades to its categories and
// transactions.
func (l *Ledger) DeleteBudget(ctx context.Context, q *storage.Queries, owner core.Owner, budgetID uuid.UUID) error {
	if _, err := l.authorizeBudget(ctx, q, budgetID, owner); err != nil {
		return err
	}

	if err := q.DeleteTransactionsByBudget(ctx, budgetID); err != nil {
		return err
	}
	if err := q.DeleteCategoriesByBudget(ctx, budgetID); err != nil {
		return err
	}
	if err := q.DeleteBudget(ctx, budgetID); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Budget deleted", log.FieldBudgetID, budgetID.String())
	return nil
}
