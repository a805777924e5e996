package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/log"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/storage"
)

// CategoryUpdate carries the caller-editable category fields; nil
// means leave unchanged. A category's budget is not reassignable.
type CategoryUpdate struct {
	Name        *string
	LimitAmount *core.Money
}

func (l *Ledger) CreateCategory(ctx context.Context, q *storage.Queries, owner core.Owner, budgetID uuid.UUID, name string, limitAmount core.Money) (core.Category, error) {
	if _, err := l.authorizeBudget(ctx, q, budgetID, owner); err != nil {
		return core.Category{}, err
	}

	now := time.Now()
	category := core.Category{
		ID:          uuid.New(),
		Name:        name,
		LimitAmount: limitAmount,
		BudgetID:    budgetID,
		Balance:     limitAmount, // no transactions yet
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}
	if err := q.InsertCategory(ctx, category); err != nil {
		return core.Category{}, err
	}

	l.logger.InfoContext(ctx, "Category created",
		log.FieldCategoryID, category.ID.String(), log.FieldBudgetID, budgetID.String())
	return category, nil
}

func (l *Ledger) GetCategory(ctx context.Context, q *storage.Queries, owner core.Owner, categoryID uuid.UUID) (core.Category, error) {
	category, err := q.GetCategory(ctx, categoryID)
	if err != nil {
		return core.Category{}, err
	}
	if _, err := l.authorizeBudget(ctx, q, category.BudgetID, owner); err != nil {
		return core.Category{}, err
	}
	return category, nil
}

func (l *Ledger) ListCategories(ctx context.Context, q *storage.Queries, owner core.Owner, budgetID uuid.UUID, limit, offset int) ([]core.Category, error) {
	if _, err := l.authorizeBudget(ctx, q, budgetID, owner); err != nil {
		return nil, err
	}
	return q.ListCategoriesByBudget(ctx, budgetID, limit, offset)
}

// UpdateCategory edits name/limit; a limit change shifts the stored
// balance, so the category figures are recomputed.
func (l *Ledger) UpdateCategory(ctx context.Context, q *storage.Queries, owner core.Owner, categoryID uuid.UUID, upd CategoryUpdate) (core.Category, error) {
	category, err := l.GetCategory(ctx, q, owner, categoryID)
	if err != nil {
		return core.Category{}, err
	}

	if upd.Name != nil {
		category.Name = *upd.Name
	}
	limitChanged := false
	if upd.LimitAmount != nil && upd.LimitAmount.Cents != category.LimitAmount.Cents {
		category.LimitAmount = *upd.LimitAmount
		limitChanged = true
	}
	if err := category.Validate(); err != nil {
		return core.Category{}, err
	}

	if err := q.UpdateCategoryAttrs(ctx, categoryID, category.Name, category.LimitAmount, time.Now()); err != nil {
		return core.Category{}, err
	}
	if limitChanged {
		if err := l.recomputeCategory(ctx, q, categoryID); err != nil {
			return core.Category{}, err
		}
	}

	return q.GetCategory(ctx, categoryID)
}

// DeleteCategory removes the category and its transactions, then
// refreshes the parent budget's figures, which just lost rows.
func (l *Ledger) DeleteCategory(ctx context.Context, q *storage.Queries, owner core.Owner, categoryID uuid.UUID) error {
	category, err := l.GetCategory(ctx, q, owner, categoryID)
	if err != nil {
		return err
	}

	if err := q.DeleteTransactionsByCategory(ctx, categoryID); err != nil {
		return err
	}
	if err := q.DeleteCategory(ctx, categoryID); err != nil {
		return err
	}
	if err := l.recomputeBudget(ctx, q, category.BudgetID); err != nil {
		return err
	}

	l.logger.InfoContext(ctx, "Category deleted",
		log.FieldCategoryID, categoryID.String(), log.FieldBudgetID, category.BudgetID.String())
	return nil
}
