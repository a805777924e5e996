package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/amqp"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/log"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/storage"
)

// Ledger implements the budget/category/transaction operations. Every
// method takes the request-scoped query set so the mutation and its
// recompute land in one database transaction; the http layer owns
// begin/commit.
//
// The AMQP client may be nil: events are a best-effort side channel
// and never fail an operation.
type Ledger struct {
	events *amqp.Client
	logger *log.Logger
}

func NewLedger(events *amqp.Client, logger *log.Logger) *Ledger {
	return &Ledger{
		events: events,
		logger: logger.WithComponent(log.ComponentLedger),
	}
}

// authorizeBudget is the ownership guard. It runs before any mutation
// and before any detail leaves the service; category and transaction
// operations resolve their parent budget and land here too.
func (l *Ledger) authorizeBudget(ctx context.Context, q *storage.Queries, budgetID uuid.UUID, owner core.Owner) (core.Budget, error) {
	budget, err := q.GetBudget(ctx, budgetID)
	if err != nil {
		return core.Budget{}, err
	}
	if !owner.Matches(budget.Owner) {
		return core.Budget{}, core.ErrForbidden
	}
	return budget, nil
}

// recompute rebuilds the stored figures of one (budget, category) pair
// from a fresh scan of their transaction sets. Always a full rescan,
// never an incremental delta: concurrent writers may race, but each
// commit stores figures correct for some serial order, never a mix of
// partial sums.
func (l *Ledger) recompute(ctx context.Context, q *storage.Queries, budgetID, categoryID uuid.UUID) error {
	if err := l.recomputeCategory(ctx, q, categoryID); err != nil {
		return err
	}
	return l.recomputeBudget(ctx, q, budgetID)
}

func (l *Ledger) recomputeCategory(ctx context.Context, q *storage.Queries, categoryID uuid.UUID) error {
	sums, err := q.SumTransactionsByCategory(ctx, categoryID)
	if err != nil {
		return err
	}
	limit, err := q.GetCategoryLimit(ctx, categoryID)
	if errors.Is(err, core.ErrNotFound) {
		// The row vanished under us; figures written against a zero
		// limit affect nothing once the delete commits.
		limit = core.Money{}
	} else if err != nil {
		return err
	}
	balance := core.Balance(limit, sums.Expense, sums.Income)
	return q.UpdateCategoryFigures(ctx, categoryID, sums.Expense, sums.Income, balance)
}

func (l *Ledger) recomputeBudget(ctx context.Context, q *storage.Queries, budgetID uuid.UUID) error {
	sums, err := q.SumTransactionsByBudget(ctx, budgetID)
	if err != nil {
		return err
	}
	total, err := q.GetBudgetTotalAmount(ctx, budgetID)
	if errors.Is(err, core.ErrNotFound) {
		total = core.Money{}
	} else if err != nil {
		return err
	}
	balance := core.Balance(total, sums.Expense, sums.Income)
	return q.UpdateBudgetFigures(ctx, budgetID, sums.Expense, sums.Income, balance)
}

func (l *Ledger) publishEvent(ctx context.Context, event string, t core.Transaction) {
	if l.events == nil {
		return
	}
	msg := amqp.NewLedgerEventMessage(event, t.ID.String(), t.BudgetID.String(), t.CategoryID.String())
	if err := l.events.PublishLedgerEvent(ctx, msg); err != nil {
		l.logger.ErrorContext(ctx, "Failed to publish ledger event",
			"event", event, log.FieldTxID, t.ID.String(), log.FieldError, err)
	}
}
