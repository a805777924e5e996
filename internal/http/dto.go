package http

import (
	"time"

	"github.com/LedyBacer/bs-budget-tracker-backend/internal/core"
	"github.com/LedyBacer/bs-budget-tracker-backend/internal/services"
)

// Amounts travel as integer cents on the wire; rendering is the
// client's job.

type ownerJSON struct {
	UserID int64 `json:"user_id,omitempty"`
	ChatID int64 `json:"chat_id,omitempty"`
}

type budgetJSON struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	TotalAmountCents int64     `json:"total_amount_cents"`
	Owner            ownerJSON `json:"owner"`
	TotalExpense     int64     `json:"total_expense_cents"`
	TotalIncome      int64     `json:"total_income_cents"`
	Balance          int64     `json:"balance_cents"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toBudgetJSON(b core.Budget) budgetJSON {
	return budgetJSON{
		ID:               b.ID.String(),
		Name:             b.Name,
		TotalAmountCents: b.TotalAmount.Cents,
		Owner:            ownerJSON{UserID: b.Owner.UserID, ChatID: b.Owner.ChatID},
		TotalExpense:     b.TotalExpense.Cents,
		TotalIncome:      b.TotalIncome.Cents,
		Balance:          b.Balance.Cents,
		CreatedAt:        b.CreatedAt,
		UpdatedAt:        b.UpdatedAt,
	}
}

type categoryJSON struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	BudgetID         string    `json:"budget_id"`
	LimitAmountCents int64     `json:"limit_amount_cents"`
	SpentCents       int64     `json:"spent_cents"`
	IncomeCents      int64     `json:"income_cents"`
	BalanceCents     int64     `json:"balance_cents"`
	Progress         float64   `json:"progress"`
	TransactionCount int64     `json:"transaction_count"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toCategoryJSON(c core.Category) categoryJSON {
	return categoryJSON{
		ID:               c.ID.String(),
		Name:             c.Name,
		BudgetID:         c.BudgetID.String(),
		LimitAmountCents: c.LimitAmount.Cents,
		SpentCents:       c.Spent.Cents,
		IncomeCents:      c.Income.Cents,
		BalanceCents:     c.Balance.Cents,
		Progress:         c.Progress(),
		TransactionCount: c.TransactionCount,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

type transactionJSON struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	AmountCents     int64     `json:"amount_cents"`
	Name            string    `json:"name"`
	Comment         string    `json:"comment,omitempty"`
	TransactionDate time.Time `json:"transaction_date"`
	BudgetID        string    `json:"budget_id"`
	CategoryID      string    `json:"category_id"`
	AuthorUserID    int64     `json:"author_user_id"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toTransactionJSON(t core.Transaction) transactionJSON {
	return transactionJSON{
		ID:              t.ID.String(),
		Type:            string(t.Type),
		AmountCents:     t.Amount.Cents,
		Name:            t.Name,
		Comment:         t.Comment,
		TransactionDate: t.TransactionDate,
		BudgetID:        t.BudgetID.String(),
		CategoryID:      t.CategoryID.String(),
		AuthorUserID:    t.AuthorUserID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

type transactionPageJSON struct {
	Items []transactionJSON `json:"items"`
	Total int64             `json:"total"`
}

func toTransactionPageJSON(p services.TransactionPage) transactionPageJSON {
	items := make([]transactionJSON, 0, len(p.Items))
	for _, t := range p.Items {
		items = append(items, toTransactionJSON(t))
	}
	return transactionPageJSON{Items: items, Total: p.Total}
}

type createBudgetRequest struct {
	Name             string `json:"name"`
	TotalAmountCents int64  `json:"total_amount_cents"`
}

type updateBudgetRequest struct {
	Name             *string `json:"name"`
	TotalAmountCents *int64  `json:"total_amount_cents"`
}

type createCategoryRequest struct {
	Name             string `json:"name"`
	LimitAmountCents int64  `json:"limit_amount_cents"`
}

type updateCategoryRequest struct {
	Name             *string `json:"name"`
	LimitAmountCents *int64  `json:"limit_amount_cents"`
}

type createTransactionRequest struct {
	Type            string    `json:"type"`
	AmountCents     int64     `json:"amount_cents"`
	Name            string    `json:"name"`
	Comment         string    `json:"comment"`
	TransactionDate time.Time `json:"transaction_date"`
	CategoryID      string    `json:"category_id"`
}

type updateTransactionRequest struct {
	Type            *string    `json:"type"`
	AmountCents     *int64     `json:"amount_cents"`
	Name            *string    `json:"name"`
	Comment         *string    `json:"comment"`
	TransactionDate *time.Time `json:"transaction_date"`
	CategoryID      *string    `json:"category_id"`
}

type errorJSON struct {
	Error string `json:"error"`
}
