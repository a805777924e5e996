package core

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	Expense TransactionType = "expense"
	Income  TransactionType = "income"
)

// Chat types that establish a group context.
const (
	ChatTypeGroup      = "group"
	ChatTypeSupergroup = "supergroup"
)

type (
	TransactionType string

	// User mirrors the host platform's user object. The id is issued
	// by the platform and used as primary key verbatim.
	User struct {
		ID           int64
		FirstName    string
		LastName     string
		Username     string
		LanguageCode string
		PhotoURL     string
		IsPremium    bool
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// Chat is a group context a budget may be shared in.
	Chat struct {
		ID        int64
		Type      string
		Title     string
		CreatedAt time.Time
		UpdatedAt time.Time
	}

	// Budget is the aggregate root. TotalExpense, TotalIncome and
	// Balance are a cache over the budget's transactions: they must
	// equal a fresh rescan after every ledger mutation.
	Budget struct {
		ID           uuid.UUID
		Name         string
		TotalAmount  Money
		Owner        Owner
		TotalExpense Money
		TotalIncome  Money
		Balance      Money
		CreatedAt    time.Time
		UpdatedAt    time.Time
	}

	// Category partitions a budget. BudgetID is immutable after
	// creation. Spent, Income, Balance and TransactionCount are cached
	// figures like the budget's.
	Category struct {
		ID               uuid.UUID
		Name             string
		LimitAmount      Money
		BudgetID         uuid.UUID
		Spent            Money
		Income           Money
		Balance          Money
		TransactionCount int64
		CreatedAt        time.Time
		UpdatedAt        time.Time
	}

	// Transaction is a single ledger entry. TransactionDate is the
	// user-supplied date, distinct from CreatedAt.
	Transaction struct {
		ID              uuid.UUID
		Type            TransactionType
		Amount          Money
		Name            string
		Comment         string
		TransactionDate time.Time
		BudgetID        uuid.UUID
		CategoryID      uuid.UUID
		AuthorUserID    int64
		CreatedAt       time.Time
		UpdatedAt       time.Time
	}
)

func (t TransactionType) Validate() error {
	switch t {
	case Expense, Income:
		return nil
	}
	return ErrInvalidType
}

// IsGroupChatType reports whether a chat type establishes a group context.
func IsGroupChatType(chatType string) bool {
	return chatType == ChatTypeGroup || chatType == ChatTypeSupergroup
}

// Progress returns the category's spent-vs-limit percentage.
func (c Category) Progress() float64 {
	return Progress(c.LimitAmount, c.Spent)
}

func (b Budget) Validate() error {
	if len(strings.TrimSpace(b.Name)) == 0 {
		return ErrEmptyName
	}
	if err := b.TotalAmount.ValidateNonNegative(); err != nil {
		return err
	}
	return b.Owner.Validate()
}

func (c Category) Validate() error {
	if len(strings.TrimSpace(c.Name)) == 0 {
		return ErrEmptyName
	}
	return c.LimitAmount.ValidateNonNegative()
}

func (t Transaction) Validate() error {
	if err := t.Type.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.TransactionDate.IsZero() {
		return ErrInvalidDate
	}
	return nil
}
