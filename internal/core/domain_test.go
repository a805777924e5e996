package core

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestOwner_Validate(t *testing.T) {
	cases := []struct {
		name  string
		owner Owner
		ok    bool
	}{
		{"user owner", OwnerUser(42), true},
		{"chat owner", OwnerChat(-100123), true},
		{"neither set", Owner{}, false},
		{"both set", Owner{UserID: 42, ChatID: -100123}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.owner.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && !errors.Is(err, ErrOwnerInvariant) {
				t.Fatalf("expected ErrOwnerInvariant, got %v", err)
			}
		})
	}
}

func TestOwner_Matches(t *testing.T) {
	cases := []struct {
		name string
		a, b Owner
		want bool
	}{
		{"same user", OwnerUser(1), OwnerUser(1), true},
		{"different user", OwnerUser(1), OwnerUser(2), false},
		{"same chat", OwnerChat(-5), OwnerChat(-5), true},
		{"user vs chat", OwnerUser(7), OwnerChat(7), false},
		{"invalid owner matches nothing", Owner{}, Owner{}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.a.Matches(tc.b); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestTransactionType_Validate(t *testing.T) {
	if err := Expense.Validate(); err != nil {
		t.Fatalf("expense should be valid: %v", err)
	}
	if err := Income.Validate(); err != nil {
		t.Fatalf("income should be valid: %v", err)
	}
	if err := TransactionType("transfer").Validate(); !errors.Is(err, ErrInvalidType) {
		t.Fatalf("expected ErrInvalidType, got %v", err)
	}
}

func TestIsGroupChatType(t *testing.T) {
	for chatType, want := range map[string]bool{
		"group":      true,
		"supergroup": true,
		"private":    false,
		"channel":    false,
		"":           false,
	} {
		if got := IsGroupChatType(chatType); got != want {
			t.Fatalf("%q: expected %v, got %v", chatType, want, got)
		}
	}
}

func TestBudget_Validate(t *testing.T) {
	valid := Budget{
		ID:          uuid.New(),
		Name:        "Vacation",
		TotalAmount: Money{Cents: 100000},
		Owner:       OwnerUser(42),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	blank := valid
	blank.Name = "   "
	if err := blank.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}

	negative := valid
	negative.TotalAmount = Money{Cents: -1}
	if err := negative.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	unowned := valid
	unowned.Owner = Owner{}
	if err := unowned.Validate(); !errors.Is(err, ErrOwnerInvariant) {
		t.Fatalf("expected ErrOwnerInvariant, got %v", err)
	}
}

func TestTransaction_Validate(t *testing.T) {
	valid := Transaction{
		ID:              uuid.New(),
		Type:            Expense,
		Amount:          Money{Cents: 5000},
		Name:            "Groceries",
		TransactionDate: time.Now(),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	zeroAmount := valid
	zeroAmount.Amount = Money{}
	if err := zeroAmount.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}

	noDate := valid
	noDate.TransactionDate = time.Time{}
	if err := noDate.Validate(); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestCategory_Progress(t *testing.T) {
	c := Category{LimitAmount: Money{Cents: 20000}, Spent: Money{Cents: 5000}}
	if got := c.Progress(); got != 25 {
		t.Fatalf("expected 25, got %v", got)
	}
}
